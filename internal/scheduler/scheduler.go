// Package scheduler triggers update cycles on a cron schedule.
//
// Cycles never overlap: a tick that arrives while the previous cycle is still running is skipped,
// which keeps the registry and the playlists single-writer.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/naestech/newNoise/internal/tasks"
	"github.com/robfig/cron/v3"
)

// DefaultSpec runs once a day at midnight.
const DefaultSpec = "0 0 * * *"

// CycleRunner runs one update cycle.
type CycleRunner interface {
	RunUpdateCycle(ctx context.Context, progress chan<- tasks.ProgressUpdate) (*tasks.UpdateResult, error)
}

// Scheduler runs a [CycleRunner] on a standard five field cron spec.
type Scheduler struct {
	runner  CycleRunner
	spec    string
	cron    *cron.Cron
	logger  *log.Logger
	timeout time.Duration

	mu      sync.RWMutex
	running bool
	entry   cron.EntryID
	ctx     context.Context
	cancel  context.CancelFunc

	lastRun    time.Time
	lastResult *tasks.UpdateResult
	lastErr    error
}

// Option configures a [Scheduler].
type Option func(*Scheduler)

// WithLocation evaluates the spec in loc instead of the local time zone.
func WithLocation(loc *time.Location) Option {
	return func(s *Scheduler) {
		s.cron = cron.New(cron.WithLocation(loc), cron.WithChain(cron.SkipIfStillRunning(cronLogger{s.logger})))
	}
}

// WithTimeout bounds each cycle.
func WithTimeout(d time.Duration) Option {
	return func(s *Scheduler) { s.timeout = d }
}

// New creates a [Scheduler]. An empty spec means [DefaultSpec].
func New(runner CycleRunner, spec string, logger *log.Logger, opts ...Option) (*Scheduler, error) {
	if spec == "" {
		spec = DefaultSpec
	}
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", spec, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		runner:  runner,
		spec:    spec,
		logger:  logger,
		timeout: 30 * time.Minute,
		ctx:     ctx,
		cancel:  cancel,
	}
	s.cron = cron.New(cron.WithChain(cron.SkipIfStillRunning(cronLogger{logger})))

	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Start registers the cycle and starts the cron loop.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler is already running")
	}

	entry, err := s.cron.AddFunc(s.spec, s.RunNow)
	if err != nil {
		return fmt.Errorf("failed to add update cycle to cron: %w", err)
	}

	s.entry = entry
	s.cron.Start()
	s.running = true

	s.logger.Info("scheduler started", "spec", s.spec, "next", s.cron.Entry(entry).Next.Format(time.RFC3339))
	return nil
}

// Stop cancels a running cycle and waits for it to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	s.cancel()
	<-s.cron.Stop().Done()
	s.logger.Info("scheduler stopped")
}

// RunNow runs one cycle synchronously and records its outcome.
func (s *Scheduler) RunNow() {
	ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()

	s.logger.Info("scheduled update cycle starting")
	started := time.Now()
	result, err := s.runner.RunUpdateCycle(ctx, nil)

	s.mu.Lock()
	s.lastRun = started
	s.lastResult = result
	s.lastErr = err
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("scheduled update cycle failed", "error", err, "elapsed", time.Since(started))
		return
	}
	s.logger.Info("scheduled update cycle finished",
		"current_added", result.CurrentAdded,
		"archive_added", result.ArchiveAdded,
		"elapsed", time.Since(started),
	)
}

// Next returns the next scheduled run, or the zero time when not started.
func (s *Scheduler) Next() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.running {
		return time.Time{}
	}
	return s.cron.Entry(s.entry).Next
}

// Last returns the outcome of the most recent cycle.
func (s *Scheduler) Last() (time.Time, *tasks.UpdateResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastRun, s.lastResult, s.lastErr
}

// NextRun returns the first activation of spec after from.
func NextRun(spec string, from time.Time) (time.Time, error) {
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	return schedule.Next(from), nil
}

// cronLogger adapts [log.Logger] to [cron.Logger].
type cronLogger struct {
	logger *log.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
