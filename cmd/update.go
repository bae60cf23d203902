package main

import (
	"context"
	"fmt"
	"time"

	"github.com/naestech/newNoise/internal/formatter"
	"github.com/naestech/newNoise/internal/scheduler"
	"github.com/naestech/newNoise/internal/shared"
	"github.com/naestech/newNoise/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Update runs one update cycle and prints its report.
func (r *Runner) Update(ctx context.Context, cmd *cli.Command) error {
	tracker, err := r.openTracker(ctx, true)
	if err != nil {
		return err
	}

	if cmd.Bool("dry-run") {
		opts := tracker.Options()
		opts.DryRun = true
		opts.CleanArchive = false
		tracker.SetOptions(opts)
	}

	result, err := r.runCycle(ctx, tracker)
	if err != nil {
		return err
	}

	if path := cmd.String("report"); path != "" {
		if _, err := formatter.WriteFile(path, func(f formatter.Format) ([]byte, error) {
			return formatter.Report(result, f)
		}); err != nil {
			return err
		}
		r.logger.Info("cycle report written", "path", path)
	}

	if cmd.Bool("json") {
		return r.writeJSON(result, cmd.Bool("pretty"))
	}

	report, err := formatter.ReportToText(result)
	if err != nil {
		return err
	}
	return r.writePlain("%s", report)
}

// runCycle runs the cycle while logging its progress updates.
func (r *Runner) runCycle(ctx context.Context, tracker *tasks.Tracker) (*tasks.UpdateResult, error) {
	progress := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for update := range progress {
			r.logger.Info(update.Message, "phase", update.Phase)
		}
	}()

	result, err := tracker.RunUpdateCycle(ctx, progress)
	close(progress)
	<-done

	return result, err
}

// Clean removes archive tracks that have aged out of the archive window.
func (r *Runner) Clean(ctx context.Context, cmd *cli.Command) error {
	tracker, err := r.openTracker(ctx, true)
	if err != nil {
		return err
	}

	removed, err := tracker.CleanArchive(ctx, nil)
	if err != nil {
		return err
	}

	return r.writePlain("✓ Removed %d tracks from %s\n", removed, tracker.Playlists().ArchiveName)
}

// Schedule runs update cycles on the cron spec until the context is cancelled.
func (r *Runner) Schedule(ctx context.Context, cmd *cli.Command) error {
	tracker, err := r.openTracker(ctx, true)
	if err != nil {
		return err
	}

	spec := cmd.String("spec")
	if spec == "" {
		spec = r.config.Schedule.Spec
	}

	s, err := scheduler.New(tracker, spec, r.logger, scheduler.WithLocation(time.Local))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidConfig, err)
	}

	if cmd.Bool("run-now") || r.config.Schedule.RunOnStart {
		s.RunNow()
	}

	if err := s.Start(); err != nil {
		return err
	}
	r.writePlain("→ Next update at %s (Ctrl+C to stop)\n", s.Next().Format(time.RFC1123))

	<-ctx.Done()
	s.Stop()
	return nil
}
