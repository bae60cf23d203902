package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/naestech/newNoise/internal/models"
	"github.com/naestech/newNoise/internal/releases"
	"github.com/naestech/newNoise/internal/services"
	"github.com/naestech/newNoise/internal/shared"
)

// Skip reasons counted in [UpdateResult.Skipped].
const (
	SkipFeatured  = "featured"
	SkipDuplicate = "duplicate"
	SkipTooOld    = "too_old"
	SkipGap       = "gap"
	SkipBadDate   = "bad_date" // Counted per album, since its tracks are never listed
	SkipOverCap   = "over_cap"
)

// Options holds the release window and batching limits of an update cycle.
type Options struct {
	ArchiveDays    int
	AlbumLimit     int
	TracksPerAlbum int
	CandidateCap   int
	TrackCap       int // Hard cap on each submitted batch
	AppendBatch    int // Ids per append request
	CleanArchive   bool
	DryRun         bool // Classify and report without writing to either playlist
}

// OptionsFromConfig converts the [shared.TrackerConfig] section.
func OptionsFromConfig(cfg shared.TrackerConfig) Options {
	return Options{
		ArchiveDays:    cfg.ArchiveDays,
		AlbumLimit:     cfg.AlbumLimit,
		TracksPerAlbum: cfg.TracksPerAlbum,
		CandidateCap:   cfg.CandidateCap,
		TrackCap:       cfg.TrackCap,
		AppendBatch:    cfg.AppendBatch,
		CleanArchive:   cfg.CleanArchive,
	}
}

// DefaultOptions returns the limits of the stock configuration.
func DefaultOptions() Options {
	return OptionsFromConfig(shared.DefaultConfig().Tracker)
}

// PlaylistIDs names the two destination playlists of a cycle.
type PlaylistIDs struct {
	Current string
	Archive string
}

// UpdateResult reports one update cycle.
type UpdateResult struct {
	CycleID      string
	Now          time.Time
	Artists      int
	Candidates   int
	Current      []string // Track ids submitted to the current playlist, in order
	Archive      []string // Track ids submitted to the archive playlist, in order
	CurrentAdded int
	ArchiveAdded int
	Removed      int            // Tracks removed from the archive by cleanup
	Skipped      map[string]int // Count per skip reason
	Warnings     []string
	DryRun       bool
}

func (r *UpdateResult) skip(reason string) {
	r.skipN(reason, 1)
}

func (r *UpdateResult) skipN(reason string, n int) {
	if r.Skipped == nil {
		r.Skipped = make(map[string]int)
	}
	r.Skipped[reason] += n
}

// UpdatePipeline turns tracked artist ids into two deduplicated, size-bounded track batches and submits them.
type UpdatePipeline struct {
	catalog services.Catalog
	fetcher *ReleaseFetcher
	opts    Options
	logger  *log.Logger
}

// NewUpdatePipeline creates an [UpdatePipeline] over catalog.
func NewUpdatePipeline(catalog services.Catalog, opts Options, logger *log.Logger) *UpdatePipeline {
	return &UpdatePipeline{
		catalog: catalog,
		fetcher: NewReleaseFetcher(catalog, logger, opts.AlbumLimit, opts.TracksPerAlbum, opts.CandidateCap),
		opts:    opts,
		logger:  logger,
	}
}

// Run executes one cycle for artistIDs against playlists, judging every date against now.
//
// Playlist membership is read once at the start. Any catalog failure aborts the cycle with an
// error wrapping [shared.ErrRemoteAPI]; appends already made are not rolled back.
func (p *UpdatePipeline) Run(ctx context.Context, artistIDs []string, playlists PlaylistIDs, now time.Time, progress chan<- ProgressUpdate) (*UpdateResult, error) {
	result := &UpdateResult{Now: now, Artists: len(artistIDs), DryRun: p.opts.DryRun}
	classifier := releases.NewClassifier(now, p.opts.ArchiveDays)

	sendProgress(progress, membershipUpdate(1, 2, "current playlist"))
	current, err := p.catalog.PlaylistTrackIDs(ctx, playlists.Current)
	if err != nil {
		return nil, fmt.Errorf("failed to read current playlist: %w", err)
	}

	sendProgress(progress, membershipUpdate(2, 2, "archive playlist"))
	archive, err := p.catalog.PlaylistTrackIDs(ctx, playlists.Archive)
	if err != nil {
		return nil, fmt.Errorf("failed to read archive playlist: %w", err)
	}

	gate := func(album models.Album) bool {
		d, err := releases.ParseReleaseDate(album.ReleaseDate)
		if err != nil {
			p.warn(result, "skipping album with unreadable release date", "album", album.ID, "release_date", album.ReleaseDate)
			result.skip(SkipBadDate)
			return false
		}
		return classifier.InArchiveWindow(d)
	}

	candidates, err := p.fetcher.Fetch(ctx, artistIDs, gate, progress)
	if err != nil {
		return nil, err
	}
	result.Candidates = len(candidates)

	sendProgress(progress, classifyUpdate(len(candidates)))
	newBatch, archiveBatch := p.partition(candidates, classifier, current, archive, result)

	result.Current = p.capBatch(newBatch, result)
	result.Archive = p.capBatch(archiveBatch, result)

	if p.opts.DryRun {
		p.logger.Info("dry run, skipping playlist writes", "current", len(result.Current), "archive", len(result.Archive))
		return result, nil
	}

	if result.CurrentAdded, err = p.submit(ctx, AppendCurrent, playlists.Current, result.Current, progress); err != nil {
		return result, err
	}
	if result.ArchiveAdded, err = p.submit(ctx, AppendArchive, playlists.Archive, result.Archive, progress); err != nil {
		return result, err
	}

	return result, nil
}

// partition splits candidates into the this-week and archive batches in encounter order.
func (p *UpdatePipeline) partition(candidates []models.TrackCandidate, classifier releases.Classifier, current, archive map[string]struct{}, result *UpdateResult) ([]string, []string) {
	var newBatch, archiveBatch []string
	seen := make(map[string]struct{}, len(candidates))

	for _, c := range candidates {
		if !c.IsPrimary() {
			result.skip(SkipFeatured)
			continue
		}

		_, inCurrent := current[c.TrackID]
		_, inArchive := archive[c.TrackID]
		_, inCycle := seen[c.TrackID]
		if inCurrent || inArchive || inCycle {
			result.skip(SkipDuplicate)
			continue
		}

		// Candidates carry their album's date, which already passed the album gate.
		window, _ := classifier.Classify(c.ReleaseDate)

		switch window {
		case releases.ThisWeek:
			newBatch = append(newBatch, c.TrackID)
			seen[c.TrackID] = struct{}{}
		case releases.Archive:
			archiveBatch = append(archiveBatch, c.TrackID)
			seen[c.TrackID] = struct{}{}
		case releases.TooOld:
			result.skip(SkipTooOld)
		default:
			result.skip(SkipGap)
		}
	}

	return newBatch, archiveBatch
}

// capBatch keeps the first TrackCap ids.
func (p *UpdatePipeline) capBatch(ids []string, result *UpdateResult) []string {
	if p.opts.TrackCap > 0 && len(ids) > p.opts.TrackCap {
		result.skipN(SkipOverCap, len(ids)-p.opts.TrackCap)
		return ids[:p.opts.TrackCap]
	}
	return ids
}

// submit appends ids to playlistID in chunks of AppendBatch and returns how many were sent.
func (p *UpdatePipeline) submit(ctx context.Context, phase Phase, playlistID string, ids []string, progress chan<- ProgressUpdate) (int, error) {
	size := p.opts.AppendBatch
	if size <= 0 || size > services.MaxAppendBatch {
		size = services.MaxAppendBatch
	}

	chunks := services.Chunk(ids, size)
	added := 0
	for i, chunk := range chunks {
		if err := p.catalog.AppendTracks(ctx, playlistID, chunk); err != nil {
			return added, fmt.Errorf("failed to append to %s: %w", playlistID, err)
		}
		added += len(chunk)
		sendProgress(progress, appendUpdate(phase, i+1, len(chunks), added, playlistID))
	}

	if added > 0 {
		p.logger.Info("appended tracks", "playlist", playlistID, "count", added)
	}
	return added, nil
}

func (p *UpdatePipeline) warn(result *UpdateResult, msg string, keyvals ...any) {
	p.logger.Warn(msg, keyvals...)
	result.Warnings = append(result.Warnings, fmt.Sprintf("%s %v", msg, keyvals))
}
