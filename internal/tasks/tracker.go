package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/naestech/newNoise/internal/models"
	"github.com/naestech/newNoise/internal/releases"
	"github.com/naestech/newNoise/internal/services"
	"github.com/naestech/newNoise/internal/shared"
)

// ArtistStore is the tracked artist registry.
//
// Implementations never return storage errors; failures surface as false or empty results.
type ArtistStore interface {
	Add(id, name, url string) bool
	Remove(id string) bool
	List() []models.TrackedArtist
	IDs() []string
	FindByName(name string) (models.TrackedArtist, bool)
}

// AddResult reports one name passed to [Tracker.AddArtists].
type AddResult struct {
	Query  string
	Artist *models.Artist
	Added  bool  // False when already tracked or the store refused the row
	Err    error // Search failure
}

// RemoveResult reports one name or id passed to [Tracker.RemoveArtists].
type RemoveResult struct {
	Query   string
	ID      string
	Removed bool
}

// ImportResult reports [Tracker.ImportFollowed].
type ImportResult struct {
	Followed int
	Added    int
}

// Tracker binds the registry, the catalog and the playlist configuration.
//
// [Tracker.RunUpdateCycle] is the single entry point used by the CLI, the TUI and the scheduler.
type Tracker struct {
	store     ArtistStore
	catalog   services.Catalog
	playlists shared.PlaylistsConfig
	opts      Options
	clock     func() time.Time
	logger    *log.Logger
}

// NewTracker creates a [Tracker].
func NewTracker(store ArtistStore, catalog services.Catalog, playlists shared.PlaylistsConfig, opts Options, logger *log.Logger) *Tracker {
	return &Tracker{
		store:     store,
		catalog:   catalog,
		playlists: playlists,
		opts:      opts,
		clock:     time.Now,
		logger:    logger,
	}
}

// SetClock replaces the clock read once at the start of each cycle.
func (t *Tracker) SetClock(clock func() time.Time) {
	t.clock = clock
}

// Options returns the cycle limits.
func (t *Tracker) Options() Options {
	return t.opts
}

// SetOptions replaces the cycle limits used by later cycles.
func (t *Tracker) SetOptions(opts Options) {
	t.opts = opts
}

// Playlists returns the playlist configuration, including ids resolved so far.
func (t *Tracker) Playlists() shared.PlaylistsConfig {
	return t.playlists
}

// ResolvePlaylists returns the destination playlist ids, looking each up by name and creating it when no id is configured.
func (t *Tracker) ResolvePlaylists(ctx context.Context, progress chan<- ProgressUpdate) (PlaylistIDs, error) {
	if t.playlists.CurrentID == "" {
		sendProgress(progress, resolvePlaylistsUpdate(1, 2, t.playlists.CurrentName))
		id, err := t.catalog.FindOrCreatePlaylist(ctx, t.playlists.CurrentName, t.playlists.CurrentDescription)
		if err != nil {
			return PlaylistIDs{}, fmt.Errorf("failed to resolve %q: %w", t.playlists.CurrentName, err)
		}
		t.playlists.CurrentID = id
	}

	if t.playlists.ArchiveID == "" {
		sendProgress(progress, resolvePlaylistsUpdate(2, 2, t.playlists.ArchiveName))
		id, err := t.catalog.FindOrCreatePlaylist(ctx, t.playlists.ArchiveName, t.playlists.ArchiveDescription)
		if err != nil {
			return PlaylistIDs{}, fmt.Errorf("failed to resolve %q: %w", t.playlists.ArchiveName, err)
		}
		t.playlists.ArchiveID = id
	}

	return PlaylistIDs{Current: t.playlists.CurrentID, Archive: t.playlists.ArchiveID}, nil
}

// RunUpdateCycle runs one full update: resolve playlists, fetch and classify releases, append both batches,
// and clean the archive when enabled.
//
// The clock is read once so every classification in the cycle uses the same instant.
func (t *Tracker) RunUpdateCycle(ctx context.Context, progress chan<- ProgressUpdate) (*UpdateResult, error) {
	now := t.clock()
	cycleID := shared.GenerateID()
	logger := shared.WithLogger(t.logger, "cycle", cycleID)

	playlists, err := t.ResolvePlaylists(ctx, progress)
	if err != nil {
		logger.Error("update cycle aborted", "error", err)
		return nil, err
	}

	artistIDs := t.store.IDs()
	logger.Info("update cycle started", "artists", len(artistIDs), "now", now.Format(time.RFC3339))

	result, err := NewUpdatePipeline(t.catalog, t.opts, logger).Run(ctx, artistIDs, playlists, now, progress)
	if result != nil {
		result.CycleID = cycleID
	}
	if err != nil {
		logger.Error("update cycle aborted", "error", err)
		return result, err
	}

	if t.opts.CleanArchive && !t.opts.DryRun {
		classifier := releases.NewClassifier(now, t.opts.ArchiveDays)
		removed, err := NewArchiveCleaner(t.catalog, logger).Clean(ctx, playlists.Archive, classifier, progress)
		result.Removed = removed
		if err != nil {
			logger.Error("archive cleanup failed", "error", err)
			return result, err
		}
	}

	logger.Info("update cycle finished",
		"current_added", result.CurrentAdded,
		"archive_added", result.ArchiveAdded,
		"removed", result.Removed,
		"candidates", result.Candidates,
	)
	sendProgress(progress, completeUpdate(result))
	return result, nil
}

// CleanArchive removes expired tracks from the archive playlist outside of a cycle.
func (t *Tracker) CleanArchive(ctx context.Context, progress chan<- ProgressUpdate) (int, error) {
	playlists, err := t.ResolvePlaylists(ctx, progress)
	if err != nil {
		return 0, err
	}

	classifier := releases.NewClassifier(t.clock(), t.opts.ArchiveDays)
	return NewArchiveCleaner(t.catalog, t.logger).Clean(ctx, playlists.Archive, classifier, progress)
}

// AddArtists searches each comma separated name and tracks the first match.
func (t *Tracker) AddArtists(ctx context.Context, input string) []AddResult {
	names := shared.SplitNames(input)
	results := make([]AddResult, 0, len(names))

	for _, name := range names {
		res := AddResult{Query: name}

		artist, err := t.catalog.SearchArtist(ctx, name)
		if err != nil {
			res.Err = err
			if errors.Is(err, shared.ErrArtistNotFound) {
				t.logger.Warn("no catalog match", "name", name)
			} else {
				t.logger.Error("artist search failed", "name", name, "error", err)
			}
			results = append(results, res)
			continue
		}

		res.Artist = artist
		res.Added = t.store.Add(artist.ID, artist.Name, artist.URL)
		if res.Added {
			t.logger.Info("tracking artist", "name", artist.Name, "id", artist.ID)
		}
		results = append(results, res)
	}

	return results
}

// RemoveArtists removes each comma separated entry, matching by name first and then by id.
func (t *Tracker) RemoveArtists(input string) []RemoveResult {
	entries := shared.SplitNames(input)
	results := make([]RemoveResult, 0, len(entries))

	for _, entry := range entries {
		res := RemoveResult{Query: entry, ID: entry}
		if artist, ok := t.store.FindByName(entry); ok {
			res.ID = artist.ID
		}

		res.Removed = t.store.Remove(res.ID)
		if res.Removed {
			t.logger.Info("stopped tracking artist", "query", entry, "id", res.ID)
		}
		results = append(results, res)
	}

	return results
}

// ImportFollowed tracks every artist the authenticated user follows.
func (t *Tracker) ImportFollowed(ctx context.Context) (ImportResult, error) {
	followed, err := t.catalog.FollowedArtists(ctx)
	if err != nil {
		return ImportResult{}, fmt.Errorf("failed to list followed artists: %w", err)
	}

	result := ImportResult{Followed: len(followed)}
	for _, artist := range followed {
		if t.store.Add(artist.ID, artist.Name, artist.URL) {
			result.Added++
		}
	}

	t.logger.Info("imported followed artists", "followed", result.Followed, "added", result.Added)
	return result, nil
}

// Artists lists the tracked artists in insertion order.
func (t *Tracker) Artists() []models.TrackedArtist {
	return t.store.List()
}
