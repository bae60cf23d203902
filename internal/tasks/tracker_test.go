package tasks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/naestech/newNoise/internal/models"
	"github.com/naestech/newNoise/internal/releases"
	"github.com/naestech/newNoise/internal/repositories"
	"github.com/naestech/newNoise/internal/shared"
	nntest "github.com/naestech/newNoise/internal/testing"
)

func newTestStore(t *testing.T) *repositories.ArtistRepository {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}
	return repositories.NewArtistRepository(db, shared.NewLogger(io.Discard))
}

func newTestTracker(t *testing.T, fake *nntest.FakeCatalog, opts Options) (*Tracker, *repositories.ArtistRepository) {
	t.Helper()

	store := newTestStore(t)
	playlists := shared.DefaultConfig().Playlists
	tracker := NewTracker(store, fake, playlists, opts, shared.NewLogger(io.Discard))
	tracker.SetClock(func() time.Time { return cycleNow })
	return tracker, store
}

func TestTracker(t *testing.T) {
	ctx := context.Background()

	t.Run("ResolvePlaylists creates missing playlists once", func(t *testing.T) {
		fake := nntest.NewFakeCatalog()
		fake.AddPlaylist("existing-current", "New Noise")
		tracker, _ := newTestTracker(t, fake, testOptions())

		ids, err := tracker.ResolvePlaylists(ctx, nil)
		if err != nil {
			t.Fatalf("ResolvePlaylists() error = %v", err)
		}
		if ids.Current != "existing-current" {
			t.Errorf("expected existing playlist reused, got %s", ids.Current)
		}
		if len(fake.Created) != 1 || fake.Created[0] != "New Noise Archive" {
			t.Errorf("expected archive playlist created, got %v", fake.Created)
		}

		if _, err := tracker.ResolvePlaylists(ctx, nil); err != nil {
			t.Fatalf("second ResolvePlaylists() error = %v", err)
		}
		if got := fake.CallCount("FindOrCreatePlaylist"); got != 2 {
			t.Errorf("expected resolved ids cached, got %d lookups", got)
		}
	})

	t.Run("RunUpdateCycle", func(t *testing.T) {
		fake := nntest.NewFakeCatalog()
		fake.AddArtist(models.Artist{ID: "A1", Name: "Mitski"}, false)
		fake.AddRelease("A1", album("today", "2024-05-15"), track("T1", "A1"), track("T2", "B9", "A1"))
		fake.AddRelease("A1", album("recent", "2024-05-05"), track("T3", "A1"))

		tracker, store := newTestTracker(t, fake, testOptions())
		store.Add("A1", "Mitski", "")

		result, err := tracker.RunUpdateCycle(ctx, nil)
		if err != nil {
			t.Fatalf("RunUpdateCycle() error = %v", err)
		}

		if result.CycleID == "" {
			t.Error("expected a cycle id")
		}
		if !result.Now.Equal(cycleNow) {
			t.Errorf("expected injected clock, got %v", result.Now)
		}
		if result.CurrentAdded != 1 || result.ArchiveAdded != 1 {
			t.Errorf("expected 1 new and 1 archived, got %d/%d", result.CurrentAdded, result.ArchiveAdded)
		}

		ids := tracker.Playlists()
		if got := fake.Playlist(ids.CurrentID); len(got) != 1 || got[0] != "T1" {
			t.Errorf("unexpected current playlist %v", got)
		}
		if got := fake.Playlist(ids.ArchiveID); len(got) != 1 || got[0] != "T3" {
			t.Errorf("unexpected archive playlist %v", got)
		}
	})

	t.Run("RunUpdateCycle with empty registry", func(t *testing.T) {
		fake := nntest.NewFakeCatalog()
		tracker, _ := newTestTracker(t, fake, testOptions())

		result, err := tracker.RunUpdateCycle(ctx, nil)
		if err != nil {
			t.Fatalf("RunUpdateCycle() error = %v", err)
		}
		if result.CurrentAdded+result.ArchiveAdded != 0 || fake.CallCount("RecentAlbums") != 0 {
			t.Errorf("expected a no-op cycle, got %+v", result)
		}
	})

	t.Run("RunUpdateCycle surfaces remote failures", func(t *testing.T) {
		fake := nntest.NewFakeCatalog()
		fake.Errors["FindOrCreatePlaylist"] = errors.New("unauthorized")
		tracker, _ := newTestTracker(t, fake, testOptions())

		if _, err := tracker.RunUpdateCycle(ctx, nil); !errors.Is(err, shared.ErrRemoteAPI) {
			t.Errorf("expected ErrRemoteAPI, got %v", err)
		}
	})

	t.Run("RunUpdateCycle cleans archive when enabled", func(t *testing.T) {
		fake := nntest.NewFakeCatalog()
		fake.AddPlaylist("current", "New Noise")
		fake.AddPlaylist("archive", "New Noise Archive",
			models.PlaylistItem{TrackID: "OLD", ReleaseDate: "2024-03-01"},
			models.PlaylistItem{TrackID: "KEEP", ReleaseDate: "2024-05-01"},
		)

		opts := testOptions()
		opts.CleanArchive = true
		tracker, _ := newTestTracker(t, fake, opts)

		result, err := tracker.RunUpdateCycle(ctx, nil)
		if err != nil {
			t.Fatalf("RunUpdateCycle() error = %v", err)
		}
		if result.Removed != 1 {
			t.Errorf("expected 1 removed, got %d", result.Removed)
		}
		if got := fake.Playlist("archive"); len(got) != 1 || got[0] != "KEEP" {
			t.Errorf("unexpected archive contents %v", got)
		}
	})

	t.Run("AddArtists", func(t *testing.T) {
		fake := nntest.NewFakeCatalog()
		fake.AddArtist(models.Artist{ID: "A1", Name: "Mitski", URL: "https://open.spotify.com/artist/A1"}, false)
		fake.AddArtist(models.Artist{ID: "A2", Name: "Big Thief"}, false)
		tracker, store := newTestTracker(t, fake, testOptions())

		results := tracker.AddArtists(ctx, "mitski, Big Thief, Nobody In Particular, Mitski")
		if len(results) != 4 {
			t.Fatalf("expected 4 results, got %d", len(results))
		}

		if !results[0].Added || !results[1].Added {
			t.Errorf("expected first two added, got %+v", results[:2])
		}
		if !errors.Is(results[2].Err, shared.ErrArtistNotFound) {
			t.Errorf("expected not found, got %v", results[2].Err)
		}
		if results[3].Added || results[3].Err != nil {
			t.Errorf("expected duplicate reported as not added, got %+v", results[3])
		}

		artists := tracker.Artists()
		if len(artists) != 2 || artists[0].Name != "Mitski" || artists[0].URL == "" {
			t.Errorf("unexpected registry %+v", artists)
		}
		if store.Count() != 2 {
			t.Errorf("expected 2 rows, got %d", store.Count())
		}
	})

	t.Run("RemoveArtists by name or id", func(t *testing.T) {
		fake := nntest.NewFakeCatalog()
		tracker, store := newTestTracker(t, fake, testOptions())
		store.Add("A1", "Mitski", "")
		store.Add("A2", "Big Thief", "")
		store.Add("A3", "Wednesday", "")

		results := tracker.RemoveArtists("mitski, A2, Nobody")
		if len(results) != 3 {
			t.Fatalf("expected 3 results, got %d", len(results))
		}
		if !results[0].Removed || results[0].ID != "A1" {
			t.Errorf("expected removal by name, got %+v", results[0])
		}
		if !results[1].Removed {
			t.Errorf("expected removal by id, got %+v", results[1])
		}
		if results[2].Removed {
			t.Errorf("expected unknown entry not removed, got %+v", results[2])
		}

		if ids := store.IDs(); len(ids) != 1 || ids[0] != "A3" {
			t.Errorf("expected only A3 left, got %v", ids)
		}
	})

	t.Run("ImportFollowed", func(t *testing.T) {
		fake := nntest.NewFakeCatalog()
		fake.AddArtist(models.Artist{ID: "A1", Name: "Mitski"}, true)
		fake.AddArtist(models.Artist{ID: "A2", Name: "Big Thief"}, true)
		tracker, store := newTestTracker(t, fake, testOptions())
		store.Add("A1", "Mitski", "")

		result, err := tracker.ImportFollowed(ctx)
		if err != nil {
			t.Fatalf("ImportFollowed() error = %v", err)
		}
		if result.Followed != 2 || result.Added != 1 {
			t.Errorf("expected 2 followed and 1 added, got %+v", result)
		}
	})
}

func TestArchiveCleaner(t *testing.T) {
	ctx := context.Background()
	classifier := releases.NewClassifier(cycleNow, 30)

	t.Run("removes only expired tracks", func(t *testing.T) {
		fake := nntest.NewFakeCatalog()
		fake.AddPlaylist("archive", "New Noise Archive",
			models.PlaylistItem{TrackID: "OLD", ReleaseDate: "2024-04-14"},
			models.PlaylistItem{TrackID: "YEAR", ReleaseDate: "2023"},
			models.PlaylistItem{TrackID: "EDGE", ReleaseDate: "2024-04-15"},
			models.PlaylistItem{TrackID: "NEW", ReleaseDate: "2024-05-14"},
			models.PlaylistItem{TrackID: "BAD", ReleaseDate: ""},
			models.PlaylistItem{TrackID: "OLD", ReleaseDate: "2024-04-14"},
		)

		cleaner := NewArchiveCleaner(fake, shared.NewLogger(io.Discard))
		removed, err := cleaner.Clean(ctx, "archive", classifier, nil)
		if err != nil {
			t.Fatalf("Clean() error = %v", err)
		}

		if removed != 2 {
			t.Errorf("expected 2 removed, got %d", removed)
		}
		got := fake.Playlist("archive")
		if len(got) != 3 || got[0] != "EDGE" || got[1] != "NEW" || got[2] != "BAD" {
			t.Errorf("unexpected archive contents %v", got)
		}
	})

	t.Run("removals are chunked at one hundred", func(t *testing.T) {
		fake := nntest.NewFakeCatalog()
		items := make([]models.PlaylistItem, 150)
		for i := range items {
			items[i] = models.PlaylistItem{TrackID: fmt.Sprintf("track-%03d", i), ReleaseDate: "2020-01-01"}
		}
		fake.AddPlaylist("archive", "New Noise Archive", items...)

		cleaner := NewArchiveCleaner(fake, shared.NewLogger(io.Discard))
		removed, err := cleaner.Clean(ctx, "archive", classifier, nil)
		if err != nil {
			t.Fatalf("Clean() error = %v", err)
		}
		if removed != 150 {
			t.Errorf("expected 150 removed, got %d", removed)
		}
		if len(fake.Removes) != 2 || len(fake.Removes[0].IDs) != 100 || len(fake.Removes[1].IDs) != 50 {
			t.Errorf("unexpected removal chunks %d", len(fake.Removes))
		}
	})

	t.Run("remote failure is returned", func(t *testing.T) {
		fake := nntest.NewFakeCatalog()
		fake.Errors["PlaylistItems"] = errors.New("timeout")

		cleaner := NewArchiveCleaner(fake, shared.NewLogger(io.Discard))
		if _, err := cleaner.Clean(ctx, "archive", classifier, nil); !errors.Is(err, shared.ErrRemoteAPI) {
			t.Errorf("expected ErrRemoteAPI, got %v", err)
		}
	})
}
