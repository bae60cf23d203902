package tasks

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/naestech/newNoise/internal/releases"
	"github.com/naestech/newNoise/internal/services"
)

// ArchiveCleaner removes archive playlist tracks whose release has aged past the archive window.
type ArchiveCleaner struct {
	catalog services.Catalog
	logger  *log.Logger
}

// NewArchiveCleaner creates an [ArchiveCleaner] over catalog.
func NewArchiveCleaner(catalog services.Catalog, logger *log.Logger) *ArchiveCleaner {
	return &ArchiveCleaner{catalog: catalog, logger: logger}
}

// Expired returns the ids in playlistID classified [releases.TooOld], each once, in playlist order.
// Items with an unreadable release date stay.
func (c *ArchiveCleaner) Expired(ctx context.Context, playlistID string, classifier releases.Classifier) ([]string, error) {
	items, err := c.catalog.PlaylistItems(ctx, playlistID)
	if err != nil {
		return nil, fmt.Errorf("failed to read archive playlist: %w", err)
	}

	var expired []string
	seen := make(map[string]struct{})
	for _, item := range items {
		if _, ok := seen[item.TrackID]; ok {
			continue
		}

		d, err := releases.ParseReleaseDate(item.ReleaseDate)
		if err != nil {
			c.logger.Warn("keeping archive track with unreadable release date", "track", item.TrackID, "release_date", item.ReleaseDate)
			continue
		}

		if classifier.ClassifyDate(d) == releases.TooOld {
			expired = append(expired, item.TrackID)
			seen[item.TrackID] = struct{}{}
		}
	}

	return expired, nil
}

// Clean removes expired tracks in chunks of [services.MaxRemoveBatch] and returns how many were removed.
func (c *ArchiveCleaner) Clean(ctx context.Context, playlistID string, classifier releases.Classifier, progress chan<- ProgressUpdate) (int, error) {
	expired, err := c.Expired(ctx, playlistID, classifier)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, chunk := range services.Chunk(expired, services.MaxRemoveBatch) {
		if err := c.catalog.RemoveTracks(ctx, playlistID, chunk); err != nil {
			return removed, fmt.Errorf("failed to remove from %s: %w", playlistID, err)
		}
		removed += len(chunk)
	}

	sendProgress(progress, cleanUpdate(removed, playlistID))
	if removed > 0 {
		c.logger.Info("cleaned archive playlist", "playlist", playlistID, "removed", removed)
	}
	return removed, nil
}
