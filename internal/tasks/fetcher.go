package tasks

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/naestech/newNoise/internal/models"
	"github.com/naestech/newNoise/internal/services"
)

// AlbumGate decides whether an album's track listing is worth fetching.
type AlbumGate func(album models.Album) bool

// ReleaseFetcher collects primary-credit tracks from each artist's most recent releases.
type ReleaseFetcher struct {
	catalog        services.Catalog
	logger         *log.Logger
	AlbumLimit     int // Albums and singles requested per artist
	TracksPerAlbum int // Leading tracks considered per album; 0 considers all
	CandidateCap   int // Global cap on returned candidates; 0 disables
}

// NewReleaseFetcher creates a [ReleaseFetcher] with the given limits.
func NewReleaseFetcher(catalog services.Catalog, logger *log.Logger, albumLimit, tracksPerAlbum, candidateCap int) *ReleaseFetcher {
	return &ReleaseFetcher{
		catalog:        catalog,
		logger:         logger,
		AlbumLimit:     albumLimit,
		TracksPerAlbum: tracksPerAlbum,
		CandidateCap:   candidateCap,
	}
}

// Fetch walks artistIDs in order and returns candidates in encounter order.
//
// Albums rejected by gate are never expanded. A track is a candidate only when its first
// credited artist is the artist being queried. Fetching stops once CandidateCap is reached.
// Any catalog failure aborts the fetch.
func (f *ReleaseFetcher) Fetch(ctx context.Context, artistIDs []string, gate AlbumGate, progress chan<- ProgressUpdate) ([]models.TrackCandidate, error) {
	var candidates []models.TrackCandidate

	for i, artistID := range artistIDs {
		sendProgress(progress, fetchArtistUpdate(i+1, len(artistIDs), artistID))

		albums, err := f.catalog.RecentAlbums(ctx, artistID, f.AlbumLimit)
		if err != nil {
			return nil, fmt.Errorf("failed to list albums for %s: %w", artistID, err)
		}

		for _, album := range albums {
			if gate != nil && !gate(album) {
				continue
			}

			tracks, err := f.catalog.AlbumTracks(ctx, album.ID)
			if err != nil {
				return nil, fmt.Errorf("failed to list tracks for album %s: %w", album.ID, err)
			}

			if f.TracksPerAlbum > 0 && len(tracks) > f.TracksPerAlbum {
				tracks = tracks[:f.TracksPerAlbum]
			}

			for _, track := range tracks {
				if track.PrimaryArtistID() != artistID {
					f.logger.Debug("skipping featured credit", "track", track.ID, "artist", artistID, "primary", track.PrimaryArtistID())
					continue
				}

				candidates = append(candidates, models.TrackCandidate{
					TrackID:         track.ID,
					AlbumID:         album.ID,
					ReleaseDate:     album.ReleaseDate,
					PrimaryArtistID: track.PrimaryArtistID(),
					ArtistID:        artistID,
				})

				if f.CandidateCap > 0 && len(candidates) >= f.CandidateCap {
					f.logger.Debug("candidate cap reached", "cap", f.CandidateCap, "artist", artistID)
					return candidates, nil
				}
			}
		}
	}

	return candidates, nil
}
