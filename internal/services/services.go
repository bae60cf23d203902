// package services defines the [Catalog] interface for the music catalog and playlist API
//
// Spotify
package services

import (
	"context"

	"github.com/naestech/newNoise/internal/models"
)

// Catalog is the remote catalog and playlist API used by an update cycle.
//
// Every method returns an error wrapping [shared.ErrRemoteAPI] when the request fails.
type Catalog interface {
	// SearchArtist returns the best artist match for name, or an error wrapping [shared.ErrArtistNotFound].
	SearchArtist(ctx context.Context, name string) (*models.Artist, error)

	// RecentAlbums returns up to limit albums and singles for the artist, most recent first.
	RecentAlbums(ctx context.Context, artistID string, limit int) ([]models.Album, error)

	// AlbumTracks returns the full track listing of an album.
	AlbumTracks(ctx context.Context, albumID string) ([]models.Track, error)

	// PlaylistTrackIDs returns the set of track ids currently in a playlist, following pagination.
	PlaylistTrackIDs(ctx context.Context, playlistID string) (map[string]struct{}, error)

	// PlaylistItems returns every track in a playlist together with its album release date.
	PlaylistItems(ctx context.Context, playlistID string) ([]models.PlaylistItem, error)

	// AppendTracks appends ids to the end of a playlist in request-sized chunks.
	AppendTracks(ctx context.Context, playlistID string, ids []string) error

	// RemoveTracks removes every occurrence of ids from a playlist.
	RemoveTracks(ctx context.Context, playlistID string, ids []string) error

	// FindOrCreatePlaylist returns the id of the current user's playlist called name, creating it when missing.
	FindOrCreatePlaylist(ctx context.Context, name, description string) (string, error)

	// FollowedArtists returns every artist the current user follows.
	FollowedArtists(ctx context.Context) ([]models.Artist, error)
}

// Chunk splits ids into consecutive slices of at most size elements.
func Chunk(ids []string, size int) [][]string {
	if size <= 0 || len(ids) == 0 {
		return nil
	}

	chunks := make([][]string, 0, (len(ids)+size-1)/size)
	for i := 0; i < len(ids); i += size {
		end := min(i+size, len(ids))
		chunks = append(chunks, ids[i:end])
	}
	return chunks
}
