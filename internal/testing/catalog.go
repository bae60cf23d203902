package testing

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/naestech/newNoise/internal/models"
	"github.com/naestech/newNoise/internal/shared"
)

// AppendCall records one AppendTracks request.
type AppendCall struct {
	PlaylistID string
	IDs        []string
}

// FakeCatalog is an in-memory [services.Catalog] returning canned catalog data.
//
// Appends and removals mutate the stored playlists so a second cycle sees the first one's writes.
// Set Errors[method] to make that method fail with an error wrapping [shared.ErrRemoteAPI].
type FakeCatalog struct {
	mu sync.Mutex

	artists   map[string]models.Artist  // normalized name -> artist
	albums    map[string][]models.Album // artist id -> albums
	tracks    map[string][]models.Track // album id -> tracks
	trackInfo map[string]models.Album   // track id -> album
	playlists map[string][]models.PlaylistItem
	names     map[string]string // playlist name -> id
	followed  []models.Artist

	Errors  map[string]error
	Calls   []string
	Appends []AppendCall
	Removes []AppendCall
	Created []string
}

// NewFakeCatalog returns an empty [FakeCatalog].
func NewFakeCatalog() *FakeCatalog {
	return &FakeCatalog{
		artists:   make(map[string]models.Artist),
		albums:    make(map[string][]models.Album),
		tracks:    make(map[string][]models.Track),
		trackInfo: make(map[string]models.Album),
		playlists: make(map[string][]models.PlaylistItem),
		names:     make(map[string]string),
		Errors:    make(map[string]error),
	}
}

// AddArtist makes artist findable by name and optionally followed.
func (f *FakeCatalog) AddArtist(artist models.Artist, followed bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.artists[shared.NormalizeName(artist.Name)] = artist
	if followed {
		f.followed = append(f.followed, artist)
	}
}

// AddRelease appends album with its tracks to the artist's discography.
func (f *FakeCatalog) AddRelease(artistID string, album models.Album, tracks ...models.Track) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.albums[artistID] = append(f.albums[artistID], album)
	f.tracks[album.ID] = append(f.tracks[album.ID], tracks...)
	for _, t := range tracks {
		f.trackInfo[t.ID] = album
	}
}

// AddPlaylist registers a playlist called name holding items.
func (f *FakeCatalog) AddPlaylist(id, name string, items ...models.PlaylistItem) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.names[name] = id
	f.playlists[id] = append(f.playlists[id], items...)
}

// Playlist returns the track ids currently stored for playlist id, in order.
func (f *FakeCatalog) Playlist(id string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	ids := make([]string, 0, len(f.playlists[id]))
	for _, item := range f.playlists[id] {
		ids = append(ids, item.TrackID)
	}
	return ids
}

// CallCount returns how many times method was invoked.
func (f *FakeCatalog) CallCount(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := 0
	for _, c := range f.Calls {
		if c == method {
			n++
		}
	}
	return n
}

func (f *FakeCatalog) call(method string) error {
	f.Calls = append(f.Calls, method)
	if err, ok := f.Errors[method]; ok && err != nil {
		return fmt.Errorf("%w: %s: %v", shared.ErrRemoteAPI, method, err)
	}
	return nil
}

func (f *FakeCatalog) SearchArtist(ctx context.Context, name string) (*models.Artist, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.call("SearchArtist"); err != nil {
		return nil, err
	}

	artist, ok := f.artists[shared.NormalizeName(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", shared.ErrArtistNotFound, name)
	}
	return &artist, nil
}

func (f *FakeCatalog) RecentAlbums(ctx context.Context, artistID string, limit int) ([]models.Album, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.call("RecentAlbums"); err != nil {
		return nil, err
	}

	albums := f.albums[artistID]
	if limit > 0 && len(albums) > limit {
		albums = albums[:limit]
	}
	return append([]models.Album(nil), albums...), nil
}

func (f *FakeCatalog) AlbumTracks(ctx context.Context, albumID string) ([]models.Track, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.call("AlbumTracks"); err != nil {
		return nil, err
	}
	return append([]models.Track(nil), f.tracks[albumID]...), nil
}

func (f *FakeCatalog) PlaylistItems(ctx context.Context, playlistID string) ([]models.PlaylistItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.call("PlaylistItems"); err != nil {
		return nil, err
	}
	return append([]models.PlaylistItem(nil), f.playlists[playlistID]...), nil
}

func (f *FakeCatalog) PlaylistTrackIDs(ctx context.Context, playlistID string) (map[string]struct{}, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.call("PlaylistTrackIDs"); err != nil {
		return nil, err
	}

	ids := make(map[string]struct{}, len(f.playlists[playlistID]))
	for _, item := range f.playlists[playlistID] {
		ids[item.TrackID] = struct{}{}
	}
	return ids, nil
}

func (f *FakeCatalog) AppendTracks(ctx context.Context, playlistID string, ids []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.call("AppendTracks"); err != nil {
		return err
	}

	f.Appends = append(f.Appends, AppendCall{PlaylistID: playlistID, IDs: append([]string(nil), ids...)})
	for _, id := range ids {
		album := f.trackInfo[id]
		f.playlists[playlistID] = append(f.playlists[playlistID], models.PlaylistItem{
			TrackID:     id,
			AlbumID:     album.ID,
			ReleaseDate: album.ReleaseDate,
		})
	}
	return nil
}

func (f *FakeCatalog) RemoveTracks(ctx context.Context, playlistID string, ids []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.call("RemoveTracks"); err != nil {
		return err
	}

	f.Removes = append(f.Removes, AppendCall{PlaylistID: playlistID, IDs: append([]string(nil), ids...)})

	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}

	kept := f.playlists[playlistID][:0]
	for _, item := range f.playlists[playlistID] {
		if _, ok := drop[item.TrackID]; !ok {
			kept = append(kept, item)
		}
	}
	f.playlists[playlistID] = kept
	return nil
}

func (f *FakeCatalog) FindOrCreatePlaylist(ctx context.Context, name, description string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.call("FindOrCreatePlaylist"); err != nil {
		return "", err
	}

	if id, ok := f.names[name]; ok {
		return id, nil
	}

	id := strings.ReplaceAll(strings.ToLower(name), " ", "-")
	f.names[name] = id
	f.playlists[id] = nil
	f.Created = append(f.Created, name)
	return id, nil
}

func (f *FakeCatalog) FollowedArtists(ctx context.Context) ([]models.Artist, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.call("FollowedArtists"); err != nil {
		return nil, err
	}
	return append([]models.Artist(nil), f.followed...), nil
}
