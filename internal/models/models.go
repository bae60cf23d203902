// package models defines the data model for the release tracker
package models

import (
	"fmt"
	"strings"
	"time"
)

// TrackedArtist is an artist in the registry. Rows are created on add, deleted on remove and never updated.
type TrackedArtist struct {
	ID      string    // Catalog artist id, primary key
	Name    string    // Display name as entered or returned by search
	URL     string    // Public profile URL
	AddedAt time.Time // Insertion time, assigned by the registry
}

// Validate checks the fields required for insertion.
func (a TrackedArtist) Validate() error {
	if strings.TrimSpace(a.ID) == "" {
		return fmt.Errorf("artist id is required")
	}
	if strings.TrimSpace(a.Name) == "" {
		return fmt.Errorf("artist name is required")
	}
	return nil
}

// Artist is a catalog artist as returned by search or the followed-artists listing.
type Artist struct {
	ID   string
	Name string
	URL  string
}

// Album is a release from an artist's discography.
type Album struct {
	ID          string
	Name        string
	Type        string // album, single
	ReleaseDate string // YYYY, YYYY-MM or YYYY-MM-DD
}

// Track is an entry of an album track listing.
type Track struct {
	ID        string
	Name      string
	ArtistIDs []string // Credited artists in catalog order; the first is the primary artist
}

// PrimaryArtistID returns the first credited artist id, or "" for a track without credits.
func (t Track) PrimaryArtistID() string {
	if len(t.ArtistIDs) == 0 {
		return ""
	}
	return t.ArtistIDs[0]
}

// PlaylistItem is a track in a destination playlist together with its album's release date.
type PlaylistItem struct {
	TrackID     string
	AlbumID     string
	ReleaseDate string
}

// TrackCandidate is a track found for a tracked artist during one update cycle.
type TrackCandidate struct {
	TrackID         string
	AlbumID         string
	ReleaseDate     string
	PrimaryArtistID string // First credited artist of the track
	ArtistID        string // Tracked artist whose discography produced the track
}

// IsPrimary reports whether the tracked artist is the primary credit of the track.
func (c TrackCandidate) IsPrimary() bool {
	return c.PrimaryArtistID != "" && c.PrimaryArtistID == c.ArtistID
}
