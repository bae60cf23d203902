// Package services defines the [Catalog] interface for the remote music catalog and implements it for Spotify.
//
// # Catalog Interface
//
// The update pipeline only talks to the catalog through [Catalog], so tests substitute a fake.
//
// # Spotify Implementation
//
// [SpotifyService] wraps the github.com/zmb3/spotify/v2 client. Authentication uses the
// authorization code flow through spotifyauth, and the [oauth2] transport refreshes expired
// access tokens with the stored refresh token. Every outgoing request waits on a
// [rate.Limiter] so a full cycle over a large registry stays under the API's request budget.
//
// Playlist writes are chunked: appends send at most [MaxAppendBatch] ids per request and
// removals at most [MaxRemoveBatch].
//
// # Error Handling
//
// Services use typed errors from shared package:
//   - [shared.ErrNotAuthenticated] : Authenticate() not called
//   - [shared.ErrRemoteAPI] : any failed request; aborts the current update cycle
//   - [shared.ErrArtistNotFound] : search returned no artists
//
// # API Mappings
//
// Responses are converted to [models.Artist], [models.Album], [models.Track] and [models.PlaylistItem].
// A track's credited artists keep catalog order so the first id is the primary artist.
package services
