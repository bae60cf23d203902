// Spotify Web API implementation of [Catalog]
//
// Requests go through github.com/zmb3/spotify/v2; see https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/naestech/newNoise/internal/models"
	"github.com/naestech/newNoise/internal/shared"
	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	// MaxAppendBatch is the most track ids sent in one append request.
	MaxAppendBatch = 50
	// MaxRemoveBatch is the most track ids sent in one removal request.
	MaxRemoveBatch = 100

	playlistPageSize = 100
	followedPageSize = 50
	playlistsPerPage = 50

	defaultRedirectURI = "http://127.0.0.1:3000/callback"
)

// Scopes requested during authorization.
var Scopes = []string{
	spotifyauth.ScopePlaylistReadPrivate,
	spotifyauth.ScopePlaylistModifyPublic,
	spotifyauth.ScopePlaylistModifyPrivate,
	spotifyauth.ScopeUserFollowRead,
}

// SpotifyService implements [Catalog] for the Spotify Web API.
// Uses [oauth2] against the [spotifyauth] endpoints for authorization and a [rate.Limiter] to pace requests.
type SpotifyService struct {
	config         *oauth2.Config
	onTokenRefresh func(*oauth2.Token)
	client         *spotify.Client
	httpClient     *http.Client
	limiter        *rate.Limiter
	baseURL        string
	logger         *log.Logger
	userID         string
	public         bool
}

// SpotifyOption configures a [SpotifyService].
type SpotifyOption func(*SpotifyService)

// WithBaseURL points API requests at url instead of the public endpoint. url must end with "/".
func WithBaseURL(url string) SpotifyOption {
	return func(s *SpotifyService) { s.baseURL = url }
}

// WithHTTPClient sets the client whose transport carries every request, including token refreshes.
func WithHTTPClient(c *http.Client) SpotifyOption {
	return func(s *SpotifyService) { s.httpClient = c }
}

// WithRateLimit paces requests to rps per second with the given burst. A non-positive rps disables pacing.
func WithRateLimit(rps float64, burst int) SpotifyOption {
	return func(s *SpotifyService) {
		if rps <= 0 {
			s.limiter = nil
			return
		}
		s.limiter = rate.NewLimiter(rate.Limit(rps), max(burst, 1))
	}
}

// WithPublicPlaylists sets the visibility of playlists created by [SpotifyService.FindOrCreatePlaylist].
func WithPublicPlaylists(public bool) SpotifyOption {
	return func(s *SpotifyService) { s.public = public }
}

// WithLogger sets the logger used for request level debug output.
func WithLogger(l *log.Logger) SpotifyOption {
	return func(s *SpotifyService) { s.logger = l }
}

// NewSpotifyService creates a new Spotify service with the given OAuth2 credentials.
func NewSpotifyService(credentials map[string]string, opts ...SpotifyOption) (*SpotifyService, error) {
	clientID, ok := credentials["client_id"]
	if !ok || clientID == "" {
		return nil, fmt.Errorf("%w: missing client_id in credentials", shared.ErrMissingCredentials)
	}

	clientSecret, ok := credentials["client_secret"]
	if !ok || clientSecret == "" {
		return nil, fmt.Errorf("%w: missing client_secret in credentials", shared.ErrMissingCredentials)
	}

	redirectURI, ok := credentials["redirect_uri"]
	if !ok || redirectURI == "" {
		redirectURI = defaultRedirectURI
	}

	s := &SpotifyService{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURI,
			Scopes:       Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:  spotifyauth.AuthURL,
				TokenURL: spotifyauth.TokenURL,
			},
		},
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(5), 5),
		logger:     log.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Name returns the name of the service
func (s *SpotifyService) Name() string {
	return "Spotify"
}

// GetAuthURL returns the authorization URL the user visits to grant access.
func (s *SpotifyService) GetAuthURL(state string) string {
	return s.config.AuthCodeURL(state)
}

// SetTokenRefreshCallback registers fn to receive every new token the transport obtains.
func (s *SpotifyService) SetTokenRefreshCallback(fn func(*oauth2.Token)) {
	s.onTokenRefresh = fn
}

// Exchange trades an authorization code for a token and authenticates the service with it.
func (s *SpotifyService) Exchange(ctx context.Context, code string, opts ...oauth2.AuthCodeOption) (*oauth2.Token, error) {
	token, err := s.config.Exchange(s.transportContext(ctx), code, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to exchange auth code: %v", shared.ErrAuthFailed, err)
	}

	// The token source outlives the callback request that carried the code.
	s.AuthenticateToken(context.WithoutCancel(ctx), token)
	return token, nil
}

// Authenticate builds an API client from credentials.
//
// Expects an "access_token" and/or "refresh_token", or an "auth_code" to exchange.
// An optional "expiry" in RFC 3339 lets the transport refresh ahead of time.
func (s *SpotifyService) Authenticate(ctx context.Context, credentials map[string]string) error {
	if code := credentials["auth_code"]; code != "" {
		_, err := s.Exchange(ctx, code)
		return err
	}

	access, refresh := credentials["access_token"], credentials["refresh_token"]
	if access == "" && refresh == "" {
		return fmt.Errorf("%w: missing access_token, refresh_token or auth_code in credentials", shared.ErrMissingCredentials)
	}

	token := &oauth2.Token{AccessToken: access, RefreshToken: refresh, TokenType: credentials["token_type"]}
	if expiry, err := time.Parse(time.RFC3339, credentials["expiry"]); err == nil {
		token.Expiry = expiry
	}

	s.AuthenticateToken(ctx, token)
	return nil
}

// AuthenticateToken builds the API client around token. Expired tokens refresh on first use.
func (s *SpotifyService) AuthenticateToken(ctx context.Context, token *oauth2.Token) {
	ctx = s.transportContext(ctx)
	source := &refreshableTokenSource{source: s.config.TokenSource(ctx, token), callback: s.onTokenRefresh, last: token.AccessToken}
	httpClient := oauth2.NewClient(ctx, oauth2.ReuseTokenSource(token, source))

	opts := []spotify.ClientOption{}
	if s.baseURL != "" {
		opts = append(opts, spotify.WithBaseURL(s.baseURL))
	}
	s.client = spotify.New(httpClient, opts...)
	s.userID = ""
}

// Token returns the current token, refreshed if the transport renewed it.
func (s *SpotifyService) Token() (*oauth2.Token, error) {
	if s.client == nil {
		return nil, shared.ErrNotAuthenticated
	}
	return s.client.Token()
}

// transportContext carries the rate limited client for the oauth2 package to build its transport on.
func (s *SpotifyService) transportContext(ctx context.Context) context.Context {
	base := s.httpClient
	if base == nil {
		base = http.DefaultClient
	}

	transport := base.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	if s.limiter != nil {
		transport = &limitedTransport{base: transport, limiter: s.limiter}
	}

	return context.WithValue(ctx, oauth2.HTTPClient, &http.Client{Transport: transport, Timeout: base.Timeout})
}

// api returns the authenticated client or [shared.ErrNotAuthenticated].
func (s *SpotifyService) api() (*spotify.Client, error) {
	if s.client == nil {
		return nil, fmt.Errorf("%w: call Authenticate first", shared.ErrNotAuthenticated)
	}
	return s.client, nil
}

// remoteError wraps err with [shared.ErrRemoteAPI].
func remoteError(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", shared.ErrRemoteAPI, op, err)
}

// CurrentUserID returns the authenticated user's id, cached after the first call.
func (s *SpotifyService) CurrentUserID(ctx context.Context) (string, error) {
	if s.userID != "" {
		return s.userID, nil
	}

	client, err := s.api()
	if err != nil {
		return "", err
	}

	user, err := client.CurrentUser(ctx)
	if err != nil {
		return "", remoteError("current user", err)
	}

	s.userID = user.ID
	return s.userID, nil
}

// SearchArtist returns the first artist result for name.
func (s *SpotifyService) SearchArtist(ctx context.Context, name string) (*models.Artist, error) {
	client, err := s.api()
	if err != nil {
		return nil, err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: empty artist name", shared.ErrInvalidInput)
	}

	result, err := client.Search(ctx, name, spotify.SearchTypeArtist)
	if err != nil {
		return nil, remoteError("search artist", err)
	}

	if result.Artists == nil || len(result.Artists.Artists) == 0 {
		return nil, fmt.Errorf("%w: %s", shared.ErrArtistNotFound, name)
	}

	artist := convertArtist(result.Artists.Artists[0].SimpleArtist)
	return &artist, nil
}

// RecentAlbums returns the artist's first limit albums and singles as ordered by the catalog.
func (s *SpotifyService) RecentAlbums(ctx context.Context, artistID string, limit int) ([]models.Album, error) {
	client, err := s.api()
	if err != nil {
		return nil, err
	}

	page, err := client.GetArtistAlbums(ctx, spotify.ID(artistID),
		[]spotify.AlbumType{spotify.AlbumTypeAlbum, spotify.AlbumTypeSingle},
		spotify.Limit(limit),
	)
	if err != nil {
		return nil, remoteError("artist albums "+artistID, err)
	}

	albums := make([]models.Album, 0, len(page.Albums))
	for _, a := range page.Albums {
		albums = append(albums, convertAlbum(a))
	}
	return albums, nil
}

// AlbumTracks returns every track of the album, following pagination.
func (s *SpotifyService) AlbumTracks(ctx context.Context, albumID string) ([]models.Track, error) {
	client, err := s.api()
	if err != nil {
		return nil, err
	}

	page, err := client.GetAlbumTracks(ctx, spotify.ID(albumID), spotify.Limit(50))
	if err != nil {
		return nil, remoteError("album tracks "+albumID, err)
	}

	var tracks []models.Track
	for {
		for _, t := range page.Tracks {
			tracks = append(tracks, convertTrack(t))
		}

		err = client.NextPage(ctx, page)
		if errors.Is(err, spotify.ErrNoMorePages) {
			break
		}
		if err != nil {
			return nil, remoteError("album tracks "+albumID, err)
		}
	}

	return tracks, nil
}

// PlaylistItems returns every track item of the playlist. Episodes and removed tracks are skipped.
func (s *SpotifyService) PlaylistItems(ctx context.Context, playlistID string) ([]models.PlaylistItem, error) {
	client, err := s.api()
	if err != nil {
		return nil, err
	}

	page, err := client.GetPlaylistItems(ctx, spotify.ID(playlistID), spotify.Limit(playlistPageSize))
	if err != nil {
		return nil, remoteError("playlist items "+playlistID, err)
	}

	var items []models.PlaylistItem
	for {
		for _, item := range page.Items {
			track := item.Track.Track
			if track == nil || track.ID == "" {
				continue
			}
			items = append(items, models.PlaylistItem{
				TrackID:     track.ID.String(),
				AlbumID:     track.Album.ID.String(),
				ReleaseDate: track.Album.ReleaseDate,
			})
		}

		err = client.NextPage(ctx, page)
		if errors.Is(err, spotify.ErrNoMorePages) {
			break
		}
		if err != nil {
			return nil, remoteError("playlist items "+playlistID, err)
		}
	}

	s.logger.Debug("fetched playlist", "playlist", playlistID, "items", len(items))
	return items, nil
}

// PlaylistTrackIDs returns the set of track ids in the playlist.
func (s *SpotifyService) PlaylistTrackIDs(ctx context.Context, playlistID string) (map[string]struct{}, error) {
	items, err := s.PlaylistItems(ctx, playlistID)
	if err != nil {
		return nil, err
	}

	ids := make(map[string]struct{}, len(items))
	for _, item := range items {
		ids[item.TrackID] = struct{}{}
	}
	return ids, nil
}

// AppendTracks appends ids to the playlist in chunks of at most [MaxAppendBatch].
func (s *SpotifyService) AppendTracks(ctx context.Context, playlistID string, ids []string) error {
	client, err := s.api()
	if err != nil {
		return err
	}

	for i, chunk := range Chunk(ids, MaxAppendBatch) {
		if _, err := client.AddTracksToPlaylist(ctx, spotify.ID(playlistID), toIDs(chunk)...); err != nil {
			return remoteError(fmt.Sprintf("append chunk %d to %s", i+1, playlistID), err)
		}
	}
	return nil
}

// RemoveTracks removes every occurrence of ids from the playlist in chunks of at most [MaxRemoveBatch].
func (s *SpotifyService) RemoveTracks(ctx context.Context, playlistID string, ids []string) error {
	client, err := s.api()
	if err != nil {
		return err
	}

	for i, chunk := range Chunk(ids, MaxRemoveBatch) {
		if _, err := client.RemoveTracksFromPlaylist(ctx, spotify.ID(playlistID), toIDs(chunk)...); err != nil {
			return remoteError(fmt.Sprintf("remove chunk %d from %s", i+1, playlistID), err)
		}
	}
	return nil
}

// FindOrCreatePlaylist scans the current user's playlists for an exact name match and creates one when none exists.
// New playlists are private unless [WithPublicPlaylists] is set.
func (s *SpotifyService) FindOrCreatePlaylist(ctx context.Context, name, description string) (string, error) {
	client, err := s.api()
	if err != nil {
		return "", err
	}

	page, err := client.CurrentUsersPlaylists(ctx, spotify.Limit(playlistsPerPage))
	if err != nil {
		return "", remoteError("list playlists", err)
	}

	for {
		for _, p := range page.Playlists {
			if p.Name == name {
				return p.ID.String(), nil
			}
		}

		err = client.NextPage(ctx, page)
		if errors.Is(err, spotify.ErrNoMorePages) {
			break
		}
		if err != nil {
			return "", remoteError("list playlists", err)
		}
	}

	userID, err := s.CurrentUserID(ctx)
	if err != nil {
		return "", err
	}

	playlist, err := client.CreatePlaylistForUser(ctx, userID, name, description, s.public, false)
	if err != nil {
		return "", remoteError("create playlist "+name, err)
	}

	s.logger.Info("created playlist", "name", name, "id", playlist.ID)
	return playlist.ID.String(), nil
}

// FollowedArtists returns every artist the user follows, walking the cursor pages.
func (s *SpotifyService) FollowedArtists(ctx context.Context) ([]models.Artist, error) {
	client, err := s.api()
	if err != nil {
		return nil, err
	}

	var (
		artists []models.Artist
		after   string
	)
	for {
		opts := []spotify.RequestOption{spotify.Limit(followedPageSize)}
		if after != "" {
			opts = append(opts, spotify.After(after))
		}

		page, err := client.CurrentUsersFollowedArtists(ctx, opts...)
		if err != nil {
			return nil, remoteError("followed artists", err)
		}

		for _, a := range page.Artists {
			artists = append(artists, convertArtist(a.SimpleArtist))
		}

		if page.Cursor.After == "" || page.Cursor.After == after || len(page.Artists) == 0 {
			break
		}
		after = page.Cursor.After
	}

	return artists, nil
}

func toIDs(ids []string) []spotify.ID {
	out := make([]spotify.ID, len(ids))
	for i, id := range ids {
		out[i] = spotify.ID(id)
	}
	return out
}

func convertArtist(a spotify.SimpleArtist) models.Artist {
	return models.Artist{
		ID:   a.ID.String(),
		Name: a.Name,
		URL:  a.ExternalURLs["spotify"],
	}
}

func convertAlbum(a spotify.SimpleAlbum) models.Album {
	return models.Album{
		ID:          a.ID.String(),
		Name:        a.Name,
		Type:        a.AlbumType,
		ReleaseDate: a.ReleaseDate,
	}
}

func convertTrack(t spotify.SimpleTrack) models.Track {
	ids := make([]string, 0, len(t.Artists))
	for _, a := range t.Artists {
		ids = append(ids, a.ID.String())
	}
	return models.Track{ID: t.ID.String(), Name: t.Name, ArtistIDs: ids}
}

// refreshableTokenSource reports each token that differs from the last one seen.
type refreshableTokenSource struct {
	source   oauth2.TokenSource
	callback func(*oauth2.Token)
	last     string
}

func (r *refreshableTokenSource) Token() (*oauth2.Token, error) {
	token, err := r.source.Token()
	if err != nil {
		return nil, err
	}

	if token.AccessToken != r.last {
		r.last = token.AccessToken
		if r.callback != nil {
			r.callback(token)
		}
	}
	return token, nil
}

// limitedTransport waits on a shared [rate.Limiter] before each request.
type limitedTransport struct {
	base    http.RoundTripper
	limiter *rate.Limiter
}

func (t *limitedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	return t.base.RoundTrip(req)
}
