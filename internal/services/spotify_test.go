package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/naestech/newNoise/internal/shared"
	"golang.org/x/oauth2"
)

var testCredentials = map[string]string{
	"client_id":     "test_client_id",
	"client_secret": "test_client_secret",
}

// apiStub is an httptest server standing in for the Web API.
type apiStub struct {
	*httptest.Server
	mu       sync.Mutex
	requests []string
	appended [][]string
	removed  int
	created  []string
	public   []bool
}

func (a *apiStub) record(r *http.Request) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.requests = append(a.requests, r.Method+" "+r.URL.Path)
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	fmt.Fprint(w, body)
}

func newAPIStub(t *testing.T) *apiStub {
	t.Helper()

	stub := &apiStub{}
	mux := http.NewServeMux()

	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		stub.record(r)
		if r.URL.Query().Get("q") == "nobody" {
			writeJSON(w, http.StatusOK, `{"artists":{"items":[],"total":0}}`)
			return
		}
		writeJSON(w, http.StatusOK, `{"artists":{"items":[
			{"id":"artist-1","name":"Mitski","external_urls":{"spotify":"https://open.spotify.com/artist/artist-1"}},
			{"id":"artist-2","name":"Mitski Tribute","external_urls":{"spotify":"https://open.spotify.com/artist/artist-2"}}
		],"total":2}}`)
	})

	mux.HandleFunc("/artists/artist-1/albums", func(w http.ResponseWriter, r *http.Request) {
		stub.record(r)
		if got := r.URL.Query().Get("limit"); got != "5" {
			t.Errorf("limit = %q, want 5", got)
		}
		writeJSON(w, http.StatusOK, `{"items":[
			{"id":"album-1","name":"Fresh","album_type":"single","release_date":"2024-05-14","release_date_precision":"day"},
			{"id":"album-2","name":"Older","album_type":"album","release_date":"2023","release_date_precision":"year"}
		],"total":2}`)
	})

	mux.HandleFunc("/artists/broken/albums", func(w http.ResponseWriter, r *http.Request) {
		stub.record(r)
		writeJSON(w, http.StatusInternalServerError, `{"error":{"status":500,"message":"boom"}}`)
	})

	mux.HandleFunc("/albums/album-1/tracks", func(w http.ResponseWriter, r *http.Request) {
		stub.record(r)
		writeJSON(w, http.StatusOK, `{"items":[
			{"id":"track-1","name":"Solo","artists":[{"id":"artist-1","name":"Mitski"}]},
			{"id":"track-2","name":"Feature","artists":[{"id":"artist-9","name":"Someone"},{"id":"artist-1","name":"Mitski"}]}
		],"total":2}`)
	})

	mux.HandleFunc("/playlists/current/tracks", func(w http.ResponseWriter, r *http.Request) {
		stub.record(r)
		switch r.Method {
		case http.MethodGet:
			writeJSON(w, http.StatusOK, `{"items":[
				{"track":{"id":"track-1","name":"Solo","type":"track","album":{"id":"album-1","release_date":"2024-05-14"}}},
				{"track":{"id":"track-3","name":"Other","type":"track","album":{"id":"album-3","release_date":"2024-04"}}}
			],"total":2}`)
		case http.MethodPost:
			var body struct {
				URIs []string `json:"uris"`
			}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Errorf("failed to decode append body: %v", err)
			}
			stub.mu.Lock()
			stub.appended = append(stub.appended, body.URIs)
			stub.mu.Unlock()
			writeJSON(w, http.StatusCreated, `{"snapshot_id":"snap"}`)
		case http.MethodDelete:
			stub.mu.Lock()
			stub.removed++
			stub.mu.Unlock()
			writeJSON(w, http.StatusOK, `{"snapshot_id":"snap"}`)
		}
	})

	mux.HandleFunc("/me", func(w http.ResponseWriter, r *http.Request) {
		stub.record(r)
		writeJSON(w, http.StatusOK, `{"id":"user-1","display_name":"Listener"}`)
	})

	mux.HandleFunc("/me/playlists", func(w http.ResponseWriter, r *http.Request) {
		stub.record(r)
		writeJSON(w, http.StatusOK, `{"items":[
			{"id":"current","name":"New Noise"},
			{"id":"mixtape","name":"Mixtape"}
		],"total":2}`)
	})

	mux.HandleFunc("/users/user-1/playlists", func(w http.ResponseWriter, r *http.Request) {
		stub.record(r)
		var body struct {
			Name   string `json:"name"`
			Public bool   `json:"public"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("failed to decode create body: %v", err)
		}
		stub.mu.Lock()
		stub.created = append(stub.created, body.Name)
		stub.public = append(stub.public, body.Public)
		stub.mu.Unlock()
		writeJSON(w, http.StatusCreated, `{"id":"archive","name":"`+body.Name+`"}`)
	})

	mux.HandleFunc("/me/following", func(w http.ResponseWriter, r *http.Request) {
		stub.record(r)
		if r.URL.Query().Get("after") == "" {
			writeJSON(w, http.StatusOK, `{"artists":{"items":[
				{"id":"artist-1","name":"Mitski","external_urls":{"spotify":"https://open.spotify.com/artist/artist-1"}}
			],"cursors":{"after":"artist-1"},"total":2}}`)
			return
		}
		writeJSON(w, http.StatusOK, `{"artists":{"items":[
			{"id":"artist-2","name":"Big Thief","external_urls":{"spotify":"https://open.spotify.com/artist/artist-2"}}
		],"cursors":{"after":""},"total":2}}`)
	})

	stub.Server = httptest.NewServer(mux)
	t.Cleanup(stub.Close)
	return stub
}

// newStubbedService returns a service authenticated against stub with a long lived token.
func newStubbedService(t *testing.T, stub *apiStub, opts ...SpotifyOption) *SpotifyService {
	t.Helper()

	opts = append([]SpotifyOption{
		WithBaseURL(stub.URL + "/"),
		WithHTTPClient(stub.Client()),
		WithRateLimit(0, 0),
	}, opts...)
	srv, err := NewSpotifyService(testCredentials, opts...)
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}

	srv.AuthenticateToken(context.Background(), &oauth2.Token{
		AccessToken: "test_access_token",
		TokenType:   "Bearer",
		Expiry:      time.Now().Add(time.Hour),
	})
	return srv
}

func TestSpotifyService(t *testing.T) {
	t.Run("NewSpotifyService", func(t *testing.T) {
		t.Run("With Valid Credentials", func(t *testing.T) {
			srv, err := NewSpotifyService(map[string]string{
				"client_id":     "test_client_id",
				"client_secret": "test_client_secret",
				"redirect_uri":  "http://127.0.0.1:9999/callback",
			})
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if srv.Name() != "Spotify" {
				t.Errorf("expected service name 'Spotify', got %s", srv.Name())
			}
			if srv.config.RedirectURL != "http://127.0.0.1:9999/callback" {
				t.Errorf("unexpected redirect %s", srv.config.RedirectURL)
			}
		})

		t.Run("Missing Client ID", func(t *testing.T) {
			_, err := NewSpotifyService(map[string]string{"client_secret": "secret"})
			if !errors.Is(err, shared.ErrMissingCredentials) {
				t.Errorf("expected ErrMissingCredentials, got %v", err)
			}
		})

		t.Run("Missing Client Secret", func(t *testing.T) {
			_, err := NewSpotifyService(map[string]string{"client_id": "id"})
			if !errors.Is(err, shared.ErrMissingCredentials) {
				t.Errorf("expected ErrMissingCredentials, got %v", err)
			}
		})

		t.Run("Default Redirect URI", func(t *testing.T) {
			srv, err := NewSpotifyService(testCredentials)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if srv.config.RedirectURL != defaultRedirectURI {
				t.Errorf("expected default redirect URI, got %s", srv.config.RedirectURL)
			}
		})
	})

	t.Run("Get AuthURL", func(t *testing.T) {
		srv, err := NewSpotifyService(testCredentials)
		if err != nil {
			t.Fatalf("failed to create service: %v", err)
		}

		authURL := srv.GetAuthURL("test_state")
		for _, want := range []string{"accounts.spotify.com", "test_client_id", "test_state", "playlist-modify-private", "user-follow-read"} {
			if !strings.Contains(authURL, want) {
				t.Errorf("auth URL %q should contain %q", authURL, want)
			}
		}
	})

	t.Run("Authenticate", func(t *testing.T) {
		srv, err := NewSpotifyService(testCredentials)
		if err != nil {
			t.Fatalf("failed to create service: %v", err)
		}

		t.Run("Before Authenticate", func(t *testing.T) {
			_, err := srv.SearchArtist(context.Background(), "Mitski")
			if !errors.Is(err, shared.ErrNotAuthenticated) {
				t.Errorf("expected ErrNotAuthenticated, got %v", err)
			}
		})

		t.Run("WithAccessToken", func(t *testing.T) {
			err := srv.Authenticate(context.Background(), map[string]string{
				"access_token": "test_access_token",
				"expiry":       time.Now().Add(time.Hour).Format(time.RFC3339),
			})
			if err != nil {
				t.Fatalf("expected no error with access token, got %v", err)
			}

			token, err := srv.Token()
			if err != nil {
				t.Fatalf("Token() error = %v", err)
			}
			if token.AccessToken != "test_access_token" {
				t.Errorf("expected access token 'test_access_token', got %s", token.AccessToken)
			}
		})

		t.Run("Missing Credentials", func(t *testing.T) {
			err := srv.Authenticate(context.Background(), map[string]string{})
			if !errors.Is(err, shared.ErrMissingCredentials) {
				t.Errorf("expected ErrMissingCredentials, got %v", err)
			}
		})
	})

	t.Run("Catalog interface", func(t *testing.T) {
		srv, err := NewSpotifyService(testCredentials)
		if err != nil {
			t.Fatalf("failed to create service: %v", err)
		}

		var _ Catalog = srv
	})
}

func TestSpotifyCatalog(t *testing.T) {
	ctx := context.Background()

	t.Run("SearchArtist returns first result", func(t *testing.T) {
		srv := newStubbedService(t, newAPIStub(t))

		artist, err := srv.SearchArtist(ctx, "Mitski")
		if err != nil {
			t.Fatalf("SearchArtist() error = %v", err)
		}
		if artist.ID != "artist-1" {
			t.Errorf("expected artist-1, got %s", artist.ID)
		}
		if artist.URL != "https://open.spotify.com/artist/artist-1" {
			t.Errorf("unexpected url %s", artist.URL)
		}
	})

	t.Run("SearchArtist with no results", func(t *testing.T) {
		srv := newStubbedService(t, newAPIStub(t))

		_, err := srv.SearchArtist(ctx, "nobody")
		if !errors.Is(err, shared.ErrArtistNotFound) {
			t.Errorf("expected ErrArtistNotFound, got %v", err)
		}
	})

	t.Run("RecentAlbums", func(t *testing.T) {
		srv := newStubbedService(t, newAPIStub(t))

		albums, err := srv.RecentAlbums(ctx, "artist-1", 5)
		if err != nil {
			t.Fatalf("RecentAlbums() error = %v", err)
		}
		if len(albums) != 2 {
			t.Fatalf("expected 2 albums, got %d", len(albums))
		}
		if albums[0].ReleaseDate != "2024-05-14" || albums[0].Type != "single" {
			t.Errorf("unexpected first album %+v", albums[0])
		}
		if albums[1].ReleaseDate != "2023" {
			t.Errorf("expected year precision date preserved, got %s", albums[1].ReleaseDate)
		}
	})

	t.Run("RecentAlbums wraps API failures", func(t *testing.T) {
		srv := newStubbedService(t, newAPIStub(t))

		_, err := srv.RecentAlbums(ctx, "broken", 5)
		if !errors.Is(err, shared.ErrRemoteAPI) {
			t.Errorf("expected ErrRemoteAPI, got %v", err)
		}
	})

	t.Run("AlbumTracks keeps credit order", func(t *testing.T) {
		srv := newStubbedService(t, newAPIStub(t))

		tracks, err := srv.AlbumTracks(ctx, "album-1")
		if err != nil {
			t.Fatalf("AlbumTracks() error = %v", err)
		}
		if len(tracks) != 2 {
			t.Fatalf("expected 2 tracks, got %d", len(tracks))
		}
		if tracks[0].PrimaryArtistID() != "artist-1" {
			t.Errorf("expected artist-1 primary on solo track, got %s", tracks[0].PrimaryArtistID())
		}
		if tracks[1].PrimaryArtistID() != "artist-9" {
			t.Errorf("expected artist-9 primary on feature, got %s", tracks[1].PrimaryArtistID())
		}
	})

	t.Run("PlaylistItems and PlaylistTrackIDs", func(t *testing.T) {
		srv := newStubbedService(t, newAPIStub(t))

		items, err := srv.PlaylistItems(ctx, "current")
		if err != nil {
			t.Fatalf("PlaylistItems() error = %v", err)
		}
		if len(items) != 2 || items[1].ReleaseDate != "2024-04" {
			t.Errorf("unexpected items %+v", items)
		}

		ids, err := srv.PlaylistTrackIDs(ctx, "current")
		if err != nil {
			t.Fatalf("PlaylistTrackIDs() error = %v", err)
		}
		if _, ok := ids["track-3"]; !ok || len(ids) != 2 {
			t.Errorf("unexpected id set %v", ids)
		}
	})

	t.Run("AppendTracks chunks at fifty", func(t *testing.T) {
		stub := newAPIStub(t)
		srv := newStubbedService(t, stub)

		ids := make([]string, 120)
		for i := range ids {
			ids[i] = fmt.Sprintf("track%03d", i)
		}

		if err := srv.AppendTracks(ctx, "current", ids); err != nil {
			t.Fatalf("AppendTracks() error = %v", err)
		}

		if len(stub.appended) != 3 {
			t.Fatalf("expected 3 append requests, got %d", len(stub.appended))
		}
		for i, want := range []int{50, 50, 20} {
			if len(stub.appended[i]) != want {
				t.Errorf("chunk %d: expected %d uris, got %d", i, want, len(stub.appended[i]))
			}
		}
		if stub.appended[0][0] != "spotify:track:track000" {
			t.Errorf("expected order preserved, got %s", stub.appended[0][0])
		}
	})

	t.Run("AppendTracks with nothing to add", func(t *testing.T) {
		stub := newAPIStub(t)
		srv := newStubbedService(t, stub)

		if err := srv.AppendTracks(ctx, "current", nil); err != nil {
			t.Fatalf("AppendTracks() error = %v", err)
		}
		if len(stub.appended) != 0 {
			t.Errorf("expected no requests, got %d", len(stub.appended))
		}
	})

	t.Run("RemoveTracks chunks at one hundred", func(t *testing.T) {
		stub := newAPIStub(t)
		srv := newStubbedService(t, stub)

		ids := make([]string, 150)
		for i := range ids {
			ids[i] = fmt.Sprintf("track%03d", i)
		}

		if err := srv.RemoveTracks(ctx, "current", ids); err != nil {
			t.Fatalf("RemoveTracks() error = %v", err)
		}
		if stub.removed != 2 {
			t.Errorf("expected 2 removal requests, got %d", stub.removed)
		}
	})

	t.Run("FindOrCreatePlaylist finds existing", func(t *testing.T) {
		stub := newAPIStub(t)
		srv := newStubbedService(t, stub)

		id, err := srv.FindOrCreatePlaylist(ctx, "New Noise", "")
		if err != nil {
			t.Fatalf("FindOrCreatePlaylist() error = %v", err)
		}
		if id != "current" {
			t.Errorf("expected current, got %s", id)
		}
		if len(stub.created) != 0 {
			t.Errorf("expected no playlist created, got %v", stub.created)
		}
	})

	t.Run("FindOrCreatePlaylist creates missing", func(t *testing.T) {
		stub := newAPIStub(t)
		srv := newStubbedService(t, stub)

		id, err := srv.FindOrCreatePlaylist(ctx, "New Noise Archive", "Archive of songs removed from new noise playlist")
		if err != nil {
			t.Fatalf("FindOrCreatePlaylist() error = %v", err)
		}
		if id != "archive" {
			t.Errorf("expected archive, got %s", id)
		}
		if len(stub.created) != 1 || stub.created[0] != "New Noise Archive" {
			t.Errorf("unexpected created playlists %v", stub.created)
		}
		if len(stub.public) != 1 || stub.public[0] {
			t.Errorf("expected a private playlist by default, got %v", stub.public)
		}
	})

	t.Run("FindOrCreatePlaylist honors public visibility", func(t *testing.T) {
		stub := newAPIStub(t)
		srv := newStubbedService(t, stub, WithPublicPlaylists(true))

		if _, err := srv.FindOrCreatePlaylist(ctx, "New Noise Archive", ""); err != nil {
			t.Fatalf("FindOrCreatePlaylist() error = %v", err)
		}
		if len(stub.public) != 1 || !stub.public[0] {
			t.Errorf("expected a public playlist, got %v", stub.public)
		}
	})

	t.Run("FollowedArtists walks cursors", func(t *testing.T) {
		srv := newStubbedService(t, newAPIStub(t))

		artists, err := srv.FollowedArtists(ctx)
		if err != nil {
			t.Fatalf("FollowedArtists() error = %v", err)
		}
		if len(artists) != 2 || artists[1].Name != "Big Thief" {
			t.Errorf("unexpected artists %+v", artists)
		}
	})
}

func TestChunk(t *testing.T) {
	ids := func(n int) []string {
		out := make([]string, n)
		for i := range out {
			out[i] = fmt.Sprint(i)
		}
		return out
	}

	tc := []struct {
		name  string
		total int
		size  int
		want  []int
	}{
		{name: "empty", total: 0, size: 50, want: nil},
		{name: "under one chunk", total: 7, size: 50, want: []int{7}},
		{name: "exact", total: 100, size: 50, want: []int{50, 50}},
		{name: "remainder", total: 120, size: 50, want: []int{50, 50, 20}},
		{name: "invalid size", total: 10, size: 0, want: nil},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			got := Chunk(ids(tt.total), tt.size)
			if len(got) != len(tt.want) {
				t.Fatalf("expected %d chunks, got %d", len(tt.want), len(got))
			}
			for i := range got {
				if len(got[i]) != tt.want[i] {
					t.Errorf("chunk %d: expected %d, got %d", i, tt.want[i], len(got[i]))
				}
			}
		})
	}
}

func TestRefreshableTokenSource(t *testing.T) {
	t.Run("calls callback when token changes", func(t *testing.T) {
		var captured []string
		mock := &mockTokenSource{token: &oauth2.Token{AccessToken: "token1"}}
		source := &refreshableTokenSource{
			source:   mock,
			callback: func(token *oauth2.Token) { captured = append(captured, token.AccessToken) },
		}

		source.Token()
		source.Token()
		mock.token = &oauth2.Token{AccessToken: "token2"}
		source.Token()

		if len(captured) != 2 || captured[1] != "token2" {
			t.Errorf("expected callbacks for token1 and token2, got %v", captured)
		}
	})

	t.Run("skips the token it started with", func(t *testing.T) {
		called := false
		source := &refreshableTokenSource{
			source:   &mockTokenSource{token: &oauth2.Token{AccessToken: "same"}},
			callback: func(*oauth2.Token) { called = true },
			last:     "same",
		}

		source.Token()
		if called {
			t.Error("expected no callback for unchanged token")
		}
	})

	t.Run("handles nil callback", func(t *testing.T) {
		source := &refreshableTokenSource{source: &mockTokenSource{token: &oauth2.Token{AccessToken: "t"}}}
		if _, err := source.Token(); err != nil {
			t.Fatalf("expected no error with nil callback, got %v", err)
		}
	})

	t.Run("propagates source errors", func(t *testing.T) {
		source := &refreshableTokenSource{
			source:   &mockTokenSource{err: errors.New("token source error")},
			callback: func(*oauth2.Token) { t.Error("callback should not be called on error") },
		}

		token, err := source.Token()
		if err == nil || !strings.Contains(err.Error(), "token source error") {
			t.Errorf("expected source error, got %v", err)
		}
		if token != nil {
			t.Error("expected nil token on error")
		}
	})
}

// mockTokenSource implements [oauth2.TokenSource] for testing
type mockTokenSource struct {
	token *oauth2.Token
	err   error
}

func (m *mockTokenSource) Token() (*oauth2.Token, error) {
	return m.token, m.err
}
