package shared

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"golang.org/x/oauth2"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Database    DatabaseConfig    `toml:"database"`
	Server      ServerConfig      `toml:"server"`
	Playlists   PlaylistsConfig   `toml:"playlists"`
	Tracker     TrackerConfig     `toml:"tracker"`
	Schedule    ScheduleConfig    `toml:"schedule"`
	API         APIConfig         `toml:"api"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
}

// SpotifyConfig contains Spotify API credentials and the persisted OAuth token.
type SpotifyConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RedirectURI  string `toml:"redirect_uri"`
	AccessToken  string `toml:"access_token"`
	RefreshToken string `toml:"refresh_token"`
	TokenType    string `toml:"token_type"`
	Expiry       string `toml:"expiry"` // RFC 3339
}

// Map returns the credentials in the map shape accepted by services.NewSpotifyService.
func (s SpotifyConfig) Map() map[string]string {
	return map[string]string{
		"client_id":     s.ClientID,
		"client_secret": s.ClientSecret,
		"redirect_uri":  s.RedirectURI,
	}
}

// Token rebuilds the persisted [oauth2.Token], or nil when no token has been saved yet.
func (s SpotifyConfig) Token() *oauth2.Token {
	if s.AccessToken == "" && s.RefreshToken == "" {
		return nil
	}

	token := &oauth2.Token{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		TokenType:    s.TokenType,
	}
	if expiry, err := time.Parse(time.RFC3339, s.Expiry); err == nil {
		token.Expiry = expiry
	}
	return token
}

// Update stores the token fields so they survive a [SaveConfig] round trip.
func (s *SpotifyConfig) Update(token *oauth2.Token) error {
	if token == nil {
		return fmt.Errorf("%w: nil token", ErrInvalidInput)
	}
	if token.AccessToken == "" {
		return fmt.Errorf("%w: token has no access token", ErrInvalidInput)
	}

	s.AccessToken = token.AccessToken
	s.TokenType = token.TokenType
	if token.RefreshToken != "" {
		s.RefreshToken = token.RefreshToken
	}
	if token.Expiry.IsZero() {
		s.Expiry = ""
	} else {
		s.Expiry = token.Expiry.UTC().Format(time.RFC3339)
	}
	return nil
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains the OAuth callback server settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// PlaylistsConfig names the two destination playlists.
type PlaylistsConfig struct {
	CurrentName        string `toml:"current_name"`
	CurrentDescription string `toml:"current_description"`
	CurrentID          string `toml:"current_id"`
	ArchiveName        string `toml:"archive_name"`
	ArchiveDescription string `toml:"archive_description"`
	ArchiveID          string `toml:"archive_id"`
	Public             bool   `toml:"public"`
}

// TrackerConfig holds the release window and batching limits of an update cycle.
type TrackerConfig struct {
	ArchiveDays    int  `toml:"archive_days"`
	AlbumLimit     int  `toml:"album_limit"`
	TracksPerAlbum int  `toml:"tracks_per_album"`
	CandidateCap   int  `toml:"candidate_cap"`
	TrackCap       int  `toml:"track_cap"`
	AppendBatch    int  `toml:"append_batch"`
	CleanArchive   bool `toml:"clean_archive"`
}

// ScheduleConfig controls the daily update trigger.
type ScheduleConfig struct {
	Spec       string `toml:"spec"`
	RunOnStart bool   `toml:"run_on_start"`
}

// APIConfig paces outgoing catalog requests.
type APIConfig struct {
	RequestsPerSecond float64 `toml:"requests_per_second"`
	Burst             int     `toml:"burst"`
}

// Validate checks the values that would otherwise produce a silently broken cycle.
func (c *Config) Validate() error {
	t := c.Tracker
	switch {
	case t.ArchiveDays < 7:
		return fmt.Errorf("%w: tracker.archive_days must be at least 7, got %d", ErrInvalidConfig, t.ArchiveDays)
	case t.AlbumLimit < 1 || t.AlbumLimit > 50:
		return fmt.Errorf("%w: tracker.album_limit must be between 1 and 50, got %d", ErrInvalidConfig, t.AlbumLimit)
	case t.TracksPerAlbum < 0:
		return fmt.Errorf("%w: tracker.tracks_per_album must not be negative", ErrInvalidConfig)
	case t.CandidateCap < 1:
		return fmt.Errorf("%w: tracker.candidate_cap must be positive", ErrInvalidConfig)
	case t.TrackCap < 1:
		return fmt.Errorf("%w: tracker.track_cap must be positive", ErrInvalidConfig)
	case t.AppendBatch < 1 || t.AppendBatch > 50:
		return fmt.Errorf("%w: tracker.append_batch must be between 1 and 50, got %d", ErrInvalidConfig, t.AppendBatch)
	}

	if c.Playlists.CurrentName == "" && c.Playlists.CurrentID == "" {
		return fmt.Errorf("%w: playlists.current_name or playlists.current_id is required", ErrInvalidConfig)
	}
	if c.Playlists.ArchiveName == "" && c.Playlists.ArchiveID == "" {
		return fmt.Errorf("%w: playlists.archive_name or playlists.archive_id is required", ErrInvalidConfig)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("%w: database.path is required", ErrInvalidConfig)
	}
	return nil
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep the embedded defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// LoadOrDefault loads the config at path when it exists and falls back to [DefaultConfig] otherwise.
func LoadOrDefault(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		return DefaultConfig(), nil
	}
	return LoadConfig(path)
}

// SaveConfig writes config to path as TOML, replacing any existing file.
func SaveConfig(path string, config *Config) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
