package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/naestech/newNoise/internal/repositories"
	"github.com/naestech/newNoise/internal/services"
	"github.com/naestech/newNoise/internal/shared"
	"github.com/naestech/newNoise/internal/tasks"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// The registry and the catalog client are opened on first use so that setup and auth work
// before either exists.
type Runner struct {
	config     *shared.Config
	configPath string
	db         *sql.DB
	store      tasks.ArtistStore
	catalog    services.Catalog
	tracker    *tasks.Tracker
	logger     *log.Logger
	output     io.Writer
	mu         sync.Mutex
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Store      tasks.ArtistStore
	Catalog    services.Catalog
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		store:      opts.Store,
		catalog:    opts.Catalog,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, artistsCommand, updateCommand, cleanCommand, scheduleCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

func (r *Runner) before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if cmd.Bool("verbose") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}
	return ctx, nil
}

// SetLogger replaces the logger used by commands and by components opened afterwards.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

// Close releases the registry handle.
func (r *Runner) Close() {
	if r.db != nil {
		r.db.Close()
		r.db = nil
	}
}

// openStore opens the registry at database.path and applies pending migrations.
func (r *Runner) openStore() (tasks.ArtistStore, error) {
	if r.store != nil {
		return r.store, nil
	}

	db, err := shared.OpenRegistry(r.config.Database)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrStorage, err)
	}

	r.db = db
	r.store = repositories.NewArtistRepository(db, r.logger)
	return r.store, nil
}

// openCatalog builds the Spotify client from the saved credentials and token.
//
// Refreshed tokens are written back to the config file.
func (r *Runner) openCatalog(ctx context.Context) (services.Catalog, error) {
	if r.catalog != nil {
		return r.catalog, nil
	}

	creds := r.config.Credentials.Spotify
	svc, err := services.NewSpotifyService(creds.Map(),
		services.WithLogger(r.logger),
		services.WithRateLimit(r.config.API.RequestsPerSecond, r.config.API.Burst),
		services.WithPublicPlaylists(r.config.Playlists.Public),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: set credentials.spotify in %s", err, r.configPathOrDefault())
	}

	token := creds.Token()
	if token == nil {
		return nil, fmt.Errorf("%w: run 'newnoise auth' first", shared.ErrNotAuthenticated)
	}

	svc.SetTokenRefreshCallback(func(t *oauth2.Token) {
		if err := r.saveTokens(t); err != nil {
			r.logger.Warn("failed to persist refreshed token", "error", err)
		}
	})
	svc.AuthenticateToken(ctx, token)

	r.catalog = svc
	return r.catalog, nil
}

// openTracker wires the registry and, when withCatalog is set, the catalog client.
func (r *Runner) openTracker(ctx context.Context, withCatalog bool) (*tasks.Tracker, error) {
	if r.tracker != nil && (!withCatalog || r.catalog != nil) {
		return r.tracker, nil
	}

	if err := r.config.Validate(); err != nil {
		return nil, err
	}

	store, err := r.openStore()
	if err != nil {
		return nil, err
	}

	var catalog services.Catalog
	if withCatalog {
		if catalog, err = r.openCatalog(ctx); err != nil {
			return nil, err
		}
	}

	r.tracker = tasks.NewTracker(store, catalog, r.config.Playlists, tasks.OptionsFromConfig(r.config.Tracker), r.logger)
	return r.tracker, nil
}

// saveTokens stores token in the config and writes it to the config path when one is set.
func (r *Runner) saveTokens(token *oauth2.Token) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.config == nil {
		return fmt.Errorf("%w: config is nil", shared.ErrMissingConfig)
	}

	if err := r.config.Credentials.Spotify.Update(token); err != nil {
		return fmt.Errorf("failed to update spotify configuration: %w", err)
	}

	if r.configPath == "" {
		return nil
	}

	if err := shared.SaveConfig(r.configPath, r.config); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	return nil
}

func (r *Runner) configPathOrDefault() string {
	if r.configPath == "" {
		return "config.toml"
	}
	return r.configPath
}

// namesFrom joins positional arguments into one comma separated list.
func namesFrom(cmd *cli.Command) string {
	return strings.Join(cmd.Args().Slice(), ",")
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
