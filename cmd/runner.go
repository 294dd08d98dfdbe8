package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/cinematch/internal/auth"
	"github.com/desertthunder/cinematch/internal/models"
	"github.com/desertthunder/cinematch/internal/repositories"
	"github.com/desertthunder/cinematch/internal/services"
	"github.com/desertthunder/cinematch/internal/session"
	"github.com/desertthunder/cinematch/internal/shared"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// Services are built lazily from the loaded configuration unless injected through [RunnerOpts].
type Runner struct {
	config     *shared.Config
	configPath string
	loaded     bool
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer

	publisher  *session.Publisher
	catalog    services.Catalog
	store      models.PreferenceStore
	closeStore func() error
	provider   auth.Provider
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer

	Publisher *session.Publisher
	Catalog   services.Catalog
	Store     models.PreferenceStore
	Provider  auth.Provider
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	loaded := opts.Config != nil
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Publisher == nil {
		opts.Publisher = session.NewPublisher()
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		loaded:     loaded,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		publisher:  opts.Publisher,
		catalog:    opts.Catalog,
		store:      opts.Store,
		provider:   opts.Provider,
	}
}

// SetLogger replaces the logger used by the runner and every service it builds afterwards.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

// Load reads configuration before any command runs.
//
// A missing config file falls back to defaults; env overrides and the log level are applied either way.
func (r *Runner) Load(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if path := cmd.String("config"); path != "" {
		r.configPath = path
	}

	if !r.loaded {
		config, err := shared.LoadConfig(r.configPath)
		switch {
		case err == nil:
			r.config = config
		case errors.Is(err, os.ErrNotExist) && cmd.IsSet("config"):
			return ctx, fmt.Errorf("%w: %s", shared.ErrMissingConfig, r.configPath)
		case errors.Is(err, os.ErrNotExist):
			r.logger.Debug("config file not found, using defaults", "path", r.configPath)
			r.config = shared.DefaultConfig()
		default:
			return ctx, err
		}

		if err := shared.LoadEnv(r.config, cmd.String("env-file")); err != nil {
			return ctx, err
		}
		r.loaded = true
	}

	level := r.config.Log.Level
	if l := cmd.String("log-level"); l != "" {
		level = l
	}
	if level != "" {
		if err := shared.SetLogLevelString(r.logger, level); err != nil {
			return ctx, err
		}
	}

	return ctx, r.config.Validate()
}

// Close releases the store connection if one was opened.
func (r *Runner) Close() error {
	if r.closeStore == nil {
		return nil
	}
	err := r.closeStore()
	r.closeStore = nil
	return err
}

func (r *Runner) catalogService() services.Catalog {
	if r.catalog == nil {
		r.catalog = services.NewTMDBService(r.config.Credentials.TMDB, r.httpClient)
	}
	return r.catalog
}

func (r *Runner) preferenceStore(ctx context.Context) (models.PreferenceStore, error) {
	if r.store != nil {
		return r.store, nil
	}

	store, closeFn, err := repositories.Open(ctx, r.config, r.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open preference store: %w", err)
	}
	r.store, r.closeStore = store, closeFn
	return store, nil
}

func (r *Runner) authProvider() (auth.Provider, error) {
	if r.provider != nil {
		return r.provider, nil
	}

	provider, err := auth.New(r.config, r.publisher, r.logger)
	if err != nil {
		return nil, err
	}
	if g, ok := provider.(*auth.GoogleProvider); ok {
		g.SetPrompt(func(url string) {
			r.writePlain("Open this URL in your browser to sign in:\n%s\n", url)
		})
	}
	r.provider = provider
	return provider, nil
}

// signIn runs the interactive flow and returns the resulting session.
func (r *Runner) signIn(ctx context.Context) (*auth.Identity, *models.Session, error) {
	provider, err := r.authProvider()
	if err != nil {
		return nil, nil, err
	}

	identity := auth.NewIdentity(provider, r.logger)
	if err := identity.Login(ctx); err != nil {
		return nil, nil, err
	}
	s := provider.Current()
	if s == nil {
		return nil, nil, shared.ErrNotAuthenticated
	}
	return identity, s, nil
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, searchCommand, authCommand, prefsCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
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
