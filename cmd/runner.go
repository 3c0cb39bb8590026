package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/cinex/internal/formatter"
	"github.com/desertthunder/cinex/internal/models"
	"github.com/desertthunder/cinex/internal/repositories"
	"github.com/desertthunder/cinex/internal/services"
	"github.com/desertthunder/cinex/internal/session"
	"github.com/desertthunder/cinex/internal/shared"
	"github.com/desertthunder/cinex/internal/views"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer

	auth     services.AuthProvider
	profiles services.ProfileStore
	metadata services.MetadataProvider
	images   formatter.ImageURLs
	api      *services.APIService
	history  *repositories.WatchHistoryRepository
	openURL  func(url string) error

	storeOnce sync.Once
	store     *session.Store
	storeErr  error
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer

	Auth     services.AuthProvider
	Profiles services.ProfileStore
	Metadata services.MetadataProvider
	Images   formatter.ImageURLs
	API      *services.APIService
	History  *repositories.WatchHistoryRepository
	OpenURL  func(url string) error
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
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.OpenURL == nil {
		opts.OpenURL = shared.OpenBrowser
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		auth:       opts.Auth,
		profiles:   opts.Profiles,
		metadata:   opts.Metadata,
		images:     opts.Images,
		api:        opts.API,
		history:    opts.History,
		openURL:    opts.OpenURL,
	}
}

// SetLogger replaces the runner's logger, e.g. with a file logger while the TUI owns the terminal.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, contentCommand, watchlistCommand, profileCommand,
		watchCommand, historyCommand, apiCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// Redirect reports navigation requested by the session store.
func (r *Runner) Redirect(route models.Route) {
	r.logger.Debug("redirect", "route", route)
	r.writePlain("→ %s\n", route)
}

// Notify prints a view notification.
func (r *Runner) Notify(n views.Notification) {
	mark := "•"
	switch n.Level {
	case views.LevelSuccess:
		mark = "✓"
	case views.LevelError:
		mark = "✗"
	}

	if n.Message == "" {
		r.writePlain("%s %s\n", mark, n.Title)
		return
	}
	r.writePlain("%s %s: %s\n", mark, n.Title, n.Message)
}

var (
	_ session.Navigator = (*Runner)(nil)
	_ views.Notifier    = (*Runner)(nil)
)

// session returns the initialized session store, creating it on first use.
func (r *Runner) session(ctx context.Context) (*session.Store, error) {
	r.storeOnce.Do(func() {
		if r.auth == nil || r.profiles == nil {
			r.storeErr = fmt.Errorf("%w: backend not configured", shared.ErrServiceUnavailable)
			return
		}

		r.store = session.NewStore(r.auth, r.profiles, r, r.logger)
		if err := r.store.Init(ctx); err != nil {
			r.storeErr = fmt.Errorf("failed to load session: %w", err)
		}
	})
	return r.store, r.storeErr
}

// requireIdentity returns the store once the signed-in identity is loaded.
func (r *Runner) requireIdentity(ctx context.Context) (*session.Store, *models.Identity, error) {
	store, err := r.session(ctx)
	if err != nil {
		return nil, nil, err
	}
	if err := store.Settle(ctx); err != nil {
		return nil, nil, err
	}

	state := store.State()
	if !state.Authenticated() || state.Identity == nil {
		return nil, nil, shared.ErrNotAuthenticated
	}
	return store, state.Identity, nil
}

func (r *Runner) requireMetadata() error {
	if r.metadata == nil {
		return fmt.Errorf("%w: metadata client not configured", shared.ErrServiceUnavailable)
	}
	return nil
}

// Close releases the session store.
func (r *Runner) Close() {
	if r.store != nil {
		r.store.Close()
	}
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

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
