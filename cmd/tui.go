package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/cinex/internal/session"
	"github.com/desertthunder/cinex/internal/shared"
	"github.com/desertthunder/cinex/internal/ui"
)

const defaultTUILog = "./tmp/cinex-tui.log"

// TUI launches the interactive terminal UI.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireMetadata(); err != nil {
		return err
	}
	if r.auth == nil || r.profiles == nil {
		return fmt.Errorf("%w: backend not configured", shared.ErrServiceUnavailable)
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	path := r.config.Log.File
	if path == "" {
		path = defaultTUILog
	}
	fileLogger, err := shared.NewFileLogger(path)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	shared.SetLogLevel(fileLogger, shared.ParseLogLevel(r.config.Log.Level))
	r.SetLogger(fileLogger)

	bridge := ui.NewBridge(ctx, shared.WithLogger(fileLogger, "component", "bridge"))
	defer bridge.Close()

	store := session.NewStore(r.auth, r.profiles, bridge, fileLogger)
	defer store.Close()
	unsubscribe := store.Subscribe(bridge.SessionChanged)
	defer unsubscribe()

	opts := ui.Options{
		Store:    store,
		Metadata: r.metadata,
		Images:   r.images,
		Notifier: bridge,
		OpenURL:  r.openURL,
		Logger:   fileLogger,
	}
	if r.history != nil {
		opts.History = r.history
	}
	if srv, err := r.startPlayer(); err != nil {
		fileLogger.Warn("playback disabled", "error", err)
	} else {
		defer r.stopPlayer(srv)
		opts.PlayerBaseURL = srv.URL()
	}

	model := ui.NewModel(ctx, opts)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	bridge.Attach(p)

	r.initSession(ctx, store)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}

// initSession loads the stored session. On failure the store is already signed out,
// so the catalog stays browsable and the error is only logged.
func (r *Runner) initSession(ctx context.Context, store *session.Store) {
	if err := store.Init(ctx); err != nil {
		r.logger.Warn("continuing signed out", "error", err)
	}
}
