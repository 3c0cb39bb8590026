package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/cinex/internal/formatter"
	"github.com/desertthunder/cinex/internal/server"
	"github.com/desertthunder/cinex/internal/shared"
)

const shutdownTimeout = 5 * time.Second

// startPlayer starts the local player server on the configured address.
func (r *Runner) startPlayer() (*server.Server, error) {
	handler := server.NewPlayerHandler(r.config.Player.EmbedBaseURL, r.metadata, r.logger)
	srv := server.NewServer(r.config.Player.Addr(), server.NewPlayerRouter(handler, r.logger), r.logger)
	if err := srv.Start(); err != nil {
		return nil, fmt.Errorf("failed to start player server: %w", err)
	}
	return srv, nil
}

func (r *Runner) stopPlayer(srv *server.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		r.logger.Warn("player server did not stop cleanly", "error", err)
	}
}

// Watch serves the player page for a title, opens it and records the play.
// It blocks until interrupted so the page stays reachable.
func (r *Runner) Watch(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireMetadata(); err != nil {
		return err
	}
	kind, id, err := parseTitleArgs(cmd)
	if err != nil {
		return err
	}
	store, identity, err := r.requireIdentity(ctx)
	if err != nil {
		return err
	}

	srv, err := r.startPlayer()
	if err != nil {
		return err
	}
	defer r.stopPlayer(srv)

	detail := r.newDetail(ctx, srv.URL())
	if err := detail.Load(ctx, kind, id); err != nil {
		return err
	}
	snap := detail.Snapshot()
	if snap.NotFound() {
		return fmt.Errorf("%w: %s/%d", shared.ErrContentNotFound, kind, id)
	}
	if store.State().Session == nil || !detail.Watch() {
		return shared.ErrNotAuthenticated
	}

	url := detail.PlayerURL()
	r.writePlain("▶ %s\n", formatter.Label(snap.Content))
	if cmd.Bool("no-browser") {
		r.writePlain("Open %s\n", url)
	} else if err := r.openURL(url); err != nil {
		r.logger.Warn("failed to open browser", "error", err)
		r.writePlain("Open %s\n", url)
	}

	if r.history != nil {
		if _, err := r.history.Record(ctx, identity.ID, snap.Content, formatter.Title(snap.Content)); err != nil {
			r.logger.Warn("failed to record watch history", "error", err)
		}
	}

	r.writePlain("Press Ctrl+C to stop the player\n")
	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case <-sigCtx.Done():
		r.logger.Debug("stopping player")
		return nil
	case err, ok := <-srv.Errors():
		if ok && err != nil {
			return fmt.Errorf("player server failed: %w", err)
		}
		return nil
	}
}
