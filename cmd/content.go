package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/cinex/internal/formatter"
	"github.com/desertthunder/cinex/internal/models"
	"github.com/desertthunder/cinex/internal/session"
	"github.com/desertthunder/cinex/internal/shared"
	"github.com/desertthunder/cinex/internal/views"
)

const castShown = 6

// parseTitleArgs reads the <kind> <id> argument pair.
func parseTitleArgs(cmd *cli.Command) (models.Kind, int, error) {
	rawKind, rawID := cmd.StringArg("kind"), cmd.StringArg("id")
	if rawKind == "" || rawID == "" {
		return "", 0, fmt.Errorf("%w: <movie|tv> <id>", shared.ErrMissingArgument)
	}

	kind, err := models.ParseKind(rawKind)
	if err != nil {
		return "", 0, fmt.Errorf("%w: %v", shared.ErrInvalidKind, err)
	}

	id, err := parseID(rawID)
	if err != nil {
		return "", 0, err
	}
	return kind, id, nil
}

func parseID(raw string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: id %q", shared.ErrInvalidArgument, raw)
	}
	return id, nil
}

// newDetail builds a detail view that reports through the runner.
func (r *Runner) newDetail(ctx context.Context, playerBaseURL string) *views.Detail {
	opts := views.DetailOptions{
		Metadata:      r.metadata,
		Notifier:      r,
		Logger:        r.logger,
		PlayerBaseURL: playerBaseURL,
		Images:        r.images,
	}
	if store, err := r.session(ctx); err == nil {
		if err := store.Settle(ctx); err != nil {
			r.logger.Debug("identity not loaded", "error", err)
		}
		opts.Store = store
	} else {
		r.logger.Debug("continuing without a session", "error", err)
		opts.Store = signedOut{}
	}
	return views.NewDetail(opts)
}

// ContentShow prints a title's detail page.
func (r *Runner) ContentShow(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireMetadata(); err != nil {
		return err
	}
	kind, id, err := parseTitleArgs(cmd)
	if err != nil {
		return err
	}

	detail := r.newDetail(ctx, "")
	if err := detail.Load(ctx, kind, id); err != nil {
		return err
	}

	snap := detail.Snapshot()
	if snap.NotFound() {
		return fmt.Errorf("%w: %s/%d", shared.ErrContentNotFound, kind, id)
	}
	if cmd.Bool("json") {
		return r.writeJSON(snap.Content, true)
	}

	c := snap.Content
	r.writePlainHeader(formatter.Title(c))
	if c.Tagline != "" {
		r.writePlain("%s\n\n", c.Tagline)
	}
	r.writePlain("%s\n", formatter.Subtitle(c))
	if genres := formatter.Genres(c); genres != "" {
		r.writePlain("%s\n", genres)
	}
	r.writePlain("Backdrop: %s\n", detail.Backdrop())
	if detail.InWatchlist() {
		r.writePlain("✓ In your watchlist\n")
	}

	if c.Overview != "" {
		r.writePlainln("Overview")
		r.writePlain("%s\n", c.Overview)
	}

	if cast := c.TopCast(castShown); len(cast) > 0 {
		r.writePlainln("Cast")
		for _, m := range cast {
			if m.Character != "" {
				r.writePlain("  %s as %s\n", m.Name, m.Character)
			} else {
				r.writePlain("  %s\n", m.Name)
			}
		}
	}

	r.writePlainln("Play with: cinex watch %s %d", c.Kind, c.ID)
	return nil
}

// ContentTrending lists trending titles of one kind.
func (r *Runner) ContentTrending(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireMetadata(); err != nil {
		return err
	}
	kind, err := models.ParseKind(cmd.String("kind"))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidKind, err)
	}

	contents, err := r.metadata.Trending(ctx, kind)
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(contents, true)
	}

	if kind == models.KindMovie {
		r.writePlainHeader("Trending Movies")
	} else {
		r.writePlainHeader("Trending TV Shows")
	}
	r.writeContents(contents)
	return nil
}

// ContentSearch searches movies and shows.
func (r *Runner) ContentSearch(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireMetadata(); err != nil {
		return err
	}
	query := strings.TrimSpace(cmd.StringArg("query"))
	if query == "" {
		return fmt.Errorf("%w: query", shared.ErrMissingArgument)
	}

	r.logger.Info("searching", "query", query)
	contents, err := r.metadata.Search(ctx, query)
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(contents, true)
	}

	if len(contents) == 0 {
		return r.writePlain("No results for %q\n", query)
	}
	r.writeContents(contents)
	return nil
}

// ContentGenres lists genre ids and names, for onboarding.
func (r *Runner) ContentGenres(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireMetadata(); err != nil {
		return err
	}
	kind, err := models.ParseKind(cmd.String("kind"))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidKind, err)
	}

	genres, err := r.metadata.Genres(ctx, kind)
	if err != nil {
		return err
	}
	for _, g := range genres {
		r.writePlain("%6d  %s\n", g.ID, g.Name)
	}
	return nil
}

func (r *Runner) writeContents(contents []models.Content) {
	for i := range contents {
		c := &contents[i]
		r.writePlain("%2d. %s\n", i+1, formatter.Label(c))
		r.writePlain("    %s %d · %s\n", c.Kind, c.ID, formatter.Subtitle(c))
	}
}

// signedOut stands in for the session store when no backend is configured.
type signedOut struct{}

func (signedOut) State() session.State {
	return session.State{Status: session.StatusUnauthenticated}
}
func (signedOut) IsInWatchlist(int) bool { return false }
func (signedOut) AddToWatchlist(context.Context, int) error      { return shared.ErrNotAuthenticated }
func (signedOut) RemoveFromWatchlist(context.Context, int) error { return shared.ErrNotAuthenticated }
func (signedOut) Login(context.Context, string, string) error    { return shared.ErrNotAuthenticated }
func (signedOut) Signup(context.Context, string, string, string) error {
	return shared.ErrNotAuthenticated
}
func (signedOut) CompleteOnboarding(context.Context, string, []int) error {
	return shared.ErrNotAuthenticated
}

var _ views.Store = signedOut{}
