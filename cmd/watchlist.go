package main

import (
	"context"
	"fmt"
	"sync"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/cinex/internal/formatter"
	"github.com/desertthunder/cinex/internal/shared"
	"github.com/desertthunder/cinex/internal/tasks"
)

type watchlistEntry struct {
	ID       int    `json:"id"`
	Kind     string `json:"kind,omitempty"`
	Title    string `json:"title,omitempty"`
	Subtitle string `json:"subtitle,omitempty"`
	Error    string `json:"error,omitempty"`
}

// printProgress prints updates until the returned stop func is called.
func (r *Runner) printProgress() (chan tasks.ProgressUpdate, func()) {
	progress := make(chan tasks.ProgressUpdate, 32)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for update := range progress {
			r.logger.Debug("progress", "phase", update.Phase, "step", update.Step, "total", update.Total)
			r.writePlain("%s\n", update.Message)
		}
	}()
	return progress, func() {
		close(progress)
		wg.Wait()
	}
}

// WatchlistList resolves and prints the saved titles in watchlist order.
func (r *Runner) WatchlistList(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireMetadata(); err != nil {
		return err
	}
	_, identity, err := r.requireIdentity(ctx)
	if err != nil {
		return err
	}

	asJSON := cmd.Bool("json")
	if len(identity.Watchlist) == 0 {
		if asJSON {
			return r.writeJSON([]watchlistEntry{}, true)
		}
		return r.writePlain("Your watchlist is empty. Add titles with 'cinex watchlist add <id>'\n")
	}

	var progress chan tasks.ProgressUpdate
	stop := func() {}
	if !asJSON {
		progress, stop = r.printProgress()
	}
	results, err := tasks.ResolveWatchlist(ctx, r.metadata, identity.Watchlist, int(cmd.Int("workers")), progress)
	stop()
	if err != nil {
		return err
	}

	entries := make([]watchlistEntry, 0, len(results))
	for _, res := range results {
		entry := watchlistEntry{ID: res.ID}
		if res.Err != nil {
			entry.Error = res.Err.Error()
		} else {
			entry.Kind = string(res.Content.Kind)
			entry.Title = res.Label
			entry.Subtitle = formatter.Subtitle(res.Content)
		}
		entries = append(entries, entry)
	}
	if asJSON {
		return r.writeJSON(entries, true)
	}

	r.writePlainHeader(fmt.Sprintf("%s's Watchlist (%d)", identity.Username, len(entries)))
	for i, e := range entries {
		if e.Error != "" {
			r.writePlain("%2d. #%d unavailable\n", i+1, e.ID)
			continue
		}
		r.writePlain("%2d. %s\n    %s %d · %s\n", i+1, e.Title, e.Kind, e.ID, e.Subtitle)
	}
	return nil
}

// WatchlistAdd appends a title id. Existing entries are not checked.
func (r *Runner) WatchlistAdd(ctx context.Context, cmd *cli.Command) error {
	id, err := r.watchlistArg(cmd)
	if err != nil {
		return err
	}
	store, _, err := r.requireIdentity(ctx)
	if err != nil {
		return err
	}

	if err := store.AddToWatchlist(ctx, id); err != nil {
		return fmt.Errorf("failed to update watchlist: %w", err)
	}
	return r.writePlain("✓ Added %s to your watchlist\n", r.describe(ctx, id))
}

// WatchlistRemove drops every occurrence of a title id.
func (r *Runner) WatchlistRemove(ctx context.Context, cmd *cli.Command) error {
	id, err := r.watchlistArg(cmd)
	if err != nil {
		return err
	}
	store, _, err := r.requireIdentity(ctx)
	if err != nil {
		return err
	}

	if err := store.RemoveFromWatchlist(ctx, id); err != nil {
		return fmt.Errorf("failed to update watchlist: %w", err)
	}
	return r.writePlain("✓ Removed %s from your watchlist\n", r.describe(ctx, id))
}

// WatchlistExport writes the resolved watchlist to a csv, markdown or text file.
func (r *Runner) WatchlistExport(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireMetadata(); err != nil {
		return err
	}
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidFlag, err)
	}
	_, identity, err := r.requireIdentity(ctx)
	if err != nil {
		return err
	}

	opts := tasks.ExportWatchlistOptions{
		Owner:   identity.Username,
		IDs:     identity.Watchlist,
		Format:  format,
		Path:    cmd.String("output"),
		Workers: tasks.DefaultResolveWorkers,
	}
	if cmd.Bool("posters") {
		opts.Images = r.images
	}

	progress, stop := r.printProgress()
	result, err := tasks.ExportWatchlistFile(ctx, r.metadata, opts, progress)
	stop()
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	r.logger.Info("watchlist exported", "path", result.Path, "titles", result.Exported)
	if len(result.Missing) > 0 {
		r.writePlain("⚠ %d ids could not be resolved: %v\n", len(result.Missing), result.Missing)
	}
	return r.writePlain("✓ Wrote %d titles to %s\n", result.Exported, result.Path)
}

func (r *Runner) watchlistArg(cmd *cli.Command) (int, error) {
	raw := cmd.StringArg("id")
	if raw == "" {
		return 0, fmt.Errorf("%w: id", shared.ErrMissingArgument)
	}
	return parseID(raw)
}

// describe labels id for output, falling back to the bare id when lookup fails.
func (r *Runner) describe(ctx context.Context, id int) string {
	if r.metadata == nil {
		return fmt.Sprintf("#%d", id)
	}
	res := tasks.Resolve(ctx, r.metadata, id)
	if res.Err != nil {
		r.logger.Debug("could not label title", "id", id, "error", res.Err)
		return fmt.Sprintf("#%d", id)
	}
	return res.Label
}
