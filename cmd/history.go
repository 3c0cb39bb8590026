package main

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/cinex/internal/repositories"
	"github.com/desertthunder/cinex/internal/shared"
)

type historyOutput struct {
	ContentID int       `json:"content_id"`
	Kind      string    `json:"kind"`
	Title     string    `json:"title"`
	Route     string    `json:"route"`
	WatchedAt time.Time `json:"watched_at"`
}

func (r *Runner) requireHistory() (*repositories.WatchHistoryRepository, error) {
	if r.history == nil {
		return nil, fmt.Errorf("%w: database not available, run 'cinex setup database'", shared.ErrServiceUnavailable)
	}
	return r.history, nil
}

// HistoryList prints the signed-in user's most recent plays, newest first.
func (r *Runner) HistoryList(ctx context.Context, cmd *cli.Command) error {
	history, err := r.requireHistory()
	if err != nil {
		return err
	}
	_, identity, err := r.requireIdentity(ctx)
	if err != nil {
		return err
	}

	entries, err := history.Recent(ctx, identity.ID, int(cmd.Int("limit")))
	if err != nil {
		return fmt.Errorf("failed to read watch history: %w", err)
	}

	if cmd.Bool("json") {
		out := make([]historyOutput, 0, len(entries))
		for _, e := range entries {
			out = append(out, historyOutput{
				ContentID: e.ContentID,
				Kind:      string(e.Kind),
				Title:     e.Title,
				Route:     string(e.Route()),
				WatchedAt: e.WatchedAt,
			})
		}
		return r.writeJSON(out, true)
	}

	if len(entries) == 0 {
		return r.writePlain("Nothing watched yet\n")
	}
	r.writePlainHeader("Recently Watched")
	for _, e := range entries {
		r.writePlain("%s  %-5s %-8d %s\n", e.WatchedAt.Local().Format(time.DateTime), e.Kind, e.ContentID, e.Title)
	}
	return nil
}

// HistoryClear deletes the signed-in user's history.
func (r *Runner) HistoryClear(ctx context.Context, cmd *cli.Command) error {
	history, err := r.requireHistory()
	if err != nil {
		return err
	}
	_, identity, err := r.requireIdentity(ctx)
	if err != nil {
		return err
	}

	n, err := history.Clear(ctx, identity.ID)
	if err != nil {
		return fmt.Errorf("failed to clear watch history: %w", err)
	}
	r.logger.Info("watch history cleared", "entries", n)
	return r.writePlain("✓ Cleared %d entries\n", n)
}
