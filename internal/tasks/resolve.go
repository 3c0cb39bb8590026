package tasks

import (
	"context"
	"errors"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/desertthunder/cinex/internal/formatter"
	"github.com/desertthunder/cinex/internal/models"
	"github.com/desertthunder/cinex/internal/services"
	"github.com/desertthunder/cinex/internal/shared"
)

// DefaultResolveWorkers bounds concurrent metadata lookups.
const DefaultResolveWorkers = 4

// ResolveResult is the outcome of resolving one watchlist entry.
type ResolveResult struct {
	ID      int
	Content *models.Content
	Label   string
	Err     error
}

// Resolve looks up a watchlist id. Watchlist entries carry no kind, so the movie catalog is tried
// first and the TV catalog only when the movie lookup reports not found.
func Resolve(ctx context.Context, metadata services.MetadataProvider, id int) ResolveResult {
	c, err := metadata.GetMovieDetails(ctx, id)
	if errors.Is(err, shared.ErrContentNotFound) {
		c, err = metadata.GetTVDetails(ctx, id)
	}
	if err != nil {
		return ResolveResult{ID: id, Err: err}
	}
	return ResolveResult{ID: id, Content: c, Label: formatter.Label(c)}
}

// ResolveWatchlist resolves ids with at most workers lookups in flight.
//
// Results are in the order of ids, duplicates included. Per-item failures are reported in the
// result, so the only error returned is ctx's.
func ResolveWatchlist(ctx context.Context, metadata services.MetadataProvider, ids []int, workers int, progress chan<- ProgressUpdate) ([]ResolveResult, error) {
	if workers <= 0 {
		workers = DefaultResolveWorkers
	}

	results := make([]ResolveResult, len(ids))
	var done atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, id := range ids {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res := Resolve(gctx, metadata, id)
			results[i] = res

			step := int(done.Add(1))
			sendProgress(progress, resolvedUpdate(step, len(ids), res))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// ExportResult describes a written watchlist export.
type ExportResult struct {
	Path     string
	Exported int
	Missing  []int
}

// ExportWatchlistOptions configures [ExportWatchlistFile].
type ExportWatchlistOptions struct {
	Owner   string
	IDs     []int
	Format  formatter.Format
	Path    string
	Workers int
	Images  formatter.ImageURLs
}

// ExportWatchlistFile resolves the watchlist and writes it in the requested format.
// Ids that resolve to neither kind are listed in ExportResult.Missing.
func ExportWatchlistFile(ctx context.Context, metadata services.MetadataProvider, opts ExportWatchlistOptions, progress chan<- ProgressUpdate) (*ExportResult, error) {
	results, err := ResolveWatchlist(ctx, metadata, opts.IDs, opts.Workers, progress)
	if err != nil {
		return nil, err
	}

	export := &formatter.WatchlistExport{Owner: opts.Owner}
	for _, res := range results {
		if res.Err != nil {
			export.Missing = append(export.Missing, res.ID)
			continue
		}
		export.Items = append(export.Items, *res.Content)
	}

	path, err := formatter.WriteExport(export, opts.Format, opts.Path, opts.Images)
	if err != nil {
		return nil, err
	}

	sendProgress(progress, exportedUpdate(path, len(export.Items)))
	return &ExportResult{Path: path, Exported: len(export.Items), Missing: export.Missing}, nil
}
