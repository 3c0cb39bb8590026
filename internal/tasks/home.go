package tasks

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/desertthunder/cinex/internal/models"
	"github.com/desertthunder/cinex/internal/services"
)

// HomeRows holds the trending rows of the home screen.
type HomeRows struct {
	Movies []models.Content
	Shows  []models.Content
}

// LoadHome fetches trending movies and shows concurrently. Either failure cancels the other.
func LoadHome(ctx context.Context, metadata services.MetadataProvider) (*HomeRows, error) {
	var rows HomeRows

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		rows.Movies, err = metadata.Trending(gctx, models.KindMovie)
		return err
	})
	g.Go(func() (err error) {
		rows.Shows, err = metadata.Trending(gctx, models.KindTV)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &rows, nil
}
