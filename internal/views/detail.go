package views

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/cinex/internal/formatter"
	"github.com/desertthunder/cinex/internal/models"
	"github.com/desertthunder/cinex/internal/services"
	"github.com/desertthunder/cinex/internal/shared"
)

// DetailOptions configures a [Detail] view.
type DetailOptions struct {
	Metadata services.MetadataProvider
	Store    Store
	Notifier Notifier
	Logger   *log.Logger

	// PlayerBaseURL is the local player server, e.g. http://127.0.0.1:4173.
	PlayerBaseURL string
	Images        formatter.ImageURLs

	// OnPlay runs after playback starts. The TUI scrolls to the player section.
	OnPlay func()
}

// Detail is the state of a single title's page.
//
// Each load bumps a generation counter and only the newest load may commit, so a slow fetch
// for a previous title cannot overwrite the current one.
type Detail struct {
	opts   DetailOptions
	logger *log.Logger

	mu      sync.Mutex
	gen     uint64
	kind    models.Kind
	id      int
	loading bool
	content *models.Content
	playing bool
}

// DetailSnapshot is a copy of the view state for rendering.
type DetailSnapshot struct {
	Kind    models.Kind
	ID      int
	Loading bool
	Content *models.Content
	Playing bool
}

// NotFound reports the "not found" render path: loading finished without content.
func (s DetailSnapshot) NotFound() bool {
	return !s.Loading && s.Content == nil
}

func NewDetail(opts DetailOptions) *Detail {
	if opts.Notifier == nil {
		opts.Notifier = discard{}
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	return &Detail{opts: opts, logger: shared.WithLogger(opts.Logger, "view", "detail")}
}

// Begin starts a load for kind/id and returns its generation.
func (d *Detail) Begin(kind models.Kind, id int) uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.gen++
	d.kind, d.id = kind, id
	d.loading = true
	d.content = nil
	d.playing = false
	return d.gen
}

// Finish commits the result of the load started at gen. It reports false when a newer load superseded it.
func (d *Detail) Finish(gen uint64, content *models.Content, err error) bool {
	d.mu.Lock()
	if gen != d.gen {
		d.mu.Unlock()
		d.logger.Debug("discarded stale content", "generation", gen)
		return false
	}
	kind, id := d.kind, d.id
	d.loading = false
	if err != nil {
		d.content = nil
	} else {
		d.content = content
	}
	d.mu.Unlock()

	if err != nil {
		d.logger.Error("failed to load content", "kind", kind, "id", id, "error", err)
		d.opts.Notifier.Notify(errorNotification("Error", "Failed to load content"))
	}
	return true
}

// Fetch requests kind/id from the metadata API without touching view state.
func (d *Detail) Fetch(ctx context.Context, kind models.Kind, id int) (*models.Content, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: %q", shared.ErrInvalidKind, kind)
	}
	return d.opts.Metadata.Details(ctx, kind, id)
}

// Load fetches kind/id and commits the result if no newer load started meanwhile.
func (d *Detail) Load(ctx context.Context, kind models.Kind, id int) error {
	gen := d.Begin(kind, id)
	content, err := d.Fetch(ctx, kind, id)
	d.Finish(gen, content, err)
	return err
}

// Snapshot returns the current view state.
func (d *Detail) Snapshot() DetailSnapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	return DetailSnapshot{Kind: d.kind, ID: d.id, Loading: d.loading, Content: d.content, Playing: d.playing}
}

// Watch starts playback. Without a session it notifies and reports false.
func (d *Detail) Watch() bool {
	if !signedIn(d.opts.Store) {
		d.opts.Notifier.Notify(signInRequired("watch content"))
		return false
	}

	d.mu.Lock()
	if d.content == nil {
		d.mu.Unlock()
		return false
	}
	d.playing = true
	d.mu.Unlock()

	if d.opts.OnPlay != nil {
		d.opts.OnPlay()
	}
	return true
}

// InWatchlist reports whether the loaded title is in the watchlist.
func (d *Detail) InWatchlist() bool {
	d.mu.Lock()
	content := d.content
	d.mu.Unlock()
	return content != nil && d.opts.Store.IsInWatchlist(content.ID)
}

// ToggleWatchlist adds or removes the loaded title and notifies with its title.
// Failures are logged and notified; the error is also returned.
func (d *Detail) ToggleWatchlist(ctx context.Context) error {
	if !signedIn(d.opts.Store) {
		d.opts.Notifier.Notify(signInRequired("add to watchlist"))
		return nil
	}

	d.mu.Lock()
	content := d.content
	d.mu.Unlock()
	if content == nil {
		return nil
	}

	title := formatter.Title(content)
	if d.opts.Store.IsInWatchlist(content.ID) {
		if err := d.opts.Store.RemoveFromWatchlist(ctx, content.ID); err != nil {
			return d.watchlistFailed(content, err)
		}
		d.opts.Notifier.Notify(Notification{
			Level:   LevelSuccess,
			Title:   "Removed from watchlist",
			Message: title + " has been removed from your watchlist",
		})
		return nil
	}

	if err := d.opts.Store.AddToWatchlist(ctx, content.ID); err != nil {
		return d.watchlistFailed(content, err)
	}
	d.opts.Notifier.Notify(Notification{
		Level:   LevelSuccess,
		Title:   "Added to watchlist",
		Message: title + " has been added to your watchlist",
	})
	return nil
}

func (d *Detail) watchlistFailed(content *models.Content, err error) error {
	d.logger.Error("failed to update watchlist", "id", content.ID, "error", err)
	d.opts.Notifier.Notify(errorNotification("Error", "Failed to update watchlist"))
	return err
}

// PlayerURL returns the local player page for the loaded title, or "" before content loads.
func (d *Detail) PlayerURL() string {
	d.mu.Lock()
	content := d.content
	d.mu.Unlock()

	if content == nil || d.opts.PlayerBaseURL == "" {
		return ""
	}
	return fmt.Sprintf("%s/watch/%s/%d", strings.TrimRight(d.opts.PlayerBaseURL, "/"), content.Kind, content.ID)
}

// Route returns the route of the loaded title, or home when nothing is loaded.
func (d *Detail) Route() models.Route {
	d.mu.Lock()
	defer d.mu.Unlock()
	return detailRoute(d.content)
}

// Backdrop returns the backdrop URL of the loaded title or the placeholder.
func (d *Detail) Backdrop() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return formatter.Backdrop(d.opts.Images, d.content)
}
