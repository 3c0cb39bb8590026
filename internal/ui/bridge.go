package ui

import (
	"context"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/desertthunder/cinex/internal/models"
	"github.com/desertthunder/cinex/internal/session"
	"github.com/desertthunder/cinex/internal/tasks"
	"github.com/desertthunder/cinex/internal/views"
)

// Sender is the part of [tea.Program] the bridge needs.
type Sender interface {
	Send(msg tea.Msg)
}

// Bridge turns session redirects, store changes and notifications into program messages.
//
// It implements [session.Navigator] and [views.Notifier]. Messages sent before [Bridge.Attach]
// are buffered. Delivery goes through a [tasks.Queue], so callers never block on the program
// and order is preserved.
type Bridge struct {
	queue *tasks.Queue

	mu      sync.Mutex
	program Sender
	pending []tea.Msg
}

var (
	_ session.Navigator = (*Bridge)(nil)
	_ views.Notifier    = (*Bridge)(nil)
)

func NewBridge(ctx context.Context, logger *log.Logger) *Bridge {
	return &Bridge{queue: tasks.NewQueue(ctx, logger)}
}

// Attach starts delivering to p, flushing anything sent earlier.
func (b *Bridge) Attach(p Sender) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.program = p
	for _, msg := range b.pending {
		b.dispatchLocked(msg)
	}
	b.pending = nil
}

// Send delivers msg to the attached program.
func (b *Bridge) Send(msg tea.Msg) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.program == nil {
		b.pending = append(b.pending, msg)
		return
	}
	b.dispatchLocked(msg)
}

func (b *Bridge) dispatchLocked(msg tea.Msg) {
	p := b.program
	b.queue.Defer(func(context.Context) { p.Send(msg) })
}

// Redirect is a hard navigation: every screen starts fresh.
func (b *Bridge) Redirect(route models.Route) {
	b.Send(navigateMsg(route, true))
}

func (b *Bridge) Notify(n views.Notification) {
	b.Send(notifyMsg(n))
}

// SessionChanged is meant for [session.Store.Subscribe].
func (b *Bridge) SessionChanged(state session.State) {
	b.Send(sessionChangedMsg(state))
}

// Settle waits until every message sent so far has been delivered.
func (b *Bridge) Settle(ctx context.Context) error {
	return b.queue.Settle(ctx)
}

func (b *Bridge) Close() {
	b.queue.Close()
}
