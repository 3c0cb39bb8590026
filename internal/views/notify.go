package views

import (
	"context"

	"github.com/desertthunder/cinex/internal/models"
	"github.com/desertthunder/cinex/internal/session"
)

// Level is a notification's severity.
type Level int

const (
	LevelInfo Level = iota
	LevelSuccess
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelSuccess:
		return "success"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

// Notification is a transient message shown to the user.
type Notification struct {
	Level   Level
	Title   string
	Message string
}

// Notifier surfaces notifications. The TUI shows them as toasts; the CLI prints them.
type Notifier interface {
	Notify(n Notification)
}

// NotifierFunc adapts a func to [Notifier].
type NotifierFunc func(Notification)

func (f NotifierFunc) Notify(n Notification) { f(n) }

type discard struct{}

func (discard) Notify(Notification) {}

// Store is the part of [session.Store] the views use.
type Store interface {
	State() session.State
	IsInWatchlist(id int) bool
	AddToWatchlist(ctx context.Context, id int) error
	RemoveFromWatchlist(ctx context.Context, id int) error
	Login(ctx context.Context, email, password string) error
	Signup(ctx context.Context, email, password, username string) error
	CompleteOnboarding(ctx context.Context, avatar string, genres []int) error
}

var _ Store = (*session.Store)(nil)

func signedIn(s Store) bool {
	return s.State().Session != nil
}

func errorNotification(title, message string) Notification {
	return Notification{Level: LevelError, Title: title, Message: message}
}

func signInRequired(action string) Notification {
	return errorNotification("Sign in required", "Please sign in to "+action)
}

// detailRoute is used by views that link back to a title.
func detailRoute(c *models.Content) models.Route {
	if c == nil {
		return models.RouteHome
	}
	return c.Route()
}
