// package services defines the clients for the remote APIs cinex talks to
//
// TMDB (catalog metadata), GoTrue (auth) and PostgREST (profiles)
package services

import (
	"context"

	"github.com/desertthunder/cinex/internal/models"
)

// SignOutScope selects which sessions a sign-out revokes.
type SignOutScope string

const (
	ScopeGlobal SignOutScope = "global" // every session of the user, on every device
	ScopeLocal  SignOutScope = "local"
	ScopeOthers SignOutScope = "others"
)

// AuthListener receives auth state changes. session is nil on sign-out.
//
// Providers may invoke listeners while holding their internal session lock,
// so a listener must not call back into the provider synchronously.
type AuthListener func(event models.AuthEvent, session *models.Session)

// Subscription is returned by [AuthProvider.OnAuthStateChange].
type Subscription interface {
	Unsubscribe()
}

// SignUpParams are the credentials and metadata for a new account.
type SignUpParams struct {
	Email    string
	Password string
	Data     map[string]any
}

// AuthProvider is the external identity provider.
type AuthProvider interface {
	// GetSession returns the current session, refreshing it if expired. A nil session means signed out.
	GetSession(ctx context.Context) (*models.Session, error)

	// OnAuthStateChange registers fn for every subsequent state change.
	OnAuthStateChange(fn AuthListener) Subscription

	// SignInWithPassword exchanges credentials for a session.
	SignInWithPassword(ctx context.Context, email, password string) (*models.Session, error)

	// SignUp creates an account. The session is nil when email confirmation is pending.
	SignUp(ctx context.Context, params SignUpParams) (*models.Session, error)

	// SignOut revokes sessions in scope and clears the local session.
	SignOut(ctx context.Context, scope SignOutScope) error
}

// ProfileStore reads and writes profile rows on behalf of a session.
type ProfileStore interface {
	// GetProfile fetches the row keyed by userID.
	GetProfile(ctx context.Context, session *models.Session, userID string) (*models.Profile, error)

	// UpdateProfile writes the set fields of update to the row keyed by userID.
	UpdateProfile(ctx context.Context, session *models.Session, userID string, update models.ProfileUpdate) error
}

// MetadataProvider is the catalog metadata API.
type MetadataProvider interface {
	GetMovieDetails(ctx context.Context, id int) (*models.Content, error)
	GetTVDetails(ctx context.Context, id int) (*models.Content, error)
	Details(ctx context.Context, kind models.Kind, id int) (*models.Content, error)
	Trending(ctx context.Context, kind models.Kind) ([]models.Content, error)
	Search(ctx context.Context, query string) ([]models.Content, error)
	Genres(ctx context.Context, kind models.Kind) ([]models.Genre, error)
}

// SessionStorage persists the provider's session between runs.
type SessionStorage interface {
	LoadSession(ctx context.Context) (*models.Session, error)
	SaveSession(ctx context.Context, session *models.Session) error
	ClearSession(ctx context.Context) error
}
