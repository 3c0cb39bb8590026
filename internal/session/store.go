package session

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/cinex/internal/models"
	"github.com/desertthunder/cinex/internal/services"
	"github.com/desertthunder/cinex/internal/shared"
	"github.com/desertthunder/cinex/internal/tasks"
)

// Status is the store's authentication state.
type Status int

const (
	StatusLoading Status = iota
	StatusUnauthenticated
	StatusAuthenticated
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusUnauthenticated:
		return "unauthenticated"
	case StatusAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// Navigator performs a hard, state-resetting navigation.
type Navigator interface {
	Redirect(route models.Route)
}

type noopNavigator struct{}

func (noopNavigator) Redirect(models.Route) {}

// State is a snapshot of the store. Session and Identity are copies.
type State struct {
	Status   Status
	Session  *models.Session
	Identity *models.Identity
}

// Authenticated reports whether both a session and an identity are present.
func (s State) Authenticated() bool {
	return s.Status == StatusAuthenticated && s.Session != nil && s.Identity != nil
}

// Store mirrors the auth provider's session and owns the signed-in user's identity.
//
// Provider callbacks arrive while the provider holds its session lock, so the store only
// records the session there and runs the identity load on its task queue. The store never
// calls the provider or the profile store while holding its own lock.
type Store struct {
	auth     services.AuthProvider
	profiles services.ProfileStore
	nav      Navigator
	logger   *log.Logger
	queue    *tasks.Queue

	subOnce sync.Once
	sub     services.Subscription

	mu       sync.RWMutex
	status   Status
	session  *models.Session
	identity *models.Identity
	epoch    uint64

	listenersMu  sync.Mutex
	listeners    map[int]func(State)
	nextListener int
}

// NewStore creates a store in the Loading state. Call [Store.Init] to subscribe and load the session.
func NewStore(auth services.AuthProvider, profiles services.ProfileStore, nav Navigator, logger *log.Logger) *Store {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	if nav == nil {
		nav = noopNavigator{}
	}
	logger = shared.WithLogger(logger, "component", "session")

	return &Store{
		auth:      auth,
		profiles:  profiles,
		nav:       nav,
		logger:    logger,
		queue:     tasks.NewQueue(context.Background(), logger),
		status:    StatusLoading,
		listeners: make(map[int]func(State)),
	}
}

// Init subscribes to provider events and loads the current session and its identity.
func (s *Store) Init(ctx context.Context) error {
	s.setState(func() { s.status = StatusLoading })

	s.subOnce.Do(func() {
		sub := s.auth.OnAuthStateChange(s.handleAuthEvent)
		s.mu.Lock()
		s.sub = sub
		s.mu.Unlock()
	})

	s.mu.RLock()
	epoch := s.epoch
	s.mu.RUnlock()

	session, err := s.auth.GetSession(ctx)
	if err != nil {
		s.logger.Error("failed to get session", "error", err)
		s.commit(epoch, func() {
			s.session, s.identity = nil, nil
			s.status = StatusUnauthenticated
		})
		return err
	}

	if session == nil {
		s.commit(epoch, func() {
			s.session, s.identity = nil, nil
			s.status = StatusUnauthenticated
		})
		return nil
	}

	if !s.commit(epoch, func() { s.session = session }) {
		return nil
	}
	s.loadIdentity(ctx, session, epoch)
	return nil
}

// handleAuthEvent runs under the provider's lock and must not call back into the provider.
func (s *Store) handleAuthEvent(event models.AuthEvent, session *models.Session) {
	s.logger.Debug("auth state changed", "event", event, "signed_in", session != nil)

	if session == nil {
		s.setState(func() {
			s.epoch++
			s.session, s.identity = nil, nil
			s.status = StatusUnauthenticated
		})
		return
	}

	s.mu.Lock()
	s.epoch++
	epoch := s.epoch
	s.session = session
	s.mu.Unlock()

	s.queue.Defer(func(ctx context.Context) {
		s.loadIdentity(ctx, session, epoch)
	})
}

// loadIdentity fetches the profile row for session and commits it if no auth transition happened since epoch.
func (s *Store) loadIdentity(ctx context.Context, session *models.Session, epoch uint64) {
	profile, err := s.profiles.GetProfile(ctx, session, session.User.ID)
	if err != nil {
		s.logger.Error("failed to load profile", "user", session.User.ID, "error", err)
		s.commit(epoch, func() {
			s.identity = nil
			s.status = StatusUnauthenticated
		})
		return
	}

	if !s.commit(epoch, func() {
		s.identity = models.NewIdentity(profile, session.User.Email)
		s.status = StatusAuthenticated
	}) {
		s.logger.Debug("discarded stale identity load", "user", session.User.ID)
	}
}

// Login clears any existing session everywhere, then signs in and redirects home.
func (s *Store) Login(ctx context.Context, email, password string) error {
	if err := s.auth.SignOut(ctx, services.ScopeGlobal); err != nil {
		s.logger.Warn("sign out before login failed", "error", err)
	}

	if _, err := s.auth.SignInWithPassword(ctx, email, password); err != nil {
		return err
	}

	s.nav.Redirect(models.RouteHome)
	return nil
}

// Signup creates an account with username in the user metadata and redirects to onboarding.
func (s *Store) Signup(ctx context.Context, email, password, username string) error {
	_, err := s.auth.SignUp(ctx, services.SignUpParams{
		Email:    email,
		Password: password,
		Data:     map[string]any{"username": username},
	})
	if err != nil {
		return err
	}

	s.nav.Redirect(models.RouteOnboarding)
	return nil
}

// Logout signs out globally. On failure the error is returned and local state is untouched.
func (s *Store) Logout(ctx context.Context) error {
	if err := s.auth.SignOut(ctx, services.ScopeGlobal); err != nil {
		s.logger.Error("sign out failed", "error", err)
		return err
	}

	s.setState(func() {
		s.epoch++
		s.session, s.identity = nil, nil
		s.status = StatusUnauthenticated
	})
	s.nav.Redirect(models.RouteAuth)
	return nil
}

// UpdateProfile writes update to the identity's profile row and merges it locally once the write succeeds.
// It is a no-op without a session and identity. The write uses the provider's current session,
// so an expired access token is refreshed first.
func (s *Store) UpdateProfile(ctx context.Context, update models.ProfileUpdate) error {
	s.mu.RLock()
	session, identity := s.session, s.identity
	s.mu.RUnlock()

	if session == nil || identity == nil || update.Empty() {
		return nil
	}
	if err := update.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	// The provider refreshes an expired access token here and emits TOKEN_REFRESHED.
	session, err := s.auth.GetSession(ctx)
	if err != nil {
		return err
	}
	if session == nil || session.User.ID != identity.ID {
		return shared.ErrNotAuthenticated
	}

	if err := s.profiles.UpdateProfile(ctx, session, identity.ID, update); err != nil {
		return err
	}

	s.setState(func() {
		if s.identity != nil && s.identity.ID == identity.ID {
			s.identity.Apply(update)
			// A load queued by the refresh may have read the row before this write.
			s.epoch++
		}
	})
	return nil
}

// CompleteOnboarding stores the chosen avatar and genres and marks onboarding done.
func (s *Store) CompleteOnboarding(ctx context.Context, avatar string, genres []int) error {
	if genres == nil {
		genres = []int{}
	}
	return s.UpdateProfile(ctx, models.ProfileUpdate{
		Avatar:              &avatar,
		GenrePreferences:    &genres,
		OnboardingCompleted: models.Ptr(true),
	})
}

// AddToWatchlist appends id and writes the full list. Duplicates are not filtered.
func (s *Store) AddToWatchlist(ctx context.Context, id int) error {
	next, ok := s.nextWatchlist(func(list []int) []int { return append(list, id) })
	if !ok {
		return nil
	}
	return s.UpdateProfile(ctx, models.ProfileUpdate{Watchlist: &next})
}

// RemoveFromWatchlist drops every occurrence of id and writes the full list.
func (s *Store) RemoveFromWatchlist(ctx context.Context, id int) error {
	next, ok := s.nextWatchlist(func(list []int) []int {
		return slices.DeleteFunc(list, func(v int) bool { return v == id })
	})
	if !ok {
		return nil
	}
	return s.UpdateProfile(ctx, models.ProfileUpdate{Watchlist: &next})
}

func (s *Store) nextWatchlist(fn func([]int) []int) ([]int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.session == nil || s.identity == nil {
		return nil, false
	}

	next := fn(slices.Clone(s.identity.Watchlist))
	if next == nil {
		next = []int{}
	}
	return next, true
}

// IsInWatchlist reports whether id is in the signed-in user's watchlist.
func (s *Store) IsInWatchlist(id int) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session != nil && s.identity.InWatchlist(id)
}

// State returns a snapshot of the store.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() State {
	return State{Status: s.status, Session: s.session.Clone(), Identity: s.identity.Clone()}
}

// Subscribe registers fn for every state change and returns a func that removes it.
// fn may be called from a provider callback and must not block.
func (s *Store) Subscribe(fn func(State)) (cancel func()) {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()

	s.nextListener++
	id := s.nextListener
	s.listeners[id] = fn
	return func() {
		s.listenersMu.Lock()
		defer s.listenersMu.Unlock()
		delete(s.listeners, id)
	}
}

// Settle waits until identity loads triggered by earlier provider events have finished.
func (s *Store) Settle(ctx context.Context) error {
	return s.queue.Settle(ctx)
}

// Close unsubscribes from the provider and stops the task queue.
func (s *Store) Close() {
	s.mu.Lock()
	sub := s.sub
	s.sub = nil
	s.mu.Unlock()

	if sub != nil {
		sub.Unsubscribe()
	}
	s.queue.Close()
}

func (s *Store) setState(fn func()) {
	s.mu.Lock()
	fn()
	state := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(state)
}

// commit applies fn only if no auth transition happened since epoch.
func (s *Store) commit(epoch uint64, fn func()) bool {
	s.mu.Lock()
	if s.epoch != epoch {
		s.mu.Unlock()
		return false
	}
	fn()
	state := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(state)
	return true
}

func (s *Store) notify(state State) {
	s.listenersMu.Lock()
	fns := make([]func(State), 0, len(s.listeners))
	ids := make([]int, 0, len(s.listeners))
	for id := range s.listeners {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		fns = append(fns, s.listeners[id])
	}
	s.listenersMu.Unlock()

	for _, fn := range fns {
		fn(state)
	}
}
