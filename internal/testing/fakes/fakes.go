// Package fakes provides in-memory test doubles for the services interfaces.
package fakes

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/desertthunder/cinex/internal/models"
	"github.com/desertthunder/cinex/internal/services"
	"github.com/desertthunder/cinex/internal/shared"
)

// ErrLockTimeout is returned when a fake could not take the provider lock.
var ErrLockTimeout = errors.New("fake auth: lock not acquired (reentrant call from a listener?)")

// Auth is an [services.AuthProvider] that, like the real provider, dispatches listeners
// while holding its session lock. A call made from inside a listener cannot take the
// lock; instead of hanging, the fake gives up after LockTimeout and counts a deadlock.
type Auth struct {
	LockTimeout time.Duration

	SignInErr     error
	SignUpErr     error
	SignOutErr    error
	GetSessionErr error

	// SignUpSession controls whether SignUp signs the user in immediately.
	SignUpSession bool

	mu        sync.Mutex
	session   *models.Session
	listeners map[int]services.AuthListener
	nextID    int

	callsMu       sync.Mutex
	calls         []string
	signUpParams  []services.SignUpParams
	signOutScopes []services.SignOutScope

	deadlocks atomic.Int32
}

// NewAuth returns a fake provider, optionally starting with a session.
func NewAuth(session *models.Session) *Auth {
	return &Auth{
		LockTimeout: 500 * time.Millisecond,
		session:     session,
		listeners:   make(map[int]services.AuthListener),
	}
}

// NewSession builds a session for userID.
func NewSession(userID, email string) *models.Session {
	return &models.Session{
		AccessToken:  "access-" + userID,
		RefreshToken: "refresh-" + userID,
		TokenType:    "bearer",
		ExpiresAt:    time.Now().Add(time.Hour),
		User:         models.User{ID: userID, Email: email},
	}
}

func (a *Auth) lock() bool {
	deadline := time.Now().Add(a.LockTimeout)
	for !a.mu.TryLock() {
		if time.Now().After(deadline) {
			a.deadlocks.Add(1)
			return false
		}
		time.Sleep(time.Millisecond)
	}
	return true
}

func (a *Auth) record(call string) {
	a.callsMu.Lock()
	defer a.callsMu.Unlock()
	a.calls = append(a.calls, call)
}

func (a *Auth) dispatchLocked(event models.AuthEvent, session *models.Session) {
	ids := make([]int, 0, len(a.listeners))
	for id := range a.listeners {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		a.listeners[id](event, session.Clone())
	}
}

// Emit simulates a provider-originated state change such as a background token refresh.
func (a *Auth) Emit(event models.AuthEvent, session *models.Session) {
	if !a.lock() {
		return
	}
	defer a.mu.Unlock()

	if event == models.EventSignedOut {
		a.session = nil
	} else {
		a.session = session.Clone()
	}
	a.dispatchLocked(event, session)
}

func (a *Auth) GetSession(context.Context) (*models.Session, error) {
	a.record("GetSession")
	if !a.lock() {
		return nil, ErrLockTimeout
	}
	defer a.mu.Unlock()

	if a.GetSessionErr != nil {
		return nil, a.GetSessionErr
	}
	return a.session.Clone(), nil
}

type subscription struct {
	auth *Auth
	id   int
}

func (s subscription) Unsubscribe() {
	s.auth.mu.Lock()
	defer s.auth.mu.Unlock()
	delete(s.auth.listeners, s.id)
}

func (a *Auth) OnAuthStateChange(fn services.AuthListener) services.Subscription {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.nextID++
	a.listeners[a.nextID] = fn
	return subscription{auth: a, id: a.nextID}
}

func (a *Auth) SignInWithPassword(_ context.Context, email, password string) (*models.Session, error) {
	a.record("SignInWithPassword")
	if !a.lock() {
		return nil, ErrLockTimeout
	}
	defer a.mu.Unlock()

	if a.SignInErr != nil {
		return nil, a.SignInErr
	}

	a.session = NewSession(userIDFor(email), email)
	a.dispatchLocked(models.EventSignedIn, a.session)
	return a.session.Clone(), nil
}

func (a *Auth) SignUp(_ context.Context, params services.SignUpParams) (*models.Session, error) {
	a.record("SignUp")
	a.callsMu.Lock()
	a.signUpParams = append(a.signUpParams, params)
	a.callsMu.Unlock()

	if !a.lock() {
		return nil, ErrLockTimeout
	}
	defer a.mu.Unlock()

	if a.SignUpErr != nil {
		return nil, a.SignUpErr
	}
	if !a.SignUpSession {
		return nil, nil
	}

	a.session = NewSession(userIDFor(params.Email), params.Email)
	a.session.User.Metadata = params.Data
	a.dispatchLocked(models.EventSignedIn, a.session)
	return a.session.Clone(), nil
}

func (a *Auth) SignOut(_ context.Context, scope services.SignOutScope) error {
	a.record("SignOut")
	a.callsMu.Lock()
	a.signOutScopes = append(a.signOutScopes, scope)
	a.callsMu.Unlock()

	if !a.lock() {
		return ErrLockTimeout
	}
	defer a.mu.Unlock()

	if a.SignOutErr != nil {
		return a.SignOutErr
	}
	if a.session == nil {
		return nil
	}

	a.session = nil
	a.dispatchLocked(models.EventSignedOut, nil)
	return nil
}

// Calls returns the provider methods invoked so far, in order.
func (a *Auth) Calls() []string {
	a.callsMu.Lock()
	defer a.callsMu.Unlock()
	return slices.Clone(a.calls)
}

// SignUpParams returns the params of every SignUp call.
func (a *Auth) SignUpParams() []services.SignUpParams {
	a.callsMu.Lock()
	defer a.callsMu.Unlock()
	return slices.Clone(a.signUpParams)
}

// SignOutScopes returns the scope of every SignOut call.
func (a *Auth) SignOutScopes() []services.SignOutScope {
	a.callsMu.Lock()
	defer a.callsMu.Unlock()
	return slices.Clone(a.signOutScopes)
}

// Deadlocks counts calls that could not take the provider lock.
func (a *Auth) Deadlocks() int {
	return int(a.deadlocks.Load())
}

// userIDFor derives a stable UUID-shaped id from an email.
func userIDFor(email string) string {
	var h uint32 = 2166136261
	for _, c := range []byte(email) {
		h ^= uint32(c)
		h *= 16777619
	}
	return fmt.Sprintf("%08x-0000-4000-8000-%012x", h, h)
}

// UserIDFor exposes the id the fake assigns to email on sign-in.
func UserIDFor(email string) string { return userIDFor(email) }

// Profiles is an in-memory [services.ProfileStore].
//
// When Auth is set, every call reads the session through it first, the way a
// backend client attaches the current token to each query.
type Profiles struct {
	Auth      *Auth
	GetErr    error
	UpdateErr error

	// BeforeUpdate runs before each update is applied, outside the lock.
	BeforeUpdate func(update models.ProfileUpdate)

	mu      sync.Mutex
	rows    map[string]*models.Profile
	updates []models.ProfileUpdate
	gets    int
}

func NewProfiles(rows ...*models.Profile) *Profiles {
	p := &Profiles{rows: make(map[string]*models.Profile)}
	for _, r := range rows {
		p.rows[r.ID] = r
	}
	return p
}

func (p *Profiles) GetProfile(ctx context.Context, session *models.Session, userID string) (*models.Profile, error) {
	if p.Auth != nil {
		if _, err := p.Auth.GetSession(ctx); err != nil {
			return nil, err
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.gets++

	if p.GetErr != nil {
		return nil, p.GetErr
	}
	if session == nil {
		return nil, shared.ErrNotAuthenticated
	}
	row, ok := p.rows[userID]
	if !ok {
		return nil, shared.ErrProfileNotFound
	}
	c := *row
	c.Watchlist = slices.Clone(row.Watchlist)
	c.GenrePreferences = slices.Clone(row.GenrePreferences)
	return &c, nil
}

func (p *Profiles) UpdateProfile(_ context.Context, session *models.Session, userID string, update models.ProfileUpdate) error {
	if p.BeforeUpdate != nil {
		p.BeforeUpdate(update)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.updates = append(p.updates, update)

	if p.UpdateErr != nil {
		return p.UpdateErr
	}
	if session == nil {
		return shared.ErrNotAuthenticated
	}
	row, ok := p.rows[userID]
	if !ok {
		return shared.ErrProfileNotFound
	}

	id := models.NewIdentity(row, "")
	id.Apply(update)
	row.Username, row.Avatar = id.Username, id.Avatar
	row.GenrePreferences, row.OnboardingCompleted, row.Watchlist = id.GenrePreferences, id.OnboardingCompleted, id.Watchlist
	return nil
}

// Updates returns every update received, in order.
func (p *Profiles) Updates() []models.ProfileUpdate {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.updates)
}

// Row returns a copy of the stored row for userID.
func (p *Profiles) Row(userID string) *models.Profile {
	p.mu.Lock()
	defer p.mu.Unlock()
	if r, ok := p.rows[userID]; ok {
		c := *r
		c.Watchlist = slices.Clone(r.Watchlist)
		return &c
	}
	return nil
}

// Gets counts GetProfile calls.
func (p *Profiles) Gets() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.gets
}

// Navigator records redirects.
type Navigator struct {
	mu     sync.Mutex
	routes []models.Route
}

func (n *Navigator) Redirect(route models.Route) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.routes = append(n.routes, route)
}

// Routes returns every redirect target, in order.
func (n *Navigator) Routes() []models.Route {
	n.mu.Lock()
	defer n.mu.Unlock()
	return slices.Clone(n.routes)
}

// Metadata is an in-memory [services.MetadataProvider].
//
// A content id with a registered gate blocks in Details until the gate is closed.
type Metadata struct {
	Err error

	mu       sync.Mutex
	contents map[string]*models.Content
	gates    map[int]chan struct{}
	trending map[models.Kind][]models.Content
	genres   []models.Genre
	calls    []string
}

func NewMetadata(contents ...*models.Content) *Metadata {
	m := &Metadata{
		contents: make(map[string]*models.Content),
		gates:    make(map[int]chan struct{}),
		trending: make(map[models.Kind][]models.Content),
	}
	for _, c := range contents {
		m.Add(c)
	}
	return m
}

func key(kind models.Kind, id int) string { return fmt.Sprintf("%s/%d", kind, id) }

// Add registers c under its kind and id.
func (m *Metadata) Add(c *models.Content) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.contents[key(c.Kind, c.ID)] = c
	m.trending[c.Kind] = append(m.trending[c.Kind], *c)
}

// SetGenres sets the genre list returned for every kind.
func (m *Metadata) SetGenres(genres ...models.Genre) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.genres = genres
}

// Gate makes Details for id block until the returned func is called.
func (m *Metadata) Gate(id int) (release func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch := make(chan struct{})
	m.gates[id] = ch
	var once sync.Once
	return func() { once.Do(func() { close(ch) }) }
}

func (m *Metadata) lookup(ctx context.Context, kind models.Kind, id int) (*models.Content, error) {
	m.mu.Lock()
	m.calls = append(m.calls, key(kind, id))
	gate := m.gates[id]
	m.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	c, ok := m.contents[key(kind, id)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", shared.ErrContentNotFound, key(kind, id))
	}
	cc := *c
	return &cc, nil
}

func (m *Metadata) GetMovieDetails(ctx context.Context, id int) (*models.Content, error) {
	return m.lookup(ctx, models.KindMovie, id)
}

func (m *Metadata) GetTVDetails(ctx context.Context, id int) (*models.Content, error) {
	return m.lookup(ctx, models.KindTV, id)
}

func (m *Metadata) Details(ctx context.Context, kind models.Kind, id int) (*models.Content, error) {
	return m.lookup(ctx, kind, id)
}

func (m *Metadata) Trending(_ context.Context, kind models.Kind) ([]models.Content, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	return slices.Clone(m.trending[kind]), nil
}

func (m *Metadata) Search(_ context.Context, query string) ([]models.Content, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	var out []models.Content
	for _, c := range m.contents {
		if c.Title == query || c.Name == query {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (m *Metadata) Genres(context.Context, models.Kind) ([]models.Genre, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	return slices.Clone(m.genres), nil
}

// Calls returns kind/id keys of every Details lookup.
func (m *Metadata) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.calls)
}

var (
	_ services.AuthProvider     = (*Auth)(nil)
	_ services.ProfileStore     = (*Profiles)(nil)
	_ services.MetadataProvider = (*Metadata)(nil)
)
