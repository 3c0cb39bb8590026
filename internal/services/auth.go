package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/golang-jwt/jwt/v5"

	"github.com/desertthunder/cinex/internal/models"
	"github.com/desertthunder/cinex/internal/shared"
)

// expiryLeeway refreshes tokens slightly before they lapse.
const expiryLeeway = 30 * time.Second

// AuthError is an error response from the auth backend.
type AuthError struct {
	Status  int
	Code    string
	Message string
}

func (e *AuthError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("auth error (status %d, %s): %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("auth error (status %d): %s", e.Status, e.Message)
}

// authErrorBody covers the error shapes GoTrue has used across versions.
type authErrorBody struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	ErrorCode        string `json:"error_code"`
	Code             any    `json:"code"`
	Msg              string `json:"msg"`
	Message          string `json:"message"`
}

func (b authErrorBody) toError(status int) *AuthError {
	e := &AuthError{Status: status, Code: b.ErrorCode}
	if e.Code == "" {
		e.Code = b.Error
	}
	for _, m := range []string{b.Msg, b.ErrorDescription, b.Message, b.Error} {
		if m != "" {
			e.Message = m
			break
		}
	}
	if e.Message == "" {
		e.Message = http.StatusText(status)
	}
	return e
}

type tokenResponse struct {
	AccessToken  string      `json:"access_token"`
	TokenType    string      `json:"token_type"`
	ExpiresIn    int64       `json:"expires_in"`
	ExpiresAt    int64       `json:"expires_at"`
	RefreshToken string      `json:"refresh_token"`
	User         models.User `json:"user"`
}

// session converts the response, reading sub/exp from the JWT when the body omits them.
func (t tokenResponse) session(now time.Time) *models.Session {
	s := &models.Session{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		TokenType:    t.TokenType,
		User:         t.User,
	}

	switch {
	case t.ExpiresAt > 0:
		s.ExpiresAt = time.Unix(t.ExpiresAt, 0)
	case t.ExpiresIn > 0:
		s.ExpiresAt = now.Add(time.Duration(t.ExpiresIn) * time.Second)
	}

	if s.ExpiresAt.IsZero() || s.User.ID == "" {
		if claims, err := ParseClaims(t.AccessToken); err == nil {
			if s.ExpiresAt.IsZero() && claims.ExpiresAt != nil {
				s.ExpiresAt = claims.ExpiresAt.Time
			}
			if s.User.ID == "" {
				s.User.ID = claims.Subject
			}
		}
	}
	return s
}

// ParseClaims reads the registered claims of an access token without verifying its signature.
//
// The backend verifies tokens; the client only needs sub and exp.
func ParseClaims(token string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("failed to parse access token: %w", err)
	}
	return claims, nil
}

type listenerEntry struct {
	id string
	fn AuthListener
}

type authSubscription struct {
	id  string
	svc *AuthService
}

func (s *authSubscription) Unsubscribe() {
	s.svc.mu.Lock()
	defer s.svc.mu.Unlock()
	s.svc.listeners = removeListener(s.svc.listeners, s.id)
}

func removeListener(entries []listenerEntry, id string) []listenerEntry {
	out := entries[:0]
	for _, e := range entries {
		if e.id != id {
			out = append(out, e)
		}
	}
	return out
}

// AuthService is a GoTrue client that owns the current session.
//
// All session reads and writes happen under mu, and listeners are dispatched
// while mu is held.
type AuthService struct {
	baseURL    string
	anonKey    string
	httpClient *http.Client
	storage    SessionStorage
	logger     *log.Logger
	now        func() time.Time

	mu        sync.Mutex
	session   *models.Session
	loaded    bool
	listeners []listenerEntry
}

// NewAuthService creates a client for the auth API under backendURL (e.g. https://xyz.supabase.co).
func NewAuthService(backendURL, anonKey string, storage SessionStorage, client *http.Client, logger *log.Logger) *AuthService {
	if client == nil {
		client = http.DefaultClient
	}
	if storage == nil {
		storage = NewMemoryStorage()
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	return &AuthService{
		baseURL:    strings.TrimRight(backendURL, "/") + "/auth/v1",
		anonKey:    anonKey,
		httpClient: client,
		storage:    storage,
		logger:     shared.WithLogger(logger, "service", "auth"),
		now:        time.Now,
	}
}

// doRequest sends a JSON request to the auth API. A non-2xx response becomes an [*AuthError].
func (s *AuthService) doRequest(ctx context.Context, method, endpoint, accessToken string, body, result any) error {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("apikey", s.anonKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errBody authErrorBody
		_ = json.NewDecoder(resp.Body).Decode(&errBody)
		return errBody.toError(resp.StatusCode)
	}

	if result != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// OnAuthStateChange registers fn. The returned subscription removes it.
func (s *AuthService) OnAuthStateChange(fn AuthListener) Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := shared.GenerateID()
	s.listeners = append(s.listeners, listenerEntry{id: id, fn: fn})
	return &authSubscription{id: id, svc: s}
}

func (s *AuthService) emitLocked(event models.AuthEvent, session *models.Session) {
	s.logger.Debug("auth state change", "event", event, "listeners", len(s.listeners))
	for _, l := range s.listeners {
		l.fn(event, session.Clone())
	}
}

func (s *AuthService) loadLocked(ctx context.Context) error {
	if s.loaded {
		return nil
	}

	session, err := s.storage.LoadSession(ctx)
	if err != nil {
		return fmt.Errorf("failed to load stored session: %w", err)
	}
	if session != nil && session.ExpiresAt.IsZero() {
		if claims, err := ParseClaims(session.AccessToken); err == nil && claims.ExpiresAt != nil {
			session.ExpiresAt = claims.ExpiresAt.Time
		}
	}

	s.session = session
	s.loaded = true
	return nil
}

func (s *AuthService) setSessionLocked(ctx context.Context, session *models.Session, event models.AuthEvent) error {
	if err := s.storage.SaveSession(ctx, session); err != nil {
		return fmt.Errorf("failed to persist session: %w", err)
	}
	s.session = session
	s.loaded = true
	s.emitLocked(event, session)
	return nil
}

func (s *AuthService) clearSessionLocked(ctx context.Context) {
	if err := s.storage.ClearSession(ctx); err != nil {
		s.logger.Error("failed to clear stored session", "error", err)
	}
	hadSession := s.session != nil
	s.session = nil
	s.loaded = true
	if hadSession {
		s.emitLocked(models.EventSignedOut, nil)
	}
}

// GetSession returns the current session, refreshing it first if the access token has expired.
func (s *AuthService) GetSession(ctx context.Context) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.loadLocked(ctx); err != nil {
		return nil, err
	}
	if s.session == nil {
		return nil, nil
	}

	if s.session.Expired(s.now(), expiryLeeway) {
		if err := s.refreshLocked(ctx); err != nil {
			return nil, err
		}
	}
	return s.session.Clone(), nil
}

func (s *AuthService) refreshLocked(ctx context.Context) error {
	if s.session.RefreshToken == "" {
		s.clearSessionLocked(ctx)
		return shared.ErrNoRefreshToken
	}

	var resp tokenResponse
	body := map[string]string{"refresh_token": s.session.RefreshToken}
	if err := s.doRequest(ctx, http.MethodPost, "/token?grant_type=refresh_token", "", body, &resp); err != nil {
		var authErr *AuthError
		if errors.As(err, &authErr) && authErr.Status < 500 {
			s.clearSessionLocked(ctx)
		}
		return fmt.Errorf("%w: %w", shared.ErrRefreshFailed, err)
	}

	s.logger.Debug("session refreshed")
	return s.setSessionLocked(ctx, resp.session(s.now()), models.EventTokenRefreshed)
}

// SignInWithPassword signs in with email and password and emits SIGNED_IN.
func (s *AuthService) SignInWithPassword(ctx context.Context, email, password string) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var resp tokenResponse
	body := map[string]string{"email": email, "password": password}
	if err := s.doRequest(ctx, http.MethodPost, "/token?grant_type=password", "", body, &resp); err != nil {
		return nil, err
	}

	session := resp.session(s.now())
	if err := s.setSessionLocked(ctx, session, models.EventSignedIn); err != nil {
		return nil, err
	}
	s.logger.Info("signed in", "user", session.User.ID)
	return session.Clone(), nil
}

// SignUp creates an account. With auto-confirm enabled the backend returns a session
// and SIGNED_IN is emitted; otherwise the session is nil until the email is confirmed.
func (s *AuthService) SignUp(ctx context.Context, params SignUpParams) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	body := map[string]any{"email": params.Email, "password": params.Password}
	if len(params.Data) > 0 {
		body["data"] = params.Data
	}

	var resp struct {
		tokenResponse
		ID    string `json:"id"`
		Email string `json:"email"`
	}
	if err := s.doRequest(ctx, http.MethodPost, "/signup", "", body, &resp); err != nil {
		return nil, err
	}

	if resp.AccessToken == "" {
		s.logger.Info("signup pending confirmation", "user", resp.ID, "email", resp.Email)
		return nil, nil
	}

	session := resp.session(s.now())
	if err := s.setSessionLocked(ctx, session, models.EventSignedIn); err != nil {
		return nil, err
	}
	return session.Clone(), nil
}

// SignOut revokes sessions in scope and clears the local session, emitting SIGNED_OUT.
//
// Signing out without a session is a no-op. A failed revoke leaves the session in place,
// except when the backend no longer recognizes the token.
func (s *AuthService) SignOut(ctx context.Context, scope SignOutScope) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.loadLocked(ctx); err != nil {
		return err
	}
	if s.session == nil {
		return nil
	}

	endpoint := "/logout?scope=" + url.QueryEscape(string(scope))
	if err := s.doRequest(ctx, http.MethodPost, endpoint, s.session.AccessToken, nil, nil); err != nil {
		var authErr *AuthError
		stale := errors.As(err, &authErr) &&
			(authErr.Status == http.StatusUnauthorized || authErr.Status == http.StatusForbidden || authErr.Status == http.StatusNotFound)
		if !stale {
			return err
		}
		s.logger.Warn("session already revoked", "status", authErr.Status)
	}

	if scope != ScopeOthers {
		s.clearSessionLocked(ctx)
	}
	return nil
}

// User fetches the signed-in user from the backend, verifying the access token server-side.
func (s *AuthService) User(ctx context.Context) (*models.User, error) {
	session, err := s.GetSession(ctx)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, shared.ErrNotAuthenticated
	}

	var user models.User
	if err := s.doRequest(ctx, http.MethodGet, "/user", session.AccessToken, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}
