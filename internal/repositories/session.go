package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/cinex/internal/models"
)

// SessionRepository persists the auth provider's session in the single-row auth_sessions table.
//
// It implements services.SessionStorage.
type SessionRepository struct {
	db *sql.DB
}

// NewSessionRepository creates a new [SessionRepository] with the given database connection
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// LoadSession returns the stored session, or nil when signed out.
func (r *SessionRepository) LoadSession(ctx context.Context) (*models.Session, error) {
	query := `
		SELECT access_token, refresh_token, token_type, expires_at, user_id, user_email, user_metadata
		FROM auth_sessions
		WHERE id = 1
	`

	var (
		s         models.Session
		expiresAt sql.NullTime
		metadata  string
	)

	err := r.db.QueryRowContext(ctx, query).Scan(
		&s.AccessToken, &s.RefreshToken, &s.TokenType, &expiresAt, &s.User.ID, &s.User.Email, &metadata,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query session: %w", err)
	}

	if expiresAt.Valid {
		s.ExpiresAt = expiresAt.Time
	}
	if metadata != "" {
		if err := json.Unmarshal([]byte(metadata), &s.User.Metadata); err != nil {
			return nil, fmt.Errorf("failed to decode user metadata: %w", err)
		}
	}

	return &s, nil
}

// SaveSession replaces the stored session.
func (r *SessionRepository) SaveSession(ctx context.Context, s *models.Session) error {
	if s == nil {
		return r.ClearSession(ctx)
	}

	metadata := []byte("{}")
	if len(s.User.Metadata) > 0 {
		var err error
		if metadata, err = json.Marshal(s.User.Metadata); err != nil {
			return fmt.Errorf("failed to encode user metadata: %w", err)
		}
	}

	var expiresAt sql.NullTime
	if !s.ExpiresAt.IsZero() {
		expiresAt = sql.NullTime{Time: s.ExpiresAt.UTC(), Valid: true}
	}

	query := `
		INSERT INTO auth_sessions (id, access_token, refresh_token, token_type, expires_at, user_id, user_email, user_metadata, updated_at)
		VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			access_token = excluded.access_token,
			refresh_token = excluded.refresh_token,
			token_type = excluded.token_type,
			expires_at = excluded.expires_at,
			user_id = excluded.user_id,
			user_email = excluded.user_email,
			user_metadata = excluded.user_metadata,
			updated_at = excluded.updated_at
	`

	_, err := r.db.ExecContext(ctx, query,
		s.AccessToken, s.RefreshToken, s.TokenType, expiresAt, s.User.ID, s.User.Email, string(metadata), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// ClearSession removes the stored session. Clearing an empty table is not an error.
func (r *SessionRepository) ClearSession(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM auth_sessions WHERE id = 1"); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}
