package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/cinex/internal/models"
	"github.com/desertthunder/cinex/internal/shared"
)

// HistoryEntry is one player launch.
type HistoryEntry struct {
	ID        string
	UserID    string
	ContentID int
	Kind      models.Kind
	Title     string
	WatchedAt time.Time
}

// Route returns the detail route of the watched title.
func (e HistoryEntry) Route() models.Route {
	return models.DetailRoute(e.Kind, e.ContentID)
}

// WatchHistoryRepository records titles opened in the player.
type WatchHistoryRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewWatchHistoryRepository creates a new [WatchHistoryRepository] with the given database connection
func NewWatchHistoryRepository(db *sql.DB) *WatchHistoryRepository {
	return &WatchHistoryRepository{db: db, now: time.Now}
}

// Record inserts an entry for userID watching content.
func (r *WatchHistoryRepository) Record(ctx context.Context, userID string, content *models.Content, title string) (*HistoryEntry, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id", shared.ErrMissingArgument)
	}
	if content == nil || !content.Kind.Valid() {
		return nil, fmt.Errorf("%w: content", shared.ErrInvalidArgument)
	}

	entry := &HistoryEntry{
		ID:        shared.GenerateID(),
		UserID:    userID,
		ContentID: content.ID,
		Kind:      content.Kind,
		Title:     title,
		WatchedAt: r.now().UTC(),
	}

	query := `
		INSERT INTO watch_history (id, user_id, content_id, kind, title, watched_at) VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query, entry.ID, entry.UserID, entry.ContentID, string(entry.Kind), entry.Title, entry.WatchedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert history entry: %w", err)
	}
	return entry, nil
}

// Recent returns up to limit entries for userID, newest first.
func (r *WatchHistoryRepository) Recent(ctx context.Context, userID string, limit int) ([]HistoryEntry, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT id, user_id, content_id, kind, title, watched_at
		FROM watch_history
		WHERE user_id = ?
		ORDER BY watched_at DESC, rowid DESC
		LIMIT ?
	`

	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var entries []HistoryEntry
	for rows.Next() {
		var (
			e    HistoryEntry
			kind string
		)
		if err := rows.Scan(&e.ID, &e.UserID, &e.ContentID, &kind, &e.Title, &e.WatchedAt); err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		e.Kind = models.Kind(kind)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate history: %w", err)
	}
	return entries, nil
}

// Clear deletes all entries for userID and returns how many were removed.
func (r *WatchHistoryRepository) Clear(ctx context.Context, userID string) (int64, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM watch_history WHERE user_id = ?", userID)
	if err != nil {
		return 0, fmt.Errorf("failed to clear history: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return rows, nil
}
