package repositories

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/desertthunder/cinex/internal/models"
	"github.com/desertthunder/cinex/internal/services"
	"github.com/desertthunder/cinex/internal/shared"
)

var _ services.SessionStorage = (*SessionRepository)(nil)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	db.SetMaxOpenConns(1)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

func TestSessionRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("Load Empty", func(t *testing.T) {
		repo := NewSessionRepository(setupTestDB(t))

		s, err := repo.LoadSession(ctx)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if s != nil {
			t.Errorf("expected nil session, got %+v", s)
		}
	})

	t.Run("Save And Load", func(t *testing.T) {
		repo := NewSessionRepository(setupTestDB(t))
		expires := time.Now().Add(time.Hour).Truncate(time.Second)

		in := &models.Session{
			AccessToken:  "tok",
			RefreshToken: "ref",
			TokenType:    "bearer",
			ExpiresAt:    expires,
			User: models.User{
				ID:       "6f1e0c1a-8a55-4d5e-9c3b-5b1f3c1a2b3c",
				Email:    "ana@example.com",
				Metadata: map[string]any{"username": "ana"},
			},
		}
		if err := repo.SaveSession(ctx, in); err != nil {
			t.Fatalf("failed to save session: %v", err)
		}

		out, err := repo.LoadSession(ctx)
		if err != nil {
			t.Fatalf("failed to load session: %v", err)
		}
		if out.AccessToken != "tok" || out.RefreshToken != "ref" || out.User.Email != "ana@example.com" {
			t.Errorf("unexpected session %+v", out)
		}
		if !out.ExpiresAt.Equal(expires) {
			t.Errorf("expected expiry %v, got %v", expires, out.ExpiresAt)
		}
		if out.User.Username() != "ana" {
			t.Errorf("expected metadata round trip, got %v", out.User.Metadata)
		}
	})

	t.Run("Save Replaces Existing Row", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewSessionRepository(db)

		repo.SaveSession(ctx, &models.Session{AccessToken: "one", User: models.User{ID: "u1"}})
		if err := repo.SaveSession(ctx, &models.Session{AccessToken: "two", User: models.User{ID: "u2"}}); err != nil {
			t.Fatalf("failed to overwrite session: %v", err)
		}

		var count int
		db.QueryRow("SELECT COUNT(*) FROM auth_sessions").Scan(&count)
		if count != 1 {
			t.Errorf("expected a single session row, got %d", count)
		}

		out, _ := repo.LoadSession(ctx)
		if out.AccessToken != "two" || !out.ExpiresAt.IsZero() {
			t.Errorf("unexpected session after overwrite %+v", out)
		}
	})

	t.Run("Clear", func(t *testing.T) {
		repo := NewSessionRepository(setupTestDB(t))
		repo.SaveSession(ctx, &models.Session{AccessToken: "tok", User: models.User{ID: "u1"}})

		if err := repo.ClearSession(ctx); err != nil {
			t.Fatalf("failed to clear: %v", err)
		}
		if err := repo.ClearSession(ctx); err != nil {
			t.Errorf("clearing twice should not fail: %v", err)
		}

		if s, _ := repo.LoadSession(ctx); s != nil {
			t.Error("expected nil session after clear")
		}
	})

	t.Run("Save Nil Clears", func(t *testing.T) {
		repo := NewSessionRepository(setupTestDB(t))
		repo.SaveSession(ctx, &models.Session{AccessToken: "tok", User: models.User{ID: "u1"}})

		if err := repo.SaveSession(ctx, nil); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if s, _ := repo.LoadSession(ctx); s != nil {
			t.Error("expected nil session")
		}
	})

	t.Run("Closed Database", func(t *testing.T) {
		db := setupTestDB(t)
		db.Close()

		if _, err := NewSessionRepository(db).LoadSession(ctx); err == nil {
			t.Error("expected error on closed database")
		}
	})
}

func TestWatchHistoryRepository(t *testing.T) {
	ctx := context.Background()
	movie := &models.Content{ID: 550, Kind: models.KindMovie, Title: "Fight Club"}
	show := &models.Content{ID: 1399, Kind: models.KindTV, Name: "Game of Thrones"}

	t.Run("Record And Recent", func(t *testing.T) {
		repo := NewWatchHistoryRepository(setupTestDB(t))
		base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
		tick := 0
		repo.now = func() time.Time {
			tick++
			return base.Add(time.Duration(tick) * time.Minute)
		}

		if _, err := repo.Record(ctx, "u1", movie, "Fight Club"); err != nil {
			t.Fatalf("failed to record: %v", err)
		}
		if _, err := repo.Record(ctx, "u1", show, "Game of Thrones"); err != nil {
			t.Fatalf("failed to record: %v", err)
		}
		if _, err := repo.Record(ctx, "u2", movie, "Fight Club"); err != nil {
			t.Fatalf("failed to record: %v", err)
		}

		entries, err := repo.Recent(ctx, "u1", 10)
		if err != nil {
			t.Fatalf("failed to list: %v", err)
		}
		if len(entries) != 2 {
			t.Fatalf("expected 2 entries for u1, got %d", len(entries))
		}
		if entries[0].ContentID != 1399 || entries[0].Kind != models.KindTV {
			t.Errorf("expected newest entry first, got %+v", entries[0])
		}
		if entries[1].Route() != "/movie/550" {
			t.Errorf("unexpected route %s", entries[1].Route())
		}
	})

	t.Run("Limit", func(t *testing.T) {
		repo := NewWatchHistoryRepository(setupTestDB(t))
		for range 3 {
			repo.Record(ctx, "u1", movie, "Fight Club")
		}

		entries, err := repo.Recent(ctx, "u1", 2)
		if err != nil || len(entries) != 2 {
			t.Errorf("expected 2 entries, got %d (%v)", len(entries), err)
		}
	})

	t.Run("Validation", func(t *testing.T) {
		repo := NewWatchHistoryRepository(setupTestDB(t))

		if _, err := repo.Record(ctx, "", movie, "x"); err == nil {
			t.Error("expected error for missing user")
		}
		if _, err := repo.Record(ctx, "u1", &models.Content{ID: 1, Kind: "person"}, "x"); err == nil {
			t.Error("expected error for invalid kind")
		}
	})

	t.Run("Clear", func(t *testing.T) {
		repo := NewWatchHistoryRepository(setupTestDB(t))
		repo.Record(ctx, "u1", movie, "Fight Club")
		repo.Record(ctx, "u1", show, "Game of Thrones")

		n, err := repo.Clear(ctx, "u1")
		if err != nil || n != 2 {
			t.Errorf("expected 2 rows cleared, got %d (%v)", n, err)
		}

		entries, _ := repo.Recent(ctx, "u1", 10)
		if len(entries) != 0 {
			t.Errorf("expected no entries after clear, got %d", len(entries))
		}
	})
}
