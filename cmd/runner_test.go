package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/cinex/internal/models"
	"github.com/desertthunder/cinex/internal/repositories"
	"github.com/desertthunder/cinex/internal/services"
	"github.com/desertthunder/cinex/internal/session"
	"github.com/desertthunder/cinex/internal/shared"
	tu "github.com/desertthunder/cinex/internal/testing"
	"github.com/desertthunder/cinex/internal/testing/fakes"
	"github.com/desertthunder/cinex/internal/views"
)

const anaEmail = "ana@example.com"

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			httpClient := &http.Client{}
			meta := fakes.NewMetadata()
			api := &services.APIService{}

			runner := NewRunner(RunnerOpts{
				Config:     config,
				Logger:     logger,
				Output:     output,
				HTTPClient: httpClient,
				Metadata:   meta,
				API:        api,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.httpClient != httpClient {
				t.Error("expected httpClient to be set")
			}
			if runner.metadata != meta {
				t.Error("expected metadata to be set")
			}
			if runner.api != api {
				t.Error("expected api to be set")
			}
		})

		t.Run("with nil options uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
			if runner.output != os.Stdout {
				t.Error("expected output to default to stdout")
			}
			if runner.httpClient != http.DefaultClient {
				t.Error("expected default http client")
			}
			if runner.openURL == nil {
				t.Error("expected a browser opener")
			}
		})

		t.Run("with configPath sets field", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{ConfigPath: "/tmp/cinex.toml"})
			if runner.configPath != "/tmp/cinex.toml" {
				t.Errorf("expected configPath '/tmp/cinex.toml', got %q", runner.configPath)
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]int{"id": 550}, true); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if output.String() != "{\n  \"id\": 550\n}\n" {
				t.Errorf("unexpected output %q", output.String())
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]int{"id": 550}, false); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if output.String() != "{\"id\":550}\n" {
				t.Errorf("unexpected output %q", output.String())
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			err := runner.writeJSON(make(chan int), true)
			if err == nil || !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writeJSON(map[string]string{"key": "value"}, true)
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			w := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &w})

			err := runner.writeJSON(map[string]string{"key": "value"}, true)
			if err == nil || !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlain("%s %d\n", "Fight Club", 1999); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if output.String() != "Fight Club 1999\n" {
				t.Errorf("unexpected output %q", output.String())
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})
			if err := runner.writePlain("text"); err == nil {
				t.Error("expected error")
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		var names []string
		for _, cmd := range runner.register() {
			names = append(names, cmd.Name)
		}

		want := []string{"setup", "auth", "content", "watchlist", "profile", "watch", "history", "api", "tui"}
		if !slices.Equal(names, want) {
			t.Errorf("expected commands %v, got %v", want, names)
		}
	})

	t.Run("Notify", func(t *testing.T) {
		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Output: output})

		runner.Notify(views.Notification{Level: views.LevelSuccess, Title: "Added to watchlist", Message: "Fight Club"})
		runner.Notify(views.Notification{Level: views.LevelError, Title: "Error"})
		runner.Notify(views.Notification{Title: "Sign in required"})

		want := "✓ Added to watchlist: Fight Club\n✗ Error\n• Sign in required\n"
		if output.String() != want {
			t.Errorf("expected %q, got %q", want, output.String())
		}
	})

	t.Run("Redirect", func(t *testing.T) {
		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Output: output})

		runner.Redirect(models.RouteAuth)
		if output.String() != "→ /auth\n" {
			t.Errorf("unexpected output %q", output.String())
		}
	})

	t.Run("parseID", func(t *testing.T) {
		if id, err := parseID(" 550 "); err != nil || id != 550 {
			t.Errorf("expected 550, got %d (%v)", id, err)
		}
		for _, raw := range []string{"abc", "0", "-3", ""} {
			if _, err := parseID(raw); !errors.Is(err, shared.ErrInvalidArgument) {
				t.Errorf("parseID(%q): expected ErrInvalidArgument, got %v", raw, err)
			}
		}
	})

	t.Run("initSession degrades to signed out", func(t *testing.T) {
		logs := &bytes.Buffer{}
		auth := fakes.NewAuth(fakes.NewSession(fakes.UserIDFor(anaEmail), anaEmail))
		auth.GetSessionErr = shared.ErrRefreshFailed
		profiles := fakes.NewProfiles()
		runner := NewRunner(RunnerOpts{Output: io.Discard, Logger: shared.NewLogger(logs), Auth: auth, Profiles: profiles})

		store := session.NewStore(auth, profiles, nil, runner.logger)
		defer store.Close()
		runner.initSession(context.Background(), store)

		if st := store.State(); st.Status != session.StatusUnauthenticated || st.Session != nil {
			t.Errorf("expected signed-out state, got %+v", st)
		}
		if !strings.Contains(logs.String(), "continuing signed out") {
			t.Errorf("expected a warning, got %q", logs.String())
		}
	})

	t.Run("session without backend", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{Output: io.Discard})
		if _, err := runner.session(context.Background()); !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	})
}

type fixture struct {
	runner   *Runner
	out      *bytes.Buffer
	auth     *fakes.Auth
	profiles *fakes.Profiles
	meta     *fakes.Metadata
	history  *repositories.WatchHistoryRepository
	opened   []string
}

func fightClub() *models.Content {
	return &models.Content{
		ID: 550, Kind: models.KindMovie, Title: "Fight Club", ReleaseDate: "1999-10-15",
		Tagline: "Mischief. Mayhem. Soap.", VoteAverage: 8.4, Overview: "An insomniac office worker...",
		Credits: &models.Credits{Cast: []models.CastMember{
			{Name: "Brad Pitt", Character: "Tyler Durden"},
			{Name: "Edward Norton", Character: "The Narrator"},
		}},
	}
}

func newFixture(t *testing.T, signedIn bool, watchlist ...int) *fixture {
	t.Helper()

	meta := fakes.NewMetadata(
		fightClub(),
		&models.Content{ID: 1399, Kind: models.KindTV, Name: "Game of Thrones", FirstAirDate: "2011-04-17"},
	)
	meta.SetGenres(models.Genre{ID: 18, Name: "Drama"}, models.Genre{ID: 35, Name: "Comedy"})

	var current *models.Session
	if signedIn {
		current = fakes.NewSession(fakes.UserIDFor(anaEmail), anaEmail)
	}
	auth := fakes.NewAuth(current)
	profiles := fakes.NewProfiles(&models.Profile{
		ID:        fakes.UserIDFor(anaEmail),
		Username:  "ana",
		Watchlist: watchlist,
	})

	db, err := shared.OpenDatabase(shared.DatabaseConfig{Path: filepath.Join(t.TempDir(), "cinex.db"), MaxOpenConns: 1, MaxIdleConns: 1})
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	f := &fixture{
		out:      &bytes.Buffer{},
		auth:     auth,
		profiles: profiles,
		meta:     meta,
		history:  repositories.NewWatchHistoryRepository(db),
	}
	f.runner = NewRunner(RunnerOpts{
		Logger:   shared.NewLogger(io.Discard),
		Output:   f.out,
		Auth:     auth,
		Profiles: profiles,
		Metadata: meta,
		History:  f.history,
		OpenURL: func(url string) error {
			f.opened = append(f.opened, url)
			return nil
		},
	})
	t.Cleanup(f.runner.Close)
	return f
}

func (f *fixture) run(args ...string) error {
	app := &cli.Command{
		Name:      "cinex",
		Writer:    io.Discard,
		ErrWriter: io.Discard,
		Commands:  f.runner.register(),
	}
	return app.Run(context.Background(), append([]string{"cinex"}, args...))
}

func TestContentCommands(t *testing.T) {
	t.Run("show prints the detail page", func(t *testing.T) {
		f := newFixture(t, false)
		if err := f.run("content", "show", "movie", "550"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		out := f.out.String()
		for _, want := range []string{"Fight Club", "Mischief. Mayhem. Soap.", "Brad Pitt as Tyler Durden", "Play with: cinex watch movie 550"} {
			if !strings.Contains(out, want) {
				t.Errorf("expected output to contain %q:\n%s", want, out)
			}
		}
		if strings.Contains(out, "In your watchlist") {
			t.Error("signed-out detail should not claim a watchlist entry")
		}
	})

	t.Run("show marks watchlist titles", func(t *testing.T) {
		f := newFixture(t, true, 550)
		if err := f.run("content", "show", "movie", "550"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(f.out.String(), "✓ In your watchlist") {
			t.Errorf("expected watchlist marker:\n%s", f.out.String())
		}
	})

	t.Run("show reports unknown titles", func(t *testing.T) {
		f := newFixture(t, false)
		err := f.run("content", "show", "movie", "999")
		if !errors.Is(err, shared.ErrContentNotFound) {
			t.Errorf("expected ErrContentNotFound, got %v", err)
		}
		if !strings.Contains(f.out.String(), "✗ Error: Failed to load content") {
			t.Errorf("expected an error notification, got %q", f.out.String())
		}
	})

	t.Run("show rejects a bad kind", func(t *testing.T) {
		f := newFixture(t, false)
		if err := f.run("content", "show", "anime", "550"); !errors.Is(err, shared.ErrInvalidKind) {
			t.Errorf("expected ErrInvalidKind, got %v", err)
		}
	})

	t.Run("search lists matches", func(t *testing.T) {
		f := newFixture(t, false)
		if err := f.run("content", "search", "Game of Thrones"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(f.out.String(), "tv 1399") {
			t.Errorf("expected the show in results:\n%s", f.out.String())
		}
	})

	t.Run("genres lists ids", func(t *testing.T) {
		f := newFixture(t, false)
		if err := f.run("content", "genres"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(f.out.String(), "18  Drama") {
			t.Errorf("unexpected output %q", f.out.String())
		}
	})
}

func TestAuthCommands(t *testing.T) {
	t.Run("login signs out globally then redirects home", func(t *testing.T) {
		f := newFixture(t, false)
		if err := f.run("auth", "login", "--email", anaEmail, "--password", "secret1"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		scopes := f.auth.SignOutScopes()
		if len(scopes) == 0 || scopes[0] != services.ScopeGlobal {
			t.Errorf("expected a global sign out first, got %v", scopes)
		}
		out := f.out.String()
		if !strings.Contains(out, "→ /\n") {
			t.Errorf("expected a redirect home, got %q", out)
		}
		if !strings.Contains(out, "✓ Signed in as ana") {
			t.Errorf("expected the username, got %q", out)
		}
	})

	t.Run("login failure shows the provider message", func(t *testing.T) {
		f := newFixture(t, false)
		f.auth.SignInErr = &services.AuthError{Status: 400, Message: "Invalid login credentials"}

		err := f.run("auth", "login", "--email", anaEmail, "--password", "wrong")
		if !errors.Is(err, shared.ErrAuthFailed) {
			t.Errorf("expected ErrAuthFailed, got %v", err)
		}
		if !strings.Contains(f.out.String(), "✗ Login failed: Invalid login credentials") {
			t.Errorf("expected the provider message, got %q", f.out.String())
		}
	})

	t.Run("signup validates the password locally", func(t *testing.T) {
		f := newFixture(t, false)
		err := f.run("auth", "signup", "--email", "bo@example.com", "--username", "bo", "--password", "abc", "--confirm", "abc")
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
		if len(f.auth.SignUpParams()) != 0 {
			t.Error("expected no signup call")
		}
	})

	t.Run("signup sends the username and redirects to onboarding", func(t *testing.T) {
		f := newFixture(t, false)
		err := f.run("auth", "signup", "--email", "bo@example.com", "--username", "bo", "--password", "secret1", "--confirm", "secret1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		params := f.auth.SignUpParams()
		if len(params) != 1 || params[0].Data["username"] != "bo" {
			t.Errorf("expected username in metadata, got %+v", params)
		}
		if !strings.Contains(f.out.String(), "→ /onboarding") {
			t.Errorf("expected onboarding redirect, got %q", f.out.String())
		}
	})

	t.Run("logout clears the session", func(t *testing.T) {
		f := newFixture(t, true)
		if err := f.run("auth", "logout"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		out := f.out.String()
		if !strings.Contains(out, "→ /auth") || !strings.Contains(out, "✓ Signed out") {
			t.Errorf("unexpected output %q", out)
		}
	})

	t.Run("failed logout keeps the session", func(t *testing.T) {
		f := newFixture(t, true)
		f.auth.SignOutErr = errors.New("network down")

		if err := f.run("auth", "logout"); err == nil {
			t.Fatal("expected an error")
		}
		if f.runner.store.State().Session == nil {
			t.Error("expected the session to survive a failed logout")
		}
		if strings.Contains(f.out.String(), "→") {
			t.Errorf("expected no redirect, got %q", f.out.String())
		}
	})

	t.Run("status reports JSON", func(t *testing.T) {
		f := newFixture(t, true, 550, 1399)
		if err := f.run("auth", "status", "--json"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var out statusOutput
		if err := json.Unmarshal(f.out.Bytes(), &out); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if out.Status != "authenticated" || out.Username != "ana" || out.Watchlist != 2 {
			t.Errorf("unexpected status %+v", out)
		}
	})
}

func TestWatchlistCommands(t *testing.T) {
	t.Run("add requires a session", func(t *testing.T) {
		f := newFixture(t, false)
		if err := f.run("watchlist", "add", "550"); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})

	t.Run("add appends without deduplicating", func(t *testing.T) {
		f := newFixture(t, true, 550)
		if err := f.run("watchlist", "add", "550"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		row := f.profiles.Row(fakes.UserIDFor(anaEmail))
		if !slices.Equal(row.Watchlist, []int{550, 550}) {
			t.Errorf("expected [550 550], got %v", row.Watchlist)
		}
		if !strings.Contains(f.out.String(), "✓ Added Fight Club (1999)") {
			t.Errorf("unexpected output %q", f.out.String())
		}
	})

	t.Run("remove drops every occurrence", func(t *testing.T) {
		f := newFixture(t, true, 550, 1399, 550)
		if err := f.run("watchlist", "remove", "550"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		row := f.profiles.Row(fakes.UserIDFor(anaEmail))
		if !slices.Equal(row.Watchlist, []int{1399}) {
			t.Errorf("expected [1399], got %v", row.Watchlist)
		}
	})

	t.Run("list resolves movies and shows in order", func(t *testing.T) {
		f := newFixture(t, true, 1399, 42, 550)
		if err := f.run("watchlist", "list", "--json"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var entries []watchlistEntry
		if err := json.Unmarshal(f.out.Bytes(), &entries); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if len(entries) != 3 {
			t.Fatalf("expected 3 entries, got %d", len(entries))
		}
		if entries[0].Kind != "tv" || entries[2].Kind != "movie" {
			t.Errorf("unexpected kinds %+v", entries)
		}
		if entries[1].ID != 42 || entries[1].Error == "" {
			t.Errorf("expected id 42 to be unavailable, got %+v", entries[1])
		}
	})

	t.Run("list shows an empty watchlist", func(t *testing.T) {
		f := newFixture(t, true)
		if err := f.run("watchlist", "list"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(f.out.String(), "Your watchlist is empty") {
			t.Errorf("unexpected output %q", f.out.String())
		}
	})

	t.Run("export writes a file", func(t *testing.T) {
		f := newFixture(t, true, 550, 42)
		path := filepath.Join(t.TempDir(), "watchlist.csv")

		if err := f.run("watchlist", "export", "--format", "csv", "--output", path); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		tu.AssertFileExists(t, path)
		if !strings.Contains(tu.MustReadFile(t, path), "Fight Club") {
			t.Error("expected the resolved title in the export")
		}
		if !strings.Contains(f.out.String(), "[42]") {
			t.Errorf("expected the missing id to be reported, got %q", f.out.String())
		}
	})

	t.Run("export rejects unknown formats", func(t *testing.T) {
		f := newFixture(t, true, 550)
		if err := f.run("watchlist", "export", "--format", "pdf"); !errors.Is(err, shared.ErrInvalidFlag) {
			t.Errorf("expected ErrInvalidFlag, got %v", err)
		}
	})
}

func TestProfileCommands(t *testing.T) {
	t.Run("update changes the username", func(t *testing.T) {
		f := newFixture(t, true)
		if err := f.run("profile", "update", "--username", "ana.b"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if row := f.profiles.Row(fakes.UserIDFor(anaEmail)); row.Username != "ana.b" {
			t.Errorf("expected username ana.b, got %q", row.Username)
		}
	})

	t.Run("update needs a field", func(t *testing.T) {
		f := newFixture(t, true)
		if err := f.run("profile", "update"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("onboarding saves avatar and genres", func(t *testing.T) {
		f := newFixture(t, true)
		if err := f.run("profile", "onboarding", "--avatar", "fox", "--genre", "18", "--genre", "35,18"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		row := f.profiles.Row(fakes.UserIDFor(anaEmail))
		if row.Avatar != "fox" || !row.OnboardingCompleted {
			t.Errorf("unexpected profile %+v", row)
		}
		if !slices.Equal(row.GenrePreferences, []int{18, 35}) {
			t.Errorf("expected genres [18 35], got %v", row.GenrePreferences)
		}
		if !strings.Contains(f.out.String(), "✓ Welcome") {
			t.Errorf("expected a welcome notification, got %q", f.out.String())
		}
	})

	t.Run("onboarding needs a genre", func(t *testing.T) {
		f := newFixture(t, true)
		if err := f.run("profile", "onboarding", "--avatar", "fox"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("show names genres", func(t *testing.T) {
		f := newFixture(t, true)
		userID := fakes.UserIDFor(anaEmail)
		update := models.ProfileUpdate{GenrePreferences: models.Ptr([]int{35, 99})}
		if err := f.profiles.UpdateProfile(context.Background(), fakes.NewSession(userID, anaEmail), userID, update); err != nil {
			t.Fatalf("failed to seed genres: %v", err)
		}

		if err := f.run("profile", "show"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(f.out.String(), "Favourite genres: Comedy, #99") {
			t.Errorf("unexpected output %q", f.out.String())
		}
	})
}

func TestHistoryCommands(t *testing.T) {
	t.Run("list shows recorded plays", func(t *testing.T) {
		f := newFixture(t, true)
		userID := fakes.UserIDFor(anaEmail)
		if _, err := f.history.Record(context.Background(), userID, fightClub(), "Fight Club"); err != nil {
			t.Fatalf("failed to record: %v", err)
		}

		if err := f.run("history", "list", "--json"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var out []historyOutput
		if err := json.Unmarshal(f.out.Bytes(), &out); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if len(out) != 1 || out[0].ContentID != 550 || out[0].Route != "/movie/550" {
			t.Errorf("unexpected history %+v", out)
		}
	})

	t.Run("clear removes entries", func(t *testing.T) {
		f := newFixture(t, true)
		userID := fakes.UserIDFor(anaEmail)
		f.history.Record(context.Background(), userID, fightClub(), "Fight Club")

		if err := f.run("history", "clear"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(f.out.String(), "✓ Cleared 1 entries") {
			t.Errorf("unexpected output %q", f.out.String())
		}
	})

	t.Run("without a database", func(t *testing.T) {
		f := newFixture(t, true)
		f.runner.history = nil
		if err := f.run("history", "list"); !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	})
}

func TestAPICommands(t *testing.T) {
	t.Run("get sends the session token", func(t *testing.T) {
		var authorization string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authorization = r.Header.Get("Authorization")
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"ok":true}`))
		}))
		defer srv.Close()

		f := newFixture(t, true)
		f.runner.api = services.NewAPIService(srv.URL, "anon", srv.Client())

		if err := f.run("api", "get", "/rest/v1/profiles"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if authorization != "Bearer access-"+fakes.UserIDFor(anaEmail) {
			t.Errorf("unexpected Authorization header %q", authorization)
		}
		if !strings.Contains(f.out.String(), `"ok": true`) {
			t.Errorf("unexpected output %q", f.out.String())
		}
	})

	t.Run("get reports error statuses", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer srv.Close()

		f := newFixture(t, false)
		f.runner.api = services.NewAPIService(srv.URL, "anon", srv.Client())

		if err := f.run("api", "get", "--anon", "/missing"); !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
	})

	t.Run("post rejects invalid JSON", func(t *testing.T) {
		f := newFixture(t, false)
		f.runner.api = services.NewAPIService("http://127.0.0.1:0", "anon", http.DefaultClient)

		if err := f.run("api", "post", "--data", "{nope", "/rpc"); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("without a backend", func(t *testing.T) {
		f := newFixture(t, false)
		if err := f.run("api", "health"); !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	})
}
