package main

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/cinex/internal/services"
	"github.com/desertthunder/cinex/internal/shared"
	"github.com/desertthunder/cinex/internal/views"
)

// AuthLogin signs in. The provider's message is printed on rejection.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	store, err := r.session(ctx)
	if err != nil {
		return err
	}

	form := views.NewLoginForm(store, r, r.logger)
	form.Email = cmd.String("email")
	form.Password = cmd.String("password")

	r.logger.Info("signing in", "email", form.Email)
	if err := form.Submit(ctx); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}

	if err := store.Settle(ctx); err != nil {
		return err
	}

	state := store.State()
	if state.Identity != nil {
		return r.writePlain("✓ Signed in as %s\n", state.Identity.Username)
	}
	return r.writePlain("✓ Signed in\n")
}

// AuthSignup creates an account with the username in the signup metadata.
func (r *Runner) AuthSignup(ctx context.Context, cmd *cli.Command) error {
	password, confirm := cmd.String("password"), cmd.String("confirm")
	if err := views.ValidatePassword(password, confirm); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	store, err := r.session(ctx)
	if err != nil {
		return err
	}

	signup := views.NewSignupForm(store, r.logger)
	signup.Email = cmd.String("email")
	signup.Username = cmd.String("username")
	signup.Password = password
	signup.ConfirmPassword = confirm

	if !signup.Submit(ctx) {
		return fmt.Errorf("%w: signup was rejected, see the log for details", shared.ErrAuthFailed)
	}

	if err := store.Settle(ctx); err != nil {
		return err
	}
	if store.State().Session == nil {
		return r.writePlain("✓ Account created. Confirm your email, then run 'cinex auth login'\n")
	}
	return r.writePlain("✓ Account created. Run 'cinex profile onboarding' to finish setting up\n")
}

// AuthLogout signs out of every session.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	store, err := r.session(ctx)
	if err != nil {
		return err
	}
	if store.State().Session == nil {
		return r.writePlain("Not signed in\n")
	}

	if err := store.Logout(ctx); err != nil {
		return fmt.Errorf("failed to sign out: %w", err)
	}
	return r.writePlain("✓ Signed out\n")
}

type statusOutput struct {
	Status     string    `json:"status"`
	Email      string    `json:"email,omitempty"`
	Username   string    `json:"username,omitempty"`
	Onboarded  bool      `json:"onboarding_completed"`
	Watchlist  int       `json:"watchlist"`
	ExpiresAt  time.Time `json:"expires_at,omitzero"`
	TokenValid bool      `json:"token_valid"`
}

// AuthStatus shows the session and profile state.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	store, err := r.session(ctx)
	if err != nil {
		return err
	}
	if err := store.Settle(ctx); err != nil {
		return err
	}

	state := store.State()
	out := statusOutput{Status: state.Status.String()}
	if state.Session != nil {
		out.Email = state.Session.User.Email
		out.ExpiresAt = state.Session.ExpiresAt
		if claims, err := services.ParseClaims(state.Session.AccessToken); err == nil {
			out.TokenValid = claims.ExpiresAt == nil || claims.ExpiresAt.After(time.Now())
		} else {
			r.logger.Debug("access token is not a readable JWT", "error", err)
		}
	}
	if state.Identity != nil {
		out.Username = state.Identity.Username
		out.Onboarded = state.Identity.OnboardingCompleted
		out.Watchlist = len(state.Identity.Watchlist)
	}

	if cmd.Bool("json") {
		return r.writeJSON(out, true)
	}

	r.writePlainHeader("Session")
	r.writePlain("Status: %s\n", out.Status)
	if state.Session == nil {
		return r.writePlain("Not signed in. Run 'cinex auth login'\n")
	}

	r.writePlain("Email: %s\n", out.Email)
	if out.Username != "" {
		r.writePlain("Username: %s\n", out.Username)
		r.writePlain("Onboarding: %s\n", checkmark(out.Onboarded))
		r.writePlain("Watchlist: %d titles\n", out.Watchlist)
	}
	if !out.ExpiresAt.IsZero() {
		r.writePlain("Token expires: %s\n", out.ExpiresAt.Local().Format(time.DateTime))
	}
	return nil
}

func checkmark(ok bool) string {
	if ok {
		return "✓ complete"
	}
	return "✗ pending"
}
