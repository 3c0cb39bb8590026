package views

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/cinex/internal/services"
	"github.com/desertthunder/cinex/internal/shared"
)

// MinPasswordLength is the shortest password the signup form submits.
const MinPasswordLength = 6

// ValidatePassword checks the confirmation and the minimum length.
func ValidatePassword(password, confirm string) error {
	if password != confirm {
		return shared.ErrPasswordMismatch
	}
	if len(password) < MinPasswordLength {
		return fmt.Errorf("%w: need at least %d characters", shared.ErrPasswordTooShort, MinPasswordLength)
	}
	return nil
}

// SignupForm collects new account details.
type SignupForm struct {
	Email           string
	Username        string
	Password        string
	ConfirmPassword string

	store  Store
	logger *log.Logger
}

func NewSignupForm(store Store, logger *log.Logger) *SignupForm {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &SignupForm{store: store, logger: shared.WithLogger(logger, "form", "signup")}
}

// Submit validates the passwords and calls Signup.
//
// It reports whether Signup was called and succeeded. Validation failures are only logged at debug
// level and a rejected signup is logged, never surfaced.
func (f *SignupForm) Submit(ctx context.Context) bool {
	if err := ValidatePassword(f.Password, f.ConfirmPassword); err != nil {
		f.logger.Debug("signup blocked", "reason", err)
		return false
	}

	if err := f.store.Signup(ctx, strings.TrimSpace(f.Email), f.Password, strings.TrimSpace(f.Username)); err != nil {
		f.logger.Error("signup failed", "error", err)
		return false
	}
	return true
}

// LoginForm collects credentials for an existing account.
type LoginForm struct {
	Email    string
	Password string

	store    Store
	notifier Notifier
	logger   *log.Logger
}

func NewLoginForm(store Store, notifier Notifier, logger *log.Logger) *LoginForm {
	if notifier == nil {
		notifier = discard{}
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &LoginForm{store: store, notifier: notifier, logger: shared.WithLogger(logger, "form", "login")}
}

// Submit signs in. A rejection is notified with the provider's message and returned.
func (f *LoginForm) Submit(ctx context.Context) error {
	email := strings.TrimSpace(f.Email)
	if email == "" || f.Password == "" {
		return fmt.Errorf("%w: email and password are required", shared.ErrMissingArgument)
	}

	if err := f.store.Login(ctx, email, f.Password); err != nil {
		f.logger.Error("login failed", "error", err)
		f.notifier.Notify(errorNotification("Login failed", providerMessage(err)))
		return err
	}
	return nil
}

func providerMessage(err error) string {
	var authErr *services.AuthError
	if errors.As(err, &authErr) && authErr.Message != "" {
		return authErr.Message
	}
	return err.Error()
}

// Avatars are the selectable onboarding avatars.
var Avatars = []string{"fox", "owl", "cat", "bear", "panda", "koala"}

// OnboardingForm collects the avatar and favourite genres after signup.
type OnboardingForm struct {
	Avatar string
	Genres []int

	store    Store
	notifier Notifier
	logger   *log.Logger
}

func NewOnboardingForm(store Store, notifier Notifier, logger *log.Logger) *OnboardingForm {
	if notifier == nil {
		notifier = discard{}
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &OnboardingForm{store: store, notifier: notifier, logger: shared.WithLogger(logger, "form", "onboarding")}
}

// ToggleGenre adds id to the selection or removes it.
func (f *OnboardingForm) ToggleGenre(id int) {
	for i, g := range f.Genres {
		if g == id {
			f.Genres = append(f.Genres[:i], f.Genres[i+1:]...)
			return
		}
	}
	f.Genres = append(f.Genres, id)
}

// Submit requires an avatar and at least one genre, then completes onboarding.
func (f *OnboardingForm) Submit(ctx context.Context) error {
	if f.Avatar == "" {
		return fmt.Errorf("%w: choose an avatar", shared.ErrMissingArgument)
	}
	if len(f.Genres) == 0 {
		return fmt.Errorf("%w: choose at least one genre", shared.ErrMissingArgument)
	}

	if err := f.store.CompleteOnboarding(ctx, f.Avatar, f.Genres); err != nil {
		f.logger.Error("onboarding failed", "error", err)
		f.notifier.Notify(errorNotification("Error", "Failed to save preferences"))
		return err
	}

	f.notifier.Notify(Notification{Level: LevelSuccess, Title: "Welcome", Message: "Your preferences have been saved"})
	return nil
}
