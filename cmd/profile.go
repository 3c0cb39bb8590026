package main

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/cinex/internal/models"
	"github.com/desertthunder/cinex/internal/shared"
	"github.com/desertthunder/cinex/internal/views"
)

// ProfileShow prints the signed-in identity.
func (r *Runner) ProfileShow(ctx context.Context, cmd *cli.Command) error {
	_, identity, err := r.requireIdentity(ctx)
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(identity, true)
	}

	r.writePlainHeader(identity.Username)
	r.writePlain("Email: %s\n", identity.Email)
	if identity.Avatar != "" {
		r.writePlain("Avatar: %s\n", identity.Avatar)
	}
	r.writePlain("Onboarding: %s\n", checkmark(identity.OnboardingCompleted))
	if len(identity.GenrePreferences) > 0 {
		r.writePlain("Favourite genres: %s\n", r.genreNames(ctx, identity.GenrePreferences))
	}
	r.writePlain("Watchlist: %d titles\n", len(identity.Watchlist))
	return nil
}

// ProfileUpdate changes the username or avatar.
func (r *Runner) ProfileUpdate(ctx context.Context, cmd *cli.Command) error {
	var update models.ProfileUpdate
	if cmd.IsSet("username") {
		update.Username = models.Ptr(strings.TrimSpace(cmd.String("username")))
	}
	if cmd.IsSet("avatar") {
		update.Avatar = models.Ptr(cmd.String("avatar"))
	}
	if update.Empty() {
		return fmt.Errorf("%w: pass --username or --avatar", shared.ErrMissingArgument)
	}
	if err := update.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	store, _, err := r.requireIdentity(ctx)
	if err != nil {
		return err
	}
	if err := store.UpdateProfile(ctx, update); err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	return r.writePlain("✓ Profile updated\n")
}

// ProfileOnboarding saves the avatar and favourite genres and marks onboarding complete.
func (r *Runner) ProfileOnboarding(ctx context.Context, cmd *cli.Command) error {
	store, _, err := r.requireIdentity(ctx)
	if err != nil {
		return err
	}

	form := views.NewOnboardingForm(store, r, r.logger)
	form.Avatar = cmd.String("avatar")
	for _, raw := range cmd.StringSlice("genre") {
		for part := range strings.SplitSeq(raw, ",") {
			id, err := parseID(part)
			if err != nil {
				return fmt.Errorf("%w: genre %q", shared.ErrInvalidFlag, part)
			}
			if !slices.Contains(form.Genres, id) {
				form.ToggleGenre(id)
			}
		}
	}

	return form.Submit(ctx)
}

// genreNames maps genre ids to names across both kinds, keeping unknown ids as numbers.
func (r *Runner) genreNames(ctx context.Context, ids []int) string {
	names := map[int]string{}
	if r.metadata != nil {
		for _, kind := range []models.Kind{models.KindMovie, models.KindTV} {
			genres, err := r.metadata.Genres(ctx, kind)
			if err != nil {
				r.logger.Debug("failed to load genres", "kind", kind, "error", err)
				continue
			}
			for _, g := range genres {
				names[g.ID] = g.Name
			}
		}
	}

	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if name, ok := names[id]; ok {
			out = append(out, name)
		} else {
			out = append(out, fmt.Sprintf("#%d", id))
		}
	}
	return strings.Join(out, ", ")
}
