package models

import (
	"errors"
	"slices"
	"strings"
)

// Profile is a row of the backend profiles table.
type Profile struct {
	ID                  string `json:"id"`
	Username            string `json:"username"`
	Avatar              string `json:"avatar"`
	GenrePreferences    []int  `json:"genre_preferences"`
	OnboardingCompleted bool   `json:"onboarding_completed"`
	Watchlist           []int  `json:"watchlist"`
}

// Identity is the signed-in user's profile as held by the session store.
type Identity struct {
	ID                  string
	Username            string
	Email               string
	Avatar              string
	GenrePreferences    []int
	OnboardingCompleted bool
	Watchlist           []int
}

// NewIdentity merges a profile row with the session user's email.
func NewIdentity(p *Profile, email string) *Identity {
	return &Identity{
		ID:                  p.ID,
		Username:            p.Username,
		Email:               email,
		Avatar:              p.Avatar,
		GenrePreferences:    slices.Clone(p.GenrePreferences),
		OnboardingCompleted: p.OnboardingCompleted,
		Watchlist:           slices.Clone(p.Watchlist),
	}
}

// Clone returns a deep copy so callers cannot alias the store's slices.
func (i *Identity) Clone() *Identity {
	if i == nil {
		return nil
	}
	c := *i
	c.GenrePreferences = slices.Clone(i.GenrePreferences)
	c.Watchlist = slices.Clone(i.Watchlist)
	return &c
}

// Apply merges the fields set on u into the identity.
func (i *Identity) Apply(u ProfileUpdate) {
	if u.Username != nil {
		i.Username = *u.Username
	}
	if u.Avatar != nil {
		i.Avatar = *u.Avatar
	}
	if u.GenrePreferences != nil {
		i.GenrePreferences = slices.Clone(*u.GenrePreferences)
	}
	if u.OnboardingCompleted != nil {
		i.OnboardingCompleted = *u.OnboardingCompleted
	}
	if u.Watchlist != nil {
		i.Watchlist = slices.Clone(*u.Watchlist)
	}
}

// InWatchlist reports whether id appears in the watchlist.
func (i *Identity) InWatchlist(id int) bool {
	return i != nil && slices.Contains(i.Watchlist, id)
}

// ProfileUpdate is a partial profile write. Nil fields are left untouched.
//
// Slice fields are pointers so an explicitly empty list still serializes as [].
type ProfileUpdate struct {
	Username            *string `json:"username,omitempty"`
	Avatar              *string `json:"avatar,omitempty"`
	GenrePreferences    *[]int  `json:"genre_preferences,omitempty"`
	OnboardingCompleted *bool   `json:"onboarding_completed,omitempty"`
	Watchlist           *[]int  `json:"watchlist,omitempty"`
}

// Empty reports whether no field is set.
func (u ProfileUpdate) Empty() bool {
	return u.Username == nil && u.Avatar == nil && u.GenrePreferences == nil &&
		u.OnboardingCompleted == nil && u.Watchlist == nil
}

// Validate rejects blank usernames.
func (u ProfileUpdate) Validate() error {
	if u.Username != nil && strings.TrimSpace(*u.Username) == "" {
		return errors.New("username cannot be blank")
	}
	return nil
}

// Ptr returns a pointer to v, for building a [ProfileUpdate].
func Ptr[T any](v T) *T { return &v }
