package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/log"

	"github.com/desertthunder/cinex/internal/models"
	"github.com/desertthunder/cinex/internal/views"
)

// onboardingScreen picks an avatar and favourite genres.
type onboardingScreen struct {
	form       *views.OnboardingForm
	avatar     int
	genres     list.Model
	loading    bool
	loaded     bool
	submitting bool
	err        string
}

func newOnboardingScreen(store views.Store, notifier views.Notifier, logger *log.Logger, width, height int) *onboardingScreen {
	genres := newList(nil, "Favourite Genres", max(width-4, 0), max(height-4, 0))
	genres.SetShowStatusBar(false)
	genres.SetFilteringEnabled(false)

	return &onboardingScreen{
		form:   views.NewOnboardingForm(store, notifier, logger),
		avatar: -1,
		genres: genres,
	}
}

func (s *onboardingScreen) setGenres(genres []models.Genre, err error) {
	s.loading = false
	s.loaded = true
	if err != nil {
		s.err = fmt.Sprintf("Failed to load genres: %v", err)
		return
	}

	items := make([]list.Item, len(genres))
	for i, g := range genres {
		items[i] = genreItem{genre: g}
	}
	s.genres.SetItems(items)
}

func (s *onboardingScreen) cycleAvatar(delta int) {
	n := len(views.Avatars)
	if s.avatar < 0 {
		s.avatar = 0
	} else {
		s.avatar = (s.avatar + delta + n) % n
	}
	s.form.Avatar = views.Avatars[s.avatar]
}

func (s *onboardingScreen) toggleSelected() {
	item, ok := s.genres.SelectedItem().(genreItem)
	if !ok {
		return
	}
	item.selected = !item.selected
	s.form.ToggleGenre(item.genre.ID)
	s.genres.SetItem(s.genres.Index(), item)
}

func (s *onboardingScreen) view(sp spinner.Model) string {
	var b strings.Builder
	b.WriteString(styles.title.Render("Welcome! Set up your profile"))
	b.WriteString("\n")

	avatars := make([]string, len(views.Avatars))
	for i, a := range views.Avatars {
		if i == s.avatar {
			avatars[i] = styles.selected.Render("[" + a + "]")
		} else {
			avatars[i] = a
		}
	}
	b.WriteString("Avatar: " + strings.Join(avatars, " ") + "\n\n")

	if s.loading {
		b.WriteString(sp.View() + " Loading genres...\n")
	} else {
		b.WriteString(s.genres.View() + "\n")
		fmt.Fprintf(&b, "%d selected\n", len(s.form.Genres))
	}

	if s.submitting {
		b.WriteString(sp.View() + " Saving...\n")
	}
	if s.err != "" {
		b.WriteString(styles.err.Render(s.err) + "\n")
	}
	return b.String()
}
