package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"

	"github.com/desertthunder/cinex/internal/formatter"
	"github.com/desertthunder/cinex/internal/session"
	"github.com/desertthunder/cinex/internal/views"
)

const castShown = 6

// detailScreen renders a [views.Detail] into a scrollable viewport.
type detailScreen struct {
	viewport       viewport.Model
	scrollToPlayer bool
}

func newDetailScreen(width, height int) *detailScreen {
	return &detailScreen{viewport: viewport.New(max(width-4, 0), height)}
}

func (s *detailScreen) reset(width, height int) {
	s.viewport = viewport.New(max(width-4, 0), height)
	s.scrollToPlayer = false
}

// refresh re-renders the page content, scrolling to the player section after playback starts.
func (s *detailScreen) refresh(view *views.Detail, state session.State) {
	snap := view.Snapshot()
	if snap.Content == nil {
		return
	}

	s.viewport.SetContent(renderContent(view, snap, state, s.viewport.Width))
	if s.scrollToPlayer {
		s.viewport.GotoBottom()
		s.scrollToPlayer = false
	}
}

func (s *detailScreen) view(view *views.Detail, sp spinner.Model) string {
	snap := view.Snapshot()
	switch {
	case snap.Loading:
		return fmt.Sprintf("%s Loading...", sp.View())
	case snap.NotFound():
		return styles.err.Render("Content not found") + "\n" + styles.help.Render("Press esc to go back")
	}
	return s.viewport.View()
}

func renderContent(view *views.Detail, snap views.DetailSnapshot, state session.State, width int) string {
	c := snap.Content
	wrap := lipgloss.NewStyle().Width(max(width, 20))

	var b strings.Builder
	b.WriteString(styles.title.Render(formatter.Title(c)))
	b.WriteString("\n")
	if c.Tagline != "" {
		b.WriteString(styles.subtitle.Render(c.Tagline) + "\n")
	}
	b.WriteString(formatter.Subtitle(c) + "\n")
	if genres := formatter.Genres(c); genres != "" {
		b.WriteString(genres + "\n")
	}
	b.WriteString(styles.help.Render(view.Backdrop()) + "\n\n")

	switch {
	case state.Session == nil:
		b.WriteString(styles.help.Render("Sign in to save titles (press a)"))
	case view.InWatchlist():
		b.WriteString(styles.ok.Render("✓ In watchlist"))
	default:
		b.WriteString(styles.warn.Render("+ Add to watchlist (press w)"))
	}
	b.WriteString("\n\n")

	if c.Overview != "" {
		b.WriteString(styles.focused.Render("Overview") + "\n")
		b.WriteString(wrap.Render(c.Overview) + "\n\n")
	}

	if cast := c.TopCast(castShown); len(cast) > 0 {
		b.WriteString(styles.focused.Render("Cast") + "\n")
		for _, member := range cast {
			if member.Character != "" {
				fmt.Fprintf(&b, "  %s as %s\n", member.Name, member.Character)
			} else {
				fmt.Fprintf(&b, "  %s\n", member.Name)
			}
		}
		b.WriteString("\n")
	}

	b.WriteString(styles.focused.Render("Player") + "\n")
	if snap.Playing {
		fmt.Fprintf(&b, "▶ Now playing in your browser: %s", view.PlayerURL())
	} else {
		b.WriteString(styles.help.Render("Press p to play"))
	}
	return b.String()
}
