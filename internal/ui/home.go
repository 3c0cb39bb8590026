package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"

	"github.com/desertthunder/cinex/internal/models"
	"github.com/desertthunder/cinex/internal/tasks"
)

// homeScreen shows the trending rows, one kind at a time.
type homeScreen struct {
	loading bool
	loaded  bool
	err     error
	rows    *tasks.HomeRows
	tab     models.Kind
	list    list.Model
}

func newHomeScreen(width, height int) *homeScreen {
	return &homeScreen{tab: models.KindMovie, list: newList(nil, "Trending Movies", max(width-4, 0), height)}
}

func (s *homeScreen) setRows(rows *tasks.HomeRows, err error) {
	s.loading = false
	s.loaded = true
	s.err = err
	s.rows = rows
	s.fill()
}

func (s *homeScreen) switchTab() {
	if s.tab == models.KindMovie {
		s.tab = models.KindTV
	} else {
		s.tab = models.KindMovie
	}
	s.fill()
}

func (s *homeScreen) fill() {
	var contents []models.Content
	if s.rows != nil {
		if s.tab == models.KindMovie {
			contents = s.rows.Movies
		} else {
			contents = s.rows.Shows
		}
	}

	if s.tab == models.KindMovie {
		s.list.Title = "Trending Movies"
	} else {
		s.list.Title = "Trending TV Shows"
	}
	s.list.SetItems(contentItems(contents))
	s.list.ResetSelected()
}

func (s *homeScreen) view(sp spinner.Model) string {
	if s.loading {
		return fmt.Sprintf("%s Loading trending titles...", sp.View())
	}
	if s.err != nil {
		return styles.err.Render(fmt.Sprintf("Error: %v", s.err)) + "\n" + styles.help.Render("Press r to retry")
	}
	return s.list.View()
}
