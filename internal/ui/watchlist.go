package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"

	"github.com/desertthunder/cinex/internal/tasks"
)

// watchlistScreen lists the resolved watchlist. Each resolve is a numbered run so that
// results of an abandoned run are ignored.
type watchlistScreen struct {
	run          int
	loading      bool
	loaded       bool
	progressChan chan tasks.ProgressUpdate
	progress     tasks.ProgressUpdate
	list         list.Model
	err          error
}

func newWatchlistScreen(width, height int) *watchlistScreen {
	return &watchlistScreen{list: newList(nil, "My Watchlist", max(width-4, 0), height)}
}

func (s *watchlistScreen) start(ch chan tasks.ProgressUpdate) int {
	s.run++
	s.loading = true
	s.err = nil
	s.progressChan = ch
	s.progress = tasks.ProgressUpdate{}
	return s.run
}

func (s *watchlistScreen) setResults(results []tasks.ResolveResult, err error) {
	s.loading = false
	s.loaded = true
	s.progressChan = nil
	s.err = err

	items := make([]list.Item, len(results))
	for i, res := range results {
		items[i] = watchlistItem{result: res}
	}
	s.list.SetItems(items)
	s.list.Title = fmt.Sprintf("My Watchlist (%d)", len(results))
}

func (s *watchlistScreen) view(sp spinner.Model) string {
	if s.loading {
		line := fmt.Sprintf("%s Loading watchlist...", sp.View())
		if s.progress.Total > 0 {
			line += "\n" + styles.help.Render(s.progress.Message)
		}
		return line
	}
	if s.err != nil {
		return styles.err.Render(fmt.Sprintf("Error: %v", s.err))
	}
	if !s.loaded {
		return styles.help.Render("Loading your profile...")
	}
	if len(s.list.Items()) == 0 {
		return styles.subtitle.Render("Your watchlist is empty. Press w on any title to add it.")
	}
	return s.list.View()
}
