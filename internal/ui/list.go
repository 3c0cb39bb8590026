package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"

	"github.com/desertthunder/cinex/internal/formatter"
	"github.com/desertthunder/cinex/internal/models"
	"github.com/desertthunder/cinex/internal/tasks"
)

var (
	_ list.Item = contentItem{}
	_ list.Item = watchlistItem{}
	_ list.Item = genreItem{}
)

// contentItem wraps [models.Content] to implement [list.Item].
type contentItem struct {
	content models.Content
}

func (i contentItem) FilterValue() string { return formatter.Title(&i.content) }
func (i contentItem) Title() string       { return formatter.Label(&i.content) }
func (i contentItem) Description() string {
	desc := i.content.Overview
	if len(desc) > 120 {
		desc = strings.TrimSpace(desc[:117]) + "..."
	}
	if i.content.VoteAverage > 0 {
		desc = fmt.Sprintf("★ %s • %s", formatter.Rating(i.content.VoteAverage), desc)
	}
	return desc
}

// watchlistItem wraps a [tasks.ResolveResult] to implement [list.Item].
type watchlistItem struct {
	result tasks.ResolveResult
}

func (i watchlistItem) FilterValue() string { return i.result.Label }
func (i watchlistItem) Title() string {
	if i.result.Err != nil {
		return fmt.Sprintf("#%d", i.result.ID)
	}
	return i.result.Label
}
func (i watchlistItem) Description() string {
	if i.result.Err != nil {
		return "unavailable"
	}
	return fmt.Sprintf("%s • %s", i.result.Content.Kind, formatter.Subtitle(i.result.Content))
}

// genreItem wraps [models.Genre] with its selection state.
type genreItem struct {
	genre    models.Genre
	selected bool
}

func (i genreItem) FilterValue() string { return i.genre.Name }
func (i genreItem) Title() string {
	if i.selected {
		return "[x] " + i.genre.Name
	}
	return "[ ] " + i.genre.Name
}
func (i genreItem) Description() string { return "" }

func contentItems(contents []models.Content) []list.Item {
	items := make([]list.Item, len(contents))
	for i, c := range contents {
		items[i] = contentItem{content: c}
	}
	return items
}

func newList(items []list.Item, title string, width, height int) list.Model {
	l := list.New(items, list.NewDefaultDelegate(), width, height)
	l.Title = title
	l.SetShowHelp(false)
	return l
}
