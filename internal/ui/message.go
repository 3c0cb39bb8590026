package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/cinex/internal/models"
	"github.com/desertthunder/cinex/internal/session"
	"github.com/desertthunder/cinex/internal/tasks"
	"github.com/desertthunder/cinex/internal/views"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgNavigate MsgKind = iota
	MsgSessionChanged
	MsgNotify
	MsgToastExpired
	MsgHomeLoaded
	MsgContentLoaded
	MsgGenresLoaded
	MsgProgressUpdate
	MsgWatchlistResolved
	MsgActionDone
)

type navigation struct {
	route models.Route
	hard  bool
}

type homeResult struct {
	rows *tasks.HomeRows
	err  error
}

type contentResult struct {
	gen     uint64
	content *models.Content
	err     error
}

type genresResult struct {
	genres []models.Genre
	err    error
}

type progressEvent struct {
	source <-chan tasks.ProgressUpdate
	update tasks.ProgressUpdate
}

type watchlistResult struct {
	run     int
	results []tasks.ResolveResult
	err     error
}

type actionResult struct {
	action string
	err    error
}

// navigateMsg is the constructor for [MsgNavigate]. A hard navigation resets every screen.
func navigateMsg(route models.Route, hard bool) Msg {
	return Msg{kind: MsgNavigate, data: navigation{route: route, hard: hard}}
}

// sessionChangedMsg is the constructor for [MsgSessionChanged]
func sessionChangedMsg(state session.State) Msg {
	return Msg{kind: MsgSessionChanged, data: state}
}

// notifyMsg is the constructor for [MsgNotify]
func notifyMsg(n views.Notification) Msg {
	return Msg{kind: MsgNotify, data: n}
}

// toastExpiredMsg is the constructor for [MsgToastExpired]
func toastExpiredMsg(id int) Msg {
	return Msg{kind: MsgToastExpired, data: id}
}

// homeLoadedMsg is the constructor for [MsgHomeLoaded]
func homeLoadedMsg(rows *tasks.HomeRows, err error) Msg {
	return Msg{kind: MsgHomeLoaded, data: homeResult{rows, err}}
}

// contentLoadedMsg is the constructor for [MsgContentLoaded]
func contentLoadedMsg(gen uint64, content *models.Content, err error) Msg {
	return Msg{kind: MsgContentLoaded, data: contentResult{gen, content, err}}
}

// genresLoadedMsg is the constructor for [MsgGenresLoaded]
func genresLoadedMsg(genres []models.Genre, err error) Msg {
	return Msg{kind: MsgGenresLoaded, data: genresResult{genres, err}}
}

// progressUpdateMsg is the constructor for [MsgProgressUpdate]. source is the channel it came from.
func progressUpdateMsg(source <-chan tasks.ProgressUpdate, update tasks.ProgressUpdate) Msg {
	return Msg{kind: MsgProgressUpdate, data: progressEvent{source, update}}
}

// watchlistResolvedMsg is the constructor for [MsgWatchlistResolved]
func watchlistResolvedMsg(run int, results []tasks.ResolveResult, err error) Msg {
	return Msg{kind: MsgWatchlistResolved, data: watchlistResult{run, results, err}}
}

// actionDoneMsg is the constructor for [MsgActionDone]
func actionDoneMsg(action string, err error) Msg {
	return Msg{kind: MsgActionDone, data: actionResult{action, err}}
}
