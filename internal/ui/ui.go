package ui

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/desertthunder/cinex/internal/formatter"
	"github.com/desertthunder/cinex/internal/models"
	"github.com/desertthunder/cinex/internal/repositories"
	"github.com/desertthunder/cinex/internal/services"
	"github.com/desertthunder/cinex/internal/session"
	"github.com/desertthunder/cinex/internal/shared"
	"github.com/desertthunder/cinex/internal/tasks"
	"github.com/desertthunder/cinex/internal/views"
)

const toastTTL = 4 * time.Second

// Store is the part of [session.Store] the TUI uses.
type Store interface {
	views.Store
	Logout(ctx context.Context) error
}

var _ Store = (*session.Store)(nil)

// HistoryRecorder records titles opened in the player.
type HistoryRecorder interface {
	Record(ctx context.Context, userID string, content *models.Content, title string) (*repositories.HistoryEntry, error)
}

// Options are the TUI's dependencies.
type Options struct {
	Store    Store
	Metadata services.MetadataProvider
	Images   formatter.ImageURLs

	// Notifier receives view notifications. Usually the [Bridge].
	Notifier views.Notifier

	// PlayerBaseURL is the local player server.
	PlayerBaseURL string
	OpenURL       func(url string) error
	History       HistoryRecorder
	Logger        *log.Logger
}

type toast struct {
	id int
	n  views.Notification
}

// Model represents the TUI application state.
type Model struct {
	ctx    context.Context
	opts   Options
	logger *log.Logger

	route  models.Route
	back   models.Route
	state  session.State
	width  int
	height int

	detailView *views.Detail

	home       *homeScreen
	detail     *detailScreen
	auth       *authScreen
	onboarding *onboardingScreen
	watchlist  *watchlistScreen

	toasts    []toast
	nextToast int

	spinner spinner.Model
	help    help.Model
	keys    keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, opts Options) *Model {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Notifier == nil {
		opts.Notifier = views.NotifierFunc(func(views.Notification) {})
	}
	if opts.OpenURL == nil {
		opts.OpenURL = shared.OpenBrowser
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := &Model{
		ctx:     ctx,
		opts:    opts,
		logger:  shared.WithLogger(opts.Logger, "component", "tui"),
		route:   models.RouteHome,
		back:    models.RouteHome,
		state:   opts.Store.State(),
		spinner: sp,
		help:    help.New(),
		keys:    newKeyMap(),
	}
	m.detailView = views.NewDetail(views.DetailOptions{
		Metadata:      opts.Metadata,
		Store:         opts.Store,
		Notifier:      opts.Notifier,
		Logger:        opts.Logger,
		PlayerBaseURL: opts.PlayerBaseURL,
		Images:        opts.Images,
		OnPlay:        func() { m.detail.scrollToPlayer = true },
	})
	m.reset()
	return m
}

// reset replaces every screen with a fresh one.
func (m *Model) reset() {
	m.home = newHomeScreen(m.width, m.bodyHeight())
	m.detail = newDetailScreen(m.width, m.bodyHeight())
	m.auth = newAuthScreen(modeLogin)
	m.onboarding = newOnboardingScreen(m.opts.Store, m.opts.Notifier, m.opts.Logger, m.width, m.bodyHeight())
	m.watchlist = newWatchlistScreen(m.width, m.bodyHeight())
}

// Init starts the spinner and loads the home screen.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.enter(m.route))
}

// Route is the screen currently shown.
func (m *Model) Route() models.Route { return m.route }

// navigate shows route. A hard navigation resets every screen first.
func (m *Model) navigate(route models.Route, hard bool) tea.Cmd {
	if hard {
		m.reset()
		m.back = models.RouteHome
	} else if route != m.route {
		m.back = m.route
	}
	m.route = route
	return m.enter(route)
}

// enter starts whatever loading route needs.
func (m *Model) enter(route models.Route) tea.Cmd {
	if kind, id, ok := route.Detail(); ok {
		m.detail.reset(m.width, m.bodyHeight())
		gen := m.detailView.Begin(kind, id)
		return m.fetchContent(gen, kind, id)
	}

	switch route {
	case models.RouteHome:
		if !m.home.loaded && !m.home.loading {
			m.home.loading = true
			return m.fetchHome()
		}
	case models.RouteAuth:
		return m.auth.focusCurrent()
	case models.RouteOnboarding:
		if !m.onboarding.loaded && !m.onboarding.loading {
			m.onboarding.loading = true
			return m.fetchGenres()
		}
	case models.RouteWatchlist:
		return m.resolveWatchlist()
	}
	return nil
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.quit) {
			return m, tea.Quit
		}
		return m, m.handleKeys(msg)

	case Msg:
		return m, m.handleMsg(msg)
	}

	return m, m.updateScreen(msg)
}

func (m *Model) handleMsg(msg Msg) tea.Cmd {
	switch msg.kind {
	case MsgNavigate:
		nav := msg.data.(navigation)
		return m.navigate(nav.route, nav.hard)

	case MsgSessionChanged:
		m.state = msg.data.(session.State)
		m.detail.refresh(m.detailView, m.state)
		if m.route == models.RouteWatchlist && !m.watchlist.loaded && !m.watchlist.loading {
			return m.resolveWatchlist()
		}
		return nil

	case MsgNotify:
		return m.pushToast(msg.data.(views.Notification))

	case MsgToastExpired:
		id := msg.data.(int)
		m.toasts = slices.DeleteFunc(m.toasts, func(t toast) bool { return t.id == id })
		return nil

	case MsgHomeLoaded:
		res := msg.data.(homeResult)
		m.home.setRows(res.rows, res.err)
		if res.err != nil {
			m.logger.Error("failed to load home rows", "error", res.err)
		}
		return nil

	case MsgContentLoaded:
		res := msg.data.(contentResult)
		if m.detailView.Finish(res.gen, res.content, res.err) {
			m.detail.refresh(m.detailView, m.state)
		}
		return nil

	case MsgGenresLoaded:
		res := msg.data.(genresResult)
		m.onboarding.setGenres(res.genres, res.err)
		return nil

	case MsgProgressUpdate:
		ev := msg.data.(progressEvent)
		if m.watchlist.progressChan == nil || ev.source != m.watchlist.progressChan {
			return nil
		}
		m.watchlist.progress = ev.update
		return waitForProgress(ev.source)

	case MsgWatchlistResolved:
		res := msg.data.(watchlistResult)
		if res.run != m.watchlist.run {
			return nil
		}
		m.watchlist.setResults(res.results, res.err)
		return nil

	case MsgActionDone:
		return m.actionDone(msg.data.(actionResult))
	}
	return nil
}

func (m *Model) actionDone(res actionResult) tea.Cmd {
	switch res.action {
	case "login", "signup":
		m.auth.submitting = false
		if res.err != nil {
			m.auth.err = res.err.Error()
		}
	case "onboarding":
		m.onboarding.submitting = false
		if res.err != nil {
			m.onboarding.err = res.err.Error()
			return nil
		}
		return m.navigate(models.RouteHome, false)
	case "logout":
		if res.err != nil {
			return m.pushToast(views.Notification{Level: views.LevelError, Title: "Error", Message: "Failed to sign out"})
		}
	case "watch":
		if res.err != nil {
			m.logger.Warn("failed to open player", "error", res.err)
			return m.pushToast(views.Notification{Level: views.LevelError, Title: "Player", Message: "Open " + m.detailView.PlayerURL()})
		}
	case "remove":
		if res.err != nil {
			return m.pushToast(views.Notification{Level: views.LevelError, Title: "Error", Message: "Failed to update watchlist"})
		}
	}
	m.detail.refresh(m.detailView, m.state)
	return nil
}

func (m *Model) pushToast(n views.Notification) tea.Cmd {
	m.nextToast++
	id := m.nextToast
	m.toasts = append(m.toasts, toast{id: id, n: n})
	return tea.Tick(toastTTL, func(time.Time) tea.Msg { return toastExpiredMsg(id) })
}

func (m *Model) handleKeys(msg tea.KeyMsg) tea.Cmd {
	if _, _, ok := m.route.Detail(); ok {
		return m.handleDetailKeys(msg)
	}

	switch m.route {
	case models.RouteAuth:
		return m.handleAuthKeys(msg)
	case models.RouteOnboarding:
		return m.handleOnboardingKeys(msg)
	case models.RouteWatchlist:
		return m.handleWatchlistKeys(msg)
	default:
		return m.handleHomeKeys(msg)
	}
}

func (m *Model) handleHomeKeys(msg tea.KeyMsg) tea.Cmd {
	if m.home.list.FilterState() == list.Filtering {
		return m.updateScreen(msg)
	}

	switch {
	case key.Matches(msg, m.keys.exit):
		return tea.Quit
	case key.Matches(msg, m.keys.enter):
		if item, ok := m.home.list.SelectedItem().(contentItem); ok {
			return m.navigate(item.content.Route(), false)
		}
		return nil
	case key.Matches(msg, m.keys.tab):
		m.home.switchTab()
		return nil
	case key.Matches(msg, m.keys.reload):
		m.home.loaded = false
		m.home.loading = true
		return m.fetchHome()
	case key.Matches(msg, m.keys.watchlist):
		return m.navigate(models.RouteWatchlist, false)
	case key.Matches(msg, m.keys.account):
		if m.state.Session == nil {
			return m.navigate(models.RouteAuth, false)
		}
		return nil
	case key.Matches(msg, m.keys.logout):
		return m.logout()
	}
	return m.updateScreen(msg)
}

func (m *Model) handleDetailKeys(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.exit):
		return tea.Quit
	case key.Matches(msg, m.keys.back):
		return m.navigate(m.back, false)
	case key.Matches(msg, m.keys.watch):
		return m.watch()
	case key.Matches(msg, m.keys.toggle):
		view := m.detailView
		return func() tea.Msg {
			return actionDoneMsg("watchlist", view.ToggleWatchlist(m.ctx))
		}
	case key.Matches(msg, m.keys.account):
		if m.state.Session == nil {
			return m.navigate(models.RouteAuth, false)
		}
		return nil
	}
	return m.updateScreen(msg)
}

func (m *Model) handleAuthKeys(msg tea.KeyMsg) tea.Cmd {
	if m.auth.submitting {
		return nil
	}

	switch {
	case key.Matches(msg, m.keys.back):
		return m.navigate(models.RouteHome, false)
	case key.Matches(msg, m.keys.mode):
		m.auth.switchMode()
		return m.auth.focusCurrent()
	case key.Matches(msg, m.keys.tab), msg.Type == tea.KeyDown:
		return m.auth.move(1)
	case key.Matches(msg, m.keys.prev), msg.Type == tea.KeyUp:
		return m.auth.move(-1)
	case key.Matches(msg, m.keys.enter):
		if !m.auth.lastField() {
			return m.auth.move(1)
		}
		return m.submitAuth()
	}
	return m.updateScreen(msg)
}

func (m *Model) handleOnboardingKeys(msg tea.KeyMsg) tea.Cmd {
	if m.onboarding.submitting {
		return nil
	}

	switch {
	case key.Matches(msg, m.keys.exit):
		return tea.Quit
	case key.Matches(msg, m.keys.left):
		m.onboarding.cycleAvatar(-1)
		return nil
	case key.Matches(msg, m.keys.right):
		m.onboarding.cycleAvatar(1)
		return nil
	case key.Matches(msg, m.keys.pick):
		m.onboarding.toggleSelected()
		return nil
	case key.Matches(msg, m.keys.enter):
		if m.state.Session == nil {
			return m.navigate(models.RouteAuth, false)
		}
		m.onboarding.submitting = true
		m.onboarding.err = ""
		form := m.onboarding.form
		return func() tea.Msg {
			return actionDoneMsg("onboarding", form.Submit(m.ctx))
		}
	}
	return m.updateScreen(msg)
}

func (m *Model) handleWatchlistKeys(msg tea.KeyMsg) tea.Cmd {
	if m.watchlist.list.FilterState() == list.Filtering {
		return m.updateScreen(msg)
	}

	switch {
	case key.Matches(msg, m.keys.exit):
		return tea.Quit
	case key.Matches(msg, m.keys.back):
		return m.navigate(models.RouteHome, false)
	case key.Matches(msg, m.keys.account):
		if m.state.Session == nil {
			return m.navigate(models.RouteAuth, false)
		}
		return nil
	case key.Matches(msg, m.keys.reload):
		return m.resolveWatchlist()
	case key.Matches(msg, m.keys.enter):
		if item, ok := m.watchlist.list.SelectedItem().(watchlistItem); ok && item.result.Content != nil {
			return m.navigate(item.result.Content.Route(), false)
		}
		return nil
	case key.Matches(msg, m.keys.remove):
		item, ok := m.watchlist.list.SelectedItem().(watchlistItem)
		if !ok {
			return nil
		}
		m.watchlist.list.RemoveItem(m.watchlist.list.Index())
		store := m.opts.Store
		return func() tea.Msg {
			return actionDoneMsg("remove", store.RemoveFromWatchlist(m.ctx, item.result.ID))
		}
	}
	return m.updateScreen(msg)
}

// updateScreen forwards msg to the current screen's bubbles.
func (m *Model) updateScreen(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	if _, _, ok := m.route.Detail(); ok {
		m.detail.viewport, cmd = m.detail.viewport.Update(msg)
		return cmd
	}

	switch m.route {
	case models.RouteHome:
		m.home.list, cmd = m.home.list.Update(msg)
	case models.RouteAuth:
		cmd = m.auth.update(msg)
	case models.RouteOnboarding:
		m.onboarding.genres, cmd = m.onboarding.genres.Update(msg)
	case models.RouteWatchlist:
		m.watchlist.list, cmd = m.watchlist.list.Update(msg)
	}
	return cmd
}

func (m *Model) fetchHome() tea.Cmd {
	meta := m.opts.Metadata
	return func() tea.Msg {
		rows, err := tasks.LoadHome(m.ctx, meta)
		return homeLoadedMsg(rows, err)
	}
}

func (m *Model) fetchContent(gen uint64, kind models.Kind, id int) tea.Cmd {
	view := m.detailView
	return func() tea.Msg {
		content, err := view.Fetch(m.ctx, kind, id)
		return contentLoadedMsg(gen, content, err)
	}
}

func (m *Model) fetchGenres() tea.Cmd {
	meta := m.opts.Metadata
	return func() tea.Msg {
		genres, err := meta.Genres(m.ctx, models.KindMovie)
		return genresLoadedMsg(genres, err)
	}
}

// resolveWatchlist looks up every watchlist id, streaming progress to the screen.
func (m *Model) resolveWatchlist() tea.Cmd {
	if m.state.Identity == nil {
		return nil
	}

	ids := slices.Clone(m.state.Identity.Watchlist)
	ch := make(chan tasks.ProgressUpdate, 50)
	run := m.watchlist.start(ch)
	meta := m.opts.Metadata

	resolve := func() tea.Msg {
		results, err := tasks.ResolveWatchlist(m.ctx, meta, ids, tasks.DefaultResolveWorkers, ch)
		close(ch)
		return watchlistResolvedMsg(run, results, err)
	}
	return tea.Batch(resolve, waitForProgress(ch))
}

func waitForProgress(ch <-chan tasks.ProgressUpdate) tea.Cmd {
	return func() tea.Msg {
		update, ok := <-ch
		if !ok {
			return nil
		}
		return progressUpdateMsg(ch, update)
	}
}

func (m *Model) submitAuth() tea.Cmd {
	m.auth.err = ""
	values := m.auth.values()

	if m.auth.mode == modeSignup {
		form := views.NewSignupForm(m.opts.Store, m.opts.Logger)
		form.Email = values[0]
		form.Username = values[1]
		form.Password = values[2]
		form.ConfirmPassword = values[3]
		m.auth.submitting = true
		return func() tea.Msg {
			form.Submit(m.ctx)
			return actionDoneMsg("signup", nil)
		}
	}

	form := views.NewLoginForm(m.opts.Store, m.opts.Notifier, m.opts.Logger)
	form.Email = values[0]
	form.Password = values[1]
	m.auth.submitting = true
	return func() tea.Msg {
		return actionDoneMsg("login", form.Submit(m.ctx))
	}
}

// watch starts playback and opens the local player page in the browser.
func (m *Model) watch() tea.Cmd {
	if !m.detailView.Watch() {
		return nil
	}
	m.detail.refresh(m.detailView, m.state)

	url := m.detailView.PlayerURL()
	content := m.detailView.Snapshot().Content
	var userID string
	if m.state.Session != nil {
		userID = m.state.Session.User.ID
	}

	return func() tea.Msg {
		var err error
		if url != "" {
			err = m.opts.OpenURL(url)
		}
		if m.opts.History != nil && userID != "" && content != nil {
			if _, herr := m.opts.History.Record(m.ctx, userID, content, formatter.Title(content)); herr != nil {
				m.logger.Warn("failed to record watch history", "id", content.ID, "error", herr)
			}
		}
		return actionDoneMsg("watch", err)
	}
}

func (m *Model) logout() tea.Cmd {
	if m.state.Session == nil {
		return nil
	}
	store := m.opts.Store
	return func() tea.Msg {
		return actionDoneMsg("logout", store.Logout(m.ctx))
	}
}

func (m *Model) bodyHeight() int {
	return max(m.height-8, 0)
}

func (m *Model) resize() {
	w, h := max(m.width-4, 0), m.bodyHeight()
	m.home.list.SetSize(w, h)
	m.watchlist.list.SetSize(w, h)
	m.onboarding.genres.SetSize(w, max(h-4, 0))
	m.detail.viewport.Width = w
	m.detail.viewport.Height = h
	m.detail.refresh(m.detailView, m.state)
}

// View renders the header, the current screen, toasts and help.
func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderScreen())
	b.WriteString("\n")
	for _, t := range m.toasts {
		b.WriteString(renderToast(t.n))
		b.WriteString("\n")
	}
	b.WriteString(m.help.ShortHelpView(m.helpKeys()))
	return b.String()
}

func (m *Model) renderHeader() string {
	var status string
	switch m.state.Status {
	case session.StatusLoading:
		status = m.spinner.View() + " checking session"
	case session.StatusAuthenticated:
		status = styles.ok.Render("@" + m.state.Identity.Username)
	default:
		if m.state.Session != nil {
			status = styles.warn.Render(m.state.Session.User.Email)
		} else {
			status = styles.subtitle.Render("signed out")
		}
	}
	return styles.header.Render(fmt.Sprintf("cinex  %s", status))
}

func (m *Model) renderScreen() string {
	if _, _, ok := m.route.Detail(); ok {
		return m.detail.view(m.detailView, m.spinner)
	}

	switch m.route {
	case models.RouteAuth:
		return m.auth.view(m.spinner)
	case models.RouteOnboarding:
		if m.state.Session == nil {
			return styles.warn.Render("Sign in to set up your profile.")
		}
		return m.onboarding.view(m.spinner)
	case models.RouteWatchlist:
		if m.state.Session == nil {
			return styles.warn.Render("Sign in to see your watchlist. Press a to sign in.")
		}
		return m.watchlist.view(m.spinner)
	default:
		return m.home.view(m.spinner)
	}
}

func (m *Model) helpKeys() []key.Binding {
	if _, _, ok := m.route.Detail(); ok {
		return []key.Binding{m.keys.watch, m.keys.toggle, m.keys.back, m.keys.exit}
	}

	switch m.route {
	case models.RouteAuth:
		return []key.Binding{m.keys.tab, m.keys.enter, m.keys.mode, m.keys.back}
	case models.RouteOnboarding:
		return []key.Binding{m.keys.left, m.keys.right, m.keys.pick, m.keys.enter}
	case models.RouteWatchlist:
		return []key.Binding{m.keys.enter, m.keys.remove, m.keys.reload, m.keys.back}
	}

	keys := []key.Binding{m.keys.enter, m.keys.tab, m.keys.watchlist}
	if m.state.Session == nil {
		keys = append(keys, m.keys.account)
	} else {
		keys = append(keys, m.keys.logout)
	}
	return append(keys, m.keys.exit)
}

func renderToast(n views.Notification) string {
	color := lipgloss.Color("#626262")
	title := n.Title
	switch n.Level {
	case views.LevelSuccess:
		color = lipgloss.Color("#04B575")
		title = styles.ok.Render(n.Title)
	case views.LevelError:
		color = lipgloss.Color("#FF4D4F")
		title = styles.err.Render(n.Title)
	}

	body := title
	if n.Message != "" {
		body += "\n" + n.Message
	}
	return styles.toast.BorderForeground(color).Render(body)
}
