package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/desertthunder/cinematch/internal/auth"
	"github.com/desertthunder/cinematch/internal/discovery"
	"github.com/desertthunder/cinematch/internal/models"
	"github.com/desertthunder/cinematch/internal/shared"
)

// Mode is the current input mode of the TUI.
type Mode int

const (
	BrowseMode Mode = iota
	SearchMode
)

// Model represents the TUI application state.
type Model struct {
	ctx        context.Context
	controller *discovery.Controller
	identity   *auth.Identity
	logger     *log.Logger

	events      chan Msg
	unsubscribe func()

	mode    Mode
	width   int
	height  int
	input   textinput.Model
	results list.Model
	view    discovery.View
	notice  *discovery.Notice
	busy    string
	help    help.Model
	keys    keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
//
// The controller should have been built with [Model.Notifier] so blocking notices reach the view.
func NewModel(ctx context.Context, identity *auth.Identity, logger *log.Logger) *Model {
	input := textinput.New()
	input.Placeholder = "Search for a movie"
	input.Prompt = "🔍 "
	input.CharLimit = 120

	results := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	results.Title = "Results"
	results.SetShowHelp(false)
	results.SetShowStatusBar(false)
	results.SetFilteringEnabled(false)

	return &Model{
		ctx:      ctx,
		identity: identity,
		logger:   shared.WithLogger(logger, "component", "tui"),
		events:   make(chan Msg, 32),
		mode:     BrowseMode,
		input:    input,
		results:  results,
		help:     help.New(),
		keys:     newKeyMap(),
	}
}

// Notifier forwards blocking notices from the controller into the event loop.
func (m *Model) Notifier() discovery.Notifier {
	return discovery.NotifierFunc(func(n discovery.Notice) { m.send(noticeMsg(n)) })
}

// SetController attaches the search controller. It must be called before [Model.Init].
func (m *Model) SetController(c *discovery.Controller) {
	m.controller = c
}

// Init mounts the identity and search components and starts listening for their events.
func (m *Model) Init() tea.Cmd {
	m.identity.Mount()
	m.controller.Mount(m.ctx, m.identity)
	m.unsubscribe = m.identity.Subscribe(func(s *models.Session) { m.send(sessionChangedMsg(s)) })
	m.refresh()
	return m.waitForEvent()
}

// Close unmounts everything mounted by [Model.Init].
func (m *Model) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
		m.unsubscribe = nil
	}
	m.controller.Unmount()
	m.identity.Unmount()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = msg.Width - 8
		m.results.SetSize(msg.Width-4, msg.Height-10)
		return m, nil

	case tea.KeyMsg:
		if m.notice != nil {
			return m.handleNoticeKeys(msg)
		}
		switch m.mode {
		case SearchMode:
			return m.handleSearchKeys(msg)
		default:
			return m.handleBrowseKeys(msg)
		}

	case Msg:
		return m.handleMsg(msg)
	}

	if m.mode == SearchMode {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgSearchDone:
		m.busy = ""
		m.refresh()
		return m, nil

	case MsgToggleDone:
		m.refresh()
		return m, nil

	case MsgAuthDone:
		m.busy = ""
		m.refresh()
		return m, nil

	case MsgSessionChanged:
		m.refresh()
		return m, m.waitForEvent()

	case MsgNotice:
		n := msg.data.(discovery.Notice)
		m.notice = &n
		return m, m.waitForEvent()
	}
	return m, nil
}

// handleNoticeKeys swallows every key except dismiss while a notice is shown.
func (m *Model) handleNoticeKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.dismiss) {
		m.notice = nil
	}
	return m, nil
}

func (m *Model) handleSearchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.submit):
		query := strings.TrimSpace(m.input.Value())
		if query == "" {
			return m, nil
		}
		m.mode = BrowseMode
		m.input.Blur()
		m.busy = "Searching…"
		return m, m.search(query)
	case key.Matches(msg, m.keys.cancel):
		m.mode = BrowseMode
		m.input.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleBrowseKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.search):
		m.mode = SearchMode
		return m, m.input.Focus()
	case key.Matches(msg, m.keys.up):
		m.results.CursorUp()
	case key.Matches(msg, m.keys.down):
		m.results.CursorDown()
	case key.Matches(msg, m.keys.watched):
		if id, ok := m.selected(); ok {
			return m, m.toggle(models.Watched, id)
		}
	case key.Matches(msg, m.keys.liked):
		if id, ok := m.selected(); ok {
			return m, m.toggle(models.Liked, id)
		}
	case key.Matches(msg, m.keys.signIn):
		if m.view.Session == nil {
			m.busy = "Waiting for sign-in in your browser…"
			return m, m.login()
		}
	case key.Matches(msg, m.keys.signOut):
		if m.view.Session != nil {
			return m, m.logout()
		}
	}
	return m, nil
}

func (m *Model) selected() (int, bool) {
	item, ok := m.results.SelectedItem().(movieItem)
	if !ok {
		return 0, false
	}
	return item.row.Movie.ID, true
}

// refresh re-reads the controller snapshot and rebuilds the result list.
func (m *Model) refresh() {
	m.view = m.controller.Snapshot()
	idx := m.results.Index()
	m.results.SetItems(toItems(m.view.Rows))
	if idx < len(m.view.Rows) {
		m.results.Select(idx)
	}
}

func (m *Model) send(msg Msg) {
	select {
	case m.events <- msg:
	case <-m.ctx.Done():
	}
}

func (m *Model) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		select {
		case msg := <-m.events:
			return msg
		case <-m.ctx.Done():
			return nil
		}
	}
}

func (m *Model) search(query string) tea.Cmd {
	return func() tea.Msg {
		err := m.controller.Search(m.ctx, query)
		return searchDoneMsg(query, err)
	}
}

func (m *Model) toggle(l models.List, id int) tea.Cmd {
	return func() tea.Msg {
		err := m.controller.Toggle(m.ctx, l, id)
		return toggleDoneMsg(l, id, err)
	}
}

func (m *Model) login() tea.Cmd {
	return func() tea.Msg {
		return authDoneMsg(m.identity.Login(m.ctx))
	}
}

func (m *Model) logout() tea.Cmd {
	return func() tea.Msg {
		return authDoneMsg(m.identity.Logout(m.ctx))
	}
}

// View renders the screen, or only the notice while one is open.
func (m *Model) View() string {
	if m.notice != nil {
		return m.renderNotice()
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")

	if line := m.renderMessage(); line != "" {
		b.WriteString(line)
		b.WriteString("\n")
	}
	if len(m.view.Rows) > 0 {
		b.WriteString(m.results.View())
		b.WriteString("\n")
	}
	if m.busy != "" {
		b.WriteString(styles.help.Render(m.busy))
		b.WriteString("\n")
	}

	b.WriteString(m.help.ShortHelpView(m.helpKeys()))
	return b.String()
}

func (m *Model) renderHeader() string {
	title := styles.title.Render("CineMatch")
	if m.view.Session != nil {
		return fmt.Sprintf("%s\n%s", title, styles.ok.Render("Signed in as "+m.view.Session.Name()))
	}
	return fmt.Sprintf("%s\n%s", title, styles.help.Render("Press g to sign in with Google"))
}

func (m *Model) renderMessage() string {
	switch m.view.Message.Kind {
	case discovery.KindNoResults:
		return styles.warn.Render(m.view.Message.Message)
	case discovery.KindError:
		return styles.err.Render(m.view.Message.Message)
	default:
		return ""
	}
}

func (m *Model) renderNotice() string {
	body := fmt.Sprintf("%s\n\n%s", m.notice.Message, m.help.ShortHelpView([]key.Binding{m.keys.dismiss}))
	box := styles.modal.Render(body)
	if m.width == 0 || m.height == 0 {
		return box
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

func (m *Model) helpKeys() []key.Binding {
	if m.mode == SearchMode {
		return []key.Binding{m.keys.submit, m.keys.cancel}
	}

	keys := []key.Binding{m.keys.search, m.keys.up, m.keys.down}
	if m.view.Session != nil {
		keys = append(keys, m.keys.watched, m.keys.liked, m.keys.signOut)
	} else {
		keys = append(keys, m.keys.signIn)
	}
	return append(keys, m.keys.quit)
}
