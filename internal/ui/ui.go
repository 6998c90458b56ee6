package ui

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/sesh/internal/models"
	"github.com/desertthunder/sesh/internal/session"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	LoginView ViewState = iota
	DashboardView
	EventsView
)

const (
	noticeTTL    = 5 * time.Second
	maxBodyShown = 512
)

// input field indexes
const (
	fieldLogin = iota
	fieldEmail
	fieldPassword
)

// Session is the part of [session.Controller] the TUI drives.
type Session interface {
	Login(ctx context.Context, creds models.Credentials) (*models.AuthResult, error)
	Register(ctx context.Context, creds models.Credentials) (*models.AuthResult, error)
	Refresh(ctx context.Context) error
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
	Logout(ctx context.Context)
	Expiry(kind models.Kind) (models.ExpiryRecord, bool)
	IsExpired(kind models.Kind) bool
	IsAuthenticated() bool
	LoggedIn() bool
	IsRefreshing() bool
	Pending() int
}

// EventSource lists recent session events for the events view.
type EventSource func(ctx context.Context, limit int) ([]models.SessionEvent, error)

// Options configures a [Model].
type Options struct {
	Session       Session
	Bridge        *Bridge
	Events        EventSource
	ProtectedPath string
	Now           func() time.Time
}

// Model represents the TUI application state.
type Model struct {
	ctx     context.Context
	view    ViewState
	sess    Session
	bridge  *Bridge
	events  EventSource
	path    string
	now     func() time.Time
	width   int
	height  int
	inputs  []textinput.Model
	focus   int
	signup  bool
	busy    bool
	reason  string
	err     error
	notice  *session.Notice
	seq     int
	status  int
	body    string
	evList  list.Model
	help    help.Model
	keys    keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, opts Options) *Model {
	if opts.Bridge == nil {
		opts.Bridge = NewBridge()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.ProtectedPath == "" {
		opts.ProtectedPath = "/api/protected-data"
	}

	m := &Model{
		ctx:    ctx,
		view:   LoginView,
		sess:   opts.Session,
		bridge: opts.Bridge,
		events: opts.Events,
		path:   opts.ProtectedPath,
		now:    opts.Now,
		inputs: newInputs(),
		evList: list.New(nil, list.NewDefaultDelegate(), 0, 0),
		help:   help.New(),
		keys:   newKeyMap(),
	}
	m.evList.Title = "Session Events"
	if opts.Session != nil && opts.Session.LoggedIn() {
		m.view = DashboardView
	}
	m.focusInput(fieldLogin)
	return m
}

func newInputs() []textinput.Model {
	login := textinput.New()
	login.Placeholder = "login, username, email or phone"
	login.Prompt = "Login    › "

	email := textinput.New()
	email.Placeholder = "you@example.com"
	email.Prompt = "Email    › "

	password := textinput.New()
	password.Placeholder = "password"
	password.Prompt = "Password › "
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'

	return []textinput.Model{login, email, password}
}

// View returns the current view state.
func (m *Model) View() string {
	switch m.view {
	case LoginView:
		return m.renderLogin()
	case DashboardView:
		return m.renderDashboard()
	case EventsView:
		return m.renderEvents()
	default:
		return ""
	}
}

// State returns the current view.
func (m *Model) State() ViewState {
	return m.view
}

// Init starts the countdown ticker and the bridge listener.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.tick(), m.bridge.wait())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.evList.SetSize(msg.Width-4, msg.Height-6)
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case LoginView:
			return m.handleLoginKeys(msg)
		case DashboardView:
			return m.handleDashboardKeys(msg)
		case EventsView:
			return m.handleEventsKeys(msg)
		}

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateInputs(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgTick:
		return m, m.tick()

	case MsgAuthDone:
		data := msg.data.(authResult)
		m.busy = false
		switch {
		case data.err != nil:
			m.err = data.err
		case !data.result.OK():
			m.err = nil
			m.reason = data.result.Error
		default:
			m.err = nil
			m.reason = ""
			m.inputs[fieldPassword].SetValue("")
			m.view = DashboardView
		}
		return m, nil

	case MsgRefreshDone:
		m.busy = false
		m.err, _ = msg.data.(error)
		return m, nil

	case MsgRequestDone:
		data := msg.data.(requestResult)
		m.busy = false
		m.err = data.err
		if data.err == nil && data.status != 0 {
			m.status, m.body = data.status, data.body
		}
		return m, nil

	case MsgLoggedOut:
		m.toLogin("")
		return m, nil

	case MsgNotice:
		n := msg.data.(session.Notice)
		m.notice = &n
		m.seq++
		seq := m.seq
		expire := tea.Tick(noticeTTL, func(time.Time) tea.Msg { return clearNoticeMsg(seq) })
		return m, tea.Batch(m.bridge.wait(), expire)

	case MsgClearNotice:
		if msg.data.(int) == m.seq {
			m.notice = nil
		}
		return m, nil

	case MsgRedirect:
		m.toLogin(reasonFrom(msg.data.(string)))
		return m, m.bridge.wait()

	case MsgEventsFetched:
		data := msg.data.(eventsResult)
		if data.err != nil {
			m.err = data.err
			return m, nil
		}
		items := make([]list.Item, len(data.events))
		for i, ev := range data.events {
			items[i] = eventItem{event: ev}
		}
		return m, m.evList.SetItems(items)
	}
	return m, nil
}

func (m *Model) handleLoginKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.Type == tea.KeyCtrlC:
		return m, tea.Quit
	case key.Matches(msg, m.keys.register):
		m.signup = !m.signup
		m.focusInput(fieldLogin)
		return m, nil
	case key.Matches(msg, m.keys.next):
		m.focusInput(m.nextField(msg.String() == "shift+tab" || msg.String() == "up"))
		return m, nil
	case key.Matches(msg, m.keys.submit):
		if m.busy {
			return m, nil
		}
		return m, m.submit()
	}
	return m.updateInputs(msg)
}

func (m *Model) handleDashboardKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.refresh):
		m.busy = true
		return m, m.refresh()
	case key.Matches(msg, m.keys.request):
		m.busy = true
		return m, m.request()
	case key.Matches(msg, m.keys.logout):
		return m, m.logout()
	case key.Matches(msg, m.keys.events):
		if m.events == nil {
			return m, nil
		}
		m.view = EventsView
		return m, m.fetchEvents()
	}
	return m, nil
}

func (m *Model) handleEventsKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.Type == tea.KeyCtrlC:
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.view = DashboardView
		return m, nil
	}

	var cmd tea.Cmd
	m.evList, cmd = m.evList.Update(msg)
	return m, cmd
}

func (m *Model) updateInputs(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.view != LoginView {
		return m, nil
	}
	cmds := make([]tea.Cmd, len(m.inputs))
	for i := range m.inputs {
		m.inputs[i], cmds[i] = m.inputs[i].Update(msg)
	}
	return m, tea.Batch(cmds...)
}

// fields lists the inputs shown in the current mode.
func (m *Model) fields() []int {
	if m.signup {
		return []int{fieldLogin, fieldEmail, fieldPassword}
	}
	return []int{fieldLogin, fieldPassword}
}

func (m *Model) nextField(backwards bool) int {
	fields := m.fields()
	pos := 0
	for i, f := range fields {
		if f == m.focus {
			pos = i
		}
	}
	if backwards {
		pos = (pos - 1 + len(fields)) % len(fields)
	} else {
		pos = (pos + 1) % len(fields)
	}
	return fields[pos]
}

func (m *Model) focusInput(field int) {
	m.focus = field
	for i := range m.inputs {
		if i == field {
			m.inputs[i].Focus()
		} else {
			m.inputs[i].Blur()
		}
	}
}

func (m *Model) toLogin(reason string) {
	m.view = LoginView
	m.reason = reason
	m.busy = false
	m.status, m.body = 0, ""
	m.inputs[fieldPassword].SetValue("")
	m.focusInput(fieldLogin)
}

func (m *Model) submit() tea.Cmd {
	login := strings.TrimSpace(m.inputs[fieldLogin].Value())
	password := m.inputs[fieldPassword].Value()
	if login == "" || password == "" {
		m.reason = "login and password are required"
		return nil
	}

	m.busy = true
	register := m.signup
	creds := models.Credentials{"login": login, "password": password}
	if register {
		creds["username"] = login
		creds["email"] = strings.TrimSpace(m.inputs[fieldEmail].Value())
	}

	return func() tea.Msg {
		if register {
			res, err := m.sess.Register(m.ctx, creds)
			return authDoneMsg(true, res, err)
		}
		res, err := m.sess.Login(m.ctx, creds)
		return authDoneMsg(false, res, err)
	}
}

func (m *Model) refresh() tea.Cmd {
	return func() tea.Msg {
		return refreshDoneMsg(m.sess.Refresh(m.ctx))
	}
}

func (m *Model) request() tea.Cmd {
	return func() tea.Msg {
		req, err := http.NewRequestWithContext(m.ctx, http.MethodGet, m.path, nil)
		if err != nil {
			return requestDoneMsg(0, "", err)
		}
		resp, err := m.sess.Do(m.ctx, req)
		if err != nil || resp == nil {
			return requestDoneMsg(0, "", err)
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyShown))
		return requestDoneMsg(resp.StatusCode, strings.TrimSpace(string(data)), err)
	}
}

func (m *Model) logout() tea.Cmd {
	return func() tea.Msg {
		m.sess.Logout(m.ctx)
		return loggedOutMsg()
	}
}

func (m *Model) fetchEvents() tea.Cmd {
	return func() tea.Msg {
		events, err := m.events(m.ctx, 50)
		return eventsFetchedMsg(events, err)
	}
}

func (m *Model) tick() tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg { return tickMsg() })
}

// reasonFrom extracts the reason query parameter from a login redirect target.
func reasonFrom(target string) string {
	u, err := url.Parse(target)
	if err != nil {
		return ""
	}
	return u.Query().Get("reason")
}
