package ui

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/sesh/internal/models"
	"github.com/desertthunder/sesh/internal/session"
)

var now = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

type fakeSession struct {
	loggedIn   bool
	authResult *models.AuthResult
	authErr    error
	refreshErr error
	resp       *http.Response
	expiries   map[models.Kind]time.Time

	lastCreds models.Credentials
	registers int
	logouts   int
}

func (f *fakeSession) Login(_ context.Context, creds models.Credentials) (*models.AuthResult, error) {
	f.lastCreds = creds
	return f.authResult, f.authErr
}

func (f *fakeSession) Register(_ context.Context, creds models.Credentials) (*models.AuthResult, error) {
	f.registers++
	f.lastCreds = creds
	return f.authResult, f.authErr
}

func (f *fakeSession) Refresh(context.Context) error { return f.refreshErr }

func (f *fakeSession) Do(context.Context, *http.Request) (*http.Response, error) { return f.resp, nil }

func (f *fakeSession) Logout(context.Context) { f.logouts++ }

func (f *fakeSession) Expiry(kind models.Kind) (models.ExpiryRecord, bool) {
	at, ok := f.expiries[kind]
	return models.ExpiryRecord{Kind: kind, ExpiresAt: at}, ok
}

func (f *fakeSession) IsExpired(kind models.Kind) bool {
	rec, ok := f.Expiry(kind)
	return !ok || rec.Expired(now)
}

func (f *fakeSession) IsAuthenticated() bool {
	return !f.IsExpired(models.Access) || !f.IsExpired(models.Refresh)
}

func (f *fakeSession) LoggedIn() bool     { return f.loggedIn }
func (f *fakeSession) IsRefreshing() bool { return false }
func (f *fakeSession) Pending() int       { return 0 }

func newTestModel(sess *fakeSession) *Model {
	return NewModel(context.Background(), Options{Session: sess, Now: func() time.Time { return now }})
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "ctrl+r":
		return tea.KeyMsg{Type: tea.KeyCtrlR}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func typeText(m *Model, s string) {
	for _, r := range s {
		m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

// run executes cmd and feeds its message back into the model.
func run(t *testing.T, m *Model, cmd tea.Cmd) {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command")
	}
	m.Update(cmd())
}

func TestNewModel(t *testing.T) {
	if got := newTestModel(&fakeSession{}).State(); got != LoginView {
		t.Errorf("expected LoginView, got %v", got)
	}
	if got := newTestModel(&fakeSession{loggedIn: true}).State(); got != DashboardView {
		t.Errorf("expected DashboardView for a live session, got %v", got)
	}
}

func TestLoginFlow(t *testing.T) {
	t.Run("login success", func(t *testing.T) {
		sess := &fakeSession{authResult: &models.AuthResult{StatusCode: 200, AccessExpiresIn: 60, RefreshExpiresIn: 120}}
		m := newTestModel(sess)

		typeText(m, "ada")
		m.Update(keyMsg("tab"))
		typeText(m, "secret")

		_, cmd := m.Update(keyMsg("enter"))
		run(t, m, cmd)

		if m.State() != DashboardView {
			t.Errorf("expected DashboardView, got %v", m.State())
		}
		if sess.lastCreds["login"] != "ada" || sess.lastCreds["password"] != "secret" {
			t.Errorf("unexpected credentials %v", sess.lastCreds)
		}
		if m.inputs[fieldPassword].Value() != "" {
			t.Error("expected password to be cleared")
		}
	})

	t.Run("rejection stays on login", func(t *testing.T) {
		sess := &fakeSession{authResult: &models.AuthResult{StatusCode: 401, Error: "Invalid login or password"}}
		m := newTestModel(sess)

		typeText(m, "ada")
		m.Update(keyMsg("tab"))
		typeText(m, "nope")
		_, cmd := m.Update(keyMsg("enter"))
		run(t, m, cmd)

		if m.State() != LoginView {
			t.Errorf("expected LoginView, got %v", m.State())
		}
		if !strings.Contains(m.View(), "Invalid login or password") {
			t.Errorf("expected server error in view:\n%s", m.View())
		}
	})

	t.Run("transport error", func(t *testing.T) {
		sess := &fakeSession{authErr: errors.New("connection refused")}
		m := newTestModel(sess)

		typeText(m, "ada")
		m.Update(keyMsg("tab"))
		typeText(m, "pw")
		_, cmd := m.Update(keyMsg("enter"))
		run(t, m, cmd)

		if !strings.Contains(m.View(), "connection refused") {
			t.Errorf("expected error in view:\n%s", m.View())
		}
	})

	t.Run("empty fields", func(t *testing.T) {
		m := newTestModel(&fakeSession{})
		if _, cmd := m.Update(keyMsg("enter")); cmd != nil {
			t.Error("expected no command without credentials")
		}
		if !strings.Contains(m.View(), "required") {
			t.Errorf("expected validation message:\n%s", m.View())
		}
	})

	t.Run("register mode", func(t *testing.T) {
		sess := &fakeSession{authResult: &models.AuthResult{StatusCode: 200}}
		m := newTestModel(sess)

		m.Update(keyMsg("ctrl+r"))
		if !strings.Contains(m.View(), "Create an account") {
			t.Fatalf("expected register view:\n%s", m.View())
		}

		typeText(m, "ada")
		m.Update(keyMsg("tab"))
		typeText(m, "ada@example.com")
		m.Update(keyMsg("tab"))
		typeText(m, "pw")
		_, cmd := m.Update(keyMsg("enter"))
		run(t, m, cmd)

		if sess.registers != 1 {
			t.Fatalf("expected a registration, got %d", sess.registers)
		}
		want := models.Credentials{"login": "ada", "username": "ada", "email": "ada@example.com", "password": "pw"}
		for k, v := range want {
			if sess.lastCreds[k] != v {
				t.Errorf("creds[%s] = %q, want %q", k, sess.lastCreds[k], v)
			}
		}
	})
}

func TestDashboard(t *testing.T) {
	newDashboard := func(sess *fakeSession) *Model {
		sess.loggedIn = true
		return newTestModel(sess)
	}

	t.Run("renders expiries", func(t *testing.T) {
		m := newDashboard(&fakeSession{expiries: map[models.Kind]time.Time{
			models.Access:  now.Add(14*time.Minute + 5*time.Second),
			models.Refresh: now.Add(-time.Second),
		}})

		view := m.View()
		if !strings.Contains(view, "14m05s left") {
			t.Errorf("expected access countdown:\n%s", view)
		}
		if !strings.Contains(view, "expired at") {
			t.Errorf("expected refresh to read as expired:\n%s", view)
		}
	})

	t.Run("protected request", func(t *testing.T) {
		sess := &fakeSession{resp: &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(strings.NewReader(`{"data":"secret"}`)),
		}}
		m := newDashboard(sess)

		_, cmd := m.Update(keyMsg("g"))
		run(t, m, cmd)

		if !strings.Contains(m.View(), `{"data":"secret"}`) {
			t.Errorf("expected response body:\n%s", m.View())
		}
	})

	t.Run("refresh failure is shown", func(t *testing.T) {
		m := newDashboard(&fakeSession{refreshErr: errors.New("refresh failed: status 502")})

		_, cmd := m.Update(keyMsg("r"))
		run(t, m, cmd)

		if !strings.Contains(m.View(), "status 502") {
			t.Errorf("expected refresh error:\n%s", m.View())
		}
	})

	t.Run("logout returns to login", func(t *testing.T) {
		sess := &fakeSession{}
		m := newDashboard(sess)

		_, cmd := m.Update(keyMsg("o"))
		run(t, m, cmd)

		if sess.logouts != 1 || m.State() != LoginView {
			t.Errorf("expected logout and LoginView, got %d / %v", sess.logouts, m.State())
		}
	})

	t.Run("events view", func(t *testing.T) {
		sess := &fakeSession{loggedIn: true}
		m := NewModel(context.Background(), Options{
			Session: sess,
			Events: func(context.Context, int) ([]models.SessionEvent, error) {
				return []models.SessionEvent{{ID: "1", Kind: models.EventRefresh, CreatedAt: now}}, nil
			},
		})
		m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})

		_, cmd := m.Update(keyMsg("e"))
		if m.State() != EventsView {
			t.Fatalf("expected EventsView, got %v", m.State())
		}
		run(t, m, cmd)

		if len(m.evList.Items()) != 1 {
			t.Errorf("expected 1 event item, got %d", len(m.evList.Items()))
		}

		m.Update(keyMsg("esc"))
		if m.State() != DashboardView {
			t.Errorf("expected DashboardView after esc, got %v", m.State())
		}
	})
}

func TestBridge(t *testing.T) {
	t.Run("notice then redirect", func(t *testing.T) {
		bridge := NewBridge()
		m := NewModel(context.Background(), Options{Session: &fakeSession{loggedIn: true}, Bridge: bridge})

		bridge.Notify(session.Notice{Level: session.NoticeError, Reason: session.ReasonSessionExpired, Message: "Session expired. Please sign in again."})
		m.Update(bridge.wait()())
		if !strings.Contains(m.View(), "Session expired") {
			t.Errorf("expected notice on dashboard:\n%s", m.View())
		}

		bridge.Redirect("/login?reason=session_expired")
		m.Update(bridge.wait()())
		if m.State() != LoginView {
			t.Fatalf("expected LoginView after redirect, got %v", m.State())
		}
		if !strings.Contains(m.View(), "Your session expired") {
			t.Errorf("expected reason on login view:\n%s", m.View())
		}
	})

	t.Run("notice clears after its timer", func(t *testing.T) {
		m := newTestModel(&fakeSession{loggedIn: true})
		m.Update(noticeMsg(session.Notice{Message: "hello"}))
		m.Update(noticeMsg(session.Notice{Message: "again"}))

		m.Update(clearNoticeMsg(1))
		if m.notice == nil {
			t.Fatal("stale timer must not clear the newer notice")
		}
		m.Update(clearNoticeMsg(2))
		if m.notice != nil {
			t.Error("expected notice to clear")
		}
	})

	t.Run("full buffer drops", func(t *testing.T) {
		bridge := NewBridge()
		for range bridgeBuffer + 5 {
			bridge.Notify(session.Notice{})
		}
		if got := len(bridge.ch); got != bridgeBuffer {
			t.Errorf("expected %d buffered, got %d", bridgeBuffer, got)
		}
	})
}

func TestCountdown(t *testing.T) {
	tt := []struct {
		d    time.Duration
		want string
	}{
		{d: 5 * time.Second, want: "0m05s"},
		{d: 14*time.Minute + 5*time.Second + 300*time.Millisecond, want: "14m05s"},
		{d: 2*time.Hour + 3*time.Minute, want: "2h03m"},
		{d: 30*24*time.Hour + 5*time.Hour, want: "30d5h"},
	}

	for _, tc := range tt {
		if got := countdown(tc.d); got != tc.want {
			t.Errorf("countdown(%v) = %s, want %s", tc.d, got, tc.want)
		}
	}
}
