package session

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/desertthunder/sesh/internal/models"
	"github.com/desertthunder/sesh/internal/shared"
	tu "github.com/desertthunder/sesh/internal/testing"
)

var epoch = time.UnixMilli(1_700_000_000_000)

// fakeBackend is a scriptable [Backend].
type fakeBackend struct {
	loginResult *models.AuthResult
	loginErr    error

	refreshFn func(ctx context.Context) (*models.RefreshResult, error)
	gate      chan struct{}
	entered   chan struct{}
	enterOnce sync.Once

	logoutErr error

	doFn func(n int, req *http.Request) (*http.Response, error)

	mu     sync.Mutex
	events []string
	bodies []string

	refreshCalls atomic.Int32
	logoutCalls  atomic.Int32
	doCalls      atomic.Int32
}

func (f *fakeBackend) log(event string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
}

func (f *fakeBackend) Events() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.events...)
}

func (f *fakeBackend) Login(ctx context.Context, creds models.Credentials) (*models.AuthResult, error) {
	f.log("login")
	return f.loginResult, f.loginErr
}

func (f *fakeBackend) Register(ctx context.Context, creds models.Credentials) (*models.AuthResult, error) {
	f.log("register")
	return f.loginResult, f.loginErr
}

func (f *fakeBackend) Refresh(ctx context.Context) (*models.RefreshResult, error) {
	f.refreshCalls.Add(1)
	f.log("refresh")
	if f.entered != nil {
		f.enterOnce.Do(func() { close(f.entered) })
	}
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.refreshFn != nil {
		return f.refreshFn(ctx)
	}
	return &models.RefreshResult{StatusCode: http.StatusOK, AccessExpiresIn: 3600}, nil
}

func (f *fakeBackend) Logout(ctx context.Context) error {
	f.logoutCalls.Add(1)
	f.log("logout")
	return f.logoutErr
}

func (f *fakeBackend) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	n := int(f.doCalls.Add(1))
	f.log("do")
	if req.Body != nil {
		data, _ := io.ReadAll(req.Body)
		f.mu.Lock()
		f.bodies = append(f.bodies, string(data))
		f.mu.Unlock()
	}
	if f.doFn != nil {
		return f.doFn(n, req)
	}
	return jsonResponse(http.StatusOK, `{"data":"ok"}`), nil
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": {"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

// recorder captures notices and redirects; AfterFunc runs immediately.
type recorder struct {
	mu        sync.Mutex
	notices   []Notice
	redirects []string
	delays    []time.Duration
}

func (r *recorder) Notify(n Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, n)
}

func (r *recorder) Redirect(target string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.redirects = append(r.redirects, target)
	return nil
}

func (r *recorder) afterFunc(d time.Duration, f func()) {
	r.mu.Lock()
	r.delays = append(r.delays, d)
	r.mu.Unlock()
	f()
}

func (r *recorder) counts() (notices, redirects int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.notices), len(r.redirects)
}

type harness struct {
	c     *Controller
	api   *fakeBackend
	clock *tu.Clock
	rec   *recorder
	store *MemoryStore
}

func newHarness(t *testing.T, api *fakeBackend, configure ...func(*Options)) *harness {
	t.Helper()

	clock := tu.NewClock(epoch)
	rec := &recorder{}
	store := NewMemoryStore()
	opts := Options{
		Backend:    api,
		Store:      store,
		Notifier:   rec,
		Redirector: rec,
		Logger:     shared.NewLogger(io.Discard),
		LoginURL:   "http://app.test/login",
		Now:        clock.Now,
		AfterFunc:  rec.afterFunc,
	}
	for _, fn := range configure {
		fn(&opts)
	}

	c, err := New(opts)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(c.Wait)

	return &harness{c: c, api: api, clock: clock, rec: rec, store: store}
}

// seed records expiries relative to the fake clock and marks the session logged in.
func (h *harness) seed(access, refresh time.Duration) {
	ctx := context.Background()
	now := h.clock.Now()
	h.c.setExpiry(ctx, models.ExpiryRecord{Kind: models.Access, ExpiresAt: now.Add(access)})
	h.c.setExpiry(ctx, models.ExpiryRecord{Kind: models.Refresh, ExpiresAt: now.Add(refresh)})
	h.c.loggedIn.Store(true)
}
