package session

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/sesh/internal/models"
	"github.com/desertthunder/sesh/internal/shared"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultRefreshTimeout  = 10 * time.Second
	DefaultMonitorInterval = time.Minute
	DefaultRedirectDelay   = 2 * time.Second
	DefaultLoginPage       = "/login"

	// ReasonSessionExpired is the reason code carried to the login page after the refresh credential lapses.
	ReasonSessionExpired = "session_expired"

	refreshKey = "refresh"
)

// Backend is the HTTP surface the controller drives.
type Backend interface {
	Login(ctx context.Context, creds models.Credentials) (*models.AuthResult, error)
	Register(ctx context.Context, creds models.Credentials) (*models.AuthResult, error)
	Refresh(ctx context.Context) (*models.RefreshResult, error)
	Logout(ctx context.Context) error
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// ExpiryStore persists expiry records keyed by credential kind.
type ExpiryStore interface {
	Load(ctx context.Context) ([]models.ExpiryRecord, error)
	Put(ctx context.Context, rec models.ExpiryRecord) error
	Clear(ctx context.Context) error
}

// EventRecorder receives session lifecycle transitions.
type EventRecorder interface {
	Record(ctx context.Context, kind models.EventKind, detail string) error
}

// Options configures a [Controller]. Only Backend is required.
type Options struct {
	Backend    Backend
	Store      ExpiryStore
	Events     EventRecorder
	Notifier   Notifier
	Redirector Redirector
	Metrics    *Metrics
	Logger     *log.Logger

	RefreshTimeout  time.Duration
	MonitorInterval time.Duration
	RedirectDelay   time.Duration

	// LoginURL is the re-authentication entry point; the teardown reason is added as ?reason=.
	LoginURL string

	Now       func() time.Time
	AfterFunc func(d time.Duration, f func())
}

// Controller holds one authenticated session against a [Backend].
//
// Expiry checks read an in-memory copy of the records; every change is written through to the [ExpiryStore].
// A Controller is safe for concurrent use.
type Controller struct {
	api        Backend
	store      ExpiryStore
	events     EventRecorder
	notifier   Notifier
	redirector Redirector
	metrics    *Metrics
	logger     *log.Logger

	refreshTimeout  time.Duration
	monitorInterval time.Duration
	redirectDelay   time.Duration
	loginURL        string

	now       func() time.Time
	afterFunc func(time.Duration, func())

	mu       sync.RWMutex
	expiries map[models.Kind]time.Time

	loggedIn   atomic.Bool
	refreshing atomic.Bool
	pending    atomic.Int32
	flights    singleflight.Group
	bg         sync.WaitGroup
}

// New constructs a [Controller], filling unset options with defaults.
func New(opts Options) (*Controller, error) {
	if opts.Backend == nil {
		return nil, fmt.Errorf("%w: session backend is required", shared.ErrInvalidConfig)
	}
	if opts.Store == nil {
		opts.Store = NewMemoryStore()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Notifier == nil {
		opts.Notifier = LogNotifier{Logger: opts.Logger}
	}
	if opts.Redirector == nil {
		opts.Redirector = LogRedirector{Logger: opts.Logger}
	}
	if opts.RefreshTimeout <= 0 {
		opts.RefreshTimeout = DefaultRefreshTimeout
	}
	if opts.MonitorInterval <= 0 {
		opts.MonitorInterval = DefaultMonitorInterval
	}
	if opts.RedirectDelay <= 0 {
		opts.RedirectDelay = DefaultRedirectDelay
	}
	if opts.LoginURL == "" {
		opts.LoginURL = DefaultLoginPage
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.AfterFunc == nil {
		opts.AfterFunc = func(d time.Duration, f func()) { time.AfterFunc(d, f) }
	}

	return &Controller{
		api:             opts.Backend,
		store:           opts.Store,
		events:          opts.Events,
		notifier:        opts.Notifier,
		redirector:      opts.Redirector,
		metrics:         opts.Metrics,
		logger:          shared.WithLogger(opts.Logger, "component", "session"),
		refreshTimeout:  opts.RefreshTimeout,
		monitorInterval: opts.MonitorInterval,
		redirectDelay:   opts.RedirectDelay,
		loginURL:        opts.LoginURL,
		now:             opts.Now,
		afterFunc:       opts.AfterFunc,
		expiries:        make(map[models.Kind]time.Time, len(models.Kinds)),
	}, nil
}

// Restore loads persisted expiry records into memory. It does not mark the session as logged in.
func (c *Controller) Restore(ctx context.Context) error {
	records, err := c.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load expiry records: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, rec := range records {
		if rec.Kind.Valid() {
			c.expiries[rec.Kind] = rec.ExpiresAt
		}
	}
	return nil
}

// IsExpired reports whether the credential of the given kind is missing or lapsed.
// A credential expiring exactly now counts as expired.
func (c *Controller) IsExpired(kind models.Kind) bool {
	rec, ok := c.Expiry(kind)
	if !ok {
		return true
	}
	return rec.Expired(c.now())
}

// Expiry returns the recorded expiry for kind.
func (c *Controller) Expiry(kind models.Kind) (models.ExpiryRecord, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	at, ok := c.expiries[kind]
	return models.ExpiryRecord{Kind: kind, ExpiresAt: at}, ok
}

// IsAuthenticated reports whether either credential is unexpired.
//
// This is a local check only; a credential revoked server-side still reads as authenticated until the next request.
func (c *Controller) IsAuthenticated() bool {
	return !c.IsExpired(models.Access) || !c.IsExpired(models.Refresh)
}

// LoggedIn reports whether an explicit login or registration happened in this process.
func (c *Controller) LoggedIn() bool {
	return c.loggedIn.Load()
}

// IsRefreshing reports whether a refresh call is in flight.
func (c *Controller) IsRefreshing() bool {
	return c.refreshing.Load()
}

// Pending reports how many callers are attached to the in-flight refresh, the driver included.
func (c *Controller) Pending() int {
	return int(c.pending.Load())
}

// Wait blocks until background work started by the controller has finished.
func (c *Controller) Wait() {
	c.bg.Wait()
}

// LoginTarget returns the re-authentication URL for reason.
func (c *Controller) LoginTarget(reason string) string {
	u, err := url.Parse(c.loginURL)
	if err != nil {
		return c.loginURL + "?reason=" + url.QueryEscape(reason)
	}
	q := u.Query()
	q.Set("reason", reason)
	u.RawQuery = q.Encode()
	return u.String()
}

func (c *Controller) setExpiry(ctx context.Context, rec models.ExpiryRecord) {
	c.mu.Lock()
	c.expiries[rec.Kind] = rec.ExpiresAt
	c.mu.Unlock()

	if err := c.store.Put(ctx, rec); err != nil {
		c.logger.Warn("failed to persist expiry record", "kind", rec.Kind, "error", err)
	}
}

func (c *Controller) clearExpiries(ctx context.Context) {
	c.mu.Lock()
	clear(c.expiries)
	c.mu.Unlock()

	if err := c.store.Clear(ctx); err != nil {
		c.logger.Warn("failed to clear expiry records", "error", err)
	}
}

func (c *Controller) record(ctx context.Context, kind models.EventKind, detail string) {
	if c.events == nil {
		return
	}
	if err := c.events.Record(ctx, kind, detail); err != nil {
		c.logger.Debug("failed to record session event", "event", kind, "error", err)
	}
}

// background runs f on a tracked goroutine, see [Controller.Wait].
func (c *Controller) background(f func()) {
	c.bg.Add(1)
	go func() {
		defer c.bg.Done()
		f()
	}()
}
