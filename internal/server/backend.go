package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/sesh/internal/models"
	"github.com/desertthunder/sesh/internal/shared"
	"github.com/google/uuid"
)

// Cookie names carrying the session credentials.
const (
	AccessCookie  = "access_token"
	RefreshCookie = "refresh_token"
)

// Paths served by [Backend].
const (
	PathRegister  = "/api/register"
	PathLogin     = "/api/login"
	PathRefresh   = "/api/refresh"
	PathLogout    = "/api/logout"
	PathProtected = "/api/protected-data"
	PathHealth    = "/healthz"
)

const maxBodyBytes = 1 << 20

var registerFields = []string{"username", "login", "email", "password"}

// BackendOptions configures a [Backend].
type BackendOptions struct {
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	SigningKey []byte
	Logger     *log.Logger
	Now        func() time.Time
}

// Backend is an in-memory implementation of the cookie session contract, for local development and tests.
type Backend struct {
	signer     *tokenSigner
	refreshTTL time.Duration
	logger     *log.Logger
	now        func() time.Time

	mu       sync.Mutex
	users    map[string]*user
	sessions map[string]refreshSession
}

type user struct {
	id       string
	username string
	login    string
	email    string
	phone    string
	hash     string
}

type refreshSession struct {
	userID    string
	expiresAt time.Time
}

// NewBackend creates a [Backend]. Zero TTLs default to one hour and thirty days.
func NewBackend(opts BackendOptions) (*Backend, error) {
	if len(opts.SigningKey) == 0 {
		return nil, errors.New("backend signing key is required")
	}
	if opts.AccessTTL <= 0 {
		opts.AccessTTL = time.Hour
	}
	if opts.RefreshTTL <= 0 {
		opts.RefreshTTL = 30 * 24 * time.Hour
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Backend{
		signer:     &tokenSigner{key: opts.SigningKey, ttl: opts.AccessTTL, now: opts.Now},
		refreshTTL: opts.RefreshTTL,
		logger:     shared.WithLogger(opts.Logger, "component", "backend"),
		now:        opts.Now,
		users:      make(map[string]*user),
		sessions:   make(map[string]refreshSession),
	}, nil
}

// NewBackendFromConfig builds a [Backend] from the [server] section.
func NewBackendFromConfig(conf shared.ServerConfig, logger *log.Logger) (*Backend, error) {
	return NewBackend(BackendOptions{
		AccessTTL:  conf.AccessTTL.Duration,
		RefreshTTL: conf.RefreshTTL.Duration,
		SigningKey: []byte(conf.SigningKey),
		Logger:     logger,
	})
}

// Routes implements [Handler].
func (b *Backend) Routes() []string {
	return []string{PathRegister, PathLogin, PathRefresh, PathLogout, PathProtected, PathHealth}
}

// ServeHTTP implements [Handler].
func (b *Backend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	method := http.MethodPost
	if r.URL.Path == PathProtected || r.URL.Path == PathHealth {
		method = http.MethodGet
	}
	if r.Method != method {
		w.Header().Set("Allow", method)
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed")
		return
	}

	switch r.URL.Path {
	case PathRegister:
		b.register(w, r)
	case PathLogin:
		b.login(w, r)
	case PathRefresh:
		b.refresh(w, r)
	case PathLogout:
		b.logout(w, r)
	case PathProtected:
		b.protected(w, r)
	case PathHealth:
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	default:
		writeError(w, http.StatusNotFound, "not_found")
	}
}

// Router returns a [BasicRouter] serving the backend behind request logging and a per-client limiter on
// login and registration.
func (b *Backend) Router(limiter *RateLimiter) *BasicRouter {
	r := NewBasicRouter()
	r.Use(Logging(b.logger))
	if limiter != nil {
		r.Use(limiter.Middleware(PathLogin, PathRegister))
	}
	r.Handler(b)
	return r
}

func decodeFields(w http.ResponseWriter, r *http.Request) (map[string]string, bool) {
	var fields map[string]string
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&fields); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return nil, false
	}
	return fields, true
}

func (b *Backend) register(w http.ResponseWriter, r *http.Request) {
	fields, ok := decodeFields(w, r)
	if !ok {
		return
	}
	for _, name := range registerFields {
		if strings.TrimSpace(fields[name]) == "" {
			writeError(w, http.StatusBadRequest, "Field "+name+" is required")
			return
		}
	}

	hash, err := hashPassword(fields["password"])
	if err != nil {
		b.logger.Error("failed to hash password", "error", err)
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}

	b.mu.Lock()
	for _, u := range b.users {
		if strings.EqualFold(u.login, fields["login"]) {
			b.mu.Unlock()
			writeError(w, http.StatusBadRequest, "A user with this login already exists")
			return
		}
		if strings.EqualFold(u.email, fields["email"]) {
			b.mu.Unlock()
			writeError(w, http.StatusBadRequest, "A user with this email already exists")
			return
		}
	}
	u := &user{
		id:       shared.GenerateID(),
		username: fields["username"],
		login:    fields["login"],
		email:    fields["email"],
		phone:    fields["tel"],
		hash:     hash,
	}
	b.users[u.id] = u
	b.mu.Unlock()

	b.logger.Info("user registered", "login", u.login)
	b.issue(w, u, "Registration successful")
}

func (b *Backend) login(w http.ResponseWriter, r *http.Request) {
	fields, ok := decodeFields(w, r)
	if !ok {
		return
	}

	identifier := firstNonEmpty(fields["login"], fields["username"], fields["email"], fields["phone"])
	password := fields["password"]
	if identifier == "" || password == "" {
		writeError(w, http.StatusBadRequest, "Login and password are required")
		return
	}

	u := b.lookup(identifier)
	if u == nil {
		writeError(w, http.StatusUnauthorized, "Invalid login or password")
		return
	}
	match, err := verifyPassword(u.hash, password)
	if err != nil {
		b.logger.Error("stored password hash unreadable", "login", u.login, "error", err)
	}
	if !match {
		writeError(w, http.StatusUnauthorized, "Invalid login or password")
		return
	}

	b.issue(w, u, "Login successful")
}

// issue sets fresh access and refresh cookies for u.
func (b *Backend) issue(w http.ResponseWriter, u *user, message string) {
	access, err := b.signer.issue(u.id, u.username)
	if err != nil {
		b.logger.Error("failed to issue access token", "error", err)
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}

	refresh := uuid.NewString()
	b.mu.Lock()
	b.sessions[refresh] = refreshSession{userID: u.id, expiresAt: b.now().Add(b.refreshTTL)}
	b.mu.Unlock()

	setCookie(w, AccessCookie, access, b.signer.ttl)
	setCookie(w, RefreshCookie, refresh, b.refreshTTL)
	writeJSON(w, http.StatusOK, models.AuthResult{
		Message:          message,
		AccessExpiresIn:  int64(b.signer.ttl / time.Second),
		RefreshExpiresIn: int64(b.refreshTTL / time.Second),
	})
}

func (b *Backend) refresh(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(RefreshCookie)
	if err != nil {
		writeError(w, http.StatusUnauthorized, models.CodeRefreshTokenExpired)
		return
	}

	b.mu.Lock()
	sess, ok := b.sessions[cookie.Value]
	if ok && !b.now().Before(sess.expiresAt) {
		delete(b.sessions, cookie.Value)
		ok = false
	}
	u := b.users[sess.userID]
	b.mu.Unlock()

	if !ok || u == nil {
		writeError(w, http.StatusUnauthorized, models.CodeRefreshTokenExpired)
		return
	}

	access, err := b.signer.issue(u.id, u.username)
	if err != nil {
		b.logger.Error("failed to issue access token", "error", err)
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}

	setCookie(w, AccessCookie, access, b.signer.ttl)
	writeJSON(w, http.StatusOK, models.RefreshResult{AccessExpiresIn: int64(b.signer.ttl / time.Second)})
}

func (b *Backend) logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(RefreshCookie); err == nil {
		b.mu.Lock()
		delete(b.sessions, cookie.Value)
		b.mu.Unlock()
	}

	setCookie(w, AccessCookie, "", -1)
	setCookie(w, RefreshCookie, "", -1)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

func (b *Backend) protected(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(AccessCookie)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	claims, err := b.signer.parse(cookie.Value)
	switch {
	case errors.Is(err, errAccessExpired):
		writeError(w, http.StatusUnauthorized, models.CodeAccessTokenExpired)
		return
	case err != nil:
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data":       "Protected data for " + claims.Username,
		"user":       claims.Username,
		"expires_at": claims.ExpiresAt.Time.UTC(),
	})
}

func (b *Backend) lookup(identifier string) *user {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, u := range b.users {
		for _, v := range []string{u.login, u.username, u.email, u.phone} {
			if v != "" && strings.EqualFold(v, identifier) {
				return u
			}
		}
	}
	return nil
}

// setCookie writes an HttpOnly cookie; a negative ttl deletes it.
func setCookie(w http.ResponseWriter, name, value string, ttl time.Duration) {
	c := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	if ttl < 0 {
		c.MaxAge = -1
	} else {
		c.MaxAge = int(ttl / time.Second)
	}
	http.SetCookie(w, c)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
