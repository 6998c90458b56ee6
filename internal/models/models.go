// package models defines the data model for the session keeper
package models

import (
	"fmt"
	"net/http"
	"time"
)

// Kind identifies a credential whose expiry is tracked.
type Kind string

const (
	Access  Kind = "access"
	Refresh Kind = "refresh"
)

// Kinds lists every tracked credential kind.
var Kinds = []Kind{Access, Refresh}

// Valid reports whether k is a known credential kind.
func (k Kind) Valid() bool {
	return k == Access || k == Refresh
}

// Error codes the backend places in the {error} field.
const (
	CodeAccessTokenExpired  = "access_token_expired"
	CodeRefreshTokenExpired = "refresh_token_expired"
)

// ExpiryRecord is the expiry instant of one credential kind.
type ExpiryRecord struct {
	Kind      Kind
	ExpiresAt time.Time
}

// NewExpiryRecord builds a record expiring ttl seconds after now.
func NewExpiryRecord(kind Kind, now time.Time, ttlSeconds int64) ExpiryRecord {
	return ExpiryRecord{Kind: kind, ExpiresAt: now.Add(time.Duration(ttlSeconds) * time.Second)}
}

// RecordFromMillis builds a record from an epoch-millisecond timestamp.
func RecordFromMillis(kind Kind, ms int64) ExpiryRecord {
	return ExpiryRecord{Kind: kind, ExpiresAt: time.UnixMilli(ms)}
}

// Millis returns the expiry as epoch milliseconds, the persisted representation.
func (r ExpiryRecord) Millis() int64 {
	return r.ExpiresAt.UnixMilli()
}

// Expired reports whether the record has lapsed at now. Equal instants count as expired.
func (r ExpiryRecord) Expired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}

// Validate checks the record can be persisted.
func (r ExpiryRecord) Validate() error {
	if !r.Kind.Valid() {
		return fmt.Errorf("unknown credential kind %q", r.Kind)
	}
	if r.ExpiresAt.IsZero() {
		return fmt.Errorf("expiry for %s is not set", r.Kind)
	}
	return nil
}

// Credentials are the login or registration fields posted to the backend as a JSON object,
// e.g. {"username": "...", "password": "..."}.
type Credentials map[string]string

// ErrorPayload is the backend's {error} response body.
type ErrorPayload struct {
	Error string `json:"error"`
}

// AuthResult is the decoded response of a login or registration call.
//
// A server-reported failure is carried in Error rather than returned as a Go error.
type AuthResult struct {
	StatusCode       int    `json:"-"`
	Message          string `json:"message,omitempty"`
	AccessExpiresIn  int64  `json:"access_expires_in"`
	RefreshExpiresIn int64  `json:"refresh_expires_in"`
	Error            string `json:"error,omitempty"`
}

// OK reports whether the server accepted the credentials.
func (r *AuthResult) OK() bool {
	return r != nil && r.StatusCode >= 200 && r.StatusCode < 300 && r.Error == ""
}

// RefreshResult is the decoded response of a refresh call.
type RefreshResult struct {
	StatusCode      int    `json:"-"`
	AccessExpiresIn int64  `json:"access_expires_in"`
	Error           string `json:"error,omitempty"`
}

// OK reports whether the refresh succeeded.
func (r *RefreshResult) OK() bool {
	return r != nil && r.StatusCode >= 200 && r.StatusCode < 300 && r.Error == ""
}

// RefreshExpired reports whether the server rejected the refresh credential itself.
func (r *RefreshResult) RefreshExpired() bool {
	return r != nil && r.Error == CodeRefreshTokenExpired
}

// StatusText renders the failure for error messages.
func (r *RefreshResult) StatusText() string {
	if r.Error != "" {
		return fmt.Sprintf("status %d: %s", r.StatusCode, r.Error)
	}
	return fmt.Sprintf("status %d: %s", r.StatusCode, http.StatusText(r.StatusCode))
}

// EventKind names a session lifecycle transition.
type EventKind string

const (
	EventLogin         EventKind = "login"
	EventRegister      EventKind = "register"
	EventRefresh       EventKind = "refresh"
	EventRefreshFailed EventKind = "refresh_failed"
	EventLogout        EventKind = "logout"
	EventTeardown      EventKind = "teardown"
)

// SessionEvent is an audit entry for a lifecycle transition.
type SessionEvent struct {
	ID        string    `json:"id"`
	Kind      EventKind `json:"kind"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Validate checks the event can be persisted.
func (e SessionEvent) Validate() error {
	if e.Kind == "" {
		return fmt.Errorf("event kind is required")
	}
	return nil
}
