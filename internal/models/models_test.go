package models

import (
	"net/http"
	"testing"
	"time"
)

func TestExpiryRecord(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)

	t.Run("Expired boundaries", func(t *testing.T) {
		tt := []struct {
			name    string
			expires time.Time
			want    bool
		}{
			{name: "in the future", expires: now.Add(time.Millisecond), want: false},
			{name: "exactly now", expires: now, want: true},
			{name: "in the past", expires: now.Add(-time.Millisecond), want: true},
		}

		for _, tc := range tt {
			t.Run(tc.name, func(t *testing.T) {
				r := ExpiryRecord{Kind: Access, ExpiresAt: tc.expires}
				if got := r.Expired(now); got != tc.want {
					t.Errorf("Expired() = %v, want %v", got, tc.want)
				}
			})
		}
	})

	t.Run("Millis", func(t *testing.T) {
		r := NewExpiryRecord(Refresh, now, 3600)
		if got, want := r.Millis(), now.UnixMilli()+3_600_000; got != want {
			t.Errorf("Millis() = %d, want %d", got, want)
		}

		back := RecordFromMillis(Refresh, r.Millis())
		if !back.ExpiresAt.Equal(r.ExpiresAt) {
			t.Errorf("RecordFromMillis() = %v, want %v", back.ExpiresAt, r.ExpiresAt)
		}
	})

	t.Run("Validate", func(t *testing.T) {
		if err := (ExpiryRecord{Kind: "session", ExpiresAt: now}).Validate(); err == nil {
			t.Error("expected error for unknown kind")
		}
		if err := (ExpiryRecord{Kind: Access}).Validate(); err == nil {
			t.Error("expected error for zero expiry")
		}
		if err := (ExpiryRecord{Kind: Access, ExpiresAt: now}).Validate(); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})
}

func TestResults(t *testing.T) {
	t.Run("AuthResult OK", func(t *testing.T) {
		if !(&AuthResult{StatusCode: http.StatusOK}).OK() {
			t.Error("200 without error should be OK")
		}
		if (&AuthResult{StatusCode: http.StatusUnauthorized, Error: "bad password"}).OK() {
			t.Error("401 should not be OK")
		}
		var nilResult *AuthResult
		if nilResult.OK() {
			t.Error("nil result should not be OK")
		}
	})

	t.Run("RefreshResult classification", func(t *testing.T) {
		expired := &RefreshResult{StatusCode: http.StatusUnauthorized, Error: CodeRefreshTokenExpired}
		if !expired.RefreshExpired() || expired.OK() {
			t.Error("expected refresh_token_expired to classify as expired")
		}

		failed := &RefreshResult{StatusCode: http.StatusInternalServerError}
		if failed.RefreshExpired() {
			t.Error("500 should not classify as expired")
		}
		if got := failed.StatusText(); got != "status 500: Internal Server Error" {
			t.Errorf("StatusText() = %q", got)
		}
	})
}
