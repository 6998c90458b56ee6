package server

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/desertthunder/sesh/internal/shared"
)

func TestBasicRouter(t *testing.T) {
	t.Run("middleware order", func(t *testing.T) {
		var order []string
		mark := func(name string) Middleware {
			return func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					order = append(order, name)
					next.ServeHTTP(w, r)
				})
			}
		}

		r := NewBasicRouter()
		r.Use(mark("first"), mark("second"))
		r.Handle(http.MethodGet, "/x", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			order = append(order, "handler")
		}))

		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))
		if got := strings.Join(order, ","); got != "first,second,handler" {
			t.Errorf("unexpected order %s", got)
		}
	})

	t.Run("method filter", func(t *testing.T) {
		r := NewBasicRouter()
		r.Handle(http.MethodPost, "/x", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected 405, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "method_not_allowed") {
			t.Errorf("expected JSON error body, got %s", rec.Body.String())
		}
	})
}

func TestLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := shared.NewLogger(&buf)

	h := Logging(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodGet, "/brew", nil)
	req.Header.Set(requestIDHeader, "req-42")
	h.ServeHTTP(httptest.NewRecorder(), req)

	out := buf.String()
	for _, want := range []string{"/brew", "418", "req-42"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected log to contain %q, got %s", want, out)
		}
	}
}

func TestRateLimiter(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	t.Run("limits per client", func(t *testing.T) {
		h := NewRateLimiter(1, 2).Middleware()(ok)

		codes := make([]int, 0, 3)
		for range 3 {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, PathLogin, nil)
			req.RemoteAddr = "10.0.0.1:1234"
			h.ServeHTTP(rec, req)
			codes = append(codes, rec.Code)
		}
		if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
			t.Errorf("unexpected codes %v", codes)
		}

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, PathLogin, nil)
		req.RemoteAddr = "10.0.0.2:1234"
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("expected other client to pass, got %d", rec.Code)
		}
	})

	t.Run("only listed paths", func(t *testing.T) {
		h := NewRateLimiter(1, 1).Middleware(PathLogin)(ok)

		for range 3 {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, PathProtected, nil))
			if rec.Code != http.StatusOK {
				t.Fatalf("expected unlisted path to pass, got %d", rec.Code)
			}
		}
	})

	t.Run("zero burst still admits one", func(t *testing.T) {
		if !NewRateLimiter(1, 0).Allow("10.0.0.3") {
			t.Error("expected first request to be allowed")
		}
	})
}
