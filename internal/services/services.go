// package services implements the HTTP client for the session backend
package services

import (
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"time"

	"github.com/desertthunder/sesh/internal/shared"
	"golang.org/x/net/publicsuffix"
)

const (
	defaultBaseURL = "http://127.0.0.1:3000"

	// RequestIDHeader carries a per-request identifier to the backend.
	RequestIDHeader = "X-Request-ID"
)

// Endpoints are the backend paths for the session calls.
type Endpoints struct {
	Login    string
	Register string
	Refresh  string
	Logout   string
}

// DefaultEndpoints returns the paths served by the development backend.
func DefaultEndpoints() Endpoints {
	return Endpoints{
		Login:    "/api/login",
		Register: "/api/register",
		Refresh:  "/api/refresh",
		Logout:   "/api/logout",
	}
}

// EndpointsFromConfig reads the paths from the [api] section.
func EndpointsFromConfig(conf shared.APIConfig) Endpoints {
	return Endpoints{
		Login:    conf.LoginPath,
		Register: conf.RegisterPath,
		Refresh:  conf.RefreshPath,
		Logout:   conf.LogoutPath,
	}
}

// NewHTTPClient creates an [http.Client] with an in-memory cookie jar, which is where the session's
// credentials live. A zero timeout means no timeout.
func NewHTTPClient(timeout time.Duration) (*http.Client, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}
	return &http.Client{Jar: jar, Timeout: timeout}, nil
}
