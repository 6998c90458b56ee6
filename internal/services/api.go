package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/desertthunder/sesh/internal/models"
	"github.com/desertthunder/sesh/internal/shared"
)

// APIResponse represents a raw API response with status and body.
type APIResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	IsJSON     bool
	JSONData   any
}

// ReadResponse drains and closes resp into an [APIResponse].
func ReadResponse(resp *http.Response) (*APIResponse, error) {
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	apiResp := &APIResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       body,
	}

	var jsonData any
	if err := json.Unmarshal(body, &jsonData); err == nil {
		apiResp.IsJSON = true
		apiResp.JSONData = jsonData
	}

	return apiResp, nil
}

// OK reports a 2xx status.
func (r *APIResponse) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// AuthAPI implements session.Backend against a cookie-authenticated HTTP backend.
type AuthAPI struct {
	baseURL    *url.URL
	httpClient *http.Client
	endpoints  Endpoints
}

// NewAuthAPI creates a new [AuthAPI].
//
// A nil client gets a fresh cookie jar from [NewHTTPClient]; a client without a jar is rejected since the
// session credentials would be dropped.
func NewAuthAPI(baseURL string, client *http.Client, endpoints Endpoints) (*AuthAPI, error) {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: base URL %q must be absolute", shared.ErrInvalidConfig, baseURL)
	}

	if client == nil {
		if client, err = NewHTTPClient(0); err != nil {
			return nil, err
		}
	}
	if client.Jar == nil {
		return nil, fmt.Errorf("%w: http client needs a cookie jar", shared.ErrInvalidConfig)
	}

	defaults := DefaultEndpoints()
	if endpoints.Login == "" {
		endpoints.Login = defaults.Login
	}
	if endpoints.Register == "" {
		endpoints.Register = defaults.Register
	}
	if endpoints.Refresh == "" {
		endpoints.Refresh = defaults.Refresh
	}
	if endpoints.Logout == "" {
		endpoints.Logout = defaults.Logout
	}

	return &AuthAPI{baseURL: u, httpClient: client, endpoints: endpoints}, nil
}

// Login posts creds to the login endpoint.
func (a *AuthAPI) Login(ctx context.Context, creds models.Credentials) (*models.AuthResult, error) {
	return a.authenticate(ctx, a.endpoints.Login, creds)
}

// Register posts creds to the registration endpoint.
func (a *AuthAPI) Register(ctx context.Context, creds models.Credentials) (*models.AuthResult, error) {
	return a.authenticate(ctx, a.endpoints.Register, creds)
}

func (a *AuthAPI) authenticate(ctx context.Context, path string, creds models.Credentials) (*models.AuthResult, error) {
	data, err := json.Marshal(creds)
	if err != nil {
		return nil, fmt.Errorf("failed to encode credentials: %w", err)
	}

	resp, err := a.Post(ctx, path, data)
	if err != nil {
		return nil, err
	}

	var result models.AuthResult
	if err := decodeResult(resp, &result); err != nil {
		return nil, err
	}
	result.StatusCode = resp.StatusCode
	if !resp.OK() && result.Error == "" {
		result.Error = http.StatusText(resp.StatusCode)
	}
	return &result, nil
}

// Refresh asks the backend for a new access credential using the refresh cookie.
func (a *AuthAPI) Refresh(ctx context.Context) (*models.RefreshResult, error) {
	resp, err := a.Post(ctx, a.endpoints.Refresh, nil)
	if err != nil {
		return nil, err
	}

	var result models.RefreshResult
	if err := decodeResult(resp, &result); err != nil {
		return nil, err
	}
	result.StatusCode = resp.StatusCode
	if !resp.OK() && result.Error == "" {
		result.Error = http.StatusText(resp.StatusCode)
	}
	return &result, nil
}

// Logout tells the backend to end the session. Only transport failures and 5xx responses are errors.
func (a *AuthAPI) Logout(ctx context.Context) error {
	resp, err := a.Post(ctx, a.endpoints.Logout, nil)
	if err != nil {
		return err
	}
	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("%w: logout: status %d", shared.ErrAPIRequest, resp.StatusCode)
	}
	return nil
}

// Do sends req through the session's client. A relative URL is resolved against the base URL.
func (a *AuthAPI) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	out := req.Clone(ctx)
	if !out.URL.IsAbs() {
		out.URL = a.baseURL.ResolveReference(out.URL)
		out.Host = ""
	}
	if out.Header.Get(RequestIDHeader) == "" {
		out.Header.Set(RequestIDHeader, shared.GenerateID())
	}

	resp, err := a.httpClient.Do(out)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %w", shared.ErrAPIRequest, out.Method, out.URL.Path, err)
	}
	return resp, nil
}

// Get performs a GET request to the specified path and returns the raw response.
func (a *AuthAPI) Get(ctx context.Context, path string) (*APIResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := a.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	return ReadResponse(resp)
}

// Post performs a POST request with the given JSON data and returns the raw response.
func (a *AuthAPI) Post(ctx context.Context, path string, data []byte) (*APIResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, path, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	return ReadResponse(resp)
}

// Cookies returns the cookies the jar would send to the base URL.
func (a *AuthAPI) Cookies() []*http.Cookie {
	return a.httpClient.Jar.Cookies(a.baseURL)
}

// BaseURL returns the resolved base URL.
func (a *AuthAPI) BaseURL() *url.URL {
	return a.baseURL
}

// decodeResult unmarshals a JSON body into v. A success without a JSON body is malformed; a failure without one
// is left for the caller to describe by status.
func decodeResult(resp *APIResponse, v any) error {
	if resp.IsJSON {
		if err := json.Unmarshal(resp.Body, v); err != nil {
			return fmt.Errorf("%w: unexpected response shape: %w", shared.ErrAPIRequest, err)
		}
		return nil
	}
	if resp.OK() {
		snippet := strings.TrimSpace(string(resp.Body))
		if len(snippet) > 80 {
			snippet = snippet[:80]
		}
		return fmt.Errorf("%w: expected JSON, got %q", shared.ErrAPIRequest, snippet)
	}
	return nil
}
