package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/desertthunder/sesh/internal/models"
	"github.com/desertthunder/sesh/internal/shared"
)

// maxErrorBody caps how much of a 401 body is buffered to look for the error code.
const maxErrorBody = 64 << 10

// Do sends req with the session's credentials attached, refreshing the access credential when needed.
//
// An access credential known to be expired is refreshed before sending. A 401 response carrying
// {"error":"access_token_expired"} triggers one refresh and one resend; req is never sent more than twice.
//
// When the session ends because the refresh credential has expired, Do returns a nil response and a nil error:
// teardown has already notified the user. Other refresh failures are returned as errors.
func (c *Controller) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	if err := bufferBody(req); err != nil {
		return nil, err
	}

	if c.IsExpired(models.Access) && !c.IsExpired(models.Refresh) {
		if err := c.Refresh(ctx); err != nil {
			return nil, c.abort(err)
		}
	}

	resp, err := c.send(ctx, req)
	if err != nil {
		c.metrics.request("error")
		return nil, err
	}

	expired, err := accessExpired(resp)
	if err != nil {
		resp.Body.Close()
		c.metrics.request("error")
		return nil, err
	}
	if !expired {
		c.metrics.request("ok")
		return resp, nil
	}
	resp.Body.Close()

	if c.IsExpired(models.Refresh) {
		c.Teardown(context.WithoutCancel(ctx), ReasonSessionExpired)
		c.metrics.request("aborted")
		return nil, nil
	}

	c.logger.Debug("access credential rejected by server, refreshing", "url", req.URL.String())
	if err := c.Refresh(ctx); err != nil {
		return nil, c.abort(err)
	}

	resp, err = c.send(ctx, req)
	if err != nil {
		c.metrics.request("error")
		return nil, err
	}
	c.metrics.request("retried")
	return resp, nil
}

// abort maps a refresh failure inside [Controller.Do]: an expired session is swallowed, anything else is returned.
func (c *Controller) abort(err error) error {
	if errors.Is(err, shared.ErrRefreshExpired) {
		c.metrics.request("aborted")
		return nil
	}
	c.metrics.request("error")
	return err
}

func (c *Controller) send(ctx context.Context, req *http.Request) (*http.Response, error) {
	out := req.Clone(ctx)
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, fmt.Errorf("failed to rewind request body: %w", err)
		}
		out.Body = body
	}
	return c.api.Do(ctx, out)
}

// bufferBody makes req replayable so the retry after a refresh can resend it.
func bufferBody(req *http.Request) error {
	if req.Body == nil || req.Body == http.NoBody || req.GetBody != nil {
		return nil
	}

	data, err := io.ReadAll(req.Body)
	req.Body.Close()
	if err != nil {
		return fmt.Errorf("%w: failed to read request body: %w", shared.ErrInvalidInput, err)
	}

	req.ContentLength = int64(len(data))
	req.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(data)), nil
	}
	req.Body, _ = req.GetBody()
	return nil
}

// accessExpired reports whether resp is the server's expired-access signal.
// The body of a 401 is buffered and restored so callers can still read it.
func accessExpired(resp *http.Response) (bool, error) {
	if resp.StatusCode != http.StatusUnauthorized {
		return false, nil
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	resp.Body.Close()
	if err != nil {
		return false, fmt.Errorf("%w: failed to read response: %w", shared.ErrAPIRequest, err)
	}
	resp.Body = io.NopCloser(bytes.NewReader(data))

	var payload models.ErrorPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return false, nil
	}
	return payload.Error == models.CodeAccessTokenExpired, nil
}
