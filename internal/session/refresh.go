package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/desertthunder/sesh/internal/models"
	"github.com/desertthunder/sesh/internal/shared"
)

// Refresh obtains a new access credential.
//
// At most one refresh call is in flight: callers arriving while one runs wait for it and receive its outcome.
// The first caller drives the call on a context detached from its own cancellation and bounded by the refresh timeout.
//
// Errors wrap [shared.ErrRefreshExpired] when the refresh credential is missing, lapsed or rejected as expired,
// which also tears the session down, and [shared.ErrRefreshFailed] for anything else, leaving the session intact.
func (c *Controller) Refresh(ctx context.Context) error {
	ch := c.flights.DoChan(refreshKey, func() (any, error) {
		return nil, c.driveRefresh(ctx)
	})
	c.pending.Add(1)
	defer c.pending.Add(-1)

	select {
	case res := <-ch:
		if res.Shared {
			c.metrics.waiter()
		}
		return res.Err
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", shared.ErrRefreshFailed, ctx.Err())
	}
}

// driveRefresh performs the single network refresh for every attached caller.
func (c *Controller) driveRefresh(caller context.Context) (err error) {
	c.refreshing.Store(true)
	defer c.refreshing.Store(false)

	parent := context.WithoutCancel(caller)
	defer func() {
		c.metrics.refresh(outcome(err))
		if errors.Is(err, shared.ErrRefreshExpired) {
			c.Teardown(parent, ReasonSessionExpired)
		}
	}()
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("refresh panicked", "panic", r)
			err = fmt.Errorf("%w: %v", shared.ErrRefreshFailed, r)
		}
	}()

	if c.IsExpired(models.Refresh) {
		c.logger.Info("refresh credential expired locally")
		return fmt.Errorf("%w: no valid refresh credential", shared.ErrRefreshExpired)
	}

	ctx, cancel := context.WithTimeout(parent, c.refreshTimeout)
	defer cancel()

	res, err := c.api.Refresh(ctx)
	if err != nil {
		c.record(parent, models.EventRefreshFailed, err.Error())
		return fmt.Errorf("%w: %w", shared.ErrRefreshFailed, err)
	}

	if !res.OK() {
		c.record(parent, models.EventRefreshFailed, res.StatusText())
		if res.RefreshExpired() {
			return fmt.Errorf("%w: %s", shared.ErrRefreshExpired, res.StatusText())
		}
		return fmt.Errorf("%w: %s", shared.ErrRefreshFailed, res.StatusText())
	}

	c.setExpiry(parent, models.NewExpiryRecord(models.Access, c.now(), res.AccessExpiresIn))
	c.record(parent, models.EventRefresh, "")
	c.logger.Debug("access credential refreshed", "access_expires_in", res.AccessExpiresIn)
	return nil
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, shared.ErrRefreshExpired):
		return "expired"
	default:
		return "failed"
	}
}
