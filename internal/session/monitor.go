package session

import (
	"context"
	"time"

	"github.com/desertthunder/sesh/internal/models"
)

// Monitor checks the session every monitor interval until ctx is done.
//
// Ticks are ignored until the session is logged in. A lapsed refresh credential tears the session down;
// a lapsed access credential starts a background refresh unless one is already in flight.
func (c *Controller) Monitor(ctx context.Context) {
	ticker := time.NewTicker(c.monitorInterval)
	defer ticker.Stop()

	c.logger.Debug("session monitor started", "interval", c.monitorInterval)
	for {
		select {
		case <-ctx.Done():
			c.logger.Debug("session monitor stopped")
			return
		case <-ticker.C:
			c.tick(ctx)
		}
	}
}

// StartMonitor runs [Controller.Monitor] on a background goroutine tracked by [Controller.Wait].
func (c *Controller) StartMonitor(ctx context.Context) {
	c.background(func() { c.Monitor(ctx) })
}

func (c *Controller) tick(ctx context.Context) {
	if !c.LoggedIn() {
		return
	}

	switch {
	case c.IsExpired(models.Refresh):
		c.Teardown(ctx, ReasonSessionExpired)
	case c.IsExpired(models.Access) && !c.IsRefreshing():
		c.background(func() {
			if err := c.Refresh(ctx); err != nil {
				c.logger.Error("background refresh failed", "error", err)
			}
		})
	}
}
