package session

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/sesh/internal/models"
	"github.com/desertthunder/sesh/internal/shared"
)

// logoutTimeout bounds the best-effort logout notification.
const logoutTimeout = 5 * time.Second

// Login posts creds to the login endpoint.
//
// On success both expiry records are overwritten and the session is marked logged in.
// A rejection is returned as the server's payload in [models.AuthResult] with a nil error;
// only transport failures produce an error.
func (c *Controller) Login(ctx context.Context, creds models.Credentials) (*models.AuthResult, error) {
	res, err := c.api.Login(ctx, creds)
	if err != nil {
		c.metrics.auth("login", "error")
		return nil, fmt.Errorf("%w: login: %w", shared.ErrAPIRequest, err)
	}
	c.establish(ctx, "login", models.EventLogin, res)
	return res, nil
}

// Register posts creds to the registration endpoint. Same contract as [Controller.Login].
func (c *Controller) Register(ctx context.Context, creds models.Credentials) (*models.AuthResult, error) {
	res, err := c.api.Register(ctx, creds)
	if err != nil {
		c.metrics.auth("register", "error")
		return nil, fmt.Errorf("%w: register: %w", shared.ErrAPIRequest, err)
	}
	c.establish(ctx, "register", models.EventRegister, res)
	return res, nil
}

func (c *Controller) establish(ctx context.Context, op string, event models.EventKind, res *models.AuthResult) {
	if !res.OK() {
		c.metrics.auth(op, "rejected")
		c.logger.Info("credentials rejected", "op", op, "status", res.StatusCode, "error", res.Error)
		return
	}

	now := c.now()
	c.setExpiry(ctx, models.NewExpiryRecord(models.Access, now, res.AccessExpiresIn))
	c.setExpiry(ctx, models.NewExpiryRecord(models.Refresh, now, res.RefreshExpiresIn))
	c.loggedIn.Store(true)

	c.metrics.auth(op, "ok")
	c.record(ctx, event, res.Message)
	c.logger.Info("session established", "op", op,
		"access_expires_in", res.AccessExpiresIn, "refresh_expires_in", res.RefreshExpiresIn)
}

// Logout notifies the server in the background and clears all local session state.
//
// The notification is best-effort: its failure is logged and never returned.
func (c *Controller) Logout(ctx context.Context) {
	notifyCtx := context.WithoutCancel(ctx)
	c.background(func() {
		ctx, cancel := context.WithTimeout(notifyCtx, logoutTimeout)
		defer cancel()
		if err := c.api.Logout(ctx); err != nil {
			c.logger.Warn("logout notification failed", "error", err)
		}
	})

	c.clearExpiries(ctx)
	c.loggedIn.Store(false)
	c.record(ctx, models.EventLogout, "")
}

// Teardown ends the session: it logs out, shows a transient notice and, after the redirect delay,
// sends the user to the login page with reason attached.
//
// Repeated calls are harmless; each one only repeats the notice and redirect.
func (c *Controller) Teardown(ctx context.Context, reason string) {
	c.logger.Warn("session teardown", "reason", reason)
	c.Logout(ctx)
	c.metrics.teardown(reason)
	c.record(ctx, models.EventTeardown, reason)

	c.notifier.Notify(Notice{Level: NoticeError, Reason: reason, Message: noticeText(reason)})

	target := c.LoginTarget(reason)
	c.afterFunc(c.redirectDelay, func() {
		if err := c.redirector.Redirect(target); err != nil {
			c.logger.Warn("redirect to login failed", "target", target, "error", err)
		}
	})
}

func noticeText(reason string) string {
	if reason == ReasonSessionExpired {
		return "Session expired. Please sign in again."
	}
	return "You have been signed out. Please sign in again."
}
