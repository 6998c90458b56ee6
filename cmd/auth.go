package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/sesh/internal/models"
	"github.com/desertthunder/sesh/internal/session"
	"github.com/desertthunder/sesh/internal/shared"
	"github.com/urfave/cli/v3"
)

// sessionStatus is the --json shape of [Runner.AuthStatus].
type sessionStatus struct {
	Authenticated    bool       `json:"authenticated"`
	AccessExpiresAt  *time.Time `json:"access_expires_at,omitempty"`
	AccessExpired    bool       `json:"access_expired"`
	RefreshExpiresAt *time.Time `json:"refresh_expires_at,omitempty"`
	RefreshExpired   bool       `json:"refresh_expired"`
}

func loginCredentials(cmd *cli.Command) (models.Credentials, error) {
	login := strings.TrimSpace(cmd.String("login"))
	password := cmd.String("password")
	if login == "" || password == "" {
		return nil, fmt.Errorf("%w: --login and --password are required", shared.ErrMissingCredentials)
	}
	return models.Credentials{"login": login, "password": password}, nil
}

// AuthLogin signs in and records both credential expiries.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	creds, err := loginCredentials(cmd)
	if err != nil {
		return err
	}

	ctrl, err := r.session(ctx, nil, nil)
	if err != nil {
		return err
	}
	defer ctrl.Wait()

	r.logger.Info("signing in", "login", creds["login"])
	res, err := ctrl.Login(ctx, creds)
	if err != nil {
		return err
	}
	return r.writeAuthResult(cmd, ctrl, res, "Signed in")
}

// AuthRegister creates an account. The backend signs the new account in on success.
func (r *Runner) AuthRegister(ctx context.Context, cmd *cli.Command) error {
	creds, err := loginCredentials(cmd)
	if err != nil {
		return err
	}
	creds["username"] = creds["login"]
	email := strings.TrimSpace(cmd.String("email"))
	if email == "" {
		return fmt.Errorf("%w: --email is required to register", shared.ErrMissingArgument)
	}
	creds["email"] = email
	if phone := strings.TrimSpace(cmd.String("phone")); phone != "" {
		creds["tel"] = phone
	}

	ctrl, err := r.session(ctx, nil, nil)
	if err != nil {
		return err
	}
	defer ctrl.Wait()

	r.logger.Info("registering", "username", creds["username"])
	res, err := ctrl.Register(ctx, creds)
	if err != nil {
		return err
	}
	return r.writeAuthResult(cmd, ctrl, res, "Registered")
}

func (r *Runner) writeAuthResult(cmd *cli.Command, ctrl *session.Controller, res *models.AuthResult, fallback string) error {
	if !res.OK() {
		return fmt.Errorf("%w: %s", shared.ErrAuthFailed, res.Error)
	}
	if cmd.Bool("json") {
		return r.writeJSON(res, true)
	}

	msg := res.Message
	if msg == "" {
		msg = fallback
	}
	r.writePlain("✓ %s\n", msg)
	return r.writeExpiries(ctrl)
}

// AuthLogout clears the recorded expiries and notifies the backend.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	ctrl, err := r.session(ctx, nil, nil)
	if err != nil {
		return err
	}
	ctrl.Logout(ctx)
	ctrl.Wait()
	return r.writePlain("✓ Signed out\n")
}

// AuthStatus reports the recorded expiries without contacting the backend.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	ctrl, err := r.session(ctx, nil, nil)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		status := sessionStatus{
			Authenticated:  ctrl.IsAuthenticated(),
			AccessExpired:  ctrl.IsExpired(models.Access),
			RefreshExpired: ctrl.IsExpired(models.Refresh),
		}
		if rec, ok := ctrl.Expiry(models.Access); ok {
			status.AccessExpiresAt = &rec.ExpiresAt
		}
		if rec, ok := ctrl.Expiry(models.Refresh); ok {
			status.RefreshExpiresAt = &rec.ExpiresAt
		}
		return r.writeJSON(status, true)
	}

	r.writePlainHeader("Session")
	if ctrl.IsAuthenticated() {
		r.writePlain("Authentication: ✓ Authenticated\n")
	} else {
		r.writePlain("Authentication: ✗ Not authenticated\n")
	}
	return r.writeExpiries(ctrl)
}

func (r *Runner) writeExpiries(ctrl *session.Controller) error {
	now := time.Now()
	for _, kind := range models.Kinds {
		rec, ok := ctrl.Expiry(kind)
		switch {
		case !ok:
			r.writePlain("%-8s none\n", kind)
		case rec.Expired(now):
			r.writePlain("%-8s expired at %s\n", kind, rec.ExpiresAt.Local().Format(time.RFC3339))
		default:
			r.writePlain("%-8s expires at %s (in %s)\n", kind, rec.ExpiresAt.Local().Format(time.RFC3339),
				rec.ExpiresAt.Sub(now).Truncate(time.Second))
		}
	}
	return nil
}
