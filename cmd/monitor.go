package main

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/desertthunder/sesh/internal/server"
	"github.com/desertthunder/sesh/internal/session"
	"github.com/desertthunder/sesh/internal/shared"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v3"
)

// Monitor keeps the session alive until interrupted or torn down, optionally exposing session metrics.
func (r *Runner) Monitor(ctx context.Context, cmd *cli.Command) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	ended := make(chan struct{})
	var once sync.Once
	notifier := session.NotifierFunc(func(n session.Notice) {
		session.LogNotifier{Logger: r.logger}.Notify(n)
		once.Do(func() { close(ended) })
	})

	ctrl, err := r.session(ctx, notifier, nil)
	if err != nil {
		return err
	}
	if err := r.login(ctx, cmd, ctrl); err != nil {
		return err
	}
	if !ctrl.LoggedIn() {
		return fmt.Errorf("%w: monitor needs --login and --password", shared.ErrNotAuthenticated)
	}

	errCh := make(chan error, 1)
	if addr := cmd.String("metrics-addr"); addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{}))
		go func() {
			errCh <- server.Run(ctx, addr, mux, shared.WithLogger(r.logger, "component", "metrics"))
		}()
	}

	r.logger.Info("monitoring session", "interval", r.config.Session.MonitorInterval.Duration)
	ctrl.StartMonitor(ctx)

	select {
	case <-ctx.Done():
	case err = <-errCh:
	case <-ended:
		err = fmt.Errorf("%w: session ended, sign in again", shared.ErrNotAuthenticated)
	}
	cancel()
	ctrl.Wait()
	return err
}
