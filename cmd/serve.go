package main

import (
	"context"

	"github.com/desertthunder/sesh/internal/server"
	"github.com/desertthunder/sesh/internal/shared"
	"github.com/urfave/cli/v3"
)

// Serve runs the development backend until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	conf := r.config.Server
	if cmd.IsSet("host") {
		conf.Host = cmd.String("host")
	}
	if cmd.IsSet("port") {
		conf.Port = int(cmd.Int("port"))
	}

	logger := shared.WithLogger(r.logger, "component", "server")
	backend, err := server.NewBackendFromConfig(conf, logger)
	if err != nil {
		return err
	}

	limiter := server.NewRateLimiter(conf.RateLimit, conf.RateBurst)
	logger.Info("starting development backend",
		"access_ttl", conf.AccessTTL.Duration, "refresh_ttl", conf.RefreshTTL.Duration)
	return server.Run(ctx, conf.Addr(), backend.Router(limiter), logger)
}
