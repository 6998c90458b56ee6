package main

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/desertthunder/sesh/internal/formatter"
	"github.com/desertthunder/sesh/internal/repositories"
	"github.com/desertthunder/sesh/internal/shared"
	"github.com/urfave/cli/v3"
)

func (r *Runner) eventLog(ctx context.Context) (*repositories.EventRepository, error) {
	stores, err := r.openStores(ctx)
	if err != nil {
		return nil, err
	}
	if stores.Events == nil {
		return nil, fmt.Errorf("%w: store driver %q keeps no event log", shared.ErrInvalidConfig, r.config.Store.Driver)
	}
	return stores.Events, nil
}

// EventsList prints the most recent session events, newest first.
func (r *Runner) EventsList(ctx context.Context, cmd *cli.Command) error {
	events, err := r.eventLog(ctx)
	if err != nil {
		return err
	}

	recent, err := events.Recent(ctx, cmd.Int("limit"))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(recent, true)
	}
	if len(recent) == 0 {
		return r.writePlain("No session events recorded\n")
	}
	for _, ev := range recent {
		r.writePlain("%s  %-15s %s\n", ev.CreatedAt.Local().Format(time.DateTime), ev.Kind, ev.Detail)
	}
	return nil
}

// EventsPrune deletes events older than --older-than.
func (r *Runner) EventsPrune(ctx context.Context, cmd *cli.Command) error {
	age := cmd.Duration("older-than")
	if age <= 0 {
		return fmt.Errorf("%w: --older-than must be positive", shared.ErrInvalidInput)
	}

	events, err := r.eventLog(ctx)
	if err != nil {
		return err
	}

	n, err := events.Prune(ctx, time.Now().Add(-age))
	if err != nil {
		return err
	}
	r.logger.Info("pruned session events", "count", n, "older_than", age)
	return r.writePlain("✓ Deleted %d events\n", n)
}

// EventsExport writes the event log, oldest first, in the requested format.
func (r *Runner) EventsExport(ctx context.Context, cmd *cli.Command) error {
	events, err := r.eventLog(ctx)
	if err != nil {
		return err
	}

	recent, err := events.Recent(ctx, cmd.Int("limit"))
	if err != nil {
		return err
	}
	slices.Reverse(recent)

	path, err := formatter.WriteExport(recent, cmd.String("format"), cmd.String("output"))
	if err != nil {
		return err
	}
	r.logger.Info("exported session events", "count", len(recent), "path", path)
	return r.writePlain("✓ Exported %d events to %s\n", len(recent), path)
}
