package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/sesh/internal/shared"
	"github.com/desertthunder/sesh/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive session dashboard.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(r.config.Log.File)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	shared.SetLogLevel(fileLogger, r.logger.GetLevel())
	r.SetLogger(fileLogger)

	bridge := ui.NewBridge()
	ctrl, err := r.session(ctx, bridge, bridge)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer func() {
		cancel()
		ctrl.Wait()
	}()
	ctrl.StartMonitor(ctx)

	opts := ui.Options{
		Session:       ctrl,
		Bridge:        bridge,
		ProtectedPath: r.config.API.ProtectedPath,
	}
	if stores, err := r.openStores(ctx); err == nil && stores.Events != nil {
		opts.Events = stores.Events.Recent
	}

	p := tea.NewProgram(ui.NewModel(ctx, opts), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
