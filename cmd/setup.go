package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/desertthunder/sesh/internal/shared"
	"github.com/urfave/cli/v3"
)

// SetupDatabase creates the config file when missing, then initializes the database and runs migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	if _, err := os.Stat(configPath); err != nil {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			r.logger.Warn("failed to create config file, using defaults", "error", err)
		} else {
			r.logger.Info("config file created", "path", configPath)
		}
	}

	conf := r.config.Database
	r.logger.Info("initializing database", "path", conf.Path)

	db, err := shared.NewDatabase(conf.Path)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	defer db.Close()

	shared.ConfigureDatabase(db, conf.MaxOpenConns, conf.MaxIdleConns)

	r.logger.Info("running database migrations")
	if err := shared.RunMigrationsContext(ctx, db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	r.logger.Infof("setup complete for database: %v", conf.Path)
	return r.writePlain("✓ Database ready at %s\n", conf.Path)
}

// SetupRollback rolls back the most recent migration.
func (r *Runner) SetupRollback(ctx context.Context, cmd *cli.Command) error {
	conf := r.config.Database

	db, err := shared.NewDatabase(conf.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := shared.RollbackMigrationContext(ctx, db); err != nil {
		return fmt.Errorf("failed to roll back migration: %w", err)
	}
	r.logger.Info("rolled back latest migration", "path", conf.Path)
	return r.writePlain("✓ Rolled back latest migration\n")
}

// SetupStatus lists every migration and whether it has been applied.
func (r *Runner) SetupStatus(ctx context.Context, cmd *cli.Command) error {
	conf := r.config.Database

	db, err := shared.NewDatabase(conf.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	states, err := shared.MigrationStatus(ctx, db)
	if err != nil {
		return err
	}

	r.writePlainHeader(fmt.Sprintf("Migrations (%s)", conf.Path))
	for _, s := range states {
		if s.Applied() {
			r.writePlain("✓ %04d %-28s applied %s\n", s.Version, s.Name, s.AppliedAt.Local().Format(time.DateTime))
		} else {
			r.writePlain("✗ %04d %-28s pending\n", s.Version, s.Name)
		}
	}
	return nil
}
