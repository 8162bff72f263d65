package main

import (
	"context"
	"fmt"
	"os"

	"github.com/avalverde/butaca/internal/shared"
	"github.com/urfave/cli/v3"
)

// Setup creates the config file when absent, then initializes the database
// and runs migrations.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	if _, err := os.Stat(configPath); err == nil {
		config, err := shared.LoadConfig(configPath)
		if err != nil {
			r.logger.Warn("failed to load config, using defaults", "error", err)
		} else {
			r.config = config
		}
	} else {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			r.logger.Warn("failed to create config file, using defaults", "error", err)
		} else {
			r.logger.Info("config file created", "path", configPath)
			if config, err := shared.LoadConfig(configPath); err == nil {
				r.config = config
			}
		}
	}

	if appKey := cmd.String("app-key"); appKey != "" {
		r.config.Catalog.AppKey = appKey
		if err := shared.SaveConfig(configPath, r.config); err != nil {
			return fmt.Errorf("failed to save catalog app key: %w", err)
		}
		r.logger.Info("catalog app key saved", "path", configPath)
	}

	r.logger.Info("initializing database", "path", r.config.Database.Path)

	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)
	r.db = db

	r.logger.Info("running database migrations")
	if err := shared.RunMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	r.logger.Infof("setup complete for database: %v", r.config.Database.Path)
	r.writePlain("✓ Setup complete\n")
	r.writePlain("Next: butaca auth login --email you@example.com\n")
	return nil
}
