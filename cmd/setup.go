package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/playlistdl/internal/services"
	"github.com/desertthunder/playlistdl/internal/shared"
	"github.com/urfave/cli/v3"
)

// SetupConfig writes config.toml from the embedded example, optionally seeding credentials.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	if _, err := os.Stat(configPath); err == nil && !cmd.Bool("force") {
		return fmt.Errorf("%w: config file already exists at %s (use --force to overwrite)", shared.ErrInvalidInput, configPath)
	}

	config := shared.DefaultConfig()
	if id := cmd.String("client-id"); id != "" {
		config.Credentials.Spotify.ClientID = id
	}
	if secret := cmd.String("client-secret"); secret != "" {
		config.Credentials.Spotify.ClientSecret = secret
	}

	if config.Credentials.Spotify.ClientID == "" && config.Credentials.Spotify.ClientSecret == "" {
		os.Remove(configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			return err
		}
	} else if err := shared.SaveConfig(configPath, config); err != nil {
		return err
	}

	r.logger.Info("config file created", "path", configPath)
	r.writePlain("✓ Configuration written to %s\n", configPath)
	return nil
}

// SetupDatabase initializes the database and runs migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	config := r.config
	if _, err := os.Stat(configPath); err == nil {
		if config, err = shared.LoadConfig(configPath); err != nil {
			r.logger.Warn("failed to load config, using current settings", "error", err)
			config = r.config
		}
	} else {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			r.logger.Warn("failed to create config file", "error", err)
		}
	}

	r.logger.Info("initializing database", "path", config.Database.Path)

	db, err := shared.NewDatabase(config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	defer db.Close()

	shared.ConfigureDatabase(db, config.Database)

	if cmd.Bool("rollback") {
		if err := shared.RollbackMigration(db); err != nil {
			return fmt.Errorf("failed to roll back migration: %w", err)
		}
		r.writePlain("✓ Rolled back the latest migration on %s\n", config.Database.Path)
		return nil
	}

	r.logger.Info("running database migrations")
	if err := shared.RunMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	r.logger.Infof("setup complete for database: %v", config.Database.Path)
	r.writePlain("✓ Database ready at %s\n", config.Database.Path)
	return nil
}

// SetupYTDLP installs or updates the yt-dlp binary used by the default backend.
func (r *Runner) SetupYTDLP(ctx context.Context, cmd *cli.Command) error {
	if r.config.Extractor.Executable != "" {
		r.logger.Warn("extractor.executable is set; the installed binary will not be used", "executable", r.config.Extractor.Executable)
	}

	r.writePlain("Installing yt-dlp...\n")
	if err := services.InstallYTDLP(ctx, r.logger); err != nil {
		return err
	}
	r.writePlain("✓ yt-dlp is ready\n")
	return nil
}
