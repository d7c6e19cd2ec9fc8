package main

import (
	"context"
	"errors"
	"os"

	"github.com/desertthunder/playlistdl/internal/repositories"
	"github.com/desertthunder/playlistdl/internal/shared"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	logger := shared.NewLogger(nil)

	config := shared.DefaultConfig()
	if _, err := os.Stat("config.toml"); err == nil {
		if loadedConfig, err := shared.LoadConfig("config.toml"); err == nil {
			config = loadedConfig
		} else {
			logger.Warn("failed to load config, using defaults", "err", err)
		}
	}
	config.ApplyEnv()
	shared.SetLogLevel(logger, shared.ParseLogLevel(config.Log.Level))

	var history *repositories.DownloadRepository
	if config.Database.History {
		db, err := shared.OpenHistory(config.Database)
		if err != nil {
			logger.Warn("download history disabled", "err", err)
		} else {
			defer db.Close()
			history = repositories.NewDownloadRepository(db)
		}
	}

	runner := NewRunner(RunnerOpts{
		Config:      config,
		History:     history,
		Logger:      logger,
		Interactive: terminalAttached(),
	})

	app := newApp(runner)
	if err := app.Run(context.Background(), os.Args); err != nil {
		if errors.Is(err, shared.ErrNotImplemented) {
			logger.Warn("not implemented", "err", err)
			os.Exit(0)
		}
		logger.Fatalf("application error: %v", err)
	}
}
