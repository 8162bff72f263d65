package main

import (
	"context"
	"errors"
	"os"

	"github.com/avalverde/butaca/internal/shared"
	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)
	if os.Getenv("BUTACA_DEBUG") != "" {
		shared.SetLogLevel(logger, log.DebugLevel)
	}

	config := shared.DefaultConfig()
	if _, err := os.Stat("config.toml"); err == nil {
		if loadedConfig, err := shared.LoadConfig("config.toml"); err == nil {
			config = loadedConfig
		}
	}

	runner := NewRunner(RunnerOpts{
		Config: config,
		Logger: logger,
	})
	defer runner.Close()

	app := &cli.Command{
		Name:     "butaca",
		Usage:    "Browse the movie catalog and manage your favorites",
		Version:  "0.3.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		switch {
		case errors.Is(err, shared.ErrNotLoggedIn):
			logger.Error("not logged in, run: butaca auth login")
			os.Exit(1)
		case errors.Is(err, shared.ErrNotConnected):
			logger.Error("no catalog account connected, run: butaca connect")
			os.Exit(1)
		default:
			logger.Fatalf("application error: %v", err)
		}
	}
}
