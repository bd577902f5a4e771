package main

import (
	"context"
	"errors"
	"net/http"
	"os"

	"github.com/deachawatss/pickbench/internal/services"
	"github.com/deachawatss/pickbench/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	config := shared.DefaultConfig()
	if _, err := os.Stat("config.toml"); err == nil {
		if loadedConfig, err := shared.LoadConfig("config.toml"); err == nil {
			config = loadedConfig
		}
	}

	backend := services.NewBackendService(config.API.BaseURL, &http.Client{Timeout: config.API.Timeout()})

	runner := NewRunner(RunnerOpts{
		Config:  config,
		Backend: backend,
		Logger:  logger,
	})
	defer runner.Shutdown()

	app := &cli.Command{
		Name:     "pickbench",
		Usage:    "Warehouse picking workstation client: scale streams & offline run cache",
		Version:  "0.3.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		err_ := errors.Unwrap(err)
		if errors.Is(err_, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			os.Exit(0)
		} else {
			logger.Fatalf("application error: %v", err)
		}
	}
}

func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Initialize the cache database and write a starter config",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
		},
		Action: r.Setup,
	}
}
