package main

import (
	"context"
	"fmt"
	"os"

	"github.com/deachawatss/pickbench/internal/shared"
	"github.com/urfave/cli/v3"
)

// Setup initializes the cache database and writes a starter config file.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := shared.CreateConfigFile(configPath); err != nil {
			return fmt.Errorf("failed to create config file: %w", err)
		}
		r.logger.Info("created config file", "path", configPath)
		r.writePlainln("✓ Config written to %s; edit it for your station", configPath)
	} else {
		r.logger.Info("config file already exists", "path", configPath)
	}

	if _, err := r.openCache(); err != nil {
		return err
	}

	r.logger.Info("cache database ready", "path", r.config.Cache.Path)
	r.writePlainln("✓ Cache database initialized at %s", r.config.Cache.Path)

	return nil
}
