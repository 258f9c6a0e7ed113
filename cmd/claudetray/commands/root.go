// Package commands defines the claudetray CLI.
package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/jrdx0/claudetray/internal/app"
	"github.com/jrdx0/claudetray/internal/observability"
)

// Execute runs the root command with the given context and arguments.
func Execute(ctx context.Context, args []string, version, commit string) error {
	cmd := &cli.Command{
		Name:    "claudetray",
		Usage:   "Watch Claude subscription usage from the command line",
		Version: fmt.Sprintf("%s (commit %s)", version, commit),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "path to a TOML configuration file",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "log level (debug|info|warn|error)",
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "log format (text|json|otlp)",
			},
		},
		Commands: []*cli.Command{
			authCommand(),
			watchCommand(),
			statusCommand(),
		},
	}

	return cmd.Run(ctx, args)
}

// setup loads the configuration and installs the logger. The returned
// shutdown func flushes buffered log records.
func setup(ctx context.Context, cmd *cli.Command) (app.Config, func(context.Context) error, error) {
	cfg, err := loadConfig(cmd.String("config"), cmd, os.Environ)
	if err != nil {
		return app.Config{}, nil, fmt.Errorf("failed to load config: %w", err)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
		return app.Config{}, nil, err
	}

	shutdown, err := observability.Instrument(ctx, level, cfg.Log.Format)
	if err != nil {
		return app.Config{}, nil, fmt.Errorf("failed to set up observability layer: %w", err)
	}

	return cfg, shutdown, nil
}
