package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/urfave/cli/v3"

	"github.com/jrdx0/claudetray/internal/app"
)

// watchCommand returns the 'watch' subcommand running the polling session.
func watchCommand() *cli.Command {
	return &cli.Command{
		Name:   "watch",
		Usage:  "Poll usage continuously and serve the local status API",
		Action: watchAction,
	}
}

func watchAction(ctx context.Context, cmd *cli.Command) error {
	cfg, shutdown, err := setup(ctx, cmd)
	if err != nil {
		return err
	}
	defer shutdown(context.Background()) //nolint:errcheck

	application, err := app.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to create app: %w", err)
	}

	slog.InfoContext(ctx, "starting")

	if err := application.Start(ctx); err != nil {
		return fmt.Errorf("app failed to start: %w", err)
	}

	slog.InfoContext(ctx, "stopped gracefully")
	return nil
}
