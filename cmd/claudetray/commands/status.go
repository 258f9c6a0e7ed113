package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/jrdx0/claudetray/internal/app"
	"github.com/jrdx0/claudetray/internal/cache"
	"github.com/jrdx0/claudetray/internal/usage"
)

// statusCommand returns the 'status' subcommand printing one usage snapshot.
func statusCommand() *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Print the current usage snapshot and exit",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "print the raw snapshot as JSON",
			},
			&cli.BoolFlag{
				Name:  "no-cache",
				Usage: "always fetch from the provider",
			},
		},
		Action: statusAction,
	}
}

func statusAction(ctx context.Context, cmd *cli.Command) error {
	cfg, shutdown, err := setup(ctx, cmd)
	if err != nil {
		return err
	}
	defer shutdown(context.Background()) //nolint:errcheck

	snapshot, err := currentSnapshot(ctx, cmd.Bool("no-cache"), cfg)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(snapshot)
	}

	printSnapshot(snapshot)
	return nil
}

// currentSnapshot serves from the cache when fresh, otherwise fetches from
// the provider with the stored access token and refills the cache.
func currentSnapshot(ctx context.Context, noCache bool, cfg app.Config) (*usage.Snapshot, error) {
	if !noCache {
		if entry, err := cache.Read(); err == nil && entry.IsValid() && entry.Snapshot != nil {
			return entry.Snapshot, nil
		}
	}

	store, err := cfg.Auth.NewTokenStore()
	if err != nil {
		return nil, fmt.Errorf("failed to create token store: %w", err)
	}

	creds, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("no usable credentials, run 'claudetray auth login': %w", err)
	}

	snapshot, err := usage.NewClient().Fetch(ctx, creds.AccessToken)
	if err != nil {
		return nil, err
	}

	if err := cache.Write(snapshot); err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to write usage cache: %v\n", err)
	}

	return snapshot, nil
}

func printSnapshot(s *usage.Snapshot) {
	printPeriod("5-hour window ", s.FiveHour)
	printPeriod("7-day window  ", s.SevenDay)
	if s.SevenDayOpus != nil {
		printPeriod("7-day (Opus)  ", *s.SevenDayOpus)
	}
	if s.SevenDaySonnet != nil {
		printPeriod("7-day (Sonnet)", *s.SevenDaySonnet)
	}
	if s.SevenDayOAuthApps != nil {
		printPeriod("7-day (apps)  ", *s.SevenDayOAuthApps)
	}

	if s.ExtraUsage.IsEnabled && s.ExtraUsage.UsedCredits != nil && s.ExtraUsage.MonthlyLimit != nil {
		fmt.Printf("extra usage     %d / %d credits\n",
			*s.ExtraUsage.UsedCredits, *s.ExtraUsage.MonthlyLimit)
	}
}

func printPeriod(label string, p usage.Period) {
	reset := ""
	if p.ResetsAt != nil {
		if t, err := time.Parse(time.RFC3339, *p.ResetsAt); err == nil {
			reset = fmt.Sprintf("  resets in %s", formatDuration(time.Until(t)))
		}
	}
	fmt.Printf("%s %5.1f%%%s\n", label, p.Utilization, reset)
}
