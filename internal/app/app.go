// Package app wires the credential store, usage monitor, and status server
// into one supervised session.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jrdx0/claudetray/internal/auth"
	"github.com/jrdx0/claudetray/internal/cache"
	"github.com/jrdx0/claudetray/internal/credentials"
	"github.com/jrdx0/claudetray/internal/monitor"
	"github.com/jrdx0/claudetray/internal/statusapi"
	"github.com/jrdx0/claudetray/internal/usage"
)

// App owns the long-running watch session: it loads stored credentials,
// polls usage, refreshes the access token when the provider reports it
// expired, and optionally serves the local status API.
type App struct {
	cfg        Config
	store      credentials.Store
	authorizer *auth.Authorizer
	monitor    *monitor.Monitor
	status     *statusapi.Server
	health     *Health
}

// New creates an App from the configuration.
func New(cfg Config) (*App, error) {
	store, err := cfg.Auth.NewTokenStore()
	if err != nil {
		return nil, fmt.Errorf("failed to create token store: %w", err)
	}

	health := NewHealth()

	a := &App{
		cfg:        cfg,
		store:      store,
		authorizer: auth.NewAuthorizer(auth.Endpoint, auth.RedirectURL),
		monitor:    monitor.New(usage.NewClient(), cfg.Monitor.Interval),
		health:     health,
	}

	if cfg.Status.Enabled {
		a.status = statusapi.New(health)
	}

	return a, nil
}

// Start runs the session and blocks until ctx is cancelled or a service
// fails. Uses errgroup for runtime error monitoring and shutdown function
// collection for coordinated cleanup.
func (a *App) Start(ctx context.Context) error {
	creds, err := a.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("no usable credentials, run 'claudetray auth login': %w", err)
	}

	g, gCtx := errgroup.WithContext(ctx)

	var shutdownFuncs []func(context.Context) error

	if a.status != nil {
		slog.InfoContext(gCtx, "starting status server", "addr", a.cfg.Status.Listen)
		statusErrCh, err := a.status.Start(gCtx, a.cfg.Status.Listen)
		if err != nil {
			return fmt.Errorf("status server startup failed: %w", err)
		}
		shutdownFuncs = append(shutdownFuncs, a.status.Shutdown)

		g.Go(func() error {
			select {
			case err := <-statusErrCh:
				if err != nil {
					slog.ErrorContext(gCtx, "status server runtime error", "error", err)
					return fmt.Errorf("status server: %w", err)
				}
				return nil
			case <-gCtx.Done():
				return nil
			}
		})
	}

	g.Go(func() error {
		a.monitor.Run(gCtx, creds.AccessToken)
		return nil
	})

	g.Go(func() error {
		a.pumpEvents(gCtx)
		return nil
	})

	runtimeErr := g.Wait()

	slog.InfoContext(gCtx, "shutting down services")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var errs []error
	if runtimeErr != nil {
		errs = append(errs, fmt.Errorf("runtime: %w", runtimeErr))
	}

	for i := len(shutdownFuncs) - 1; i >= 0; i-- {
		if err := shutdownFuncs[i](shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "service shutdown failed", "error", err)
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	slog.Info("application stopped")
	return nil
}

// pumpEvents consumes the monitor's event stream until ctx is cancelled.
func (a *App) pumpEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-a.monitor.Events():
			a.handleEvent(ctx, ev)
		}
	}
}

func (a *App) handleEvent(ctx context.Context, ev monitor.Event) {
	switch e := ev.(type) {
	case monitor.UsageUpdated:
		a.health.SetReady(true)
		if a.status != nil {
			a.status.SetUsage(e.Snapshot)
		}
		if err := cache.Write(e.Snapshot); err != nil {
			slog.WarnContext(ctx, "failed to write usage cache", "error", err)
		}
	case monitor.RefreshNeeded:
		a.refresh(ctx)
	case monitor.RefreshCompleted:
		slog.InfoContext(ctx, "access token refreshed")
	case monitor.LoginCompleted:
		slog.InfoContext(ctx, "login completed")
	case monitor.Error:
		slog.WarnContext(ctx, "monitor reported error", "message", e.Message)
	}
}

// refresh exchanges the stored refresh token for a new credential pair,
// persists it, and hands the new access token to the polling loop. Failures
// are reported as events and leave the previous credentials in place.
func (a *App) refresh(ctx context.Context) {
	creds, err := a.store.Load(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "cannot refresh, failed to load credentials", "error", err)
		a.monitor.Notify(ctx, monitor.Error{Message: fmt.Sprintf("token refresh failed: %v", err)})
		return
	}

	token, err := a.authorizer.Refresh(ctx, creds.RefreshToken)
	if err != nil {
		slog.ErrorContext(ctx, "token refresh failed", "error", err)
		a.monitor.Notify(ctx, monitor.Error{Message: fmt.Sprintf("token refresh failed: %v", err)})
		return
	}

	fresh := credentials.Credentials{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
	}

	if err := a.store.Save(ctx, fresh); err != nil {
		slog.ErrorContext(ctx, "failed to persist refreshed credentials", "error", err)
		a.monitor.Notify(ctx, monitor.Error{Message: fmt.Sprintf("failed to persist refreshed credentials: %v", err)})
		return
	}

	a.monitor.SetToken(fresh.AccessToken)
	a.monitor.Notify(ctx, monitor.RefreshCompleted{Credentials: fresh})
}
