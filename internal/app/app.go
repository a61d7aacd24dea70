package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/luxoras/storefront/internal/api"
	"github.com/luxoras/storefront/internal/server"
)

// App orchestrates the lifecycle of the frontend server and related services.
type App struct {
	cfg    *Config
	server *server.Server
}

// New creates a new App instance.
func New(cfg *Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	// Server-side calls carry the browser's token; no cookie jar is shared between users.
	client, err := NewAPIClient(cfg, api.ResolveBaseURL(false, cfg.API.BaseURL, ""), nil)
	if err != nil {
		return nil, err
	}

	opts := []server.Option{
		server.WithDevelopment(cfg.Development()),
		server.WithLandingPaths(cfg.Server.SuccessPath, cfg.Server.FailurePath),
	}
	if cfg.API.DevBaseURL != "" {
		devClient, err := NewAPIClient(cfg, api.ResolveBaseURL(true, cfg.API.BaseURL, cfg.API.DevBaseURL), nil)
		if err != nil {
			return nil, err
		}
		opts = append(opts, server.WithDevelopmentClient(devClient))
		if cfg.Development() {
			client = devClient
		}
	}

	frontend, err := server.New(client, cfg.Cookie.Codec(cfg.Environment), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create server: %w", err)
	}

	return &App{
		cfg:    cfg,
		server: frontend,
	}, nil
}

// Start starts all services and blocks until shutdown is triggered.
// Uses errgroup for runtime error monitoring and shutdown function collection for coordinated cleanup.
func (a *App) Start(ctx context.Context) error {
	g, gCtx := errgroup.WithContext(ctx)

	address := a.cfg.Server.Host + ":" + strconv.FormatUint(uint64(a.cfg.Server.Port), 10)
	var shutdownFuncs []func(context.Context) error

	// Startup phase: Start services
	slog.InfoContext(gCtx, "starting frontend server", "address", address, "api", a.cfg.APIBaseURL())
	serverErrCh, err := a.server.Start(gCtx, address)
	if err != nil {
		return fmt.Errorf("server startup failed: %w", err)
	}
	shutdownFuncs = append(shutdownFuncs, a.server.Shutdown)

	// Monitor runtime errors - errgroup cancels context on first error
	g.Go(func() error {
		select {
		case err := <-serverErrCh:
			if err != nil {
				slog.ErrorContext(gCtx, "server runtime error", "error", err)
				return fmt.Errorf("server: %w", err)
			}
			return nil
		case <-gCtx.Done():
			return nil
		}
	})

	slog.InfoContext(gCtx, "application ready", "address", address)

	runtimeErr := g.Wait()

	slog.InfoContext(gCtx, "shutting down services")

	// Shutdown phase: Stop all services
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Shutdown.Timeout)
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
