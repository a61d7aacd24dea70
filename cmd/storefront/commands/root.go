package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/luxoras/storefront/internal/app"
	"github.com/luxoras/storefront/internal/observability"
	"github.com/luxoras/storefront/internal/session"
)

// Execute runs the root command with the given context and arguments.
func Execute(ctx context.Context, args []string) error {
	return rootCommand().Run(ctx, args)
}

func rootCommand() *cli.Command {
	return &cli.Command{
		Name:  "storefront",
		Usage: "Marketplace storefront: frontend server and session client",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to config file",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "log level (debug|info|warn|error)",
				Value: slog.LevelInfo.String(),
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "log format (text|json)",
				Value: string(app.DefaultConfigLogFormat),
			},
			&cli.StringFlag{
				Name:  "environment",
				Usage: "environment (production|development)",
				Value: string(app.DefaultConfigEnvironment),
			},
			&cli.StringFlag{
				Name:  "telemetry--exporter",
				Usage: "log exporter (none|stdout|otlp-http|otlp-grpc)",
				Value: string(app.DefaultConfigTelemetryExporter),
			},
			&cli.StringFlag{
				Name:  "api--base-url",
				Usage: "API base URL",
				Value: app.DefaultConfigAPIBaseURL,
			},
			&cli.StringFlag{
				Name:  "auth--storage",
				Usage: "token storage (memory|file|env|keyring|sqlite)",
				Value: string(app.DefaultConfigAuthStorage),
			},
		},
		Commands: []*cli.Command{
			serveCommand(),
			loginCommand(),
			logoutCommand(),
			refreshCommand(),
			verifyCommand(),
			whoamiCommand(),
			requestCommand(),
			listingsCommand(),
			bidsCommand(),
			configCommand(),
		},
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "run the frontend server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "server--host",
				Usage: "server host",
				Value: app.DefaultConfigServerHost,
			},
			&cli.IntFlag{
				Name:  "server--port",
				Usage: "server port",
				Value: int(app.DefaultConfigServerPort),
			},
			&cli.StringFlag{
				Name:  "server--public-url",
				Usage: "URL where browsers reach this server",
			},
		},
		Action: withConfig(serveAction),
	}
}

func serveAction(ctx context.Context, _ *cli.Command, cfg *app.Config) error {
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

type configAction func(ctx context.Context, cmd *cli.Command, cfg *app.Config) error

// withConfig loads the configuration and sets up observability before running action.
func withConfig(action configAction) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		cfg, err := loadConfig(cmd.String("config"), cmd, os.Environ)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		shutdown, err := observability.Instrument(ctx, cfg.LogLevel, string(cfg.LogFormat), cfg.Telemetry.Exporter)
		if err != nil {
			return fmt.Errorf("failed to set up observability layer: %w", err)
		}
		defer func() {
			if err := shutdown(context.WithoutCancel(ctx)); err != nil {
				slog.WarnContext(ctx, "observability shutdown failed", "error", err)
			}
		}()

		return action(ctx, cmd, cfg)
	}
}

type sessionAction func(ctx context.Context, cmd *cli.Command, sess *session.Manager) error

// withSession runs action with a session manager built from the configuration.
func withSession(action sessionAction) cli.ActionFunc {
	return withConfig(func(ctx context.Context, cmd *cli.Command, cfg *app.Config) error {
		sess, closer, err := app.NewSession(ctx, cfg)
		if err != nil {
			return fmt.Errorf("failed to create session: %w", err)
		}
		defer func() {
			if err := closer.Close(); err != nil {
				slog.WarnContext(ctx, "closing token store failed", "error", err)
			}
		}()

		return action(ctx, cmd, sess)
	})
}

// output returns the writer command results are printed to.
func output(cmd *cli.Command) io.Writer {
	if w := cmd.Root().Writer; w != nil {
		return w
	}
	return os.Stdout
}

func printJSON(cmd *cli.Command, v any) error {
	enc := json.NewEncoder(output(cmd))
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
