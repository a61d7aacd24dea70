// Package observability sets up process-wide logging and optional OpenTelemetry log export.
package observability

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	slogmulti "github.com/samber/slog-multi"
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/contrib/processors/minsev"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutlog"
	"go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/propagation"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// ServiceName identifies this process in exported telemetry.
const ServiceName = "storefront"

// Exporter selects where log records are exported in addition to stderr.
type Exporter string

const (
	ExporterNone     Exporter = "none"
	ExporterStdout   Exporter = "stdout"
	ExporterOTLPHTTP Exporter = "otlp-http"
	ExporterOTLPGRPC Exporter = "otlp-grpc"
)

// ShutdownFunc flushes and stops the telemetry pipeline.
type ShutdownFunc func(context.Context) error

// Instrument installs the default slog logger writing to stderr in the given format and, unless
// exporter is ExporterNone or empty, a log pipeline exporting the same records through
// OpenTelemetry. OTLP exporters are configured by the standard OTEL_EXPORTER_OTLP_* variables.
func Instrument(ctx context.Context, level slog.Level, format string, exporter Exporter) (ShutdownFunc, error) {
	console, err := newConsoleHandler(os.Stderr, level, format)
	if err != nil {
		return nil, err
	}

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	if exporter == "" || exporter == ExporterNone {
		slog.SetDefault(slog.New(withTraceIDs(console)))
		return func(context.Context) error { return nil }, nil
	}

	logExporter, err := newExporter(ctx, exporter)
	if err != nil {
		return nil, err
	}

	processor := minsev.NewLogProcessor(sdklog.NewBatchProcessor(logExporter), severity{level})
	provider := sdklog.NewLoggerProvider(sdklog.WithProcessor(processor))
	global.SetLoggerProvider(provider)

	bridge := otelslog.NewHandler(ServiceName, otelslog.WithLoggerProvider(provider))
	slog.SetDefault(slog.New(slogmulti.Fanout(withTraceIDs(console), bridge)))

	return func(ctx context.Context) error {
		if err := provider.Shutdown(ctx); err != nil {
			return fmt.Errorf("shutting down log provider: %w", err)
		}
		return nil
	}, nil
}

func newConsoleHandler(w io.Writer, level slog.Level, format string) (slog.Handler, error) {
	opts := &slog.HandlerOptions{Level: level}
	switch format {
	case "", "text":
		return slog.NewTextHandler(w, opts), nil
	case "json":
		return slog.NewJSONHandler(w, opts), nil
	default:
		return nil, fmt.Errorf("unsupported log format: %s", format)
	}
}

func newExporter(ctx context.Context, exporter Exporter) (sdklog.Exporter, error) {
	switch exporter {
	case ExporterStdout:
		return stdoutlog.New(stdoutlog.WithWriter(os.Stdout))
	case ExporterOTLPHTTP:
		return otlploghttp.New(ctx)
	case ExporterOTLPGRPC:
		return otlploggrpc.New(ctx)
	default:
		return nil, errors.New("unsupported telemetry exporter: " + string(exporter))
	}
}

// severity maps a slog level to the minimum OpenTelemetry severity that is exported.
type severity struct {
	level slog.Leveler
}

var _ minsev.Severitier = severity{}

func (s severity) Severity() log.Severity {
	switch l := s.level.Level(); {
	case l < slog.LevelInfo:
		return log.SeverityDebug
	case l < slog.LevelWarn:
		return log.SeverityInfo
	case l < slog.LevelError:
		return log.SeverityWarn
	default:
		return log.SeverityError
	}
}
