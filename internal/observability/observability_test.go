package observability

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	slogmulti "github.com/samber/slog-multi"
	"go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/trace"
)

func TestConsoleHandlerFormats(t *testing.T) {
	tests := []struct {
		format string
		want   string
	}{
		{format: "text", want: "msg=hello"},
		{format: "json", want: `"msg":"hello"`},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			var buf bytes.Buffer
			h, err := newConsoleHandler(&buf, slog.LevelInfo, tt.format)
			if err != nil {
				t.Fatalf("newConsoleHandler: %v", err)
			}
			slog.New(h).Info("hello")
			if !strings.Contains(buf.String(), tt.want) {
				t.Errorf("output %q does not contain %q", buf.String(), tt.want)
			}
		})
	}

	if _, err := newConsoleHandler(&bytes.Buffer{}, slog.LevelInfo, "xml"); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestWithTraceIDs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(withTraceIDs(slog.NewTextHandler(&buf, nil)))

	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID: trace.TraceID{0x01, 0x02, 0x03},
		SpanID:  trace.SpanID{0x0a},
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	logger.InfoContext(ctx, "traced")
	logger.InfoContext(context.Background(), "untraced")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), buf.String())
	}
	if !strings.Contains(lines[0], "trace_id="+sc.TraceID().String()) || !strings.Contains(lines[0], "span_id="+sc.SpanID().String()) {
		t.Errorf("traced line missing ids: %q", lines[0])
	}
	if strings.Contains(lines[1], "trace_id") {
		t.Errorf("untraced line has trace id: %q", lines[1])
	}
}

func TestFanoutRespectsLevels(t *testing.T) {
	var debug, warn bytes.Buffer
	logger := slog.New(slogmulti.Fanout(
		withTraceIDs(slog.NewTextHandler(&debug, &slog.HandlerOptions{Level: slog.LevelDebug})),
		slog.NewTextHandler(&warn, &slog.HandlerOptions{Level: slog.LevelWarn}),
	)).With("component", "test")

	logger.Debug("details")
	logger.Warn("careful")

	if !strings.Contains(debug.String(), "details") || !strings.Contains(debug.String(), "careful") {
		t.Errorf("debug handler output = %q", debug.String())
	}
	if strings.Contains(warn.String(), "details") || !strings.Contains(warn.String(), "component=test") {
		t.Errorf("warn handler output = %q", warn.String())
	}
}

func TestSeverityMapping(t *testing.T) {
	tests := map[slog.Level]log.Severity{
		slog.LevelDebug: log.SeverityDebug,
		slog.LevelInfo:  log.SeverityInfo,
		slog.LevelWarn:  log.SeverityWarn,
		slog.LevelError: log.SeverityError,
	}
	for level, want := range tests {
		if got := (severity{level}).Severity(); got != want {
			t.Errorf("severity(%v) = %v, want %v", level, got, want)
		}
	}
}

func TestInstrumentRejectsUnknownExporter(t *testing.T) {
	if _, err := Instrument(context.Background(), slog.LevelInfo, "text", Exporter("kafka")); err == nil {
		t.Error("expected error for unsupported exporter")
	}
}

func TestInstrumentWithStdoutExporter(t *testing.T) {
	previous := slog.Default()
	t.Cleanup(func() { slog.SetDefault(previous) })

	shutdown, err := Instrument(context.Background(), slog.LevelInfo, "json", ExporterStdout)
	if err != nil {
		t.Fatalf("Instrument: %v", err)
	}
	slog.Info("exported")
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("shutdown: %v", err)
	}
}
