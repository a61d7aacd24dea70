package observability

import (
	"context"
	"log/slog"

	slogmulti "github.com/samber/slog-multi"
	"go.opentelemetry.io/otel/trace"
)

// withTraceIDs wraps h so records logged with a span in the context carry trace_id and span_id.
func withTraceIDs(h slog.Handler) slog.Handler {
	return slogmulti.Pipe(slogmulti.NewHandleInlineMiddleware(addTraceIDs)).Handler(h)
}

func addTraceIDs(ctx context.Context, r slog.Record, next func(context.Context, slog.Record) error) error {
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		r = r.Clone()
		r.AddAttrs(
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		)
	}
	return next(ctx, r)
}
