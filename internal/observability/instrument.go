// Package observability configures the process-wide logger. Logs go to
// stdout as text or JSON, or to an OpenTelemetry collector when the otlp
// format is selected.
package observability

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"go.opentelemetry.io/otel/trace"
)

// Instrument installs the default slog logger for the given level and format.
// The returned shutdown func flushes any buffered log records and must be
// called before the process exits.
func Instrument(ctx context.Context, level slog.Level, logFormat string) (func(context.Context) error, error) {
	var (
		handler  slog.Handler
		shutdown = func(context.Context) error { return nil }
	)

	opts := &slog.HandlerOptions{Level: level}

	switch strings.ToLower(logFormat) {
	case "json":
		handler = slog.NewJSONHandler(os.Stdout, opts)
	case "text":
		handler = slog.NewTextHandler(os.Stdout, opts)
	case "otlp":
		var err error
		handler, shutdown, err = newOTelHandler(ctx, level)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported log format %q (expected: json, text, otlp)", logFormat)
	}

	slog.SetDefault(slog.New(newTraceContextHandler(handler)))

	return shutdown, nil
}

// traceContextHandler adds trace_id and span_id attributes to log records
// when the context carries a valid span, so logs can be correlated with
// traces emitted by callers.
type traceContextHandler struct {
	handler slog.Handler
}

func newTraceContextHandler(handler slog.Handler) *traceContextHandler {
	return &traceContextHandler{handler: handler}
}

func (h *traceContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

func (h *traceContextHandler) Handle(ctx context.Context, record slog.Record) error {
	spanCtx := trace.SpanContextFromContext(ctx)
	if spanCtx.IsValid() {
		record.AddAttrs(
			slog.String("trace_id", spanCtx.TraceID().String()),
			slog.String("span_id", spanCtx.SpanID().String()),
		)
	}

	return h.handler.Handle(ctx, record)
}

func (h *traceContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &traceContextHandler{handler: h.handler.WithAttrs(attrs)}
}

func (h *traceContextHandler) WithGroup(name string) slog.Handler {
	return &traceContextHandler{handler: h.handler.WithGroup(name)}
}
