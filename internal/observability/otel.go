package observability

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/contrib/processors/minsev"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutlog"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

const loggerName = "claudetray"

// newOTelHandler builds a slog handler backed by an OpenTelemetry logger
// provider. The exporter is chosen from the standard OTEL_EXPORTER_OTLP_*
// environment variables; without an endpoint, records are pretty-printed to
// stdout so the otlp format stays usable in development.
func newOTelHandler(ctx context.Context, level slog.Level) (slog.Handler, func(context.Context) error, error) {
	exporter, err := newLogExporter(ctx)
	if err != nil {
		return nil, nil, err
	}

	processor := minsev.NewLogProcessor(
		sdklog.NewBatchProcessor(exporter),
		severityFrom(level),
	)

	provider := sdklog.NewLoggerProvider(sdklog.WithProcessor(processor))

	handler := otelslog.NewHandler(loggerName, otelslog.WithLoggerProvider(provider))

	return handler, provider.Shutdown, nil
}

func newLogExporter(ctx context.Context) (sdklog.Exporter, error) {
	if os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT") == "" {
		return stdoutlog.New(stdoutlog.WithPrettyPrint())
	}

	protocol := strings.ToLower(os.Getenv("OTEL_EXPORTER_OTLP_PROTOCOL"))
	switch protocol {
	case "grpc":
		return otlploggrpc.New(ctx)
	case "", "http/protobuf":
		return otlploghttp.New(ctx)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q (expected: grpc, http/protobuf)", protocol)
	}
}

func severityFrom(level slog.Level) minsev.Severity {
	switch {
	case level <= slog.LevelDebug:
		return minsev.SeverityDebug
	case level <= slog.LevelInfo:
		return minsev.SeverityInfo
	case level <= slog.LevelWarn:
		return minsev.SeverityWarn
	default:
		return minsev.SeverityError
	}
}
