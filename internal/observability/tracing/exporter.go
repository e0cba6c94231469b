package tracing

import (
	"context"
	"fmt"
	"os"
	"strings"

	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// EnvTracesExporter selects the span exporter: "none" (default), "otlp" or "stdout".
// The OTLP exporter reads the standard OTEL_EXPORTER_OTLP_* variables itself.
const EnvTracesExporter = "OTEL_TRACES_EXPORTER"

// ExporterFromEnv returns the provider options for the exporter named by
// OTEL_TRACES_EXPORTER. With no exporter spans are still created and
// propagated but never leave the process.
func ExporterFromEnv(ctx context.Context) ([]sdktrace.TracerProviderOption, error) {
	kind := strings.ToLower(strings.TrimSpace(os.Getenv(EnvTracesExporter)))

	switch kind {
	case "", "none":
		return nil, nil
	case "otlp":
		exp, err := otlptracehttp.New(ctx)
		if err != nil {
			return nil, fmt.Errorf("otlp exporter: %w", err)
		}
		return []sdktrace.TracerProviderOption{sdktrace.WithBatcher(exp)}, nil
	case "stdout":
		exp, err := stdouttrace.New(stdouttrace.WithWriter(os.Stdout))
		if err != nil {
			return nil, fmt.Errorf("stdout exporter: %w", err)
		}
		return []sdktrace.TracerProviderOption{sdktrace.WithSyncer(exp)}, nil
	default:
		return nil, fmt.Errorf("unknown %s %q", EnvTracesExporter, kind)
	}
}
