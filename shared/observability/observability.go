package observability

import (
	"context"
	"fmt"
	"io"

	"go.opentelemetry.io/otel"
	otelprometheus "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// ShutdownFunc flushes and stops a provider
type ShutdownFunc func(ctx context.Context) error

func noopShutdown(context.Context) error { return nil }

func newResource(serviceName string) (*resource.Resource, error) {
	return resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
		),
	)
}

// SetupTracing installs a global tracer provider exporting spans to w.
// When disabled the global no-op provider is left in place.
func SetupTracing(serviceName string, enabled bool, w io.Writer) (ShutdownFunc, error) {
	if !enabled {
		return noopShutdown, nil
	}

	exp, err := stdouttrace.New(stdouttrace.WithWriter(w))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize stdouttrace exporter: %w", err)
	}

	res, err := newResource(serviceName)
	if err != nil {
		return nil, fmt.Errorf("failed to build resource: %w", err)
	}

	provider := trace.NewTracerProvider(
		trace.WithBatcher(exp),
		trace.WithResource(res),
	)
	otel.SetTracerProvider(provider)
	return provider.Shutdown, nil
}

// SetupMetrics installs a global meter provider whose instruments are exported through
// the default Prometheus registry, next to the HTTP metrics below
func SetupMetrics(serviceName string, enabled bool) (ShutdownFunc, error) {
	if !enabled {
		return noopShutdown, nil
	}

	exp, err := otelprometheus.New()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize prometheus exporter: %w", err)
	}

	res, err := newResource(serviceName)
	if err != nil {
		return nil, fmt.Errorf("failed to build resource: %w", err)
	}

	provider := metric.NewMeterProvider(
		metric.WithReader(exp),
		metric.WithResource(res),
	)
	otel.SetMeterProvider(provider)
	return provider.Shutdown, nil
}
