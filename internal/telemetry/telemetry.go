// Package telemetry wires up OpenTelemetry tracing for the CLI process.
// It follows the standard Go SDK initialization shape (resource + batch
// span processor + OTLP/gRPC exporter), kept entirely optional: with no
// endpoint configured, Init installs a no-op tracer provider and the CLI
// runs exactly as it would without this package, matching the teacher's
// own stance that observability plumbing must never gate functionality.
package telemetry

import (
	"context"
	"fmt"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// EndpointEnvVar is the standard OTLP endpoint variable; an empty value
// disables tracing entirely.
const EndpointEnvVar = "OTEL_EXPORTER_OTLP_ENDPOINT"

// Shutdown flushes and releases the tracer provider installed by Init.
type Shutdown func(context.Context) error

// Init installs a global tracer provider for serviceName. When
// OTEL_EXPORTER_OTLP_ENDPOINT is unset, it installs otel's built-in no-op
// provider and returns a no-op Shutdown, so callers can unconditionally
// defer the result.
func Init(ctx context.Context, serviceName string) (Shutdown, error) {
	endpoint := os.Getenv(EndpointEnvVar)
	if endpoint == "" {
		otel.SetTracerProvider(noop.NewTracerProvider())
		return func(context.Context) error { return nil }, nil
	}

	conn, err := grpc.NewClient(endpoint, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("telemetry: dialing OTLP endpoint %q: %w", endpoint, err)
	}

	exporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		return nil, fmt.Errorf("telemetry: creating OTLP exporter: %w", err)
	}

	res, err := resource.New(ctx, resource.WithAttributes(
		attribute.String("service.name", serviceName),
	))
	if err != nil {
		return nil, fmt.Errorf("telemetry: building resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	return func(shutdownCtx context.Context) error {
		return tp.Shutdown(shutdownCtx)
	}, nil
}

// Tracer returns a tracer for name, honoring whatever provider Init
// installed (real or no-op).
func Tracer(name string) trace.Tracer {
	return otel.Tracer(name)
}
