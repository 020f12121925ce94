// Package tracing wires routemodel spans to an OTLP collector. Without a
// collector endpoint every span is a no-op.
package tracing

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Service and instrumentation names reported with every span
const (
	ServiceName = "routemodel"
	TracerName  = "github.com/NERVsystems/routemodel"
)

// Tracer starts every routemodel span. Setup replaces it.
var Tracer trace.Tracer = noop.NewTracerProvider().Tracer(TracerName)

// Config selects where spans go.
type Config struct {
	// Endpoint is the OTLP gRPC collector; empty keeps tracing off
	Endpoint string
	// Insecure talks plaintext gRPC to the collector
	Insecure bool
	// SampleRatio is the share of root traces kept, clamped to [0, 1]
	SampleRatio float64
	// Environment is reported as deployment.environment
	Environment string
	// Version is reported as service.version
	Version string
}

// ConfigFromEnv builds a Config from the standard OTEL_* variables.
// OTLP_ENDPOINT and ENVIRONMENT are accepted as fallbacks.
func ConfigFromEnv(version string) Config {
	cfg := Config{
		Endpoint:    firstEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "OTLP_ENDPOINT"),
		Insecure:    firstEnv("OTEL_EXPORTER_OTLP_INSECURE") != "false",
		SampleRatio: 1,
		Environment: firstEnv("DEPLOYMENT_ENVIRONMENT", "ENVIRONMENT"),
		Version:     version,
	}
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if v := firstEnv("OTEL_TRACES_SAMPLER_ARG"); v != "" {
		if ratio, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.SampleRatio = ratio
		}
	}
	return cfg
}

func firstEnv(names ...string) string {
	for _, name := range names {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}

// Setup installs the tracer described by cfg. The returned func flushes
// pending spans and must be called before exit.
func Setup(ctx context.Context, cfg Config) (func(context.Context) error, error) {
	if cfg.Endpoint == "" {
		Tracer = noop.NewTracerProvider().Tracer(TracerName)
		return func(context.Context) error { return nil }, nil
	}

	clientOpts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		clientOpts = append(clientOpts, otlptracegrpc.WithInsecure())
	}
	exporter, err := otlptrace.New(ctx, otlptracegrpc.NewClient(clientOpts...))
	if err != nil {
		return nil, fmt.Errorf("otlp exporter for %s: %w", cfg.Endpoint, err)
	}

	res, err := resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(ServiceName),
		semconv.ServiceVersion(cfg.Version),
		semconv.DeploymentEnvironment(cfg.Environment),
	))
	if err != nil {
		return nil, fmt.Errorf("trace resource: %w", err)
	}

	ratio := min(max(cfg.SampleRatio, 0), 1)
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	Tracer = tp.Tracer(TracerName)

	return func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return tp.Shutdown(ctx)
	}, nil
}

// StartSpan starts a span on the routemodel tracer
func StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return Tracer.Start(ctx, name, opts...)
}

// recording returns the span in ctx when it is being recorded
func recording(ctx context.Context) (trace.Span, bool) {
	span := trace.SpanFromContext(ctx)
	return span, span.IsRecording()
}

// RecordError attaches err to the current span
func RecordError(ctx context.Context, err error, opts ...trace.EventOption) {
	if span, ok := recording(ctx); ok {
		span.RecordError(err, opts...)
	}
}

// AddEvent marks a point in the current span
func AddEvent(ctx context.Context, name string, opts ...trace.EventOption) {
	if span, ok := recording(ctx); ok {
		span.AddEvent(name, opts...)
	}
}

// SetAttributes annotates the current span
func SetAttributes(ctx context.Context, attrs ...attribute.KeyValue) {
	if span, ok := recording(ctx); ok {
		span.SetAttributes(attrs...)
	}
}
