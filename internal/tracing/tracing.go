// Package tracing configures the OpenTelemetry tracer provider.
//
// With no OTLP endpoint configured a noop provider is installed, so spans
// started anywhere in the server cost nothing.
package tracing

import (
	"context"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// ServiceName identifies this server in traces.
const ServiceName = "carevia-foundation"

// Config holds tracer settings.
type Config struct {
	EndpointURL string  // OTLP HTTP endpoint, e.g. http://localhost:4318
	SampleRatio float64 // 0 disables sampling, >= 1 samples everything
	Env         string  // deployment.environment resource attribute
	Insecure    bool
}

var (
	tracerProvider   *sdktrace.TracerProvider
	tracerProviderMu sync.Mutex
)

// Init installs the global tracer provider and propagator.
// Returns whether an exporting provider was installed.
func Init(ctx context.Context, cfg Config) (bool, error) {
	tracerProviderMu.Lock()
	defer tracerProviderMu.Unlock()

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	if cfg.EndpointURL == "" {
		otel.SetTracerProvider(noop.NewTracerProvider())
		return false, nil
	}

	opts := []otlptracehttp.Option{otlptracehttp.WithEndpointURL(cfg.EndpointURL)}
	if cfg.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	exporter, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return false, fmt.Errorf("failed to create OTLP HTTP exporter: %w", err)
	}

	res, err := resource.New(ctx, resource.WithAttributes(
		attribute.String("service.name", ServiceName),
		attribute.String("deployment.environment", cfg.Env),
	))
	if err != nil {
		return false, fmt.Errorf("failed to create resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler(cfg.SampleRatio)),
	)
	otel.SetTracerProvider(tp)
	tracerProvider = tp
	return true, nil
}

func sampler(ratio float64) sdktrace.Sampler {
	switch {
	case ratio <= 0:
		return sdktrace.NeverSample()
	case ratio >= 1:
		return sdktrace.AlwaysSample()
	default:
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))
	}
}

// Shutdown flushes pending spans. Safe to call when Init installed the noop provider.
func Shutdown(ctx context.Context) error {
	tracerProviderMu.Lock()
	defer tracerProviderMu.Unlock()

	if tracerProvider == nil {
		return nil
	}
	if err := tracerProvider.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown tracer provider: %w", err)
	}
	tracerProvider = nil
	return nil
}

// Tracer returns a named tracer from the global provider.
func Tracer(name string) trace.Tracer {
	return otel.Tracer(name)
}
