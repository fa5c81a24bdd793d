// Package tracing bootstraps the OpenTelemetry tracer provider. When the
// Jaeger endpoint is unreachable the service keeps running with noop
// tracers.
package tracing

import (
	"github.com/roomkit/api/infrastructure/config"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/sdk/resource"
	tracesdk "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

func InitJaegerExporter(cfg *config.Config) (*tracesdk.TracerProvider, error) {
	exp, err := jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(cfg.Jaeger.Endpoint)))
	if err != nil {
		return nil, err
	}

	tp := tracesdk.NewTracerProvider(
		tracesdk.WithBatcher(exp),
		tracesdk.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(cfg.Jaeger.ServiceName),
			semconv.ServiceVersionKey.String(cfg.Jaeger.ServiceVersion),
		)),
	)

	otel.SetTracerProvider(tp)

	return tp, nil
}

// Tracer returns the globally configured tracer for a component.
func Tracer(name string) trace.Tracer {
	return otel.Tracer(name)
}

// NoopTracer is for tests and for running without an exporter.
func NoopTracer() trace.Tracer {
	return noop.NewTracerProvider().Tracer("noop")
}
