package telemetry

import (
	"context"

	"mentoring-svc/src/internal/config"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// Setup installs a global tracer provider exporting to the configured collector.
// The returned func flushes and stops it; it is a no-op when tracing is off.
func Setup(cfg *config.Configuration) func(context.Context) error {
	noop := func(context.Context) error { return nil }

	if cfg.Tracing.Endpoint == "" {
		logrus.Debug("Tracing disabled")
		return noop
	}

	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.Tracing.Endpoint)}
	if cfg.Tracing.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}

	exporter, err := otlptracegrpc.New(context.Background(), opts...)
	if err != nil {
		logrus.WithError(err).Warn("Failed to create trace exporter")
		return noop
	}

	res, err := resource.New(context.Background(), resource.WithAttributes(
		semconv.ServiceName(cfg.App.Name),
		semconv.ServiceVersion(cfg.App.Version),
	))
	if err != nil {
		logrus.WithError(err).Warn("Failed to build trace resource")
	}

	provider := trace.NewTracerProvider(
		trace.WithBatcher(exporter),
		trace.WithResource(res),
	)
	otel.SetTracerProvider(provider)

	logrus.WithField("endpoint", cfg.Tracing.Endpoint).Info("Tracing enabled")
	return provider.Shutdown
}
