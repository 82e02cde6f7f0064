package main

import (
	"context"

	"github.com/adonese/apikit/config"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// initOTel installs the global tracer provider when tracing is configured.
// The returned shutdown flushes pending spans; it is nil when tracing is off.
func initOTel(ctx context.Context, cfg config.OtelConfig, logger *logrus.Logger) func(context.Context) error {
	if !cfg.Enabled && cfg.Endpoint == "" {
		return nil
	}

	opts := []otlptracegrpc.Option{}
	if cfg.Endpoint != "" {
		opts = append(opts, otlptracegrpc.WithEndpoint(cfg.Endpoint))
	}
	if cfg.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}
	exporter, err := otlptracegrpc.New(ctx, opts...)
	if err != nil {
		logger.WithError(err).Warn("otel trace exporter init failed")
		return nil
	}

	res, err := resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceNameKey.String(cfg.ServiceName),
		semconv.ServiceVersionKey.String(cfg.ServiceVersion),
	))
	if err != nil {
		logger.WithError(err).Warn("otel resource init failed")
	}

	sampleRate := clamp01(cfg.SampleRate)
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(sampleRate))),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	logger.WithFields(logrus.Fields{
		"endpoint":    cfg.Endpoint,
		"sample_rate": sampleRate,
		"service":     cfg.ServiceName,
		"insecure":    cfg.Insecure,
	}).Info("otel tracing enabled")
	return tp.Shutdown
}

func clamp01(v float64) float64 {
	if v <= 0 {
		return 0.1
	}
	if v > 1 {
		return 1
	}
	return v
}
