// Package metrics exposes the orchestrator's OpenTelemetry instruments,
// scraped via a Prometheus exporter bridge on /metrics.
package metrics

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

const meterName = "github.com/pitchloop-ai/session-orchestrator"

var latencyBuckets = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60}

// Metrics holds every instrument the orchestrator records against. All
// fields are safe for concurrent use.
type Metrics struct {
	ActiveSessions   metric.Int64UpDownCounter
	SessionsStarted  metric.Int64Counter
	SessionsEnded    metric.Int64Counter
	AutoStops        metric.Int64Counter

	TranscriptionDuration metric.Float64Histogram
	SuggestionDuration    metric.Float64Histogram
	FinalizeDuration      metric.Float64Histogram

	ProviderErrors metric.Int64Counter
}

// New creates a fully initialized Metrics using the given MeterProvider.
func New(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	met := &Metrics{}
	var err error

	if met.ActiveSessions, err = m.Int64UpDownCounter("orchestrator.active_sessions",
		metric.WithDescription("Number of sessions currently attached.")); err != nil {
		return nil, err
	}
	if met.SessionsStarted, err = m.Int64Counter("orchestrator.sessions.started",
		metric.WithDescription("Total sessions started.")); err != nil {
		return nil, err
	}
	if met.SessionsEnded, err = m.Int64Counter("orchestrator.sessions.ended",
		metric.WithDescription("Total sessions ended, by reason.")); err != nil {
		return nil, err
	}
	if met.AutoStops, err = m.Int64Counter("orchestrator.sessions.auto_stopped",
		metric.WithDescription("Total sessions ended by the inactivity watchdog.")); err != nil {
		return nil, err
	}
	if met.TranscriptionDuration, err = m.Float64Histogram("orchestrator.transcription.duration",
		metric.WithDescription("Latency of a transcription provider call."),
		metric.WithUnit("s"), metric.WithExplicitBucketBoundaries(latencyBuckets...)); err != nil {
		return nil, err
	}
	if met.SuggestionDuration, err = m.Float64Histogram("orchestrator.suggestion.duration",
		metric.WithDescription("Latency of a next-question suggestion generation."),
		metric.WithUnit("s"), metric.WithExplicitBucketBoundaries(latencyBuckets...)); err != nil {
		return nil, err
	}
	if met.FinalizeDuration, err = m.Float64Histogram("orchestrator.finalize.duration",
		metric.WithDescription("Latency of session finalization (full transcript + summary)."),
		metric.WithUnit("s"), metric.WithExplicitBucketBoundaries(latencyBuckets...)); err != nil {
		return nil, err
	}
	if met.ProviderErrors, err = m.Int64Counter("orchestrator.provider.errors",
		metric.WithDescription("Total provider errors by provider and kind.")); err != nil {
		return nil, err
	}

	return met, nil
}

// RecordProviderError records a provider error with the standard attribute set.
func (m *Metrics) RecordProviderError(ctx context.Context, provider, kind string) {
	m.ProviderErrors.Add(ctx, 1, metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("kind", kind),
	))
}

// RecordSessionEnded records a session end with its reason ("stopped" or "auto_stopped").
func (m *Metrics) RecordSessionEnded(ctx context.Context, reason string) {
	m.SessionsEnded.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
	if reason == "auto_stopped" {
		m.AutoStops.Add(ctx, 1)
	}
}

// InitProvider installs a Prometheus-backed MeterProvider as the global OTel
// provider and returns a shutdown func to call from main() on exit.
func InitProvider(ctx context.Context, serviceName string) (shutdown func(context.Context) error, err error) {
	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(semconv.SchemaURL, semconv.ServiceName(serviceName)),
	)
	if err != nil {
		return nil, err
	}

	exporter, err := prometheus.New()
	if err != nil {
		return nil, err
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)
	otel.SetMeterProvider(mp)

	return mp.Shutdown, nil
}
