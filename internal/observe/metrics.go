// Package observe provides observability primitives for the benchmark:
// OpenTelemetry metrics with a Prometheus exporter bridge.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A package-level
// default [Metrics] instance ([DefaultMetrics]) is provided for convenience;
// tests should use [NewMetrics] with a custom [metric.MeterProvider] to avoid
// cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all benchmark metrics.
const meterName = "github.com/lyricbench/lyricbench"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use; the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// TranscribeDuration tracks per-file transcription latency. Use with
	// attribute.String("model", ...).
	TranscribeDuration metric.Float64Histogram

	// MetricComputeDuration tracks metric computation latency, including any
	// embedding calls the metric makes. Use with attribute.String("metric", ...).
	MetricComputeDuration metric.Float64Histogram

	// ScoreFailures counts scoring failures by model and metric.
	ScoreFailures metric.Int64Counter
}

// latencyBuckets defines histogram bucket boundaries (in seconds). Batch
// inference over whole songs runs much slower than an interactive pipeline,
// so the buckets reach into the minutes.
var latencyBuckets = []float64{
	0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.TranscribeDuration, err = m.Float64Histogram("lyricbench.transcribe.duration",
		metric.WithDescription("Latency of transcribing one audio file."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.MetricComputeDuration, err = m.Float64Histogram("lyricbench.metric.duration",
		metric.WithDescription("Latency of one metric computation."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.ScoreFailures, err = m.Int64Counter("lyricbench.score.failures",
		metric.WithDescription("Total scoring failures by model and metric."),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Subsequent calls return the same
// pointer. Panics if instrument creation fails (should not happen with the
// global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// RecordTranscribe records one transcription latency observation.
func (m *Metrics) RecordTranscribe(ctx context.Context, model string, seconds float64) {
	m.TranscribeDuration.Record(ctx, seconds,
		metric.WithAttributes(attribute.String("model", model)))
}

// RecordMetricCompute records one metric computation latency observation.
func (m *Metrics) RecordMetricCompute(ctx context.Context, metricKey string, seconds float64) {
	m.MetricComputeDuration.Record(ctx, seconds,
		metric.WithAttributes(attribute.String("metric", metricKey)))
}

// RecordScoreFailure records one scoring failure.
func (m *Metrics) RecordScoreFailure(ctx context.Context, model, metricKey string) {
	m.ScoreFailures.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("model", model),
			attribute.String("metric", metricKey),
		),
	)
}
