// Package observe provides application-wide observability primitives for
// Rostrum: OpenTelemetry metrics, distributed tracing, structured logging,
// and HTTP middleware that ties them together.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [InitProvider] so that metrics can still be
// scraped via the standard /metrics endpoint. A package-level default
// [Metrics] instance ([DefaultMetrics]) is provided for convenience; tests
// should use [NewMetrics] with a custom [metric.MeterProvider] to avoid
// cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all Rostrum metrics.
const meterName = "github.com/rostrumhq/rostrum"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// --- Latency histograms per pipeline stage ---

	// TranscriptionDuration tracks speech-to-text transcription latency.
	TranscriptionDuration metric.Float64Histogram

	// AnnotationDuration tracks NLP annotation latency.
	AnnotationDuration metric.Float64Histogram

	// AnalyzerDuration tracks per-analyzer scoring latency. Use with
	// attribute.String("analyzer", ...).
	AnalyzerDuration metric.Float64Histogram

	// EvaluationDuration tracks end-to-end evaluation latency.
	EvaluationDuration metric.Float64Histogram

	// --- Counters ---

	// Evaluations counts completed evaluations. Use with attributes:
	//   attribute.String("depth", ...), attribute.String("status", ...)
	Evaluations metric.Int64Counter

	// AnalyzerOutcomes counts analyzer runs by final status. Use with attributes:
	//   attribute.String("component", ...), attribute.String("status", ...)
	AnalyzerOutcomes metric.Int64Counter

	// TranscriberRequests counts recognition engine calls. Use with attributes:
	//   attribute.String("engine", ...), attribute.String("status", ...)
	TranscriberRequests metric.Int64Counter

	// --- Error counters ---

	// TranscriberErrors counts recognition engine failures. Use with attribute:
	//   attribute.String("engine", ...)
	TranscriberErrors metric.Int64Counter

	// --- Gauges ---

	// ActiveEvaluations tracks the number of evaluations in flight.
	ActiveEvaluations metric.Int64UpDownCounter

	// --- HTTP middleware ---

	// HTTPRequestDuration tracks HTTP request processing time. Use with attributes:
	//   attribute.String("method", ...), attribute.String("path", ...)
	HTTPRequestDuration metric.Float64Histogram
}

// latencyBuckets defines histogram bucket boundaries (in seconds) sized for
// offline speech analysis, where transcription of a multi-minute recording
// can take tens of seconds.
var latencyBuckets = []float64{
	0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	// Histograms.
	if met.TranscriptionDuration, err = m.Float64Histogram("rostrum.transcription.duration",
		metric.WithDescription("Latency of speech-to-text transcription."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.AnnotationDuration, err = m.Float64Histogram("rostrum.annotation.duration",
		metric.WithDescription("Latency of NLP annotation."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.AnalyzerDuration, err = m.Float64Histogram("rostrum.analyzer.duration",
		metric.WithDescription("Latency of individual analyzers by name."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.EvaluationDuration, err = m.Float64Histogram("rostrum.evaluation.duration",
		metric.WithDescription("End-to-end evaluation latency."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	// Counters.
	if met.Evaluations, err = m.Int64Counter("rostrum.evaluations",
		metric.WithDescription("Total evaluations by analysis depth and status."),
	); err != nil {
		return nil, err
	}
	if met.AnalyzerOutcomes, err = m.Int64Counter("rostrum.analyzer.outcomes",
		metric.WithDescription("Total analyzer runs by component and final status."),
	); err != nil {
		return nil, err
	}
	if met.TranscriberRequests, err = m.Int64Counter("rostrum.transcriber.requests",
		metric.WithDescription("Total recognition engine requests by engine and status."),
	); err != nil {
		return nil, err
	}

	// Error counters.
	if met.TranscriberErrors, err = m.Int64Counter("rostrum.transcriber.errors",
		metric.WithDescription("Total recognition engine failures by engine."),
	); err != nil {
		return nil, err
	}

	// Gauges (UpDownCounters).
	if met.ActiveEvaluations, err = m.Int64UpDownCounter("rostrum.active_evaluations",
		metric.WithDescription("Number of evaluations currently in flight."),
	); err != nil {
		return nil, err
	}

	// HTTP middleware histogram.
	if met.HTTPRequestDuration, err = m.Float64Histogram("rostrum.http.request.duration",
		metric.WithDescription("HTTP request latency by method and path."),
		metric.WithUnit("s"),
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

// Attr is a convenience alias for [attribute.String] to reduce verbosity at
// call sites.
func Attr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// RecordAnalyzerOutcome records one analyzer run with its component name,
// final status, and elapsed seconds.
func (m *Metrics) RecordAnalyzerOutcome(ctx context.Context, component, status string, seconds float64) {
	m.AnalyzerOutcomes.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("component", component),
			attribute.String("status", status),
		),
	)
	m.AnalyzerDuration.Record(ctx, seconds,
		metric.WithAttributes(attribute.String("analyzer", component)),
	)
}

// RecordEvaluation records a completed evaluation counter increment with the
// standard attribute set.
func (m *Metrics) RecordEvaluation(ctx context.Context, depth, status string) {
	m.Evaluations.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("depth", depth),
			attribute.String("status", status),
		),
	)
}

// RecordTranscriberRequest records a recognition engine call with its status.
func (m *Metrics) RecordTranscriberRequest(ctx context.Context, engine, status string) {
	m.TranscriberRequests.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("engine", engine),
			attribute.String("status", status),
		),
	)
}

// RecordTranscriberError records a recognition engine failure.
func (m *Metrics) RecordTranscriberError(ctx context.Context, engine string) {
	m.TranscriberErrors.Add(ctx, 1,
		metric.WithAttributes(attribute.String("engine", engine)),
	)
}
