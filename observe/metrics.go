// Package observe records evaluation metrics through the OpenTelemetry
// Metrics API. [InitProvider] bridges them to a Prometheus exporter so the
// scoring service can expose /metrics; tests use [NewMetrics] with their own
// [metric.MeterProvider].
package observe

import (
	"context"
	"time"

	"github.com/PedroElizalde01/gecscore/score"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/PedroElizalde01/gecscore"

// Metrics holds the metric instruments. All fields are safe for concurrent
// use.
type Metrics struct {
	// Evaluations counts completed evaluations. Attribute "source" is
	// "cli" or "http".
	Evaluations metric.Int64Counter

	// Rows counts evaluated dataset rows.
	Rows metric.Int64Counter

	// Events counts classification events. Attribute "kind" is TP, FP, FM
	// or FR.
	Events metric.Int64Counter

	// EvaluationDuration tracks wall time of whole evaluations.
	EvaluationDuration metric.Float64Histogram

	// HTTPRequestDuration tracks request time by method and path.
	HTTPRequestDuration metric.Float64Histogram
}

var durationBuckets = []float64{
	0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30,
}

// NewMetrics creates the instruments on mp.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.Evaluations, err = m.Int64Counter("gecscore.evaluations",
		metric.WithDescription("Completed evaluations by source."),
	); err != nil {
		return nil, err
	}
	if met.Rows, err = m.Int64Counter("gecscore.rows",
		metric.WithDescription("Evaluated dataset rows."),
	); err != nil {
		return nil, err
	}
	if met.Events, err = m.Int64Counter("gecscore.events",
		metric.WithDescription("Classification events by kind."),
	); err != nil {
		return nil, err
	}
	if met.EvaluationDuration, err = m.Float64Histogram("gecscore.evaluation.duration",
		metric.WithDescription("Wall time of an evaluation."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBuckets...),
	); err != nil {
		return nil, err
	}
	if met.HTTPRequestDuration, err = m.Float64Histogram("gecscore.http.request.duration",
		metric.WithDescription("HTTP request latency by method and path."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBuckets...),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// RecordEvaluation records one finished evaluation of rows rows.
func (m *Metrics) RecordEvaluation(ctx context.Context, source string, rows int, c score.Counts, elapsed time.Duration) {
	src := metric.WithAttributes(attribute.String("source", source))
	m.Evaluations.Add(ctx, 1, src)
	m.Rows.Add(ctx, int64(rows), src)
	m.EvaluationDuration.Record(ctx, elapsed.Seconds(), src)

	for _, e := range []struct {
		kind score.Kind
		n    int
	}{
		{score.TruePositive, c.TruePositive},
		{score.FalsePositive, c.FalsePositive},
		{score.FalseMissing, c.FalseMissing},
		{score.FalseRedundant, c.FalseRedundant},
	} {
		if e.n == 0 {
			continue
		}
		m.Events.Add(ctx, int64(e.n), metric.WithAttributes(
			attribute.String("source", source),
			attribute.String("kind", e.kind.String()),
		))
	}
}

// HTTPAttributes is the attribute set recorded with HTTPRequestDuration.
func HTTPAttributes(method, path string) metric.MeasurementOption {
	return metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("path", path),
	)
}
