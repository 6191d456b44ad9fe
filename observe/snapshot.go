package observe

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// Snapshot is an in-memory meter provider for one-shot runs such as the
// eval command. Measurements are held until [Snapshot.Points] collects
// them.
type Snapshot struct {
	reader   *sdkmetric.ManualReader
	provider *sdkmetric.MeterProvider
}

// Point is one collected data point. Sums carry their total in Value;
// histograms carry the sum of observations in Value and their number in
// Count.
type Point struct {
	Metric     string            `json:"metric"`
	Attributes map[string]string `json:"attributes,omitempty"`
	Value      float64           `json:"value"`
	Count      uint64            `json:"count,omitempty"`
}

// NewSnapshot returns [Metrics] bound to a fresh in-memory provider.
func NewSnapshot() (*Metrics, *Snapshot, error) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	met, err := NewMetrics(provider)
	if err != nil {
		_ = provider.Shutdown(context.Background())
		return nil, nil, err
	}
	return met, &Snapshot{reader: reader, provider: provider}, nil
}

// Points collects everything recorded so far, ordered by metric name and
// attributes.
func (s *Snapshot) Points(ctx context.Context) ([]Point, error) {
	var rm metricdata.ResourceMetrics
	if err := s.reader.Collect(ctx, &rm); err != nil {
		return nil, fmt.Errorf("observe: collect: %w", err)
	}

	var points []Point
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				for _, dp := range data.DataPoints {
					points = append(points, Point{
						Metric:     m.Name,
						Attributes: attributeMap(dp.Attributes),
						Value:      float64(dp.Value),
					})
				}
			case metricdata.Histogram[float64]:
				for _, dp := range data.DataPoints {
					points = append(points, Point{
						Metric:     m.Name,
						Attributes: attributeMap(dp.Attributes),
						Value:      dp.Sum,
						Count:      dp.Count,
					})
				}
			}
		}
	}

	slices.SortFunc(points, func(a, b Point) int {
		if c := strings.Compare(a.Metric, b.Metric); c != 0 {
			return c
		}
		return strings.Compare(attributeKey(a.Attributes), attributeKey(b.Attributes))
	})
	return points, nil
}

// WriteJSON writes the collected points to w as an indented JSON array.
func (s *Snapshot) WriteJSON(ctx context.Context, w io.Writer) error {
	points, err := s.Points(ctx)
	if err != nil {
		return err
	}
	if points == nil {
		points = []Point{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(points)
}

// Shutdown releases the provider.
func (s *Snapshot) Shutdown(ctx context.Context) error {
	return s.provider.Shutdown(ctx)
}

func attributeMap(set attribute.Set) map[string]string {
	if set.Len() == 0 {
		return nil
	}
	out := make(map[string]string, set.Len())
	for _, kv := range set.ToSlice() {
		out[string(kv.Key)] = kv.Value.Emit()
	}
	return out
}

func attributeKey(attrs map[string]string) string {
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(attrs[k])
		b.WriteByte(',')
	}
	return b.String()
}
