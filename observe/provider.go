package observe

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.39.0"
)

// InitProvider registers a global [sdkmetric.MeterProvider] whose metrics
// are exported to the default Prometheus registry, and returns [Metrics]
// bound to it together with a shutdown function.
func InitProvider(ctx context.Context, version string) (*Metrics, func(context.Context) error, error) {
	res, err := resource.Merge(
		resource.Default(),
		serviceResource(version),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("observe: build resource: %w", err)
	}

	exp, err := promexporter.New()
	if err != nil {
		return nil, nil, err
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exp),
	)
	otel.SetMeterProvider(mp)

	met, err := NewMetrics(mp)
	if err != nil {
		_ = mp.Shutdown(ctx)
		return nil, nil, err
	}
	return met, mp.Shutdown, nil
}

// serviceResource carries no schema URL so merging it never conflicts with
// the schema of resource.Default.
func serviceResource(version string) *resource.Resource {
	return resource.NewSchemaless(
		semconv.ServiceName("gecscore"),
		semconv.ServiceVersion(version),
	)
}

// Noop returns [Metrics] bound to the global meter provider, which discards
// measurements until a real provider is installed.
func Noop() *Metrics {
	met, err := NewMetrics(otel.GetMeterProvider())
	if err != nil {
		panic("observe: create metrics on global provider: " + err.Error())
	}
	return met
}
