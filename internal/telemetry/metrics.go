package telemetry

import (
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const (
	meterName = "github.com/wolfeidau/location"
)

// Metrics holds all the OpenTelemetry metric instruments
type Metrics struct {
	// HTTP metrics
	RequestsTotal   metric.Int64Counter
	RequestDuration metric.Float64Histogram

	// Record metrics, attributed by entity
	RecordsCreatedTotal metric.Int64Counter
	RecordsUpdatedTotal metric.Int64Counter
	RecordsDeletedTotal metric.Int64Counter

	// Rejections, attributed by reason
	ValidationFailuresTotal metric.Int64Counter
	AccessDeniedTotal       metric.Int64Counter
}

var (
	once    sync.Once
	metrics *Metrics
)

// GetMetrics returns the singleton Metrics instance, initializing it if necessary
func GetMetrics() *Metrics {
	once.Do(func() {
		metrics = initMetrics()
	})
	return metrics
}

// initMetrics creates and registers all metric instruments
func initMetrics() *Metrics {
	meter := otel.GetMeterProvider().Meter(meterName)

	m := &Metrics{}

	m.RequestsTotal, _ = meter.Int64Counter(
		"location.http.requests.total",
		metric.WithDescription("Total number of API requests"),
		metric.WithUnit("{request}"),
	)

	m.RequestDuration, _ = meter.Float64Histogram(
		"location.http.request.duration",
		metric.WithDescription("Duration of API requests"),
		metric.WithUnit("ms"),
	)

	m.RecordsCreatedTotal, _ = meter.Int64Counter(
		"location.records.created.total",
		metric.WithDescription("Total number of records created"),
		metric.WithUnit("{record}"),
	)

	m.RecordsUpdatedTotal, _ = meter.Int64Counter(
		"location.records.updated.total",
		metric.WithDescription("Total number of records updated"),
		metric.WithUnit("{record}"),
	)

	m.RecordsDeletedTotal, _ = meter.Int64Counter(
		"location.records.deleted.total",
		metric.WithDescription("Total number of records deleted"),
		metric.WithUnit("{record}"),
	)

	m.ValidationFailuresTotal, _ = meter.Int64Counter(
		"location.validation.failures.total",
		metric.WithDescription("Total number of payloads rejected by validation"),
		metric.WithUnit("{request}"),
	)

	m.AccessDeniedTotal, _ = meter.Int64Counter(
		"location.access.denied.total",
		metric.WithDescription("Total number of requests denied by the access policy"),
		metric.WithUnit("{request}"),
	)

	return m
}
