package addresser

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/royalcat/communityaddr/addresser"

var (
	meter  = otel.Meter(instrumentationName)
	tracer = otel.Tracer(instrumentationName)
)

type metrics struct {
	assigned     metric.Int64Counter
	placeholders metric.Int64Counter
	failures     metric.Int64Counter
	duration     metric.Float64Histogram
}

func newMetrics() (*metrics, error) {
	assigned, err := meter.Int64Counter("addresses_assigned_total",
		metric.WithDescription("Community addresses assigned, by street source"))
	if err != nil {
		return nil, err
	}
	placeholders, err := meter.Int64Counter("placeholder_streets_total",
		metric.WithDescription("Placeholder streets resolved through the store"))
	if err != nil {
		return nil, err
	}
	failures, err := meter.Int64Counter("address_failures_total")
	if err != nil {
		return nil, err
	}
	duration, err := meter.Float64Histogram("address_assign_duration_seconds",
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}

	return &metrics{
		assigned:     assigned,
		placeholders: placeholders,
		failures:     failures,
		duration:     duration,
	}, nil
}
