package observability

import (
	"context"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const backendMeterName = "github.com/Additional-Code/ordertrack/backend"

// BackendMetrics records calls made to the order backend.
type BackendMetrics struct {
	requests metric.Int64Counter
	latency  metric.Float64Histogram
}

// Meter returns a named meter from the configured provider, or a no-op meter
// when metrics are disabled.
func (m *Manager) Meter(name string) metric.Meter {
	if m == nil || m.meterProvider == nil {
		return noop.NewMeterProvider().Meter(name)
	}
	return m.meterProvider.Meter(name)
}

// NewBackendMetrics creates the backend request instruments.
func NewBackendMetrics(mgr *Manager) (*BackendMetrics, error) {
	meter := mgr.Meter(backendMeterName)

	requests, err := meter.Int64Counter("ordertrack.backend.requests",
		metric.WithDescription("Requests sent to the order backend"),
	)
	if err != nil {
		return nil, err
	}
	latency, err := meter.Float64Histogram("ordertrack.backend.duration",
		metric.WithDescription("Order backend request latency"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}
	return &BackendMetrics{requests: requests, latency: latency}, nil
}

// NopBackendMetrics returns instruments that record nothing.
func NopBackendMetrics() *BackendMetrics {
	b, _ := NewBackendMetrics(nil)
	return b
}

// Record counts one backend call. status is the HTTP status code, or 0 when
// the request never got a response.
func (b *BackendMetrics) Record(ctx context.Context, operation string, status int, elapsed time.Duration) {
	if b == nil {
		return
	}
	outcome := "ok"
	switch {
	case status == 0:
		outcome = "transport_error"
	case status >= 400:
		outcome = "error"
	}
	attrs := metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("status_code", strconv.Itoa(status)),
		attribute.String("outcome", outcome),
	)
	b.requests.Add(ctx, 1, attrs)
	b.latency.Record(ctx, elapsed.Seconds(), attrs)
}
