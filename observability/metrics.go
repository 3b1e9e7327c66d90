// Package observability provides metrics and tracing instrumentation for
// the capture-and-delivery pipeline.
package observability

import (
	gu "github.com/xraph/go-utils/metrics"
)

// Metrics holds HookFreight's metric instruments, backed by any go-utils
// MetricFactory.
type Metrics struct {
	EventsCapturedTotal gu.Counter
	DeliveriesTotal     gu.Counter
	DeliveryLatency     gu.Histogram
	QueueWaiting        gu.Gauge
	QueueActive         gu.Gauge
}

// NewMetrics creates HookFreight's metric instruments using the supplied factory.
func NewMetrics(factory gu.MetricFactory) *Metrics {
	return &Metrics{
		EventsCapturedTotal: factory.Counter("hookfreight_events_captured_total"),
		DeliveriesTotal:     factory.Counter("hookfreight_deliveries_total"),
		DeliveryLatency:     factory.Histogram("hookfreight_delivery_latency_seconds"),
		QueueWaiting:        factory.Gauge("hookfreight_queue_waiting"),
		QueueActive:         factory.Gauge("hookfreight_queue_active"),
	}
}

// RecordDelivery records a delivery attempt outcome with its latency.
func (m *Metrics) RecordDelivery(status string, latencySeconds float64) {
	m.DeliveriesTotal.WithLabels(map[string]string{"status": status}).Inc()
	m.DeliveryLatency.Observe(latencySeconds)
}

// RecordCapture records one successfully captured event.
func (m *Metrics) RecordCapture() {
	m.EventsCapturedTotal.Inc()
}
