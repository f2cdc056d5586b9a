package asteriobid

import (
	"github.com/rcrowley/go-metrics"
)

// moduleMetrics instruments the adapter itself: telemetry about the
// telemetry. Registered on the host's registry when one is supplied.
type moduleMetrics struct {
	registry       metrics.Registry
	eventsQueued   metrics.Meter
	batchesSent    metrics.Meter
	deliveryErrors metrics.Meter
	batchSize      metrics.Histogram
}

func newModuleMetrics(registry metrics.Registry) *moduleMetrics {
	if registry == nil {
		registry = metrics.NewRegistry()
	}
	return &moduleMetrics{
		registry:       registry,
		eventsQueued:   metrics.GetOrRegisterMeter("asteriobid.events_queued", registry),
		batchesSent:    metrics.GetOrRegisterMeter("asteriobid.batches_sent", registry),
		deliveryErrors: metrics.GetOrRegisterMeter("asteriobid.delivery_errors", registry),
		batchSize:      metrics.GetOrRegisterHistogram("asteriobid.batch_size", registry, metrics.NewExpDecaySample(1028, 0.015)),
	}
}
