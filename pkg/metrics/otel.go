package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"k8s.io/examples/AI/lazytensor/pkg/engine"
)

const (
	TensorCreatedMetric   = "lazy.tensor.created"
	TensorDestroyedMetric = "lazy.tensor.destroyed"
)

// OTelObserver counts tensor lifecycle events as OpenTelemetry counters,
// labelled with the device.
type OTelObserver struct {
	created   metric.Int64Counter
	destroyed metric.Int64Counter
}

func NewOTelObserver(meter metric.Meter) (*OTelObserver, error) {
	created, err := meter.Int64Counter(TensorCreatedMetric,
		metric.WithDescription("Number of lazy tensors registered"),
		metric.WithUnit("{tensor}"))
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", TensorCreatedMetric, err)
	}
	destroyed, err := meter.Int64Counter(TensorDestroyedMetric,
		metric.WithDescription("Number of lazy tensors unregistered"),
		metric.WithUnit("{tensor}"))
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", TensorDestroyedMetric, err)
	}
	return &OTelObserver{created: created, destroyed: destroyed}, nil
}

func (o *OTelObserver) TensorCreated(device engine.Device) {
	o.created.Add(context.Background(), 1, deviceAttributes(device))
}

func (o *OTelObserver) TensorDestroyed(device engine.Device) {
	o.destroyed.Add(context.Background(), 1, deviceAttributes(device))
}

func deviceAttributes(device engine.Device) metric.AddOption {
	return metric.WithAttributes(attribute.String("device", device.String()))
}
