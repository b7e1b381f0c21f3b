package metrics

import (
	"k8s.io/examples/AI/lazytensor/pkg/engine"
	"k8s.io/klog/v2"
)

// LogObserver logs every tensor lifecycle event at the given verbosity.
type LogObserver struct {
	Verbosity klog.Level
}

func (o LogObserver) TensorCreated(device engine.Device) {
	klog.V(o.Verbosity).InfoS("tensor created", "device", device)
}

func (o LogObserver) TensorDestroyed(device engine.Device) {
	klog.V(o.Verbosity).InfoS("tensor destroyed", "device", device)
}
