package fallback

import (
	"sync/atomic"

	"k8s.io/examples/AI/lazytensor/pkg/engine"
	"k8s.io/examples/AI/lazytensor/pkg/engine/ir"
	"k8s.io/klog/v2"
)

// Data is a scalar held in host memory on behalf of a device.
type Data struct {
	device engine.Device
	value  int64
}

var _ ir.DataHandle = (*Data)(nil)

func (d *Data) Device() engine.Device {
	return d.device
}

func (d *Data) Value() int64 {
	return d.value
}

var transfers atomic.Int64

// Transfer copies a host scalar to the device.
func Transfer(value int64, device engine.Device) ir.DataHandle {
	n := transfers.Add(1)
	klog.V(4).InfoS("transferred scalar to device", "device", device, "transfers", n)
	return &Data{device: device, value: value}
}

// Transfers reports how many scalars have been transferred by this process.
func Transfers() int64 {
	return transfers.Load()
}
