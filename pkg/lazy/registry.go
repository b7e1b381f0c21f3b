package lazy

import (
	"fmt"
	"weak"

	"k8s.io/examples/AI/lazytensor/pkg/engine"
	"k8s.io/klog/v2"
)

// RegisterTensor records a weak reference to data on its device.
// Registering an id that is still alive on the device panics.
func (a *Arena) RegisterTensor(data *TensorData) {
	devctx := a.getDeviceContext(data.Device)

	devctx.mu.Lock()
	if existing, ok := devctx.tensors[data.UniqueID]; ok && existing.Value() != nil {
		devctx.mu.Unlock()
		panic(fmt.Sprintf("tensor %d already registered on device %v", data.UniqueID, data.Device))
	}
	devctx.tensors[data.UniqueID] = weak.Make(data)
	devctx.mu.Unlock()

	a.notify().TensorCreated(data.Device)
}

// UnregisterTensor removes data from its device. Unknown ids are ignored.
func (a *Arena) UnregisterTensor(data *TensorData) {
	data.cleanup.Stop()
	a.unregister(data.Device, data.UniqueID)
}

func (a *Arena) unregister(device engine.Device, id engine.TensorID) {
	devctx := a.getDeviceContext(device)

	devctx.mu.Lock()
	delete(devctx.tensors, id)
	devctx.mu.Unlock()

	a.notify().TensorDestroyed(device)
}

// GetLiveTensors returns a handle for every registered tensor that is still
// reachable, on device or on every known device when device is nil.
// Entries whose data has been collected are skipped.
func (a *Arena) GetLiveTensors(device *engine.Device) []*Tensor {
	var tensors []*Tensor
	a.forAllDeviceContexts(device, func(devctx *deviceContext) {
		devctx.mu.Lock()
		defer devctx.mu.Unlock()

		stale := 0
		for _, ref := range devctx.tensors {
			data := ref.Value()
			if data == nil {
				stale++
				continue
			}
			tensors = append(tensors, &Tensor{data: data})
		}
		if stale != 0 {
			klog.V(4).InfoS("skipped collected tensors", "device", devctx.device, "count", stale)
		}
	})
	return tensors
}
