package lazy

import (
	"runtime"
	"sync/atomic"

	"k8s.io/examples/AI/lazytensor/pkg/engine"
	"k8s.io/examples/AI/lazytensor/pkg/engine/ir"
)

// TensorData is the state shared by every handle to one lazy tensor.
// The arena only ever holds it weakly.
type TensorData struct {
	UniqueID engine.TensorID
	Device   engine.Device
	Value    ir.Value

	cleanup runtime.Cleanup
}

// Tensor is a strong handle to TensorData.
type Tensor struct {
	data *TensorData
}

func (t *Tensor) Data() *TensorData {
	return t.data
}

func (t *Tensor) ID() engine.TensorID {
	return t.data.UniqueID
}

func (t *Tensor) Device() engine.Device {
	return t.data.Device
}

func (t *Tensor) Value() ir.Value {
	return t.data.Value
}

var lastTensorID atomic.Int64

// NextTensorID returns a fresh process-unique tensor id.
func NextTensorID() engine.TensorID {
	return engine.TensorID(lastTensorID.Add(1))
}

// NewTensor registers a new tensor on device. Its data is unregistered when
// it becomes unreachable, or earlier by UnregisterTensor.
func (a *Arena) NewTensor(device engine.Device, value ir.Value) *Tensor {
	data := &TensorData{
		UniqueID: NextTensorID(),
		Device:   device,
		Value:    value,
	}
	key := registryKey{device: device, id: data.UniqueID}
	data.cleanup = runtime.AddCleanup(data, func(key registryKey) {
		a.unregister(key.device, key.id)
	}, key)

	a.RegisterTensor(data)
	return &Tensor{data: data}
}

type registryKey struct {
	device engine.Device
	id     engine.TensorID
}
