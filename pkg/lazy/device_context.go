package lazy

import (
	"sync"
	"weak"

	"k8s.io/examples/AI/lazytensor/pkg/engine"
	"k8s.io/examples/AI/lazytensor/pkg/engine/ir"
)

const defaultSeed uint64 = 101

type deviceContext struct {
	device engine.Device

	mu      sync.Mutex
	tensors map[engine.TensorID]weak.Pointer[TensorData]

	seed        uint64
	runningSeed uint64

	// seedValue is the graph form of runningSeed; absent until a graph asks for it.
	seedValue ir.Value
}

func newDeviceContext(device engine.Device) *deviceContext {
	return &deviceContext{
		device:      device,
		tensors:     make(map[engine.TensorID]weak.Pointer[TensorData]),
		seed:        defaultSeed,
		runningSeed: defaultSeed,
	}
}
