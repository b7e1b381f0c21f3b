package lazy

import (
	"k8s.io/examples/AI/lazytensor/pkg/engine"
	"k8s.io/examples/AI/lazytensor/pkg/engine/ir"
	"k8s.io/klog/v2"
)

// Linear congruential recurrences. Arithmetic is on uint64 and wraps.
const (
	seedMul uint64 = 214013
	seedAdd uint64 = 2531011

	stepSeedMul uint64 = 7012063
	stepSeedAdd uint64 = 1012031
)

func nextRunningSeed(seed uint64) uint64 {
	return seedAdd + seedMul*seed
}

func nextStepSeed(seed uint64) uint64 {
	return stepSeedAdd + seed*stepSeedMul
}

// GetRngSeed returns a graph node for the next seed of device and advances
// the running seed. The node evaluates to GetRunningSeed as observed right
// after the call.
//
// Only the first call after SetRngSeed or MarkStep transfers a scalar to the
// device; later calls compose constants over the previous node, so compiled
// programs keep a single seed parameter per device.
func (a *Arena) GetRngSeed(device engine.Device) ir.Value {
	devctx := a.getDeviceContext(device)

	devctx.mu.Lock()
	defer devctx.mu.Unlock()

	if devctx.seedValue.IsZero() {
		devctx.seedValue = a.irValueFromScalar(int64(devctx.runningSeed), device)
	}
	devctx.runningSeed = nextRunningSeed(devctx.runningSeed)

	k := ir.Scalar(int64(seedMul), device)
	b := ir.Scalar(int64(seedAdd), device)
	devctx.seedValue = b.Add(k.Mul(devctx.seedValue))
	return devctx.seedValue
}

// GetRunningSeed returns the current seed without touching any graph.
func (a *Arena) GetRunningSeed(device engine.Device) uint64 {
	devctx := a.getDeviceContext(device)

	devctx.mu.Lock()
	defer devctx.mu.Unlock()

	return devctx.runningSeed
}

func (a *Arena) SetRngSeed(device engine.Device, seed uint64) {
	devctx := a.getDeviceContext(device)

	devctx.mu.Lock()
	defer devctx.mu.Unlock()

	devctx.seed = seed
	devctx.runningSeed = seed
	devctx.seedValue = ir.Value{}
}

// MarkStep advances the root seed of device past a step barrier.
func (a *Arena) MarkStep(device engine.Device) {
	a.markStep(a.getDeviceContext(device))
}

// MarkStepAll crosses a step barrier on every known device.
func (a *Arena) MarkStepAll() {
	a.forAllDeviceContexts(nil, a.markStep)
}

func (a *Arena) markStep(devctx *deviceContext) {
	devctx.mu.Lock()
	defer devctx.mu.Unlock()

	devctx.seed = nextStepSeed(devctx.seed)
	devctx.runningSeed = devctx.seed
	devctx.seedValue = ir.Value{}

	klog.V(3).InfoS("marked step", "device", devctx.device, "seed", devctx.seed)
}

func (a *Arena) irValueFromScalar(value int64, device engine.Device) ir.Value {
	return ir.DeviceData(a.transfer(value, device))
}
