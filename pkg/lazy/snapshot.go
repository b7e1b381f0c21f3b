package lazy

import (
	"k8s.io/examples/AI/lazytensor/pkg/engine"
	"k8s.io/examples/AI/lazytensor/pkg/engine/ir"
)

// SeedState is the seed state of one device.
type SeedState struct {
	Device      engine.Device
	Seed        uint64
	RunningSeed uint64
}

// SeedSnapshot captures the seeds of every known device, in device order.
func (a *Arena) SeedSnapshot() []SeedState {
	var states []SeedState
	a.forAllDeviceContexts(nil, func(devctx *deviceContext) {
		devctx.mu.Lock()
		defer devctx.mu.Unlock()

		states = append(states, SeedState{
			Device:      devctx.device,
			Seed:        devctx.seed,
			RunningSeed: devctx.runningSeed,
		})
	})
	return states
}

// RestoreSeeds puts each device back in the captured state. Cached seed
// nodes are dropped and rebuilt from the running seed on next use.
func (a *Arena) RestoreSeeds(states []SeedState) {
	for _, state := range states {
		devctx := a.getDeviceContext(state.Device)

		devctx.mu.Lock()
		devctx.seed = state.Seed
		devctx.runningSeed = state.RunningSeed
		devctx.seedValue = ir.Value{}
		devctx.mu.Unlock()
	}
}
