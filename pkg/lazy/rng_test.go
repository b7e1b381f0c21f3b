package lazy

import (
	"math"
	"slices"
	"sync/atomic"
	"testing"

	"k8s.io/examples/AI/lazytensor/pkg/engine"
	"k8s.io/examples/AI/lazytensor/pkg/engine/fallback"
	"k8s.io/examples/AI/lazytensor/pkg/engine/ir"
)

type countingTransfer struct {
	n atomic.Int64
}

func (c *countingTransfer) transfer(value int64, device engine.Device) ir.DataHandle {
	c.n.Add(1)
	return fallback.Transfer(value, device)
}

func evaluate(t *testing.T, v ir.Value) uint64 {
	t.Helper()
	got, err := fallback.NewCalculationScope(v.Node().Device()).Evaluate(v)
	if err != nil {
		t.Fatalf("evaluating seed: %v", err)
	}
	return uint64(got)
}

func TestDefaultSeed(t *testing.T) {
	a := New()
	if got := a.GetRunningSeed(cpu0); got != 101 {
		t.Errorf("initial running seed = %d, want 101", got)
	}
}

func TestGetRngSeed(t *testing.T) {
	a := New()
	a.SetRngSeed(cpu0, 42)

	v := a.GetRngSeed(cpu0)
	if got := a.GetRunningSeed(cpu0); got != 11519557 {
		t.Errorf("running seed = %d, want 2531011 + 214013*42 = 11519557", got)
	}
	if got := evaluate(t, v); got != 11519557 {
		t.Errorf("graph seed = %d, want 11519557", got)
	}
}

func TestGetRunningSeedIsPure(t *testing.T) {
	transfer := &countingTransfer{}
	a := New(WithTransfer(transfer.transfer))
	a.SetRngSeed(cpu0, 7)

	for i := 0; i < 3; i++ {
		if got := a.GetRunningSeed(cpu0); got != 7 {
			t.Fatalf("running seed = %d, want 7", got)
		}
	}
	if got := transfer.n.Load(); got != 0 {
		t.Errorf("GetRunningSeed transferred %d scalars", got)
	}
}

func TestSeedDeterminism(t *testing.T) {
	sequence := func() []uint64 {
		a := New()
		a.SetRngSeed(gpu0, 42)
		var seeds []uint64
		for i := 0; i < 20; i++ {
			if i%3 != 0 {
				a.GetRngSeed(gpu0)
			}
			if i%7 == 6 {
				a.MarkStep(gpu0)
			}
			seeds = append(seeds, a.GetRunningSeed(gpu0))
		}
		return seeds
	}

	first, second := sequence(), sequence()
	if !slices.Equal(first, second) {
		t.Errorf("seed sequences differ:\n%v\n%v", first, second)
	}
}

func TestSeedNodeReuse(t *testing.T) {
	transfer := &countingTransfer{}
	a := New(WithTransfer(transfer.transfer))
	a.SetRngSeed(cpu0, 42)

	const calls = 10
	var previous ir.Value
	for i := 0; i < calls; i++ {
		v := a.GetRngSeed(cpu0)

		g := ir.Collect(v)
		if got := g.CountOps(ir.OpDeviceData); got != 1 {
			t.Errorf("call %d: graph has %d device data nodes, want 1", i, got)
		}
		if !previous.IsZero() {
			// b + k*previous
			if reused := v.Node().Operands()[1].Operands()[1]; reused != previous.Node() {
				t.Errorf("call %d does not build on the previous seed node", i)
			}
		}
		if got, want := evaluate(t, v), a.GetRunningSeed(cpu0); got != want {
			t.Errorf("call %d: graph seed %d, running seed %d", i, got, want)
		}
		previous = v
	}

	if got := transfer.n.Load(); got != 1 {
		t.Errorf("%d calls transferred %d scalars, want 1", calls, got)
	}
}

func TestMarkStep(t *testing.T) {
	transfer := &countingTransfer{}
	a := New(WithTransfer(transfer.transfer))

	before := a.GetRngSeed(cpu0)
	a.MarkStep(cpu0)

	if got := a.GetRunningSeed(cpu0); got != 709230394 {
		t.Errorf("running seed after step = %d, want 1012031 + 7012063*101 = 709230394", got)
	}

	after := a.GetRngSeed(cpu0)
	if got := transfer.n.Load(); got != 2 {
		t.Errorf("transferred %d scalars, want 2", got)
	}
	leaf := func(v ir.Value) *ir.Node {
		for _, n := range ir.Collect(v).Nodes {
			if n.Op() == ir.OpDeviceData {
				return n
			}
		}
		return nil
	}
	if leaf(before) == leaf(after) {
		t.Errorf("seed node was reused across a step barrier")
	}
	if got, want := evaluate(t, after), nextRunningSeed(709230394); got != want {
		t.Errorf("graph seed after step = %d, want %d", got, want)
	}
}

func TestMarkStepIgnoresRunningSeed(t *testing.T) {
	a := New()
	a.SetRngSeed(cpu0, 5)
	a.GetRngSeed(cpu0)
	a.GetRngSeed(cpu0)
	a.MarkStep(cpu0)

	if got, want := a.GetRunningSeed(cpu0), nextStepSeed(5); got != want {
		t.Errorf("running seed after step = %d, want %d", got, want)
	}
}

func TestMarkStepAlwaysChangesSeed(t *testing.T) {
	a := New()
	for _, seed := range []uint64{0, 1, 101, math.MaxUint64} {
		a.SetRngSeed(cpu0, seed)
		a.MarkStep(cpu0)
		if got := a.GetRunningSeed(cpu0); got == seed {
			t.Errorf("MarkStep left seed %d unchanged", seed)
		}
	}
}

func TestSeedWrapsAround(t *testing.T) {
	a := New()
	a.SetRngSeed(cpu0, math.MaxUint64)

	v := a.GetRngSeed(cpu0)
	want := nextRunningSeed(math.MaxUint64)
	if got := a.GetRunningSeed(cpu0); got != want {
		t.Errorf("running seed = %d, want %d", got, want)
	}
	if got := evaluate(t, v); got != want {
		t.Errorf("graph seed = %d, want %d", got, want)
	}
}

func TestSetRngSeedDropsCachedNode(t *testing.T) {
	transfer := &countingTransfer{}
	a := New(WithTransfer(transfer.transfer))

	a.GetRngSeed(cpu0)
	a.SetRngSeed(cpu0, 42)
	v := a.GetRngSeed(cpu0)

	if got := transfer.n.Load(); got != 2 {
		t.Errorf("transferred %d scalars, want 2", got)
	}
	if got := evaluate(t, v); got != 11519557 {
		t.Errorf("graph seed = %d, want 11519557", got)
	}
}

func TestMarkStepAll(t *testing.T) {
	a := New()
	a.SetRngSeed(cpu0, 1)
	a.SetRngSeed(gpu0, 2)

	a.MarkStepAll()

	if got, want := a.GetRunningSeed(cpu0), nextStepSeed(1); got != want {
		t.Errorf("%v running seed = %d, want %d", cpu0, got, want)
	}
	if got, want := a.GetRunningSeed(gpu0), nextStepSeed(2); got != want {
		t.Errorf("%v running seed = %d, want %d", gpu0, got, want)
	}
}

func TestDevicesHaveIndependentSeeds(t *testing.T) {
	a := New()
	a.SetRngSeed(cpu0, 42)
	a.SetRngSeed(gpu0, 42)

	cpuSeed := a.GetRngSeed(cpu0)
	a.GetRngSeed(cpu0)
	gpuSeed := a.GetRngSeed(gpu0)

	if got := a.GetRunningSeed(gpu0); got != 11519557 {
		t.Errorf("%v running seed = %d, want 11519557", gpu0, got)
	}
	for id := range ir.Collect(gpuSeed).Nodes {
		if _, shared := ir.Collect(cpuSeed).Nodes[id]; shared {
			t.Errorf("node %d is shared between devices", id)
		}
	}
}
