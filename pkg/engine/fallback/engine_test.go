package fallback

import (
	"math"
	"testing"

	"k8s.io/examples/AI/lazytensor/pkg/engine"
	"k8s.io/examples/AI/lazytensor/pkg/engine/ir"
)

var (
	cpu0 = engine.Device{Kind: engine.CPU}
	gpu0 = engine.Device{Kind: engine.GPU}
)

func TestEvaluate(t *testing.T) {
	before := Transfers()
	x := ir.DeviceData(Transfer(5, cpu0))
	if got := Transfers() - before; got != 1 {
		t.Errorf("Transfers advanced by %d, want 1", got)
	}

	v := ir.Scalar(2, cpu0).Add(ir.Scalar(3, cpu0).Mul(x))

	scope := NewCalculationScope(cpu0)
	got, err := scope.Evaluate(v)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if got != 17 {
		t.Errorf("Evaluate = %d, want 17", got)
	}

	// Nodes already evaluated are reused by later graphs.
	w := v.Add(v)
	got, err = scope.Evaluate(w)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if got != 34 {
		t.Errorf("Evaluate = %d, want 34", got)
	}
}

func TestEvaluateWrapsAround(t *testing.T) {
	v := ir.Scalar(math.MaxInt64, cpu0).Add(ir.Scalar(1, cpu0))
	got, err := NewCalculationScope(cpu0).Evaluate(v)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if got != math.MinInt64 {
		t.Errorf("Evaluate = %d, want %d", got, int64(math.MinInt64))
	}
}

func TestEvaluateWrongDevice(t *testing.T) {
	v := ir.DeviceData(Transfer(1, gpu0))
	if _, err := NewCalculationScope(cpu0).Evaluate(v); err == nil {
		t.Errorf("expected error evaluating GPU data in a CPU scope")
	}
}

func TestEvaluateAbsent(t *testing.T) {
	if _, err := NewCalculationScope(cpu0).Evaluate(ir.Value{}); err == nil {
		t.Errorf("expected error evaluating an absent value")
	}
}
