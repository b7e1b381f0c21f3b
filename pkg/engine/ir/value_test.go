package ir

import (
	"testing"

	"k8s.io/examples/AI/lazytensor/pkg/engine"
)

var cpu0 = engine.Device{Kind: engine.CPU}

func TestValueAlgebra(t *testing.T) {
	x := Scalar(7, cpu0)
	k := Scalar(3, cpu0)
	v := k.Add(k.Mul(x))

	n := v.Node()
	if n.Op() != OpAdd {
		t.Fatalf("root op = %v, want add", n.Op())
	}
	mul := n.Operands()[1]
	if mul.Op() != OpMul {
		t.Fatalf("second operand op = %v, want mul", mul.Op())
	}
	if mul.Operands()[1] != x.Node() {
		t.Errorf("mul does not reference x")
	}
	if x.Node().Operands() != nil {
		t.Errorf("building on x modified it")
	}
	if n.Device() != cpu0 {
		t.Errorf("device = %v, want %v", n.Device(), cpu0)
	}
}

func TestZeroValue(t *testing.T) {
	var v Value
	if !v.IsZero() {
		t.Fatalf("zero Value should be absent")
	}
	if got := v.String(); got != "<absent>" {
		t.Errorf("String() = %q", got)
	}

	defer func() {
		if r := recover(); r == nil {
			t.Errorf("expected panic adding to an absent value")
		}
	}()
	Scalar(1, cpu0).Add(v)
}

func TestCollect(t *testing.T) {
	x := Scalar(2, cpu0)
	shared := x.Mul(x)
	v := shared.Add(shared)

	g := Collect(v)
	if len(g.Nodes) != 3 {
		t.Errorf("collected %d nodes, want 3", len(g.Nodes))
	}
	if got := g.CountOps(OpScalar); got != 1 {
		t.Errorf("CountOps(scalar) = %d, want 1", got)
	}
	if got := len(g.AllTensors()); got != 3 {
		t.Errorf("AllTensors has %d entries, want 3", got)
	}
	if len(Collect(Value{}).Nodes) != 0 {
		t.Errorf("collecting an absent value should be empty")
	}
}

func TestNodeIDsAreUnique(t *testing.T) {
	seen := make(map[engine.TensorID]bool)
	for i := 0; i < 100; i++ {
		id := Scalar(int64(i), cpu0).Node().TensorID()
		if seen[id] {
			t.Fatalf("duplicate node id %d", id)
		}
		seen[id] = true
	}
}
