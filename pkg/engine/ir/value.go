package ir

import "k8s.io/examples/AI/lazytensor/pkg/engine"

// Value is a reference to a graph node. The zero Value is absent.
type Value struct {
	node *Node
}

// DeviceData makes a leaf node from device-resident data.
func DeviceData(data DataHandle) Value {
	n := newNode(OpDeviceData, data.Device())
	n.data = data
	return Value{node: n}
}

// Scalar makes a constant node that is embedded in the computation
// rather than passed as a parameter.
func Scalar(v int64, device engine.Device) Value {
	n := newNode(OpScalar, device)
	n.scalar = v
	return Value{node: n}
}

func (v Value) IsZero() bool {
	return v.node == nil
}

func (v Value) Node() *Node {
	return v.node
}

func (v Value) Add(other Value) Value {
	return binary(OpAdd, v, other)
}

func (v Value) Mul(other Value) Value {
	return binary(OpMul, v, other)
}

func binary(op OpKind, lhs, rhs Value) Value {
	if lhs.IsZero() || rhs.IsZero() {
		panic("ir: " + op.String() + " on absent value")
	}
	return Value{node: newNode(op, lhs.node.device, lhs.node, rhs.node)}
}

func (v Value) String() string {
	if v.node == nil {
		return "<absent>"
	}
	return v.node.String()
}
