package ir

import (
	"fmt"
	"strconv"
	"sync/atomic"

	"k8s.io/examples/AI/lazytensor/pkg/engine"
)

type OpKind int

const (
	OpDeviceData OpKind = iota + 1
	OpScalar
	OpAdd
	OpMul
)

func (k OpKind) String() string {
	switch k {
	case OpDeviceData:
		return "device_data"
	case OpScalar:
		return "scalar"
	case OpAdd:
		return "add"
	case OpMul:
		return "mul"
	default:
		return "OpKind(" + strconv.Itoa(int(k)) + ")"
	}
}

// DataHandle is device-resident data owned by an executor.
type DataHandle interface {
	Device() engine.Device
}

var lastNodeID atomic.Int64

// Node is an immutable vertex of a deferred computation.
type Node struct {
	id       engine.TensorID
	op       OpKind
	device   engine.Device
	operands []*Node

	// scalar is set for OpScalar
	scalar int64

	// data is set for OpDeviceData
	data DataHandle
}

func newNode(op OpKind, device engine.Device, operands ...*Node) *Node {
	return &Node{
		id:       engine.TensorID(lastNodeID.Add(1)),
		op:       op,
		device:   device,
		operands: operands,
	}
}

func (n *Node) TensorID() engine.TensorID {
	return n.id
}

func (n *Node) Dependencies() []engine.TensorID {
	deps := make([]engine.TensorID, len(n.operands))
	for i, operand := range n.operands {
		deps[i] = operand.id
	}
	return deps
}

func (n *Node) Op() OpKind {
	return n.op
}

func (n *Node) Device() engine.Device {
	return n.device
}

func (n *Node) Operands() []*Node {
	return n.operands
}

// ScalarValue is the constant held by an OpScalar node.
func (n *Node) ScalarValue() int64 {
	return n.scalar
}

// Data is the handle wrapped by an OpDeviceData node.
func (n *Node) Data() DataHandle {
	return n.data
}

func (n *Node) String() string {
	switch n.op {
	case OpScalar:
		return fmt.Sprintf("%%%d = scalar(%d, device=%v)", n.id, n.scalar, n.device)
	case OpDeviceData:
		return fmt.Sprintf("%%%d = device_data(device=%v)", n.id, n.device)
	default:
		s := fmt.Sprintf("%%%d = %v(", n.id, n.op)
		for i, operand := range n.operands {
			if i != 0 {
				s += ", "
			}
			s += fmt.Sprintf("%%%d", operand.id)
		}
		return s + ")"
	}
}
