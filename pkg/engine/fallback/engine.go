package fallback

import (
	"fmt"

	"k8s.io/examples/AI/lazytensor/pkg/engine"
	"k8s.io/examples/AI/lazytensor/pkg/engine/ir"
)

type TensorID = engine.TensorID

// CalculationScope evaluates scalar graphs for one device on the host.
// Integer arithmetic wraps around.
type CalculationScope struct {
	device  engine.Device
	tensors map[TensorID]*tensor
}

var _ engine.Evaluator = (*CalculationScope)(nil)

func NewCalculationScope(device engine.Device) *CalculationScope {
	return &CalculationScope{
		device:  device,
		tensors: make(map[TensorID]*tensor),
	}
}

func (c *CalculationScope) AllTensors() map[TensorID]engine.Tensor {
	tensors := make(map[TensorID]engine.Tensor, len(c.tensors))
	for _, tensor := range c.tensors {
		tensors[tensor.id] = tensor
	}
	return tensors
}

// Register adds every node reachable from v. Nodes already in the scope are kept
// with whatever value they were evaluated to.
func (c *CalculationScope) Register(v ir.Value) error {
	if v.IsZero() {
		return fmt.Errorf("cannot register an absent value")
	}
	for id, node := range ir.Collect(v).Nodes {
		if node.Device() != c.device {
			return fmt.Errorf("node %d is on device %v, scope is on %v", id, node.Device(), c.device)
		}
		if _, ok := c.tensors[id]; ok {
			continue
		}
		c.tensors[id] = newTensor(node)
	}
	return nil
}

// Evaluate returns the value computed by v.
func (c *CalculationScope) Evaluate(v ir.Value) (int64, error) {
	if err := c.Register(v); err != nil {
		return 0, err
	}
	root := v.Node().TensorID()
	if err := engine.Evaluate(c, []TensorID{root}); err != nil {
		return 0, err
	}
	return c.tensors[root].Value()
}

func (c *CalculationScope) EvaluateTensor(id TensorID) error {
	tensor, ok := c.tensors[id]
	if !ok {
		return fmt.Errorf("tensor %d not found", id)
	}
	if tensor.evaluated {
		return nil
	}

	node := tensor.node
	switch node.Op() {
	case ir.OpScalar:
		tensor.value = node.ScalarValue()

	case ir.OpDeviceData:
		data, ok := node.Data().(*Data)
		if !ok {
			return fmt.Errorf("device data of type %T is not host data", node.Data())
		}
		if data.Device() != c.device {
			return fmt.Errorf("device data is on %v, scope is on %v", data.Device(), c.device)
		}
		tensor.value = data.Value()

	case ir.OpAdd, ir.OpMul:
		sources, err := c.getSourceValues(tensor.dependencies...)
		if err != nil {
			return err
		}
		if len(sources) != 2 {
			return fmt.Errorf("expected 2 source tensors, got %d", len(sources))
		}
		// Computed on uint64 so overflow wraps.
		lhs, rhs := uint64(sources[0]), uint64(sources[1])
		if node.Op() == ir.OpAdd {
			tensor.value = int64(lhs + rhs)
		} else {
			tensor.value = int64(lhs * rhs)
		}

	default:
		return fmt.Errorf("unsupported operation: %v", node.Op())
	}

	tensor.evaluated = true
	return nil
}

func (c *CalculationScope) getSourceValues(dependencies ...TensorID) ([]int64, error) {
	out := make([]int64, len(dependencies))
	for i, dependency := range dependencies {
		source, found := c.tensors[dependency]
		if !found {
			return nil, fmt.Errorf("source tensor %d not found", dependency)
		}
		v, err := source.Value()
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
