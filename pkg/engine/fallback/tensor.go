package fallback

import (
	"fmt"

	"k8s.io/examples/AI/lazytensor/pkg/engine/ir"
)

type tensor struct {
	id   TensorID
	node *ir.Node

	dependencies []TensorID

	evaluated bool
	value     int64
}

func newTensor(node *ir.Node) *tensor {
	return &tensor{
		id:           node.TensorID(),
		node:         node,
		dependencies: node.Dependencies(),
	}
}

func (t *tensor) Value() (int64, error) {
	if !t.evaluated {
		return 0, fmt.Errorf("tensor %d has not been evaluated", t.id)
	}
	return t.value, nil
}

func (t *tensor) Dependencies() []TensorID {
	return t.dependencies
}

func (t *tensor) TensorID() TensorID {
	return t.id
}
