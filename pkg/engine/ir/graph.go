package ir

import "k8s.io/examples/AI/lazytensor/pkg/engine"

// Graph is the set of nodes reachable from a root value.
type Graph struct {
	Root  *Node
	Nodes map[engine.TensorID]*Node
}

var _ engine.Scope = (*Graph)(nil)

// Collect walks every node reachable from v. Shared subgraphs are visited once.
func Collect(v Value) *Graph {
	g := &Graph{
		Root:  v.node,
		Nodes: make(map[engine.TensorID]*Node),
	}
	if v.node == nil {
		return g
	}

	stack := []*Node{v.node}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, seen := g.Nodes[n.id]; seen {
			continue
		}
		g.Nodes[n.id] = n
		stack = append(stack, n.operands...)
	}
	return g
}

func (g *Graph) AllTensors() map[engine.TensorID]engine.Tensor {
	tensors := make(map[engine.TensorID]engine.Tensor, len(g.Nodes))
	for id, n := range g.Nodes {
		tensors[id] = n
	}
	return tensors
}

// CountOps returns how many nodes of the given kind the graph holds.
func (g *Graph) CountOps(op OpKind) int {
	count := 0
	for _, n := range g.Nodes {
		if n.op == op {
			count++
		}
	}
	return count
}
