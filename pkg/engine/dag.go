package engine

import (
	"fmt"
	"slices"
)

// BuildDAG returns the tensors of scope in an order where every tensor comes
// after its dependencies. Tensors depending on something outside the scope are
// never ready; it is an error if one of wantTensors is among them.
func BuildDAG(scope Scope, wantTensors []TensorID) ([]TensorID, error) {
	allTensors := scope.AllTensors()

	ids := make([]TensorID, 0, len(allTensors))
	for id := range allTensors {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	pending := make(map[TensorID]int, len(allTensors))
	dependents := make(map[TensorID][]TensorID)
	for _, id := range ids {
		deps := allTensors[id].Dependencies()
		pending[id] = len(deps)
		for _, dep := range deps {
			dependents[dep] = append(dependents[dep], id)
		}
	}

	var ready []TensorID
	for _, id := range ids {
		if pending[id] == 0 {
			ready = append(ready, id)
		}
	}

	evaluationOrder := make([]TensorID, 0, len(allTensors))
	done := make(map[TensorID]bool, len(allTensors))
	for len(ready) > 0 {
		id := ready[0]
		ready = ready[1:]

		done[id] = true
		evaluationOrder = append(evaluationOrder, id)

		for _, dependent := range dependents[id] {
			pending[dependent]--
			if pending[dependent] == 0 {
				ready = append(ready, dependent)
			}
		}
	}

	for _, id := range wantTensors {
		if !done[id] {
			return nil, fmt.Errorf("tensor %d could not be computed (unreachable in computation graph)", id)
		}
	}

	return evaluationOrder, nil
}
