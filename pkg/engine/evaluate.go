package engine

import "fmt"

// Evaluate computes every tensor needed for wantTensors, dependencies first.
func Evaluate(scope Evaluator, wantTensors []TensorID) error {
	evaluationOrder, err := BuildDAG(scope, wantTensors)
	if err != nil {
		return fmt.Errorf("building DAG: %w", err)
	}

	for _, id := range evaluationOrder {
		if err := scope.EvaluateTensor(id); err != nil {
			return fmt.Errorf("evaluating tensor %d: %w", id, err)
		}
	}
	return nil
}
