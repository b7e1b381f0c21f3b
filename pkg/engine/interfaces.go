package engine

// TensorID is the process-unique identity of a tensor or graph node.
type TensorID int64

// Scope is a set of tensors that can be ordered for evaluation.
type Scope interface {
	AllTensors() map[TensorID]Tensor
}

type Tensor interface {
	TensorID() TensorID
	Dependencies() []TensorID
}

// Evaluator is a Scope that knows how to compute a single tensor once its
// dependencies have been computed.
type Evaluator interface {
	Scope

	EvaluateTensor(id TensorID) error
}
