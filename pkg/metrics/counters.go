package metrics

import (
	"sync/atomic"

	"k8s.io/examples/AI/lazytensor/pkg/engine"
)

// Counters keeps process-local totals of tensor lifecycle events.
type Counters struct {
	created   atomic.Int64
	destroyed atomic.Int64
}

func (c *Counters) TensorCreated(engine.Device) {
	c.created.Add(1)
}

func (c *Counters) TensorDestroyed(engine.Device) {
	c.destroyed.Add(1)
}

func (c *Counters) Created() int64 {
	return c.created.Load()
}

func (c *Counters) Destroyed() int64 {
	return c.destroyed.Load()
}

// Live is the number of tensors created and not yet destroyed.
func (c *Counters) Live() int64 {
	return c.Created() - c.Destroyed()
}
