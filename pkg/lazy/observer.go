package lazy

import "k8s.io/examples/AI/lazytensor/pkg/engine"

// Observer receives tensor lifecycle events. It is called after the
// registry has been updated and without any arena lock held.
type Observer interface {
	TensorCreated(device engine.Device)
	TensorDestroyed(device engine.Device)
}

type nopObserver struct{}

func (nopObserver) TensorCreated(engine.Device)   {}
func (nopObserver) TensorDestroyed(engine.Device) {}

type multiObserver []Observer

func (m multiObserver) TensorCreated(device engine.Device) {
	for _, o := range m {
		o.TensorCreated(device)
	}
}

func (m multiObserver) TensorDestroyed(device engine.Device) {
	for _, o := range m {
		o.TensorDestroyed(device)
	}
}

// Observers fans events out to every observer in order.
func Observers(observers ...Observer) Observer {
	return multiObserver(observers)
}
