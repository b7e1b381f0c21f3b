package lazy

import (
	"slices"
	"sync"
	"sync/atomic"

	"k8s.io/examples/AI/lazytensor/pkg/engine"
	"k8s.io/examples/AI/lazytensor/pkg/engine/fallback"
	"k8s.io/examples/AI/lazytensor/pkg/engine/ir"
	"k8s.io/klog/v2"
)

// TransferFunc copies a host scalar to a device.
type TransferFunc func(value int64, device engine.Device) ir.DataHandle

type Option func(*Arena)

func WithObserver(o Observer) Option {
	return func(a *Arena) {
		a.SetObserver(o)
	}
}

func WithTransfer(fn TransferFunc) Option {
	return func(a *Arena) {
		a.transfer = fn
	}
}

// Arena holds the per-device contexts. Contexts are created on first use and
// live as long as the arena.
type Arena struct {
	transfer TransferFunc
	observer atomic.Pointer[Observer]

	// mu guards deviceContexts only.
	mu             sync.Mutex
	deviceContexts map[engine.Device]*deviceContext
}

var defaultArena = sync.OnceValue(func() *Arena {
	klog.V(2).InfoS("creating process-wide device context arena")
	return New()
})

// Get returns the process-wide arena. It is never torn down.
func Get() *Arena {
	return defaultArena()
}

func New(opts ...Option) *Arena {
	a := &Arena{
		transfer:       fallback.Transfer,
		deviceContexts: make(map[engine.Device]*deviceContext),
	}
	a.SetObserver(nil)
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// SetObserver replaces the lifecycle observer. A nil observer discards events.
func (a *Arena) SetObserver(o Observer) {
	if o == nil {
		o = nopObserver{}
	}
	a.observer.Store(&o)
}

func (a *Arena) notify() Observer {
	return *a.observer.Load()
}

// Devices returns every device that has a context, in device order.
func (a *Arena) Devices() []engine.Device {
	a.mu.Lock()
	defer a.mu.Unlock()

	devices := make([]engine.Device, 0, len(a.deviceContexts))
	for device := range a.deviceContexts {
		devices = append(devices, device)
	}
	slices.SortFunc(devices, engine.Device.Compare)
	return devices
}

func (a *Arena) getDeviceContext(device engine.Device) *deviceContext {
	a.mu.Lock()
	defer a.mu.Unlock()

	devctx, ok := a.deviceContexts[device]
	if !ok {
		devctx = newDeviceContext(device)
		a.deviceContexts[device] = devctx
		klog.V(2).InfoS("created device context", "device", device)
	}
	return devctx
}

func (a *Arena) allDeviceContexts() []*deviceContext {
	a.mu.Lock()
	defer a.mu.Unlock()

	contexts := make([]*deviceContext, 0, len(a.deviceContexts))
	for _, devctx := range a.deviceContexts {
		contexts = append(contexts, devctx)
	}
	slices.SortFunc(contexts, func(x, y *deviceContext) int {
		return x.device.Compare(y.device)
	})
	return contexts
}

// forAllDeviceContexts calls fn for the context of device, or for every known
// context when device is nil. fn runs with no arena lock held.
func (a *Arena) forAllDeviceContexts(device *engine.Device, fn func(*deviceContext)) {
	if device != nil {
		fn(a.getDeviceContext(*device))
		return
	}
	for _, devctx := range a.allDeviceContexts() {
		fn(devctx)
	}
}
