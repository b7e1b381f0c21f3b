package lazy

import (
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"k8s.io/examples/AI/lazytensor/pkg/engine"
)

func TestGetIsSingleton(t *testing.T) {
	const n = 16
	arenas := make([]*Arena, n)

	var wg sync.WaitGroup
	for i := range arenas {
		wg.Add(1)
		go func() {
			defer wg.Done()
			arenas[i] = Get()
		}()
	}
	wg.Wait()

	for i, a := range arenas {
		if a == nil || a != arenas[0] {
			t.Fatalf("Get() call %d returned a different arena", i)
		}
	}
}

func TestDevices(t *testing.T) {
	a := New()
	if got := a.Devices(); len(got) != 0 {
		t.Errorf("new arena has devices %v", got)
	}

	a.GetRunningSeed(gpu1)
	a.SetRngSeed(cpu0, 1)
	a.GetLiveTensors(&gpu0)

	want := []engine.Device{cpu0, gpu0, gpu1}
	if diff := cmp.Diff(want, a.Devices()); diff != "" {
		t.Errorf("unexpected devices (-want +got):\n%s", diff)
	}

	// Enumerating every device does not create contexts.
	a.GetLiveTensors(nil)
	if diff := cmp.Diff(want, a.Devices()); diff != "" {
		t.Errorf("unexpected devices (-want +got):\n%s", diff)
	}
}

func TestDeviceContextIsStable(t *testing.T) {
	a := New()
	first := a.getDeviceContext(cpu0)
	if second := a.getDeviceContext(cpu0); first != second {
		t.Errorf("getDeviceContext returned a new context for a known device")
	}
	if other := a.getDeviceContext(gpu0); other == first {
		t.Errorf("devices share a context")
	}
}
