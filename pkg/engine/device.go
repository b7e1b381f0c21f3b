package engine

import (
	"cmp"
	"fmt"
	"strconv"
	"strings"
)

// DeviceKind is the class of compute target a Device refers to.
type DeviceKind int

const (
	CPU DeviceKind = iota
	GPU
	TPU
)

var deviceKindNames = map[DeviceKind]string{
	CPU: "CPU",
	GPU: "GPU",
	TPU: "TPU",
}

func (k DeviceKind) String() string {
	if name, ok := deviceKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("DeviceKind(%d)", int(k))
}

// Device identifies a compute target, e.g. GPU:1.
// Devices are comparable and can be used as map keys.
type Device struct {
	Kind    DeviceKind
	Ordinal int
}

func (d Device) String() string {
	return d.Kind.String() + ":" + strconv.Itoa(d.Ordinal)
}

// Compare orders devices by kind, then by ordinal.
func (d Device) Compare(other Device) int {
	if c := cmp.Compare(d.Kind, other.Kind); c != 0 {
		return c
	}
	return cmp.Compare(d.Ordinal, other.Ordinal)
}

// ParseDevice parses the KIND:ORDINAL form produced by Device.String.
// A missing ordinal means 0.
func ParseDevice(s string) (Device, error) {
	kindName, ordinal, hasOrdinal := strings.Cut(strings.TrimSpace(s), ":")

	var device Device
	found := false
	for kind, name := range deviceKindNames {
		if strings.EqualFold(name, kindName) {
			device.Kind = kind
			found = true
			break
		}
	}
	if !found {
		return Device{}, fmt.Errorf("unknown device kind %q", kindName)
	}

	if hasOrdinal {
		n, err := strconv.Atoi(ordinal)
		if err != nil {
			return Device{}, fmt.Errorf("parsing ordinal of device %q: %w", s, err)
		}
		if n < 0 {
			return Device{}, fmt.Errorf("device %q has negative ordinal", s)
		}
		device.Ordinal = n
	}
	return device, nil
}

// ParseDevices parses a comma separated device list.
func ParseDevices(s string) ([]Device, error) {
	var devices []Device
	for _, token := range strings.Split(s, ",") {
		if strings.TrimSpace(token) == "" {
			continue
		}
		device, err := ParseDevice(token)
		if err != nil {
			return nil, err
		}
		devices = append(devices, device)
	}
	return devices, nil
}
