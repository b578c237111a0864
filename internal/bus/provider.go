package bus

import (
	"github.com/nerrad567/gray-logic-bus/internal/grid"
	"github.com/nerrad567/gray-logic-bus/internal/rpc"
)

// DeviceProvider exposes the devices of the block at pos to a bus element
// touching its side face.
type DeviceProvider interface {
	Devices(w *World, pos grid.Pos, side grid.Direction) []*rpc.Device
}

// DeviceProviderFunc adapts a function to DeviceProvider.
type DeviceProviderFunc func(w *World, pos grid.Pos, side grid.Direction) []*rpc.Device

// Devices calls f.
func (f DeviceProviderFunc) Devices(w *World, pos grid.Pos, side grid.Direction) []*rpc.Device {
	return f(w, pos, side)
}

// CapabilityDeviceProvider exposes whatever a block offers as
// CapabilityDevice. Offers may be ready-made devices or host objects, which
// are wrapped with the binder. A host whose callbacks fail to bind is
// skipped and logged.
type CapabilityDeviceProvider struct {
	binder *rpc.Binder
	logger Logger
}

// NewCapabilityDeviceProvider creates a provider using binder, or
// rpc.DefaultBinder when nil.
func NewCapabilityDeviceProvider(binder *rpc.Binder) *CapabilityDeviceProvider {
	if binder == nil {
		binder = rpc.DefaultBinder
	}
	return &CapabilityDeviceProvider{binder: binder, logger: noopLogger{}}
}

// SetLogger sets the logger for bind failures.
func (p *CapabilityDeviceProvider) SetLogger(l Logger) {
	if l != nil {
		p.logger = l
	}
}

// Devices implements DeviceProvider.
func (p *CapabilityDeviceProvider) Devices(w *World, pos grid.Pos, side grid.Direction) []*rpc.Device {
	offers := Collect(w, pos, side, CapabilityDevice)
	if len(offers) == 0 {
		return nil
	}
	out := make([]*rpc.Device, 0, len(offers))
	for _, offer := range offers {
		if dev, ok := offer.(*rpc.Device); ok {
			out = append(out, dev)
			continue
		}
		dev, err := p.binder.Wrap(offer)
		if err != nil {
			p.logger.Warn("device failed to register",
				"pos", pos.String(),
				"side", side.String(),
				"error", err,
			)
			continue
		}
		out = append(out, dev)
	}
	return out
}
