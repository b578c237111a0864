package bus

import "github.com/nerrad567/gray-logic-bus/internal/grid"

// Capability names a kind of object a block can offer to a neighbour.
type Capability string

const (
	// CapabilityBusElement is offered by blocks that participate in the bus.
	CapabilityBusElement Capability = "bus_element"

	// CapabilityDevice is offered by blocks that expose a device.
	CapabilityDevice Capability = "device"
)

// Collector gathers the instances a block offers for one capability kind.
type Collector struct {
	kind   Capability
	offers []any
}

// NewCollector creates a collector for kind.
func NewCollector(kind Capability) *Collector {
	return &Collector{kind: kind}
}

// Kind returns the requested capability kind.
func (c *Collector) Kind() Capability {
	return c.kind
}

// Offer records instance if it is of the requested kind.
func (c *Collector) Offer(kind Capability, instance any) {
	if kind != c.kind || instance == nil {
		return
	}
	c.offers = append(c.offers, instance)
}

// Offers returns everything offered so far.
func (c *Collector) Offers() []any {
	return c.offers
}

// CapabilityProvider is implemented by blocks that answer capability queries.
//
// side is the face of the queried block that the requester touches.
type CapabilityProvider interface {
	CollectCapabilities(c *Collector, side grid.Direction)
}

// Collect asks the block at pos what it offers on side.
func Collect(w *World, pos grid.Pos, side grid.Direction, kind Capability) []any {
	provider, ok := w.Block(pos).(CapabilityProvider)
	if !ok {
		return nil
	}
	c := NewCollector(kind)
	provider.CollectCapabilities(c, side)
	return c.Offers()
}

// Lookup returns the first offer of type T from the block at pos.
func Lookup[T any](w *World, pos grid.Pos, side grid.Direction, kind Capability) (T, bool) {
	for _, offer := range Collect(w, pos, side, kind) {
		if v, ok := offer.(T); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}
