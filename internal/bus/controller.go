package bus

import (
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/gray-logic-bus/internal/grid"
	"github.com/nerrad567/gray-logic-bus/internal/rpc"
)

// State is the outcome of a controller's latest scan.
type State string

const (
	// StateScanPending means the controller has not completed a scan yet.
	StateScanPending State = "scan_pending"

	// StateReady means the devices and energy reflect the connected bus.
	StateReady State = "ready"

	// StateTooComplex means the bus has more elements than allowed.
	StateTooComplex State = "too_complex"

	// StateMultipleControllers means another controller shares the bus.
	StateMultipleControllers State = "multiple_controllers"

	// StateRemoved means the controller's node left the world.
	StateRemoved State = "removed"
)

// Path is one way a device was discovered: the element at Pos looking
// through face Side.
type Path struct {
	Pos  grid.Pos       `json:"pos"`
	Side grid.Direction `json:"side"`
}

// DiscoveredDevice is a device reachable from a controller.
type DiscoveredDevice struct {
	ID     uuid.UUID
	Device *rpc.Device
	Paths  []Path
}

// ScanResult is the immutable outcome of one scan.
type ScanResult struct {
	State      State
	Devices    []DiscoveredDevice
	Elements   []grid.Pos
	Energy     float64
	ScannedAt  time.Time
	Generation uint64
}

// Device returns the discovered device with id.
func (r *ScanResult) Device(id uuid.UUID) (DiscoveredDevice, bool) {
	for _, d := range r.Devices {
		if d.ID == id {
			return d, true
		}
	}
	return DiscoveredDevice{}, false
}

// Controller owns the discovered devices of one connected bus.
type Controller struct {
	net *Network
	pos grid.Pos

	result  atomic.Pointer[ScanResult]
	removed atomic.Bool

	// loop-only
	elements   map[grid.Pos]Element
	generation uint64
}

func newController(net *Network, pos grid.Pos) *Controller {
	c := &Controller{net: net, pos: pos}
	c.result.Store(&ScanResult{State: StateScanPending})
	return c
}

// Pos returns the position of the controller's node.
func (c *Controller) Pos() grid.Pos {
	return c.pos
}

// Result returns the latest committed scan result. It never returns nil.
func (c *Controller) Result() *ScanResult {
	return c.result.Load()
}

// State returns the state of the latest committed scan.
func (c *Controller) State() State {
	return c.Result().State
}

// Removed reports whether the controller's node left the world.
func (c *Controller) Removed() bool {
	return c.removed.Load()
}

// ScheduleScan requests a rescan on the next tick.
func (c *Controller) ScheduleScan() {
	c.net.ScheduleScan(c)
}

// Pending reports whether a rescan is scheduled.
func (c *Controller) Pending() bool {
	return c.net.isPending(c)
}

func (c *Controller) destroy() {
	c.removed.Store(true)
	for _, e := range c.elements {
		e.RemoveController(c)
	}
	c.elements = nil
	prev := c.result.Load()
	c.result.Store(&ScanResult{
		State:      StateRemoved,
		ScannedAt:  prev.ScannedAt,
		Generation: prev.Generation,
	})
}
