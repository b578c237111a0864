package cable

import (
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/nerrad567/gray-logic-bus/internal/bus"
	"github.com/nerrad567/gray-logic-bus/internal/grid"
	"github.com/nerrad567/gray-logic-bus/internal/replication"
	"github.com/nerrad567/gray-logic-bus/internal/rpc"
)

// Kind identifies cable records in the node store.
const Kind = "cable"

// MaxInterfaceNameLength is the longest interface label, in runes.
const MaxInterfaceNameLength = 32

// Energy is the per-tick cost of a cable.
type Energy struct {
	Base             float64
	CablePerTick     float64
	InterfacePerTick float64
}

// Options configures a Cable.
type Options struct {
	Energy  Energy
	Catalog AppearanceCatalog
	Sink    replication.Sink
}

// Cable is a bus cable node.
//
// Mutators are expected on the bus loop. Readers may run anywhere.
type Cable struct {
	bus.BaseElement

	net  *bus.Network
	opts Options

	mu     sync.RWMutex
	conn   [grid.FaceCount]grid.ConnectionType
	names  [grid.FaceCount]string
	facade string
}

// New creates an unplaced cable for net with every face closed.
func New(net *bus.Network, opts Options) *Cable {
	return &Cable{net: net, opts: opts}
}

// Placed implements bus.Placeable.
func (c *Cable) Placed(_ *bus.World, pos grid.Pos) {
	c.Attach(c.net, pos)
}

// Kind returns the node store kind.
func (c *Cable) Kind() string {
	return Kind
}

// ConnectionType returns the connection kind of face.
func (c *Cable) ConnectionType(face grid.Direction) grid.ConnectionType {
	if !face.Valid() {
		return grid.ConnectionNone
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.conn[face]
}

// SetConnectionType changes the connection kind of face. It is the entry
// point for external changes to the cable's block state.
func (c *Cable) SetConnectionType(face grid.Direction, t grid.ConnectionType) {
	if !face.Valid() {
		return
	}
	c.mu.Lock()
	if c.conn[face] == t {
		c.mu.Unlock()
		return
	}
	c.conn[face] = t
	c.mu.Unlock()

	c.markChanged()
	c.HandleConnectivityChanged(&face)
}

// HandleConnectivityChanged reacts to a connection change on face, or on
// the whole block when face is nil.
//
// A face change clears that face's label and tells both this cable and the
// neighbour across the face to rescan.
func (c *Cable) HandleConnectivityChanged(face *grid.Direction) {
	if face == nil {
		c.ScheduleScan()
		return
	}
	c.SetInterfaceName(*face, "")

	pos := c.Pos()
	c.HandleNeighborChanged(pos.Offset(*face))
	if net := c.Network(); net != nil {
		net.World().NotifyNeighbors(pos)
	}
}

// InterfaceCount returns the number of interface faces.
func (c *Cable) InterfaceCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	n := 0
	for _, t := range c.conn {
		if t == grid.ConnectionInterface {
			n++
		}
	}
	return n
}

// CollectCapabilities offers the cable's bus element on connected faces.
func (c *Cable) CollectCapabilities(col *bus.Collector, side grid.Direction) {
	if c.ConnectionType(side) != grid.ConnectionNone {
		col.Offer(bus.CapabilityBusElement, bus.Element(c))
	}
}

// CanScanContinueTowards implements bus.Element.
func (c *Cable) CanScanContinueTowards(face grid.Direction) bool {
	t := c.ConnectionType(face)
	return t == grid.ConnectionLink || t == grid.ConnectionInterface
}

// CanDetectDevicesTowards implements bus.Element.
func (c *Cable) CanDetectDevicesTowards(face grid.Direction) bool {
	return c.ConnectionType(face) == grid.ConnectionInterface
}

// CollectDevices returns the neighbour's devices on face plus a named
// device for the face's label.
func (c *Cable) CollectDevices(face grid.Direction) []bus.ElementDevice {
	devices := c.NeighborDevices(face)
	if name := c.InterfaceName(face); name != "" {
		devices = append(devices, rpc.NewTypeNameDevice(name))
	}
	return c.AssignIDs(face, devices)
}

// EnergyConsumption implements bus.Element. Every cable pays the base and
// cable cost, connected or not.
func (c *Cable) EnergyConsumption() float64 {
	e := c.opts.Energy
	return e.Base + e.CablePerTick + float64(c.InterfaceCount())*e.InterfacePerTick
}

// InterfaceName returns the label of face, or "".
func (c *Cable) InterfaceName(face grid.Direction) string {
	if !face.Valid() {
		return ""
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.names[face]
}

// InterfaceNames returns the labels of all faces in face order.
func (c *Cable) InterfaceNames() [grid.FaceCount]string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.names
}

// SetInterfaceName labels face with name, trimmed and truncated to
// MaxInterfaceNameLength runes. Setting the current label does nothing.
func (c *Cable) SetInterfaceName(face grid.Direction, name string) {
	if !face.Valid() {
		return
	}
	name = NormalizeInterfaceName(name)

	c.mu.Lock()
	if c.names[face] == name {
		c.mu.Unlock()
		return
	}
	c.names[face] = name
	c.mu.Unlock()

	pos := c.Pos()
	c.send(replication.InterfaceNameChanged(pos, face, name))
	c.HandleNeighborChanged(pos.Offset(face))
	c.markChanged()
}

// NormalizeInterfaceName trims name and truncates it to
// MaxInterfaceNameLength runes.
func NormalizeInterfaceName(name string) string {
	name = strings.TrimSpace(name)
	if utf8.RuneCountInString(name) <= MaxInterfaceNameLength {
		return name
	}
	runes := []rune(name)
	return strings.TrimSpace(string(runes[:MaxInterfaceNameLength]))
}

// FacadeType classifies ref against the cable's appearance catalog.
func (c *Cable) FacadeType(ref string) FacadeType {
	return Classify(c.opts.Catalog, ref)
}

// Facade returns the facade reference, or "".
func (c *Cable) Facade() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.facade
}

// SetFacade sets the facade to ref. A reference that is not a valid block
// clears the facade instead.
func (c *Cable) SetFacade(ref string) {
	ref = strings.TrimSpace(ref)
	if c.FacadeType(ref) != ValidBlock {
		ref = ""
	}
	c.setFacade(ref)
}

// RemoveFacade clears the facade.
func (c *Cable) RemoveFacade() {
	c.setFacade("")
}

func (c *Cable) setFacade(ref string) {
	c.mu.Lock()
	if c.facade == ref {
		c.mu.Unlock()
		return
	}
	c.facade = ref
	c.mu.Unlock()

	c.markChanged()
	c.send(replication.FacadeChanged(c.Pos(), ref))
}

func (c *Cable) send(m replication.Message) {
	if c.opts.Sink == nil || c.Network() == nil {
		return
	}
	c.opts.Sink.Send(m)
}

func (c *Cable) markChanged() {
	if net := c.Network(); net != nil {
		net.World().MarkChanged(c.Pos())
	}
}
