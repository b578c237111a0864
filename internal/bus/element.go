package bus

import (
	"encoding/json"
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/nerrad567/gray-logic-bus/internal/grid"
	"github.com/nerrad567/gray-logic-bus/internal/rpc"
)

// Element is the bus participation of one node.
type Element interface {
	Pos() grid.Pos

	// CanScanContinueTowards reports whether the bus continues through face.
	CanScanContinueTowards(face grid.Direction) bool

	// CanDetectDevicesTowards reports whether devices are exposed on face.
	// It implies CanScanContinueTowards.
	CanDetectDevicesTowards(face grid.Direction) bool

	// CollectDevices returns the devices reachable through face.
	CollectDevices(face grid.Direction) []ElementDevice

	// EnergyConsumption is the element's share of the bus energy budget.
	EnergyConsumption() float64

	AddController(c *Controller)
	RemoveController(c *Controller)
	Controllers() []*Controller
}

// ElementDevice is a device found by an element, with the ID the element
// assigned to it.
type ElementDevice struct {
	ID     uuid.UUID
	Device *rpc.Device
}

// DeviceRecord is the persisted identity of a device seen on one face.
type DeviceRecord struct {
	ID        uuid.UUID `json:"id"`
	TypeNames []string  `json:"type_names,omitempty"`
}

// ElementState is the persisted state of a BaseElement. Callers treat it as
// opaque JSON.
type ElementState struct {
	Devices map[string][]DeviceRecord `json:"devices,omitempty"`
}

// BaseElement implements the controller bookkeeping, neighbour device
// lookup and stable device IDs shared by bus nodes. Concrete nodes embed it
// and supply the connectivity predicate.
type BaseElement struct {
	net *Network
	pos grid.Pos

	mu          sync.Mutex
	controllers map[*Controller]struct{}
	records     [grid.FaceCount][]DeviceRecord
	assigned    [grid.FaceCount]map[any]uuid.UUID
}

// Attach binds the element to a network and position. Concrete nodes call
// it from Placed.
func (e *BaseElement) Attach(net *Network, pos grid.Pos) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.net = net
	e.pos = pos
}

// Pos returns the element position.
func (e *BaseElement) Pos() grid.Pos {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pos
}

// Network returns the network the element is attached to, or nil.
func (e *BaseElement) Network() *Network {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.net
}

// AddController records c as a controller reaching this element.
func (e *BaseElement) AddController(c *Controller) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.controllers == nil {
		e.controllers = make(map[*Controller]struct{})
	}
	e.controllers[c] = struct{}{}
}

// RemoveController forgets c.
func (e *BaseElement) RemoveController(c *Controller) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.controllers, c)
}

// Controllers returns the live controllers reaching this element.
func (e *BaseElement) Controllers() []*Controller {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]*Controller, 0, len(e.controllers))
	for c := range e.controllers {
		if !c.Removed() {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Pos().Less(out[j].Pos()) })
	return out
}

// ScheduleScan asks every controller reaching this element to rescan. The
// element's own controller, if it hosts one, is included.
func (e *BaseElement) ScheduleScan() {
	net := e.Network()
	if net == nil {
		return
	}
	for _, c := range e.Controllers() {
		net.ScheduleScan(c)
	}
	if c, ok := net.Controller(e.Pos()); ok {
		net.ScheduleScan(c)
	}
}

// HandleNeighborChanged schedules a scan when an adjacent block changed.
func (e *BaseElement) HandleNeighborChanged(from grid.Pos) {
	if _, adjacent := e.Pos().DirectionTo(from); adjacent {
		e.ScheduleScan()
	}
}

// Removed schedules a scan on every controller that reached this element.
func (e *BaseElement) Removed() {
	e.ScheduleScan()
	e.mu.Lock()
	e.controllers = nil
	e.mu.Unlock()
}

// NeighborDevices asks the network's device providers what the block
// across face exposes to this element.
func (e *BaseElement) NeighborDevices(face grid.Direction) []*rpc.Device {
	net := e.Network()
	if net == nil {
		return nil
	}
	return net.providedDevices(e.Pos().Offset(face), face.Opposite())
}

// AssignIDs pairs devices found on face with stable IDs.
//
// A device keeps the ID it had on any face of this element. Otherwise it
// takes a persisted ID on face whose recorded type names match, and only
// then gets a fresh one.
func (e *BaseElement) AssignIDs(face grid.Direction, devices []*rpc.Device) []ElementDevice {
	e.mu.Lock()
	prev := e.records[face]
	used := make(map[uuid.UUID]bool, len(devices))
	next := make([]DeviceRecord, 0, len(devices))
	assigned := make(map[any]uuid.UUID, len(devices))
	out := make([]ElementDevice, 0, len(devices))

	for _, dev := range devices {
		id, ok := e.knownID(dev.Key())
		if !ok || used[id] {
			id, ok = matchRecord(prev, dev.TypeNames(), used)
		}
		if !ok {
			id = uuid.New()
		}
		used[id] = true
		assigned[dev.Key()] = id
		next = append(next, DeviceRecord{ID: id, TypeNames: dev.TypeNames()})
		out = append(out, ElementDevice{ID: id, Device: dev})
	}

	e.assigned[face] = assigned
	changed := !slices.EqualFunc(prev, next, recordEqual)
	if changed {
		e.records[face] = next
	}
	net, pos := e.net, e.pos
	e.mu.Unlock()

	if changed && net != nil {
		net.World().MarkChanged(pos)
	}
	return out
}

// knownID must be called with e.mu held.
func (e *BaseElement) knownID(key any) (uuid.UUID, bool) {
	for _, m := range e.assigned {
		if id, ok := m[key]; ok {
			return id, true
		}
	}
	return uuid.UUID{}, false
}

func matchRecord(records []DeviceRecord, typeNames []string, used map[uuid.UUID]bool) (uuid.UUID, bool) {
	for _, r := range records {
		if !used[r.ID] && slices.Equal(r.TypeNames, typeNames) {
			return r.ID, true
		}
	}
	return uuid.UUID{}, false
}

func recordEqual(a, b DeviceRecord) bool {
	return a.ID == b.ID && slices.Equal(a.TypeNames, b.TypeNames)
}

// SaveState returns the persisted element state.
func (e *BaseElement) SaveState() (json.RawMessage, error) {
	e.mu.Lock()
	state := ElementState{}
	for _, face := range grid.Directions {
		if len(e.records[face]) == 0 {
			continue
		}
		if state.Devices == nil {
			state.Devices = make(map[string][]DeviceRecord)
		}
		state.Devices[face.String()] = append([]DeviceRecord(nil), e.records[face]...)
	}
	e.mu.Unlock()

	data, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("encoding element state: %w", err)
	}
	return data, nil
}

// LoadState restores state produced by SaveState. Unknown faces are ignored.
func (e *BaseElement) LoadState(data json.RawMessage) error {
	if len(data) == 0 {
		return nil
	}
	var state ElementState
	if err := json.Unmarshal(data, &state); err != nil {
		return fmt.Errorf("decoding element state: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	for name, records := range state.Devices {
		face, err := grid.ParseDirection(name)
		if err != nil {
			continue
		}
		e.records[face] = records
	}
	return nil
}
