package redstone

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/nerrad567/gray-logic-bus/internal/bus"
	"github.com/nerrad567/gray-logic-bus/internal/grid"
	"github.com/nerrad567/gray-logic-bus/internal/rpc"
)

// Kind identifies redstone interface records in the node store.
const Kind = "redstone"

// TypeName is the device type name reported on the bus.
const TypeName = "redstone"

// Signal bounds.
const (
	MinLevel = 0
	MaxLevel = 15
)

const (
	methodGetInput  = "getRedstoneInput"
	methodGetOutput = "getRedstoneOutput"
	methodSetOutput = "setRedstoneOutput"
	paramSide       = "side"
	paramValue      = "value"
)

// Interface is a redstone interface block.
//
// Output levels are indexed by local side. Reads are safe from any
// goroutine; setRedstoneOutput runs on the bus loop.
type Interface struct {
	facing grid.Direction

	mu     sync.RWMutex
	world  *bus.World
	pos    grid.Pos
	output [grid.FaceCount]uint8
}

// NewInterface creates an interface facing facing. Only horizontal facings
// rotate sides.
func NewInterface(facing grid.Direction) *Interface {
	if !facing.Valid() {
		facing = grid.North
	}
	return &Interface{facing: facing}
}

// Placed implements bus.Placeable.
func (r *Interface) Placed(w *bus.World, pos grid.Pos) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.world = w
	r.pos = pos
}

// Removed implements bus.Removable.
func (r *Interface) Removed() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.world = nil
}

// Kind returns the node store kind.
func (r *Interface) Kind() string {
	return Kind
}

// Facing returns the direction the interface faces.
func (r *Interface) Facing() grid.Direction {
	return r.facing
}

func (r *Interface) placement() (*bus.World, grid.Pos) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.world, r.pos
}

// CollectCapabilities offers the interface as a device on every face.
func (r *Interface) CollectCapabilities(c *bus.Collector, _ grid.Direction) {
	c.Offer(bus.CapabilityDevice, r)
}

// Callbacks implements rpc.CallbackProvider.
func (r *Interface) Callbacks() []rpc.Callback {
	return []rpc.Callback{
		{Method: "RedstoneInput", Name: methodGetInput, Params: []string{paramSide}},
		{Method: "RedstoneOutput", Name: methodGetOutput, Params: []string{paramSide}, Async: true},
		{Method: "SetRedstoneOutput", Name: methodSetOutput, Params: []string{paramSide, paramValue}},
	}
}

// DeviceTypeNames implements rpc.NamedDevice.
func (r *Interface) DeviceTypeNames() []string {
	return []string{TypeName}
}

// DocumentDevice implements rpc.DocumentedDevice.
func (r *Interface) DocumentDevice(v rpc.DeviceVisitor) {
	v.VisitCallback(methodGetInput).
		Description("Get the current redstone level received on the specified side. "+
			"A non-zero output on the same side affects the measured level.\n"+
			"Sides may be specified by name or zero-based index and depend on the orientation of the device.").
		ReturnValueDescription("the current received level on the specified side.").
		ParameterDescription(paramSide, "the side to read the input level from.")

	v.VisitCallback(methodGetOutput).
		Description("Get the current redstone level transmitted on the specified side. "+
			"This is the value last set via setRedstoneOutput().\n"+
			"Sides may be specified by name or zero-based index and depend on the orientation of the device.").
		ReturnValueDescription("the current transmitted level on the specified side.").
		ParameterDescription(paramSide, "the side to read the output level from.")

	v.VisitCallback(methodSetOutput).
		Description("Set the new redstone level transmitted on the specified side.\n"+
			"Sides may be specified by name or zero-based index and depend on the orientation of the device.").
		ParameterDescription(paramSide, "the side to write the output level to.").
		ParameterDescription(paramValue, "the output level to set, will be clamped to [0, 15].")
}

func requireSide(side *grid.Direction) error {
	if side == nil {
		return fmt.Errorf("%w: %s is required", rpc.ErrInvalidArgument, paramSide)
	}
	return nil
}

// RedstoneInput returns the level received on the local side.
func (r *Interface) RedstoneInput(side *grid.Direction) (int, error) {
	if err := requireSide(side); err != nil {
		return 0, err
	}
	w, pos := r.placement()
	if w == nil {
		return 0, nil
	}
	return w.Signal(pos, grid.ToGlobal(r.facing, *side)), nil
}

// RedstoneOutput returns the level emitted on the local side.
func (r *Interface) RedstoneOutput(side *grid.Direction) (int, error) {
	if err := requireSide(side); err != nil {
		return 0, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int(r.output[*side]), nil
}

// SetRedstoneOutput sets the level emitted on the local side, clamped to
// MinLevel..MaxLevel. Setting the current level does nothing.
func (r *Interface) SetRedstoneOutput(side *grid.Direction, value int) error {
	if err := requireSide(side); err != nil {
		return err
	}
	level := uint8(Clamp(value))

	r.mu.Lock()
	if r.output[*side] == level {
		r.mu.Unlock()
		return nil
	}
	r.output[*side] = level
	w, pos := r.world, r.pos
	r.mu.Unlock()

	if w != nil {
		w.NotifyNeighbors(pos)
		w.NotifyNeighbors(pos.Offset(grid.ToGlobal(r.facing, *side)))
		w.MarkChanged(pos)
	}
	return nil
}

// SignalTowards implements bus.SignalEmitter for a world-space face.
func (r *Interface) SignalTowards(face grid.Direction) int {
	if !face.Valid() {
		return 0
	}
	local := grid.ToLocal(r.facing, face)
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int(r.output[local])
}

// Clamp limits v to MinLevel..MaxLevel.
func Clamp(v int) int {
	return max(MinLevel, min(MaxLevel, v))
}

// State is the persisted form of an interface.
type State struct {
	Output []int `json:"output"`
}

// SaveState encodes the output levels.
func (r *Interface) SaveState() (json.RawMessage, error) {
	r.mu.RLock()
	s := State{Output: make([]int, len(r.output))}
	for i, v := range r.output {
		s.Output[i] = int(v)
	}
	r.mu.RUnlock()

	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encoding redstone state: %w", err)
	}
	return data, nil
}

// LoadState restores output levels. Missing sides keep their level and
// stored values are clamped.
func (r *Interface) LoadState(data json.RawMessage) error {
	if len(data) == 0 {
		return nil
	}
	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("decoding redstone state: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for i := 0; i < len(r.output) && i < len(s.Output); i++ {
		r.output[i] = uint8(Clamp(s.Output[i]))
	}
	return nil
}
