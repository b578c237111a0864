package bus

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/gray-logic-bus/internal/grid"
	"github.com/nerrad567/gray-logic-bus/internal/rpc"
)

// DefaultMaxElements bounds the number of elements one controller scans.
const DefaultMaxElements = 128

// Config holds the network limits.
type Config struct {
	// MaxElements is the largest bus a controller accepts before reporting
	// StateTooComplex.
	MaxElements int
}

// ScanObserver is notified after every committed scan.
type ScanObserver interface {
	ScanCompleted(controller grid.Pos, result *ScanResult, took time.Duration)
}

// Network coordinates the controllers of one world.
type Network struct {
	world  *World
	cfg    Config
	logger Logger
	now    func() time.Time

	mu          sync.RWMutex
	controllers map[grid.Pos]*Controller
	pending     map[*Controller]struct{}
	providers   []DeviceProvider
	observers   []ScanObserver
}

// NewNetwork creates a network over world. The network listens for block
// removal so that a controller dies with its node.
func NewNetwork(world *World, cfg Config) *Network {
	if cfg.MaxElements <= 0 {
		cfg.MaxElements = DefaultMaxElements
	}
	n := &Network{
		world:       world,
		cfg:         cfg,
		logger:      noopLogger{},
		now:         time.Now,
		controllers: make(map[grid.Pos]*Controller),
		pending:     make(map[*Controller]struct{}),
	}
	world.AddBlockListener(n)
	return n
}

// SetLogger sets the logger.
func (n *Network) SetLogger(l Logger) {
	if l != nil {
		n.logger = l
	}
}

// World returns the world the network runs on.
func (n *Network) World() *World {
	return n.world
}

// AddDeviceProvider registers p. Providers are queried in registration order.
func (n *Network) AddDeviceProvider(p DeviceProvider) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.providers = append(n.providers, p)
}

// AddObserver registers o for scan completion.
func (n *Network) AddObserver(o ScanObserver) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.observers = append(n.observers, o)
}

// AttachController creates a controller owned by the element at pos and
// schedules its first scan.
func (n *Network) AttachController(pos grid.Pos) (*Controller, error) {
	if _, ok := n.world.Block(pos).(Element); !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotElement, pos)
	}

	n.mu.Lock()
	if _, exists := n.controllers[pos]; exists {
		n.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrControllerExists, pos)
	}
	c := newController(n, pos)
	n.controllers[pos] = c
	n.mu.Unlock()

	n.logger.Debug("controller attached", "pos", pos.String())
	n.ScheduleScan(c)
	return c, nil
}

// Controller returns the controller owned by the node at pos.
func (n *Network) Controller(pos grid.Pos) (*Controller, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	c, ok := n.controllers[pos]
	return c, ok
}

// Controllers returns every live controller ordered by position.
func (n *Network) Controllers() []*Controller {
	n.mu.RLock()
	out := make([]*Controller, 0, len(n.controllers))
	for _, c := range n.controllers {
		out = append(out, c)
	}
	n.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].pos.Less(out[j].pos) })
	return out
}

// ScheduleScan marks c for a rescan on the next tick. Repeated calls before
// that tick coalesce.
func (n *Network) ScheduleScan(c *Controller) {
	if c == nil || c.Removed() {
		return
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.pending[c] = struct{}{}
}

func (n *Network) isPending(c *Controller) bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	_, ok := n.pending[c]
	return ok
}

// Tick scans every controller scheduled before the call and returns the
// number of scans committed. Scans scheduled while Tick runs wait for the
// next call.
func (n *Network) Tick() int {
	n.mu.Lock()
	batch := make([]*Controller, 0, len(n.pending))
	for c := range n.pending {
		batch = append(batch, c)
	}
	n.pending = make(map[*Controller]struct{})
	n.mu.Unlock()

	sort.Slice(batch, func(i, j int) bool { return batch[i].pos.Less(batch[j].pos) })

	committed := 0
	for _, c := range batch {
		if c.Removed() {
			continue
		}
		start := n.now()
		result, elements := n.scan(c)
		if n.commit(c, result, elements, n.now().Sub(start)) {
			committed++
		}
	}
	return committed
}

// commit swaps in result unless c was removed while scanning.
func (n *Network) commit(c *Controller, result *ScanResult, elements map[grid.Pos]Element, took time.Duration) bool {
	if c.Removed() {
		n.logger.Debug("discarding scan of removed controller", "pos", c.pos.String())
		return false
	}

	for pos, e := range c.elements {
		if _, still := elements[pos]; !still || elements[pos] != e {
			e.RemoveController(c)
		}
	}
	for _, e := range elements {
		e.AddController(c)
	}
	c.elements = elements

	c.generation++
	result.Generation = c.generation
	c.result.Store(result)

	n.mu.RLock()
	observers := append([]ScanObserver(nil), n.observers...)
	n.mu.RUnlock()
	for _, o := range observers {
		o.ScanCompleted(c.pos, result, took)
	}
	return true
}

// BlockAdded implements BlockListener.
func (n *Network) BlockAdded(grid.Pos, Block) {}

// BlockRemoved implements BlockListener. A controller is destroyed with its
// node; the devices it found become unreachable.
func (n *Network) BlockRemoved(pos grid.Pos, _ Block) {
	n.mu.Lock()
	c, ok := n.controllers[pos]
	if ok {
		delete(n.controllers, pos)
		delete(n.pending, c)
	}
	n.mu.Unlock()

	if ok {
		c.destroy()
		n.logger.Debug("controller removed", "pos", pos.String())
	}
}

func (n *Network) providedDevices(pos grid.Pos, side grid.Direction) []*rpc.Device {
	n.mu.RLock()
	providers := append([]DeviceProvider(nil), n.providers...)
	n.mu.RUnlock()

	var out []*rpc.Device
	for _, p := range providers {
		out = append(out, p.Devices(n.world, pos, side)...)
	}
	return out
}

// FindDevice returns the reachable device with id and the controller that
// found it.
func (n *Network) FindDevice(id uuid.UUID) (DiscoveredDevice, *Controller, error) {
	for _, c := range n.Controllers() {
		if d, ok := c.Result().Device(id); ok {
			return d, c, nil
		}
	}
	return DiscoveredDevice{}, nil, fmt.Errorf("%w: %s", ErrDeviceNotFound, id)
}

// Devices returns every reachable device, grouped by controller.
func (n *Network) Devices() []DiscoveredDevice {
	var out []DiscoveredDevice
	for _, c := range n.Controllers() {
		out = append(out, c.Result().Devices...)
	}
	return out
}
