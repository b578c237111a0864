package bus

import (
	"sort"
	"sync"

	"github.com/nerrad567/gray-logic-bus/internal/grid"
)

// Block is anything placed in the world.
type Block any

// Placeable blocks are told where they were placed.
type Placeable interface {
	Placed(w *World, pos grid.Pos)
}

// Removable blocks are told when they leave the world.
type Removable interface {
	Removed()
}

// NeighborListener blocks react to changes next to them.
type NeighborListener interface {
	HandleNeighborChanged(from grid.Pos)
}

// SignalEmitter blocks emit a signal level out of each face.
type SignalEmitter interface {
	SignalTowards(face grid.Direction) int
}

// BlockListener observes blocks entering and leaving the world.
type BlockListener interface {
	BlockAdded(pos grid.Pos, b Block)
	BlockRemoved(pos grid.Pos, b Block)
}

// ChangeListener observes blocks whose durable state changed.
type ChangeListener interface {
	BlockChanged(pos grid.Pos)
}

// World is the arena of blocks indexed by position.
//
// Mutations are expected on the bus loop; reads are safe from any goroutine.
// Listeners and hooks run after the lock is released.
type World struct {
	mu        sync.RWMutex
	blocks    map[grid.Pos]Block
	listeners []BlockListener
	changes   []ChangeListener
}

// NewWorld creates an empty world.
func NewWorld() *World {
	return &World{blocks: make(map[grid.Pos]Block)}
}

// AddBlockListener registers l for block add and remove events.
func (w *World) AddBlockListener(l BlockListener) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.listeners = append(w.listeners, l)
}

// AddChangeListener registers l for durable state changes.
func (w *World) AddChangeListener(l ChangeListener) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.changes = append(w.changes, l)
}

// Block returns the block at pos, or nil.
func (w *World) Block(pos grid.Pos) Block {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.blocks[pos]
}

// Positions returns every occupied position in a stable order.
func (w *World) Positions() []grid.Pos {
	w.mu.RLock()
	out := make([]grid.Pos, 0, len(w.blocks))
	for pos := range w.blocks {
		out = append(out, pos)
	}
	w.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

// Len returns the number of blocks.
func (w *World) Len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.blocks)
}

// SetBlock places b at pos, replacing any existing block, and notifies the
// six neighbours.
func (w *World) SetBlock(pos grid.Pos, b Block) {
	if old := w.Block(pos); old != nil {
		w.remove(pos, old)
	}

	w.mu.Lock()
	w.blocks[pos] = b
	listeners := append([]BlockListener(nil), w.listeners...)
	w.mu.Unlock()

	if p, ok := b.(Placeable); ok {
		p.Placed(w, pos)
	}
	for _, l := range listeners {
		l.BlockAdded(pos, b)
	}
	w.NotifyNeighbors(pos)
}

// RemoveBlock removes the block at pos and notifies the six neighbours.
// It reports whether a block was removed.
func (w *World) RemoveBlock(pos grid.Pos) bool {
	b := w.Block(pos)
	if b == nil {
		return false
	}
	w.remove(pos, b)
	w.NotifyNeighbors(pos)
	return true
}

func (w *World) remove(pos grid.Pos, b Block) {
	w.mu.Lock()
	delete(w.blocks, pos)
	listeners := append([]BlockListener(nil), w.listeners...)
	w.mu.Unlock()

	if r, ok := b.(Removable); ok {
		r.Removed()
	}
	for _, l := range listeners {
		l.BlockRemoved(pos, b)
	}
}

// NotifyNeighbors tells the six blocks around pos that pos changed.
func (w *World) NotifyNeighbors(pos grid.Pos) {
	for _, npos := range pos.Neighbors() {
		if l, ok := w.Block(npos).(NeighborListener); ok {
			l.HandleNeighborChanged(pos)
		}
	}
}

// MarkChanged reports that the durable state of the block at pos changed.
func (w *World) MarkChanged(pos grid.Pos) {
	w.mu.RLock()
	changes := append([]ChangeListener(nil), w.changes...)
	w.mu.RUnlock()

	for _, l := range changes {
		l.BlockChanged(pos)
	}
}

// Signal returns the signal level arriving at pos through face.
func (w *World) Signal(pos grid.Pos, face grid.Direction) int {
	emitter, ok := w.Block(pos.Offset(face)).(SignalEmitter)
	if !ok {
		return 0
	}
	return emitter.SignalTowards(face.Opposite())
}
