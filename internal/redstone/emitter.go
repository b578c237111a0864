package redstone

import (
	"sync"

	"github.com/nerrad567/gray-logic-bus/internal/grid"
)

// Emitter emits a constant level out of every face.
type Emitter struct {
	mu    sync.RWMutex
	level int
}

// NewEmitter creates an emitter at level, clamped.
func NewEmitter(level int) *Emitter {
	return &Emitter{level: Clamp(level)}
}

// Level returns the emitted level.
func (e *Emitter) Level() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.level
}

// SetLevel changes the emitted level.
func (e *Emitter) SetLevel(level int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.level = Clamp(level)
}

// SignalTowards implements bus.SignalEmitter.
func (e *Emitter) SignalTowards(grid.Direction) int {
	return e.Level()
}
