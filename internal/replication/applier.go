package replication

import (
	"context"
	"fmt"

	"github.com/nerrad567/gray-logic-bus/internal/bus"
	"github.com/nerrad567/gray-logic-bus/internal/grid"
	"github.com/nerrad567/gray-logic-bus/internal/rpc"
)

// LabelTarget is a block with per-face interface labels.
type LabelTarget interface {
	SetInterfaceName(side grid.Direction, name string)
}

// FacadeTarget is a block with a facade.
type FacadeTarget interface {
	SetFacade(ref string)
}

// Applier applies inbound messages to the world on the bus loop.
type Applier struct {
	world *bus.World
	exec  rpc.Executor
}

// NewApplier creates an applier for world, running every update on exec.
func NewApplier(world *bus.World, exec rpc.Executor) *Applier {
	if exec == nil {
		exec = rpc.DirectExecutor{}
	}
	return &Applier{world: world, exec: exec}
}

// Apply validates m and hands it to the block at m.Pos through its own
// mutators.
func (a *Applier) Apply(ctx context.Context, m Message) error {
	if err := m.Validate(); err != nil {
		return err
	}

	var applyErr error
	err := a.exec.Execute(ctx, func() {
		applyErr = a.apply(m)
	})
	if err != nil {
		return fmt.Errorf("applying %s: %w", m.Type, err)
	}
	return applyErr
}

func (a *Applier) apply(m Message) error {
	block := a.world.Block(m.Pos)
	if block == nil {
		return fmt.Errorf("%w: %s", ErrNoBlock, m.Pos)
	}

	switch m.Type {
	case TypeInterfaceNameChanged:
		target, ok := block.(LabelTarget)
		if !ok {
			return fmt.Errorf("%w: %s at %s", ErrUnsupportedTarget, m.Type, m.Pos)
		}
		target.SetInterfaceName(*m.Side, m.Name)

	case TypeFacadeChanged:
		target, ok := block.(FacadeTarget)
		if !ok {
			return fmt.Errorf("%w: %s at %s", ErrUnsupportedTarget, m.Type, m.Pos)
		}
		target.SetFacade(m.Facade)
	}
	return nil
}
