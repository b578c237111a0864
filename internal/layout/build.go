package layout

import (
	"fmt"

	"github.com/nerrad567/gray-logic-bus/internal/bus"
	"github.com/nerrad567/gray-logic-bus/internal/cable"
	"github.com/nerrad567/gray-logic-bus/internal/grid"
	"github.com/nerrad567/gray-logic-bus/internal/redstone"
)

// Deps are the collaborators shared by the nodes Build places.
type Deps struct {
	// Cable options for every cable. A nil Catalog is replaced by the
	// layout's own catalog.
	Cable cable.Options
}

// Placed lists the nodes Build put into the world.
type Placed struct {
	Cables      map[grid.Pos]*cable.Cable
	Interfaces  map[grid.Pos]*redstone.Interface
	Emitters    map[grid.Pos]*redstone.Emitter
	Controllers []*bus.Controller
}

// Build places every node of l on net and attaches the declared
// controllers. It must run on the bus loop, or before the loop starts.
func (l *Layout) Build(net *bus.Network, deps Deps) (*Placed, error) {
	opts := deps.Cable
	if opts.Catalog == nil {
		opts.Catalog = l.Catalog
	}

	placed := &Placed{
		Cables:     make(map[grid.Pos]*cable.Cable),
		Interfaces: make(map[grid.Pos]*redstone.Interface),
		Emitters:   make(map[grid.Pos]*redstone.Emitter),
	}
	world := net.World()

	for _, n := range l.Nodes {
		switch n.Kind {
		case KindCable:
			c := cable.New(net, opts)
			for face, t := range n.Connections {
				c.SetConnectionType(face, t)
			}
			world.SetBlock(n.Pos, c)
			for face, label := range n.Labels {
				c.SetInterfaceName(face, label)
			}
			if n.Facade != "" {
				c.SetFacade(n.Facade)
			}
			placed.Cables[n.Pos] = c
		case KindRedstone:
			r := redstone.NewInterface(n.Facing)
			world.SetBlock(n.Pos, r)
			placed.Interfaces[n.Pos] = r
		case KindEmitter:
			e := redstone.NewEmitter(n.Signal)
			world.SetBlock(n.Pos, e)
			placed.Emitters[n.Pos] = e
		default:
			return placed, fmt.Errorf("%w: %q", ErrUnknownKind, n.Kind)
		}
	}

	// Controllers attach after every node is in place so their first scan
	// sees the full bus.
	for _, n := range l.Nodes {
		if !n.Controller {
			continue
		}
		ctrl, err := net.AttachController(n.Pos)
		if err != nil {
			return placed, fmt.Errorf("attaching controller at %s: %w", n.Pos, err)
		}
		placed.Controllers = append(placed.Controllers, ctrl)
	}
	return placed, nil
}
