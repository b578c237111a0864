package layout

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/nerrad567/gray-logic-bus/internal/cable"
	"github.com/nerrad567/gray-logic-bus/internal/grid"
	"github.com/nerrad567/gray-logic-bus/internal/redstone"
)

// Node kinds.
const (
	KindCable      = cable.Kind
	KindController = "controller"
	KindRedstone   = redstone.Kind
	KindEmitter    = "emitter"
)

// File is the raw layout document.
type File struct {
	Appearances []cable.Appearance `yaml:"appearances"`
	Nodes       []NodeSpec         `yaml:"nodes"`
}

// NodeSpec is one node as written in the file.
type NodeSpec struct {
	Pos         string            `yaml:"pos"`
	Kind        string            `yaml:"kind"`
	Connections map[string]string `yaml:"connections,omitempty"`
	Labels      map[string]string `yaml:"labels,omitempty"`
	Facade      string            `yaml:"facade,omitempty"`
	Facing      string            `yaml:"facing,omitempty"`
	Controller  bool              `yaml:"controller,omitempty"`
	Signal      int               `yaml:"signal,omitempty"`
}

// Node is a validated node.
type Node struct {
	Pos         grid.Pos
	Kind        string
	Connections map[grid.Direction]grid.ConnectionType
	Labels      map[grid.Direction]string
	Facade      string
	Facing      grid.Direction
	Controller  bool
	Signal      int
}

// Layout is a validated layout.
type Layout struct {
	Nodes   []Node
	Catalog *Catalog
}

// Load reads and parses the layout file at path.
func Load(path string) (*Layout, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from trusted config
	if err != nil {
		return nil, fmt.Errorf("reading layout file: %w", err)
	}
	l, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return l, nil
}

// Parse decodes and validates a layout document.
func Parse(data []byte) (*Layout, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidLayout, err) //nolint:errorlint // yaml errors carry no sentinels
	}
	return f.Validate()
}

// Validate converts the raw document, collecting every violation.
func (f *File) Validate() (*Layout, error) {
	var errs []string

	catalog := NewCatalog()
	for i, a := range f.Appearances {
		a.Ref = strings.TrimSpace(a.Ref)
		if a.Ref == "" {
			errs = append(errs, fmt.Sprintf("appearances[%d]: ref is required", i))
			continue
		}
		if a.RenderShape == "" {
			a.RenderShape = cable.RenderModel
		}
		catalog.Add(a)
	}

	seen := make(map[grid.Pos]int, len(f.Nodes))
	nodes := make([]Node, 0, len(f.Nodes))
	for i, spec := range f.Nodes {
		node, nodeErrs := spec.node()
		for _, e := range nodeErrs {
			errs = append(errs, fmt.Sprintf("nodes[%d]: %s", i, e))
		}
		if len(nodeErrs) > 0 {
			continue
		}
		if first, dup := seen[node.Pos]; dup {
			errs = append(errs, fmt.Sprintf("nodes[%d]: position %s already used by nodes[%d]", i, node.Pos, first))
			continue
		}
		seen[node.Pos] = i
		nodes = append(nodes, node)
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("%w:\n  - %s", ErrInvalidLayout, strings.Join(errs, "\n  - "))
	}
	return &Layout{Nodes: nodes, Catalog: catalog}, nil
}

func (s NodeSpec) node() (Node, []string) {
	var errs []string
	n := Node{
		Kind:       strings.ToLower(strings.TrimSpace(s.Kind)),
		Facade:     strings.TrimSpace(s.Facade),
		Controller: s.Controller,
		Signal:     s.Signal,
		Facing:     grid.North,
	}

	pos, err := grid.ParsePos(s.Pos)
	if err != nil {
		errs = append(errs, err.Error())
	}
	n.Pos = pos

	switch n.Kind {
	case KindController:
		n.Kind = KindCable
		n.Controller = true
	case KindCable, KindRedstone, KindEmitter:
	default:
		errs = append(errs, fmt.Sprintf("%v: %q", ErrUnknownKind, s.Kind))
	}

	if len(s.Connections) > 0 || len(s.Labels) > 0 || n.Facade != "" {
		if n.Kind != KindCable {
			errs = append(errs, "connections, labels and facade apply to cables only")
		}
	}

	if len(s.Connections) > 0 {
		n.Connections = make(map[grid.Direction]grid.ConnectionType, len(s.Connections))
		for face, conn := range s.Connections {
			d, err := grid.ParseDirection(face)
			if err != nil {
				errs = append(errs, err.Error())
				continue
			}
			t, err := grid.ParseConnectionType(conn)
			if err != nil {
				errs = append(errs, err.Error())
				continue
			}
			n.Connections[d] = t
		}
	}

	if len(s.Labels) > 0 {
		n.Labels = make(map[grid.Direction]string, len(s.Labels))
		for face, label := range s.Labels {
			d, err := grid.ParseDirection(face)
			if err != nil {
				errs = append(errs, err.Error())
				continue
			}
			if n.Connections[d] != grid.ConnectionInterface {
				errs = append(errs, fmt.Sprintf("label on %s needs an interface connection", d))
				continue
			}
			n.Labels[d] = label
		}
	}

	if s.Facing != "" {
		d, err := grid.ParseDirection(s.Facing)
		if err != nil {
			errs = append(errs, err.Error())
		}
		n.Facing = d
	}

	if s.Signal < redstone.MinLevel || s.Signal > redstone.MaxLevel {
		errs = append(errs, fmt.Sprintf("signal %d outside %d..%d", s.Signal, redstone.MinLevel, redstone.MaxLevel))
	}
	return n, errs
}
