package layout

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nerrad567/gray-logic-bus/internal/bus"
	"github.com/nerrad567/gray-logic-bus/internal/cable"
	"github.com/nerrad567/gray-logic-bus/internal/grid"
	"github.com/nerrad567/gray-logic-bus/internal/redstone"
)

const sampleLayout = `
appearances:
  - ref: stone
    render_shape: model
    solid: true
  - ref: glass
    solid: false
nodes:
  - pos: "0,64,0"
    kind: controller
    connections: {east: link}
  - pos: "1,64,0"
    kind: cable
    connections: {west: link, north: interface, south: interface}
    labels: {south: "  heater  "}
    facade: stone
  - pos: "1,64,-1"
    kind: redstone
    facing: south
  - pos: "2,64,-1"
    kind: emitter
    signal: 7
`

func TestParse(t *testing.T) {
	l, err := Parse([]byte(sampleLayout))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(l.Nodes) != 4 {
		t.Fatalf("parsed %d nodes, want 4", len(l.Nodes))
	}

	ctrl := l.Nodes[0]
	if ctrl.Kind != KindCable || !ctrl.Controller {
		t.Errorf("controller node = %+v, want a cable hosting a controller", ctrl)
	}
	c := l.Nodes[1]
	if c.Connections[grid.North] != grid.ConnectionInterface || c.Connections[grid.West] != grid.ConnectionLink {
		t.Errorf("connections = %v", c.Connections)
	}
	if c.Labels[grid.South] != "  heater  " {
		t.Errorf("labels = %v", c.Labels)
	}
	if l.Nodes[2].Facing != grid.South {
		t.Errorf("facing = %s, want south", l.Nodes[2].Facing)
	}
	if l.Nodes[3].Signal != 7 {
		t.Errorf("signal = %d, want 7", l.Nodes[3].Signal)
	}

	if got := cable.Classify(l.Catalog, "stone"); got != cable.ValidBlock {
		t.Errorf("Classify(stone) = %s", got)
	}
	if got := cable.Classify(l.Catalog, "glass"); got != cable.InvalidBlock {
		t.Errorf("Classify(glass) = %s", got)
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"bad yaml", "nodes: [", "invalid layout"},
		{"bad pos", "nodes: [{pos: 'a,b', kind: cable}]", "nodes[0]"},
		{"unknown kind", "nodes: [{pos: '0,0,0', kind: torch}]", "unknown node kind"},
		{"bad face", "nodes: [{pos: '0,0,0', kind: cable, connections: {up-ish: link}}]", "nodes[0]"},
		{"bad connection", "nodes: [{pos: '0,0,0', kind: cable, connections: {up: wire}}]", "nodes[0]"},
		{"label without interface", "nodes: [{pos: '0,0,0', kind: cable, connections: {up: link}, labels: {up: x}}]", "needs an interface"},
		{"connections on emitter", "nodes: [{pos: '0,0,0', kind: emitter, connections: {up: link}}]", "cables only"},
		{"signal range", "nodes: [{pos: '0,0,0', kind: emitter, signal: 16}]", "outside 0..15"},
		{"duplicate pos", "nodes: [{pos: '0,0,0', kind: cable}, {pos: '0,0,0', kind: emitter}]", "already used"},
		{"missing ref", "appearances: [{solid: true}]", "ref is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			if !errors.Is(err, ErrInvalidLayout) {
				t.Fatalf("Parse() error = %v, want ErrInvalidLayout", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestParse_ReportsEveryProblem(t *testing.T) {
	doc := "nodes: [{pos: 'x', kind: cable}, {pos: '0,0,0', kind: torch}]"
	_, err := Parse([]byte(doc))
	if err == nil {
		t.Fatal("Parse() error = nil")
	}
	if !strings.Contains(err.Error(), "nodes[0]") || !strings.Contains(err.Error(), "nodes[1]") {
		t.Errorf("error %q should list both nodes", err)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "layout.yaml")
	if err := os.WriteFile(path, []byte(sampleLayout), 0o600); err != nil {
		t.Fatal(err)
	}
	l, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(l.Nodes) != 4 {
		t.Errorf("loaded %d nodes", len(l.Nodes))
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load() of a missing file should fail")
	}
}

func TestBuild(t *testing.T) {
	l, err := Parse([]byte(sampleLayout))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	net := bus.NewNetwork(bus.NewWorld(), bus.Config{})
	net.AddDeviceProvider(bus.NewCapabilityDeviceProvider(nil))

	placed, err := l.Build(net, Deps{Cable: cable.Options{
		Energy: cable.Energy{CablePerTick: 0.1, InterfacePerTick: 0.5},
	}})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if len(placed.Cables) != 2 || len(placed.Interfaces) != 1 || len(placed.Emitters) != 1 {
		t.Fatalf("placed = %+v", placed)
	}
	if len(placed.Controllers) != 1 {
		t.Fatalf("attached %d controllers, want 1", len(placed.Controllers))
	}

	c := placed.Cables[grid.Pos{X: 1, Y: 64}]
	if c.InterfaceName(grid.South) != "heater" {
		t.Errorf("label = %q, want trimmed heater", c.InterfaceName(grid.South))
	}
	if c.Facade() != "stone" {
		t.Errorf("facade = %q, want stone from the layout catalog", c.Facade())
	}

	net.Tick()
	result := placed.Controllers[0].Result()
	if result.State != bus.StateReady {
		t.Fatalf("state = %s, want ready", result.State)
	}
	if len(result.Elements) != 2 {
		t.Errorf("elements = %v, want both cables", result.Elements)
	}

	var sawRedstone, sawLabel bool
	for _, d := range result.Devices {
		sawRedstone = sawRedstone || d.Device.HasTypeName(redstone.TypeName)
		sawLabel = sawLabel || d.Device.HasTypeName("heater")
	}
	if !sawRedstone || !sawLabel {
		t.Errorf("devices = %+v, want the redstone interface and the heater label", result.Devices)
	}

	// The interface faces south, so the emitter to its east is on local west.
	r := placed.Interfaces[grid.Pos{X: 1, Y: 64, Z: -1}]
	west := grid.West
	level, err := r.RedstoneInput(&west)
	if err != nil {
		t.Fatalf("RedstoneInput() error = %v", err)
	}
	if level != 7 {
		t.Errorf("input on local west = %d, want the emitter's 7", level)
	}
}

func TestBuild_ControllerOnNonElement(t *testing.T) {
	l := &Layout{
		Nodes:   []Node{{Pos: grid.Pos{}, Kind: KindEmitter, Controller: true}},
		Catalog: NewCatalog(),
	}
	net := bus.NewNetwork(bus.NewWorld(), bus.Config{})
	if _, err := l.Build(net, Deps{}); !errors.Is(err, bus.ErrNotElement) {
		t.Errorf("Build() error = %v, want ErrNotElement", err)
	}
}
