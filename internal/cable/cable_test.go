package cable

import (
	"context"
	"reflect"
	"strings"
	"testing"

	"github.com/nerrad567/gray-logic-bus/internal/bus"
	"github.com/nerrad567/gray-logic-bus/internal/grid"
	"github.com/nerrad567/gray-logic-bus/internal/replication"
)

type recordingSink struct {
	msgs []replication.Message
}

func (s *recordingSink) Send(m replication.Message) {
	s.msgs = append(s.msgs, m)
}

type lamp struct{}

func (*lamp) DeviceTypeNames() []string { return []string{"lamp"} }

func (l *lamp) CollectCapabilities(c *bus.Collector, _ grid.Direction) {
	c.Offer(bus.CapabilityDevice, l)
}

type changeCounter struct {
	counts map[grid.Pos]int
}

func (c *changeCounter) BlockChanged(pos grid.Pos) {
	c.counts[pos]++
}

var testCatalog = NewMapCatalog(
	Appearance{Ref: "stone", RenderShape: RenderModel, Solid: true},
	Appearance{Ref: "chest", RenderShape: RenderEntity, Solid: true, HasBehavior: true},
	Appearance{Ref: "furnace", RenderShape: RenderModel, Solid: true, HasBehavior: true},
	Appearance{Ref: "glass", RenderShape: RenderModel, Solid: false},
)

func newNetwork() *bus.Network {
	net := bus.NewNetwork(bus.NewWorld(), bus.Config{})
	net.AddDeviceProvider(bus.NewCapabilityDeviceProvider(nil))
	return net
}

func place(net *bus.Network, pos grid.Pos, sink replication.Sink, conns map[grid.Direction]grid.ConnectionType) *Cable {
	c := New(net, Options{
		Energy:  Energy{Base: 0, CablePerTick: 0.1, InterfacePerTick: 0.5},
		Catalog: testCatalog,
		Sink:    sink,
	})
	for face, t := range conns {
		c.SetConnectionType(face, t)
	}
	net.World().SetBlock(pos, c)
	return c
}

func TestNormalizeInterfaceName(t *testing.T) {
	long := strings.Repeat("x", 40)
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "lamp", "lamp"},
		{"trimmed", "  lamp \t", "lamp"},
		{"empty", "   ", ""},
		{"truncated", long, strings.Repeat("x", 32)},
		{"exactly 32", strings.Repeat("y", 32), strings.Repeat("y", 32)},
		{"runes", strings.Repeat("é", 33), strings.Repeat("é", 32)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeInterfaceName(tt.input)
			if got != tt.want {
				t.Errorf("NormalizeInterfaceName(%q) = %q, want %q", tt.input, got, tt.want)
			}
			if again := NormalizeInterfaceName(got); again != got {
				t.Errorf("normalisation not idempotent: %q -> %q", got, again)
			}
		})
	}
}

func TestSetInterfaceName(t *testing.T) {
	net := newNetwork()
	sink := &recordingSink{}
	pos := grid.Pos{X: 5, Y: 1}
	c := place(net, pos, sink, map[grid.Direction]grid.ConnectionType{grid.North: grid.ConnectionInterface})
	changes := &changeCounter{counts: map[grid.Pos]int{}}
	net.World().AddChangeListener(changes)

	c.SetInterfaceName(grid.North, "  "+strings.Repeat("a", 40))
	want := strings.Repeat("a", 32)
	if got := c.InterfaceName(grid.North); got != want {
		t.Fatalf("InterfaceName() = %q, want %q", got, want)
	}

	// Same normalised value: no message, no change.
	c.SetInterfaceName(grid.North, want)
	c.SetInterfaceName(grid.North, strings.Repeat("a", 50))

	if len(sink.msgs) != 1 {
		t.Fatalf("replicated %d messages, want 1", len(sink.msgs))
	}
	m := sink.msgs[0]
	if m.Type != replication.TypeInterfaceNameChanged || m.Pos != pos || *m.Side != grid.North || m.Name != want {
		t.Errorf("message = %+v", m)
	}
	if changes.counts[pos] != 1 {
		t.Errorf("BlockChanged called %d times, want 1", changes.counts[pos])
	}
}

func TestSetInterfaceNameSchedulesScan(t *testing.T) {
	net := newNetwork()
	c := place(net, grid.Pos{}, nil, map[grid.Direction]grid.ConnectionType{grid.Up: grid.ConnectionInterface})
	ctrl, err := net.AttachController(grid.Pos{})
	if err != nil {
		t.Fatalf("AttachController() error: %v", err)
	}
	net.Tick()
	if n := len(ctrl.Result().Devices); n != 0 {
		t.Fatalf("devices before label = %d, want 0", n)
	}

	c.SetInterfaceName(grid.Up, "door")
	if !ctrl.Pending() {
		t.Fatal("no rescan scheduled")
	}
	net.Tick()

	devices := ctrl.Result().Devices
	if len(devices) != 1 || !reflect.DeepEqual(devices[0].Device.TypeNames(), []string{"door"}) {
		t.Fatalf("devices = %+v, want the door label", devices)
	}
	first := devices[0].ID

	// A rescan keeps the label device and its ID.
	net.ScheduleScan(ctrl)
	net.Tick()
	if got := ctrl.Result().Devices[0].ID; got != first {
		t.Errorf("label device ID changed from %s to %s", first, got)
	}
}

func TestLabelOnLinkFaceIsNotDetected(t *testing.T) {
	net := newNetwork()
	c := place(net, grid.Pos{}, nil, map[grid.Direction]grid.ConnectionType{grid.Up: grid.ConnectionLink})
	c.SetInterfaceName(grid.Up, "hidden")
	ctrl, _ := net.AttachController(grid.Pos{})
	net.Tick()

	if n := len(ctrl.Result().Devices); n != 0 {
		t.Errorf("devices = %d, want 0", n)
	}
}

func TestConnectionChangeClearsLabel(t *testing.T) {
	net := newNetwork()
	sink := &recordingSink{}
	c := place(net, grid.Pos{}, sink, map[grid.Direction]grid.ConnectionType{grid.East: grid.ConnectionInterface})
	c.SetInterfaceName(grid.East, "pump")

	c.SetConnectionType(grid.East, grid.ConnectionNone)

	if got := c.InterfaceName(grid.East); got != "" {
		t.Errorf("label after disconnect = %q, want empty", got)
	}
	if len(sink.msgs) != 2 || sink.msgs[1].Name != "" {
		t.Errorf("messages = %+v, want set then clear", sink.msgs)
	}
}

func TestFacade(t *testing.T) {
	tests := []struct {
		name     string
		ref      string
		wantType FacadeType
		want     string
	}{
		{"valid", "stone", ValidBlock, "stone"},
		{"interactive", "furnace", InvalidBlock, ""},
		{"entity shape", "chest", InvalidBlock, ""},
		{"not solid", "glass", InvalidBlock, ""},
		{"unknown", "unobtainium", NotABlock, ""},
		{"empty", "", NotABlock, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			net := newNetwork()
			sink := &recordingSink{}
			c := place(net, grid.Pos{}, sink, nil)

			if got := c.FacadeType(tt.ref); got != tt.wantType {
				t.Errorf("FacadeType(%q) = %v, want %v", tt.ref, got, tt.wantType)
			}
			c.SetFacade(tt.ref)
			if got := c.Facade(); got != tt.want {
				t.Errorf("Facade() = %q, want %q", got, tt.want)
			}
			wantMsgs := 0
			if tt.want != "" {
				wantMsgs = 1
			}
			if len(sink.msgs) != wantMsgs {
				t.Errorf("replicated %d messages, want %d", len(sink.msgs), wantMsgs)
			}
		})
	}
}

func TestFacadeInvalidClearsExisting(t *testing.T) {
	net := newNetwork()
	sink := &recordingSink{}
	c := place(net, grid.Pos{}, sink, nil)

	c.SetFacade("stone")
	c.SetFacade("stone")
	c.SetFacade("furnace")
	c.RemoveFacade()

	if c.Facade() != "" {
		t.Errorf("Facade() = %q, want empty", c.Facade())
	}
	var got []string
	for _, m := range sink.msgs {
		got = append(got, m.Facade)
	}
	if !reflect.DeepEqual(got, []string{"stone", ""}) {
		t.Errorf("facade messages = %q, want [stone \"\"]", got)
	}
}

func TestEnergyConsumption(t *testing.T) {
	tests := []struct {
		name  string
		conns map[grid.Direction]grid.ConnectionType
		want  float64
	}{
		{"isolated", nil, 0.1},
		{"one link", map[grid.Direction]grid.ConnectionType{grid.East: grid.ConnectionLink}, 0.1},
		{"two interfaces", map[grid.Direction]grid.ConnectionType{
			grid.East: grid.ConnectionInterface,
			grid.Up:   grid.ConnectionInterface,
			grid.West: grid.ConnectionLink,
		}, 1.1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := place(newNetwork(), grid.Pos{}, nil, tt.conns)
			if got := c.EnergyConsumption(); got < tt.want-1e-9 || got > tt.want+1e-9 {
				t.Errorf("EnergyConsumption() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestScanAcrossCables(t *testing.T) {
	net := newNetwork()
	I, L := grid.ConnectionInterface, grid.ConnectionLink

	place(net, grid.Pos{X: 0}, nil, map[grid.Direction]grid.ConnectionType{grid.East: L})
	b := place(net, grid.Pos{X: 1}, nil, map[grid.Direction]grid.ConnectionType{grid.West: L, grid.East: L})
	place(net, grid.Pos{X: 2}, nil, map[grid.Direction]grid.ConnectionType{grid.West: L, grid.East: I})
	net.World().SetBlock(grid.Pos{X: 3}, &lamp{})

	ctrl, err := net.AttachController(grid.Pos{X: 0})
	if err != nil {
		t.Fatalf("AttachController() error: %v", err)
	}
	net.Tick()

	r := ctrl.Result()
	if len(r.Devices) != 1 || r.Devices[0].Device.TypeNames()[0] != "lamp" {
		t.Fatalf("devices = %+v, want the lamp", r.Devices)
	}
	if len(r.Elements) != 3 {
		t.Errorf("elements = %v, want 3", r.Elements)
	}

	b.SetConnectionType(grid.East, grid.ConnectionNone)
	if !ctrl.Pending() {
		t.Fatal("no rescan scheduled after cut")
	}
	net.Tick()

	if n := len(ctrl.Result().Devices); n != 0 {
		t.Errorf("devices after cut = %d, want 0", n)
	}
}

func TestRemovedCableSchedulesScan(t *testing.T) {
	net := newNetwork()
	L := grid.ConnectionLink
	place(net, grid.Pos{}, nil, map[grid.Direction]grid.ConnectionType{grid.East: L})
	place(net, grid.Pos{X: 1}, nil, map[grid.Direction]grid.ConnectionType{grid.West: L})
	ctrl, _ := net.AttachController(grid.Pos{})
	net.Tick()

	net.World().RemoveBlock(grid.Pos{X: 1})
	if !ctrl.Pending() {
		t.Fatal("no rescan scheduled")
	}
	net.Tick()
	if n := len(ctrl.Result().Elements); n != 1 {
		t.Errorf("elements = %d, want 1", n)
	}
}

func TestStateRoundTrip(t *testing.T) {
	net := newNetwork()
	c := place(net, grid.Pos{}, nil, map[grid.Direction]grid.ConnectionType{
		grid.North: grid.ConnectionInterface,
		grid.Down:  grid.ConnectionLink,
	})
	c.SetInterfaceName(grid.North, "valve")
	c.SetFacade("stone")

	data, err := c.SaveState()
	if err != nil {
		t.Fatalf("SaveState() error: %v", err)
	}

	restored := New(newNetwork(), Options{Catalog: testCatalog})
	if err := restored.LoadState(data); err != nil {
		t.Fatalf("LoadState() error: %v", err)
	}

	if got := restored.InterfaceNames(); got != c.InterfaceNames() {
		t.Errorf("names = %q, want %q", got, c.InterfaceNames())
	}
	if restored.Facade() != "stone" {
		t.Errorf("facade = %q, want stone", restored.Facade())
	}
	for _, face := range grid.Directions {
		if restored.ConnectionType(face) != c.ConnectionType(face) {
			t.Errorf("connection %v = %v, want %v", face, restored.ConnectionType(face), c.ConnectionType(face))
		}
	}
}

func TestLoadNormalises(t *testing.T) {
	c := New(newNetwork(), Options{Catalog: testCatalog})
	err := c.Load(State{
		InterfaceNames: []string{"  spaced  ", strings.Repeat("z", 40)},
		Facade:         "furnace",
	})
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	names := c.InterfaceNames()
	if names[0] != "spaced" || names[1] != strings.Repeat("z", 32) || names[2] != "" {
		t.Errorf("names = %q", names)
	}
	if c.Facade() != "" {
		t.Errorf("facade = %q, want empty", c.Facade())
	}
}

func TestSnapshotAndUpdateTag(t *testing.T) {
	net := newNetwork()
	sink := &recordingSink{}
	pos := grid.Pos{Y: 2}
	c := place(net, pos, sink, map[grid.Direction]grid.ConnectionType{grid.South: grid.ConnectionInterface})
	c.SetInterfaceName(grid.South, "fan")
	c.SetFacade("stone")

	s := c.Snapshot()
	if s.Pos != pos || s.Kind != Kind || s.Facade != "stone" {
		t.Errorf("snapshot = %+v", s)
	}
	if s.InterfaceNames[grid.South] != "fan" || s.Connections["south"] != "interface" {
		t.Errorf("snapshot labels = %v connections = %v", s.InterfaceNames, s.Connections)
	}

	tracker := place(newNetwork(), pos, nil, nil)
	tracker.HandleUpdateTag(s)
	if tracker.InterfaceName(grid.South) != "fan" || tracker.Facade() != "stone" {
		t.Errorf("tracker = %q / %q", tracker.InterfaceName(grid.South), tracker.Facade())
	}

	before := len(sink.msgs)
	c.HandleUpdateTag(s)
	if len(sink.msgs) != before {
		t.Error("HandleUpdateTag replicated its input")
	}
}

func TestApplierUsesCableMutators(t *testing.T) {
	net := newNetwork()
	pos := grid.Pos{Z: 7}
	c := place(net, pos, nil, nil)
	a := replication.NewApplier(net.World(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	long := replication.InterfaceNameChanged(pos, grid.Up, strings.Repeat("q", 40))
	if err := a.Apply(ctx, long); err != nil {
		t.Fatalf("Apply() error: %v", err)
	}
	if got := c.InterfaceName(grid.Up); got != strings.Repeat("q", 32) {
		t.Errorf("label = %q, want truncated", got)
	}

	if err := a.Apply(ctx, replication.FacadeChanged(pos, "furnace")); err != nil {
		t.Fatalf("Apply() error: %v", err)
	}
	if c.Facade() != "" {
		t.Errorf("facade = %q, want empty", c.Facade())
	}
}
