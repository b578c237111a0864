package bus

import (
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-bus/internal/grid"
)

// testNode is a minimal bus element with a per-face connection.
type testNode struct {
	BaseElement
	net    *Network
	conn   [grid.FaceCount]grid.ConnectionType
	energy float64
}

func newTestNode(net *Network, conns map[grid.Direction]grid.ConnectionType) *testNode {
	n := &testNode{net: net, energy: 1}
	for face, c := range conns {
		n.conn[face] = c
	}
	return n
}

func (n *testNode) Placed(w *World, pos grid.Pos) {
	n.Attach(n.net, pos)
}

func (n *testNode) CollectCapabilities(c *Collector, side grid.Direction) {
	if n.conn[side] != grid.ConnectionNone {
		c.Offer(CapabilityBusElement, Element(n))
	}
}

func (n *testNode) CanScanContinueTowards(face grid.Direction) bool {
	return n.conn[face] != grid.ConnectionNone
}

func (n *testNode) CanDetectDevicesTowards(face grid.Direction) bool {
	return n.conn[face] == grid.ConnectionInterface
}

func (n *testNode) CollectDevices(face grid.Direction) []ElementDevice {
	return n.AssignIDs(face, n.NeighborDevices(face))
}

func (n *testNode) EnergyConsumption() float64 {
	for _, c := range n.conn {
		if c != grid.ConnectionNone {
			return n.energy
		}
	}
	return 0
}

func (n *testNode) setConnection(face grid.Direction, c grid.ConnectionType) {
	n.conn[face] = c
	n.Network().World().NotifyNeighbors(n.Pos())
	n.ScheduleScan()
}

// testDevice is a block exposing itself as a device on every face.
type testDevice struct {
	name string
}

func (d *testDevice) DeviceTypeNames() []string {
	return []string{d.name}
}

func (d *testDevice) CollectCapabilities(c *Collector, _ grid.Direction) {
	c.Offer(CapabilityDevice, d)
}

func newTestNetwork(t *testing.T, maxElements int) *Network {
	t.Helper()
	w := NewWorld()
	net := NewNetwork(w, Config{MaxElements: maxElements})
	net.AddDeviceProvider(NewCapabilityDeviceProvider(nil))
	return net
}

func link(faces ...grid.Direction) map[grid.Direction]grid.ConnectionType {
	m := make(map[grid.Direction]grid.ConnectionType, len(faces))
	for _, f := range faces {
		m[f] = grid.ConnectionLink
	}
	return m
}

func with(m map[grid.Direction]grid.ConnectionType, face grid.Direction, c grid.ConnectionType) map[grid.Direction]grid.ConnectionType {
	m[face] = c
	return m
}

type recordingObserver struct {
	results []*ScanResult
}

func (o *recordingObserver) ScanCompleted(_ grid.Pos, r *ScanResult, _ time.Duration) {
	o.results = append(o.results, r)
}

func deviceNames(r *ScanResult) []string {
	var out []string
	for _, d := range r.Devices {
		out = append(out, d.Device.TypeNames()...)
	}
	return out
}
