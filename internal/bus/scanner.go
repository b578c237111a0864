package bus

import (
	"sort"

	"github.com/nerrad567/gray-logic-bus/internal/grid"
)

// scan walks the bus from c's node and builds a new result.
//
// The walk is breadth first with a visited set keyed by position. Energy is
// summed over exactly the visited elements, in the same pass that collects
// devices. The returned element map is nil when the controller's node is no
// longer an element.
func (n *Network) scan(c *Controller) (*ScanResult, map[grid.Pos]Element) {
	start, ok := n.world.Block(c.pos).(Element)
	if !ok {
		return &ScanResult{State: StateReady, ScannedAt: n.now()}, nil
	}

	visited := map[grid.Pos]Element{c.pos: start}
	queue := []Element{start}

	var (
		devices []DiscoveredDevice
		byKey   = make(map[any]int)
		energy  float64
	)

	for len(queue) > 0 {
		e := queue[0]
		queue = queue[1:]
		pos := e.Pos()

		if other, ok := n.Controller(pos); ok && other != c {
			n.logger.Debug("bus reaches another controller",
				"controller", c.pos.String(),
				"other", pos.String(),
			)
			return n.abortedResult(StateMultipleControllers, visited), visited
		}

		energy += e.EnergyConsumption()

		for _, face := range grid.Directions {
			if !e.CanScanContinueTowards(face) {
				continue
			}

			npos := pos.Offset(face)
			if _, seen := visited[npos]; !seen {
				if next, ok := Lookup[Element](n.world, npos, face.Opposite(), CapabilityBusElement); ok {
					visited[npos] = next
					if len(visited) > n.cfg.MaxElements {
						n.logger.Debug("bus too complex",
							"controller", c.pos.String(),
							"max_elements", n.cfg.MaxElements,
						)
						return n.abortedResult(StateTooComplex, visited), visited
					}
					queue = append(queue, next)
				}
			}

			if !e.CanDetectDevicesTowards(face) {
				continue
			}
			path := Path{Pos: pos, Side: face}
			for _, found := range e.CollectDevices(face) {
				key := found.Device.Key()
				if i, dup := byKey[key]; dup {
					devices[i].Paths = append(devices[i].Paths, path)
					continue
				}
				byKey[key] = len(devices)
				devices = append(devices, DiscoveredDevice{
					ID:     found.ID,
					Device: found.Device,
					Paths:  []Path{path},
				})
			}
		}
	}

	return &ScanResult{
		State:     StateReady,
		Devices:   devices,
		Elements:  sortedPositions(visited),
		Energy:    energy,
		ScannedAt: n.now(),
	}, visited
}

func (n *Network) abortedResult(state State, visited map[grid.Pos]Element) *ScanResult {
	return &ScanResult{
		State:     state,
		Elements:  sortedPositions(visited),
		ScannedAt: n.now(),
	}
}

func sortedPositions(m map[grid.Pos]Element) []grid.Pos {
	out := make([]grid.Pos, 0, len(m))
	for pos := range m {
		out = append(out, pos)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}
