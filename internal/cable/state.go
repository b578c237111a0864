package cable

import (
	"encoding/json"
	"fmt"

	"github.com/nerrad567/gray-logic-bus/internal/grid"
	"github.com/nerrad567/gray-logic-bus/internal/replication"
)

// State is the persisted form of a cable.
type State struct {
	Connections    []grid.ConnectionType `json:"connections"`
	InterfaceNames []string              `json:"interface_names"`
	Facade         string                `json:"facade,omitempty"`
	Bus            json.RawMessage       `json:"bus,omitempty"`
}

// State captures the cable's durable state.
func (c *Cable) State() (State, error) {
	busState, err := c.BaseElement.SaveState()
	if err != nil {
		return State{}, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	return State{
		Connections:    append([]grid.ConnectionType(nil), c.conn[:]...),
		InterfaceNames: append([]string(nil), c.names[:]...),
		Facade:         c.facade,
		Bus:            busState,
	}, nil
}

// SaveState encodes the durable state for the node store.
func (c *Cable) SaveState() (json.RawMessage, error) {
	s, err := c.State()
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encoding cable state: %w", err)
	}
	return data, nil
}

// LoadState restores state written by SaveState.
func (c *Cable) LoadState(data json.RawMessage) error {
	if len(data) == 0 {
		return nil
	}
	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("decoding cable state: %w", err)
	}
	return c.Load(s)
}

// Load restores s without replicating it. Labels are normalised and the
// facade is revalidated against the catalog.
func (c *Cable) Load(s State) error {
	if err := c.BaseElement.LoadState(s.Bus); err != nil {
		return err
	}

	facade := s.Facade
	if c.FacadeType(facade) != ValidBlock {
		facade = ""
	}

	c.mu.Lock()
	for i := range c.conn {
		c.conn[i] = grid.ConnectionNone
		if i < len(s.Connections) {
			c.conn[i] = s.Connections[i]
		}
	}
	for i := range c.names {
		c.names[i] = ""
		if i < len(s.InterfaceNames) {
			c.names[i] = NormalizeInterfaceName(s.InterfaceNames[i])
		}
	}
	c.facade = facade
	c.mu.Unlock()

	c.ScheduleScan()
	return nil
}

// Snapshot implements replication.SnapshotSource.
func (c *Cable) Snapshot() replication.Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := replication.Snapshot{
		Pos:            c.Pos(),
		Kind:           Kind,
		InterfaceNames: append([]string(nil), c.names[:]...),
		Connections:    make(map[string]string),
		Facade:         c.facade,
	}
	for _, face := range grid.Directions {
		if t := c.conn[face]; t != grid.ConnectionNone {
			s.Connections[face.String()] = t.String()
		}
	}
	return s
}

// HandleUpdateTag applies a snapshot received from the authoritative side.
// Values go through the same normalisation as local edits but are not
// replicated again.
func (c *Cable) HandleUpdateTag(s replication.Snapshot) {
	facade := s.Facade
	if c.FacadeType(facade) != ValidBlock {
		facade = ""
	}

	c.mu.Lock()
	changed := c.facade != facade
	c.facade = facade
	for i := range c.names {
		name := ""
		if i < len(s.InterfaceNames) {
			name = NormalizeInterfaceName(s.InterfaceNames[i])
		}
		if c.names[i] != name {
			c.names[i] = name
			changed = true
		}
	}
	c.mu.Unlock()

	if changed {
		c.markChanged()
		c.ScheduleScan()
	}
}
