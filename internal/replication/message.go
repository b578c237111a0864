package replication

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nerrad567/gray-logic-bus/internal/grid"
)

// MessageType identifies a replication message.
type MessageType string

const (
	// TypeInterfaceNameChanged carries a new interface label for one face.
	TypeInterfaceNameChanged MessageType = "interface_name_changed"

	// TypeFacadeChanged carries a new facade reference for a node.
	TypeFacadeChanged MessageType = "facade_changed"
)

// Message is a one-way state update for one node.
type Message struct {
	Type      MessageType     `json:"type"`
	Pos       grid.Pos        `json:"pos"`
	Side      *grid.Direction `json:"side,omitempty"`
	Name      string          `json:"name,omitempty"`
	Facade    string          `json:"facade,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// InterfaceNameChanged builds a label change message.
func InterfaceNameChanged(pos grid.Pos, side grid.Direction, name string) Message {
	return Message{
		Type:      TypeInterfaceNameChanged,
		Pos:       pos,
		Side:      &side,
		Name:      name,
		Timestamp: time.Now().UTC(),
	}
}

// FacadeChanged builds a facade change message. An empty facade means none.
func FacadeChanged(pos grid.Pos, facade string) Message {
	return Message{
		Type:      TypeFacadeChanged,
		Pos:       pos,
		Facade:    facade,
		Timestamp: time.Now().UTC(),
	}
}

// Validate checks the message shape.
func (m Message) Validate() error {
	switch m.Type {
	case TypeInterfaceNameChanged:
		if m.Side == nil {
			return fmt.Errorf("%w: %s without side", ErrInvalidMessage, m.Type)
		}
		if err := m.Side.Validate(); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidMessage, err)
		}
	case TypeFacadeChanged:
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidMessage, m.Type)
	}
	return nil
}

// Decode parses and validates a JSON message.
func Decode(payload []byte) (Message, error) {
	var m Message
	if err := json.Unmarshal(payload, &m); err != nil {
		return Message{}, fmt.Errorf("%w: %w", ErrInvalidMessage, err)
	}
	if err := m.Validate(); err != nil {
		return Message{}, err
	}
	return m, nil
}

// Snapshot is the replicated view of a node, sent to trackers that start
// observing it.
type Snapshot struct {
	Pos            grid.Pos          `json:"pos"`
	Kind           string            `json:"kind"`
	InterfaceNames []string          `json:"interface_names,omitempty"`
	Connections    map[string]string `json:"connections,omitempty"`
	Facade         string            `json:"facade,omitempty"`
}

// SnapshotSource is implemented by blocks that can describe themselves.
type SnapshotSource interface {
	Snapshot() Snapshot
}
