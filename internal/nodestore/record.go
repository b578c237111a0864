package nodestore

import (
	"encoding/json"
	"time"

	"github.com/nerrad567/gray-logic-bus/internal/grid"
)

// Record is the stored state of the node at Pos.
type Record struct {
	Pos       grid.Pos        `json:"pos"`
	Kind      string          `json:"kind"`
	State     json.RawMessage `json:"state"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Persistable is implemented by blocks with durable state.
type Persistable interface {
	Kind() string
	SaveState() (json.RawMessage, error)
	LoadState(data json.RawMessage) error
}
