package grid

import (
	"fmt"
	"strings"
)

// ConnectionType is the kind of connection a node has on one face.
type ConnectionType uint8

const (
	// ConnectionNone means nothing is attached on this face.
	ConnectionNone ConnectionType = iota

	// ConnectionLink continues the bus but does not expose devices.
	ConnectionLink

	// ConnectionInterface continues the bus and exposes devices on this face.
	ConnectionInterface
)

var connectionNames = [...]string{"none", "link", "interface"}

// String returns the connection name.
func (c ConnectionType) String() string {
	if int(c) < len(connectionNames) {
		return connectionNames[c]
	}
	return fmt.Sprintf("connection(%d)", uint8(c))
}

// MarshalText encodes the connection by name.
func (c ConnectionType) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText decodes a connection name.
func (c *ConnectionType) UnmarshalText(text []byte) error {
	parsed, err := ParseConnectionType(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseConnectionType parses "none", "link" (or "cable") and "interface".
func ParseConnectionType(s string) (ConnectionType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return ConnectionNone, nil
	case "link", "cable":
		return ConnectionLink, nil
	case "interface":
		return ConnectionInterface, nil
	}
	return ConnectionNone, fmt.Errorf("%w: %q", ErrInvalidConnection, s)
}
