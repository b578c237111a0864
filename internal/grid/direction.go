package grid

import (
	"fmt"
	"strconv"
	"strings"
)

// Direction identifies one of the six faces of a grid cell.
type Direction uint8

// Faces in data-value order. The numeric value is the index used for
// per-face arrays and for the persisted interface label list.
const (
	Down Direction = iota
	Up
	North
	South
	West
	East
)

// FaceCount is the number of faces of a grid cell.
const FaceCount = 6

// Directions lists every face in data-value order.
var Directions = [FaceCount]Direction{Down, Up, North, South, West, East}

var directionNames = [FaceCount]string{"down", "up", "north", "south", "west", "east"}

// horizontal faces in clockwise order, looking down
var horizontals = [4]Direction{North, East, South, West}

// Valid reports whether d names one of the six faces.
func (d Direction) Valid() bool {
	return d < FaceCount
}

// Validate returns an error when d is outside the face range.
func (d Direction) Validate() error {
	if !d.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidDirection, uint8(d))
	}
	return nil
}

// Opposite returns the face pointing the other way.
func (d Direction) Opposite() Direction {
	return d ^ 1
}

// IsHorizontal reports whether d lies in the horizontal plane.
func (d Direction) IsHorizontal() bool {
	return d >= North && d <= East
}

// Offset returns the unit vector of d.
func (d Direction) Offset() (dx, dy, dz int) {
	switch d {
	case Down:
		return 0, -1, 0
	case Up:
		return 0, 1, 0
	case North:
		return 0, 0, -1
	case South:
		return 0, 0, 1
	case West:
		return -1, 0, 0
	case East:
		return 1, 0, 0
	}
	return 0, 0, 0
}

// RotateY rotates a horizontal face clockwise by steps quarter turns.
// Vertical faces are returned unchanged.
func (d Direction) RotateY(steps int) Direction {
	if !d.IsHorizontal() {
		return d
	}
	idx := horizontalIndex(d)
	return horizontals[((idx+steps)%4+4)%4]
}

// String returns the lower-case face name.
func (d Direction) String() string {
	if !d.Valid() {
		return "direction(" + strconv.Itoa(int(d)) + ")"
	}
	return directionNames[d]
}

// ArgumentTypeName is the semantic type reported for RPC parameters.
func (d Direction) ArgumentTypeName() string {
	return "side"
}

// MarshalText encodes the face by name.
func (d Direction) MarshalText() ([]byte, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return []byte(directionNames[d]), nil
}

// UnmarshalText accepts a face name (case-insensitive) or its decimal index.
func (d *Direction) UnmarshalText(text []byte) error {
	parsed, err := ParseDirection(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ParseDirection parses a face name or decimal index.
func ParseDirection(s string) (Direction, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range directionNames {
		if s == name {
			return Direction(i), nil
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 || n >= FaceCount {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDirection, s)
	}
	return Direction(n), nil
}

// ToGlobal converts a face expressed relative to facing into world space.
func ToGlobal(facing, local Direction) Direction {
	if !facing.IsHorizontal() {
		return local
	}
	return local.RotateY(horizontalIndex(facing))
}

// ToLocal converts a world-space face into the frame of facing.
func ToLocal(facing, global Direction) Direction {
	if !facing.IsHorizontal() {
		return global
	}
	return global.RotateY(-horizontalIndex(facing))
}

func horizontalIndex(d Direction) int {
	for i, h := range horizontals {
		if h == d {
			return i
		}
	}
	return 0
}
