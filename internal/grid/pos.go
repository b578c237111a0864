package grid

import (
	"fmt"
	"strconv"
	"strings"
)

// Pos is a cell coordinate in the grid.
type Pos struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
	Z int `json:"z" yaml:"z"`
}

// Offset returns the neighbouring position across face d.
func (p Pos) Offset(d Direction) Pos {
	dx, dy, dz := d.Offset()
	return Pos{X: p.X + dx, Y: p.Y + dy, Z: p.Z + dz}
}

// Neighbors returns the six adjacent positions in data-value order.
func (p Pos) Neighbors() [FaceCount]Pos {
	var out [FaceCount]Pos
	for _, d := range Directions {
		out[d] = p.Offset(d)
	}
	return out
}

// DirectionTo returns the face of p that touches q, if q is adjacent.
func (p Pos) DirectionTo(q Pos) (Direction, bool) {
	for _, d := range Directions {
		if p.Offset(d) == q {
			return d, true
		}
	}
	return 0, false
}

// Less orders positions by X, then Y, then Z.
func (p Pos) Less(q Pos) bool {
	if p.X != q.X {
		return p.X < q.X
	}
	if p.Y != q.Y {
		return p.Y < q.Y
	}
	return p.Z < q.Z
}

// String formats the position as "x,y,z".
func (p Pos) String() string {
	return fmt.Sprintf("%d,%d,%d", p.X, p.Y, p.Z)
}

// Key formats the position as "x_y_z", safe for MQTT topic levels and URLs.
func (p Pos) Key() string {
	return fmt.Sprintf("%d_%d_%d", p.X, p.Y, p.Z)
}

// MarshalText encodes the position as "x,y,z".
func (p Pos) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText decodes "x,y,z" or "x_y_z".
func (p *Pos) UnmarshalText(text []byte) error {
	parsed, err := ParsePos(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// ParsePos parses "x,y,z" or "x_y_z".
func ParsePos(s string) (Pos, error) {
	sep := ","
	if !strings.Contains(s, sep) {
		sep = "_"
	}
	parts := strings.Split(strings.TrimSpace(s), sep)
	if len(parts) != 3 {
		return Pos{}, fmt.Errorf("%w: %q", ErrInvalidPos, s)
	}
	var coords [3]int
	for i, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return Pos{}, fmt.Errorf("%w: %q", ErrInvalidPos, s)
		}
		coords[i] = n
	}
	return Pos{X: coords[0], Y: coords[1], Z: coords[2]}, nil
}
