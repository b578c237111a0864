package grid

import "errors"

var (
	// ErrInvalidDirection is returned when a face name or index is not recognised.
	ErrInvalidDirection = errors.New("grid: invalid direction")

	// ErrInvalidPos is returned when a position string cannot be parsed.
	ErrInvalidPos = errors.New("grid: invalid position")

	// ErrInvalidConnection is returned when a connection type name is not recognised.
	ErrInvalidConnection = errors.New("grid: invalid connection type")
)
