package layout

import "errors"

var (
	// ErrInvalidLayout is returned when a layout file fails validation.
	ErrInvalidLayout = errors.New("layout: invalid layout")

	// ErrUnknownKind is returned for a node kind the loader cannot place.
	ErrUnknownKind = errors.New("layout: unknown node kind")
)
