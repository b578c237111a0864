package bus

import "errors"

var (
	// ErrNotElement is returned when a controller is attached to a block that
	// does not participate in the bus.
	ErrNotElement = errors.New("bus: block is not a bus element")

	// ErrControllerExists is returned when a node already owns a controller.
	ErrControllerExists = errors.New("bus: controller already attached")

	// ErrDeviceNotFound is returned when no reachable device has the given ID.
	ErrDeviceNotFound = errors.New("bus: device not found")

	// ErrBlockNotFound is returned when no block exists at a position.
	ErrBlockNotFound = errors.New("bus: block not found")

	// ErrLoopStopped is returned when work is submitted to a stopped loop.
	ErrLoopStopped = errors.New("bus: loop stopped")
)
