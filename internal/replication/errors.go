package replication

import "errors"

var (
	// ErrInvalidMessage is returned when a message is malformed.
	ErrInvalidMessage = errors.New("replication: invalid message")

	// ErrUnsupportedTarget is returned when the block at a message position
	// cannot apply the message.
	ErrUnsupportedTarget = errors.New("replication: block does not support message")

	// ErrNoBlock is returned when a message targets an empty position.
	ErrNoBlock = errors.New("replication: no block at position")
)
