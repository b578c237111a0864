package nodestore

import "errors"

var (
	// ErrRecordNotFound is returned when no record exists at a position.
	ErrRecordNotFound = errors.New("nodestore: record not found")

	// ErrInvalidRecord is returned for records without a kind.
	ErrInvalidRecord = errors.New("nodestore: invalid record")
)
