package store

import "errors"

var (
	// ErrNotFound is returned for lookups of unknown package IDs.
	ErrNotFound = errors.New("package not found")

	// ErrAlreadyDelivered is returned when a delivered package is named in a
	// later transition. Delivered packages are immutable.
	ErrAlreadyDelivered = errors.New("package already delivered")

	// ErrNotAssignable is returned by MarkInTransit when the package is not
	// in the Created state.
	ErrNotAssignable = errors.New("package not assignable")
)
