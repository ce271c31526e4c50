package model

import "time"

// PackageStatus tracks the delivery lifecycle of a package. Transitions are
// one-directional: Created -> InTransit -> Delivered.
type PackageStatus int

const (
	StatusCreated PackageStatus = iota
	StatusInTransit
	StatusDelivered
)

// String returns a human-readable representation of the status.
func (s PackageStatus) String() string {
	switch s {
	case StatusCreated:
		return "created"
	case StatusInTransit:
		return "in_transit"
	case StatusDelivered:
		return "delivered"
	default:
		return "unknown"
	}
}

// Package is a delivery job. IDs are allocated by the package store,
// monotonically increasing and never reused.
type Package struct {
	ID          int64
	Origin      string
	Destination string
	Status      PackageStatus

	// AssignedTo is the vehicle currently carrying the package. Empty until
	// the package leaves the Created state.
	AssignedTo string

	// DeliveredBy is the vehicle that reported the delivery. It may differ
	// from AssignedTo: a completion notice from another courier is accepted
	// and counted for that courier.
	DeliveredBy string

	CreatedAt time.Time
	UpdatedAt time.Time
}
