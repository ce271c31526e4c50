package events

import (
	"time"

	"github.com/kilianp07/fleetcoord/core/model"
)

// PackageCreated is published when a sender registers a new package.
type PackageCreated struct {
	PackageID int64
	Origin    string
	Dest      string
	Time      time.Time
}

// Assigned is published when a package is handed to a vehicle. Wait is how
// long the session was blocked before the package became available.
type Assigned struct {
	PackageID int64
	VehicleID string
	Wait      time.Duration
	Time      time.Time
}

// Delivered is published when a vehicle reports a completed delivery.
type Delivered struct {
	PackageID int64
	VehicleID string
	Time      time.Time
}

// LocationUpdated is published on every ingested position report.
type LocationUpdated struct {
	Location model.Location
}
