package model

import "time"

// Location is a single position report for a vehicle. The tracking authority
// keeps only the most recent one per vehicle; history is the caller's
// concern.
type Location struct {
	VehicleID string    `json:"vehicle_id"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Time      time.Time `json:"time"`
}
