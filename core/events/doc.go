// Package events defines the coordination events emitted on the event bus.
//
// Available event types:
//   - PackageCreated: a new package entered the Created state
//   - Assigned: a package was handed to a vehicle
//   - Delivered: a vehicle reported a completed delivery
//   - LocationUpdated: a vehicle pushed a new position
package events
