package metrics

import (
	"time"

	"github.com/kilianp07/fleetcoord/core/model"
)

// AssignmentRecord represents a package handed to a vehicle.
type AssignmentRecord struct {
	PackageID int64
	VehicleID string
	// Wait is the time the session spent blocked before a package became
	// available.
	Wait time.Duration
	Time time.Time
}

// MetricsSink records assignment events for observability purposes. Sinks
// must never influence coordination outcomes; all errors are logged and
// dropped by callers.
type MetricsSink interface {
	RecordAssignment(rec AssignmentRecord) error
}

// PackageCreatedRecord captures the creation of a package.
type PackageCreatedRecord struct {
	PackageID int64
	Time      time.Time
}

// PackageCreatedRecorder records package creations.
type PackageCreatedRecorder interface {
	RecordPackageCreated(rec PackageCreatedRecord) error
}

// DeliveryRecord captures an accepted completion notice.
type DeliveryRecord struct {
	PackageID int64
	VehicleID string
	Time      time.Time
}

// DeliveryRecorder records deliveries.
type DeliveryRecorder interface {
	RecordDelivery(rec DeliveryRecord) error
}

// LocationRecord captures an ingested position report.
type LocationRecord struct {
	Location model.Location
}

// LocationRecorder records position reports.
type LocationRecorder interface {
	RecordLocation(rec LocationRecord) error
}

// SessionGaugeRecorder tracks the number of live dispatch sessions and
// watch subscriptions.
type SessionGaugeRecorder interface {
	RecordDispatchSessions(n int) error
	RecordWatchSessions(n int) error
}

// NopSink implements MetricsSink with no-op methods.
type NopSink struct{}

func (NopSink) RecordAssignment(AssignmentRecord) error         { return nil }
func (NopSink) RecordPackageCreated(PackageCreatedRecord) error { return nil }
func (NopSink) RecordDelivery(DeliveryRecord) error             { return nil }
func (NopSink) RecordLocation(LocationRecord) error             { return nil }
func (NopSink) RecordDispatchSessions(int) error                { return nil }
func (NopSink) RecordWatchSessions(int) error                   { return nil }
