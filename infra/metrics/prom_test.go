package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	coremetrics "github.com/kilianp07/fleetcoord/core/metrics"
	"github.com/kilianp07/fleetcoord/core/model"
)

func TestPromSink_Records(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(coremetrics.Config{}, reg)
	if err != nil {
		t.Fatalf("sink: %v", err)
	}

	if err := sink.RecordAssignment(coremetrics.AssignmentRecord{PackageID: 1, VehicleID: "v1", Wait: time.Second}); err != nil {
		t.Fatalf("assignment: %v", err)
	}
	ps := sink.(*PromSink)
	if got := testutil.ToFloat64(ps.assignments.WithLabelValues("v1")); got != 1 {
		t.Fatalf("assignments counter = %v", got)
	}

	if err := ps.RecordDelivery(coremetrics.DeliveryRecord{PackageID: 1, VehicleID: "v1"}); err != nil {
		t.Fatalf("delivery: %v", err)
	}
	if got := testutil.ToFloat64(ps.deliveries.WithLabelValues("v1")); got != 1 {
		t.Fatalf("deliveries counter = %v", got)
	}

	if err := ps.RecordLocation(coremetrics.LocationRecord{Location: model.Location{VehicleID: "v1"}}); err != nil {
		t.Fatalf("location: %v", err)
	}
	if err := ps.RecordPackageCreated(coremetrics.PackageCreatedRecord{PackageID: 1}); err != nil {
		t.Fatalf("created: %v", err)
	}
	if got := testutil.ToFloat64(ps.createdTotal); got != 1 {
		t.Fatalf("created counter = %v", got)
	}

	if err := ps.RecordDispatchSessions(3); err != nil {
		t.Fatalf("sessions: %v", err)
	}
	if got := testutil.ToFloat64(ps.sessions); got != 3 {
		t.Fatalf("sessions gauge = %v", got)
	}
	if err := ps.RecordWatchSessions(2); err != nil {
		t.Fatalf("watchers: %v", err)
	}
	if got := testutil.ToFloat64(ps.watchers); got != 2 {
		t.Fatalf("watchers gauge = %v", got)
	}
}

func TestPromSink_DoubleRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := NewPromSinkWithRegistry(coremetrics.Config{}, reg); err != nil {
		t.Fatalf("first: %v", err)
	}
	if _, err := NewPromSinkWithRegistry(coremetrics.Config{}, reg); err != nil {
		t.Fatalf("second registration must not fail: %v", err)
	}
}
