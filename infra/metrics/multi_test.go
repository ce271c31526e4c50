package metrics

import (
	"testing"

	coremetrics "github.com/kilianp07/fleetcoord/core/metrics"
)

type countingSink struct {
	coremetrics.NopSink
	assignments int
	deliveries  int
}

func (c *countingSink) RecordAssignment(coremetrics.AssignmentRecord) error {
	c.assignments++
	return nil
}

func (c *countingSink) RecordDelivery(coremetrics.DeliveryRecord) error {
	c.deliveries++
	return nil
}

func TestMultiSink_Forwards(t *testing.T) {
	a, b := &countingSink{}, &countingSink{}
	m := NewMultiSink(a, b)
	if err := m.RecordAssignment(coremetrics.AssignmentRecord{}); err != nil {
		t.Fatalf("assignment: %v", err)
	}
	if err := m.RecordDelivery(coremetrics.DeliveryRecord{}); err != nil {
		t.Fatalf("delivery: %v", err)
	}
	if a.assignments != 1 || b.assignments != 1 || a.deliveries != 1 || b.deliveries != 1 {
		t.Fatalf("not forwarded to all sinks: %+v %+v", a, b)
	}
}

func TestMultiSink_SkipsUnsupportedRecorders(t *testing.T) {
	m := NewMultiSink(coremetrics.NopSink{})
	if err := m.RecordLocation(coremetrics.LocationRecord{}); err != nil {
		t.Fatalf("location: %v", err)
	}
	if err := m.RecordDispatchSessions(1); err != nil {
		t.Fatalf("sessions: %v", err)
	}
}
