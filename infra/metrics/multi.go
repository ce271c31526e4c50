package metrics

import coremetrics "github.com/kilianp07/fleetcoord/core/metrics"

// MultiSink fans coordination events out to multiple sinks.
type MultiSink struct {
	Sinks []coremetrics.MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...coremetrics.MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordAssignment forwards the record to all sinks, returning the first
// error encountered.
func (m *MultiSink) RecordAssignment(rec coremetrics.AssignmentRecord) error {
	for _, s := range m.Sinks {
		if err := s.RecordAssignment(rec); err != nil {
			return err
		}
	}
	return nil
}

// RecordPackageCreated forwards package creations.
func (m *MultiSink) RecordPackageCreated(rec coremetrics.PackageCreatedRecord) error {
	for _, s := range m.Sinks {
		if r, ok := s.(coremetrics.PackageCreatedRecorder); ok {
			if err := r.RecordPackageCreated(rec); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordDelivery forwards deliveries.
func (m *MultiSink) RecordDelivery(rec coremetrics.DeliveryRecord) error {
	for _, s := range m.Sinks {
		if r, ok := s.(coremetrics.DeliveryRecorder); ok {
			if err := r.RecordDelivery(rec); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordLocation forwards position reports.
func (m *MultiSink) RecordLocation(rec coremetrics.LocationRecord) error {
	for _, s := range m.Sinks {
		if r, ok := s.(coremetrics.LocationRecorder); ok {
			if err := r.RecordLocation(rec); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordDispatchSessions forwards the session gauge.
func (m *MultiSink) RecordDispatchSessions(n int) error {
	for _, s := range m.Sinks {
		if r, ok := s.(coremetrics.SessionGaugeRecorder); ok {
			if err := r.RecordDispatchSessions(n); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordWatchSessions forwards the watcher gauge.
func (m *MultiSink) RecordWatchSessions(n int) error {
	for _, s := range m.Sinks {
		if r, ok := s.(coremetrics.SessionGaugeRecorder); ok {
			if err := r.RecordWatchSessions(n); err != nil {
				return err
			}
		}
	}
	return nil
}
