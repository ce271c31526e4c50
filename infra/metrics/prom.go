package metrics

import (
	coremetrics "github.com/kilianp07/fleetcoord/core/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

// PromSink records coordination events in Prometheus metrics.
type PromSink struct {
	createdTotal   prometheus.Counter
	assignments    *prometheus.CounterVec
	deliveries     *prometheus.CounterVec
	locations      *prometheus.CounterVec
	assignmentWait prometheus.Histogram
	sessions       prometheus.Gauge
	watchers       prometheus.Gauge
}

// NewPromSink registers fleet metrics on the default Prometheus registerer.
// The metrics server should be started separately using cfg.PrometheusAddr.
func NewPromSink(cfg coremetrics.Config) (coremetrics.MetricsSink, error) {
	return NewPromSinkWithRegistry(cfg, prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(_ coremetrics.Config, reg prometheus.Registerer) (coremetrics.MetricsSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{
		createdTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fleet_packages_created_total",
			Help: "Total number of packages created",
		}),
		assignments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fleet_assignments_total",
			Help: "Total number of packages assigned to vehicles",
		}, []string{"vehicle_id"}),
		deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fleet_deliveries_total",
			Help: "Total number of delivered packages",
		}, []string{"vehicle_id"}),
		locations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fleet_location_updates_total",
			Help: "Total number of ingested position reports",
		}, []string{"vehicle_id"}),
		assignmentWait: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "fleet_assignment_wait_seconds",
			Help:    "Time a dispatch session blocked before a package became available",
			Buckets: prometheus.DefBuckets,
		}),
		sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "fleet_dispatch_sessions",
			Help: "Number of live dispatch sessions",
		}),
		watchers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "fleet_watch_sessions",
			Help: "Number of live watch subscriptions",
		}),
	}

	collectors := []prometheus.Collector{
		s.createdTotal, s.assignments, s.deliveries, s.locations,
		s.assignmentWait, s.sessions, s.watchers,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return nil, err
			}
		}
	}
	return s, nil
}

// RecordAssignment increments the assignment counter and observes the wait.
func (s *PromSink) RecordAssignment(rec coremetrics.AssignmentRecord) error {
	s.assignments.WithLabelValues(rec.VehicleID).Inc()
	s.assignmentWait.Observe(rec.Wait.Seconds())
	return nil
}

// RecordPackageCreated increments the created counter.
func (s *PromSink) RecordPackageCreated(coremetrics.PackageCreatedRecord) error {
	s.createdTotal.Inc()
	return nil
}

// RecordDelivery increments the delivery counter.
func (s *PromSink) RecordDelivery(rec coremetrics.DeliveryRecord) error {
	s.deliveries.WithLabelValues(rec.VehicleID).Inc()
	return nil
}

// RecordLocation increments the location counter.
func (s *PromSink) RecordLocation(rec coremetrics.LocationRecord) error {
	s.locations.WithLabelValues(rec.Location.VehicleID).Inc()
	return nil
}

// RecordDispatchSessions sets the session gauge.
func (s *PromSink) RecordDispatchSessions(n int) error {
	s.sessions.Set(float64(n))
	return nil
}

// RecordWatchSessions sets the watcher gauge.
func (s *PromSink) RecordWatchSessions(n int) error {
	s.watchers.Set(float64(n))
	return nil
}
