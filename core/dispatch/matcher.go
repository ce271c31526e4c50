package dispatch

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/kilianp07/fleetcoord/core/events"
	"github.com/kilianp07/fleetcoord/core/logger"
	"github.com/kilianp07/fleetcoord/core/metrics"
	"github.com/kilianp07/fleetcoord/core/model"
	"github.com/kilianp07/fleetcoord/core/store"
	"github.com/kilianp07/fleetcoord/internal/eventbus"
)

// ErrSessionClosed is returned by Session.Next after the session has been
// closed. It signals clean termination, not a failure.
var ErrSessionClosed = errors.New("dispatch session closed")

// Matcher owns the dispatch sessions and drives the package store on their
// behalf. It is safe for concurrent use.
type Matcher struct {
	store *store.PackageStore
	bus   *eventbus.Bus[any]
	sink  metrics.MetricsSink
	log   logger.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewMatcher creates a matcher on top of the given store. The bus and sink
// may be nil; events are then simply not emitted.
func NewMatcher(st *store.PackageStore, bus *eventbus.Bus[any], sink metrics.MetricsSink, log logger.Logger) *Matcher {
	if sink == nil {
		sink = metrics.NopSink{}
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Matcher{
		store:    st,
		bus:      bus,
		sink:     sink,
		log:      log,
		sessions: make(map[string]*Session),
	}
}

// CreatePackage inserts a new package and wakes any session blocked waiting
// for work.
func (m *Matcher) CreatePackage(origin, destination string) int64 {
	id := m.store.Create(origin, destination)
	m.log.Infow("package created", map[string]any{"package_id": id})
	m.publish(events.PackageCreated{PackageID: id, Origin: origin, Dest: destination, Time: time.Now()})
	if rec, ok := m.sink.(metrics.PackageCreatedRecorder); ok {
		if err := rec.RecordPackageCreated(metrics.PackageCreatedRecord{PackageID: id, Time: time.Now()}); err != nil {
			m.log.Errorf("record package created: %v", err)
		}
	}
	return id
}

// PackageStatus returns the status of a package.
func (m *Matcher) PackageStatus(id int64) (model.PackageStatus, error) {
	return m.store.Status(id)
}

// DeliveredCountFor returns the number of deliveries reported by a vehicle.
func (m *Matcher) DeliveredCountFor(vehicleID string) int {
	return m.store.DeliveredCountFor(vehicleID)
}

// OpenSession returns the dispatch session for the vehicle, creating it if
// needed. A vehicle has at most one session: reopening after a reconnect
// closes the previous one so its blocked wait is released.
func (m *Matcher) OpenSession(vehicleID string) *Session {
	m.mu.Lock()
	if prev, ok := m.sessions[vehicleID]; ok {
		prev.closeLocked()
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{m: m, vehicleID: vehicleID, ctx: ctx, cancel: cancel}
	m.sessions[vehicleID] = s
	n := len(m.sessions)
	m.mu.Unlock()

	m.log.Infof("dispatch session opened for vehicle %s", vehicleID)
	m.recordSessions(n)
	return s
}

// CloseSession terminates the session of the given vehicle, if any.
func (m *Matcher) CloseSession(vehicleID string) {
	m.mu.Lock()
	s, ok := m.sessions[vehicleID]
	if ok && !s.closed {
		s.closeLocked()
	}
	delete(m.sessions, vehicleID)
	n := len(m.sessions)
	m.mu.Unlock()
	if ok {
		m.log.Infof("dispatch session closed for vehicle %s", vehicleID)
		m.recordSessions(n)
	}
}

// SessionCount reports the number of live sessions.
func (m *Matcher) SessionCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Close terminates every session.
func (m *Matcher) Close() {
	m.mu.Lock()
	for id, s := range m.sessions {
		s.closeLocked()
		delete(m.sessions, id)
	}
	m.mu.Unlock()
	m.recordSessions(0)
}

func (m *Matcher) publish(e any) {
	if m.bus != nil {
		m.bus.Publish(e)
	}
}

func (m *Matcher) recordSessions(n int) {
	if rec, ok := m.sink.(metrics.SessionGaugeRecorder); ok {
		if err := rec.RecordDispatchSessions(n); err != nil {
			m.log.Errorf("record session gauge: %v", err)
		}
	}
}
