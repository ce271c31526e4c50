package track

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kilianp07/fleetcoord/core/events"
	"github.com/kilianp07/fleetcoord/core/logger"
	"github.com/kilianp07/fleetcoord/core/metrics"
	"github.com/kilianp07/fleetcoord/core/model"
	"github.com/kilianp07/fleetcoord/internal/eventbus"
)

// DeliveredCounter is the capability the hub holds on the dispatch
// authority. In a single process it is backed by the package store directly;
// across a boundary it is an RPC client. The hub does not care which.
type DeliveredCounter interface {
	DeliveredCountFor(ctx context.Context, vehicleID string) (int, error)
}

// Hub ingests location streams and republishes the latest position per
// vehicle to zero or more watchers.
type Hub struct {
	table  *Table
	counts DeliveredCounter
	bus    *eventbus.Bus[any]
	sink   metrics.MetricsSink
	log    logger.Logger

	mu       sync.Mutex
	states   map[string]*watchState
	watchers int
}

// watchState is the per-vehicle notify point shared by all watchers of that
// vehicle. seq increments on every update; notify is closed and replaced so
// blocked watchers wake.
type watchState struct {
	mu     sync.Mutex
	seq    uint64
	latest model.Location
	notify chan struct{}
	refs   int
}

// NewHub creates a hub. The bus and sink may be nil.
func NewHub(table *Table, counts DeliveredCounter, bus *eventbus.Bus[any], sink metrics.MetricsSink, log logger.Logger) *Hub {
	if sink == nil {
		sink = metrics.NopSink{}
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Hub{
		table:  table,
		counts: counts,
		bus:    bus,
		sink:   sink,
		log:    log,
		states: make(map[string]*watchState),
	}
}

// Record overwrites the vehicle's stored location and wakes any blocked
// watcher. Writes for distinct vehicles do not contend with each other
// beyond the shard and state map lookups.
func (h *Hub) Record(vehicleID string, lat, lon float64) {
	loc := model.Location{VehicleID: vehicleID, Latitude: lat, Longitude: lon, Time: time.Now()}
	h.table.Set(loc)

	h.mu.Lock()
	st := h.states[vehicleID]
	h.mu.Unlock()
	if st != nil {
		st.mu.Lock()
		st.latest = loc
		st.seq++
		close(st.notify)
		st.notify = make(chan struct{})
		st.mu.Unlock()
	}

	if h.bus != nil {
		h.bus.Publish(events.LocationUpdated{Location: loc})
	}
	if rec, ok := h.sink.(metrics.LocationRecorder); ok {
		if err := rec.RecordLocation(metrics.LocationRecord{Location: loc}); err != nil {
			h.log.Errorf("record location: %v", err)
		}
	}
}

// Latest returns the last-known location for the vehicle, if any.
func (h *Hub) Latest(vehicleID string) (model.Location, bool) {
	return h.table.Latest(vehicleID)
}

// Watch subscribes to the vehicle's location stream. If a last-known
// location exists it is emitted immediately as the first element. The
// returned channel yields the latest location after each wake and is closed
// when ctx is cancelled; cancellation unblocks a waiting consumer promptly
// and never blocks the cancelling goroutine.
func (h *Hub) Watch(ctx context.Context, vehicleID string) <-chan model.Location {
	st := h.acquire(vehicleID)
	out := make(chan model.Location)

	go func() {
		defer close(out)
		defer h.release(vehicleID)

		st.mu.Lock()
		seen := st.seq
		st.mu.Unlock()

		// Catch-up: emit the last-known location recorded before this
		// subscription existed.
		if loc, ok := h.table.Latest(vehicleID); ok {
			select {
			case out <- loc:
			case <-ctx.Done():
				return
			}
		}

		for {
			st.mu.Lock()
			for st.seq == seen {
				wait := st.notify
				st.mu.Unlock()
				select {
				case <-wait:
				case <-ctx.Done():
					return
				}
				st.mu.Lock()
			}
			loc := st.latest
			seen = st.seq
			st.mu.Unlock()

			select {
			case out <- loc:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}

// DeliveredCountFor asks the dispatch authority how many packages the
// vehicle delivered. A failing cross-authority call surfaces as
// ErrCountsUnavailable; no stale or default count is ever returned.
func (h *Hub) DeliveredCountFor(ctx context.Context, vehicleID string) (int, error) {
	if h.counts == nil {
		return 0, ErrCountsUnavailable
	}
	n, err := h.counts.DeliveredCountFor(ctx, vehicleID)
	if err != nil {
		h.log.Errorf("delivered count query for %s failed: %v", vehicleID, err)
		return 0, fmt.Errorf("%w: %v", ErrCountsUnavailable, err)
	}
	return n, nil
}

// WatcherCount reports the number of live watch subscriptions.
func (h *Hub) WatcherCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.watchers
}

func (h *Hub) acquire(vehicleID string) *watchState {
	h.mu.Lock()
	st := h.states[vehicleID]
	if st == nil {
		st = &watchState{notify: make(chan struct{})}
		h.states[vehicleID] = st
	}
	st.refs++
	h.watchers++
	n := h.watchers
	h.mu.Unlock()
	h.recordWatchers(n)
	return st
}

// release drops one watcher reference and reclaims the state once nobody
// watches the vehicle anymore. The table keeps the last-known location, so a
// later subscription still gets its catch-up element.
func (h *Hub) release(vehicleID string) {
	h.mu.Lock()
	st := h.states[vehicleID]
	if st != nil {
		st.refs--
		if st.refs <= 0 {
			delete(h.states, vehicleID)
		}
	}
	h.watchers--
	n := h.watchers
	h.mu.Unlock()
	h.recordWatchers(n)
}

func (h *Hub) recordWatchers(n int) {
	if rec, ok := h.sink.(metrics.SessionGaugeRecorder); ok {
		if err := rec.RecordWatchSessions(n); err != nil {
			h.log.Errorf("record watcher gauge: %v", err)
		}
	}
}
