package dispatch

import (
	"context"
	"errors"
	"time"

	"github.com/kilianp07/fleetcoord/core/events"
	"github.com/kilianp07/fleetcoord/core/metrics"
	"github.com/kilianp07/fleetcoord/core/model"
	"github.com/kilianp07/fleetcoord/core/store"
)

// Session is the per-vehicle duplex exchange with the matcher. Methods are
// meant to be driven by a single transport goroutine; Close may be called
// from any goroutine.
type Session struct {
	m         *Matcher
	vehicleID string
	ctx       context.Context
	cancel    context.CancelFunc
	closed    bool
}

// VehicleID returns the vehicle this session belongs to.
func (s *Session) VehicleID() string { return s.vehicleID }

// Next settles the completion notice, then blocks until a package is
// available and returns it as the next assignment.
//
// A notice naming an unknown or already delivered package is logged and
// ignored; the session keeps going. The wait ends early, without claiming a
// package, when ctx is cancelled or the session is closed; the returned
// error is then the context error or ErrSessionClosed.
func (s *Session) Next(ctx context.Context, notice model.CompletionNotice) (model.Assignment, error) {
	m := s.m
	if !notice.Empty() && notice.Delivered {
		switch err := m.store.MarkDelivered(notice.PackageID, s.vehicleID); {
		case err == nil:
			m.log.Infow("delivery recorded", map[string]any{
				"package_id": notice.PackageID,
				"vehicle_id": s.vehicleID,
			})
			m.publish(events.Delivered{PackageID: notice.PackageID, VehicleID: s.vehicleID, Time: time.Now()})
			if rec, ok := m.sink.(metrics.DeliveryRecorder); ok {
				if rerr := rec.RecordDelivery(metrics.DeliveryRecord{PackageID: notice.PackageID, VehicleID: s.vehicleID, Time: time.Now()}); rerr != nil {
					m.log.Errorf("record delivery: %v", rerr)
				}
			}
		case errors.Is(err, store.ErrNotFound), errors.Is(err, store.ErrAlreadyDelivered):
			// Malformed notice: not fatal for the session.
			m.log.Warnf("ignoring completion notice from %s for package %d: %v", s.vehicleID, notice.PackageID, err)
		default:
			return model.Assignment{}, err
		}
	}

	waitCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(s.ctx, cancel)
	defer stop()

	start := time.Now()
	pkg, err := m.store.ClaimCreated(waitCtx, s.vehicleID)
	if err != nil {
		if s.ctx.Err() != nil && ctx.Err() == nil {
			return model.Assignment{}, ErrSessionClosed
		}
		return model.Assignment{}, err
	}
	wait := time.Since(start)

	m.log.Infow("package assigned", map[string]any{
		"package_id": pkg.ID,
		"vehicle_id": s.vehicleID,
		"wait_ms":    wait.Milliseconds(),
	})
	m.publish(events.Assigned{PackageID: pkg.ID, VehicleID: s.vehicleID, Wait: wait, Time: time.Now()})
	if err := m.sink.RecordAssignment(metrics.AssignmentRecord{PackageID: pkg.ID, VehicleID: s.vehicleID, Wait: wait, Time: time.Now()}); err != nil {
		m.log.Errorf("record assignment: %v", err)
	}

	return model.Assignment{
		PackageID:       pkg.ID,
		VehicleID:       s.vehicleID,
		PickupAddress:   pkg.Origin,
		DeliveryAddress: pkg.Destination,
	}, nil
}

// Close terminates the session and releases a blocked Next.
func (s *Session) Close() {
	s.m.mu.Lock()
	if !s.closed {
		s.closeLocked()
		if cur, ok := s.m.sessions[s.vehicleID]; ok && cur == s {
			delete(s.m.sessions, s.vehicleID)
		}
	}
	n := len(s.m.sessions)
	s.m.mu.Unlock()
	s.m.recordSessions(n)
}

// closeLocked cancels the session context. Callers hold m.mu.
func (s *Session) closeLocked() {
	s.closed = true
	s.cancel()
}
