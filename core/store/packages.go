// Package store holds the in-memory package records owned by the dispatch
// authority. It is the only component that mutates package state; every
// state transition happens under a single exclusive section so that the
// matcher's "scan for Created packages, pick one, mark it taken" sequence is
// one indivisible operation across all sessions.
package store

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/kilianp07/fleetcoord/core/model"
)

// PackageStore owns all package records. The zero value is not usable; use
// NewPackageStore.
type PackageStore struct {
	mu        sync.Mutex
	nextID    int64
	packages  map[int64]*model.Package
	created   []int64        // IDs currently in the Created state
	delivered map[string]int // delivered count per reporting vehicle

	// avail is closed and replaced whenever a package enters the Created
	// state. Waiters in ClaimCreated grab the current channel under the lock
	// and re-check the eligible set after every wake.
	avail chan struct{}
}

// NewPackageStore returns an empty store. The first allocated ID is 1.
func NewPackageStore() *PackageStore {
	return &PackageStore{
		nextID:    1,
		packages:  make(map[int64]*model.Package),
		delivered: make(map[string]int),
		avail:     make(chan struct{}),
	}
}

// Create inserts a new package in the Created state and returns its ID.
// Any session blocked in ClaimCreated is woken.
func (s *PackageStore) Create(origin, destination string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	pkg := &model.Package{
		ID:          s.nextID,
		Origin:      origin,
		Destination: destination,
		Status:      model.StatusCreated,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.nextID++
	s.packages[pkg.ID] = pkg
	s.created = append(s.created, pkg.ID)

	close(s.avail)
	s.avail = make(chan struct{})
	return pkg.ID
}

// Get returns a copy of the package record.
func (s *PackageStore) Get(id int64) (model.Package, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pkg, ok := s.packages[id]
	if !ok {
		return model.Package{}, ErrNotFound
	}
	return *pkg, nil
}

// Status returns the current status of the package.
func (s *PackageStore) Status(id int64) (model.PackageStatus, error) {
	pkg, err := s.Get(id)
	if err != nil {
		return 0, err
	}
	return pkg.Status, nil
}

// MarkInTransit assigns the package to a vehicle. The package must be in the
// Created state.
func (s *PackageStore) MarkInTransit(id int64, vehicleID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	pkg, ok := s.packages[id]
	if !ok {
		return ErrNotFound
	}
	if pkg.Status != model.StatusCreated {
		if pkg.Status == model.StatusDelivered {
			return ErrAlreadyDelivered
		}
		return ErrNotAssignable
	}
	s.assignLocked(pkg, vehicleID)
	return nil
}

// assignLocked transitions a Created package to InTransit. Callers hold mu.
func (s *PackageStore) assignLocked(pkg *model.Package, vehicleID string) {
	pkg.Status = model.StatusInTransit
	pkg.AssignedTo = vehicleID
	pkg.UpdatedAt = time.Now()
	for i, id := range s.created {
		if id == pkg.ID {
			s.created = append(s.created[:i], s.created[i+1:]...)
			break
		}
	}
}

// MarkDelivered records the delivery of a package by the given vehicle. A
// mismatch between the reporting vehicle and the assigned one is accepted on
// purpose: the reporting courier gets the accounting credit. A package that
// is still Created can also be delivered directly; it then stops being
// eligible for assignment.
func (s *PackageStore) MarkDelivered(id int64, vehicleID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	pkg, ok := s.packages[id]
	if !ok {
		return ErrNotFound
	}
	if pkg.Status == model.StatusDelivered {
		return ErrAlreadyDelivered
	}
	if pkg.Status == model.StatusCreated {
		for i, cid := range s.created {
			if cid == id {
				s.created = append(s.created[:i], s.created[i+1:]...)
				break
			}
		}
	}
	pkg.Status = model.StatusDelivered
	pkg.DeliveredBy = vehicleID
	pkg.UpdatedAt = time.Now()
	s.delivered[vehicleID]++
	return nil
}

// DeliveredCountFor returns how many packages the vehicle has reported
// delivered. Unknown vehicles have a count of zero.
func (s *PackageStore) DeliveredCountFor(vehicleID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.delivered[vehicleID]
}

// ClaimCreated blocks until at least one package is in the Created state,
// then picks one uniformly at random, transitions it to InTransit for the
// given vehicle and returns a copy. Check, pick and mark happen under one
// lock acquisition, so two concurrently woken sessions can never claim the
// same package. Cancelling the context unblocks the call without claiming
// anything.
func (s *PackageStore) ClaimCreated(ctx context.Context, vehicleID string) (model.Package, error) {
	for {
		s.mu.Lock()
		if n := len(s.created); n > 0 {
			pkg := s.packages[s.created[rand.IntN(n)]]
			s.assignLocked(pkg, vehicleID)
			out := *pkg
			s.mu.Unlock()
			return out, nil
		}
		wait := s.avail
		s.mu.Unlock()

		select {
		case <-wait:
		case <-ctx.Done():
			return model.Package{}, ctx.Err()
		}
	}
}

// CreatedCount reports how many packages are currently eligible for
// assignment.
func (s *PackageStore) CreatedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.created)
}
