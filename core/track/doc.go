// Package track implements the tracking authority: the last-known location
// table and the hub that fans location updates out to live watchers.
//
// The table keeps exactly one location per vehicle; every write overwrites
// the previous one. Watchers subscribe per vehicle and block until a new
// location arrives or their context is cancelled. A watcher that is not
// currently waiting coalesces bursts: it observes the most recent location
// among those it missed, never every historical one. That is the intended
// behavior of the single latest-value slot, not a defect.
package track
