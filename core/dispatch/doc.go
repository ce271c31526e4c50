// Package dispatch implements the matcher that pairs newly created packages
// with the next vehicle reporting availability.
//
// Each connected vehicle holds exactly one Session. A session alternates
// strictly between a completion notice from the vehicle and an assignment
// from the matcher: the notice settles the previous delivery, then the
// session blocks until a package in the Created state exists, claims one
// uniformly at random and returns it. The claim is atomic with the
// availability check (see store.PackageStore.ClaimCreated), so concurrently
// woken sessions never receive the same package.
//
// A session with nothing to hand out blocks indefinitely. Cancelling the
// session context, or closing the session when the vehicle disconnects,
// unblocks the wait without claiming anything.
package dispatch
