package track

import "errors"

// ErrCountsUnavailable is returned when the dispatch authority cannot be
// reached for a delivered-count query. The hub never substitutes a cached
// or default value.
var ErrCountsUnavailable = errors.New("delivered counts unavailable")
