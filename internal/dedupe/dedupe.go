package dedupe

// Package dedupe coalesces concurrent reads of the same player row. Heist
// formation checks every member's balance while HTTP clients poll accounts,
// so the same key is often requested several times at once; only one query
// runs per key and the other callers share its result.

import "golang.org/x/sync/singleflight"

// Reads holds the groups for one repository. Groups are never shared
// between repositories, since a player ID only identifies a row within
// one database.
type Reads struct {
	// Balance deduplicates balance lookups keyed by player ID.
	Balance singleflight.Group
	// Account deduplicates full account reads keyed by player ID.
	Account singleflight.Group
}

func NewReads() *Reads {
	return &Reads{}
}
