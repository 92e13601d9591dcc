package keys

import (
	"sort"
	"strings"

	"github.com/google/uuid"
)

// PairKey produces the canonical session key for a set of participants.
// Behavior: trims IDs, drops empty ones, sorts the rest and joins with ":".
// The same pair yields the same key regardless of who initiated.
func PairKey(playerIDs ...string) string {
	parts := make([]string, 0, len(playerIDs))
	for _, id := range playerIDs {
		s := strings.TrimSpace(id)
		if s == "" {
			continue
		}
		parts = append(parts, s)
	}
	sort.Strings(parts)
	return "duel:" + strings.Join(parts, ":")
}

// HeistToken returns a fresh key for an N-party heist. Heists are not keyed
// by membership because the party is not known at creation time.
func HeistToken() string {
	return "heist:" + uuid.NewString()
}
