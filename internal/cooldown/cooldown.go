package cooldown

import (
	"sync"
	"time"
)

type entryKey struct {
	playerID   string
	actionType string
}

// Guard tracks the last time each player performed each action type.
// Entries are never deleted; a stale entry only ever answers "yes".
type Guard struct {
	mu   sync.Mutex
	now  func() time.Time
	last map[entryKey]time.Time
}

// NewGuard creates a guard using now as its clock; nil means time.Now.
func NewGuard(now func() time.Time) *Guard {
	if now == nil {
		now = time.Now
	}
	return &Guard{now: now, last: make(map[entryKey]time.Time)}
}

// TryConsume records an action and returns true when the cooldown since the
// previous one has elapsed (or there was none). Otherwise the entry is left
// untouched and false is returned.
func (g *Guard) TryConsume(playerID, actionType string, cooldown time.Duration) bool {
	_, ok := g.Reserve(playerID, actionType, cooldown)
	return ok
}

// Reserve consumes like TryConsume and also returns an undo that restores the
// previous entry. The undo is a no-op once a later consume replaced it.
func (g *Guard) Reserve(playerID, actionType string, cooldown time.Duration) (undo func(), ok bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	k := entryKey{playerID, actionType}
	now := g.now()
	prev, hadPrev := g.last[k]
	if hadPrev && now.Sub(prev) < cooldown {
		return func() {}, false
	}
	g.last[k] = now
	return func() {
		g.mu.Lock()
		defer g.mu.Unlock()
		if cur, ok := g.last[k]; !ok || !cur.Equal(now) {
			return
		}
		if hadPrev {
			g.last[k] = prev
		} else {
			delete(g.last, k)
		}
	}, true
}

// Remaining reports how long until playerID may perform actionType again.
// Zero means now. It never mutates state.
func (g *Guard) Remaining(playerID, actionType string, cooldown time.Duration) time.Duration {
	g.mu.Lock()
	defer g.mu.Unlock()
	last, ok := g.last[entryKey{playerID, actionType}]
	if !ok {
		return 0
	}
	left := cooldown - g.now().Sub(last)
	if left < 0 {
		return 0
	}
	return left
}
