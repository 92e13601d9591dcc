package challenge

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/ericogr/encounters/internal/game"
	"github.com/ericogr/encounters/internal/scheduler"
)

// Status is the handshake state of one challenge.
type Status int32

const (
	StatusProposed Status = iota
	StatusAccepted
	StatusDeclined
	StatusExpired
	StatusCancelled
)

func (s Status) String() string {
	switch s {
	case StatusProposed:
		return "proposed"
	case StatusAccepted:
		return "accepted"
	case StatusDeclined:
		return "declined"
	case StatusExpired:
		return "expired"
	case StatusCancelled:
		return "cancelled"
	}
	return "unknown"
}

// Challenge is the handle returned by Propose. Its status leaves Proposed
// exactly once; whichever of response, expiry or cancel wins the
// compare-and-swap decides the result and the others become no-ops.
type Challenge struct {
	ID        string
	Initiator string
	// Target is the only player allowed to respond. Empty means any caller
	// (heist forming windows are answered by the session itself).
	Target    string
	Payload   any
	CreatedAt time.Time
	ExpiresAt time.Time

	status atomic.Int32

	mu    sync.Mutex
	timer scheduler.Timer
}

// Status returns the current handshake state.
func (c *Challenge) Status() Status { return Status(c.status.Load()) }

func (c *Challenge) settle(to Status) bool {
	return c.status.CompareAndSwap(int32(StatusProposed), int32(to))
}

func (c *Challenge) stopTimer() {
	c.mu.Lock()
	t := c.timer
	c.mu.Unlock()
	if t != nil {
		t.Stop()
	}
}

// Coordinator owns pending challenges and their expiry timers.
type Coordinator struct {
	sched scheduler.Scheduler
	now   func() time.Time

	mu      sync.Mutex
	pending map[string]*Challenge
}

func NewCoordinator(sched scheduler.Scheduler, now func() time.Time) *Coordinator {
	if sched == nil {
		sched = scheduler.Real{}
	}
	if now == nil {
		now = time.Now
	}
	return &Coordinator{sched: sched, now: now, pending: make(map[string]*Challenge)}
}

// Propose creates a pending challenge and arms its timeout. onExpire runs at
// most once, only if no response or cancel settled the challenge first.
func (co *Coordinator) Propose(initiator, target string, payload any, timeout time.Duration, onExpire func(*Challenge)) *Challenge {
	now := co.now()
	c := &Challenge{
		ID:        uuid.NewString(),
		Initiator: initiator,
		Target:    target,
		Payload:   payload,
		CreatedAt: now,
		ExpiresAt: now.Add(timeout),
	}
	co.mu.Lock()
	co.pending[c.ID] = c
	co.mu.Unlock()

	t := co.sched.AfterFunc(timeout, func() {
		if !c.settle(StatusExpired) {
			return
		}
		co.forget(c)
		if onExpire != nil {
			onExpire(c)
		}
	})
	c.mu.Lock()
	c.timer = t
	c.mu.Unlock()
	return c
}

// Respond accepts or declines c on behalf of responder. A response that
// loses the race against expiry gets ErrNoLongerPending.
func (co *Coordinator) Respond(c *Challenge, responder string, accept bool) error {
	if c == nil {
		return game.ErrNotFound
	}
	if c.Target != "" && responder != c.Target {
		if responder == c.Initiator {
			return game.ErrInvalidTarget
		}
		return game.ErrNotParticipant
	}
	to := StatusDeclined
	if accept {
		to = StatusAccepted
	}
	if !c.settle(to) {
		return game.ErrNoLongerPending
	}
	c.stopTimer()
	co.forget(c)
	return nil
}

// Cancel withdraws a pending challenge without running its expiry callback.
func (co *Coordinator) Cancel(c *Challenge) bool {
	if c == nil || !c.settle(StatusCancelled) {
		return false
	}
	c.stopTimer()
	co.forget(c)
	return true
}

// Lookup returns a still-pending challenge by ID.
func (co *Coordinator) Lookup(id string) (*Challenge, bool) {
	co.mu.Lock()
	defer co.mu.Unlock()
	c, ok := co.pending[id]
	return c, ok
}

// Pending returns the number of unresolved challenges.
func (co *Coordinator) Pending() int {
	co.mu.Lock()
	defer co.mu.Unlock()
	return len(co.pending)
}

func (co *Coordinator) forget(c *Challenge) {
	co.mu.Lock()
	delete(co.pending, c.ID)
	co.mu.Unlock()
}
