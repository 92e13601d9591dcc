package challenge

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ericogr/encounters/internal/game"
	"github.com/ericogr/encounters/internal/scheduler"
)

func newTestCoordinator() (*Coordinator, *scheduler.Manual) {
	m := scheduler.NewManual(time.Unix(0, 0))
	return NewCoordinator(m, m.Now), m
}

func TestAcceptBeforeTimeout(t *testing.T) {
	co, m := newTestCoordinator()
	var expired int32
	c := co.Propose("alice", "bob", nil, 60*time.Second, func(*Challenge) { atomic.AddInt32(&expired, 1) })

	if err := co.Respond(c, "bob", true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Status() != StatusAccepted {
		t.Fatalf("expected accepted, got %v", c.Status())
	}
	m.Advance(2 * time.Minute)
	if expired != 0 {
		t.Fatalf("expiry callback ran after acceptance")
	}
	if co.Pending() != 0 {
		t.Fatalf("accepted challenge still pending")
	}
}

func TestExpiryThenLateAcceptRejected(t *testing.T) {
	co, m := newTestCoordinator()
	var expired int32
	c := co.Propose("alice", "bob", nil, 60*time.Second, func(*Challenge) { atomic.AddInt32(&expired, 1) })

	m.Advance(60 * time.Second)
	if c.Status() != StatusExpired {
		t.Fatalf("expected expired, got %v", c.Status())
	}
	if expired != 1 {
		t.Fatalf("expected one expiry callback, got %d", expired)
	}
	err := co.Respond(c, "bob", true)
	if !errors.Is(err, game.ErrNoLongerPending) {
		t.Fatalf("expected ErrNoLongerPending, got %v", err)
	}
	if _, ok := co.Lookup(c.ID); ok {
		t.Fatalf("expired challenge still retrievable")
	}
}

func TestDecline(t *testing.T) {
	co, _ := newTestCoordinator()
	c := co.Propose("alice", "bob", "payload", time.Minute, nil)
	if err := co.Respond(c, "bob", false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Status() != StatusDeclined {
		t.Fatalf("expected declined, got %v", c.Status())
	}
	if err := co.Respond(c, "bob", true); !errors.Is(err, game.ErrNoLongerPending) {
		t.Fatalf("second response must be rejected, got %v", err)
	}
}

func TestOnlyTargetMayRespond(t *testing.T) {
	co, _ := newTestCoordinator()
	c := co.Propose("alice", "bob", nil, time.Minute, nil)
	if err := co.Respond(c, "mallory", true); !errors.Is(err, game.ErrNotParticipant) {
		t.Fatalf("expected ErrNotParticipant, got %v", err)
	}
	if err := co.Respond(c, "alice", true); !errors.Is(err, game.ErrInvalidTarget) {
		t.Fatalf("initiator answering own challenge should be invalid, got %v", err)
	}
	if c.Status() != StatusProposed {
		t.Fatalf("rejected responses must not settle the challenge")
	}
}

func TestCancelSkipsCallback(t *testing.T) {
	co, m := newTestCoordinator()
	var expired int32
	c := co.Propose("alice", "", nil, time.Minute, func(*Challenge) { atomic.AddInt32(&expired, 1) })
	if !co.Cancel(c) {
		t.Fatalf("expected cancel to win")
	}
	m.Advance(time.Hour)
	if expired != 0 {
		t.Fatalf("cancelled challenge expired")
	}
}

func TestResponseRacingExpirySettlesOnce(t *testing.T) {
	for i := 0; i < 50; i++ {
		co := NewCoordinator(scheduler.Real{}, nil)
		var expired, accepted int32
		c := co.Propose("alice", "bob", nil, time.Millisecond, func(*Challenge) { atomic.AddInt32(&expired, 1) })
		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			time.Sleep(time.Millisecond)
			if co.Respond(c, "bob", true) == nil {
				atomic.AddInt32(&accepted, 1)
			}
		}()
		wg.Wait()
		time.Sleep(5 * time.Millisecond)
		e, a := atomic.LoadInt32(&expired), atomic.LoadInt32(&accepted)
		if e+a != 1 {
			t.Fatalf("expected exactly one winner, expired=%d accepted=%d", e, a)
		}
	}
}
