package scheduler

import (
	"testing"
	"time"
)

func TestManualFiresInOrder(t *testing.T) {
	m := NewManual(time.Unix(0, 0))
	var got []int
	m.AfterFunc(2*time.Second, func() { got = append(got, 2) })
	m.AfterFunc(time.Second, func() { got = append(got, 1) })
	stopped := m.AfterFunc(time.Second, func() { got = append(got, 99) })
	if !stopped.Stop() {
		t.Fatalf("expected stop to succeed")
	}

	m.Advance(500 * time.Millisecond)
	if len(got) != 0 {
		t.Fatalf("nothing should fire yet, got %v", got)
	}
	m.Advance(2 * time.Second)
	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Fatalf("unexpected firing order %v", got)
	}
	if stopped.Stop() {
		t.Fatalf("second stop must report false")
	}
	if m.Pending() != 0 {
		t.Fatalf("expected no pending timers")
	}
}

func TestRealStop(t *testing.T) {
	fired := make(chan struct{}, 1)
	tm := Real{}.AfterFunc(time.Hour, func() { fired <- struct{}{} })
	if !tm.Stop() {
		t.Fatalf("expected to stop a pending timer")
	}
	select {
	case <-fired:
		t.Fatalf("stopped timer fired")
	default:
	}
}
