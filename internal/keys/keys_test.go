package keys

import (
	"strings"
	"testing"
)

func TestPairKeyIsOrderIndependent(t *testing.T) {
	a := PairKey("bob", "alice")
	b := PairKey("alice", " bob ")
	if a != b {
		t.Fatalf("expected same key, got %q and %q", a, b)
	}
	if a != "duel:alice:bob" {
		t.Fatalf("unexpected key %q", a)
	}
}

func TestHeistTokenUnique(t *testing.T) {
	a, b := HeistToken(), HeistToken()
	if a == b {
		t.Fatalf("expected distinct tokens")
	}
	if !strings.HasPrefix(a, "heist:") {
		t.Fatalf("unexpected token %q", a)
	}
}
