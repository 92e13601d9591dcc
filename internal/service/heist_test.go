package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ericogr/encounters/internal/constants"
	"github.com/ericogr/encounters/internal/game"
)

func formParty(t *testing.T, h *harness, variant string, members ...string) string {
	t.Helper()
	ctx := context.Background()
	snap, err := h.svc.OrganizeHeist(ctx, members[0], len(members), variant)
	if err != nil {
		t.Fatalf("organize: %v", err)
	}
	key := snap.Session.Key
	for _, m := range members[1:] {
		if snap, err = h.svc.JoinHeist(ctx, key, m); err != nil {
			t.Fatalf("join %s: %v", m, err)
		}
	}
	if snap.Session.State != game.StateActive {
		t.Fatalf("full party should be active, got %s", snap.Session.State)
	}
	return key
}

func TestCooperativeHeistSuccess(t *testing.T) {
	dice := &scriptDice{floats: []float64{0.1}, ints: []int{0}}
	h := newHarness(t, dice, func(c *Config) { c.Heist.RewardTotals = []int64{1000} })
	h.fund(1000, "org", "b", "c")
	formParty(t, h, "", "org", "b", "c")

	h.clock.Advance(30 * time.Second)
	ev := h.sink.waitEnded(t)
	if ev.outcome.State != game.StateSuccess || ev.outcome.Loot != 1000 {
		t.Fatalf("unexpected outcome: %+v", ev.outcome)
	}
	want := map[string]int64{"org": 1234, "b": 1233, "c": 1233}
	for p, bal := range want {
		if got := h.econ.get(p); got != bal {
			t.Fatalf("%s balance = %d, want %d", p, got, bal)
		}
		if h.prog.get(p) == 0 {
			t.Fatalf("%s should earn heist XP", p)
		}
	}
	if len(h.pun.punishments) != 0 {
		t.Fatalf("success must not punish anyone")
	}
}

func TestFailedCreditDoesNotBlockOtherMembers(t *testing.T) {
	dice := &scriptDice{floats: []float64{0.1}, ints: []int{0}}
	h := newHarness(t, dice, func(c *Config) { c.Heist.RewardTotals = []int64{1000} })
	h.fund(1000, "org", "b", "c")
	h.econ.mu.Lock()
	h.econ.failCredit["b"] = true
	h.econ.mu.Unlock()
	formParty(t, h, "", "org", "b", "c")

	h.clock.Advance(30 * time.Second)
	ev := h.sink.waitEnded(t)
	if ev.outcome.State != game.StateSuccess {
		t.Fatalf("a failed delivery must not change the result, got %s", ev.outcome.State)
	}
	want := map[string]int64{"org": 1234, "b": 900, "c": 1233}
	for p, bal := range want {
		if got := h.econ.get(p); got != bal {
			t.Fatalf("%s balance = %d, want %d", p, got, bal)
		}
	}
	if len(ev.outcome.Failures) != 1 {
		t.Fatalf("expected exactly one delivery failure, got %+v", ev.outcome.Failures)
	}
	f := ev.outcome.Failures[0]
	if f.PlayerID != "b" || f.Effect != game.EffectCredit || f.Amount != 333 {
		t.Fatalf("unexpected failure: %+v", f)
	}
	if h.prog.get("b") == 0 {
		t.Fatalf("XP is delivered independently of the failed credit")
	}
}

func TestCooperativeHeistFailurePunishesEveryone(t *testing.T) {
	h := newHarness(t, &scriptDice{floats: []float64{0.9}}, nil)
	h.fund(1000, "a", "b")
	formParty(t, h, "cooperative", "a", "b")

	h.clock.Advance(30 * time.Second)
	ev := h.sink.waitEnded(t)
	if ev.outcome.State != game.StateFailure || ev.outcome.Loot != 0 {
		t.Fatalf("unexpected outcome: %+v", ev.outcome)
	}
	if len(h.pun.punishments) != 2 {
		t.Fatalf("expected two punishments, got %v", h.pun.punishments)
	}
	for _, p := range h.pun.punishments {
		if p.reason != constants.ReasonHeistFailed {
			t.Fatalf("unexpected reason %q", p.reason)
		}
	}
	if h.econ.get("a") != 900 || h.econ.get("b") != 900 {
		t.Fatalf("fees are kept on failure")
	}
}

func TestRobberyOneCaptured(t *testing.T) {
	// a is caught, b escapes and draws the 600 total.
	dice := &scriptDice{floats: []float64{0.1, 0.9}, ints: []int{2}}
	h := newHarness(t, dice, nil)
	h.fund(1000, "a", "b")
	formParty(t, h, "robbery", "a", "b")

	h.clock.Advance(30 * time.Second)
	ev := h.sink.waitEnded(t)
	if ev.outcome.State != game.StatePartialFailure {
		t.Fatalf("expected partial failure, got %s", ev.outcome.State)
	}
	if len(h.pun.punishments) != 1 || h.pun.punishments[0].playerID != "a" {
		t.Fatalf("expected exactly one punishment for a, got %v", h.pun.punishments)
	}
	if h.pun.punishments[0].reason != constants.ReasonRobberyCaptured {
		t.Fatalf("unexpected reason %q", h.pun.punishments[0].reason)
	}
	if h.econ.get("b") != 1000-50+600 || h.econ.get("a") != 950 {
		t.Fatalf("escapee keeps full reward: a=%d b=%d", h.econ.get("a"), h.econ.get("b"))
	}
	if len(h.pun.wanted) != 1 || h.pun.wanted[0].playerID != "b" {
		t.Fatalf("escapee must be marked wanted, got %v", h.pun.wanted)
	}
}

func TestRobberyRequiresTwo(t *testing.T) {
	h := newHarness(t, maxDice{}, nil)
	h.fund(1000, "a")
	if _, err := h.svc.OrganizeHeist(context.Background(), "a", 3, "robbery"); !errors.Is(err, game.ErrInvalidPartySize) {
		t.Fatalf("expected invalid party size, got %v", err)
	}
	if _, err := h.svc.OrganizeHeist(context.Background(), "a", 5, ""); !errors.Is(err, game.ErrInvalidPartySize) {
		t.Fatalf("expected invalid party size, got %v", err)
	}
}

func TestHeistFeesAllOrNothing(t *testing.T) {
	h := newHarness(t, maxDice{}, nil)
	h.fund(1000, "a", "b", "c")
	formParty(t, h, "", "a", "b", "c")
	// c spends the fee elsewhere before the heist resolves.
	h.econ.set("c", 20)

	h.clock.Advance(30 * time.Second)
	ev := h.sink.waitEnded(t)
	if ev.outcome.State != game.StateAborted {
		t.Fatalf("expected aborted, got %s", ev.outcome.State)
	}
	if h.econ.get("a") != 1000 || h.econ.get("b") != 1000 || h.econ.get("c") != 20 {
		t.Fatalf("no fee may be charged when one member is short")
	}
}

func TestHeistFeeDebitFailureRefunds(t *testing.T) {
	h := newHarness(t, maxDice{}, nil)
	h.fund(1000, "a", "b", "c")
	formParty(t, h, "", "a", "b", "c")
	h.econ.mu.Lock()
	h.econ.failDebit["c"] = true
	h.econ.mu.Unlock()

	h.clock.Advance(30 * time.Second)
	ev := h.sink.waitEnded(t)
	if ev.outcome.State != game.StateAborted {
		t.Fatalf("expected aborted, got %s", ev.outcome.State)
	}
	for _, p := range []string{"a", "b", "c"} {
		if h.econ.get(p) != 1000 {
			t.Fatalf("%s should be made whole, got %d", p, h.econ.get(p))
		}
	}
	refunds := 0
	for _, g := range ev.outcome.Grants {
		if g.Effect == game.EffectRefund {
			refunds++
		}
	}
	if refunds != 2 {
		t.Fatalf("expected two refunds, got %d", refunds)
	}
}

func TestJoinRejections(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, maxDice{}, nil)
	h.fund(1000, "org", "b", "c")
	h.fund(10, "poor")
	h.pun.jailed["jailbird"] = true
	h.fund(1000, "jailbird")

	snap, err := h.svc.OrganizeHeist(ctx, "org", 2, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	key := snap.Session.Key
	cases := []struct {
		player string
		want   error
	}{
		{"org", game.ErrAlreadyMember},
		{"poor", game.ErrInsufficientFunds},
		{"jailbird", game.ErrSelfJailed},
	}
	for _, c := range cases {
		if _, err := h.svc.JoinHeist(ctx, key, c.player); !errors.Is(err, c.want) {
			t.Fatalf("%s: expected %v, got %v", c.player, c.want, err)
		}
	}
	if _, err := h.svc.JoinHeist(ctx, key, "b"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := h.svc.JoinHeist(ctx, key, "c"); !errors.Is(err, game.ErrCapacityExceeded) {
		t.Fatalf("expected capacity exceeded, got %v", err)
	}
	if _, err := h.svc.JoinHeist(ctx, "heist:missing", "c"); !errors.Is(err, game.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestJoinerCooldownConsumed(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, maxDice{}, nil)
	h.fund(1000, "a", "b", "c", "d")
	first, err := h.svc.OrganizeHeist(ctx, "a", 3, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := h.svc.OrganizeHeist(ctx, "c", 3, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := h.svc.JoinHeist(ctx, first.Session.Key, "b"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := h.svc.JoinHeist(ctx, second.Session.Key, "b"); !errors.Is(err, game.ErrOnCooldown) {
		t.Fatalf("expected on cooldown, got %v", err)
	}
}

func TestCancelHeist(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, maxDice{}, nil)
	h.fund(1000, "org", "b")
	snap, err := h.svc.OrganizeHeist(ctx, "org", 3, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	key := snap.Session.Key
	if _, err := h.svc.JoinHeist(ctx, key, "b"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := h.svc.CancelHeist(ctx, key, "b"); !errors.Is(err, game.ErrNotOrganizer) {
		t.Fatalf("expected not organizer, got %v", err)
	}
	if _, err := h.svc.CancelHeist(ctx, key, "org"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev := h.sink.waitEnded(t); ev.outcome.State != game.StateCancelled {
		t.Fatalf("expected cancelled, got %s", ev.outcome.State)
	}
	h.clock.Advance(time.Hour)
	if h.econ.get("org") != 1000 || h.econ.get("b") != 1000 {
		t.Fatalf("cancelled heist must not charge fees")
	}
}

func TestHeistFormingExpires(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, maxDice{}, nil)
	h.fund(1000, "org")
	snap, err := h.svc.OrganizeHeist(ctx, "org", 4, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	h.clock.Advance(120 * time.Second)
	if ev := h.sink.waitEnded(t); ev.outcome.State != game.StateExpired {
		t.Fatalf("expected expired, got %s", ev.outcome.State)
	}
	if _, err := h.svc.JoinHeist(ctx, snap.Session.Key, "b"); !errors.Is(err, game.ErrNotFound) {
		t.Fatalf("expired heist should be gone, got %v", err)
	}
	if h.econ.get("org") != 1000 {
		t.Fatalf("expired heist must not charge the organizer")
	}
}

func TestLootPaidAsItem(t *testing.T) {
	dice := &scriptDice{floats: []float64{0.1}, ints: []int{0}}
	h := newHarness(t, dice, func(c *Config) {
		c.LootItemID = "gold_bar"
		c.Heist.RewardTotals = []int64{5}
	})
	h.fund(1000, "a", "b")
	formParty(t, h, "", "a", "b")
	h.clock.Advance(30 * time.Second)
	h.sink.waitEnded(t)

	h.econ.mu.Lock()
	defer h.econ.mu.Unlock()
	if h.econ.items["a/gold_bar"] != 3 || h.econ.items["b/gold_bar"] != 2 {
		t.Fatalf("unexpected items: %v", h.econ.items)
	}
}

func TestCooldownRemainingUnknownType(t *testing.T) {
	h := newHarness(t, maxDice{}, nil)
	if _, err := h.svc.CooldownRemaining("a", "teleport"); !errors.Is(err, game.ErrInvalidAction) {
		t.Fatalf("expected invalid action, got %v", err)
	}
}
