package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ericogr/encounters/internal/game"
	"github.com/ericogr/encounters/internal/scheduler"
)

type fakeEconomy struct {
	mu         sync.Mutex
	balances   map[string]int64
	items      map[string]int64
	failDebit  map[string]bool
	failCredit map[string]bool
}

func newFakeEconomy() *fakeEconomy {
	return &fakeEconomy{
		balances:   make(map[string]int64),
		items:      make(map[string]int64),
		failDebit:  make(map[string]bool),
		failCredit: make(map[string]bool),
	}
}

func (f *fakeEconomy) set(playerID string, amount int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.balances[playerID] = amount
}

func (f *fakeEconomy) get(playerID string) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.balances[playerID]
}

func (f *fakeEconomy) Balance(_ context.Context, playerID string) (int64, error) {
	return f.get(playerID), nil
}

func (f *fakeEconomy) Debit(_ context.Context, playerID string, amount int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failDebit[playerID] || f.balances[playerID] < amount {
		return errors.New("insufficient balance")
	}
	f.balances[playerID] -= amount
	return nil
}

func (f *fakeEconomy) Credit(_ context.Context, playerID string, amount int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCredit[playerID] {
		return errors.New("inventory full")
	}
	f.balances[playerID] += amount
	return nil
}

func (f *fakeEconomy) GrantItem(_ context.Context, playerID, itemID string, quantity int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[playerID+"/"+itemID] += quantity
	return nil
}

type punishmentRecord struct {
	playerID string
	reason   string
	amount   int64
}

type fakePunishments struct {
	mu          sync.Mutex
	jailed      map[string]bool
	punishments []punishmentRecord
	wanted      []punishmentRecord
	// onCheck runs before every IsPunished lookup.
	onCheck func(playerID string)
}

func newFakePunishments() *fakePunishments {
	return &fakePunishments{jailed: make(map[string]bool)}
}

func (f *fakePunishments) IsPunished(_ context.Context, playerID string) (bool, error) {
	if f.onCheck != nil {
		f.onCheck(playerID)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.jailed[playerID], nil
}

func (f *fakePunishments) ApplyPunishment(_ context.Context, playerID, reason string, amount int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.punishments = append(f.punishments, punishmentRecord{playerID, reason, amount})
	f.jailed[playerID] = true
	return nil
}

func (f *fakePunishments) MarkWanted(_ context.Context, playerID string, bounty int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.wanted = append(f.wanted, punishmentRecord{playerID: playerID, amount: bounty})
	return nil
}

type fakeProgression struct {
	mu sync.Mutex
	xp map[string]int64
}

func (f *fakeProgression) GrantXP(_ context.Context, playerID string, amount int64) (game.LevelResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.xp[playerID] += amount
	return game.LevelResult{NewLevel: 1 + int(f.xp[playerID]/100)}, nil
}

func (f *fakeProgression) get(playerID string) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.xp[playerID]
}

type endedEvent struct {
	snap    *game.Snapshot
	outcome *game.Outcome
}

type recordingSink struct {
	mu      sync.Mutex
	started []*game.Snapshot
	turns   []*game.Snapshot
	order   []string
	ended   chan endedEvent
	// onStarted runs before a start event is recorded.
	onStarted func(*game.Snapshot)
}

func newRecordingSink() *recordingSink {
	return &recordingSink{ended: make(chan endedEvent, 32)}
}

func (r *recordingSink) OnSessionStarted(snap *game.Snapshot) {
	if r.onStarted != nil {
		r.onStarted(snap)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started = append(r.started, snap)
	r.order = append(r.order, "started")
}

func (r *recordingSink) OnTurnResolved(snap *game.Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.turns = append(r.turns, snap)
	r.order = append(r.order, "turn")
}

func (r *recordingSink) events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.order...)
}

func (r *recordingSink) OnSessionEnded(snap *game.Snapshot, outcome *game.Outcome) {
	r.ended <- endedEvent{snap: snap, outcome: outcome}
}

func (r *recordingSink) waitEnded(t *testing.T) endedEvent {
	t.Helper()
	select {
	case ev := <-r.ended:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for session end")
	}
	return endedEvent{}
}

// scriptDice replays queued rolls and falls back to a failing float and a
// zero index once the script runs out.
type scriptDice struct {
	mu     sync.Mutex
	floats []float64
	ints   []int
}

func (d *scriptDice) Float64() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.floats) == 0 {
		return 0.99
	}
	v := d.floats[0]
	d.floats = d.floats[1:]
	return v
}

func (d *scriptDice) Intn(n int) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.ints) == 0 {
		return 0
	}
	v := d.ints[0]
	d.ints = d.ints[1:]
	if v >= n {
		v = n - 1
	}
	return v
}

// maxDice always rolls the top of every range and succeeds every check.
type maxDice struct{}

func (maxDice) Float64() float64 { return 0 }
func (maxDice) Intn(n int) int   { return n - 1 }

type harness struct {
	svc   *Encounters
	clock *scheduler.Manual
	econ  *fakeEconomy
	pun   *fakePunishments
	prog  *fakeProgression
	sink  *recordingSink
	// nowHook, when set, runs on every clock read made by the service.
	nowHook atomic.Pointer[func()]
}

func newHarness(t *testing.T, dice interface {
	Intn(int) int
	Float64() float64
}, tune func(*Config)) *harness {
	t.Helper()
	h := &harness{
		clock: scheduler.NewManual(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)),
		econ:  newFakeEconomy(),
		pun:   newFakePunishments(),
		prog:  &fakeProgression{xp: make(map[string]int64)},
		sink:  newRecordingSink(),
	}
	cfg := DefaultConfig()
	if tune != nil {
		tune(&cfg)
	}
	h.svc = New(cfg, Deps{
		Economy:     h.econ,
		Punishments: h.pun,
		Progression: h.prog,
		Events:      h.sink,
		Scheduler:   h.clock,
		Dice:        dice,
		Now:         h.now,
	})
	t.Cleanup(h.svc.Close)
	return h
}

func (h *harness) now() time.Time {
	if hook := h.nowHook.Load(); hook != nil {
		(*hook)()
	}
	return h.clock.Now()
}

func (h *harness) fund(amount int64, players ...string) {
	for _, p := range players {
		h.econ.set(p, amount)
	}
}
