package service

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/ericogr/encounters/internal/challenge"
	"github.com/ericogr/encounters/internal/constants"
	"github.com/ericogr/encounters/internal/cooldown"
	"github.com/ericogr/encounters/internal/engine"
	"github.com/ericogr/encounters/internal/game"
	"github.com/ericogr/encounters/internal/registry"
	"github.com/ericogr/encounters/internal/reward"
	"github.com/ericogr/encounters/internal/scheduler"
)

// Config carries the tuning values of both engines.
type Config struct {
	Duel engine.DuelRules
	// ChallengeWindow bounds how long a duel challenge waits for an answer;
	// TurnWindow bounds each duel turn.
	ChallengeWindow time.Duration
	TurnWindow      time.Duration
	DuelXPWinner    int64
	DuelXPLoser     int64
	MaxWager        int64

	Heist         engine.HeistRules
	FormingWindow time.Duration
	ActivePhase   time.Duration
	HeistEntryFee int64
	HeistXP       int64
	// HeistBounty is the punishment amount for a failed cooperative heist.
	HeistBounty   int64
	RobberyFee    int64
	RobberyBounty int64
	WantedBounty  int64
	// LootItemID, when set, pays loot as that inventory item instead of
	// currency.
	LootItemID string

	Cooldowns map[string]time.Duration

	// EffectTimeout bounds each collaborator call made while resolving.
	EffectTimeout time.Duration
}

// DefaultConfig matches the shipped game balance.
func DefaultConfig() Config {
	return Config{
		Duel:            engine.DefaultDuelRules(),
		ChallengeWindow: 60 * time.Second,
		TurnWindow:      60 * time.Second,
		DuelXPWinner:    50,
		DuelXPLoser:     10,
		MaxWager:        10000,
		Heist:           engine.DefaultHeistRules(),
		FormingWindow:   120 * time.Second,
		ActivePhase:     30 * time.Second,
		HeistEntryFee:   100,
		HeistXP:         20,
		HeistBounty:     250,
		RobberyFee:      50,
		RobberyBounty:   150,
		WantedBounty:    500,
		Cooldowns: map[string]time.Duration{
			constants.ActionTypeDuel:    5 * time.Minute,
			constants.ActionTypeHeist:   30 * time.Minute,
			constants.ActionTypeRobbery: 15 * time.Minute,
		},
		EffectTimeout: 5 * time.Second,
	}
}

// Deps are the collaborators and runtime hooks of the service. Nil
// Scheduler, Dice, Now and Events fall back to real implementations.
type Deps struct {
	Economy     Economy
	Punishments Punishments
	Progression Progression
	Events      EventSink
	Scheduler   scheduler.Scheduler
	Dice        reward.Dice
	Now         func() time.Time
}

// Encounters owns every live duel and heist. Each registered session is
// driven by its own goroutine; the methods here only validate input and
// forward commands.
type Encounters struct {
	cfg  Config
	deps Deps

	sessions   *registry.Registry[*actor]
	challenges *challenge.Coordinator
	cooldowns  *cooldown.Guard

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(cfg Config, deps Deps) *Encounters {
	if deps.Scheduler == nil {
		deps.Scheduler = scheduler.Real{}
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Dice == nil {
		deps.Dice = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	deps.Dice = &lockedDice{d: deps.Dice}
	if deps.Events == nil {
		deps.Events = nopSink{}
	}
	if cfg.EffectTimeout <= 0 {
		cfg.EffectTimeout = 5 * time.Second
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Encounters{
		cfg:        cfg,
		deps:       deps,
		sessions:   registry.New[*actor](),
		challenges: challenge.NewCoordinator(deps.Scheduler, deps.Now),
		cooldowns:  cooldown.NewGuard(deps.Now),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Close aborts every live session, refunding escrowed stakes, and waits for
// the session goroutines to exit.
func (e *Encounters) Close() {
	e.cancel()
	e.wg.Wait()
}

// Snapshot returns the current view of one session.
func (e *Encounters) Snapshot(key string) (*game.Snapshot, error) {
	a, ok := e.sessions.Get(key)
	if !ok {
		return nil, game.ErrNotFound
	}
	r := a.send(command{kind: cmdSnapshot})
	return r.snap, r.err
}

// ActiveSessions snapshots every registered session in key order. Sessions
// ending while the list is built are skipped.
func (e *Encounters) ActiveSessions() []*game.Snapshot {
	keys := e.sessions.Keys()
	out := make([]*game.Snapshot, 0, len(keys))
	for _, k := range keys {
		if snap, err := e.Snapshot(k); err == nil {
			out = append(out, snap)
		}
	}
	return out
}

// CooldownRemaining reports how long playerID must wait before starting
// another encounter of actionType.
func (e *Encounters) CooldownRemaining(playerID, actionType string) (time.Duration, error) {
	cd, ok := e.cfg.Cooldowns[actionType]
	if !ok {
		return 0, game.ErrInvalidAction
	}
	return e.cooldowns.Remaining(playerID, actionType, cd), nil
}

// checkCooldown rejects when actionType is still cooling down for playerID.
func (e *Encounters) checkCooldown(playerID, actionType string) error {
	left := e.cooldowns.Remaining(playerID, actionType, e.cfg.Cooldowns[actionType])
	if left > 0 {
		return fmt.Errorf("%w: retry in %s", game.ErrOnCooldown, left.Round(time.Second))
	}
	return nil
}

func (e *Encounters) consumeCooldown(playerID, actionType string) bool {
	return e.cooldowns.TryConsume(playerID, actionType, e.cfg.Cooldowns[actionType])
}

// checkJailed maps a punished player to jailedErr.
func (e *Encounters) checkJailed(ctx context.Context, playerID string, jailedErr error) error {
	jailed, err := e.deps.Punishments.IsPunished(ctx, playerID)
	if err != nil {
		return fmt.Errorf("punishment lookup for %s: %w", playerID, err)
	}
	if jailed {
		return jailedErr
	}
	return nil
}

func (e *Encounters) checkFunds(ctx context.Context, playerID string, amount int64) error {
	if amount <= 0 {
		return nil
	}
	bal, err := e.deps.Economy.Balance(ctx, playerID)
	if err != nil {
		return fmt.Errorf("balance lookup for %s: %w", playerID, err)
	}
	if bal < amount {
		return game.ErrInsufficientFunds
	}
	return nil
}

// register holds the initiator's cooldown before the key becomes visible.
// A lost insert gives the cooldown back.
func (e *Encounters) register(a *actor, initiator, actionType string) error {
	undo, ok := e.cooldowns.Reserve(initiator, actionType, e.cfg.Cooldowns[actionType])
	if !ok {
		return game.ErrOnCooldown
	}
	if err := e.sessions.Insert(a.sess.Key, a); err != nil {
		undo()
		return err
	}
	return nil
}

func (e *Encounters) lookup(key string, kind game.Kind) (*actor, error) {
	a, ok := e.sessions.Get(key)
	if !ok || a.sess.Kind != kind {
		return nil, game.ErrNotFound
	}
	return a, nil
}

// lockedDice serializes rolls from concurrent session goroutines.
type lockedDice struct {
	mu sync.Mutex
	d  reward.Dice
}

func (l *lockedDice) Intn(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.d.Intn(n)
}

func (l *lockedDice) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.d.Float64()
}
