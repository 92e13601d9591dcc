package service

import (
	"context"

	"github.com/ericogr/encounters/internal/game"
)

// Economy reads and moves player currency and items.
type Economy interface {
	Balance(ctx context.Context, playerID string) (int64, error)
	Debit(ctx context.Context, playerID string, amount int64) error
	Credit(ctx context.Context, playerID string, amount int64) error
	GrantItem(ctx context.Context, playerID, itemID string, quantity int64) error
}

// Punishments stores the jailed and wanted statuses.
type Punishments interface {
	IsPunished(ctx context.Context, playerID string) (bool, error)
	ApplyPunishment(ctx context.Context, playerID, reason string, amount int64) error
	MarkWanted(ctx context.Context, playerID string, bounty int64) error
}

// Progression grants experience.
type Progression interface {
	GrantXP(ctx context.Context, playerID string, amount int64) (game.LevelResult, error)
}

// EventSink receives session lifecycle notifications. Calls come from the
// session goroutine and must not block for long.
type EventSink interface {
	OnSessionStarted(snap *game.Snapshot)
	OnTurnResolved(snap *game.Snapshot)
	OnSessionEnded(snap *game.Snapshot, outcome *game.Outcome)
}

// MultiSink fans every event out to each sink in order.
type MultiSink []EventSink

func (m MultiSink) OnSessionStarted(snap *game.Snapshot) {
	for _, s := range m {
		s.OnSessionStarted(snap)
	}
}

func (m MultiSink) OnTurnResolved(snap *game.Snapshot) {
	for _, s := range m {
		s.OnTurnResolved(snap)
	}
}

func (m MultiSink) OnSessionEnded(snap *game.Snapshot, outcome *game.Outcome) {
	for _, s := range m {
		s.OnSessionEnded(snap, outcome)
	}
}

type nopSink struct{}

func (nopSink) OnSessionStarted(*game.Snapshot)              {}
func (nopSink) OnTurnResolved(*game.Snapshot)                {}
func (nopSink) OnSessionEnded(*game.Snapshot, *game.Outcome) {}
