package storage

import (
	"context"
	"errors"
	"time"

	"github.com/ericogr/encounters/internal/game"
)

var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrInventoryFull is returned when a credit would push a balance past
	// the configured maximum.
	ErrInventoryFull = errors.New("inventory full")
)

// Repository is the persistent side of the encounter collaborators:
// currency, items, progression, punishments and ended-session history.
type Repository interface {
	Balance(ctx context.Context, playerID string) (int64, error)
	Debit(ctx context.Context, playerID string, amount int64) error
	Credit(ctx context.Context, playerID string, amount int64) error
	GrantItem(ctx context.Context, playerID, itemID string, quantity int64) error

	GrantXP(ctx context.Context, playerID string, amount int64) (game.LevelResult, error)

	IsPunished(ctx context.Context, playerID string) (bool, error)
	ApplyPunishment(ctx context.Context, playerID, reason string, amount int64) error
	MarkWanted(ctx context.Context, playerID string, bounty int64) error
	// ActiveWanted returns the unexpired wanted marks of a player.
	ActiveWanted(ctx context.Context, playerID string) ([]game.WantedMark, error)

	// GetAccount returns the account row, creating it on first touch.
	GetAccount(ctx context.Context, playerID string) (*game.Account, error)
	GetInventory(ctx context.Context, playerID string) ([]game.InventoryItem, error)

	SaveEncounter(ctx context.Context, rec *game.EncounterRecord) error
	RecentEncounters(ctx context.Context, limit int) ([]game.EncounterRecord, error)
}

// Options tunes the economy rules enforced by the repository.
type Options struct {
	StartingBalance int64
	// MaxBalance of zero disables the cap.
	MaxBalance         int64
	XPPerLevel         int64
	PunishmentDuration time.Duration
	WantedDuration     time.Duration
	Now                func() time.Time
}

// DefaultOptions matches the shipped economy.
func DefaultOptions() Options {
	return Options{
		StartingBalance:    1000,
		MaxBalance:         1000000,
		XPPerLevel:         100,
		PunishmentDuration: 10 * time.Minute,
		WantedDuration:     30 * time.Minute,
	}
}
