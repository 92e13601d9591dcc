package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ericogr/encounters/internal/dedupe"
	"github.com/ericogr/encounters/internal/game"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type sqliteRepository struct {
	db    *gorm.DB
	opts  Options
	reads *dedupe.Reads
}

func NewSQLiteRepository(db *gorm.DB, opts Options) Repository {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.XPPerLevel <= 0 {
		opts.XPPerLevel = 100
	}
	return &sqliteRepository{db: db, opts: opts, reads: dedupe.NewReads()}
}

// ensureAccount creates the player's account with the starting balance when
// it does not exist yet. The insert ignores a row created concurrently by
// another caller, so two first reads of a new player both succeed.
func (r *sqliteRepository) ensureAccount(tx *gorm.DB, playerID string) (*game.Account, error) {
	fresh := game.Account{PlayerID: playerID, Balance: r.opts.StartingBalance, Level: 1}
	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "player_id"}},
		DoNothing: true,
	}).Create(&fresh).Error
	if err != nil {
		return nil, err
	}
	var acc game.Account
	if err := tx.Where("player_id = ?", playerID).First(&acc).Error; err != nil {
		return nil, err
	}
	return &acc, nil
}

func (r *sqliteRepository) GetAccount(ctx context.Context, playerID string) (*game.Account, error) {
	v, err, _ := r.reads.Account.Do(playerID, func() (interface{}, error) {
		return r.ensureAccount(r.db.WithContext(ctx), playerID)
	})
	if err != nil {
		return nil, err
	}
	acc := *v.(*game.Account)
	return &acc, nil
}

func (r *sqliteRepository) Balance(ctx context.Context, playerID string) (int64, error) {
	v, err, _ := r.reads.Balance.Do(playerID, func() (interface{}, error) {
		acc, err := r.ensureAccount(r.db.WithContext(ctx), playerID)
		if err != nil {
			return int64(0), err
		}
		return acc.Balance, nil
	})
	if err != nil {
		return 0, err
	}
	return v.(int64), nil
}

// Debit subtracts amount only when the balance covers it; the check and the
// write are a single conditional UPDATE.
func (r *sqliteRepository) Debit(ctx context.Context, playerID string, amount int64) error {
	if amount < 0 {
		return fmt.Errorf("debit %d: negative amount", amount)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := r.ensureAccount(tx, playerID); err != nil {
			return err
		}
		res := tx.Model(&game.Account{}).
			Where("player_id = ? AND balance >= ?", playerID, amount).
			Update("balance", gorm.Expr("balance - ?", amount))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrInsufficientBalance
		}
		return nil
	})
}

func (r *sqliteRepository) Credit(ctx context.Context, playerID string, amount int64) error {
	if amount < 0 {
		return fmt.Errorf("credit %d: negative amount", amount)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := r.ensureAccount(tx, playerID); err != nil {
			return err
		}
		q := tx.Model(&game.Account{}).Where("player_id = ?", playerID)
		if r.opts.MaxBalance > 0 {
			q = q.Where("balance + ? <= ?", amount, r.opts.MaxBalance)
		}
		res := q.Update("balance", gorm.Expr("balance + ?", amount))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrInventoryFull
		}
		return nil
	})
}

// GrantItem adds quantity to the player's stack of itemID, creating the
// stack on first grant.
func (r *sqliteRepository) GrantItem(ctx context.Context, playerID, itemID string, quantity int64) error {
	if quantity <= 0 {
		return nil
	}
	item := game.InventoryItem{PlayerID: playerID, ItemID: itemID, Quantity: quantity}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "player_id"}, {Name: "item_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"quantity": gorm.Expr("quantity + ?", quantity), "updated_at": r.opts.Now()}),
	}).Create(&item).Error
}

func (r *sqliteRepository) GetInventory(ctx context.Context, playerID string) ([]game.InventoryItem, error) {
	var items []game.InventoryItem
	if err := r.db.WithContext(ctx).Where("player_id = ?", playerID).Order("item_id").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// GrantXP adds experience and recomputes the level as 1 + xp/XPPerLevel.
func (r *sqliteRepository) GrantXP(ctx context.Context, playerID string, amount int64) (game.LevelResult, error) {
	var out game.LevelResult
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		acc, err := r.ensureAccount(tx, playerID)
		if err != nil {
			return err
		}
		before := acc.Level
		acc.XP += amount
		acc.Level = 1 + int(acc.XP/r.opts.XPPerLevel)
		if err := tx.Model(acc).Updates(map[string]interface{}{"xp": acc.XP, "level": acc.Level}).Error; err != nil {
			return err
		}
		out = game.LevelResult{NewLevel: acc.Level, LeveledUp: acc.Level > before}
		return nil
	})
	return out, err
}

func (r *sqliteRepository) IsPunished(ctx context.Context, playerID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&game.Punishment{}).
		Where("player_id = ? AND expires_at > ?", playerID, r.opts.Now()).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *sqliteRepository) ApplyPunishment(ctx context.Context, playerID, reason string, amount int64) error {
	p := game.Punishment{
		PlayerID:  playerID,
		Reason:    reason,
		Amount:    amount,
		ExpiresAt: r.opts.Now().Add(r.opts.PunishmentDuration),
	}
	return r.db.WithContext(ctx).Create(&p).Error
}

func (r *sqliteRepository) MarkWanted(ctx context.Context, playerID string, bounty int64) error {
	w := game.WantedMark{
		PlayerID:  playerID,
		Bounty:    bounty,
		ExpiresAt: r.opts.Now().Add(r.opts.WantedDuration),
	}
	return r.db.WithContext(ctx).Create(&w).Error
}

func (r *sqliteRepository) ActiveWanted(ctx context.Context, playerID string) ([]game.WantedMark, error) {
	var marks []game.WantedMark
	err := r.db.WithContext(ctx).
		Where("player_id = ? AND expires_at > ?", playerID, r.opts.Now()).
		Order("expires_at DESC").
		Find(&marks).Error
	if err != nil {
		return nil, err
	}
	return marks, nil
}

func (r *sqliteRepository) SaveEncounter(ctx context.Context, rec *game.EncounterRecord) error {
	if rec == nil {
		return errors.New("nil encounter record")
	}
	return r.db.WithContext(ctx).Create(rec).Error
}

// RecentEncounters returns the last N ended sessions, newest first.
func (r *sqliteRepository) RecentEncounters(ctx context.Context, limit int) ([]game.EncounterRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	var recs []game.EncounterRecord
	if err := r.db.WithContext(ctx).
		Order("ended_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&recs).Error; err != nil {
		return nil, err
	}
	return recs, nil
}
