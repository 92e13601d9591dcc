package game

import (
	"time"

	"gorm.io/gorm"
)

// Account stores a player's currency and progression. Rows are created on
// first touch by the storage layer.
type Account struct {
	gorm.Model
	PlayerID string `json:"player_id" gorm:"uniqueIndex;size:64"`
	Balance  int64  `json:"balance"`
	XP       int64  `json:"xp"`
	Level    int    `json:"level"`
}

func (Account) TableName() string { return "accounts" }

// InventoryItem is a non-currency stack owned by a player.
type InventoryItem struct {
	gorm.Model
	PlayerID string `json:"player_id" gorm:"uniqueIndex:idx_inventory_owner_item;size:64"`
	ItemID   string `json:"item_id" gorm:"uniqueIndex:idx_inventory_owner_item;size:64"`
	Quantity int64  `json:"quantity"`
}

func (InventoryItem) TableName() string { return "inventory_items" }

// Punishment is a temporary jailed status. While unexpired it blocks the
// player from starting or joining encounters.
type Punishment struct {
	gorm.Model
	PlayerID  string    `json:"player_id" gorm:"index;size:64"`
	Reason    string    `json:"reason"`
	Amount    int64     `json:"amount"`
	ExpiresAt time.Time `json:"expires_at" gorm:"index"`
}

func (Punishment) TableName() string { return "punishments" }

// WantedMark flags a player who escaped with loot; Bounty is what a
// follow-up bounty hunt pays out.
type WantedMark struct {
	gorm.Model
	PlayerID  string    `json:"player_id" gorm:"index;size:64"`
	Bounty    int64     `json:"bounty"`
	ExpiresAt time.Time `json:"expires_at" gorm:"index"`
}

func (WantedMark) TableName() string { return "wanted_marks" }

// EncounterRecord is the persisted history line for an ended session. Live
// sessions are never stored; only how they ended.
type EncounterRecord struct {
	gorm.Model
	SessionKey   string    `json:"session_key" gorm:"index;size:96"`
	Kind         string    `json:"kind"`
	FinalState   string    `json:"final_state"`
	Winner       string    `json:"winner"`
	Participants string    `json:"participants"`
	Loot         int64     `json:"loot"`
	Failures     int       `json:"failures"`
	EndedAt      time.Time `json:"ended_at" gorm:"index"`
}

func (EncounterRecord) TableName() string { return "encounter_records" }
