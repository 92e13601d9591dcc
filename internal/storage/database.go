package storage

import (
	"github.com/ericogr/encounters/internal/game"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// OpenAndMigrate opens the SQLite database at dataSourceName and keeps the
// schema current via AutoMigrate.
func OpenAndMigrate(dataSourceName string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dataSourceName), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	// SQLite allows a single writer; one connection avoids "database is
	// locked" errors under concurrent sessions.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(&game.Account{}, &game.InventoryItem{}, &game.Punishment{}, &game.WantedMark{}, &game.EncounterRecord{})
	if err != nil {
		return nil, err
	}
	return db, nil
}
