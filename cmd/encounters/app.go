package main

import (
	"os"
	"path/filepath"

	"github.com/ericogr/encounters/internal/config"
	"github.com/ericogr/encounters/internal/constants"
	"github.com/ericogr/encounters/internal/logging"
	"github.com/ericogr/encounters/internal/storage"
)

func loadConfigOrExit() *config.LoadedConfig {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal("Missing or invalid encounters configuration", err, logging.Fields{
			"config_path": os.Getenv(constants.EnvConfigPath),
			"hint":        "every section of encounters_config.json is optional; check value ranges (rates within [0,1], heist sizes within 2..4)",
		})
	}
	return cfg
}

func createRepositoryOrExit(dbPath string, opts storage.Options) storage.Repository {
	if dir := filepath.Dir(dbPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			logging.Fatal("Failed to create database directory", err, logging.Fields{"dir": dir})
		}
	}
	db, err := storage.OpenAndMigrate(dbPath)
	if err != nil {
		logging.Fatal("Failed to initialize database", err, nil)
	}
	return storage.NewSQLiteRepository(db, opts)
}
