package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/ericogr/encounters/internal/api"
	"github.com/ericogr/encounters/internal/constants"
	"github.com/ericogr/encounters/internal/logging"
	"github.com/ericogr/encounters/internal/service"
	"github.com/ericogr/encounters/internal/storage"
	"github.com/ericogr/encounters/internal/version"
	"github.com/joho/godotenv"
)

func main() {
	// A .env file is optional; real environment variables win.
	_ = godotenv.Load()

	cfg := loadConfigOrExit()
	logging.Init(cfg.LogLevel)
	defer logging.Sync()

	repo := createRepositoryOrExit(cfg.DBPath, cfg.Storage)
	hub := api.NewHub(0)
	svc := service.New(cfg.Encounters, service.Deps{
		Economy:     repo,
		Punishments: repo,
		Progression: repo,
		Events:      service.MultiSink{hub, storage.NewRecorder(repo)},
	})

	secret, err := api.SessionSecret(cfg.JWTSecret)
	if err != nil {
		logging.Fatal("Failed to prepare session secret", err, nil)
	}
	router := api.NewRouter(api.NewEncounterHandler(svc, repo), hub, secret)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	build := version.Current()
	logging.Info("Server started", logging.Fields{
		constants.LogFieldAddr: cfg.ServerAddress,
		"version":              build.Version,
		"commit":               build.Commit,
	})
	if err := serve(ctx, cfg.ServerAddress, router); err != nil {
		logging.Error("Server stopped with error", err, nil)
	}

	// Live sessions are aborted and their stakes refunded before exit.
	svc.Close()
	hub.Close()
	logging.Info("Server stopped", nil)
}
