package main

import (
	"context"
	"log"

	"github.com/pluma/prontuario/internal/audit"
	"github.com/pluma/prontuario/internal/bootstrap"
	"github.com/pluma/prontuario/internal/config"
	"github.com/pluma/prontuario/internal/logger"
	"github.com/pluma/prontuario/internal/server"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Setup structured logging
	appLogger := logger.SetupLogger(cfg)

	appLogger.Info("Starting prontuario server",
		"env", cfg.Env,
		"port", cfg.Port,
		"database", cfg.DatabaseDriver,
		"storage", cfg.StorageBackend,
	)

	ctx := context.Background()

	store, err := bootstrap.OpenRecords(ctx, cfg)
	if err != nil {
		appLogger.Error("Failed to open record store", "error", err)
		log.Fatalf("Fatal: %v", err)
	}
	defer store.Close()

	objects, err := bootstrap.OpenObjects(cfg, appLogger)
	if err != nil {
		appLogger.Error("Failed to open object storage", "error", err)
		log.Fatalf("Fatal: %v", err)
	}

	signer, err := bootstrap.NewSigner(cfg)
	if err != nil {
		log.Fatalf("Fatal: %v", err)
	}

	auth, err := bootstrap.NewAuthenticator(cfg)
	if err != nil {
		log.Fatalf("Fatal: %v", err)
	}

	srv := server.New(cfg, appLogger, server.Deps{
		Auth:      auth,
		Sessions:  signer,
		Records:   store,
		Objects:   objects.Store,
		Processor: bootstrap.NewProcessor(cfg, appLogger),
		Media:     objects.Media,
		Audit:     audit.New(appLogger),
	})

	if err := server.Run(srv); err != nil {
		appLogger.Error("Failed to start server", "error", err)
		log.Fatalf("Fatal: %v", err)
	}
}
