package main

import (
	"context"
	"fmt"
	"os"

	"github.com/modelvault/modelvault/internal/config"
	"github.com/modelvault/modelvault/internal/db"
	"github.com/modelvault/modelvault/internal/inference"
	"github.com/modelvault/modelvault/internal/logger"
	"github.com/modelvault/modelvault/internal/ops"
	"github.com/modelvault/modelvault/internal/repos"
	"github.com/modelvault/modelvault/internal/services"
	"github.com/modelvault/modelvault/internal/utils"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Config
	cfgPath := utils.GetEnv("MODELVAULT_CONFIG", "", log)
	cfg, err := config.Load(cfgPath, log)
	if err != nil {
		log.Fatal("Config load failed", "error", err)
	}

	// Backing store
	store := db.New(cfg, log)
	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		log.Fatal("Backing store migration failed", "error", err)
	}

	// Repos
	log.Info("Setting up repos...")
	modelRepo := repos.NewModelRepo(store, log)
	datasetRepo := repos.NewDatasetRepo(store, log)
	predictionRepo := repos.NewPredictionRepo(store, log)
	embeddingRepo := repos.NewEmbeddingRepo(store, log)

	// Services
	log.Info("Setting up services...")
	registryService := services.NewRegistryService(modelRepo, datasetRepo, log)
	datasetService := services.NewDatasetService(datasetRepo, log)
	ledgerService := services.NewLedgerService(predictionRepo, log)
	metricsService := services.NewMetricsService(predictionRepo, cfg.Drift.Epsilon, cfg.Drift.Threshold, log)
	vectorService := services.NewVectorService(embeddingRepo, log)

	// The numerical library binds in from outside this module; without one the
	// persistence and monitoring operations still work.
	engine := inference.Unavailable("no engine bound; train/predict/embed operations are disabled")

	dispatcher := ops.NewDispatcher(
		engine,
		registryService,
		datasetService,
		ledgerService,
		metricsService,
		vectorService,
		log,
	)
	_ = dispatcher

	log.Info("modelvault ready",
		"store_timeout_seconds", cfg.StoreTimeoutSeconds,
		"drift_threshold", cfg.Drift.Threshold)
}
