package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmitrijs2005/sitecheck/internal/blob"
	"github.com/dmitrijs2005/sitecheck/internal/cloud"
	"github.com/dmitrijs2005/sitecheck/internal/config"
	"github.com/dmitrijs2005/sitecheck/internal/events"
	"github.com/dmitrijs2005/sitecheck/internal/logging"
	"github.com/dmitrijs2005/sitecheck/internal/services"
	"github.com/dmitrijs2005/sitecheck/internal/store"
)

func main() {
	cfg := config.LoadConfig()
	logger := logging.Setup(cfg.LogLevel)
	ctx := context.Background()

	db, err := store.Open(cfg.LocalDBPath)
	if err != nil {
		log.Fatalf("failed to open local store: %v", err)
	}
	defer db.Close()

	blobs, err := blob.NewFileStore(cfg.BlobDir)
	if err != nil {
		log.Fatalf("failed to open blob store: %v", err)
	}

	var replica cloud.Replica
	if cfg.RemoteDSN != "" {
		pg, err := cloud.NewPostgresReplica(cfg.RemoteDSN, cfg.S3)
		if err != nil {
			log.Fatalf("failed to configure replica: %v", err)
		}
		defer pg.Close()
		if err := pg.RunMigrations(ctx); err != nil {
			logger.Warn(ctx, "replica migrations skipped", "error", err)
		}
		replica = pg
	} else {
		logger.Info(ctx, "no remote configured, running offline-only")
	}

	bus := events.NewBus()
	syncer := services.NewSyncService(replica, store.NewSiteStore(db), store.NewInspectionStore(db), blobs, bus, logger)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.SyncInterval)
	defer ticker.Stop()

	logger.Info(ctx, "sync agent started", "db", cfg.LocalDBPath, "interval", cfg.SyncInterval)

	for {
		select {
		case <-ticker.C:
			sweep(ctx, logger, syncer)
		case <-quit:
			logger.Info(ctx, "shutting down")
			return
		}
	}
}

func sweep(ctx context.Context, logger logging.Logger, syncer *services.SyncService) {
	if !syncer.Online(ctx) {
		logger.Debug(ctx, "offline, skipping sweep")
		return
	}

	n, err := syncer.PushPending(ctx)
	if err != nil {
		logger.Error(ctx, "push sweep failed", "error", err)
		return
	}
	if n > 0 {
		logger.Info(ctx, "pushed pending records", "count", n)
	}

	if err := syncer.PullAuthoritative(ctx); err != nil {
		logger.Error(ctx, "pull failed", "error", err)
	}
}
