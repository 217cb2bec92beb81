package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jwebster45206/orchard-engine/internal/config"
	"github.com/jwebster45206/orchard-engine/internal/logger"
	"github.com/jwebster45206/orchard-engine/internal/services/queue"
	"github.com/jwebster45206/orchard-engine/internal/storage"
	"github.com/jwebster45206/orchard-engine/internal/worker"
	"github.com/jwebster45206/orchard-engine/pkg/catalog"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	log := logger.Setup(cfg)

	log.Info("Starting Orchard Engine Worker",
		"environment", cfg.Environment,
		"redis_url", cfg.RedisURL,
		"storage_backend", cfg.StorageBackend)

	queueClient, err := queue.NewClient(cfg.RedisURL, log)
	if err != nil {
		log.Error("Failed to create queue client", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := queueClient.Close(); err != nil {
			log.Error("Error closing queue client", "error", err)
		}
	}()

	actionQueue := queue.NewActionQueue(queueClient)
	log.Info("Queue service initialized successfully")

	storageCtx, storageCancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer storageCancel()

	store, err := storage.Open(storageCtx, cfg, log)
	if err != nil {
		log.Error("Failed to open storage", "error", err)
		os.Exit(1)
	}
	if err := store.Ping(storageCtx); err != nil {
		log.Error("Failed to connect to storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	log.Info("Storage service initialized successfully")

	cat := catalog.Default()
	if cfg.CatalogPath != "" {
		cat, err = catalog.LoadFile(cfg.CatalogPath)
		if err != nil {
			log.Error("Failed to load catalog", "path", cfg.CatalogPath, "error", err)
			os.Exit(1)
		}
	}
	if err := cat.Validate(); err != nil {
		log.Error("Catalog is invalid", "path", cfg.CatalogPath, "error", err)
		os.Exit(1)
	}

	processor := worker.NewProcessor(store, cat, cfg.TickStep, log)

	// Locking and publishing get their own connection so they are never
	// stuck behind a blocking dequeue.
	opt, err := storage.RedisOptions(cfg.RedisURL)
	if err != nil {
		log.Error("Invalid Redis URL", "error", err)
		os.Exit(1)
	}
	redisClient := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			log.Error("Failed to close Redis client", "error", err)
		}
	}()

	w := worker.New(actionQueue, processor, redisClient, log, cfg.WorkerID)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := w.Start(); err != nil {
			log.Error("Worker error", "error", err)
			os.Exit(1)
		}
	}()

	log.Info("Worker started, waiting for requests...", "worker_id", w.ID())

	<-quit
	log.Info("Worker shutdown signal received")
	w.Stop()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		log.Warn("Worker did not stop in time")
	}

	log.Info("Worker exited")
}
