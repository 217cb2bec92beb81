package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jwebster45206/orchard-engine/internal/config"
	"github.com/jwebster45206/orchard-engine/internal/handlers"
	"github.com/jwebster45206/orchard-engine/internal/logger"
	"github.com/jwebster45206/orchard-engine/internal/services/events"
	"github.com/jwebster45206/orchard-engine/internal/services/queue"
	"github.com/jwebster45206/orchard-engine/internal/storage"
	"github.com/jwebster45206/orchard-engine/internal/worker"
	"github.com/jwebster45206/orchard-engine/pkg/catalog"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	log := logger.Setup(cfg)

	log.Info("Starting Orchard Engine API",
		"port", cfg.Port,
		"environment", cfg.Environment,
		"storage_backend", cfg.StorageBackend,
		"save_format", cfg.SaveFormat)

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
	for _, warning := range cat.Warnings() {
		log.Warn("Catalog warning", "warning", warning)
	}

	storageCtx, storageCancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer storageCancel()

	store, err := storage.Open(storageCtx, cfg, log)
	if err != nil {
		log.Error("Failed to open storage", "error", err)
		os.Exit(1)
	}
	if rs, ok := store.(*storage.RedisStorage); ok {
		err = rs.WaitForConnection(storageCtx)
	} else {
		err = store.Ping(storageCtx)
	}
	if err != nil {
		log.Error("Failed to connect to storage", "error", err)
		os.Exit(1)
	}
	log.Info("Storage connection established successfully")

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
	broadcaster := events.NewBroadcaster(queueClient.GetRedisClient(), log)
	processor := worker.NewProcessor(store, cat, cfg.TickStep, log)
	games := handlers.NewGamesHandler(processor, store, actionQueue, broadcaster, log)

	router := handlers.NewRouter(handlers.RouterConfig{
		Health: handlers.NewHealthHandler(map[string]handlers.Pinger{
			"storage": store,
			"queue":   queueClient,
		}, log),
		Catalog: handlers.NewCatalogHandler(cat, log),
		Games:   games,
		Events:  handlers.NewEventsHandler(queueClient.GetRedisClient(), log),
		Socket:  handlers.NewSocketHandler(queueClient.GetRedisClient(), games, log),
		Logger:  log,
	})

	server := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		// No WriteTimeout: event streams stay open.
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Server is shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}

	if err := store.Close(); err != nil {
		log.Error("Error closing storage connection", "error", err)
	}

	log.Info("Server exited")
}
