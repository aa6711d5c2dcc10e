package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"backsync/internal/backoffice"
	"backsync/internal/config"
	"backsync/internal/database"
	"backsync/internal/logger"
	"backsync/internal/logsink"
	"backsync/internal/store"
	"backsync/internal/sync"
	"backsync/internal/worker"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	// Initialize logger
	logger := logger.New(cfg.LogLevel)

	// Initialize database
	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("Failed to connect to database: %v", err)
	}

	// Initialize sync log
	sink, err := logsink.New(cfg.SyncLogPath)
	if err != nil {
		logger.Fatal("Failed to open sync log: %v", err)
	}

	// Initialize pending-registration store
	redisClient, err := store.NewRedisClient(cfg.RedisURL)
	if err != nil {
		logger.Fatal("Failed to connect to redis: %v", err)
	}
	pending := store.NewRedisPendingStore(redisClient)

	// Initialize dispatcher
	client := backoffice.NewClient(cfg, logger)
	dispatcher := sync.NewDispatcher(db.DB, client, pending, sink, logger)

	// Initialize worker
	w := worker.New(cfg, logger, dispatcher)

	// Start worker
	logger.Info("Starting worker...")
	go w.Start()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down worker...")
	w.Stop()
}
