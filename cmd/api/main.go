package main

import (
	"log"

	"backsync/internal/api"
	"backsync/internal/config"
	"backsync/internal/database"
	"backsync/internal/events"
	"backsync/internal/logger"
	"backsync/internal/logsink"
	"backsync/internal/store"
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

	// Initialize redis-backed stores
	redisClient, err := store.NewRedisClient(cfg.RedisURL)
	if err != nil {
		logger.Fatal("Failed to connect to redis: %v", err)
	}
	pending := store.NewRedisPendingStore(redisClient)
	referrals := store.NewRedisReferralStore(redisClient)

	// Initialize event publisher
	publisher := events.NewPublisher(cfg.KafkaBrokers, logger)
	defer publisher.Close()

	// Initialize API server
	server := api.New(cfg, logger, db, sink, pending, referrals, publisher)

	// Start server
	logger.Info("Starting API server on port " + cfg.APIPort)
	if err := server.Start(); err != nil {
		logger.Fatal("Failed to start server: %v", err)
	}
}
