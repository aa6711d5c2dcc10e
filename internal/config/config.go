package config

import (
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	// Back office API
	APIBaseURL  string
	APIKey      string
	FrontendURL string

	// Database
	DatabaseURL string

	// Redis
	RedisURL string

	// Kafka
	KafkaBrokers string

	// API Configuration
	APIPort string
	APIHost string

	// JWT
	JWTSecret string

	// Sync log
	SyncLogPath string

	// Environment
	Env      string
	LogLevel string
}

func Load() (*Config, error) {
	// Load .env file
	godotenv.Load()

	return &Config{
		APIBaseURL:   getEnv("MLM_API_BASE_URL", ""),
		APIKey:       getEnv("MLM_API_KEY", ""),
		FrontendURL:  getEnv("FRONTEND_URL", "http://localhost:3000"),
		DatabaseURL:  getEnv("DATABASE_URL", "sqlite://backsync.db"),
		RedisURL:     getEnv("REDIS_URL", "redis://localhost:6379"),
		KafkaBrokers: getEnv("KAFKA_BROKERS", "localhost:9092"),
		APIPort:      getEnv("API_PORT", "8080"),
		APIHost:      getEnv("API_HOST", "0.0.0.0"),
		JWTSecret:    getEnv("JWT_SECRET", "your-jwt-secret-key-here"),
		SyncLogPath:  getEnv("SYNC_LOG_PATH", "backsync.log"),
		Env:          getEnv("ENV", "development"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
	}, nil
}

// APIConfigured reports whether the back office endpoint is usable.
// Every sync path checks this before issuing a request.
func (c *Config) APIConfigured() bool {
	return c.APIBaseURL != "" && c.APIKey != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
