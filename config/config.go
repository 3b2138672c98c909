package config

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	// Database configuration
	DatabaseHost     string
	DatabasePort     int
	DatabaseName     string
	DatabaseUser     string
	DatabasePassword string

	// Redis configuration
	RedisHost     string
	RedisPort     string
	RedisPassword string

	// API configuration
	APIPort int

	// Market data feed configuration
	Feed FeedConfig

	// News polling configuration
	News NewsConfig

	// Engine configuration
	Engine EngineConfig
}

// FeedConfig holds market data feed connection parameters
type FeedConfig struct {
	URL                 string
	APIKey              string
	Instruments         []string
	PingIntervalSeconds int
}

// NewsConfig holds news polling parameters
type NewsConfig struct {
	Enabled             bool
	PollIntervalMinutes int
	RequestsPerMinute   int
	RetentionDays       int
	FeedsFile           string // Optional JSON file overriding the built-in feed list
}

// EngineConfig holds recommendation engine runtime parameters
type EngineConfig struct {
	Instrument             string
	RefreshIntervalMinutes int
	RefreshCooldownSeconds int

	// Scoring overrides; zero means keep the built-in default
	MinCombinedScore   float64
	ReliabilitySamples float64
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() *Config {
	// Load .env file if exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	return &Config{
		// Database configuration
		DatabaseHost:     getEnvOrDefault("DB_HOST", "localhost"),
		DatabasePort:     getEnvInt("DB_PORT", 5432),
		DatabaseName:     getEnvOrDefault("DB_NAME", "trading_dashboard"),
		DatabaseUser:     getEnvOrDefault("DB_USER", "trading"),
		DatabasePassword: getEnvOrDefault("DB_PASSWORD", "trading123"),

		// Redis configuration
		RedisHost:     getEnvOrDefault("REDIS_HOST", "localhost"),
		RedisPort:     getEnvOrDefault("REDIS_PORT", "6379"),
		RedisPassword: getEnvOrDefault("REDIS_PASSWORD", ""),

		// API configuration
		APIPort: getEnvInt("API_PORT", 8080),

		// Market data feed configuration
		Feed: FeedConfig{
			URL:                 getEnvOrDefault("FEED_WS_URL", "wss://feed.example-data.com/v1/stream"),
			APIKey:              os.Getenv("FEED_API_KEY"),
			Instruments:         getEnvList("FEED_INSTRUMENTS", []string{"MES", "MNQ"}),
			PingIntervalSeconds: getEnvInt("FEED_PING_INTERVAL", 25),
		},

		// News polling configuration
		News: NewsConfig{
			Enabled:             getEnvOrDefault("NEWS_ENABLED", "true") == "true",
			PollIntervalMinutes: getEnvInt("NEWS_POLL_INTERVAL", 15),
			RequestsPerMinute:   getEnvInt("NEWS_REQUESTS_PER_MINUTE", 30),
			RetentionDays:       getEnvInt("NEWS_RETENTION_DAYS", 14),
			FeedsFile:           os.Getenv("NEWS_FEEDS_FILE"),
		},

		// Engine configuration
		Engine: EngineConfig{
			Instrument:             getEnvOrDefault("ENGINE_INSTRUMENT", "MES"),
			RefreshIntervalMinutes: getEnvInt("ENGINE_REFRESH_INTERVAL", 5),
			RefreshCooldownSeconds: getEnvInt("ENGINE_REFRESH_COOLDOWN", 60),

			MinCombinedScore:   getEnvFloat("ENGINE_MIN_COMBINED_SCORE", 0),
			ReliabilitySamples: getEnvFloat("ENGINE_RELIABILITY_SAMPLES", 0),
		},
	}
}

// getEnvInt gets environment variable as int or returns default value
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var intValue int
	if _, err := fmt.Sscanf(value, "%d", &intValue); err != nil {
		return defaultValue
	}
	return intValue
}

// getEnvFloat gets environment variable as float64 or returns default value
func getEnvFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var floatValue float64
	if _, err := fmt.Sscanf(value, "%f", &floatValue); err != nil {
		return defaultValue
	}
	return floatValue
}

// getEnvOrDefault gets environment variable or returns default value
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvList gets a comma-separated environment variable or returns the
// default list. Blank entries are dropped.
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var out []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
