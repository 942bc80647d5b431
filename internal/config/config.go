package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/fortuna/diana/internal/ingest/sportradar"
)

// Config holds all environment driven settings for the service.
type Config struct {
	APIKey          string
	APIBase         string
	DataRoot        string
	RequestInterval time.Duration
	CallBudget      int

	CurrentSeason         int
	DailyCollectionHour   int
	EnableDailyCollection bool

	RESTPort string
	RedisURL string
}

// Load reads .env when present, then the environment, falling back to
// defaults. An empty RedisURL disables event publishing.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	return Config{
		APIKey:          os.Getenv("SPORTRADAR_API_KEY"),
		APIBase:         getEnv("SPORTRADAR_API_BASE", sportradar.DefaultBaseURL),
		DataRoot:        getEnv("DATA_ROOT", "wnba_betting_data"),
		RequestInterval: getEnvDuration("REQUEST_INTERVAL", sportradar.DefaultRequestInterval),
		CallBudget:      getEnvInt("API_CALL_BUDGET", 0),

		CurrentSeason:         getEnvInt("CURRENT_SEASON", time.Now().Year()),
		DailyCollectionHour:   getEnvInt("DAILY_COLLECTION_HOUR", 6),
		EnableDailyCollection: getEnvBool("ENABLE_DAILY_COLLECTION", true),

		RESTPort: getEnv("REST_PORT", "8080"),
		RedisURL: os.Getenv("REDIS_URL"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("⚠️ Invalid %s=%q, using %d", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	parsed, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("⚠️ Invalid %s=%q, using %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1"
}
