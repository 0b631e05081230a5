package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/piresc/tripdispatch/internal/pkg/models"
)

func InitConfig(configPath string) *models.Config {
	local := GetEnv("APP_ENV", "local")
	if local == "local" {
		// Load config from file
		err := godotenv.Load(configPath)
		if err != nil {
			log.Println("error loading config from file", err)
		}
	}
	// Create config from environment variables
	return loadConfigFromEnv()
}

func loadConfigFromEnv() *models.Config {
	configs := &models.Config{}

	// App config
	configs.App.Name = GetEnv("APP_NAME", "dispatch-service")
	configs.App.Environment = GetEnv("APP_ENV", "")
	configs.App.Debug = GetEnvAsBool("APP_DEBUG", true)
	configs.App.Version = GetEnv("APP_VERSION", "")
	configs.App.StoreBackend = GetEnv("STORE_BACKEND", "postgres")

	// Server config
	configs.Server.Host = GetEnv("SERVER_HOST", "")
	configs.Server.Port = GetEnvAsInt("SERVER_PORT", 9994)
	configs.Server.ReadTimeout = GetEnvAsInt("SERVER_READ_TIMEOUT", 0)
	configs.Server.WriteTimeout = GetEnvAsInt("SERVER_WRITE_TIMEOUT", 0)
	configs.Server.ShutdownTimeout = GetEnvAsInt("SERVER_SHUTDOWN_TIMEOUT", 30)

	// Database config
	configs.Database.Driver = GetEnv("DB_DRIVER", "pgx")
	configs.Database.Host = GetEnv("DB_HOST", "")
	configs.Database.Port = GetEnvAsInt("DB_PORT", 5432)
	configs.Database.Username = GetEnv("DB_USERNAME", "")
	configs.Database.Password = GetEnv("DB_PASSWORD", "")
	configs.Database.Database = GetEnv("DB_DATABASE", "")
	configs.Database.SSLMode = GetEnv("DB_SSL_MODE", "disable")
	configs.Database.MaxConns = GetEnvAsInt("DB_MAX_CONNS", 0)
	configs.Database.IdleConns = GetEnvAsInt("DB_IDLE_CONNS", 0)

	// Redis config
	configs.Redis.Host = GetEnv("REDIS_HOST", "")
	configs.Redis.Port = GetEnvAsInt("REDIS_PORT", 6379)
	configs.Redis.Password = GetEnv("REDIS_PASSWORD", "")
	configs.Redis.DB = GetEnvAsInt("REDIS_DB", 0)
	configs.Redis.PoolSize = GetEnvAsInt("REDIS_POOL_SIZE", 0)

	// NATS config
	configs.NATS.URL = GetEnv("NATS_URL", "")

	// Kafka config
	configs.Kafka.Enabled = GetEnvAsBool("KAFKA_ENABLED", false)
	configs.Kafka.Brokers = GetEnvAsSlice("KAFKA_BROKERS", []string{"localhost:9092"})
	configs.Kafka.TimelineTopic = GetEnv("KAFKA_TIMELINE_TOPIC", "trip-timeline")
	configs.Kafka.WriteTimeout = GetEnvAsDuration("KAFKA_WRITE_TIMEOUT", 2*time.Second)

	// JWT config
	configs.JWT.Secret = GetEnv("JWT_SECRET", "")
	configs.JWT.Expiration = GetEnvAsInt("JWT_EXPIRATION", 0)
	configs.JWT.Issuer = GetEnv("JWT_ISSUER", "")

	// NewRelic config
	configs.NewRelic.LicenseKey = GetEnv("NEW_RELIC_LICENSE_KEY", "")
	configs.NewRelic.AppName = GetEnv("NEW_RELIC_APP_NAME", "")
	configs.NewRelic.Enabled = GetEnvAsBool("NEW_RELIC_ENABLED", false)
	configs.NewRelic.LogsEnabled = GetEnvAsBool("NEW_RELIC_LOGS_ENABLED", false)
	configs.NewRelic.LogsEndpoint = GetEnv("NEW_RELIC_LOGS_ENDPOINT", "")
	configs.NewRelic.LogsAPIKey = GetEnv("NEW_RELIC_LOGS_API_KEY", "")
	configs.NewRelic.ForwardLogs = GetEnvAsBool("NEW_RELIC_FORWARD_LOGS", false)

	// Logger config
	configs.Logger.Level = GetEnv("LOG_LEVEL", "info")
	configs.Logger.FilePath = GetEnv("LOG_FILE_PATH", "")
	configs.Logger.MaxSize = GetEnvAsInt64("LOG_MAX_SIZE", 100)
	configs.Logger.MaxAge = GetEnvAsInt("LOG_MAX_AGE", 7)
	configs.Logger.MaxBackups = GetEnvAsInt("LOG_MAX_BACKUPS", 3)
	configs.Logger.Compress = GetEnvAsBool("LOG_COMPRESS", true)
	configs.Logger.Type = GetEnv("LOG_TYPE", "console")

	// Dispatch config
	configs.Dispatch.StartRadiusMeters = GetEnvAsFloat("DISPATCH_START_RADIUS_METERS", 5000)
	configs.Dispatch.RadiusIncrementMeters = GetEnvAsFloat("DISPATCH_RADIUS_INCREMENT_METERS", 2500)
	configs.Dispatch.MaxRadiusMeters = GetEnvAsFloat("DISPATCH_MAX_RADIUS_METERS", 15000)
	configs.Dispatch.MaxAttempts = GetEnvAsInt("DISPATCH_MAX_ATTEMPTS", 4)
	configs.Dispatch.MaxCandidates = GetEnvAsInt("DISPATCH_MAX_CANDIDATES", 10)
	configs.Dispatch.OfferTimeout = GetEnvAsDuration("DISPATCH_OFFER_TIMEOUT", 30*time.Second)
	configs.Dispatch.MinDriverRating = GetEnvAsFloat("DISPATCH_MIN_RATING", 0)
	configs.Dispatch.AverageSpeedKmh = GetEnvAsFloat("DISPATCH_AVERAGE_SPEED_KMH", 30)
	configs.Dispatch.StoreTimeout = GetEnvAsDuration("DISPATCH_STORE_TIMEOUT", 3*time.Second)

	// Fallback config
	configs.Fallback.Interval = GetEnvAsDuration("FALLBACK_INTERVAL", 5*time.Second)
	configs.Fallback.MaxRetries = GetEnvAsInt("FALLBACK_MAX_RETRIES", 3)
	configs.Fallback.MaxEntriesPerTrip = GetEnvAsInt("FALLBACK_MAX_ENTRIES_PER_TRIP", 10)

	// Rate limit config
	configs.RateLimit.MaxRequests = GetEnvAsInt("RATE_LIMIT_MAX_REQUESTS", 10)
	configs.RateLimit.Interval = GetEnvAsDuration("RATE_LIMIT_INTERVAL", 10*time.Second)
	configs.RateLimit.HTTPMaxRequests = GetEnvAsInt("RATE_LIMIT_HTTP_MAX_REQUESTS", 120)
	configs.RateLimit.HTTPInterval = GetEnvAsDuration("RATE_LIMIT_HTTP_INTERVAL", time.Minute)

	// Driver presence config
	configs.Drivers.StaleAfter = GetEnvAsDuration("DRIVER_STALE_AFTER", 2*time.Minute)
	configs.Drivers.SweepInterval = GetEnvAsDuration("DRIVER_SWEEP_INTERVAL", 30*time.Second)

	// Maps config
	configs.Maps.APIKey = GetEnv("MAPS_API_KEY", "")
	configs.Maps.Timeout = GetEnvAsDuration("MAPS_TIMEOUT", 2*time.Second)

	return configs
}

// Helper functions to get environment variables with different types
func GetEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func GetEnvAsInt(key string, defaultValue int) int {
	valueStr := GetEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid integer value for %s, using default: %d", key, defaultValue)
		return defaultValue
	}

	return value
}

func GetEnvAsInt64(key string, defaultValue int64) int64 {
	valueStr := GetEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseInt(valueStr, 10, 64)
	if err != nil {
		log.Printf("Warning: Invalid int64 value for %s, using default: %d", key, defaultValue)
		return defaultValue
	}

	return value
}

func GetEnvAsBool(key string, defaultValue bool) bool {
	valueStr := GetEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid boolean value for %s, using default: %v", key, defaultValue)
		return defaultValue
	}

	return value
}

func GetEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := GetEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		log.Printf("Warning: Invalid float value for %s, using default: %v", key, defaultValue)
		return defaultValue
	}

	return value
}

// GetEnvAsDuration parses values such as "30s" or "5m"
func GetEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := GetEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid duration value for %s, using default: %v", key, defaultValue)
		return defaultValue
	}

	return value
}

// GetEnvAsSlice splits a comma separated value
func GetEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := GetEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	parts := strings.Split(valueStr, ",")
	values := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			values = append(values, p)
		}
	}
	if len(values) == 0 {
		return defaultValue
	}
	return values
}
