package models

import "time"

// Config represents application configuration
type Config struct {
	App       AppConfig
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	NATS      NATSConfig
	Kafka     KafkaConfig
	JWT       JWTConfig
	NewRelic  NewRelicConfig
	Logger    LoggerConfig
	Dispatch  DispatchConfig
	Fallback  FallbackConfig
	RateLimit RateLimitConfig
	Drivers   DriversConfig
	Maps      MapsConfig
}

// AppConfig contains application-specific configuration
type AppConfig struct {
	Name         string
	Environment  string
	Debug        bool
	Version      string
	StoreBackend string // "postgres" or "memory"
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     int
	WriteTimeout    int
	ShutdownTimeout int
}

// DatabaseConfig contains database connection configuration
type DatabaseConfig struct {
	Driver    string
	Host      string
	Port      int
	Username  string
	Password  string
	Database  string
	SSLMode   string
	MaxConns  int
	IdleConns int
}

// RedisConfig contains Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	PoolSize int
}

// NATSConfig contains NATS connection configuration
type NATSConfig struct {
	URL string
}

// KafkaConfig contains the trip timeline producer configuration
type KafkaConfig struct {
	Enabled       bool
	Brokers       []string
	TimelineTopic string
	WriteTimeout  time.Duration
}

// JWTConfig contains JWT authentication configuration
type JWTConfig struct {
	Secret     string
	Expiration int // in minutes
	Issuer     string
}

// NewRelicConfig contains New Relic APM configuration
type NewRelicConfig struct {
	LicenseKey   string
	AppName      string
	Enabled      bool
	LogsEnabled  bool
	LogsEndpoint string
	LogsAPIKey   string
	ForwardLogs  bool
}

// LoggerConfig contains logger configuration
type LoggerConfig struct {
	Level      string
	FilePath   string
	MaxSize    int64
	MaxAge     int
	MaxBackups int
	Compress   bool
	Type       string
}

// DispatchConfig controls candidate search and the offer protocol
type DispatchConfig struct {
	StartRadiusMeters     float64
	RadiusIncrementMeters float64
	MaxRadiusMeters       float64
	MaxAttempts           int
	MaxCandidates         int
	OfferTimeout          time.Duration
	MinDriverRating       float64
	AverageSpeedKmh       float64
	StoreTimeout          time.Duration
}

// FallbackConfig controls the position fallback queue
type FallbackConfig struct {
	Interval          time.Duration
	MaxRetries        int
	MaxEntriesPerTrip int
}

// RateLimitConfig controls position update throttling per connection and
// the coarser per-user budget applied to the HTTP API
type RateLimitConfig struct {
	MaxRequests     int
	Interval        time.Duration
	HTTPMaxRequests int
	HTTPInterval    time.Duration
}

// DriversConfig controls driver presence housekeeping
type DriversConfig struct {
	StaleAfter    time.Duration
	SweepInterval time.Duration
}

// MapsConfig enables ETA refinement through Google Maps
type MapsConfig struct {
	APIKey  string
	Timeout time.Duration
}
