package config

import (
	"os"
	"strconv"
	"sync/atomic"
	"time"
)

// Config holds all configuration for the application.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	NewRelic  NewRelicConfig
	Auth      AuthConfig
	Estimator EstimatorConfig
	Gateway   GatewayConfig
	Dispatch  *DispatchSettings
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DatabaseConfig holds PostgreSQL configuration.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRelicConfig holds New Relic configuration.
type NewRelicConfig struct {
	AppName    string
	LicenseKey string
	Enabled    bool
}

// AuthConfig holds token verification configuration. User management lives
// in an external identity service; only the signing secret is needed here.
type AuthConfig struct {
	JWTSecret string
}

// EstimatorConfig holds the external fare estimator endpoint.
type EstimatorConfig struct {
	BaseURL string
	Timeout time.Duration
}

// GatewayConfig holds the payment processor endpoint.
type GatewayConfig struct {
	BaseURL string
	Timeout time.Duration
}

// DispatchValues are the business knobs of the lifecycle engine.
type DispatchValues struct {
	// GraceOnAcceptance is how long after acceptance a ride may still be
	// cancelled without penalty.
	GraceOnAcceptance time.Duration

	// InactiveRideThreshold is the age past which a still-REQUESTED ride is
	// dropped from the dispatch pool.
	InactiveRideThreshold time.Duration
}

// DispatchSettings exposes DispatchValues behind an atomically swappable
// snapshot so they can be reloaded without restarting the process. Readers
// always see a consistent pair.
type DispatchSettings struct {
	current atomic.Pointer[DispatchValues]
}

// NewDispatchSettings loads the initial snapshot from the environment.
func NewDispatchSettings() *DispatchSettings {
	s := &DispatchSettings{}
	s.Reload()
	return s
}

// Values returns the current settings snapshot.
func (s *DispatchSettings) Values() DispatchValues {
	return *s.current.Load()
}

// Reload re-reads the dispatch knobs from the environment and swaps the
// snapshot in. Safe to call concurrently with readers.
func (s *DispatchSettings) Reload() {
	v := DispatchValues{
		GraceOnAcceptance:     time.Duration(getIntEnv("GRACE_MINUTES_ON_ACCEPTANCE", 5)) * time.Minute,
		InactiveRideThreshold: time.Duration(getIntEnv("INACTIVE_RIDE_THRESHOLD_MINUTES", 30)) * time.Minute,
	}
	s.current.Store(&v)
}

// Load loads configuration from environment variables.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			ReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 10*time.Second),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "dispatch"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
		},
		NewRelic: NewRelicConfig{
			AppName:    getEnv("NEW_RELIC_APP_NAME", "dispatch-service"),
			LicenseKey: getEnv("NEW_RELIC_LICENSE_KEY", ""),
			Enabled:    getBoolEnv("NEW_RELIC_ENABLED", false),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
		},
		Estimator: EstimatorConfig{
			BaseURL: getEnv("ESTIMATOR_BASE_URL", "http://localhost:9090"),
			Timeout: getDurationEnv("ESTIMATOR_TIMEOUT", 5*time.Second),
		},
		Gateway: GatewayConfig{
			BaseURL: getEnv("PAYMENT_GATEWAY_BASE_URL", "http://localhost:9091"),
			Timeout: getDurationEnv("PAYMENT_GATEWAY_TIMEOUT", 10*time.Second),
		},
		Dispatch: NewDispatchSettings(),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
