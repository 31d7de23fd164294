package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
// ⭐ SSOT: every environment variable is read here and nowhere else
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Database
	Database DatabaseConfig

	// Redis
	Redis RedisConfig

	// Risk model and fusion
	Model  ModelConfig
	Fusion FusionConfig

	// Bot activity ingestion
	Activity ActivityConfig

	// Scheduled jobs
	Scheduler SchedulerConfig

	// Logging
	LogLevel  string
	LogFormat string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// ModelConfig controls the one-time bootstrap of the statistical model
type ModelConfig struct {
	Seed           int64 // synthetic population seed
	Samples        int   // synthetic population size (>= 500)
	KMeansRestarts int
}

// FusionConfig is the canonical probability threshold pair used to fuse
// baseline risk with the model probability.
type FusionConfig struct {
	YellowThreshold float64
	RedThreshold    float64
}

// ActivityConfig limits how often a single student may submit bot answers
type ActivityConfig struct {
	RateLimit  int           // submissions per window
	RateWindow time.Duration // window length
	Lookback   time.Duration // engagement lookback window
}

// SchedulerConfig holds cron schedules (with seconds field)
type SchedulerConfig struct {
	RescoreSchedule    string
	EngagementSchedule string
	RescoreWritesPerS  int
}

// Load reads configuration from environment variables
// ⭐ SSOT: the only caller of os.Getenv()
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		// Server
		Port: getEnv("PORT", "8080"),
		Env:  getEnv("ENV", "development"),

		// Database
		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 25),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 5),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		// Redis
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		Model: ModelConfig{
			Seed:           int64(getEnvAsInt("MODEL_SEED", 42)),
			Samples:        getEnvAsInt("MODEL_SAMPLES", 2000),
			KMeansRestarts: getEnvAsInt("MODEL_KMEANS_RESTARTS", 10),
		},

		Fusion: FusionConfig{
			YellowThreshold: getEnvAsFloat("FUSION_YELLOW_THRESHOLD", 0.4),
			RedThreshold:    getEnvAsFloat("FUSION_RED_THRESHOLD", 0.7),
		},

		Activity: ActivityConfig{
			RateLimit:  getEnvAsInt("ACTIVITY_RATE_LIMIT", 30),
			RateWindow: getEnvAsDuration("ACTIVITY_RATE_WINDOW", "1m"),
			Lookback:   getEnvAsDuration("ACTIVITY_LOOKBACK", "168h"),
		},

		Scheduler: SchedulerConfig{
			RescoreSchedule:    getEnv("RESCORE_SCHEDULE", "0 0 2 * * *"),
			EngagementSchedule: getEnv("ENGAGEMENT_SCHEDULE", "0 15 * * * *"),
			RescoreWritesPerS:  getEnvAsInt("RESCORE_WRITES_PER_SEC", 50),
		},

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks configuration values that every command depends on.
// DATABASE_URL is checked by database.New so that offline commands
// (analyze, model) work without a database.
func (c *Config) validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	y, r := c.Fusion.YellowThreshold, c.Fusion.RedThreshold
	if y <= 0 || r > 1 || y >= r {
		return fmt.Errorf("fusion thresholds must satisfy 0 < yellow < red <= 1 (got %.2f/%.2f)", y, r)
	}

	if c.Model.Samples < 500 {
		return fmt.Errorf("MODEL_SAMPLES must be >= 500")
	}

	if c.Activity.RateLimit <= 0 {
		return fmt.Errorf("ACTIVITY_RATE_LIMIT must be > 0")
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{
		".env",
		"backend/.env",
	}

	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
