package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
// Environment variables are read here and nowhere else.
type Config struct {
	Env string // development, staging, production

	// Database
	Database DatabaseConfig

	// Redis
	Redis RedisConfig

	// Upstream data sources
	TWSE TWSEConfig
	MOPS MOPSConfig

	// Pipeline
	Pipeline PipelineConfig

	// Scoring
	Scoring ScoringConfig

	// Retention
	Retention RetentionConfig

	// Logging
	LogLevel  string
	LogFormat string
}

// DatabaseConfig holds PostgreSQL configuration.
type DatabaseConfig struct {
	URL string

	// Connection pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// TWSEConfig holds Taiwan Stock Exchange open API configuration.
type TWSEConfig struct {
	BaseURL        string
	RatePerMinute  int // request ceiling the exchange tolerates
	RequestTimeout time.Duration
}

// MOPSConfig holds Market Observation Post System (financial filings)
// configuration.
type MOPSConfig struct {
	BaseURL        string
	RatePerMinute  int
	RequestTimeout time.Duration
}

// PipelineConfig holds daily batch configuration.
type PipelineConfig struct {
	Workers       int           // symbol-level worker pool size
	MaxRetries    int           // attempts per transient source failure
	RetryDelay    time.Duration // initial backoff delay, doubled per attempt
	MaxRetryDelay time.Duration
}

// ScoringConfig holds the weighting of recommendation sub-scores.
// Weights must sum to 1.0.
type ScoringConfig struct {
	TechnicalWeight   float64
	FlowWeight        float64
	FundamentalWeight float64

	// Technical sub-score crossings that flip buy/sell flags
	BuyThreshold  float64
	SellThreshold float64
}

// Validate checks that the sub-score weights sum to 1.0.
func (s ScoringConfig) Validate() error {
	sum := s.TechnicalWeight + s.FlowWeight + s.FundamentalWeight
	if sum < 0.99 || sum > 1.01 {
		return fmt.Errorf("scoring weights must sum to 1.0, got %.4f", sum)
	}
	return nil
}

// RetentionConfig holds retention horizons for derived records.
type RetentionConfig struct {
	RecommendationDays int
	RunLogDays         int
	PriceYears         int
}

// Load reads configuration from environment variables. A .env file is
// loaded first when present.
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Env: getEnv("ENV", "development"),

		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 25),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 5),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", true),
		},

		TWSE: TWSEConfig{
			BaseURL:        getEnv("TWSE_BASE_URL", "https://www.twse.com.tw"),
			RatePerMinute:  getEnvAsInt("TWSE_RATE_LIMIT", 60),
			RequestTimeout: getEnvAsDuration("TWSE_TIMEOUT", "30s"),
		},

		MOPS: MOPSConfig{
			BaseURL:        getEnv("MOPS_BASE_URL", "https://mops.twse.com.tw"),
			RatePerMinute:  getEnvAsInt("MOPS_RATE_LIMIT", 30),
			RequestTimeout: getEnvAsDuration("MOPS_TIMEOUT", "30s"),
		},

		Pipeline: PipelineConfig{
			Workers:       getEnvAsInt("PIPELINE_WORKERS", 4),
			MaxRetries:    getEnvAsInt("PIPELINE_MAX_RETRIES", 3),
			RetryDelay:    getEnvAsDuration("PIPELINE_RETRY_DELAY", "1s"),
			MaxRetryDelay: getEnvAsDuration("PIPELINE_MAX_RETRY_DELAY", "30s"),
		},

		Scoring: ScoringConfig{
			TechnicalWeight:   getEnvAsFloat("SCORE_WEIGHT_TECHNICAL", 0.40),
			FlowWeight:        getEnvAsFloat("SCORE_WEIGHT_FLOW", 0.35),
			FundamentalWeight: getEnvAsFloat("SCORE_WEIGHT_FUNDAMENTAL", 0.25),
			BuyThreshold:      getEnvAsFloat("SCORE_BUY_THRESHOLD", 70),
			SellThreshold:     getEnvAsFloat("SCORE_SELL_THRESHOLD", 30),
		},

		Retention: RetentionConfig{
			RecommendationDays: getEnvAsInt("RECOMMENDATION_RETENTION_DAYS", 90),
			RunLogDays:         getEnvAsInt("RUN_LOG_RETENTION_DAYS", 180),
			PriceYears:         getEnvAsInt("PRICE_RETENTION_YEARS", 5),
		},

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set.
func (c *Config) validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if err := c.Scoring.Validate(); err != nil {
		return err
	}

	if c.Pipeline.Workers < 1 {
		return fmt.Errorf("PIPELINE_WORKERS must be at least 1")
	}

	return nil
}

// loadEnvFile tries to load .env from multiple locations.
func loadEnvFile() {
	paths := []string{".env"}

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
