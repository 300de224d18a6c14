package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port           string
	MongoURI       string
	JWTSecret      string
	JWTExpiry      string
	AllowedOrigins []string
	Redis          RedisConfig
	Sweep          SweepConfig
	Fee            FeeConfig
	Retention      RetentionConfig
	SMTP           SMTPConfig
}

// RedisConfig holds connection settings for the Redis cache.
type RedisConfig struct {
	URL          string
	Host         string
	Port         string
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	MaxRetries   int
	RetryDelay   time.Duration
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PoolTimeout  time.Duration
}

// SweepConfig drives the periodic overdue-exit monitor.
type SweepConfig struct {
	Interval  time.Duration
	Threshold time.Duration
}

// FeeConfig carries the fee calculator tunables. The minimum fee is charged
// whenever a positive stay computes to zero; precision is the number of
// fractional digits kept in amounts.
type FeeConfig struct {
	MinimumFee float64
	Precision  int
}

// RetentionConfig controls background purging of stale records.
type RetentionConfig struct {
	Interval         time.Duration
	NotificationDays int
}

// SMTPConfig holds outbound mail settings for receipts and password resets.
type SMTPConfig struct {
	Host      string
	Port      string
	Username  string
	Password  string
	FromEmail string
	FromName  string
	AppURL    string
}

func Load() *Config {
	// .env is optional; environment variables win either way.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	mongoURI := os.Getenv("MONGO_URI")
	if mongoURI == "" {
		log.Fatal("MONGO_URI environment variable is not set")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		allowedOrigins = "http://localhost:5173"
	}

	return &Config{
		Port:           port,
		MongoURI:       mongoURI,
		JWTSecret:      os.Getenv("JWT_SECRET"),
		JWTExpiry:      os.Getenv("JWT_EXPIRY"),
		AllowedOrigins: strings.Split(allowedOrigins, ","),
		Redis:          loadRedisConfig(),
		Sweep: SweepConfig{
			Interval:  envDuration("SWEEP_INTERVAL", time.Minute),
			Threshold: envDuration("OVERDUE_THRESHOLD", 30*time.Minute),
		},
		Fee: FeeConfig{
			MinimumFee: envFloat("MINIMUM_FEE", 0.50),
			Precision:  envInt("FEE_PRECISION", 2),
		},
		Retention: RetentionConfig{
			Interval:         envDuration("RETENTION_INTERVAL", time.Hour),
			NotificationDays: envInt("NOTIFICATION_RETENTION_DAYS", 30),
		},
		SMTP: SMTPConfig{
			Host:      os.Getenv("SMTP_HOST"),
			Port:      os.Getenv("SMTP_PORT"),
			Username:  os.Getenv("SMTP_USERNAME"),
			Password:  os.Getenv("SMTP_PASSWORD"),
			FromEmail: os.Getenv("SMTP_FROM_EMAIL"),
			FromName:  os.Getenv("SMTP_FROM_NAME"),
			AppURL:    os.Getenv("APP_URL"),
		},
	}
}

func loadRedisConfig() RedisConfig {
	host := os.Getenv("REDIS_HOST")
	if host == "" {
		host = "localhost"
	}
	redisPort := os.Getenv("REDIS_PORT")
	if redisPort == "" {
		redisPort = "6379"
	}

	return RedisConfig{
		URL:          os.Getenv("REDIS_URL"),
		Host:         host,
		Port:         redisPort,
		Password:     os.Getenv("REDIS_PASSWORD"),
		DB:           envInt("REDIS_DB", 0),
		PoolSize:     envInt("REDIS_POOL_SIZE", 10),
		MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2),
		MaxRetries:   envInt("REDIS_MAX_RETRIES", 3),
		RetryDelay:   envDuration("REDIS_RETRY_DELAY", 100*time.Millisecond),
		DialTimeout:  envDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		ReadTimeout:  envDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		WriteTimeout: envDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		PoolTimeout:  envDuration("REDIS_POOL_TIMEOUT", 4*time.Second),
	}
}

func envInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
		log.Printf("Invalid value for %s, using default %d", key, fallback)
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
		log.Printf("Invalid value for %s, using default %v", key, fallback)
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
		log.Printf("Invalid value for %s, using default %v", key, fallback)
	}
	return fallback
}
