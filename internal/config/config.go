package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
	"hearsay/internal/admission"
	"hearsay/internal/ratelimit"
)

const (
	DispatchHTTP  = "http"
	DispatchQueue = "queue"
)

type Config struct {
	Port        string
	DatabaseURL string
	AutoMigrate bool

	// RedisAddr backs both the submission quota and the task queue. Without
	// it the quota falls back to process memory and queue mode is refused.
	RedisAddr string

	WorkerURL    string
	WorkerAPIKey string
	WorkerToken  string
	DispatchMode string

	MaxFileSize int64
	QuotaLimit  int
	QuotaWindow time.Duration

	APIRate  rate.Limit
	APIBurst int

	StaleAfter          time.Duration
	MaxDispatchAttempts int
	SweepInterval       time.Duration
}

// Load loads the API server's configuration from environment variables.
func Load() (*Config, error) {
	cfg, err := parse()
	if err != nil {
		return nil, err
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	switch cfg.DispatchMode {
	case DispatchHTTP:
		if cfg.WorkerURL == "" {
			return nil, fmt.Errorf("WORKER_URL is required when DISPATCH_MODE=%s", DispatchHTTP)
		}
	case DispatchQueue:
		if cfg.RedisAddr == "" {
			return nil, fmt.Errorf("REDIS_ADDR is required when DISPATCH_MODE=%s", DispatchQueue)
		}
	default:
		return nil, fmt.Errorf("DISPATCH_MODE must be %q or %q, got %q", DispatchHTTP, DispatchQueue, cfg.DispatchMode)
	}
	if cfg.QuotaLimit <= 0 || cfg.QuotaWindow <= 0 {
		return nil, fmt.Errorf("QUOTA_LIMIT and QUOTA_WINDOW must be positive")
	}

	return cfg, nil
}

// LoadWorker loads the task worker's configuration. The worker reads records
// and relays dispatches over HTTP, so it needs the database and the worker URL.
func LoadWorker() (*Config, error) {
	cfg, err := parse()
	if err != nil {
		return nil, err
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.WorkerURL == "" {
		return nil, fmt.Errorf("WORKER_URL is required to relay dispatch tasks")
	}
	if cfg.StaleAfter <= 0 || cfg.MaxDispatchAttempts <= 0 {
		return nil, fmt.Errorf("STALE_AFTER and MAX_DISPATCH_ATTEMPTS must be positive")
	}
	return cfg, nil
}

// LoadScheduler loads the scheduler's configuration. It only talks to Redis.
func LoadScheduler() (*Config, error) {
	cfg, err := parse()
	if err != nil {
		return nil, err
	}
	if cfg.SweepInterval <= 0 {
		return nil, fmt.Errorf("SWEEP_INTERVAL must be positive")
	}
	return cfg, nil
}

func parse() (*Config, error) {
	cfg := &Config{
		Port:         getEnv("PORT", "8080"),
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		RedisAddr:    os.Getenv("REDIS_ADDR"),
		WorkerURL:    os.Getenv("WORKER_URL"),
		WorkerAPIKey: os.Getenv("WORKER_API_KEY"),
		WorkerToken:  os.Getenv("WORKER_TOKEN"),
		DispatchMode: strings.ToLower(getEnv("DISPATCH_MODE", DispatchHTTP)),
	}

	var err error
	if cfg.AutoMigrate, err = getBool("AUTO_MIGRATE", false); err != nil {
		return nil, err
	}
	if cfg.MaxFileSize, err = getInt64("MAX_FILE_SIZE", admission.DefaultMaxFileSize); err != nil {
		return nil, err
	}
	if cfg.QuotaLimit, err = getInt("QUOTA_LIMIT", ratelimit.DefaultLimit); err != nil {
		return nil, err
	}
	if cfg.QuotaWindow, err = getDuration("QUOTA_WINDOW", ratelimit.DefaultWindow); err != nil {
		return nil, err
	}
	apiRate, err := getFloat("API_RATE", 1)
	if err != nil {
		return nil, err
	}
	cfg.APIRate = rate.Limit(apiRate)
	if cfg.APIBurst, err = getInt("API_BURST", 10); err != nil {
		return nil, err
	}
	if cfg.StaleAfter, err = getDuration("STALE_AFTER", 30*time.Minute); err != nil {
		return nil, err
	}
	if cfg.MaxDispatchAttempts, err = getInt("MAX_DISPATCH_ATTEMPTS", 3); err != nil {
		return nil, err
	}
	if cfg.SweepInterval, err = getDuration("SWEEP_INTERVAL", 15*time.Minute); err != nil {
		return nil, err
	}
	return cfg, nil
}

// RedisAddrOrDefault is what the queue processes connect to.
func (c *Config) RedisAddrOrDefault() string {
	if c.RedisAddr == "" {
		return "127.0.0.1:6379"
	}
	return c.RedisAddr
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getInt64(key string, fallback int64) (int64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return f, nil
}

func getBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
