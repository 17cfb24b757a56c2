package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
	"hearsay/internal/admission"
	"hearsay/internal/ratelimit"
)

func clearEnv(t *testing.T) {
	for _, key := range []string{
		"PORT", "DATABASE_URL", "AUTO_MIGRATE", "REDIS_ADDR", "WORKER_URL", "WORKER_API_KEY",
		"WORKER_TOKEN", "DISPATCH_MODE", "MAX_FILE_SIZE", "QUOTA_LIMIT", "QUOTA_WINDOW",
		"API_RATE", "API_BURST", "STALE_AFTER", "MAX_DISPATCH_ATTEMPTS", "SWEEP_INTERVAL",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "postgres://localhost/hearsay")
	t.Setenv("WORKER_URL", "http://worker:9000/transcribe")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, DispatchHTTP, cfg.DispatchMode)
	assert.False(t, cfg.AutoMigrate)
	assert.Equal(t, int64(admission.DefaultMaxFileSize), cfg.MaxFileSize)
	assert.Equal(t, ratelimit.DefaultLimit, cfg.QuotaLimit)
	assert.Equal(t, ratelimit.DefaultWindow, cfg.QuotaWindow)
	assert.Equal(t, rate.Limit(1), cfg.APIRate)
	assert.Equal(t, 10, cfg.APIBurst)
	assert.Equal(t, 30*time.Minute, cfg.StaleAfter)
	assert.Equal(t, 3, cfg.MaxDispatchAttempts)
	assert.Equal(t, 15*time.Minute, cfg.SweepInterval)
	assert.Equal(t, "127.0.0.1:6379", cfg.RedisAddrOrDefault())
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "postgres://localhost/hearsay")
	t.Setenv("DISPATCH_MODE", "QUEUE")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("AUTO_MIGRATE", "true")
	t.Setenv("QUOTA_LIMIT", "20")
	t.Setenv("QUOTA_WINDOW", "1h")
	t.Setenv("STALE_AFTER", "5m")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DispatchQueue, cfg.DispatchMode)
	assert.True(t, cfg.AutoMigrate)
	assert.Equal(t, 20, cfg.QuotaLimit)
	assert.Equal(t, time.Hour, cfg.QuotaWindow)
	assert.Equal(t, 5*time.Minute, cfg.StaleAfter)
	assert.Equal(t, "redis:6379", cfg.RedisAddrOrDefault())
}

func TestLoadErrors(t *testing.T) {
	cases := map[string]map[string]string{
		"missing database": {"WORKER_URL": "http://w"},
		"missing worker":   {"DATABASE_URL": "postgres://x"},
		"queue no redis":   {"DATABASE_URL": "postgres://x", "DISPATCH_MODE": "queue"},
		"unknown mode":     {"DATABASE_URL": "postgres://x", "DISPATCH_MODE": "carrier-pigeon"},
		"bad duration":     {"DATABASE_URL": "postgres://x", "WORKER_URL": "http://w", "STALE_AFTER": "soon"},
		"bad int":          {"DATABASE_URL": "postgres://x", "WORKER_URL": "http://w", "QUOTA_LIMIT": "five"},
		"zero quota":       {"DATABASE_URL": "postgres://x", "WORKER_URL": "http://w", "QUOTA_LIMIT": "0"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoadWorker(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "postgres://localhost/hearsay")
	t.Setenv("WORKER_URL", "http://worker:9000/transcribe")
	t.Setenv("DISPATCH_MODE", "queue")
	t.Setenv("MAX_DISPATCH_ATTEMPTS", "5")

	cfg, err := LoadWorker()
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.MaxDispatchAttempts)
	assert.Equal(t, "127.0.0.1:6379", cfg.RedisAddrOrDefault())

	t.Setenv("WORKER_URL", "")
	_, err = LoadWorker()
	assert.Error(t, err)
}

func TestLoadSchedulerNeedsOnlyRedis(t *testing.T) {
	clearEnv(t)
	t.Setenv("SWEEP_INTERVAL", "5m")

	cfg, err := LoadScheduler()
	require.NoError(t, err)
	assert.Equal(t, 5*time.Minute, cfg.SweepInterval)
	assert.Equal(t, "127.0.0.1:6379", cfg.RedisAddrOrDefault())

	// the server still refuses to start without a database
	_, err = Load()
	assert.Error(t, err)

	t.Setenv("SWEEP_INTERVAL", "0s")
	_, err = LoadScheduler()
	assert.Error(t, err)
}
