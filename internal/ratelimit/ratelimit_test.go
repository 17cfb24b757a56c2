package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newClock() *fakeClock {
	// aligned to a 12h boundary so the window does not roll mid-test
	return &fakeClock{now: time.Unix(0, 0).Add(1000 * DefaultWindow)}
}

var storeKinds = []string{"memory", "redis"}

func newStore(t *testing.T, kind string, clock *fakeClock) Limiter {
	if kind == "memory" {
		return NewMemoryStore(DefaultLimit, DefaultWindow, clock.Now)
	}
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisStore(client, "quota", DefaultLimit, DefaultWindow, clock.Now)
}

func TestSixthRequestInWindowIsDenied(t *testing.T) {
	for _, kind := range storeKinds {
		t.Run(kind, func(t *testing.T) {
			store := newStore(t, kind, newClock())
			ctx := context.Background()
			for i := 1; i <= 5; i++ {
				ok, err := store.Allow(ctx, "10.0.0.1")
				require.NoError(t, err)
				assert.True(t, ok, "request %d", i)
			}
			ok, err := store.Allow(ctx, "10.0.0.1")
			require.NoError(t, err)
			assert.False(t, ok)

			ok, err = store.Allow(ctx, "10.0.0.2")
			require.NoError(t, err)
			assert.True(t, ok, "other identities keep their own quota")
		})
	}
}

func TestNextWindowResetsQuota(t *testing.T) {
	for _, kind := range storeKinds {
		t.Run(kind, func(t *testing.T) {
			clock := newClock()
			store := newStore(t, kind, clock)
			ctx := context.Background()
			for i := 0; i < 5; i++ {
				store.Allow(ctx, "10.0.0.1")
			}
			ok, _ := store.Allow(ctx, "10.0.0.1")
			require.False(t, ok)

			clock.Advance(DefaultWindow)
			ok, err := store.Allow(ctx, "10.0.0.1")
			require.NoError(t, err)
			assert.True(t, ok)
		})
	}
}

func TestMemoryStoreConcurrentCallers(t *testing.T) {
	store := NewMemoryStore(50, time.Hour, newClock().Now)

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := store.Allow(context.Background(), "shared"); ok {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, allowed)
}

func TestMemoryStorePrunesExpiredWindows(t *testing.T) {
	clock := newClock()
	store := NewMemoryStore(1, time.Hour, clock.Now)
	store.Allow(context.Background(), "a")
	store.Allow(context.Background(), "b")

	clock.Advance(time.Hour)
	store.Allow(context.Background(), "c")
	assert.Len(t, store.counts, 1)
}

func TestRedisStoreSetsExpiry(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	clock := newClock()
	store := NewRedisStore(client, "quota", 5, DefaultWindow, clock.Now)

	_, err := store.Allow(context.Background(), "1.2.3.4")
	require.NoError(t, err)

	keys := mr.Keys()
	require.Len(t, keys, 1)
	assert.Equal(t, DefaultWindow, mr.TTL(keys[0]))
}

func TestRedisStoreError(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer client.Close()
	mr.Close()

	_, err := NewRedisStore(client, "quota", 5, DefaultWindow, nil).Allow(context.Background(), "x")
	assert.Error(t, err)
}
