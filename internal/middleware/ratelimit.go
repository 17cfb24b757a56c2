package middleware

import (
	"encoding/json"
	"log"
	"math"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
	"hearsay/internal/models"
)

// minIdleTTL is the shortest time a client's limiter is kept after its last request.
const minIdleTTL = time.Minute

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiterMiddleware throttles API request bursts per client address.
// It guards the server itself; the submission quota lives in the admission gate.
type RateLimiterMiddleware struct {
	limiters map[string]*clientLimiter
	mu       sync.Mutex
	// Rate is the number of events per second.
	rate rate.Limit
	// Burst is the burst size.
	burst int

	// idleTTL is how long an unused limiter is kept. It is at least the time a
	// drained bucket takes to refill, so a dropped limiter behaves exactly like
	// the fresh one that replaces it.
	idleTTL   time.Duration
	lastPrune time.Time
	now       func() time.Time
}

// NewRateLimiterMiddleware creates a new RateLimiterMiddleware.
func NewRateLimiterMiddleware(r rate.Limit, b int) *RateLimiterMiddleware {
	return &RateLimiterMiddleware{
		limiters: make(map[string]*clientLimiter),
		rate:     r,
		burst:    b,
		idleTTL:  idleTTL(r, b),
		now:      time.Now,
	}
}

func idleTTL(r rate.Limit, b int) time.Duration {
	if r <= 0 {
		// a bucket that never refills must never be forgotten early
		return 24 * time.Hour
	}
	if r == rate.Inf {
		return minIdleTTL
	}
	refill := float64(b) / float64(r)
	if refill >= math.MaxInt64/float64(time.Second) {
		return 24 * time.Hour
	}
	if d := time.Duration(refill * float64(time.Second)); d > minIdleTTL {
		return d
	}
	return minIdleTTL
}

// Middleware is the actual middleware handler.
func (rl *RateLimiterMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		client := ClientIdentity(r)
		now := rl.now()

		rl.mu.Lock()
		rl.pruneLocked(now)
		entry, exists := rl.limiters[client]
		if !exists {
			entry = &clientLimiter{limiter: rate.NewLimiter(rl.rate, rl.burst)}
			rl.limiters[client] = entry
		}
		entry.lastSeen = now
		rl.mu.Unlock()

		if !entry.limiter.AllowN(now, 1) {
			log.Printf("RateLimiter: request burst exceeded for %s on %s", client, r.URL.Path)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"status": models.StatusError,
				"reason": models.ReasonRateLimit,
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}

// pruneLocked drops limiters idle for longer than idleTTL, at most once per idleTTL.
func (rl *RateLimiterMiddleware) pruneLocked(now time.Time) {
	if now.Sub(rl.lastPrune) < rl.idleTTL {
		return
	}
	for client, entry := range rl.limiters {
		if now.Sub(entry.lastSeen) >= rl.idleTTL {
			delete(rl.limiters, client)
		}
	}
	rl.lastPrune = now
}

// tracked reports how many clients currently hold a limiter.
func (rl *RateLimiterMiddleware) tracked() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.limiters)
}
