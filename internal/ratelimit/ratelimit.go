// Package ratelimit holds the fixed-window submission quota shared by every
// request a process serves. A store is created once at startup and injected;
// counts only reset when their window expires.
package ratelimit

import (
	"context"
	"time"
)

const (
	DefaultLimit  = 5
	DefaultWindow = 12 * time.Hour
)

// Limiter consumes one unit of quota for identity and reports whether it was
// within the limit.
type Limiter interface {
	Allow(ctx context.Context, identity string) (bool, error)
}

// windowIndex numbers fixed windows from the unix epoch.
func windowIndex(now time.Time, window time.Duration) int64 {
	return now.UnixNano() / int64(window)
}
