package client

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"hearsay/internal/jobs"
	"hearsay/internal/models"
)

const (
	DefaultPollInterval = 10 * time.Second
	// DefaultMaxFailures is how many consecutive failed polls end the loop.
	DefaultMaxFailures = 3
)

// ErrPollFailed is returned when too many consecutive polls fail.
var ErrPollFailed = errors.New("polling gave up")

// Fetcher loads the current record.
type Fetcher interface {
	Result(ctx context.Context, id int64) (*models.Record, error)
}

// Poller repeatedly fetches a record until its job is terminal.
type Poller struct {
	fetcher     Fetcher
	interval    time.Duration
	maxFailures int
}

// NewPoller builds a poller. maxFailures of 1 stops on the first failed poll.
func NewPoller(fetcher Fetcher, interval time.Duration, maxFailures int) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if maxFailures <= 0 {
		maxFailures = DefaultMaxFailures
	}
	return &Poller{fetcher: fetcher, interval: interval, maxFailures: maxFailures}
}

// Run polls immediately and then every interval, calling onUpdate with each
// fetched record. It returns the record once its job is SUCCESS or FAILED,
// ctx.Err() when ctx is done, or ErrPollFailed after maxFailures
// consecutive errors. An unknown id ends the loop at once. The ticker never
// outlives Run.
func (p *Poller) Run(ctx context.Context, id int64, onUpdate func(*models.Record)) (*models.Record, error) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	failures := 0
	for {
		record, err := p.fetcher.Result(ctx, id)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if permanent(err) {
				return nil, err
			}
			failures++
			log.Printf("Poll %d/%d for record %d failed: %v", failures, p.maxFailures, id, err)
			if failures >= p.maxFailures {
				return nil, fmt.Errorf("%w after %d attempts: %v", ErrPollFailed, failures, err)
			}
		default:
			failures = 0
			if onUpdate != nil {
				onUpdate(record)
			}
			if jobs.IsTerminal(record.Transcription) {
				return record, nil
			}
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func permanent(err error) bool {
	switch models.ReasonOf(err) {
	case models.ReasonNoEntry, models.ReasonNoID:
		return true
	default:
		return false
	}
}
