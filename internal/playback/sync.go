package playback

import (
	"context"
	"sort"
	"sync"
	"time"

	"hearsay/internal/models"
)

// seekEpsilon keeps a seek from landing on the previous segment's end.
const seekEpsilon = 0.01

// Player is the audio element the synchronizer drives.
type Player interface {
	CurrentTime() float64
	Seek(seconds float64)
	Paused() bool
	Play()
}

// Synchronizer tracks which transcript segment is under the playhead.
type Synchronizer struct {
	mu       sync.Mutex
	segments []models.Segment
	player   Player
	active   int
	searches int
}

// NewSynchronizer expects segments sorted by start, as produced by transcript.Merge.
func NewSynchronizer(t models.Transcript, player Player) *Synchronizer {
	return &Synchronizer{
		segments: t.Segments,
		player:   player,
		active:   -1,
	}
}

// Active returns the current segment, if any.
func (s *Synchronizer) Active() (models.Segment, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active < 0 {
		return models.Segment{}, false
	}
	return s.segments[s.active], true
}

// Update resolves the segment for playback time t. Times past the last
// segment clamp to it; times before the first resolve to the first.
func (s *Synchronizer) Update(t float64) (models.Segment, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.segments) == 0 {
		return models.Segment{}, false
	}
	if s.active >= 0 {
		cur := s.segments[s.active]
		if cur.Start <= t && t < cur.End {
			return cur, true
		}
	}

	s.searches++
	idx := sort.Search(len(s.segments), func(i int) bool {
		return s.segments[i].End > t
	})
	if idx == len(s.segments) {
		idx = len(s.segments) - 1
	}
	s.active = idx
	return s.segments[idx], true
}

// Select makes seg active, seeks the player just inside it and resumes
// playback if paused.
func (s *Synchronizer) Select(seg models.Segment) bool {
	s.mu.Lock()
	idx := -1
	for i := range s.segments {
		if s.segments[i].ID == seg.ID {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return false
	}
	s.active = idx
	start := s.segments[idx].Start
	s.mu.Unlock()

	s.player.Seek(start + seekEpsilon)
	if s.player.Paused() {
		s.player.Play()
	}
	return true
}

// Follow samples the player every interval and calls onChange whenever the
// active segment changes. It returns ctx.Err() once ctx is done; the ticker
// is always stopped.
func (s *Synchronizer) Follow(ctx context.Context, interval time.Duration, onChange func(models.Segment)) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	lastID, seen := 0, false
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			seg, ok := s.Update(s.player.CurrentTime())
			if !ok {
				continue
			}
			if !seen || seg.ID != lastID {
				lastID, seen = seg.ID, true
				onChange(seg)
			}
		}
	}
}
