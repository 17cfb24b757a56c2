package playback

import (
	"sync"
	"time"
)

// ClockPlayer is a Player whose position advances with wall-clock time.
// The CLI uses it to follow a transcript without decoding audio.
type ClockPlayer struct {
	mu        sync.Mutex
	now       func() time.Time
	duration  float64
	position  float64
	startedAt time.Time
	playing   bool
}

func NewClockPlayer(duration float64, now func() time.Time) *ClockPlayer {
	if now == nil {
		now = time.Now
	}
	return &ClockPlayer{now: now, duration: duration}
}

func (p *ClockPlayer) CurrentTime() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.currentLocked()
}

func (p *ClockPlayer) currentLocked() float64 {
	pos := p.position
	if p.playing {
		pos += p.now().Sub(p.startedAt).Seconds()
	}
	if p.duration > 0 && pos > p.duration {
		pos = p.duration
	}
	return pos
}

func (p *ClockPlayer) Seek(seconds float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if seconds < 0 {
		seconds = 0
	}
	p.position = seconds
	p.startedAt = p.now()
}

func (p *ClockPlayer) Paused() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return !p.playing
}

func (p *ClockPlayer) Play() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.playing {
		return
	}
	p.startedAt = p.now()
	p.playing = true
}

func (p *ClockPlayer) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.playing {
		return
	}
	p.position = p.currentLocked()
	p.playing = false
}

// Ended reports whether playback reached the end.
func (p *ClockPlayer) Ended() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.duration > 0 && p.currentLocked() >= p.duration
}
