package playback

import (
	"fmt"
	"math"

	"hearsay/internal/models"
)

// Bin is a fixed-width window of segments rendered under one time label.
type Bin struct {
	Start    float64          `json:"start"`
	Segments []models.Segment `json:"segments"`
}

// WindowSize picks the bin width in seconds for a transcript of the given length.
func WindowSize(duration float64) float64 {
	switch {
	case duration <= 120:
		return 15
	case duration <= 3600:
		return 30
	default:
		return 60
	}
}

// Bins groups segments by floor(start / window). Windows without segments
// are omitted.
func Bins(t models.Transcript) []Bin {
	if len(t.Segments) == 0 {
		return nil
	}
	duration := t.Duration
	if duration <= 0 {
		duration = t.Segments[len(t.Segments)-1].End
	}
	window := WindowSize(duration)

	var bins []Bin
	lastIdx := -1
	for _, s := range t.Segments {
		idx := int(math.Floor(s.Start / window))
		if len(bins) == 0 || idx != lastIdx {
			bins = append(bins, Bin{Start: float64(idx) * window})
			lastIdx = idx
		}
		bins[len(bins)-1].Segments = append(bins[len(bins)-1].Segments, s)
	}
	return bins
}

// FormatTime renders seconds as m:ss.
func FormatTime(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	m := int(seconds) / 60
	s := int(math.Mod(seconds, 60))
	return fmt.Sprintf("%d:%02d", m, s)
}
