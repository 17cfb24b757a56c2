package playback

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hearsay/internal/models"
)

func TestWindowSize(t *testing.T) {
	assert.Equal(t, 15.0, WindowSize(90))
	assert.Equal(t, 15.0, WindowSize(120))
	assert.Equal(t, 30.0, WindowSize(121))
	assert.Equal(t, 30.0, WindowSize(1800))
	assert.Equal(t, 30.0, WindowSize(3600))
	assert.Equal(t, 60.0, WindowSize(5000))
}

func TestBins(t *testing.T) {
	tr := models.Transcript{
		Duration: 90,
		Segments: []models.Segment{
			{ID: 0, Start: 0, End: 4},
			{ID: 1, Start: 4, End: 14.9},
			{ID: 2, Start: 14.9, End: 16},
			{ID: 3, Start: 16, End: 30},
			{ID: 4, Start: 61, End: 70},
		},
	}

	bins := Bins(tr)
	require.Len(t, bins, 3)

	assert.Equal(t, 0.0, bins[0].Start)
	assert.Len(t, bins[0].Segments, 3)
	assert.Equal(t, 15.0, bins[1].Start)
	assert.Equal(t, []models.Segment{tr.Segments[3]}, bins[1].Segments)
	assert.Equal(t, 60.0, bins[2].Start)
	assert.Equal(t, 4, bins[2].Segments[0].ID)
}

func TestBinsFallsBackToLastSegmentEnd(t *testing.T) {
	tr := models.Transcript{Segments: []models.Segment{
		{ID: 0, Start: 0, End: 100},
		{ID: 1, Start: 100, End: 200},
	}}
	bins := Bins(tr)
	require.Len(t, bins, 2)
	assert.Equal(t, 90.0, bins[1].Start, "200s total uses 30s windows")
}

func TestBinsEmpty(t *testing.T) {
	assert.Nil(t, Bins(models.Transcript{Duration: 10}))
}

func TestFormatTime(t *testing.T) {
	assert.Equal(t, "0:00", FormatTime(0))
	assert.Equal(t, "0:45", FormatTime(45.7))
	assert.Equal(t, "61:05", FormatTime(3665))
}
