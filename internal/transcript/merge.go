package transcript

import (
	"strings"

	"hearsay/internal/models"
)

// Merge joins the worker's chunks into one time-continuous transcript.
// Segment times are shifted by the summed duration of the preceding chunks
// and ids by the summed segment count, so the result stays monotonic with
// unique ids. ok is false when there are no chunks.
func Merge(chunks []models.Chunk) (merged models.Transcript, ok bool) {
	switch len(chunks) {
	case 0:
		return models.Transcript{}, false
	case 1:
		return chunks[0].Results, true
	}

	var (
		timeOffset float64
		idOffset   int
		texts      = make([]string, 0, len(chunks))
		total      int
	)
	for _, c := range chunks {
		total += len(c.Results.Segments)
	}
	segments := make([]models.Segment, 0, total)

	for _, c := range chunks {
		for _, s := range c.Results.Segments {
			segments = append(segments, models.Segment{
				ID:    s.ID + idOffset,
				Start: s.Start + timeOffset,
				End:   s.End + timeOffset,
				Text:  s.Text,
			})
		}
		timeOffset += c.Results.Duration
		idOffset += len(c.Results.Segments)
		texts = append(texts, c.Results.Text)
	}

	first := chunks[0].Results
	return models.Transcript{
		Duration: timeOffset,
		Language: first.Language,
		Task:     first.Task,
		Text:     strings.Join(texts, " "),
		Segments: segments,
	}, true
}

// FromJob returns the merged transcript of a successful job.
func FromJob(job models.Job) (models.Transcript, bool) {
	switch s := job.Current().(type) {
	case models.Succeeded:
		return Merge(s.Results)
	case models.NotStarted, models.Running, models.Failed:
		return models.Transcript{}, false
	default:
		return models.Transcript{}, false
	}
}
