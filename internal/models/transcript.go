package models

// Segment is one time-stamped span of a transcript.
type Segment struct {
	ID    int     `json:"id"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Transcript is the output of a transcription run, in whisper's verbose_json shape.
type Transcript struct {
	Duration float64   `json:"duration"`
	Language string    `json:"language"`
	Task     string    `json:"task"`
	Text     string    `json:"text"`
	Segments []Segment `json:"segments"`
}

// Chunk is the transcript of one slice of the source audio, as produced by the worker.
type Chunk struct {
	FileName string     `json:"fileName"`
	Results  Transcript `json:"results"`
}
