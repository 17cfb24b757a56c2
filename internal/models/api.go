package models

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

type SubmitRequest struct {
	URL string `json:"url"`
}

type SubmitResponse struct {
	Status string `json:"status"`
	ID     int64  `json:"id,omitempty"`
	Reason Reason `json:"reason,omitempty"`
}

type ResultsRequest struct {
	ID *int64 `json:"id"`
}

type ResultsResponse struct {
	Status string  `json:"status"`
	Data   *Record `json:"data,omitempty"`
	Reason Reason  `json:"reason,omitempty"`
}

// TranscriptBin mirrors playback.Bin on the wire.
type TranscriptBin struct {
	Start    float64   `json:"start"`
	Label    string    `json:"label"`
	Segments []Segment `json:"segments"`
}

type TranscriptResponse struct {
	Status     string          `json:"status"`
	Transcript *Transcript     `json:"transcript,omitempty"`
	WindowSize float64         `json:"windowSize,omitempty"`
	Bins       []TranscriptBin `json:"bins,omitempty"`
	Reason     Reason          `json:"reason,omitempty"`
}
