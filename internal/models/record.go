package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// Metadata is what the remote server declared about the file at submission time.
type Metadata struct {
	ContentType   string `json:"contentType"`
	ContentLength int64  `json:"contentLength"`
}

func (m Metadata) Value() (driver.Value, error) {
	return json.Marshal(m)
}

func (m *Metadata) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*m = Metadata{}
		return nil
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	default:
		return errors.New("metadata: unsupported column type")
	}
}

// Record tracks one submitted audio source through to a transcript.
type Record struct {
	ID               int64     `db:"id" json:"id"`
	InputURL         string    `db:"input_url" json:"inputUrl"`
	Fingerprint      string    `db:"fingerprint" json:"fingerprint"`
	Metadata         Metadata  `db:"metadata" json:"metadata"`
	AudioURL         *string   `db:"audio_url" json:"audioUrl"`
	Transcription    Job       `db:"transcription" json:"transcription"`
	Summary          *string   `db:"summary" json:"summary"`
	Title            *string   `db:"title" json:"title"`
	DispatchAttempts int       `db:"dispatch_attempts" json:"-"`
	CreatedAt        time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt        time.Time `db:"updated_at" json:"updatedAt"`
}

// NewRecord is the insert shape used by the submission flow.
type NewRecord struct {
	InputURL    string
	Fingerprint string
	Metadata    Metadata
}

// WorkerUpdate is the partial update a transcription worker reports.
type WorkerUpdate struct {
	Transcription Job     `json:"transcription"`
	AudioURL      *string `json:"audioUrl,omitempty"`
	Summary       *string `json:"summary,omitempty"`
	Title         *string `json:"title,omitempty"`
}
