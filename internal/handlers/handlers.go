package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"hearsay/internal/models"
)

// Submitter runs the submission flow.
type Submitter interface {
	Submit(ctx context.Context, url, clientID string) (int64, error)
}

// RecordStore is what the read and callback endpoints need from storage.
type RecordStore interface {
	GetRecordByID(ctx context.Context, id int64) (*models.Record, error)
	ApplyWorkerUpdate(ctx context.Context, id int64, from models.JobStatus, upd models.WorkerUpdate) (bool, error)
}

type Handlers struct {
	submitter Submitter
	records   RecordStore
}

func New(submitter Submitter, records RecordStore) *Handlers {
	return &Handlers{
		submitter: submitter,
		records:   records,
	}
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// StatusFor maps a failure reason to the HTTP status it is sent with.
func StatusFor(reason models.Reason) int {
	switch reason {
	case models.ReasonInvalidURL, models.ReasonFileTypeUnsupported, models.ReasonFileSizeTooBig, models.ReasonNoID:
		return http.StatusBadRequest
	case models.ReasonInvalidFile, models.ReasonFileHashFail, models.ReasonTranscribeKickoffFail:
		return http.StatusBadGateway
	case models.ReasonRateLimit:
		return http.StatusTooManyRequests
	case models.ReasonNoEntry, models.ReasonNoTranscript:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

func writeError(w http.ResponseWriter, reason models.Reason) {
	writeJSON(w, StatusFor(reason), map[string]interface{}{
		"status": models.StatusError,
		"reason": reason,
	})
}
