package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"hearsay/internal/db"
	"hearsay/internal/middleware"
	"hearsay/internal/models"
	"hearsay/internal/playback"
	"hearsay/internal/transcript"
)

// PostResults is the polling endpoint: {"id": n} -> the record.
func (h *Handlers) PostResults(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID json.RawMessage `json:"id"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&req); err != nil {
		writeError(w, models.ReasonNoID)
		return
	}
	id, ok := parseID(req.ID)
	if !ok {
		writeError(w, models.ReasonNoID)
		return
	}
	h.writeRecord(w, r, id)
}

// GetRecord serves the same payload as PostResults by path.
func (h *Handlers) GetRecord(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, models.ReasonNoID)
		return
	}
	h.writeRecord(w, r, id)
}

func (h *Handlers) writeRecord(w http.ResponseWriter, r *http.Request, id int64) {
	record, ok := h.loadRecord(w, r, id)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, models.ResultsResponse{Status: models.StatusSuccess, Data: record})
}

// GetTranscript serves the merged transcript and its display bins.
func (h *Handlers) GetTranscript(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, models.ReasonNoID)
		return
	}
	record, ok := h.loadRecord(w, r, id)
	if !ok {
		return
	}

	merged, ok := transcript.FromJob(record.Transcription)
	if !ok {
		writeError(w, models.ReasonNoTranscript)
		return
	}

	bins := playback.Bins(merged)
	out := make([]models.TranscriptBin, 0, len(bins))
	for _, b := range bins {
		out = append(out, models.TranscriptBin{Start: b.Start, Label: playback.FormatTime(b.Start), Segments: b.Segments})
	}
	duration := merged.Duration
	if duration <= 0 && len(merged.Segments) > 0 {
		duration = merged.Segments[len(merged.Segments)-1].End
	}

	writeJSON(w, http.StatusOK, models.TranscriptResponse{
		Status:     models.StatusSuccess,
		Transcript: &merged,
		WindowSize: playback.WindowSize(duration),
		Bins:       out,
	})
}

func (h *Handlers) loadRecord(w http.ResponseWriter, r *http.Request, id int64) (*models.Record, bool) {
	record, err := h.records.GetRecordByID(r.Context(), id)
	if errors.Is(err, db.ErrNotFound) {
		writeError(w, models.ReasonNoEntry)
		return nil, false
	}
	if err != nil {
		log.Printf("[%s] Error loading record %d: %v", middleware.RequestID(r.Context()), id, err)
		writeError(w, models.ReasonUnknown)
		return nil, false
	}
	return record, true
}

// parseID accepts a JSON number or a numeric string.
func parseID(raw json.RawMessage) (int64, bool) {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return 0, false
	}
	if unquoted, err := strconv.Unquote(s); err == nil {
		s = strings.TrimSpace(unquoted)
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}
