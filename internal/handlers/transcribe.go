package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"hearsay/internal/middleware"
	"hearsay/internal/models"
)

const maxRequestBody = 1 << 16

func (h *Handlers) PostTranscribe(w http.ResponseWriter, r *http.Request) {
	var req models.SubmitRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&req); err != nil {
		writeError(w, models.ReasonInvalidURL)
		return
	}

	id, err := h.submitter.Submit(r.Context(), req.URL, middleware.ClientIdentity(r))
	if err != nil {
		reason := models.ReasonOf(err)
		log.Printf("[%s] Submission of %q rejected: %v", middleware.RequestID(r.Context()), req.URL, err)
		writeError(w, reason)
		return
	}

	writeJSON(w, http.StatusOK, models.SubmitResponse{Status: models.StatusSuccess, ID: id})
}
