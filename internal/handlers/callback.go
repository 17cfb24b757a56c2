package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"hearsay/internal/jobs"
	"hearsay/internal/middleware"
	"hearsay/internal/models"
)

const maxWorkerBody = 32 << 20

// PostWorkerUpdate lets the transcription worker report progress and
// results. Updates go through the job lifecycle; a finished job is never
// overwritten.
func (h *Handlers) PostWorkerUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid record ID", http.StatusBadRequest)
		return
	}

	var upd models.WorkerUpdate
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxWorkerBody)).Decode(&upd); err != nil {
		http.Error(w, "Invalid update payload", http.StatusBadRequest)
		return
	}

	record, ok := h.loadRecord(w, r, id)
	if !ok {
		return
	}

	current := record.Transcription
	if _, err := jobs.Apply(current, upd.Transcription); err != nil {
		log.Printf("[%s] Rejected worker update for record %d: %v", middleware.RequestID(r.Context()), id, err)
		status := http.StatusConflict
		if !errors.Is(err, jobs.ErrTerminalState) && !errors.Is(err, jobs.ErrInvalidTransition) {
			status = http.StatusInternalServerError
		}
		http.Error(w, err.Error(), status)
		return
	}

	applied, err := h.records.ApplyWorkerUpdate(r.Context(), id, current.Status(), upd)
	if err != nil {
		log.Printf("[%s] Error applying worker update for record %d: %v", middleware.RequestID(r.Context()), id, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if !applied {
		http.Error(w, "Record changed concurrently", http.StatusConflict)
		return
	}

	log.Printf("Record %d transcription: %s -> %s", id, current.Status(), upd.Transcription.Status())
	writeJSON(w, http.StatusOK, map[string]string{"status": models.StatusSuccess})
}
