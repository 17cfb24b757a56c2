package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/hibiken/asynq"
	"hearsay/internal/db"
	"hearsay/internal/dispatch"
	"hearsay/internal/models"
	"hearsay/pkg/tasks"
)

// sweepBatch caps how many records one sweep re-dispatches.
const sweepBatch = 100

// RecordStore is the part of the record store the task handlers use.
type RecordStore interface {
	GetRecordByID(ctx context.Context, id int64) (*models.Record, error)
	ListStale(ctx context.Context, cutoff time.Time, maxAttempts, limit int) ([]models.Record, error)
	IncrementDispatchAttempts(ctx context.Context, id int64) error
}

type TaskHandler struct {
	asynqClient tasks.TaskEnqueuer
	records     RecordStore
	relay       dispatch.Dispatcher

	StaleAfter  time.Duration
	MaxAttempts int
	now         func() time.Time
}

// NewTaskHandler builds the handlers. relay is the dispatcher that reaches
// the transcription worker directly.
func NewTaskHandler(client tasks.TaskEnqueuer, records RecordStore, relay dispatch.Dispatcher) *TaskHandler {
	return &TaskHandler{
		asynqClient: client,
		records:     records,
		relay:       relay,
		StaleAfter:  30 * time.Minute,
		MaxAttempts: 3,
		now:         time.Now,
	}
}

// HandleDispatchTranscriptionTask relays a queued dispatch to the
// transcription worker. Records the worker has already picked up are skipped.
func (h *TaskHandler) HandleDispatchTranscriptionTask(ctx context.Context, t *asynq.Task) error {
	var p tasks.DispatchTranscriptionPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("failed to unmarshal task payload: %v: %w", err, asynq.SkipRetry)
	}

	record, err := h.records.GetRecordByID(ctx, p.RecordID)
	if errors.Is(err, db.ErrNotFound) {
		return fmt.Errorf("record %d no longer exists: %w", p.RecordID, asynq.SkipRetry)
	}
	if err != nil {
		return fmt.Errorf("failed to get record %d: %w", p.RecordID, err)
	}
	if status := record.Transcription.Status(); status != models.JobNotStarted {
		log.Printf("Record %d is already %s, skipping dispatch", p.RecordID, status)
		return nil
	}

	if err := h.relay.Dispatch(ctx, p.AudioURL, p.RecordID); err != nil {
		return fmt.Errorf("failed to dispatch record %d: %w", p.RecordID, err)
	}
	return nil
}

// HandleSweepStaleRecordsTask re-dispatches records that were never picked
// up by the transcription worker. Each re-dispatch is a new attempt with its
// own task id, so an earlier attempt left archived by asynq does not block it.
func (h *TaskHandler) HandleSweepStaleRecordsTask(ctx context.Context, t *asynq.Task) error {
	log.Println("Sweeping stale records...")

	cutoff := h.now().Add(-h.StaleAfter)
	records, err := h.records.ListStale(ctx, cutoff, h.MaxAttempts, sweepBatch)
	if err != nil {
		return fmt.Errorf("failed to list stale records: %w", err)
	}

	queued := 0
	for _, record := range records {
		if err := h.records.IncrementDispatchAttempts(ctx, record.ID); err != nil {
			log.Printf("failed to count dispatch attempt for record %d: %v", record.ID, err)
			continue
		}

		attempt := record.DispatchAttempts + 1
		task, err := tasks.NewDispatchTranscriptionTask(record.InputURL, record.ID, attempt)
		if err != nil {
			log.Printf("failed to create dispatch task for record %d: %v", record.ID, err)
			continue
		}

		_, err = h.asynqClient.Enqueue(task)
		if errors.Is(err, asynq.ErrTaskIDConflict) {
			log.Printf("dispatch attempt %d for record %d is already queued", attempt, record.ID)
			continue
		}
		if err != nil {
			log.Printf("failed to enqueue dispatch task for record %d: %v", record.ID, err)
			continue
		}
		queued++
	}

	log.Printf("Finished sweeping stale records: %d found, %d re-dispatched.", len(records), queued)
	return nil
}
