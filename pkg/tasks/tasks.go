package tasks

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

const (
	TypeDispatchTranscription = "transcription:dispatch"
	TypeSweepStaleRecords     = "records:sweep"
)

type DispatchTranscriptionPayload struct {
	AudioURL string
	RecordID int64
	Attempt  int
}

// DispatchTaskID names one dispatch attempt of a record. An archived task
// keeps its id, so every attempt gets its own.
func DispatchTaskID(recordID int64, attempt int) string {
	return fmt.Sprintf("dispatch-%d-%d", recordID, attempt)
}

// NewDispatchTranscriptionTask asks the worker process to hand a record to
// the transcription service. The task id rejects a second enqueue of the
// same attempt.
func NewDispatchTranscriptionTask(audioURL string, recordID int64, attempt int) (*asynq.Task, error) {
	payload, err := json.Marshal(DispatchTranscriptionPayload{
		AudioURL: audioURL,
		RecordID: recordID,
		Attempt:  attempt,
	})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeDispatchTranscription, payload,
		asynq.TaskID(DispatchTaskID(recordID, attempt)),
		asynq.MaxRetry(5),
	), nil
}

func NewSweepStaleRecordsTask() (*asynq.Task, error) {
	return asynq.NewTask(TypeSweepStaleRecords, nil, asynq.MaxRetry(0)), nil
}
