package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/hibiken/asynq"
	"hearsay/pkg/tasks"
)

// Dispatcher starts transcription of a record's audio.
type Dispatcher interface {
	Dispatch(ctx context.Context, audioURL string, recordID int64) error
}

// ErrRejected is returned when the worker answers with a non-2xx status.
var ErrRejected = errors.New("transcription worker rejected the request")

type request struct {
	AudioURL string `json:"audioUrl"`
	RecordID int64  `json:"recordId"`
	// DBID is the field name older worker deployments read.
	DBID int64 `json:"dbId"`
}

// HTTPDispatcher posts the job to the transcription worker's endpoint.
type HTTPDispatcher struct {
	client   *http.Client
	endpoint string
	token    string
}

func NewHTTPDispatcher(client *http.Client, endpoint, token string) *HTTPDispatcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPDispatcher{client: client, endpoint: endpoint, token: token}
}

func (d *HTTPDispatcher) Dispatch(ctx context.Context, audioURL string, recordID int64) error {
	body, err := json.Marshal(request{AudioURL: audioURL, RecordID: recordID, DBID: recordID})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build dispatch request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if d.token != "" {
		req.Header.Set("Authorization", "Bearer "+d.token)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach transcription worker: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: status %d", ErrRejected, resp.StatusCode)
	}
	log.Printf("Dispatched record %d to transcription worker", recordID)
	return nil
}

// QueueDispatcher hands the job to the hearsay worker process, which relays
// it to the transcription worker with retries. It always enqueues the first
// attempt; later attempts come from the stale-record sweep.
type QueueDispatcher struct {
	enqueuer tasks.TaskEnqueuer
}

func NewQueueDispatcher(enqueuer tasks.TaskEnqueuer) *QueueDispatcher {
	return &QueueDispatcher{enqueuer: enqueuer}
}

func (d *QueueDispatcher) Dispatch(ctx context.Context, audioURL string, recordID int64) error {
	task, err := tasks.NewDispatchTranscriptionTask(audioURL, recordID, 1)
	if err != nil {
		return fmt.Errorf("failed to create dispatch task: %w", err)
	}
	info, err := d.enqueuer.Enqueue(task)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		log.Printf("Dispatch of record %d is already queued", recordID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to enqueue dispatch task: %w", err)
	}
	log.Printf("Enqueued dispatch of record %d as task %s", recordID, info.ID)
	return nil
}
