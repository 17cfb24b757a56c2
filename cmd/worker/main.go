package main

import (
	"log"
	"net/http"
	"time"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"hearsay/internal/config"
	"hearsay/internal/db"
	"hearsay/internal/dispatch"
	"hearsay/internal/worker"
	"hearsay/pkg/tasks"
)

// CommitSHA is set at build time via ldflags
var CommitSHA = "unknown"

// retryDelay backs off exponentially from 30 seconds up to 30 minutes.
func retryDelay(n int, err error, task *asynq.Task) time.Duration {
	delay := 30 * time.Second
	maxDelay := 30 * time.Minute

	for i := 0; i < n; i++ {
		delay *= 2
		if delay > maxDelay {
			delay = maxDelay
			break
		}
	}

	log.Printf("Task %s failed %d times, retrying in %v", task.Type(), n+1, delay)
	return delay
}

func main() {
	err := godotenv.Load()
	if err != nil {
		log.Println("Error loading .env file")
	}

	cfg, err := config.LoadWorker()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	db.InitDB(cfg.DatabaseURL)

	redisOpt := asynq.RedisClientOpt{Addr: cfg.RedisAddrOrDefault()}
	client := asynq.NewClient(redisOpt)
	defer client.Close()

	srv := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: 4,
			Queues: map[string]int{
				"default": 1,
			},
			RetryDelayFunc: retryDelay,
		},
	)

	relay := dispatch.NewHTTPDispatcher(&http.Client{Timeout: time.Minute}, cfg.WorkerURL, cfg.WorkerAPIKey)
	taskHandler := worker.NewTaskHandler(client, db.NewRecordStore(db.DB), relay)
	taskHandler.StaleAfter = cfg.StaleAfter
	taskHandler.MaxAttempts = cfg.MaxDispatchAttempts

	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeDispatchTranscription, taskHandler.HandleDispatchTranscriptionTask)
	mux.HandleFunc(tasks.TypeSweepStaleRecords, taskHandler.HandleSweepStaleRecordsTask)

	log.Printf("Worker starting (commit: %s)", CommitSHA)
	if err := srv.Run(mux); err != nil {
		log.Fatalf("could not run server: %v", err)
	}
}
