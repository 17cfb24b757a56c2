package main

import (
	"log"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"hearsay/internal/config"
	"hearsay/pkg/tasks"
)

// CommitSHA is set at build time via ldflags
var CommitSHA = "unknown"

func main() {
	err := godotenv.Load()
	if err != nil {
		log.Println("Error loading .env file")
	}

	cfg, err := config.LoadScheduler()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	scheduler := asynq.NewScheduler(
		asynq.RedisClientOpt{Addr: cfg.RedisAddrOrDefault()},
		&asynq.SchedulerOpts{},
	)

	task, err := tasks.NewSweepStaleRecordsTask()
	if err != nil {
		log.Fatalf("could not create task: %v", err)
	}

	spec := "@every " + cfg.SweepInterval.String()
	_, err = scheduler.Register(spec, task)
	if err != nil {
		log.Fatalf("could not register task: %v", err)
	}

	log.Printf("Scheduler starting (commit: %s, sweep: %s)", CommitSHA, spec)
	if err := scheduler.Run(); err != nil {
		log.Fatalf("could not run scheduler: %v", err)
	}
}
