package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"hearsay/internal/admission"
	"hearsay/internal/config"
	"hearsay/internal/db"
	"hearsay/internal/dispatch"
	"hearsay/internal/handlers"
	"hearsay/internal/middleware"
	"hearsay/internal/ratelimit"
	"hearsay/internal/remote"
	"hearsay/internal/submission"
	"hearsay/pkg/tasks"
)

// CommitSHA is set at build time via ldflags
var CommitSHA = "unknown"

// App holds the collaborators the HTTP server is wired from.
type App struct {
	cfg         *config.Config
	records     *db.RecordStore
	limiter     ratelimit.Limiter
	asynqClient tasks.TaskEnqueuer
	httpClient  *http.Client
}

func (a *App) dispatcher() dispatch.Dispatcher {
	if a.cfg.DispatchMode == config.DispatchQueue {
		return dispatch.NewQueueDispatcher(a.asynqClient)
	}
	return dispatch.NewHTTPDispatcher(a.httpClient, a.cfg.WorkerURL, a.cfg.WorkerAPIKey)
}

// Router builds the full HTTP handler.
func (a *App) Router() http.Handler {
	rc := remote.NewClient(a.httpClient)
	gate := admission.NewGate(rc, a.limiter, a.cfg.MaxFileSize, admission.DefaultSupportedTypes)
	svc := submission.NewService(gate, rc, a.records, a.dispatcher())

	throttle := middleware.NewRateLimiterMiddleware(a.cfg.APIRate, a.cfg.APIBurst)
	return handlers.NewRouter(handlers.New(svc, a.records), throttle, a.cfg.WorkerToken)
}

func main() {
	err := godotenv.Load()
	if err != nil {
		log.Println("Error loading .env file")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	db.InitDB(cfg.DatabaseURL)
	if cfg.AutoMigrate {
		if err := db.Migrate(context.Background(), db.DB); err != nil {
			log.Fatalf("Failed to migrate database: %v", err)
		}
	}

	app := &App{
		cfg:        cfg,
		records:    db.NewRecordStore(db.DB),
		httpClient: &http.Client{Timeout: 2 * time.Minute},
	}

	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			log.Fatalf("Failed to connect to redis: %v", err)
		}
		app.limiter = ratelimit.NewRedisStore(rdb, "hearsay:quota", cfg.QuotaLimit, cfg.QuotaWindow, nil)
	} else {
		log.Println("REDIS_ADDR is not set, submission quota is kept in process memory")
		app.limiter = ratelimit.NewMemoryStore(cfg.QuotaLimit, cfg.QuotaWindow, nil)
	}

	if cfg.DispatchMode == config.DispatchQueue {
		client := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
		defer client.Close()
		app.asynqClient = client
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           app.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Printf("Starting server on :%s (commit: %s, dispatch: %s)", cfg.Port, CommitSHA, cfg.DispatchMode)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown failed: %v", err)
	}
}
