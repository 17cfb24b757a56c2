package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"hearsay/internal/middleware"
)

// NewRouter wires the public API and the worker callback. The callback is
// registered first so the throttled /api subrouter never shadows it.
func NewRouter(h *Handlers, throttle *middleware.RateLimiterMiddleware, workerToken string) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.RequestLogger, middleware.Recoverer)

	r.HandleFunc("/healthz", h.Health).Methods(http.MethodGet)

	r.Handle("/api/records/{id:[0-9]+}/transcription",
		middleware.WorkerAuthMiddleware(workerToken)(http.HandlerFunc(h.PostWorkerUpdate)),
	).Methods(http.MethodPost)

	api := r.PathPrefix("/api").Subrouter()
	if throttle != nil {
		api.Use(throttle.Middleware)
	}
	api.HandleFunc("/transcribe", h.PostTranscribe).Methods(http.MethodPost)
	api.HandleFunc("/results", h.PostResults).Methods(http.MethodPost)
	api.HandleFunc("/records/{id:[0-9]+}", h.GetRecord).Methods(http.MethodGet)
	api.HandleFunc("/records/{id:[0-9]+}/transcript", h.GetTranscript).Methods(http.MethodGet)

	return r
}
