package middleware

import (
	"crypto/subtle"
	"log"
	"net/http"
	"strings"
)

// WorkerTokenHeader carries the shared secret the transcription worker sends.
const WorkerTokenHeader = "X-Worker-Token"

// WorkerAuthMiddleware admits only requests carrying the worker's shared
// token. An empty token disables the protected routes entirely.
func WorkerAuthMiddleware(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token == "" {
				log.Println("WORKER_TOKEN is not set, rejecting worker callback")
				http.Error(w, "Worker callbacks are disabled", http.StatusServiceUnavailable)
				return
			}

			got := strings.TrimSpace(r.Header.Get(WorkerTokenHeader))
			if got == "" {
				http.Error(w, WorkerTokenHeader+" header is required", http.StatusUnauthorized)
				return
			}
			if subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				log.Printf("Invalid worker token from %s", ClientIdentity(r))
				http.Error(w, "Invalid worker token", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
