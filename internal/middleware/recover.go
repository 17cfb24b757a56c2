package middleware

import (
	"log"
	"net/http"
	"runtime/debug"
)

// Recoverer turns a panic into a generic JSON error so no stack trace
// reaches the caller.
func Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Printf("[%s] panic serving %s: %v\n%s", RequestID(r.Context()), r.URL.Path, rec, debug.Stack())
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte(`{"status":"error","reason":"unknown"}`))
			}
		}()
		next.ServeHTTP(w, r)
	})
}
