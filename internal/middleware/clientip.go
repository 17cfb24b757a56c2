package middleware

import (
	"net"
	"net/http"
	"strings"
)

// FallbackClientID is used when no address can be determined.
const FallbackClientID = "__FALLBACK_IP__"

// ClientIdentity derives the caller's identity for quota purposes, preferring
// proxy headers over the socket address.
func ClientIdentity(r *http.Request) string {
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	if r.RemoteAddr != "" {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			return r.RemoteAddr
		}
		return host
	}
	return FallbackClientID
}
