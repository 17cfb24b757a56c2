package admission

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"strings"

	"hearsay/internal/models"
	"hearsay/internal/ratelimit"
)

// DefaultMaxFileSize is 250 MB.
const DefaultMaxFileSize int64 = 250_000_000

// DefaultSupportedTypes are the audio and video containers the worker accepts.
var DefaultSupportedTypes = []string{
	"audio/mp3",
	"audio/mpeg",
	"audio/mpga",
	"video/mp4",
	"video/mpeg",
	"audio/mp4",
	"audio/m4a",
	"audio/x-m4a",
	"audio/wav",
	"audio/wave",
	"audio/x-wav",
	"audio/webm",
	"video/webm",
}

var errQuotaExceeded = errors.New("submission quota exhausted for this window")

// Prober looks up a remote file's declared metadata.
type Prober interface {
	Head(ctx context.Context, url string) (models.Metadata, error)
}

// Request is what a caller asks to have transcribed.
type Request struct {
	URL      string
	ClientID string
}

// Gate runs the checks that must pass before any expensive work starts.
type Gate struct {
	prober    Prober
	limiter   ratelimit.Limiter
	maxSize   int64
	supported map[string]struct{}
}

func NewGate(prober Prober, limiter ratelimit.Limiter, maxSize int64, types []string) *Gate {
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}
	if len(types) == 0 {
		types = DefaultSupportedTypes
	}
	supported := make(map[string]struct{}, len(types))
	for _, t := range types {
		supported[strings.ToLower(t)] = struct{}{}
	}
	return &Gate{
		prober:    prober,
		limiter:   limiter,
		maxSize:   maxSize,
		supported: supported,
	}
}

// Admit checks, in order and stopping at the first failure: URL shape,
// remote metadata, content type, content length, then quota. Only the quota
// check has a side effect. Rejections are *models.Failure.
func (g *Gate) Admit(ctx context.Context, req Request) (models.Metadata, error) {
	if !ValidURL(req.URL) {
		return models.Metadata{}, models.Fail(models.ReasonInvalidURL, nil)
	}

	meta, err := g.prober.Head(ctx, req.URL)
	if err != nil {
		log.Printf("Admission: metadata lookup failed for %s: %v", req.URL, err)
		return models.Metadata{}, models.Fail(models.ReasonInvalidFile, err)
	}
	if meta.ContentType == "" {
		return models.Metadata{}, models.Fail(models.ReasonInvalidFile, nil)
	}

	if !g.Supports(meta.ContentType) {
		return meta, models.Fail(models.ReasonFileTypeUnsupported, fmt.Errorf("content type %q", meta.ContentType))
	}
	if meta.ContentLength < 0 || meta.ContentLength > g.maxSize {
		return meta, models.Fail(models.ReasonFileSizeTooBig, fmt.Errorf("%d bytes exceeds %d", meta.ContentLength, g.maxSize))
	}

	ok, err := g.limiter.Allow(ctx, req.ClientID)
	if err != nil {
		return meta, models.Fail(models.ReasonUnknown, err)
	}
	if !ok {
		log.Printf("Admission: rate limit exceeded for %s", req.ClientID)
		return meta, models.Fail(models.ReasonRateLimit, errQuotaExceeded)
	}

	return meta, nil
}

func (g *Gate) Supports(contentType string) bool {
	_, ok := g.supported[strings.ToLower(contentType)]
	return ok
}

// ValidURL accepts absolute http and https URLs with a host.
func ValidURL(raw string) bool {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false
	}
	u, err := url.ParseRequestURI(raw)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return u.Host != ""
}
