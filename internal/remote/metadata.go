package remote

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"hearsay/internal/models"
)

// ErrMissingMetadata is returned when the server omits content-type or content-length.
var ErrMissingMetadata = errors.New("remote file is missing content-type or content-length")

// Client inspects remote media files without downloading them in full.
type Client struct {
	http *http.Client
	// MaxChunks caps how many chunks of the body are hashed.
	MaxChunks int
	// ChunkSize is the number of bytes in one hashed chunk.
	ChunkSize int
}

const (
	DefaultMaxChunks = 10
	DefaultChunkSize = 64 * 1024
)

func NewClient(httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		http:      httpClient,
		MaxChunks: DefaultMaxChunks,
		ChunkSize: DefaultChunkSize,
	}
}

// Head fetches the declared content type and length of url.
func (c *Client) Head(ctx context.Context, url string) (models.Metadata, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return models.Metadata{}, fmt.Errorf("failed to build HEAD request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return models.Metadata{}, fmt.Errorf("HEAD %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return models.Metadata{}, fmt.Errorf("HEAD %s: unexpected status %d", url, resp.StatusCode)
	}

	contentType := MediaType(resp.Header.Get("Content-Type"))
	rawLength := resp.Header.Get("Content-Length")
	if contentType == "" || rawLength == "" {
		return models.Metadata{}, ErrMissingMetadata
	}
	length, err := strconv.ParseInt(rawLength, 10, 64)
	if err != nil || length < 0 {
		return models.Metadata{}, fmt.Errorf("invalid content-length %q", rawLength)
	}

	return models.Metadata{ContentType: contentType, ContentLength: length}, nil
}

// MediaType strips parameters and normalizes case: "Audio/MPEG; x=y" -> "audio/mpeg".
func MediaType(header string) string {
	if header == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(header)
	if err != nil {
		mt, _, _ = strings.Cut(header, ";")
	}
	return strings.ToLower(strings.TrimSpace(mt))
}
