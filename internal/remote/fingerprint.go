package remote

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"

	"hearsay/internal/models"
)

// ErrShortBody is returned when the stream ends before the declared length
// and before the chunk cap is reached.
var ErrShortBody = errors.New("remote body ended early")

// Fingerprint identifies a remote file by hashing at most MaxChunks chunks
// of its body and appending the declared length and type:
// "<sha256 hex>-<length>-<type>". The body is streamed and closed as soon as
// the cap is reached.
func (c *Client) Fingerprint(ctx context.Context, url string, meta models.Metadata) (string, error) {
	sum, err := c.hashPrefix(ctx, url, meta.ContentLength)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%d-%s", sum, meta.ContentLength, meta.ContentType), nil
}

func (c *Client) hashPrefix(ctx context.Context, url string, declared int64) (string, error) {
	// cancelling on return tears the connection down when the cap is hit
	// before EOF, instead of draining the rest of the file.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build GET request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("GET %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("GET %s: unexpected status %d", url, resp.StatusCode)
	}

	hash := sha256.New()
	buf := make([]byte, c.chunkSize())
	var read int64
	for chunks := 0; chunks < c.maxChunks(); chunks++ {
		n, err := io.ReadFull(resp.Body, buf)
		hash.Write(buf[:n])
		read += int64(n)
		if err == nil {
			continue
		}
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			// the whole body fit under the cap; it must be the whole file
			if declared > 0 && read < declared {
				return "", fmt.Errorf("%w: read %d of %d bytes", ErrShortBody, read, declared)
			}
			break
		}
		return "", fmt.Errorf("reading %s: %w", url, err)
	}

	return hex.EncodeToString(hash.Sum(nil)), nil
}

func (c *Client) maxChunks() int {
	if c.MaxChunks <= 0 {
		return DefaultMaxChunks
	}
	return c.MaxChunks
}

func (c *Client) chunkSize() int {
	if c.ChunkSize <= 0 {
		return DefaultChunkSize
	}
	return c.ChunkSize
}
