package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"hearsay/internal/models"
)

// Client talks to a hearsay server.
type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

// Submit asks the server to transcribe url. Server-side rejections come back
// as *models.Failure carrying the server's reason.
func (c *Client) Submit(ctx context.Context, url string) (int64, error) {
	var resp models.SubmitResponse
	if err := c.post(ctx, "/api/transcribe", models.SubmitRequest{URL: url}, &resp); err != nil {
		return 0, err
	}
	if resp.Status != models.StatusSuccess {
		return 0, models.Fail(reasonOrUnknown(resp.Reason), nil)
	}
	return resp.ID, nil
}

// Result fetches the current state of record id.
func (c *Client) Result(ctx context.Context, id int64) (*models.Record, error) {
	var resp models.ResultsResponse
	if err := c.post(ctx, "/api/results", models.ResultsRequest{ID: &id}, &resp); err != nil {
		return nil, err
	}
	if resp.Status != models.StatusSuccess || resp.Data == nil {
		return nil, models.Fail(reasonOrUnknown(resp.Reason), nil)
	}
	return resp.Data, nil
}

// Transcript fetches the merged transcript and its display bins.
func (c *Client) Transcript(ctx context.Context, id int64) (*models.TranscriptResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/api/records/%d/transcript", c.baseURL, id), nil)
	if err != nil {
		return nil, err
	}
	var resp models.TranscriptResponse
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}
	if resp.Status != models.StatusSuccess || resp.Transcript == nil {
		return nil, models.Fail(reasonOrUnknown(resp.Reason), nil)
	}
	return &resp, nil
}

func (c *Client) post(ctx context.Context, path string, in, out interface{}) error {
	body, err := json.Marshal(in)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

// do decodes the JSON envelope regardless of status code; error envelopes
// are sent with 4xx/5xx codes.
func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s %s: status %d: invalid response: %w", req.Method, req.URL.Path, resp.StatusCode, err)
	}
	return nil
}

func reasonOrUnknown(r models.Reason) models.Reason {
	if r == "" {
		return models.ReasonUnknown
	}
	return r
}
