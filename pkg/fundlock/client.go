// Package fundlock provides a Go SDK for the fundlock-server API.
package fundlock

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

// Client talks to a running fundlock-server instance.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the server at baseURL, e.g.
// "http://localhost:8080".
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// RunBacktest submits a backtest over inline price series and returns the
// engine result. Set req.Save to persist the run on the server.
func (c *Client) RunBacktest(ctx context.Context, req BacktestRequest) (*BacktestResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	var resp BacktestResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/backtest", bytes.NewReader(body), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListRuns returns metadata for all persisted runs, newest first.
func (c *Client) ListRuns(ctx context.Context) ([]RunMeta, error) {
	var resp RunsResponse
	if err := c.do(ctx, http.MethodGet, "/api/v1/runs", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Runs, nil
}

// GetRun returns one persisted run with its full daily log.
func (c *Client) GetRun(ctx context.Context, id int64) (*Run, error) {
	var resp Run
	if err := c.do(ctx, http.MethodGet, "/api/v1/runs/"+strconv.FormatInt(id, 10), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &APIError{Status: resp.StatusCode, Message: errorMessage(resp.Body)}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// APIError is a non-200 response from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

func errorMessage(r io.Reader) string {
	var body struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(r).Decode(&body); err != nil || body.Error == "" {
		return "unknown error"
	}
	return body.Error
}
