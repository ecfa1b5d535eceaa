// internal/report/client.go
//
// HTTP client side of the score submission call.
// Responsibilities:
//   - POST {"score": n} as JSON to the score endpoint (/save_snake_score).
//   - Fetch the best recorded score (/scores/high) to seed the high score.
//
// Notes:
//   - The engine treats reporting as fire-and-forget; Loop wraps calls in a
//     goroutine with a timeout. Nothing here retries.

package report

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// ErrStatus is wrapped when the server answers with a non-2xx status.
var ErrStatus = errors.New("unexpected status")

// DefaultEndpoint matches the server's default port.
const DefaultEndpoint = "http://localhost:5175/save_snake_score"

// Client posts scores to a score server.
type Client struct {
	endpoint string
	http     *http.Client
}

// NewClient builds a Client for endpoint. A nil hc gets a 10s-timeout client.
func NewClient(endpoint string, hc *http.Client) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{endpoint: endpoint, http: hc}
}

type scorePayload struct {
	Score int `json:"score"`
}

// ReportScore sends one score. The response body is ignored.
func (c *Client) ReportScore(ctx context.Context, score int) error {
	body, err := json.Marshal(scorePayload{Score: score})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("post score: %w", err)
	}
	defer res.Body.Close()
	_, _ = io.Copy(io.Discard, res.Body)

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return fmt.Errorf("post score: %w: %d", ErrStatus, res.StatusCode)
	}
	return nil
}

// HighScore fetches the best recorded score from the same server.
func (c *Client) HighScore(ctx context.Context) (int, error) {
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return 0, fmt.Errorf("parse endpoint: %w", err)
	}
	u.Path = "/scores/high"
	u.RawQuery = ""

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	res, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("get high score: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("get high score: %w: %d", ErrStatus, res.StatusCode)
	}
	var out struct {
		HighScore int `json:"highScore"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("decode high score: %w", err)
	}
	return out.HighScore, nil
}
