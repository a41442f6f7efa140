// Package youtube is a typed client for the slice of the YouTube Data API v3
// this service uses: the authenticated user's channel and uploads, video
// metadata, and the comment surface. Calls are rate limited client-side and
// read calls are retried on transient failures; mutations are attempted once
// because their failures are surfaced to the user for manual retry.
package youtube

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/tubedesk/internal/retry"
)

const defaultBaseURL = "https://www.googleapis.com/youtube/v3"

// Client calls the YouTube Data API with per-request bearer tokens. The
// caller owns token freshness; an expired token surfaces as a 401 APIError.
type Client struct {
	BaseURL string

	httpClient  *http.Client
	rateLimiter *rate.Limiter
	retryConfig retry.RetryConfig
}

// NewClient returns a client with the public API endpoint and a limiter
// sized for the default per-project quota.
func NewClient() *Client {
	return &Client{
		BaseURL:     defaultBaseURL,
		httpClient:  &http.Client{Timeout: 15 * time.Second},
		rateLimiter: rate.NewLimiter(rate.Every(200*time.Millisecond), 5),
		retryConfig: retry.APIRetryConfig(),
	}
}

// getJSON performs a retried, rate-limited GET and decodes into out.
func (c *Client) getJSON(ctx context.Context, token, path string, query url.Values, out interface{}) error {
	result := retry.RetryWithBackoff(ctx, "youtube"+path, c.retryConfig, func() error {
		return c.doJSON(ctx, token, http.MethodGet, path, query, nil, out)
	})
	if !result.Success {
		return result.LastError
	}
	return nil
}

// doJSON performs a single rate-limited request. body, when non-nil, is
// JSON-encoded; out, when non-nil, receives the decoded response.
func (c *Client) doJSON(ctx context.Context, token, method, path string, query url.Values, body, out interface{}) error {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter wait: %w", err)
	}

	endpoint := c.BaseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return parseAPIError(resp.StatusCode, respBody)
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
	}

	return nil
}
