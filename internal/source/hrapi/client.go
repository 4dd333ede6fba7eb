package hrapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/nhle/casewatch/internal/source"
)

// renewPath is the token renewal endpoint, relative to the API root.
const renewPath = "/auth/renovar-token/"

// errUnauthorized marks a 401 response inside the client.
var errUnauthorized = errors.New("unauthorized (401)")

// Client is a thin HTTP client for the HR REST API.
// It handles Token authentication with one renewal attempt on 401, JSON
// marshaling, and automatic retry with exponential backoff on HTTP 429.
type Client struct {
	baseURL    string
	httpClient *http.Client
	maxRetries int

	mu    sync.RWMutex
	token string

	// onRenew is called with the new token after a successful renewal.
	onRenew func(token string)
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// WithMaxRetries sets how many times a 429 response is retried.
func WithMaxRetries(n int) ClientOption {
	return func(c *Client) { c.maxRetries = n }
}

// OnTokenRenewed registers fn to receive renewed tokens, e.g. to write them
// back to the keyring.
func OnTokenRenewed(fn func(token string)) ClientOption {
	return func(c *Client) { c.onRenew = fn }
}

// NewClient creates a new HR API client. The baseURL is the API root
// (e.g., http://localhost:8000/api). An empty token sends no Authorization
// header.
func NewClient(baseURL, token string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		maxRetries: 3,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Token returns the token currently in use.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// Get performs an HTTP GET request and unmarshals the JSON response.
// A 401 triggers one token renewal followed by a single retry.
func (c *Client) Get(
	ctx context.Context,
	path string,
	result interface{},
) error {
	err := c.do(ctx, http.MethodGet, path, nil, result)
	if !errors.Is(err, errUnauthorized) {
		return err
	}

	if renewErr := c.renewToken(ctx); renewErr != nil {
		return &source.AuthError{
			SourceType: source.SourceTypeHRAPI,
			Message:    fmt.Sprintf("token expired and renewal failed: %v", renewErr),
		}
	}

	err = c.do(ctx, http.MethodGet, path, nil, result)
	if errors.Is(err, errUnauthorized) {
		return &source.AuthError{
			SourceType: source.SourceTypeHRAPI,
			Message:    "token rejected after renewal",
		}
	}
	return err
}

// renewResponse is the body of POST /auth/renovar-token/.
type renewResponse struct {
	Token string `json:"token"`
}

// renewToken exchanges the current token for a fresh one.
func (c *Client) renewToken(ctx context.Context) error {
	if c.Token() == "" {
		return errors.New("no token to renew")
	}

	var resp renewResponse
	if err := c.do(ctx, http.MethodPost, renewPath, struct{}{}, &resp); err != nil {
		return fmt.Errorf("renewing token: %w", err)
	}
	if resp.Token == "" {
		return errors.New("renewing token: response carried no token")
	}

	c.mu.Lock()
	c.token = resp.Token
	c.mu.Unlock()

	if c.onRenew != nil {
		c.onRenew(resp.Token)
	}
	return nil
}

// do is the core HTTP method that builds the request, handles auth,
// rate limiting with exponential backoff, and JSON (de)serialization.
func (c *Client) do(
	ctx context.Context,
	method string,
	path string,
	body interface{},
	result interface{},
) error {
	url := c.baseURL + path

	var payload []byte
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		payload = data
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		var bodyReader io.Reader
		if payload != nil {
			bodyReader = bytes.NewReader(payload)
		}

		req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}

		if token := c.Token(); token != "" {
			req.Header.Set("Authorization", "Token "+token)
		}
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("executing request %s %s: %w", method, path, err)
		}

		respBody, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			return fmt.Errorf("reading response body: %w", readErr)
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			waitDuration := retryAfterDuration(resp, attempt)
			lastErr = fmt.Errorf("rate limited (429) on %s %s", method, path)

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(waitDuration):
				continue
			}
		}

		if resp.StatusCode == http.StatusUnauthorized {
			return fmt.Errorf("%s %s: %w", method, path, errUnauthorized)
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			if msg := errorMessage(respBody); msg != "" {
				return fmt.Errorf(
					"hr API error (%d) on %s %s: %s",
					resp.StatusCode, method, path, msg,
				)
			}
			return fmt.Errorf(
				"unexpected status %d on %s %s: %s",
				resp.StatusCode, method, path, string(respBody),
			)
		}

		// No content to parse (e.g. 204).
		if result == nil || resp.StatusCode == http.StatusNoContent {
			return nil
		}

		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf(
				"unmarshaling response from %s %s: %w",
				method, path, err,
			)
		}

		return nil
	}

	return fmt.Errorf("max retries (%d) exceeded: %w", c.maxRetries, lastErr)
}

// errorMessage extracts the first non-empty message the backend uses in
// error bodies.
func errorMessage(body []byte) string {
	var e ErrorResponse
	if json.Unmarshal(body, &e) != nil {
		return ""
	}
	for _, m := range []string{e.Message, e.Detail, e.Error} {
		if m != "" {
			return m
		}
	}
	if len(e.NonFieldErrors) > 0 {
		return e.NonFieldErrors[0]
	}
	return ""
}

// retryAfterDuration reads the Retry-After header and computes a wait
// duration. Falls back to exponential backoff if the header is missing.
func retryAfterDuration(resp *http.Response, attempt int) time.Duration {
	if header := resp.Header.Get("Retry-After"); header != "" {
		if seconds, err := strconv.Atoi(header); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}

	// Exponential backoff: 1s, 2s, 4s, ...
	backoff := time.Duration(1<<uint(attempt)) * time.Second
	if backoff > 30*time.Second {
		backoff = 30 * time.Second
	}
	return backoff
}
