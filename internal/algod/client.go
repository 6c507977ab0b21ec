// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package algod

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ErrorType categorizes client errors.
type ErrorType int

const (
	ErrTypeUnknown ErrorType = iota
	ErrTypeNotRunning
	ErrTypeTimeout
	ErrTypeNotFound
	ErrTypeUnauthorized
	ErrTypeRejected
	ErrTypeInvalidResponse
	ErrTypeConfirmationTimeout
)

// ClientError is an error returned by the algod client.
type ClientError struct {
	Type    ErrorType
	Message string
	Status  int
	Cause   error
}

func (e *ClientError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *ClientError) Unwrap() error {
	return e.Cause
}

// Is matches any ClientError of the same type, so errors.Is works against
// the sentinels regardless of message.
func (e *ClientError) Is(target error) bool {
	t, ok := target.(*ClientError)
	return ok && t.Type != ErrTypeUnknown && t.Type == e.Type
}

// Sentinel errors.
var (
	ErrNotRunning = &ClientError{
		Type:    ErrTypeNotRunning,
		Message: "algod is not reachable. Start the sandbox with: algods startnet",
	}
	ErrTimeout = &ClientError{
		Type:    ErrTypeTimeout,
		Message: "algod request timed out",
	}
	ErrNotFound = &ClientError{
		Type:    ErrTypeNotFound,
		Message: "not found",
		Status:  http.StatusNotFound,
	}
	ErrUnauthorized = &ClientError{
		Type:    ErrTypeUnauthorized,
		Message: "algod rejected the API token",
		Status:  http.StatusUnauthorized,
	}
	ErrConfirmationTimeout = &ClientError{
		Type:    ErrTypeConfirmationTimeout,
		Message: "transaction not confirmed in time",
	}
)

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

// Default configuration values.
const (
	DefaultBaseURL    = "http://localhost:4001"
	DefaultTimeout    = 30 * time.Second
	DefaultMaxRetries = 2
	DefaultRetryDelay = 500 * time.Millisecond
	DefaultPollPerSec = 4

	tokenHeader = "X-Algo-API-Token"
)

// ClientConfig holds configuration for the algod client.
type ClientConfig struct {
	// BaseURL is the algod endpoint (default: http://localhost:4001)
	BaseURL string

	// Token is sent in the X-Algo-API-Token header
	Token string

	// Timeout bounds each HTTP request
	Timeout time.Duration

	// MaxRetries applies to idempotent requests that hit 502/503/504
	MaxRetries int

	// RetryDelay is the delay between retries
	RetryDelay time.Duration

	// PollPerSec paces WaitForConfirmation
	PollPerSec float64
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() *ClientConfig {
	return &ClientConfig{
		BaseURL:    DefaultBaseURL,
		Timeout:    DefaultTimeout,
		MaxRetries: DefaultMaxRetries,
		RetryDelay: DefaultRetryDelay,
		PollPerSec: DefaultPollPerSec,
	}
}

// =============================================================================
// CLIENT
// =============================================================================

// Client is an algod v2 API client. It is safe for concurrent use.
type Client struct {
	config     *ClientConfig
	httpClient *http.Client
}

// NewClient creates a client. Zero fields of config take defaults; a nil
// config means DefaultConfig.
func NewClient(config *ClientConfig) *Client {
	if config == nil {
		config = DefaultConfig()
	}
	cfg := *config
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = DefaultRetryDelay
	}
	if cfg.PollPerSec <= 0 {
		cfg.PollPerSec = DefaultPollPerSec
	}

	return &Client{
		config: &cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// BaseURL returns the configured endpoint.
func (c *Client) BaseURL() string {
	return c.config.BaseURL
}

// =============================================================================
// REQUEST PLUMBING
// =============================================================================

type request struct {
	method      string
	path        string
	body        []byte
	contentType string
}

// do sends req and decodes a JSON response into out (when non-nil).
func (c *Client) do(ctx context.Context, req request, out interface{}) error {
	attempts := 1
	if req.method == http.MethodGet {
		attempts += c.config.MaxRetries
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return &ClientError{Type: ErrTypeTimeout, Message: "request cancelled", Cause: ctx.Err()}
			case <-time.After(c.config.RetryDelay):
			}
		}

		retry, err := c.once(ctx, req, out)
		if err == nil {
			return nil
		}
		lastErr = err
		if !retry {
			break
		}
	}
	return lastErr
}

func (c *Client) once(ctx context.Context, req request, out interface{}) (bool, error) {
	var body io.Reader
	if req.body != nil {
		body = bytes.NewReader(req.body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, c.config.BaseURL+req.path, body)
	if err != nil {
		return false, &ClientError{Type: ErrTypeUnknown, Message: "failed to create request", Cause: err}
	}
	if c.config.Token != "" {
		httpReq.Header.Set(tokenHeader, c.config.Token)
	}
	if req.contentType != "" {
		httpReq.Header.Set("Content-Type", req.contentType)
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return false, &ClientError{Type: ErrTypeTimeout, Message: ErrTimeout.Message, Cause: err}
		}
		var netErr interface{ Timeout() bool }
		if errors.As(err, &netErr) && netErr.Timeout() {
			return false, &ClientError{Type: ErrTypeTimeout, Message: ErrTimeout.Message, Cause: err}
		}
		return false, &ClientError{Type: ErrTypeNotRunning, Message: ErrNotRunning.Message, Cause: err}
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil {
			return false, nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return false, &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to decode algod response", Cause: err}
		}
		return false, nil
	}

	msg := readErrorMessage(resp.Body)
	switch resp.StatusCode {
	case http.StatusNotFound:
		if msg == "" {
			msg = ErrNotFound.Message
		}
		return false, &ClientError{Type: ErrTypeNotFound, Message: msg, Status: resp.StatusCode}
	case http.StatusUnauthorized, http.StatusForbidden:
		return false, &ClientError{Type: ErrTypeUnauthorized, Message: ErrUnauthorized.Message, Status: resp.StatusCode}
	case http.StatusBadRequest:
		return false, &ClientError{Type: ErrTypeRejected, Message: msg, Status: resp.StatusCode}
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true, &ClientError{
			Type:    ErrTypeNotRunning,
			Message: fmt.Sprintf("algod unavailable: %s", resp.Status),
			Status:  resp.StatusCode,
		}
	}
	if msg == "" {
		msg = resp.Status
	}
	return false, &ClientError{
		Type:    ErrTypeInvalidResponse,
		Message: fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, msg),
		Status:  resp.StatusCode,
	}
}

// readErrorMessage extracts algod's {"message": ...} body, falling back to
// the raw text.
func readErrorMessage(r io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(r, 64*1024))
	if err != nil || len(raw) == 0 {
		return ""
	}
	var er errorResponse
	if json.Unmarshal(raw, &er) == nil && er.Message != "" {
		return er.Message
	}
	return strings.TrimSpace(string(raw))
}

// drainAndClose drains the body so the connection can be reused.
func drainAndClose(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(body, 1<<20))
	body.Close()
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsNotRunning reports whether err means algod could not be reached.
func IsNotRunning(err error) bool {
	return errors.Is(err, ErrNotRunning)
}

// IsTimeout reports whether err is a request timeout.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}

// IsNotFound reports whether err is a 404 from algod.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsRejected reports whether algod refused the request as invalid.
func IsRejected(err error) bool {
	var ce *ClientError
	return errors.As(err, &ce) && ce.Type == ErrTypeRejected
}
