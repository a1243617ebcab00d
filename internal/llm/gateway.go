package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"excel-interviewer/internal/domain"
)

const (
	defaultMaxAttempts = 3
	defaultBackoffBase = 4 * time.Second
	defaultBackoffCap  = 10 * time.Second

	generateTopK = 40
	generateTopP = 0.9
)

// timeoutFallback is returned when every attempt timed out. It parses as a
// structured value so downstream extraction still succeeds with an explicit
// "timed out" semantic instead of an error.
const timeoutFallback = `{
  "executive_summary": "Report generation timed out.",
  "proficiency_level": "unknown",
  "strengths": [],
  "weaknesses": [],
  "recommendations": [],
  "detailed_analysis": "The LLM did not respond in time. Please try again later.",
  "next_steps": ""
}`

// Client calls an Ollama-compatible backend's /api/generate endpoint with
// bounded retries. Only connection/timeout-class failures and empty payloads
// are retried; a backend-reported error status propagates as domain.ErrUpstream.
type Client struct {
	apiURL      string
	model       string
	httpClient  *http.Client
	maxAttempts int
	backoffBase time.Duration
	backoffCap  time.Duration
	sleep       func(time.Duration)
	logger      *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout bounds each individual backend call.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithRetry overrides attempt count and backoff bounds.
func WithRetry(attempts int, base, ceil time.Duration) Option {
	return func(c *Client) {
		if attempts > 0 {
			c.maxAttempts = attempts
		}
		if base > 0 {
			c.backoffBase = base
		}
		if ceil > 0 {
			c.backoffCap = ceil
		}
	}
}

// WithSleep replaces the backoff sleep, so tests can run retries without delay.
func WithSleep(sleep func(time.Duration)) Option {
	return func(c *Client) { c.sleep = sleep }
}

// NewClient builds a client for the backend at baseURL (the /api/generate
// path is appended).
func NewClient(baseURL, model string, logger *zap.Logger, opts ...Option) *Client {
	c := &Client{
		apiURL:      strings.TrimRight(baseURL, "/") + "/api/generate",
		model:       model,
		httpClient:  &http.Client{Timeout: 60 * time.Second},
		maxAttempts: defaultMaxAttempts,
		backoffBase: defaultBackoffBase,
		backoffCap:  defaultBackoffCap,
		sleep:       time.Sleep,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type generateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	Options generateOptions `json:"options"`
	Stream  bool            `json:"stream"`
}

type generateOptions struct {
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
	TopK        int     `json:"top_k"`
	TopP        float64 `json:"top_p"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// Generate sends the prompt to the backend and returns the raw completion
// text. When all attempts time out it returns the canned fallback payload
// with a nil error; the interview flow must never halt on a slow backend.
func (c *Client) Generate(ctx context.Context, prompt string, maxTokens int, temperature float64) (string, error) {
	body, err := json.Marshal(generateRequest{
		Model:  c.model,
		Prompt: prompt,
		Options: generateOptions{
			Temperature: temperature,
			MaxTokens:   maxTokens,
			TopK:        generateTopK,
			TopP:        generateTopP,
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal generate request: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if attempt > 1 {
			c.sleep(c.backoff(attempt - 1))
		}
		if ctx.Err() != nil {
			return "", fmt.Errorf("%w: %v", domain.ErrUpstreamTimeout, ctx.Err())
		}

		content, err := c.doGenerate(ctx, body)
		if err == nil {
			return content, nil
		}
		if !isRetryable(err) {
			return "", err
		}
		lastErr = err
		c.logger.Warn("generation attempt failed",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", c.maxAttempts),
			zap.Error(err),
		)
	}

	c.logger.Error("generation retries exhausted, using timeout fallback", zap.Error(lastErr))
	return timeoutFallback, nil
}

func (c *Client) doGenerate(ctx context.Context, body []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build generate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	c.logger.Debug("llm request", zap.String("model", c.model), zap.Int("body_bytes", len(body)))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &transportError{err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", fmt.Errorf("%w: status %d: %s", domain.ErrUpstream, resp.StatusCode, strings.TrimSpace(string(payload)))
	}

	var decoded generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", domain.ErrUpstream, err)
	}

	content := strings.TrimSpace(decoded.Response)
	if content == "" {
		return "", &transportError{err: fmt.Errorf("empty response from backend")}
	}

	c.logger.Debug("llm response", zap.Int("response_length", len(content)))
	return content, nil
}

// backoff doubles the base delay per retry, capped.
func (c *Client) backoff(retry int) time.Duration {
	d := c.backoffBase << (retry - 1)
	if d > c.backoffCap || d <= 0 {
		d = c.backoffCap
	}
	return d
}

// transportError wraps connection/timeout-class failures (and empty payloads,
// which are treated identically). These are the only retryable errors.
type transportError struct {
	err error
}

func (e *transportError) Error() string { return e.err.Error() }
func (e *transportError) Unwrap() error { return e.err }

func isRetryable(err error) bool {
	var te *transportError
	if errors.As(err, &te) {
		return true
	}
	var ue *url.Error
	return errors.As(err, &ue)
}
