// Package llm provides a provider-agnostic chat completion client with
// opt-in bounded retry and client-side rate limiting. Providers register
// themselves from the providers package.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// maxResponseSize limits the LLM response body to prevent memory exhaustion.
const maxResponseSize = 1 << 20

// Endpoint identifies the model server a Client talks to.
type Endpoint struct {
	// Provider is a registered provider name ("openai", "ollama", "anthropic").
	Provider string

	// URL is the provider base URL. Empty uses the provider default.
	URL string

	// Model is the model name sent with every request.
	Model string

	// APIKey overrides the provider's environment variable when set.
	APIKey string
}

// Client sends completion requests to one endpoint.
type Client struct {
	endpoint    Endpoint
	httpClient  *http.Client
	retryConfig RetryConfig
	limiter     *rate.Limiter
	logger      *slog.Logger
}

// Message represents a chat message.
type Message struct {
	Role    string `json:"role"`    // "system", "user", or "assistant"
	Content string `json:"content"` // Message content
}

// Request defines an LLM completion request.
type Request struct {
	// Messages is the chat history to send to the LLM.
	Messages []Message

	// Temperature controls randomness. nil uses endpoint default, 0 is deterministic.
	Temperature *float64

	// MaxTokens limits response length. 0 uses endpoint default.
	MaxTokens int
}

// Response is the outcome of one Complete call.
type Response struct {
	// RequestID uniquely identifies this call in logs.
	RequestID string

	// Content is the generated text.
	Content string

	// Model is the endpoint model the request was sent to.
	Model string

	// Attempts is how many HTTP requests the call took.
	Attempts int
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(client *Client) {
		client.httpClient = c
	}
}

// WithRetryConfig sets the retry configuration.
func WithRetryConfig(cfg RetryConfig) ClientOption {
	return func(client *Client) {
		client.retryConfig = cfg
	}
}

// WithRateLimit caps outgoing requests per second. Zero or less disables
// the limit.
func WithRateLimit(perSecond float64, burst int) ClientOption {
	return func(client *Client) {
		if perSecond <= 0 {
			client.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		client.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(client *Client) {
		client.logger = logger
	}
}

// NewClient creates a client for endpoint.
func NewClient(endpoint Endpoint, opts ...ClientOption) *Client {
	c := &Client{
		endpoint:    endpoint,
		retryConfig: DefaultRetryConfig(),
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Endpoint returns the configured endpoint.
func (c *Client) Endpoint() Endpoint {
	return c.endpoint
}

// Complete sends a completion request, retrying transient failures.
func (c *Client) Complete(ctx context.Context, req Request) (*Response, error) {
	if len(req.Messages) == 0 {
		return nil, fmt.Errorf("at least one message is required")
	}

	provider, ok := Lookup(c.endpoint.Provider)
	if !ok {
		return nil, NewFatalError(fmt.Errorf("unknown provider: %s", c.endpoint.Provider))
	}

	requestID := uuid.New().String()
	startedAt := time.Now()

	resp, attempts, err := c.completeWithRetry(ctx, provider, req)
	if err != nil {
		c.logger.Debug("LLM request failed",
			"request_id", requestID,
			"model", c.endpoint.Model,
			"attempts", attempts,
			"error", err)
		return nil, err
	}

	resp.RequestID = requestID
	resp.Attempts = attempts
	c.logger.Debug("LLM request completed",
		"request_id", requestID,
		"model", resp.Model,
		"attempts", attempts,
		"chars", len(resp.Content),
		"duration", time.Since(startedAt))
	return resp, nil
}

// completeWithRetry attempts a request with retry logic and returns the attempt count.
func (c *Client) completeWithRetry(ctx context.Context, provider Provider, req Request) (*Response, int, error) {
	var lastErr error
	maxAttempts := max(c.retryConfig.MaxAttempts, 1)

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, attempt - 1, err
			}
		}

		resp, err := c.doRequest(ctx, provider, req)
		if err == nil {
			return resp, attempt, nil
		}
		lastErr = err

		if IsFatal(err) {
			return nil, attempt, err
		}

		if attempt < maxAttempts {
			backoff := c.calculateBackoff(attempt)
			c.logger.Debug("Request failed, retrying",
				"attempt", attempt,
				"max_attempts", maxAttempts,
				"backoff", backoff,
				"error", err)

			select {
			case <-ctx.Done():
				return nil, attempt, ctx.Err()
			case <-time.After(backoff):
			}
		}
	}

	return nil, maxAttempts, lastErr
}

// calculateBackoff computes exponential backoff duration with +/-25% jitter.
func (c *Client) calculateBackoff(attempt int) time.Duration {
	multiplier := 1.0
	for i := 1; i < attempt; i++ {
		multiplier *= c.retryConfig.BackoffMultiplier
	}

	backoff := time.Duration(float64(c.retryConfig.BackoffBase) * multiplier)
	if backoff > c.retryConfig.MaxBackoff {
		backoff = c.retryConfig.MaxBackoff
	}

	jitter := float64(backoff) * 0.25 * (rand.Float64()*2 - 1)
	return backoff + time.Duration(jitter)
}

// doRequest executes a single HTTP request to the LLM endpoint.
func (c *Client) doRequest(ctx context.Context, provider Provider, req Request) (*Response, error) {
	httpReq, err := provider.NewRequest(ctx, c.endpoint, req)
	if err != nil {
		return nil, NewFatalError(fmt.Errorf("build %s request: %w", provider.Name(), err))
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, NewTransientError(fmt.Errorf("HTTP request failed: %w", err))
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseSize))
	if err != nil {
		return nil, NewTransientError(fmt.Errorf("read response body: %w", err))
	}

	if httpResp.StatusCode != http.StatusOK {
		return nil, ClassifyHTTPError(provider.Name(), httpResp.StatusCode, respBody)
	}

	content, err := provider.Decode(respBody)
	if err != nil {
		return nil, NewFatalError(fmt.Errorf("decode %s response: %w", provider.Name(), err))
	}
	return &Response{Content: content, Model: c.endpoint.Model}, nil
}

// PostJSON builds a JSON POST for providers.
func PostJSON(ctx context.Context, url string, body any) (*http.Request, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}
