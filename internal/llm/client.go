// Package llm calls a hosted chat-completion model over the OpenAI wire
// protocol.
package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/Bharathkumar-ms/Medical-Chatbot/internal/domain"
)

const (
	DefaultBaseURL = "https://api.groq.com/openai/v1"
	DefaultModel   = "gemma2-9b-it"
)

// Config configures the completion client.
type Config struct {
	BaseURL     string
	APIKeyEnv   string
	Model       string
	Temperature float32
	// Timeout bounds a single completion call; zero means no timeout.
	Timeout    time.Duration
	MaxRetries int
	// RateLimit is the maximum number of calls per second; zero disables it.
	RateLimit float64
	Logger    *slog.Logger
}

// Client implements domain.Completer.
type Client struct {
	client      *openai.Client
	model       string
	temperature float32
	timeout     time.Duration
	maxRetries  int
	retryBase   time.Duration
	limiter     *rate.Limiter
	logger      *slog.Logger
}

// New creates a completion client. The API key is read from the environment
// variable named by cfg.APIKeyEnv; an empty key is domain.ErrMissingCredential.
func New(cfg Config) (*Client, error) {
	if cfg.APIKeyEnv == "" {
		cfg.APIKeyEnv = "GROQ_API_KEY"
	}
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("llm: %w: %s is not set", domain.ErrMissingCredential, cfg.APIKeyEnv)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	oc := openai.DefaultConfig(key)
	oc.BaseURL = cfg.BaseURL
	oc.HTTPClient = &http.Client{}

	c := &Client{
		client:      openai.NewClientWithConfig(oc),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		timeout:     cfg.Timeout,
		maxRetries:  cfg.MaxRetries,
		retryBase:   200 * time.Millisecond,
		logger:      cfg.Logger,
	}
	if cfg.RateLimit > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), 1)
	}
	return c, nil
}

func (c *Client) Model() string { return c.model }

// Complete sends prompt as a single user message and returns the first
// choice's text. Failures are returned as *domain.RemoteModelError.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := c.retryDelay(attempt - 1)
			c.logger.Warn("retrying completion", "model", c.model, "attempt", attempt, "delay", delay, "err", lastErr)
			select {
			case <-ctx.Done():
				return "", c.wrap(ctx.Err())
			case <-time.After(delay):
			}
		}
		text, err := c.complete(ctx, prompt)
		if err == nil {
			return text, nil
		}
		lastErr = err
		if !retryable(err) {
			break
		}
	}
	return "", c.wrap(lastErr)
}

func (c *Client) complete(ctx context.Context, prompt string) (string, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", err
		}
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: c.temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}

func (c *Client) wrap(err error) error {
	return &domain.RemoteModelError{Model: c.model, Err: err}
}

// retryDelay is exponential backoff capped at 5s.
func (c *Client) retryDelay(attempt int) time.Duration {
	d := c.retryBase << attempt
	if d > 5*time.Second {
		d = 5 * time.Second
	}
	return d
}

// retryable reports whether err is a rate limit, a server error or a
// transport failure. Other API errors (bad key, bad request) are final.
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusTooManyRequests || apiErr.HTTPStatusCode >= 500
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode == http.StatusTooManyRequests || reqErr.HTTPStatusCode >= 500
	}
	return true
}
