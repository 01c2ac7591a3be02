// Package ollama embeds text with a local Ollama server.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Config configures the Ollama embeddings client.
type Config struct {
	BaseURL string
	Model   string
	Timeout time.Duration
}

// Client calls Ollama's /api/embeddings endpoint. The vector dimension is
// learned from the first response.
type Client struct {
	baseURL string
	model   string
	client  *http.Client

	mu        sync.RWMutex
	dimension int
}

type embedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type embedResponse struct {
	Embedding []float64 `json:"embedding"`
	Error     string    `json:"error,omitempty"`
}

func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:11434"
	}
	if cfg.Model == "" {
		cfg.Model = "all-minilm"
	}
	t := cfg.Timeout
	if t == 0 {
		t = 60 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		model:   cfg.Model,
		client:  &http.Client{Timeout: t},
	}
}

func (c *Client) Name() string  { return "ollama" }
func (c *Client) Model() string { return c.model }

// Prepare is a no-op; the model is fixed and needs no corpus.
func (c *Client) Prepare([]string) error { return nil }

func (c *Client) Dimension() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.dimension
}

func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(embedRequest{Model: c.model, Prompt: text})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama embed: %w", err)
	}
	defer resp.Body.Close()

	var out embedResponse
	decodeErr := json.NewDecoder(resp.Body).Decode(&out)
	if resp.StatusCode != http.StatusOK {
		if out.Error != "" {
			return nil, fmt.Errorf("ollama embed: status %d: %s", resp.StatusCode, out.Error)
		}
		return nil, fmt.Errorf("ollama embed: status %d", resp.StatusCode)
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("ollama embed decode: %w", decodeErr)
	}
	if len(out.Embedding) == 0 {
		return nil, errors.New("ollama embed: empty embedding")
	}

	vec := make([]float32, len(out.Embedding))
	for i, v := range out.Embedding {
		vec[i] = float32(v)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.dimension == 0 {
		c.dimension = len(vec)
	} else if c.dimension != len(vec) {
		return nil, fmt.Errorf("ollama embed: dimension changed from %d to %d", c.dimension, len(vec))
	}
	return vec, nil
}
