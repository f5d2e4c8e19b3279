// Package gateway is the boundary to the local Ollama inference service.
// It speaks the /api/tags and /api/generate wire contract directly and
// classifies transport failures so callers can distinguish an unreachable
// service from a slow one.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"
)

// Model describes one model available on the inference service.
type Model struct {
	Name       string    `json:"name"`
	Size       int64     `json:"size"`
	Digest     string    `json:"digest"`
	ModifiedAt time.Time `json:"modified_at"`
}

// GenerateCommand carries the parameters for one text generation call.
// MaxTokens is optional; nil leaves the model's default in place.
type GenerateCommand struct {
	Model       string
	Prompt      string
	Temperature float64
	TopP        float64
	MaxTokens   *int
	JSONFormat  bool
	Stream      bool
}

// System defines the public contract for inference service operations.
type System interface {
	// HealthCheck reports whether the service responds within the health
	// timeout. It never shares a deadline with generation calls.
	HealthCheck(ctx context.Context) bool
	// ListModels returns available models, serving a cached copy within
	// the configured TTL.
	ListModels(ctx context.Context) ([]Model, error)
	// ClearCache forces the next ListModels call to re-fetch.
	ClearCache()
	// Generate runs one text completion and returns the raw response text.
	Generate(ctx context.Context, cmd GenerateCommand) (string, error)
}

type client struct {
	baseURL         string
	http            *http.Client
	generateTimeout time.Duration
	healthTimeout   time.Duration
	cacheTTL        time.Duration
	now             func() time.Time
	logger          *slog.Logger

	mu        sync.Mutex
	models    []Model
	fetchedAt time.Time
}

// New creates a gateway client from the given configuration.
func New(cfg *Config, logger *slog.Logger) System {
	return NewWithClock(cfg, logger, time.Now)
}

// NewWithClock creates a gateway client with an injected clock, used by
// tests to exercise cache expiry deterministically.
func NewWithClock(cfg *Config, logger *slog.Logger, now func() time.Time) System {
	return &client{
		baseURL:         cfg.BaseURL,
		http:            &http.Client{},
		generateTimeout: cfg.TimeoutDuration(),
		healthTimeout:   cfg.HealthTimeoutDuration(),
		cacheTTL:        cfg.CacheTTLDuration(),
		now:             now,
		logger:          logger.With("system", "gateway"),
	}
}

func (c *client) HealthCheck(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, c.healthTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return false
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	return resp.StatusCode == http.StatusOK
}

type tagsResponse struct {
	Models []Model `json:"models"`
}

func (c *client) ListModels(ctx context.Context) ([]Model, error) {
	c.mu.Lock()
	if c.models != nil && c.now().Sub(c.fetchedAt) < c.cacheTTL {
		cached := c.models
		c.mu.Unlock()
		return cached, nil
	}
	c.mu.Unlock()

	models, err := c.fetchModels(ctx)
	if err != nil {
		return nil, err
	}

	// Concurrent refreshes race harmlessly; last writer wins and staleness
	// stays bounded by the TTL.
	c.mu.Lock()
	c.models = models
	c.fetchedAt = c.now()
	c.mu.Unlock()

	return models, nil
}

func (c *client) ClearCache() {
	c.mu.Lock()
	c.models = nil
	c.fetchedAt = time.Time{}
	c.mu.Unlock()
}

func (c *client) fetchModels(ctx context.Context) ([]Model, error) {
	ctx, cancel := context.WithTimeout(ctx, c.generateTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return nil, fmt.Errorf("build tags request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, c.classifyTransport("list models", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("list models: unexpected status %d", resp.StatusCode)
	}

	var tags tagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return nil, fmt.Errorf("decode tags response: %w", err)
	}

	if tags.Models == nil {
		tags.Models = []Model{}
	}

	return tags.Models, nil
}

type generateOptions struct {
	NumPredict *int `json:"num_predict,omitempty"`
}

type generateRequest struct {
	Model       string          `json:"model"`
	Prompt      string          `json:"prompt"`
	Temperature float64         `json:"temperature"`
	TopP        float64         `json:"top_p"`
	Stream      bool            `json:"stream"`
	Options     generateOptions `json:"options"`
	Format      string          `json:"format,omitempty"`
}

type generateResponse struct {
	Model    string `json:"model"`
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

func (c *client) Generate(ctx context.Context, cmd GenerateCommand) (string, error) {
	if cmd.Stream {
		return "", ErrStreamingUnsupported
	}

	payload := generateRequest{
		Model:       cmd.Model,
		Prompt:      cmd.Prompt,
		Temperature: cmd.Temperature,
		TopP:        cmd.TopP,
		Stream:      false,
		Options:     generateOptions{NumPredict: cmd.MaxTokens},
	}
	if cmd.JSONFormat {
		payload.Format = "json"
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode generate request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.generateTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost,
		c.baseURL+"/api/generate",
		bytes.NewReader(body),
	)
	if err != nil {
		return "", fmt.Errorf("build generate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := c.now()
	resp, err := c.http.Do(req)
	if err != nil {
		return "", c.classifyTransport("generate", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("generate: unexpected status %d", resp.StatusCode)
	}

	var result generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode generate response: %w", err)
	}

	c.logger.Debug(
		"generation complete",
		"model", cmd.Model,
		"duration", time.Since(start),
	)

	return result.Response, nil
}

// classifyTransport maps low-level HTTP client failures onto the gateway's
// error taxonomy. Timeouts are checked before connection errors because a
// timed-out dial satisfies both.
func (c *client) classifyTransport(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s after %s", ErrTimeout, op, c.generateTimeout)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %s after %s", ErrTimeout, op, c.generateTimeout)
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return fmt.Errorf("%w: %v", ErrConnection, err)
	}

	return fmt.Errorf("%s: %w", op, err)
}
