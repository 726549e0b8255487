package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// Client talks to an OpenAI-compatible embeddings endpoint. Network errors
// and 429/5xx responses are reported as retryable; other non-2xx responses
// are fatal. Requests are paced by a client-side rate limiter so bursts of
// build batches do not trip the provider's limits in the first place.
type Client struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
	limiter *rate.Limiter
}

type ClientConfig struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
	// RequestsPerSecond caps outbound request rate; 0 means unlimited.
	RequestsPerSecond float64
}

func NewClient(cfg ClientConfig) *Client {
	if cfg.Model == "" {
		cfg.Model = "text-embedding-3-small"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(limit, 1),
	}
}

func (c *Client) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	body, _ := json.Marshal(map[string]any{
		"input": texts,
		"model": c.model,
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &ProviderError{Retryable: true, Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return nil, &ProviderError{Status: resp.StatusCode, Retryable: true, Message: resp.Status}
	}
	if resp.StatusCode >= 300 {
		return nil, &ProviderError{Status: resp.StatusCode, Retryable: false, Message: resp.Status}
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ProviderError{Retryable: true, Message: err.Error()}
	}

	var out struct {
		Data []struct {
			Embedding []float64 `json:"embedding"`
		} `json:"data"`
	}
	if err := json.Unmarshal(payload, &out); err != nil {
		return nil, &ProviderError{Status: resp.StatusCode, Retryable: false, Message: err.Error()}
	}
	if len(out.Data) != len(texts) {
		return nil, &ProviderError{
			Status:    resp.StatusCode,
			Retryable: false,
			Message:   fmt.Sprintf("expected %d embeddings, got %d", len(texts), len(out.Data)),
		}
	}

	vectors := make([][]float64, len(out.Data))
	for i, d := range out.Data {
		if len(d.Embedding) == 0 {
			return nil, &ProviderError{Status: resp.StatusCode, Retryable: false, Message: "empty embedding in response"}
		}
		vectors[i] = d.Embedding
	}
	return vectors, nil
}
