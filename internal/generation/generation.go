package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/yassineco/assistant-core/internal/models"
)

// Provider turns a query plus ranked context chunks into generated text.
// Its behavior is external; the core only hands it an ordered, scored
// chunk list and relays the answer.
type Provider interface {
	Generate(ctx context.Context, query string, results []models.SearchResult) (string, error)
}

// Client posts the query and ranked chunks to a generation backend.
type Client struct {
	baseURL string
	client  *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

func (c *Client) Generate(ctx context.Context, query string, results []models.SearchResult) (string, error) {
	type contextChunk struct {
		Content  string                  `json:"content"`
		Score    float64                 `json:"score"`
		Metadata models.DocumentMetadata `json:"metadata"`
	}
	chunks := make([]contextChunk, len(results))
	for i, r := range results {
		chunks[i] = contextChunk{Content: r.Chunk.Content, Score: r.Score, Metadata: r.Chunk.Metadata}
	}

	body, _ := json.Marshal(map[string]any{
		"query":   query,
		"context": chunks,
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/generate", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("generation backend failed: %s", resp.Status)
	}

	var out struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	return out.Text, nil
}
