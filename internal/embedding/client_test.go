package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func embeddingServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	return NewClient(ClientConfig{BaseURL: ts.URL, APIKey: "test-key", Model: "test-model"})
}

func TestEmbedSuccess(t *testing.T) {
	client := embeddingServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req struct {
			Input []string `json:"input"`
			Model string   `json:"model"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model)

		type item struct {
			Embedding []float64 `json:"embedding"`
		}
		data := make([]item, len(req.Input))
		for i := range data {
			data[i] = item{Embedding: []float64{float64(i), 1}}
		}
		json.NewEncoder(w).Encode(map[string]any{"data": data})
	})

	vectors, err := client.Embed(context.Background(), []string{"one", "two"})
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	assert.Equal(t, []float64{0, 1}, vectors[0])
	assert.Equal(t, []float64{1, 1}, vectors[1])
}

func TestEmbedEmptyInput(t *testing.T) {
	client := embeddingServer(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected for empty input")
	})
	vectors, err := client.Embed(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, vectors)
}

func TestEmbedRateLimitedIsRetryable(t *testing.T) {
	client := embeddingServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})
	_, err := client.Embed(context.Background(), []string{"text"})

	var pe *ProviderError
	require.ErrorAs(t, err, &pe)
	assert.True(t, pe.Retryable)
	assert.Equal(t, http.StatusTooManyRequests, pe.Status)
	assert.True(t, IsRetryable(err))
}

func TestEmbedServerErrorIsRetryable(t *testing.T) {
	client := embeddingServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	_, err := client.Embed(context.Background(), []string{"text"})
	assert.True(t, IsRetryable(err))
}

func TestEmbedClientErrorIsFatal(t *testing.T) {
	client := embeddingServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})
	_, err := client.Embed(context.Background(), []string{"text"})

	var pe *ProviderError
	require.ErrorAs(t, err, &pe)
	assert.False(t, pe.Retryable)
	assert.False(t, IsRetryable(err))
}

func TestEmbedCountMismatchIsFatal(t *testing.T) {
	client := embeddingServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"data": []any{}})
	})
	_, err := client.Embed(context.Background(), []string{"one", "two"})

	var pe *ProviderError
	require.ErrorAs(t, err, &pe)
	assert.False(t, pe.Retryable)
}

func TestEmbedCancelledContext(t *testing.T) {
	client := embeddingServer(t, func(w http.ResponseWriter, r *http.Request) {})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Embed(ctx, []string{"text"})
	assert.ErrorIs(t, err, context.Canceled)
}
