package query

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/yassineco/assistant-core/internal/embedding"
	"github.com/yassineco/assistant-core/internal/index"
	"github.com/yassineco/assistant-core/internal/models"
)

// DimensionMismatchError means the provider returned a query vector whose
// dimension differs from the index's.
type DimensionMismatchError struct {
	Want int
	Got  int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("query embedding dimension %d does not match index dimension %d", e.Got, e.Want)
}

// Snapshotter hands out the index currently in service. The engine never
// holds an index itself; each search captures a snapshot and works against
// it even if a swap happens mid-flight.
type Snapshotter interface {
	Current() *models.Index
}

// Engine ranks index chunks against a query by cosine similarity.
type Engine struct {
	provider embedding.Provider
	idx      Snapshotter
}

func NewEngine(provider embedding.Provider, idx Snapshotter) *Engine {
	return &Engine{provider: provider, idx: idx}
}

const DefaultTopK = 5

// Search embeds the query and returns the topK most similar chunks, highest
// score first. Results scoring below minScore are dropped when minScore is
// non-nil. Ties rank by lower sequence index, then by document insertion
// order, so repeated calls return the same order. Cost is linear in index
// size.
func (e *Engine) Search(ctx context.Context, queryText string, topK int, minScore *float64) ([]models.SearchResult, error) {
	snapshot := e.idx.Current()
	if snapshot == nil {
		return nil, index.ErrIndexNotFound
	}
	if topK <= 0 {
		topK = DefaultTopK
	}

	vectors, err := e.provider.Embed(ctx, []string{queryText})
	if err != nil {
		return nil, err
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("provider returned %d vectors for one query", len(vectors))
	}
	qvec := vectors[0]
	if len(qvec) != snapshot.Dimension {
		return nil, &DimensionMismatchError{Want: snapshot.Dimension, Got: len(qvec)}
	}

	results := make([]models.SearchResult, 0, len(snapshot.Chunks))
	for _, chunk := range snapshot.Chunks {
		score := cosineSimilarity(qvec, chunk.Embedding)
		if minScore != nil && score < *minScore {
			continue
		}
		results = append(results, models.SearchResult{Chunk: chunk, Score: score})
	}

	// Index order is document insertion order then sequence index, so a
	// stable sort by score alone yields the full tie-break rule.
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if topK < len(results) {
		results = results[:topK]
	}
	return results, nil
}

func cosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}
