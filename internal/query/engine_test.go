package query

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yassineco/assistant-core/internal/index"
	"github.com/yassineco/assistant-core/internal/models"
)

// stubProvider returns the same vector for every query.
type stubProvider struct {
	vector []float64
}

func (s *stubProvider) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for i := range out {
		out[i] = s.vector
	}
	return out, nil
}

type fixedSnapshot struct {
	idx *models.Index
}

func (f *fixedSnapshot) Current() *models.Index { return f.idx }

func chunkWithEmbedding(docID string, seq int, vec []float64) models.Chunk {
	return models.Chunk{
		ID:            docID + ":" + string(rune('0'+seq)),
		DocumentID:    docID,
		Content:       "chunk " + docID,
		TokenCount:    2,
		SequenceIndex: seq,
		Embedding:     vec,
	}
}

func testIndex() *models.Index {
	return &models.Index{
		Version:   "v1",
		Dimension: 3,
		Chunks: []models.Chunk{
			chunkWithEmbedding("doc1", 0, []float64{1, 0, 0}),
			chunkWithEmbedding("doc1", 1, []float64{0, 1, 0}),
			chunkWithEmbedding("doc2", 0, []float64{0.6, 0.8, 0}),
		},
	}
}

func TestSearchRanksByCosine(t *testing.T) {
	engine := NewEngine(&stubProvider{vector: []float64{0, 1, 0}}, &fixedSnapshot{idx: testIndex()})

	results, err := engine.Search(context.Background(), "second chunk", 10, nil)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, 1, results[0].Chunk.SequenceIndex)
	assert.Equal(t, "doc1", results[0].Chunk.DocumentID)
	assert.InDelta(t, 1.0, results[0].Score, 1e-9)
	assert.InDelta(t, 0.8, results[1].Score, 1e-9)
	assert.Equal(t, "doc2", results[1].Chunk.DocumentID)
	assert.InDelta(t, 0.0, results[2].Score, 1e-9)
}

func TestSearchTopKAndMinScore(t *testing.T) {
	engine := NewEngine(&stubProvider{vector: []float64{0, 1, 0}}, &fixedSnapshot{idx: testIndex()})

	min := 0.9
	results, err := engine.Search(context.Background(), "q", 1, &min)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.InDelta(t, 1.0, results[0].Score, 1e-9)

	// A floor above every score yields an empty, non-error result.
	min = 1.5
	results, err = engine.Search(context.Background(), "q", 5, &min)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchTieBreaksByIndexOrder(t *testing.T) {
	idx := &models.Index{
		Version:   "v1",
		Dimension: 2,
		Chunks: []models.Chunk{
			chunkWithEmbedding("doc1", 0, []float64{1, 0}),
			chunkWithEmbedding("doc1", 1, []float64{1, 0}),
			chunkWithEmbedding("doc2", 0, []float64{1, 0}),
		},
	}
	engine := NewEngine(&stubProvider{vector: []float64{1, 0}}, &fixedSnapshot{idx: idx})

	results, err := engine.Search(context.Background(), "q", 10, nil)
	require.NoError(t, err)
	require.Len(t, results, 3)

	// All scores tie at 1.0; earlier sequence, then earlier document, wins.
	assert.Equal(t, "doc1", results[0].Chunk.DocumentID)
	assert.Equal(t, 0, results[0].Chunk.SequenceIndex)
	assert.Equal(t, "doc1", results[1].Chunk.DocumentID)
	assert.Equal(t, 1, results[1].Chunk.SequenceIndex)
	assert.Equal(t, "doc2", results[2].Chunk.DocumentID)
}

func TestSearchDeterministic(t *testing.T) {
	engine := NewEngine(&stubProvider{vector: []float64{0.3, 0.7, 0.1}}, &fixedSnapshot{idx: testIndex()})

	first, err := engine.Search(context.Background(), "q", 10, nil)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := engine.Search(context.Background(), "q", 10, nil)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestSearchDefaultTopK(t *testing.T) {
	chunks := make([]models.Chunk, 0, 8)
	for i := 0; i < 8; i++ {
		chunks = append(chunks, chunkWithEmbedding("doc1", i, []float64{1, 0}))
	}
	idx := &models.Index{Version: "v1", Dimension: 2, Chunks: chunks}
	engine := NewEngine(&stubProvider{vector: []float64{1, 0}}, &fixedSnapshot{idx: idx})

	results, err := engine.Search(context.Background(), "q", 0, nil)
	require.NoError(t, err)
	assert.Len(t, results, DefaultTopK)
}

func TestSearchWithoutIndex(t *testing.T) {
	engine := NewEngine(&stubProvider{vector: []float64{1, 0}}, &fixedSnapshot{idx: nil})
	_, err := engine.Search(context.Background(), "q", 5, nil)
	assert.ErrorIs(t, err, index.ErrIndexNotFound)
}

func TestSearchDimensionMismatch(t *testing.T) {
	engine := NewEngine(&stubProvider{vector: []float64{1, 0}}, &fixedSnapshot{idx: testIndex()})
	_, err := engine.Search(context.Background(), "q", 5, nil)

	var mismatch *DimensionMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, 3, mismatch.Want)
	assert.Equal(t, 2, mismatch.Got)
}
