package chunker

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yassineco/assistant-core/internal/models"
)

func testDoc(content string) models.Document {
	return models.Document{
		Metadata: models.DocumentMetadata{
			SourceID: "doc1",
			Title:    "Test Document",
			Path:     "docs/test.md",
		},
		Content: content,
	}
}

func words(n int, prefix string) string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("%s%d", prefix, i)
	}
	return strings.Join(out, " ")
}

func TestChunkDeterministic(t *testing.T) {
	doc := testDoc(words(120, "alpha") + "\n\n" + words(80, "beta"))
	cfg := Config{MaxTokens: 50, OverlapTokens: 10, MinTokens: 8}

	first := Chunk(doc, cfg)
	second := Chunk(doc, cfg)

	require.Equal(t, first, second)
	require.NotEmpty(t, first)
}

func TestChunkTokenBudget(t *testing.T) {
	doc := testDoc(words(500, "w"))
	cfg := Config{MaxTokens: 60, OverlapTokens: 12, MinTokens: 10}

	chunks := Chunk(doc, cfg)
	require.NotEmpty(t, chunks)
	for _, c := range chunks {
		assert.LessOrEqual(t, c.TokenCount, cfg.MaxTokens, "chunk %s over budget", c.ID)
		assert.Equal(t, len(strings.Fields(c.Content)), c.TokenCount)
	}
}

func TestChunkOverlapInvariant(t *testing.T) {
	doc := testDoc(words(300, "tok"))
	cfg := Config{MaxTokens: 50, OverlapTokens: 8, MinTokens: 5}

	chunks := Chunk(doc, cfg)
	require.Greater(t, len(chunks), 1)

	for i := 1; i < len(chunks); i++ {
		prev := strings.Fields(chunks[i-1].Content)
		cur := strings.Fields(chunks[i].Content)
		require.GreaterOrEqual(t, len(cur), cfg.OverlapTokens)

		tail := prev[len(prev)-cfg.OverlapTokens:]
		head := cur[:cfg.OverlapTokens]
		assert.Equal(t, tail, head, "chunks %d and %d do not share the overlap", i-1, i)
	}
}

func TestChunkSequenceOrder(t *testing.T) {
	doc := testDoc(words(200, "s"))
	chunks := Chunk(doc, Config{MaxTokens: 40, OverlapTokens: 5, MinTokens: 5})

	for i, c := range chunks {
		assert.Equal(t, i, c.SequenceIndex)
		assert.Equal(t, fmt.Sprintf("doc1:%d", i), c.ID)
		assert.Equal(t, "doc1", c.DocumentID)
	}
}

func TestChunkHardSplitsOversizeSegment(t *testing.T) {
	// One paragraph far over budget must still be split.
	doc := testDoc(words(400, "big"))
	cfg := Config{MaxTokens: 30, OverlapTokens: 0, MinTokens: 5}

	chunks := Chunk(doc, cfg)
	require.Greater(t, len(chunks), 10)
	for _, c := range chunks {
		assert.LessOrEqual(t, c.TokenCount, cfg.MaxTokens)
	}
}

func TestChunkTailFloor(t *testing.T) {
	// 120 tokens at a 50-token budget would leave a 20-token tail, below
	// the 25-token floor; tokens are pulled back from the predecessor so
	// every chunk respects both bounds.
	doc := testDoc(words(120, "a"))
	cfg := Config{MaxTokens: 50, OverlapTokens: 0, MinTokens: 25}

	chunks := Chunk(doc, cfg)
	require.Greater(t, len(chunks), 1)
	total := 0
	for _, c := range chunks {
		assert.GreaterOrEqual(t, c.TokenCount, cfg.MinTokens)
		assert.LessOrEqual(t, c.TokenCount, cfg.MaxTokens)
		total += c.TokenCount
	}
	assert.Equal(t, 120, total)
}

func TestChunkSingleSmallDocument(t *testing.T) {
	doc := testDoc("just a few words here")
	chunks := Chunk(doc, Config{MaxTokens: 100, OverlapTokens: 10, MinTokens: 20})

	require.Len(t, chunks, 1)
	assert.Equal(t, 5, chunks[0].TokenCount)
}

func TestChunkEmptyDocument(t *testing.T) {
	chunks := Chunk(testDoc("   \n\n  "), DefaultConfig())
	assert.Empty(t, chunks)
}

func TestChunkSectionMetadata(t *testing.T) {
	doc := testDoc("# Intro\n\n" + words(10, "i") + "\n\n## Details\n\n" + words(10, "d"))
	chunks := Chunk(doc, Config{MaxTokens: 16, OverlapTokens: 0, MinTokens: 2, RespectHeadings: true})

	require.NotEmpty(t, chunks)
	assert.Equal(t, "Intro", chunks[0].Metadata.Section)
	last := chunks[len(chunks)-1]
	assert.Equal(t, "Details", last.Metadata.Section)
}
