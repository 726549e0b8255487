package chunker

import (
	"fmt"
	"strings"

	"github.com/yassineco/assistant-core/internal/models"
)

// Config controls how documents are split. Tokens are whitespace-delimited
// words, so the same input and config always produce the same chunks.
type Config struct {
	MaxTokens       int
	OverlapTokens   int
	MinTokens       int
	RespectHeadings bool
}

func DefaultConfig() Config {
	return Config{
		MaxTokens:       300,
		OverlapTokens:   30,
		MinTokens:       40,
		RespectHeadings: true,
	}
}

type segment struct {
	tokens  []string
	section string
}

// Chunk splits a document into overlapping, bounded-size chunks. Embeddings
// are left unset; the index build fills them in.
//
// The text is first cut along structural boundaries (headings, then blank
// lines), segments are greedily packed up to the token budget, and a
// segment that alone exceeds the budget is hard-split. Every chunk after
// the first starts with the trailing OverlapTokens tokens of its
// predecessor. A final chunk under MinTokens is folded into its predecessor
// when the result still fits MaxTokens.
func Chunk(doc models.Document, cfg Config) []models.Chunk {
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 300
	}
	if cfg.OverlapTokens < 0 {
		cfg.OverlapTokens = 0
	}
	if cfg.OverlapTokens >= cfg.MaxTokens {
		cfg.OverlapTokens = cfg.MaxTokens / 4
	}

	segments := split(doc.Content, cfg.RespectHeadings)
	if len(segments) == 0 {
		return nil
	}

	// Reserve room for the overlap prefix so TokenCount never exceeds
	// MaxTokens once it is prepended.
	budget := cfg.MaxTokens - cfg.OverlapTokens

	type packed struct {
		tokens  []string
		section string
	}
	var chunks []packed
	var cur packed

	flush := func() {
		if len(cur.tokens) > 0 {
			chunks = append(chunks, cur)
			cur = packed{}
		}
	}

	for _, seg := range segments {
		if cur.section == "" {
			cur.section = seg.section
		}
		if len(cur.tokens)+len(seg.tokens) <= budget {
			cur.tokens = append(cur.tokens, seg.tokens...)
			continue
		}
		flush()
		rest := seg.tokens
		for len(rest) > budget {
			chunks = append(chunks, packed{tokens: rest[:budget], section: seg.section})
			rest = rest[budget:]
		}
		cur = packed{tokens: rest, section: seg.section}
	}
	flush()

	// Fold an undersized tail into its predecessor when the result still
	// fits the budget; otherwise pull tokens back from the predecessor
	// until the tail reaches the floor. The hard size cap always wins.
	if n := len(chunks); n > 1 && len(chunks[n-1].tokens) < cfg.MinTokens {
		prev, last := chunks[n-2], chunks[n-1]
		if len(prev.tokens)+len(last.tokens) <= budget {
			prev.tokens = append(prev.tokens, last.tokens...)
			chunks[n-2] = prev
			chunks = chunks[:n-1]
		} else if need := cfg.MinTokens - len(last.tokens); len(prev.tokens)-need >= cfg.MinTokens {
			cut := len(prev.tokens) - need
			last.tokens = append(append([]string{}, prev.tokens[cut:]...), last.tokens...)
			prev.tokens = prev.tokens[:cut]
			chunks[n-2], chunks[n-1] = prev, last
		}
	}

	out := make([]models.Chunk, 0, len(chunks))
	var prev []string
	for i, c := range chunks {
		tokens := c.tokens
		if i > 0 && cfg.OverlapTokens > 0 {
			overlap := prev
			if len(overlap) > cfg.OverlapTokens {
				overlap = overlap[len(overlap)-cfg.OverlapTokens:]
			}
			tokens = append(append([]string{}, overlap...), tokens...)
		}
		meta := doc.Metadata
		meta.Section = c.section
		out = append(out, models.Chunk{
			ID:            fmt.Sprintf("%s:%d", doc.Metadata.SourceID, i),
			DocumentID:    doc.Metadata.SourceID,
			Content:       strings.Join(tokens, " "),
			TokenCount:    len(tokens),
			SequenceIndex: i,
			Metadata:      meta,
		})
		prev = tokens
	}
	return out
}

// split cuts text into heading-scoped paragraph segments. With headings
// disabled, only blank lines separate segments.
func split(content string, respectHeadings bool) []segment {
	var segs []segment
	section := ""
	for _, block := range strings.Split(content, "\n\n") {
		for _, part := range splitHeadings(block, respectHeadings) {
			tokens := strings.Fields(part.text)
			if len(tokens) == 0 {
				continue
			}
			if part.heading != "" {
				section = part.heading
			}
			segs = append(segs, segment{tokens: tokens, section: section})
		}
	}
	return segs
}

type headingPart struct {
	heading string
	text    string
}

func splitHeadings(block string, respectHeadings bool) []headingPart {
	if !respectHeadings {
		return []headingPart{{text: block}}
	}
	var parts []headingPart
	var buf []string
	heading := ""
	emit := func() {
		if len(buf) > 0 {
			parts = append(parts, headingPart{heading: heading, text: strings.Join(buf, "\n")})
			buf = nil
		}
	}
	for _, line := range strings.Split(block, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") {
			emit()
			heading = strings.TrimSpace(strings.TrimLeft(trimmed, "# "))
			buf = append(buf, trimmed)
			continue
		}
		buf = append(buf, line)
	}
	emit()
	return parts
}
