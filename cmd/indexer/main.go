package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/yassineco/assistant-core/internal/chunker"
	"github.com/yassineco/assistant-core/internal/config"
	"github.com/yassineco/assistant-core/internal/embedding"
	"github.com/yassineco/assistant-core/internal/index"
	"github.com/yassineco/assistant-core/internal/loader"
)

// indexer builds and persists an index offline, without serving. The
// running server picks the result up on restart or via /admin/reindex.
func main() {
	docsDir := flag.String("docs", "", "Directory of .txt/.md documents (defaults to DOCS_DIR)")
	timeout := flag.Duration("timeout", 10*time.Minute, "Overall build timeout")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}
	if *docsDir == "" {
		*docsDir = cfg.DocsDir
	}

	docs, err := loader.LoadDir(*docsDir)
	if err != nil {
		log.Fatalf("failed to load documents: %v", err)
	}
	log.Printf("loaded %d documents from %s", len(docs), *docsDir)

	provider := embedding.NewClient(embedding.ClientConfig{
		BaseURL: cfg.EmbeddingURL,
		APIKey:  cfg.EmbeddingAPIKey,
		Model:   cfg.EmbeddingModel,
		Timeout: 30 * time.Second,
	})

	store := index.NewStore(index.StoreConfig{
		Path:     cfg.IndexPath,
		Provider: provider,
		ChunkCfg: chunker.Config{
			MaxTokens:       cfg.ChunkMaxTokens,
			OverlapTokens:   cfg.ChunkOverlapTokens,
			MinTokens:       cfg.ChunkMinTokens,
			RespectHeadings: true,
		},
	})

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	idx, err := store.Build(ctx, docs)
	if err != nil {
		log.Fatalf("index build failed: %v", err)
	}
	log.Printf("persisted index %s to %s", idx.Version, cfg.IndexPath)
}
