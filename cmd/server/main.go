package main

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/yassineco/assistant-core/internal/auth"
	"github.com/yassineco/assistant-core/internal/chunker"
	"github.com/yassineco/assistant-core/internal/config"
	"github.com/yassineco/assistant-core/internal/embedding"
	"github.com/yassineco/assistant-core/internal/gateway"
	"github.com/yassineco/assistant-core/internal/generation"
	"github.com/yassineco/assistant-core/internal/index"
	"github.com/yassineco/assistant-core/internal/query"
	"github.com/yassineco/assistant-core/internal/quota"
	"github.com/yassineco/assistant-core/internal/server"
	"github.com/yassineco/assistant-core/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	// Tenant store: Postgres when configured, in-memory otherwise.
	var tenantStore store.TenantStore
	if cfg.DatabaseURL != "" {
		pg, err := store.NewPostgresStore(cfg.DatabaseURL)
		if err != nil {
			log.Fatal("Failed to connect to database:", err)
		}
		defer pg.Close()
		tenantStore = pg
	} else {
		log.Println("DATABASE_URL not set, using in-memory tenant store")
		tenantStore = store.NewMemoryStore()
	}

	// Quota tracker: Redis when configured, in-memory otherwise.
	var tracker quota.Tracker
	if cfg.RedisURL != "" {
		rt, err := quota.NewRedisTracker(cfg.RedisURL)
		if err != nil {
			log.Fatal("Failed to initialize quota tracker:", err)
		}
		defer rt.Close()
		tracker = rt
	} else {
		log.Println("REDIS_URL not set, using in-memory quota tracker")
		tracker = quota.NewMemoryTracker()
	}

	provider := embedding.NewClient(embedding.ClientConfig{
		BaseURL: cfg.EmbeddingURL,
		APIKey:  cfg.EmbeddingAPIKey,
		Model:   cfg.EmbeddingModel,
		Timeout: 30 * time.Second,
	})

	indexStore := index.NewStore(index.StoreConfig{
		Path:     cfg.IndexPath,
		Provider: provider,
		ChunkCfg: chunker.Config{
			MaxTokens:       cfg.ChunkMaxTokens,
			OverlapTokens:   cfg.ChunkOverlapTokens,
			MinTokens:       cfg.ChunkMinTokens,
			RespectHeadings: true,
		},
	})

	if idx, err := indexStore.Load(); err == nil {
		indexStore.Swap(idx)
		log.Printf("loaded index %s: %d chunks, dimension %d", idx.Version, idx.Stats.Chunks, idx.Dimension)
	} else if errors.Is(err, index.ErrIndexNotFound) {
		log.Println("no persisted index found; queries will fail until a reindex")
	} else {
		log.Fatal("Failed to load index:", err)
	}

	var generator generation.Provider
	if cfg.GenerationURL != "" {
		generator = generation.NewClient(cfg.GenerationURL, 60*time.Second)
	}

	validator := auth.NewValidator(tenantStore)
	srv := server.New(server.Config{
		Store:      tenantStore,
		Validator:  validator,
		Gateway:    gateway.New(validator, tracker),
		Engine:     query.NewEngine(provider, indexStore),
		IndexStore: indexStore,
		Tracker:    tracker,
		Generator:  generator,
		DocsDir:    cfg.DocsDir,
		JWTSecret:  cfg.JWTSecret,
	})

	log.Printf("Server starting on port %s", cfg.ServerPort)
	log.Printf("Admin API available at /admin/*")
	log.Printf("Query API available at /v1/*")
	if err := http.ListenAndServe(":"+cfg.ServerPort, srv.Routes()); err != nil {
		log.Fatal("Server failed:", err)
	}
}
