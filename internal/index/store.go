package index

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/yassineco/assistant-core/internal/chunker"
	"github.com/yassineco/assistant-core/internal/embedding"
	"github.com/yassineco/assistant-core/internal/models"
)

// ErrIndexNotFound is returned by Load when nothing has been persisted yet.
var ErrIndexNotFound = errors.New("no persisted index found")

// BuildFailedError aborts a build without touching the served index or its
// persisted representation.
type BuildFailedError struct {
	Err error
}

func (e *BuildFailedError) Error() string { return fmt.Sprintf("index build failed: %v", e.Err) }
func (e *BuildFailedError) Unwrap() error { return e.Err }

// Store owns the served index. Builds happen off to the side and become
// visible only through Swap, an atomic pointer replacement; in-flight
// readers keep the snapshot they captured. Builds are serialized: a second
// Build blocks until the first finishes.
type Store struct {
	path     string
	provider embedding.Provider
	chunkCfg chunker.Config

	batchSize   int
	concurrency int
	maxRetries  uint64

	buildMu sync.Mutex
	current atomic.Pointer[models.Index]
}

type StoreConfig struct {
	Path     string
	Provider embedding.Provider
	ChunkCfg chunker.Config
	// BatchSize bounds how many chunk texts go to the provider per call.
	BatchSize int
	// Concurrency bounds parallel embedding batches during a build.
	Concurrency int
	// MaxRetries caps backoff retries per batch for retryable provider errors.
	MaxRetries uint64
}

func NewStore(cfg StoreConfig) *Store {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 32
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 5
	}
	return &Store{
		path:        cfg.Path,
		provider:    cfg.Provider,
		chunkCfg:    cfg.ChunkCfg,
		batchSize:   cfg.BatchSize,
		concurrency: cfg.Concurrency,
		maxRetries:  cfg.MaxRetries,
	}
}

// Current returns the index in service, or nil before the first Load/Swap.
func (s *Store) Current() *models.Index {
	return s.current.Load()
}

// Swap atomically replaces the served index.
func (s *Store) Swap(idx *models.Index) {
	s.current.Store(idx)
}

// Build chunks every document, embeds the chunk texts in bounded batches,
// assembles a new immutable index and persists it. It is all-or-nothing: on
// any failure the previously served and persisted index remain untouched.
// Build does not swap; callers decide when the new index goes live.
func (s *Store) Build(ctx context.Context, docs []models.Document) (*models.Index, error) {
	s.buildMu.Lock()
	defer s.buildMu.Unlock()

	start := time.Now()

	var chunks []models.Chunk
	for _, doc := range docs {
		chunks = append(chunks, chunker.Chunk(doc, s.chunkCfg)...)
	}
	if len(chunks) == 0 {
		return nil, &BuildFailedError{Err: errors.New("no chunks produced from documents")}
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}

	vectors := make([][]float64, len(chunks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for begin := 0; begin < len(texts); begin += s.batchSize {
		begin := begin
		end := begin + s.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		g.Go(func() error {
			batch, err := s.embedBatch(gctx, texts[begin:end])
			if err != nil {
				return err
			}
			copy(vectors[begin:end], batch)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, &BuildFailedError{Err: err}
	}

	dimension := len(vectors[0])
	for i, v := range vectors {
		if len(v) != dimension {
			return nil, &BuildFailedError{
				Err: fmt.Errorf("provider returned mixed dimensions: %d and %d", dimension, len(v)),
			}
		}
		chunks[i].Embedding = v
	}

	idx := &models.Index{
		Version:   uuid.NewString(),
		BuiltAt:   time.Now().UTC(),
		Dimension: dimension,
		Chunks:    chunks,
		Stats: models.SourceStats{
			Documents: len(docs),
			Chunks:    len(chunks),
		},
	}

	if err := s.persist(idx); err != nil {
		return nil, &BuildFailedError{Err: err}
	}

	log.Printf("index build complete: %d documents, %d chunks, dimension %d, took %s",
		len(docs), len(chunks), dimension, time.Since(start).Round(time.Millisecond))
	return idx, nil
}

func (s *Store) embedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	operation := func() ([][]float64, error) {
		vectors, err := s.provider.Embed(ctx, texts)
		if err != nil {
			if embedding.IsRetryable(err) {
				return nil, err
			}
			return nil, backoff.Permanent(err)
		}
		return vectors, nil
	}
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), s.maxRetries), ctx)
	return backoff.RetryWithData(operation, policy)
}

// persist writes to a temp file in the same directory and renames it over
// the target, so load never sees a half-written index.
func (s *Store) persist(idx *models.Index) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	data, err := json.Marshal(idx)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".index-*.json")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}

// Load restores the most recently persisted index. It does not swap; the
// caller promotes the result via Swap when ready.
func (s *Store) Load() (*models.Index, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrIndexNotFound
		}
		return nil, err
	}
	var idx models.Index
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, fmt.Errorf("corrupt index file %s: %w", s.path, err)
	}
	return &idx, nil
}
