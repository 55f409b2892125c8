package index

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"ragify/internal/chunker"
	"ragify/internal/embedder"
	"ragify/internal/fetcher"
	"ragify/internal/logger"
	"ragify/internal/store"
)

var (
	// ErrEmbeddingUnavailable means the embedding model could not be reached
	// when the index was opened.
	ErrEmbeddingUnavailable = errors.New("embedding model unavailable")
	// ErrSearchUnavailable means a search could not be carried out, as
	// opposed to finding nothing.
	ErrSearchUnavailable = errors.New("search unavailable")
)

// Defaults applied by New for zero Config fields.
const (
	DefaultChunkSize    = chunker.DefaultSize
	DefaultChunkOverlap = chunker.DefaultOverlap
	DefaultBatchSize    = 50
	DefaultOversample   = 3
)

const metaModel = "embedding_model"

// Config holds the indexer configuration.
type Config struct {
	DBPath       string
	ChunkSize    int
	// ChunkOverlap of zero disables overlap; negative selects the default.
	ChunkOverlap int
	BatchSize    int
	// Oversample multiplies k when querying the store so that URL
	// deduplication still leaves k results in most cases.
	Oversample int
}

// Result is one deduplicated search hit.
type Result struct {
	Content    string
	Metadata   store.Metadata
	Similarity float64
}

// Stats summarizes the index.
type Stats struct {
	TotalDocuments int
	Backend        store.Backend
	Model          string
}

// Indexer embeds, stores and searches documentation chunks.
type Indexer struct {
	store    store.Store
	backend  store.Backend
	embedder embedder.Embedder
	config   Config

	ingestMu sync.Mutex
	mu       sync.RWMutex
}

// Open probes the embedder for its dimension, opens the store at
// cfg.DBPath (falling back to memory) and clears it if it was built with a
// different embedding model.
func Open(ctx context.Context, cfg Config, emb embedder.Embedder) (*Indexer, error) {
	dim, err := embedder.Dimension(ctx, emb)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrEmbeddingUnavailable, emb.Model(), err)
	}

	s, backend := store.Open(cfg.DBPath, dim)
	idx := New(s, backend, emb, cfg)
	if err := idx.checkModel(ctx); err != nil {
		s.Close()
		return nil, err
	}
	return idx, nil
}

// New wraps an already opened store.
func New(s store.Store, backend store.Backend, emb embedder.Embedder, cfg Config) *Indexer {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = DefaultChunkSize
	}
	if cfg.ChunkOverlap < 0 {
		cfg.ChunkOverlap = DefaultChunkOverlap
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.Oversample <= 0 {
		cfg.Oversample = DefaultOversample
	}
	return &Indexer{
		store:    s,
		backend:  backend,
		embedder: emb,
		config:   cfg,
	}
}

func (idx *Indexer) checkModel(ctx context.Context) error {
	model := idx.embedder.Model()
	lastModel, err := idx.store.GetMeta(ctx, metaModel)
	if err != nil {
		return fmt.Errorf("get meta: %w", err)
	}
	if lastModel != "" && lastModel != model {
		logger.Warn("Embedding model changed from %q to %q, clearing index", lastModel, model)
		if err := idx.store.DeleteAll(ctx); err != nil {
			return fmt.Errorf("clear index: %w", err)
		}
	}
	if err := idx.store.SetMeta(ctx, metaModel, model); err != nil {
		return fmt.Errorf("set meta: %w", err)
	}
	return nil
}

// Embed returns one vector per text, in input order, calling the embedder
// in batches.
func (idx *Indexer) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for i := 0; i < len(texts); i += idx.config.BatchSize {
		end := min(i+idx.config.BatchSize, len(texts))
		vecs, err := idx.embedder.Embed(ctx, texts[i:end])
		if err != nil {
			return nil, err
		}
		if len(vecs) != end-i {
			return nil, fmt.Errorf("expected %d embeddings, got %d", end-i, len(vecs))
		}
		out = append(out, vecs...)
	}
	return out, nil
}

// Ingest chunks every Page, embeds the chunks and appends them to the
// store. Failures are skipped. It returns the number of records inserted,
// which is also reported alongside any embedding or storage error.
func (idx *Indexer) Ingest(ctx context.Context, docs []fetcher.RawDocument) (int, error) {
	idx.ingestMu.Lock()
	defer idx.ingestMu.Unlock()

	var (
		pending  []store.Record
		inserted int
	)
	flush := func() error {
		if len(pending) == 0 {
			return nil
		}
		texts := make([]string, len(pending))
		for i, r := range pending {
			texts[i] = r.Text
		}
		vecs, err := idx.Embed(ctx, texts)
		if err != nil {
			return fmt.Errorf("embed chunks: %w", err)
		}
		for i := range pending {
			pending[i].Vector = vecs[i]
		}

		idx.mu.Lock()
		err = idx.store.Insert(ctx, pending)
		idx.mu.Unlock()
		if err != nil {
			return fmt.Errorf("store records: %w", err)
		}
		inserted += len(pending)
		pending = pending[:0]
		return nil
	}

	for _, doc := range docs {
		switch d := doc.(type) {
		case fetcher.Page:
			chunks := chunker.Split(d.Content, idx.config.ChunkSize, idx.config.ChunkOverlap)
			logger.Debug("Chunked %s into %d chunks", d.URL, len(chunks))
			for i, c := range chunks {
				pending = append(pending, store.Record{
					ID:   uuid.NewString(),
					Text: fmt.Sprintf("Title: %s\n\nContent: %s", d.Title, c),
					Metadata: store.Metadata{
						Source:     d.Source,
						URL:        d.URL,
						Title:      d.Title,
						ChunkIndex: i,
					},
				})
				if len(pending) >= idx.config.BatchSize {
					if err := flush(); err != nil {
						return inserted, err
					}
				}
			}
		case fetcher.Failure:
			logger.Debug("Skipping failed document %s", d.URL)
		}
	}
	if err := flush(); err != nil {
		return inserted, err
	}
	return inserted, nil
}

// Search returns at most k results for query, one per URL, in descending
// similarity. Any failure is logged and yields no results.
func (idx *Indexer) Search(ctx context.Context, query string, k int) []Result {
	results, err := idx.TrySearch(ctx, query, k)
	if err != nil {
		logger.Error("search: %v", err)
		return nil
	}
	return results
}

// TrySearch is Search with failures reported as errors wrapping
// ErrSearchUnavailable.
func (idx *Indexer) TrySearch(ctx context.Context, query string, k int) ([]Result, error) {
	if k <= 0 {
		return nil, nil
	}
	vecs, err := idx.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("%w: embed query: %w", ErrSearchUnavailable, err)
	}
	if len(vecs) != 1 {
		return nil, fmt.Errorf("%w: embed query: got %d vectors", ErrSearchUnavailable, len(vecs))
	}

	idx.mu.RLock()
	hits, err := idx.store.Search(ctx, vecs[0], k*idx.config.Oversample)
	idx.mu.RUnlock()
	if err != nil {
		return nil, fmt.Errorf("%w: query store: %w", ErrSearchUnavailable, err)
	}

	return dedupByURL(hits, k), nil
}

// dedupByURL keeps the first (best) hit per URL, up to k.
func dedupByURL(hits []store.Hit, k int) []Result {
	seen := make(map[string]struct{}, len(hits))
	results := make([]Result, 0, k)
	for _, h := range hits {
		if _, dup := seen[h.Metadata.URL]; dup {
			continue
		}
		seen[h.Metadata.URL] = struct{}{}
		results = append(results, Result{
			Content:    h.Text,
			Metadata:   h.Metadata,
			Similarity: h.Similarity,
		})
		if len(results) == k {
			break
		}
	}
	return results
}

// Stats reports the record count. A failed count is logged and reported
// as zero.
func (idx *Indexer) Stats(ctx context.Context) Stats {
	idx.mu.RLock()
	n, err := idx.store.Count(ctx)
	idx.mu.RUnlock()
	if err != nil {
		logger.Error("count records: %v", err)
		n = 0
	}
	return Stats{TotalDocuments: n, Backend: idx.backend, Model: idx.embedder.Model()}
}

// Reset removes every record.
func (idx *Indexer) Reset(ctx context.Context) error {
	idx.ingestMu.Lock()
	defer idx.ingestMu.Unlock()
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if err := idx.store.DeleteAll(ctx); err != nil {
		return fmt.Errorf("clear index: %w", err)
	}
	return nil
}

// Close releases resources.
func (idx *Indexer) Close() error {
	return idx.store.Close()
}
