package index

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragify/internal/embedder"
	"ragify/internal/fetcher"
	"ragify/internal/store"
)

// constEmbedder maps every text to the same vector, so ranking falls back
// to insertion order.
type constEmbedder struct {
	model string
	dim   int
	err   error

	mu    sync.Mutex
	calls [][]string
}

func (e *constEmbedder) Model() string { return e.model }

func (e *constEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	e.mu.Lock()
	e.calls = append(e.calls, texts)
	e.mu.Unlock()
	if e.err != nil {
		return nil, e.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		v := make([]float32, e.dim)
		v[0] = 1
		out[i] = v
	}
	return out, nil
}

func newMemoryIndexer(emb embedder.Embedder, cfg Config) *Indexer {
	return New(store.NewMemoryStore(), store.Ephemeral, emb, cfg)
}

func page(url, title, content string) fetcher.Page {
	return fetcher.Page{URL: url, Title: title, Content: content, Source: fetcher.SourceLabel(url)}
}

func TestIngest_BuildsRecords(t *testing.T) {
	ctx := context.Background()
	idx := newMemoryIndexer(embedder.NewHashingEmbedder(64), Config{})

	n, err := idx.Ingest(ctx, []fetcher.RawDocument{
		page("https://docs.anthropic.com/en/api/messages", "Messages", "Send messages to the model."),
		fetcher.Failure{URL: "https://docs.anthropic.com/broken", Message: "status 500"},
		page("https://docs.github.com/en/rest/repos", "Repos", ""),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	results := idx.Search(ctx, "messages", 5)
	require.Len(t, results, 1)
	assert.Equal(t, "Title: Messages\n\nContent: Send messages to the model.", results[0].Content)
	assert.Equal(t, store.Metadata{
		Source: "Claude API",
		URL:    "https://docs.anthropic.com/en/api/messages",
		Title:  "Messages",
	}, results[0].Metadata)
}

func TestIngest_ChunksLongPages(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	idx := New(s, store.Ephemeral, embedder.NewHashingEmbedder(64), Config{ChunkSize: 100, ChunkOverlap: 20, BatchSize: 3})

	content := strings.Repeat("Tokens are counted per request. ", 20)
	n, err := idx.Ingest(ctx, []fetcher.RawDocument{page("https://x.dev/tokens", "Tokens", content)})
	require.NoError(t, err)
	assert.Greater(t, n, 3)

	hits, err := s.Search(ctx, make([]float32, 64), n)
	require.NoError(t, err)
	require.Len(t, hits, n)
	seen := map[int]bool{}
	for _, h := range hits {
		seen[h.Metadata.ChunkIndex] = true
		assert.LessOrEqual(t, len([]rune(strings.TrimPrefix(h.Text, "Title: Tokens\n\nContent: "))), 100)
	}
	for i := range n {
		assert.True(t, seen[i], "missing chunk_index %d", i)
	}
}

func TestIngest_BatchesEmbedCalls(t *testing.T) {
	emb := &constEmbedder{model: "const", dim: 4}
	idx := newMemoryIndexer(emb, Config{BatchSize: 2})

	docs := make([]fetcher.RawDocument, 5)
	for i := range docs {
		docs[i] = page(fmt.Sprintf("https://x.dev/%d", i), "T", "short page body")
	}
	n, err := idx.Ingest(context.Background(), docs)
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	require.Len(t, emb.calls, 3)
	assert.Len(t, emb.calls[0], 2)
	assert.Len(t, emb.calls[2], 1)
}

func TestIngest_EmbeddingFailureAborts(t *testing.T) {
	emb := &constEmbedder{model: "const", dim: 4, err: errors.New("connection refused")}
	idx := newMemoryIndexer(emb, Config{})

	n, err := idx.Ingest(context.Background(), []fetcher.RawDocument{page("https://x.dev/a", "A", "some content here")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
	assert.Zero(t, n)
	assert.Zero(t, idx.Stats(context.Background()).TotalDocuments)
}

func TestSearch_RanksBySimilarity(t *testing.T) {
	ctx := context.Background()
	idx := newMemoryIndexer(embedder.NewHashingEmbedder(embedder.HashingDimension), Config{})

	_, err := idx.Ingest(ctx, []fetcher.RawDocument{
		page("https://x.dev/c", "Gamma", "streaming"),
		page("https://x.dev/a", "Alpha", "streaming events api"),
		page("https://x.dev/b", "Beta", "streaming events"),
	})
	require.NoError(t, err)

	results := idx.Search(ctx, "streaming events api", 3)
	require.Len(t, results, 3)
	assert.Equal(t, "https://x.dev/a", results[0].Metadata.URL)
	assert.Equal(t, "https://x.dev/b", results[1].Metadata.URL)
	assert.Equal(t, "https://x.dev/c", results[2].Metadata.URL)
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].Similarity, results[i].Similarity)
	}
	for _, r := range results {
		assert.GreaterOrEqual(t, r.Similarity, 0.0)
		assert.LessOrEqual(t, r.Similarity, 1.0)
	}
}

func TestSearch_DeduplicatesByURL(t *testing.T) {
	ctx := context.Background()
	idx := newMemoryIndexer(&constEmbedder{model: "const", dim: 4}, Config{ChunkSize: 40, ChunkOverlap: 0})

	long := strings.Repeat("Rate limits apply per organization. ", 6)
	_, err := idx.Ingest(ctx, []fetcher.RawDocument{
		page("https://x.dev/limits", "Limits", long),
		page("https://x.dev/errors", "Errors", "Errors are JSON objects."),
	})
	require.NoError(t, err)
	require.Greater(t, idx.Stats(ctx).TotalDocuments, 3)

	results := idx.Search(ctx, "anything", 5)
	require.Len(t, results, 2)
	assert.Equal(t, "https://x.dev/limits", results[0].Metadata.URL)
	assert.Equal(t, "https://x.dev/errors", results[1].Metadata.URL)
	assert.Zero(t, results[0].Metadata.ChunkIndex)
}

func TestSearch_OversampleLimitsCandidates(t *testing.T) {
	ctx := context.Background()
	idx := newMemoryIndexer(&constEmbedder{model: "const", dim: 4}, Config{ChunkSize: 40, ChunkOverlap: 0, Oversample: 1})

	_, err := idx.Ingest(ctx, []fetcher.RawDocument{
		page("https://x.dev/limits", "Limits", strings.Repeat("Rate limits apply per organization. ", 6)),
		page("https://x.dev/errors", "Errors", "Errors are JSON objects."),
	})
	require.NoError(t, err)

	// All top candidates share one URL, so dedup leaves fewer than k.
	results := idx.Search(ctx, "anything", 2)
	require.Len(t, results, 1)
	assert.Equal(t, "https://x.dev/limits", results[0].Metadata.URL)
}

func TestSearch_EmptyIndex(t *testing.T) {
	idx := newMemoryIndexer(embedder.NewHashingEmbedder(64), Config{})
	assert.Empty(t, idx.Search(context.Background(), "anything", 5))
	assert.Empty(t, idx.Search(context.Background(), "anything", 0))
}

func TestSearch_FailureIsEmptyButTrySearchReports(t *testing.T) {
	ctx := context.Background()
	emb := &constEmbedder{model: "const", dim: 4}
	idx := newMemoryIndexer(emb, Config{})
	_, err := idx.Ingest(ctx, []fetcher.RawDocument{page("https://x.dev/a", "A", "some content here")})
	require.NoError(t, err)

	emb.err = errors.New("embedding server down")

	assert.Empty(t, idx.Search(ctx, "question", 5))

	_, err = idx.TrySearch(ctx, "question", 5)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSearchUnavailable)
	assert.Contains(t, err.Error(), "embedding server down")
}

func TestStatsAndReset(t *testing.T) {
	ctx := context.Background()
	idx := newMemoryIndexer(embedder.NewHashingEmbedder(64), Config{})

	stats := idx.Stats(ctx)
	assert.Zero(t, stats.TotalDocuments)
	assert.Equal(t, store.Ephemeral, stats.Backend)
	assert.Equal(t, "hashing-64", stats.Model)

	_, err := idx.Ingest(ctx, []fetcher.RawDocument{page("https://x.dev/a", "A", "some content here")})
	require.NoError(t, err)
	_, err = idx.Ingest(ctx, []fetcher.RawDocument{page("https://x.dev/a", "A", "some content here")})
	require.NoError(t, err)
	assert.Equal(t, 2, idx.Stats(ctx).TotalDocuments, "re-ingesting appends")

	require.NoError(t, idx.Reset(ctx))
	assert.Zero(t, idx.Stats(ctx).TotalDocuments)
}

func TestOpen_EmbeddingUnavailable(t *testing.T) {
	emb := &constEmbedder{model: "down", dim: 4, err: errors.New("dial tcp: refused")}

	_, err := Open(context.Background(), Config{}, emb)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmbeddingUnavailable)
}

func TestOpen_ModelChangeClearsIndex(t *testing.T) {
	ctx := context.Background()
	cfg := Config{DBPath: filepath.Join(t.TempDir(), "index.db")}

	idx, err := Open(ctx, cfg, &constEmbedder{model: "model-a", dim: 4})
	require.NoError(t, err)
	assert.Equal(t, store.Persisted, idx.Stats(ctx).Backend)
	_, err = idx.Ingest(ctx, []fetcher.RawDocument{page("https://x.dev/a", "A", "some content here")})
	require.NoError(t, err)
	require.NoError(t, idx.Close())

	idx, err = Open(ctx, cfg, &constEmbedder{model: "model-a", dim: 4})
	require.NoError(t, err)
	assert.Equal(t, 1, idx.Stats(ctx).TotalDocuments)
	require.NoError(t, idx.Close())

	idx, err = Open(ctx, cfg, &constEmbedder{model: "model-b", dim: 4})
	require.NoError(t, err)
	defer idx.Close()
	assert.Zero(t, idx.Stats(ctx).TotalDocuments)
}

func TestLoadAll_IsolatesFetchFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			_, _ = w.Write([]byte(`<html><head><title>OK</title></head><body><main><p>Authentication uses an API key header.</p></main></body></html>`))
		case "/empty":
			_, _ = w.Write([]byte(`<html><body><p>tiny</p></body></html>`))
		default:
			http.Error(w, "boom", http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	ctx := context.Background()
	idx := newMemoryIndexer(embedder.NewHashingEmbedder(64), Config{})
	urls := []string{srv.URL + "/ok", srv.URL + "/fail", srv.URL + "/empty"}

	var progress []int
	stats, err := idx.LoadAll(ctx, fetcher.New(fetcher.Config{}), urls, func(done, total int, _ fetcher.RawDocument) {
		assert.Equal(t, 3, total)
		progress = append(progress, done)
	})
	require.NoError(t, err)

	assert.Equal(t, []int{1, 2, 3}, progress)
	assert.Equal(t, 3, stats.URLsTotal)
	assert.Equal(t, 2, stats.PagesFetched)
	assert.Equal(t, 1, stats.RecordsInserted)
	require.Len(t, stats.Failures, 1)
	assert.Equal(t, srv.URL+"/fail", stats.Failures[0].URL)

	results := idx.Search(ctx, "api key", 5)
	require.Len(t, results, 1)
	assert.Equal(t, "OK", results[0].Metadata.Title)
}

func TestLoadAll_StopsOnIngestError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><body><p>Enough text to make a chunk.</p></body></html>`))
	}))
	defer srv.Close()

	emb := &constEmbedder{model: "const", dim: 4, err: errors.New("embedding server down")}
	idx := newMemoryIndexer(emb, Config{})

	stats, err := idx.LoadAll(context.Background(), fetcher.New(fetcher.Config{}), []string{srv.URL + "/a", srv.URL + "/b"}, nil)
	require.Error(t, err)
	assert.Equal(t, 1, stats.PagesFetched)
	assert.Zero(t, stats.RecordsInserted)
}
