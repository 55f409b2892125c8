package tui

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragify/internal/embedder"
	"ragify/internal/fetcher"
	"ragify/internal/index"
	"ragify/internal/rag"
	"ragify/internal/store"
)

func newTestConfig(t *testing.T, pages ...fetcher.RawDocument) Config {
	t.Helper()
	idx := index.New(store.NewMemoryStore(), store.Ephemeral, embedder.NewHashingEmbedder(64), index.Config{})
	if len(pages) > 0 {
		_, err := idx.Ingest(context.Background(), pages)
		require.NoError(t, err)
	}
	return Config{Index: idx, Composer: rag.NewComposer(idx, nil)}
}

func update(m Model, msg tea.Msg) Model {
	next, _ := m.Update(msg)
	return next.(Model)
}

func TestWelcome_EmptyIndexGoesToLoading(t *testing.T) {
	cfg := newTestConfig(t)
	m := New(cfg)

	m = update(m, checkIndex(cfg)())
	require.True(t, m.welcome.ready)
	assert.Zero(t, m.welcome.records)
	assert.Contains(t, m.View(), "Index is empty")

	m = update(m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, ViewLoading, m.state)
}

func TestWelcome_ReadyIndexGoesToChat(t *testing.T) {
	cfg := newTestConfig(t, fetcher.Page{URL: "https://x.dev/a", Title: "A", Content: "Some documentation text."})
	m := update(New(cfg), tea.WindowSizeMsg{Width: 80, Height: 24})

	m = update(m, checkIndex(cfg)())
	assert.Equal(t, 1, m.welcome.records)
	assert.Contains(t, m.View(), "Index ready")

	m = update(m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, ViewChat, m.state)
	assert.True(t, m.chat.initialized)
}

func TestLoading_ProgressAndDone(t *testing.T) {
	l := newLoadingModel(2)

	l, _ = l.Update(loadProgressMsg{done: 1, total: 2, url: "https://x.dev/a"})
	l, _ = l.Update(loadProgressMsg{done: 2, total: 2, url: "https://x.dev/b", failed: "status 404"})
	assert.Equal(t, 1, l.failed)
	assert.Contains(t, l.View(80, 24), "2 / 2 pages processed, 1 failed")

	l, _ = l.Update(loadDoneMsg{stats: &index.LoadStats{PagesFetched: 1, RecordsInserted: 3}})
	assert.True(t, l.finished)
	assert.Contains(t, l.View(80, 24), "Chunks: 3 added")
}

func TestChat_AnswerUpdatesHistoryAndSources(t *testing.T) {
	c := newChatModel(nil)
	c.initViewport(80, 24)

	c, _ = c.Update(answerMsg{answer: rag.Answer{
		Response: "Use the header.",
		Sources:  []rag.Source{{Source: "Claude API", URL: "https://x.dev/a", Title: "A", Similarity: 0.9}},
	}})

	require.Len(t, c.history, 1)
	assert.Equal(t, "Use the header.", c.history[0].Content)
	require.Len(t, c.lastSources, 1)
	assert.Contains(t, formatSources(c.lastSources), "https://x.dev/a")
	assert.Equal(t, "No sources yet.", formatSources(nil))
}
