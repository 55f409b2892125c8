package cmd

import (
	"context"
	"fmt"

	"ragify/internal/config"
	"ragify/internal/embedder"
	"ragify/internal/fetcher"
	"ragify/internal/index"
	"ragify/internal/llm"
	"ragify/internal/logger"
)

const (
	openAIBaseURL = "https://api.openai.com/v1"
	openAIModel   = "gpt-4o-mini"
)

func loadConfig() (*config.Config, error) {
	var (
		c    *config.Config
		path = flagConfig
		err  error
	)
	if path != "" {
		c, err = config.Load(path)
	} else {
		c, path, err = config.LoadDefault()
	}
	if err != nil {
		return nil, err
	}
	if path != "" {
		logger.Debug("Loaded config from %s", path)
	}
	if flagDB != "" {
		c.Store.Path = flagDB
	}
	return c, nil
}

func openIndex(ctx context.Context, c *config.Config) (*index.Indexer, error) {
	emb, err := embedder.New(c.Embedding.Provider, c.Embedding.BaseURL, c.Embedding.Model)
	if err != nil {
		return nil, err
	}
	idx, err := index.Open(ctx, index.Config{
		DBPath:       c.Store.Path,
		ChunkSize:    c.Chunking.Size,
		ChunkOverlap: c.Chunking.Overlap,
		BatchSize:    c.Embedding.BatchSize,
		Oversample:   c.Search.Oversample,
	}, emb)
	if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}
	return idx, nil
}

func newFetcher(c *config.Config) *fetcher.Fetcher {
	return fetcher.New(fetcher.Config{
		Timeout:   c.Fetch.Timeout(),
		Delay:     c.Fetch.Delay(),
		UserAgent: c.Fetch.UserAgent,
	})
}

// newChatClient builds the configured chat client. Hosted providers
// without an API key still get a client; it reports llm.ErrNotConfigured.
func newChatClient(c *config.Config) llm.ChatClient {
	l := c.LLM
	if l.Provider == config.ProviderOllama {
		return llm.NewOllamaChat(l.BaseURL, l.Model, l.Timeout())
	}
	baseURL, model := l.BaseURL, l.Model
	if l.Provider == config.ProviderOpenAI {
		if baseURL == "" {
			baseURL = openAIBaseURL
		}
		if model == "" {
			model = openAIModel
		}
	}
	return llm.NewOpenAIChat(l.ResolveAPIKey(), baseURL, model, l.Timeout())
}

// requireChat fails when the hosted provider has no API key.
func requireChat(c *config.Config) error {
	if c.LLM.Provider == config.ProviderOllama || c.LLM.ResolveAPIKey() != "" {
		return nil
	}
	return fmt.Errorf("%w: set %s or llm.api_key", llm.ErrNotConfigured, c.LLM.APIKeyEnv)
}
