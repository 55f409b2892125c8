// Package config loads ragify settings from YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// StoreConfig locates the persistent index.
type StoreConfig struct {
	// Path of the SQLite database. Empty keeps the index in memory.
	Path string `yaml:"path"`
}

// EmbeddingConfig selects the embedder.
type EmbeddingConfig struct {
	Provider  string `yaml:"provider"`
	BaseURL   string `yaml:"base_url"`
	Model     string `yaml:"model"`
	BatchSize int    `yaml:"batch_size"`
}

// ChunkingConfig controls how page text is split.
type ChunkingConfig struct {
	Size    int `yaml:"size"`
	Overlap int `yaml:"overlap"`
}

// FetchConfig controls page downloads.
type FetchConfig struct {
	TimeoutSecs int    `yaml:"timeout_secs"`
	DelayMS     int    `yaml:"delay_ms"`
	UserAgent   string `yaml:"user_agent"`
}

// SearchConfig tunes retrieval.
type SearchConfig struct {
	Oversample int `yaml:"oversample"`
}

// LLMConfig selects the chat model. Empty BaseURL and Model select the
// provider's defaults.
type LLMConfig struct {
	Provider    string `yaml:"provider"`
	BaseURL     string `yaml:"base_url"`
	Model       string `yaml:"model"`
	APIKey      string `yaml:"api_key,omitempty"`
	APIKeyEnv   string `yaml:"api_key_env"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// Config is the root configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Chunking  ChunkingConfig  `yaml:"chunking"`
	Fetch     FetchConfig     `yaml:"fetch"`
	Search    SearchConfig    `yaml:"search"`
	LLM       LLMConfig       `yaml:"llm"`
	Corpus    Corpus          `yaml:"corpus"`
}

// LLM providers.
const (
	ProviderGroq   = "groq"
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
)

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Store:     StoreConfig{Path: filepath.Join(".ragify", "index.db")},
		Embedding: EmbeddingConfig{Provider: "ollama", BaseURL: "http://localhost:11434", Model: "all-minilm", BatchSize: 50},
		Chunking:  ChunkingConfig{Size: 800, Overlap: 100},
		Fetch:     FetchConfig{TimeoutSecs: 10, DelayMS: 500},
		Search:    SearchConfig{Oversample: 3},
		LLM: LLMConfig{
			Provider:    ProviderGroq,
			APIKeyEnv:   "GROQ_API_KEY",
			TimeoutSecs: 60,
		},
		Corpus: DefaultCorpus(),
	}
}

// Load reads a config from path on top of the defaults. A missing file
// yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadDefault tries ./ragify.yaml, then ~/.config/ragify/config.yaml. If
// neither exists the defaults are returned with an empty path.
func LoadDefault() (*Config, string, error) {
	candidates := []string{"ragify.yaml"}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".config", "ragify", "config.yaml"))
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			cfg, err := Load(p)
			return cfg, p, err
		}
	}
	return Default(), "", nil
}

// Validate rejects settings the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.Chunking.Size <= 0 {
		return fmt.Errorf("chunking.size must be positive, got %d", c.Chunking.Size)
	}
	if c.Chunking.Overlap < 0 {
		return fmt.Errorf("chunking.overlap must not be negative, got %d", c.Chunking.Overlap)
	}
	if c.Embedding.BatchSize <= 0 {
		return fmt.Errorf("embedding.batch_size must be positive, got %d", c.Embedding.BatchSize)
	}
	if c.Search.Oversample < 1 {
		return fmt.Errorf("search.oversample must be at least 1, got %d", c.Search.Oversample)
	}
	switch c.LLM.Provider {
	case ProviderGroq, ProviderOpenAI, ProviderOllama:
	default:
		return fmt.Errorf("unknown llm.provider %q", c.LLM.Provider)
	}
	return nil
}

// ResolveAPIKey returns the explicit key, or the value of the environment
// variable named by APIKeyEnv.
func (l LLMConfig) ResolveAPIKey() string {
	if l.APIKey != "" {
		return l.APIKey
	}
	if l.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(l.APIKeyEnv)
}

// Timeout returns the chat transport timeout.
func (l LLMConfig) Timeout() time.Duration {
	return time.Duration(l.TimeoutSecs) * time.Second
}

// Timeout returns the per-page fetch timeout.
func (f FetchConfig) Timeout() time.Duration {
	return time.Duration(f.TimeoutSecs) * time.Second
}

// Delay returns the pause between page fetches.
func (f FetchConfig) Delay() time.Duration {
	return time.Duration(f.DelayMS) * time.Millisecond
}
