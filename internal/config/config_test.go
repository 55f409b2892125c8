package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ragify.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_MissingFileGivesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, 800, cfg.Chunking.Size)
	assert.Equal(t, 100, cfg.Chunking.Overlap)
	assert.Equal(t, 10*time.Second, cfg.Fetch.Timeout())
	assert.Equal(t, 500*time.Millisecond, cfg.Fetch.Delay())
	assert.Equal(t, []string{"anthropic", "google", "github"}, cfg.Corpus.Names())
}

func TestLoad_OverridesKeepOtherDefaults(t *testing.T) {
	path := writeConfig(t, `
store:
  path: /tmp/docs.db
chunking:
  overlap: 0
llm:
  provider: ollama
  model: llama3.2
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/docs.db", cfg.Store.Path)
	assert.Equal(t, 800, cfg.Chunking.Size)
	assert.Zero(t, cfg.Chunking.Overlap)
	assert.Equal(t, ProviderOllama, cfg.LLM.Provider)
	assert.Equal(t, "llama3.2", cfg.LLM.Model)
	assert.Equal(t, "GROQ_API_KEY", cfg.LLM.APIKeyEnv)
	assert.Len(t, cfg.Corpus, 3)
}

func TestLoad_CorpusKeepsOrder(t *testing.T) {
	path := writeConfig(t, `
corpus:
  stripe:
    - https://docs.stripe.com/api/charges
  openai:
    - https://platform.openai.com/docs/api-reference/chat
    - https://platform.openai.com/docs/api-reference/embeddings
  anthropic: []
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"stripe", "openai", "anthropic"}, cfg.Corpus.Names())
	urls, err := cfg.Corpus.URLs()
	require.NoError(t, err)
	assert.Equal(t, []string{
		"https://docs.stripe.com/api/charges",
		"https://platform.openai.com/docs/api-reference/chat",
		"https://platform.openai.com/docs/api-reference/embeddings",
	}, urls)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bad yaml", "store: [unclosed"},
		{"corpus not a mapping", "corpus:\n  - https://x.dev"},
		{"zero chunk size", "chunking:\n  size: 0"},
		{"unknown llm", "llm:\n  provider: carrier-pigeon"},
		{"oversample zero", "search:\n  oversample: 0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestCorpusURLs(t *testing.T) {
	c := DefaultCorpus()

	all, err := c.URLs()
	require.NoError(t, err)
	assert.Len(t, all, 12)
	assert.Equal(t, "https://docs.anthropic.com/en/api/messages", all[0])

	gh, err := c.URLs("github", "anthropic")
	require.NoError(t, err)
	require.Len(t, gh, 8)
	assert.Equal(t, "https://docs.github.com/en/rest/repos", gh[0])
	assert.Equal(t, "https://docs.anthropic.com/en/api/messages", gh[4])

	_, err = c.URLs("stripe")
	assert.ErrorContains(t, err, "unknown provider")
}

func TestCorpusMarshalRoundTripKeepsOrder(t *testing.T) {
	in := Corpus{{Name: "zeta", URLs: []string{"https://z.dev"}}, {Name: "alpha", URLs: []string{"https://a.dev"}}}

	data, err := yaml.Marshal(struct {
		Corpus Corpus `yaml:"corpus"`
	}{in})
	require.NoError(t, err)

	var out struct {
		Corpus Corpus `yaml:"corpus"`
	}
	require.NoError(t, yaml.Unmarshal(data, &out))
	assert.Equal(t, in, out.Corpus)
}

func TestResolveAPIKey(t *testing.T) {
	t.Setenv("RAGIFY_TEST_KEY", "from-env")

	assert.Equal(t, "explicit", LLMConfig{APIKey: "explicit", APIKeyEnv: "RAGIFY_TEST_KEY"}.ResolveAPIKey())
	assert.Equal(t, "from-env", LLMConfig{APIKeyEnv: "RAGIFY_TEST_KEY"}.ResolveAPIKey())
	assert.Empty(t, LLMConfig{}.ResolveAPIKey())
}

func TestLoadDefault_PrefersWorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", dir)

	cfg, path, err := LoadDefault()
	require.NoError(t, err)
	assert.Empty(t, path)
	assert.Equal(t, Default(), cfg)

	require.NoError(t, os.WriteFile("ragify.yaml", []byte("search:\n  oversample: 5\n"), 0o644))
	cfg, path, err = LoadDefault()
	require.NoError(t, err)
	assert.Equal(t, "ragify.yaml", path)
	assert.Equal(t, 5, cfg.Search.Oversample)
}
