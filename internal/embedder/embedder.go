// Package embedder turns text into fixed-length vectors.
package embedder

import (
	"context"
	"fmt"
)

// Embedder maps texts to vectors. Implementations preserve input order and
// always return vectors of the same dimension.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Model() string
}

// Provider names accepted by New.
const (
	ProviderOllama  = "ollama"
	ProviderHashing = "hashing"
)

// New builds an embedder for the named provider.
func New(provider, baseURL, model string) (Embedder, error) {
	switch provider {
	case "", ProviderOllama:
		return NewOllamaEmbedder(baseURL, model), nil
	case ProviderHashing:
		return NewHashingEmbedder(HashingDimension), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", provider)
	}
}

// Dimension embeds a probe string and returns the vector length.
func Dimension(ctx context.Context, e Embedder) (int, error) {
	vecs, err := e.Embed(ctx, []string{"dimension probe"})
	if err != nil {
		return 0, err
	}
	if len(vecs) != 1 || len(vecs[0]) == 0 {
		return 0, fmt.Errorf("embedder %s returned no vector", e.Model())
	}
	return len(vecs[0]), nil
}
