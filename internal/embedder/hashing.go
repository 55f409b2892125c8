package embedder

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"regexp"
	"strings"
)

// HashingDimension matches the all-minilm vector size so stores can be
// shared between providers of the same dimension.
const HashingDimension = 384

var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}]+`)

// HashingEmbedder is a deterministic offline embedder. Each token is hashed
// into one of dim buckets and the bag-of-words vector is L2-normalized, so
// texts sharing words have a positive cosine similarity.
type HashingEmbedder struct {
	dim       int
	stopwords map[string]struct{}
}

// NewHashingEmbedder creates a hashing embedder with dim buckets.
func NewHashingEmbedder(dim int) *HashingEmbedder {
	if dim <= 0 {
		dim = HashingDimension
	}
	return &HashingEmbedder{dim: dim, stopwords: defaultStopwords()}
}

// Model returns the provider name with the dimension appended.
func (e *HashingEmbedder) Model() string { return fmt.Sprintf("hashing-%d", e.dim) }

// Embed vectorizes each text independently.
func (e *HashingEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = e.vector(t)
	}
	return out, nil
}

func (e *HashingEmbedder) vector(text string) []float32 {
	vec := make([]float32, e.dim)
	for _, tok := range tokenPattern.FindAllString(strings.ToLower(text), -1) {
		if _, stop := e.stopwords[tok]; stop {
			continue
		}
		h := fnv.New32a()
		_, _ = h.Write([]byte(tok))
		vec[h.Sum32()%uint32(e.dim)]++
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return vec
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
	return vec
}

func defaultStopwords() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for", "to", "of", "in", "on", "at", "by",
		"with", "as", "is", "are", "was", "were", "be", "been", "being", "it", "this", "that", "these", "those",
		"from", "up", "down", "over", "under", "than", "so", "such", "into", "about", "between", "through",
		"can", "will", "just", "should", "now", "how", "what", "do", "i", "you",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
