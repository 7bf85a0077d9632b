package rag

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"strings"
	"unicode"

	"github.com/bankassist/banking-agent/internal/llm"
)

// Embedder turns texts into vectors for the index
type Embedder interface {
	// Embed returns one vector per input text, in input order
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension returns the width of the produced vectors
	Dimension() int
}

// LocalEmbedder produces deterministic vectors without a provider by
// hashing terms into a fixed-width bag-of-words projection. It keeps the
// service working offline and makes retrieval reproducible in tests.
type LocalEmbedder struct {
	dimension int
}

// NewLocalEmbedder creates a local embedder with the given vector width
func NewLocalEmbedder(dimension int) *LocalEmbedder {
	if dimension <= 0 {
		dimension = 768
	}
	return &LocalEmbedder{dimension: dimension}
}

func (e *LocalEmbedder) Dimension() int {
	return e.dimension
}

func (e *LocalEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		vectors[i] = e.embedOne(text)
	}
	return vectors, nil
}

func (e *LocalEmbedder) embedOne(text string) []float32 {
	vector := make([]float32, e.dimension)
	for _, term := range tokenize(text) {
		h := fnv.New32a()
		h.Write([]byte(term))
		vector[int(h.Sum32())%e.dimension]++
	}

	// L2 normalization keeps cosine scores comparable across chunk lengths.
	var norm float64
	for _, v := range vector {
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		scale := float32(1 / math.Sqrt(norm))
		for i := range vector {
			vector[i] *= scale
		}
	}
	return vector
}

// tokenize lowercases and splits on non-alphanumeric runes
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// OpenAIEmbedder embeds through an OpenAI-compatible /embeddings endpoint
type OpenAIEmbedder struct {
	client    *llm.Client
	dimension int
}

// NewOpenAIEmbedder wraps an LLM client as an embedder. dimension must
// match what the configured embedding model produces.
func NewOpenAIEmbedder(client *llm.Client, dimension int) *OpenAIEmbedder {
	return &OpenAIEmbedder{client: client, dimension: dimension}
}

func (e *OpenAIEmbedder) Dimension() int {
	return e.dimension
}

func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	raw, err := e.client.CreateEmbeddings(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}

	vectors := make([][]float32, len(raw))
	for i, vec := range raw {
		converted := make([]float32, len(vec))
		for j, v := range vec {
			converted[j] = float32(v)
		}
		vectors[i] = converted
	}
	return vectors, nil
}
