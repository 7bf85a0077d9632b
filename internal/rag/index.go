package rag

import (
	"fmt"
	"math"
	"sort"
)

// Document is one retrievable corpus entry
type Document struct {
	ID      string
	Source  string
	Content string
}

// Snippet is a scored retrieval hit
type Snippet struct {
	DocID   string  `json:"doc_id"`
	Source  string  `json:"source"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

// Index is an in-memory vector index over corpus documents. It is
// immutable once built, so concurrent searches need no locking.
type Index struct {
	entries []indexEntry
}

type indexEntry struct {
	doc    Document
	vector []float32
}

func newIndex(docs []Document, vectors [][]float32) (*Index, error) {
	if len(docs) != len(vectors) {
		return nil, fmt.Errorf("document/vector count mismatch: %d vs %d", len(docs), len(vectors))
	}

	entries := make([]indexEntry, len(docs))
	for i := range docs {
		entries[i] = indexEntry{doc: docs[i], vector: vectors[i]}
	}
	return &Index{entries: entries}, nil
}

// Size returns the number of indexed documents
func (idx *Index) Size() int {
	return len(idx.entries)
}

// Search returns the k entries most similar to the query vector,
// highest score first
func (idx *Index) Search(query []float32, k int) []Snippet {
	if k <= 0 || len(idx.entries) == 0 {
		return nil
	}

	scored := make([]Snippet, 0, len(idx.entries))
	for _, entry := range idx.entries {
		scored = append(scored, Snippet{
			DocID:   entry.doc.ID,
			Source:  entry.doc.Source,
			Content: entry.doc.Content,
			Score:   cosineSimilarity(query, entry.vector),
		})
	}

	sort.Slice(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if len(scored) > k {
		scored = scored[:k]
	}
	return scored
}

// cosineSimilarity computes the cosine similarity between two vectors
func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	length := len(a)
	if len(b) < length {
		length = len(b)
	}

	var dot, normA, normB float64
	for i := 0; i < length; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
