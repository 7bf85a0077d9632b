package rag

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/bankassist/banking-agent/internal/bank"
	"github.com/bankassist/banking-agent/pkg/file"
	"github.com/bankassist/banking-agent/pkg/log"
)

// ErrIndexNotReady is returned by Retrieve before Build has completed
var ErrIndexNotReady = errors.New("retrieval index not ready")

// embedBatchSize bounds how many chunks one embedder call carries
const embedBatchSize = 16

// CorpusLoader produces the raw documents to index
type CorpusLoader func(ctx context.Context) ([]Document, error)

// VectorCache persists built chunk vectors keyed by corpus fingerprint,
// so a restart with an unchanged corpus skips re-embedding
type VectorCache interface {
	LoadVectors(ctx context.Context, fingerprint string) ([]CachedVector, bool, error)
	SaveVectors(ctx context.Context, fingerprint string, vectors []CachedVector) error
}

// CachedVector is one chunk with its embedding, as stored in the cache
type CachedVector struct {
	DocID   string
	Source  string
	Content string
	Vector  []float32
}

// Config tunes the retriever
type Config struct {
	TopK         int
	ChunkSize    int
	ChunkOverlap int
	Concurrency  int
}

// Retriever owns the corpus lifecycle: load, chunk, embed, index, serve.
// Build (or a cache load) must complete before Retrieve; earlier calls
// fail with ErrIndexNotReady. Build may run again later (corpus change);
// readers keep the previous index until the swap.
type Retriever struct {
	loader   CorpusLoader
	embedder Embedder
	cache    VectorCache
	chunker  Chunker
	topK     int
	workers  int

	buildMu sync.Mutex // serializes builds

	mu    sync.RWMutex
	index *Index
}

// NewRetriever creates a retriever. cache may be nil to disable the
// vector cache.
func NewRetriever(loader CorpusLoader, embedder Embedder, cache VectorCache, cfg Config) *Retriever {
	topK := cfg.TopK
	if topK <= 0 {
		topK = 5
	}
	workers := cfg.Concurrency
	if workers <= 0 {
		workers = 4
	}
	return &Retriever{
		loader:   loader,
		embedder: embedder,
		cache:    cache,
		chunker:  NewChunker(cfg.ChunkSize, cfg.ChunkOverlap),
		topK:     topK,
		workers:  workers,
	}
}

// FileCorpus loads the banking documentation, any supplemental .txt or .md
// documents found in the data dir, and the branch directory as corpus
// documents. A missing documentation file is tolerated; the remaining
// documents still form a corpus.
func FileCorpus(dataDir string, store *bank.Store) CorpusLoader {
	return func(ctx context.Context) ([]Document, error) {
		var docs []Document

		data, err := os.ReadFile(filepath.Join(dataDir, bank.DocsFile))
		switch {
		case err == nil:
			docs = append(docs, Document{ID: "faq", Source: "banking_docs", Content: string(data)})
		case os.IsNotExist(err):
			log.Warn("corpus file %s missing, indexing remaining documents only", bank.DocsFile)
		default:
			return nil, fmt.Errorf("failed to read corpus: %w", err)
		}

		extra, err := file.FindByExtensions(dataDir, ".txt", ".md")
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to scan corpus dir: %w", err)
		}
		for _, path := range extra {
			if filepath.Base(path) == bank.DocsFile {
				continue
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("failed to read corpus: %w", err)
			}
			stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
			docs = append(docs, Document{ID: "doc_" + stem, Source: "banking_docs", Content: string(data)})
		}

		for _, branch := range store.Branches() {
			docs = append(docs, Document{
				ID:      "branch_" + branch.ID,
				Source:  "branch_info",
				Content: branch.Document(),
			})
		}
		return docs, nil
	}
}

// Ready reports whether an index is available
func (r *Retriever) Ready() bool {
	return r.currentIndex() != nil
}

// Size returns the number of indexed chunks, 0 before Build
func (r *Retriever) Size() int {
	index := r.currentIndex()
	if index == nil {
		return 0
	}
	return index.Size()
}

// Build loads the corpus, chunks it and installs a fresh index. When the
// cache already holds vectors for this exact corpus they are loaded
// instead of re-embedding. Build is safe to call repeatedly; each call
// produces an equivalent index for an unchanged corpus.
func (r *Retriever) Build(ctx context.Context) error {
	r.buildMu.Lock()
	defer r.buildMu.Unlock()

	docs, err := r.loader(ctx)
	if err != nil {
		return fmt.Errorf("failed to load corpus: %w", err)
	}

	chunks := r.chunkCorpus(docs)
	fingerprint := r.fingerprint(chunks)

	if index, ok := r.loadFromCache(ctx, fingerprint, len(chunks)); ok {
		r.install(index)
		log.Info("Loaded retrieval index from cache (%d chunks)", index.Size())
		return nil
	}

	vectors, err := r.embedChunks(ctx, chunks)
	if err != nil {
		return fmt.Errorf("failed to embed corpus: %w", err)
	}

	index, err := newIndex(chunks, vectors)
	if err != nil {
		return err
	}

	r.saveToCache(ctx, fingerprint, chunks, vectors)
	r.install(index)
	log.Info("Built retrieval index (%d chunks)", index.Size())
	return nil
}

// Retrieve returns up to k snippets ranked by similarity, highest first.
// k <= 0 uses the configured top-K.
func (r *Retriever) Retrieve(ctx context.Context, query string, k int) ([]Snippet, error) {
	index := r.currentIndex()
	if index == nil {
		return nil, ErrIndexNotReady
	}
	if k <= 0 {
		k = r.topK
	}

	vectors, err := r.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	return index.Search(vectors[0], k), nil
}

// Context retrieves for query and renders the result as the context
// block the agent injects into its system prompt
func (r *Retriever) Context(ctx context.Context, query string) (string, error) {
	snippets, err := r.Retrieve(ctx, query, r.topK)
	if err != nil {
		return "", err
	}
	return RenderContext(snippets), nil
}

// RenderContext formats snippets as the prompt context block
func RenderContext(snippets []Snippet) string {
	if len(snippets) == 0 {
		return "No relevant documents found."
	}

	var b strings.Builder
	b.WriteString("## Relevant Banking Information:\n\n")
	for i, snippet := range snippets {
		fmt.Fprintf(&b, "Document %d (Score: %.4f):\n%s\n\n", i+1, snippet.Score, snippet.Content)
	}
	return b.String()
}

func (r *Retriever) currentIndex() *Index {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.index
}

func (r *Retriever) install(index *Index) {
	r.mu.Lock()
	r.index = index
	r.mu.Unlock()
}

// chunkCorpus expands raw documents into chunk-level documents. A
// document that fits in one chunk keeps its ID; larger ones get an
// ordinal suffix per chunk.
func (r *Retriever) chunkCorpus(docs []Document) []Document {
	var chunked []Document
	for _, doc := range docs {
		pieces := r.chunker.Chunk(doc.Content)
		if len(pieces) == 1 {
			chunked = append(chunked, Document{ID: doc.ID, Source: doc.Source, Content: pieces[0]})
			continue
		}
		for i, piece := range pieces {
			chunked = append(chunked, Document{
				ID:      fmt.Sprintf("%s_%d", doc.ID, i),
				Source:  doc.Source,
				Content: piece,
			})
		}
	}
	return chunked
}

// fingerprint identifies the exact chunked corpus and embedding setup,
// so any change invalidates cached vectors
func (r *Retriever) fingerprint(chunks []Document) string {
	h := sha256.New()
	fmt.Fprintf(h, "v1|dim=%d|", r.embedder.Dimension())
	for _, chunk := range chunks {
		fmt.Fprintf(h, "%s|%d|", chunk.ID, len(chunk.Content))
		io.WriteString(h, chunk.Content)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// loadFromCache returns a ready index when the cache holds this exact
// corpus. Cache errors are logged and treated as a miss; a rebuild is
// always possible.
func (r *Retriever) loadFromCache(ctx context.Context, fingerprint string, wantChunks int) (*Index, bool) {
	if r.cache == nil {
		return nil, false
	}

	cached, ok, err := r.cache.LoadVectors(ctx, fingerprint)
	if err != nil {
		log.Warn("vector cache load failed: %v", err)
		return nil, false
	}
	if !ok || len(cached) != wantChunks {
		return nil, false
	}

	docs := make([]Document, len(cached))
	vectors := make([][]float32, len(cached))
	for i, cv := range cached {
		docs[i] = Document{ID: cv.DocID, Source: cv.Source, Content: cv.Content}
		vectors[i] = cv.Vector
	}
	index, err := newIndex(docs, vectors)
	if err != nil {
		log.Warn("vector cache inconsistent: %v", err)
		return nil, false
	}
	return index, true
}

func (r *Retriever) saveToCache(ctx context.Context, fingerprint string, chunks []Document, vectors [][]float32) {
	if r.cache == nil {
		return
	}

	cached := make([]CachedVector, len(chunks))
	for i := range chunks {
		cached[i] = CachedVector{
			DocID:   chunks[i].ID,
			Source:  chunks[i].Source,
			Content: chunks[i].Content,
			Vector:  vectors[i],
		}
	}
	if err := r.cache.SaveVectors(ctx, fingerprint, cached); err != nil {
		log.Warn("vector cache save failed: %v", err)
	}
}

// embedChunks embeds all chunks in bounded parallel batches
func (r *Retriever) embedChunks(ctx context.Context, chunks []Document) ([][]float32, error) {
	vectors := make([][]float32, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)

	for start := 0; start < len(chunks); start += embedBatchSize {
		start := start
		end := start + embedBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}

		g.Go(func() error {
			texts := make([]string, end-start)
			for i := start; i < end; i++ {
				texts[i-start] = chunks[i].Content
			}

			batch, err := r.embedder.Embed(gctx, texts)
			if err != nil {
				return err
			}
			if len(batch) != len(texts) {
				return fmt.Errorf("embedder returned %d vectors for %d texts", len(batch), len(texts))
			}
			for i := range batch {
				vectors[start+i] = batch[i]
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return vectors, nil
}
