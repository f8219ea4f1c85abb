// Package index builds the searchable chunk index. An Index is built once per
// corpus version and is read-only afterwards; rebuilding is the only update.
package index

import (
	"context"
	"fmt"

	"ragqa/internal/domain"
	"ragqa/internal/log"
	"ragqa/internal/vectorstore"
)

// Index maps chunks to embedding vectors held in a vector store. It is
// tagged with the identity of the embedder that produced the vectors.
type Index struct {
	modelID   string
	dimension int
	chunks    []domain.Chunk
	dropped   int
	store     vectorstore.Storage
}

type options struct {
	maxChunks int
	progress  func(done, total int)
}

// Option configures Build.
type Option func(*options)

// WithMaxChunks caps the number of indexed chunks. Chunks past the cap are
// not retrievable; the count is reported by Dropped. Zero means no cap.
func WithMaxChunks(n int) Option {
	return func(o *options) { o.maxChunks = n }
}

// WithProgress registers a callback invoked after each chunk is embedded.
func WithProgress(fn func(done, total int)) Option {
	return func(o *options) { o.progress = fn }
}

// Build embeds chunks and loads them into store. It fails with
// domain.ErrBuild when chunks is empty or any embedding call fails.
func Build(ctx context.Context, chunks []domain.Chunk, embedder domain.Embedder, store vectorstore.Storage, opts ...Option) (*Index, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: no chunks to index", domain.ErrBuild)
	}

	dropped := 0
	if o.maxChunks > 0 && len(chunks) > o.maxChunks {
		dropped = len(chunks) - o.maxChunks
		log.Info("chunk cap applied", "max_chunks", o.maxChunks, "dropped", dropped)
		chunks = chunks[:o.maxChunks]
	}

	owned := make([]domain.Chunk, len(chunks))
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		c.Ordinal = i
		owned[i] = c
		texts[i] = c.Text
	}

	if err := embedder.Prepare(ctx, texts); err != nil {
		return nil, fmt.Errorf("%w: preparing embedder: %w", domain.ErrBuild, err)
	}

	vectors := make([][]float64, len(owned))
	for i := range owned {
		vec, err := embedder.Embed(ctx, owned[i].Text)
		if err != nil {
			return nil, fmt.Errorf("%w: embedding chunk %s: %w", domain.ErrBuild, owned[i].ChunkID, err)
		}
		if len(vec) == 0 {
			return nil, fmt.Errorf("%w: empty vector for chunk %s", domain.ErrBuild, owned[i].ChunkID)
		}
		if i > 0 && len(vec) != len(vectors[0]) {
			return nil, fmt.Errorf("%w: chunk %s has dimension %d, expected %d", domain.ErrBuild, owned[i].ChunkID, len(vec), len(vectors[0]))
		}
		vectors[i] = vec
		if o.progress != nil {
			o.progress(i+1, len(owned))
		}
	}

	dim := len(vectors[0])
	if err := store.Init(ctx, dim); err != nil {
		return nil, fmt.Errorf("%w: initializing vector store: %w", domain.ErrBuild, err)
	}
	if err := store.Upsert(ctx, owned, vectors); err != nil {
		return nil, fmt.Errorf("%w: loading vector store: %w", domain.ErrBuild, err)
	}

	idx := &Index{
		modelID:   embedder.ModelID(),
		dimension: dim,
		chunks:    owned,
		dropped:   dropped,
		store:     store,
	}
	log.Info("index built", "chunks", len(owned), "dimension", dim, "model", idx.modelID)
	return idx, nil
}

// ModelID is the identity of the embedding space the index was built in.
func (idx *Index) ModelID() string { return idx.modelID }

// Dimension is the vector length of every entry.
func (idx *Index) Dimension() int { return idx.dimension }

// Len returns the number of indexed chunks.
func (idx *Index) Len() int { return len(idx.chunks) }

// Dropped returns how many chunks the cap excluded.
func (idx *Index) Dropped() int { return idx.dropped }

// Chunks returns a copy of the indexed chunks in insertion order.
func (idx *Index) Chunks() []domain.Chunk {
	out := make([]domain.Chunk, len(idx.chunks))
	copy(out, idx.chunks)
	return out
}

// Search returns up to k nearest chunks to vector, best first.
func (idx *Index) Search(ctx context.Context, vector []float64, k int) ([]domain.SearchResult, error) {
	if k > len(idx.chunks) {
		k = len(idx.chunks)
	}
	res, err := idx.store.Search(ctx, vector, k)
	if err != nil {
		return nil, err
	}
	if len(res) > k {
		res = res[:k]
	}
	return res, nil
}
