package retrieval

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"ragqa/internal/domain"
	"ragqa/internal/index"
)

// DefaultTopK is used when Retrieve is called with k <= 0.
const DefaultTopK = 4

// Retriever embeds queries and looks up their nearest chunks.
type Retriever struct {
	embedder    domain.Embedder
	defaultTopK int
}

// New returns a retriever that embeds queries with embedder. The embedder
// must be the one the index was built with.
func New(embedder domain.Embedder, defaultTopK int) *Retriever {
	if defaultTopK <= 0 {
		defaultTopK = DefaultTopK
	}
	return &Retriever{embedder: embedder, defaultTopK: defaultTopK}
}

// Retrieve returns at most k chunks of idx ordered by similarity to query,
// best first. It refuses queries embedded in a different space than idx.
func (r *Retriever) Retrieve(ctx context.Context, idx *index.Index, query string, k int) ([]domain.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, domain.ErrEmptyQuery
	}
	if idx == nil {
		return nil, domain.ErrNotReady
	}
	if got, want := r.embedder.ModelID(), idx.ModelID(); got != want {
		return nil, fmt.Errorf("%w: index built with %q, query embedder is %q", domain.ErrModelMismatch, want, got)
	}
	if k <= 0 {
		k = r.defaultTopK
	}

	vec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		if errors.Is(err, domain.ErrEmbedding) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrEmbedding, err)
	}
	if len(vec) != idx.Dimension() {
		return nil, fmt.Errorf("%w: query vector has dimension %d, index has %d", domain.ErrModelMismatch, len(vec), idx.Dimension())
	}

	res, err := idx.Search(ctx, vec, k)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}
	return res, nil
}
