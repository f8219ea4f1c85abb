package vectorstore

import (
	"context"
	"sort"

	"ragqa/internal/domain"
)

// Storage persists vectors and supports similarity search. Search returns
// results best first; equal scores keep chunk insertion order.
type Storage interface {
	Init(ctx context.Context, dimension int) error
	Upsert(ctx context.Context, chunks []domain.Chunk, vectors [][]float64) error
	Search(ctx context.Context, vector []float64, topK int) ([]domain.SearchResult, error)
	Count(ctx context.Context) (int, error)
	Clear(ctx context.Context) error
}

// SortResults orders results by descending score, breaking ties by chunk ordinal.
func SortResults(results []domain.SearchResult) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Chunk.Ordinal < results[j].Chunk.Ordinal
	})
}
