package retrieval

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragqa/internal/domain"
	"ragqa/internal/embedding/tfidf"
	"ragqa/internal/index"
	"ragqa/internal/vectorstore/memory"
)

type countingEmbedder struct {
	domain.Embedder
	calls int
	err   error
}

func (c *countingEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return c.Embedder.Embed(ctx, text)
}

var passages = []string{
	"Paris is the capital of France.",
	"The telephone was invented by Alexander Graham Bell.",
	"Berlin is the capital of Germany.",
	"Rome is the capital of Italy and was founded long ago.",
	"Bell also worked on the photophone.",
}

func buildIndex(t *testing.T, emb domain.Embedder) *index.Index {
	t.Helper()
	chunks := make([]domain.Chunk, len(passages))
	for i, p := range passages {
		chunks[i] = domain.Chunk{ChunkID: p, Text: p}
	}
	idx, err := index.Build(context.Background(), chunks, emb, memory.NewStorage())
	require.NoError(t, err)
	return idx
}

func TestRetrieve_TopMatch(t *testing.T) {
	emb := tfidf.NewEmbedder()
	idx := buildIndex(t, emb)
	r := New(emb, 0)

	res, err := r.Retrieve(context.Background(), idx, "What is the capital of France?", 1)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "Paris is the capital of France.", res[0].Chunk.Text)
}

func TestRetrieve_BoundsAndOrdering(t *testing.T) {
	emb := tfidf.NewEmbedder()
	idx := buildIndex(t, emb)
	r := New(emb, 2)
	ctx := context.Background()

	res, err := r.Retrieve(ctx, idx, "capital", 0)
	require.NoError(t, err)
	assert.Len(t, res, 2)

	res, err = r.Retrieve(ctx, idx, "capital", 50)
	require.NoError(t, err)
	assert.Len(t, res, len(passages))
	for i := 1; i < len(res); i++ {
		assert.GreaterOrEqual(t, res[i-1].Score, res[i].Score)
		if res[i-1].Score == res[i].Score {
			assert.Less(t, res[i-1].Chunk.Ordinal, res[i].Chunk.Ordinal)
		}
	}

	again, err := r.Retrieve(ctx, idx, "capital", 50)
	require.NoError(t, err)
	assert.Equal(t, res, again)
}

func TestRetrieve_EmptyQueryMakesNoCalls(t *testing.T) {
	emb := tfidf.NewEmbedder()
	idx := buildIndex(t, emb)
	counting := &countingEmbedder{Embedder: emb}
	r := New(counting, 0)

	_, err := r.Retrieve(context.Background(), idx, "   ", 3)
	assert.True(t, errors.Is(err, domain.ErrEmptyQuery))
	assert.Zero(t, counting.calls)
}

func TestRetrieve_RejectsModelMismatch(t *testing.T) {
	ctx := context.Background()
	built := tfidf.NewEmbedder()
	idx := buildIndex(t, built)

	other := tfidf.NewEmbedder()
	require.NoError(t, other.Prepare(ctx, []string{"an entirely different vocabulary"}))
	r := New(other, 0)

	_, err := r.Retrieve(ctx, idx, "capital of France", 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrModelMismatch))
}

func TestRetrieve_EmbeddingFailure(t *testing.T) {
	emb := tfidf.NewEmbedder()
	idx := buildIndex(t, emb)
	r := New(&countingEmbedder{Embedder: emb, err: errors.New("boom")}, 0)

	_, err := r.Retrieve(context.Background(), idx, "capital", 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrEmbedding))
}

func TestRetrieve_NilIndex(t *testing.T) {
	r := New(tfidf.NewEmbedder(), 0)
	_, err := r.Retrieve(context.Background(), nil, "capital", 1)
	assert.True(t, errors.Is(err, domain.ErrNotReady))
}
