package index

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragqa/internal/domain"
	"ragqa/internal/vectorstore/memory"
)

// fakeEmbedder maps text to a vector of letter counts for a, b and c.
type fakeEmbedder struct {
	failOn   string
	prepared []string
}

func (f *fakeEmbedder) Name() string    { return "fake" }
func (f *fakeEmbedder) ModelID() string { return "fake/abc" }
func (f *fakeEmbedder) Dimension() int  { return 3 }

func (f *fakeEmbedder) Prepare(_ context.Context, corpus []string) error {
	f.prepared = corpus
	return nil
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float64, error) {
	if f.failOn != "" && strings.Contains(text, f.failOn) {
		return nil, domain.ErrEmbedding
	}
	return []float64{
		float64(strings.Count(text, "a")),
		float64(strings.Count(text, "b")),
		float64(strings.Count(text, "c")),
	}, nil
}

func chunks(texts ...string) []domain.Chunk {
	out := make([]domain.Chunk, len(texts))
	for i, t := range texts {
		out[i] = domain.Chunk{ChunkID: t, Text: t, Ordinal: 99}
	}
	return out
}

func TestBuild_EmptyInput(t *testing.T) {
	_, err := Build(context.Background(), nil, &fakeEmbedder{}, memory.NewStorage())
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBuild))
}

func TestBuild_EmbeddingFailure(t *testing.T) {
	_, err := Build(context.Background(), chunks("aa", "bad", "cc"), &fakeEmbedder{failOn: "bad"}, memory.NewStorage())
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBuild))
	assert.True(t, errors.Is(err, domain.ErrEmbedding))
}

func TestBuild_TagsAndPreservesChunks(t *testing.T) {
	emb := &fakeEmbedder{}
	idx, err := Build(context.Background(), chunks("aa", "bb", "cc"), emb, memory.NewStorage())
	require.NoError(t, err)

	assert.Equal(t, "fake/abc", idx.ModelID())
	assert.Equal(t, 3, idx.Dimension())
	assert.Equal(t, 3, idx.Len())
	assert.Equal(t, []string{"aa", "bb", "cc"}, emb.prepared)

	got := idx.Chunks()
	for i, c := range got {
		assert.Equal(t, i, c.Ordinal)
	}
	assert.Equal(t, "bb", got[1].Text)

	res, err := idx.Search(context.Background(), []float64{0, 1, 0}, 1)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, got[1], res[0].Chunk)
}

func TestBuild_MaxChunksIsReported(t *testing.T) {
	var progress []int
	idx, err := Build(context.Background(), chunks("aa", "bb", "cc", "ab"), &fakeEmbedder{}, memory.NewStorage(),
		WithMaxChunks(2),
		WithProgress(func(done, total int) {
			assert.Equal(t, 2, total)
			progress = append(progress, done)
		}),
	)
	require.NoError(t, err)
	assert.Equal(t, 2, idx.Len())
	assert.Equal(t, 2, idx.Dropped())
	assert.Equal(t, []int{1, 2}, progress)
}

func TestSearch_NeverExceedsIndexSize(t *testing.T) {
	idx, err := Build(context.Background(), chunks("aa", "bb"), &fakeEmbedder{}, memory.NewStorage())
	require.NoError(t, err)

	res, err := idx.Search(context.Background(), []float64{1, 1, 1}, 10)
	require.NoError(t, err)
	assert.Len(t, res, 2)
}
