package chunker

import (
	"strconv"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragqa/internal/domain"
)

const longText = `Retrieval augmented generation combines a search step with a text generator. ` +
	`The search step selects passages that look relevant to a question. ` +
	`The generator then writes an answer using only those passages.

Chunking matters because embedding models have a limited input window. ` +
	`Chunks that are too large blur several topics together, while chunks that are too small lose context. ` +
	`Overlap between neighbouring chunks keeps sentences that straddle a cut retrievable from both sides.

Supercalifragilisticexpialidociouswordthatislongerthanthewholewindowforsure appears here once.`

func TestNew_RejectsInvalidWindow(t *testing.T) {
	_, err := New(0, 0)
	require.Error(t, err)
	_, err = New(10, -1)
	require.Error(t, err)
	_, err = New(10, 10)
	require.Error(t, err)
	_, err = New(10, 9)
	require.NoError(t, err)
}

func TestSplit_EmptyInput(t *testing.T) {
	c, err := New(500, 50)
	require.NoError(t, err)

	assert.Empty(t, c.Split(""))
	assert.Empty(t, c.Split(" \n\t "))

	chunks, err := c.Chunk(domain.Passage{ID: "p0"})
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestSplit_ShortTextIsOneChunk(t *testing.T) {
	c, err := New(500, 0)
	require.NoError(t, err)

	got := c.Split("Paris is the capital of France.")
	assert.Equal(t, []string{"Paris is the capital of France."}, got)
}

func TestSplit_PrefersSentenceBoundary(t *testing.T) {
	c, err := New(60, 0)
	require.NoError(t, err)

	got := c.Split("Paris is the capital of France. The telephone was invented by Alexander Graham Bell.")
	assert.Equal(t, []string{
		"Paris is the capital of France. ",
		"The telephone was invented by Alexander Graham Bell.",
	}, got)
}

func TestSplit_PrefersParagraphBoundary(t *testing.T) {
	c, err := New(40, 0)
	require.NoError(t, err)

	got := c.Split("First paragraph here.\n\nSecond paragraph is longer text.")
	assert.Equal(t, []string{
		"First paragraph here.\n\n",
		"Second paragraph is longer text.",
	}, got)
}

func TestSplit_HardCutsOversizedWord(t *testing.T) {
	c, err := New(10, 2)
	require.NoError(t, err)

	got := c.Split(strings.Repeat("a", 25))
	require.Len(t, got, 3)
	assert.Equal(t, 10, utf8.RuneCountInString(got[0]))
	assert.Equal(t, 10, utf8.RuneCountInString(got[1]))
	assert.Equal(t, 9, utf8.RuneCountInString(got[2]))
}

func TestSplit_SizeAndOverlapBounds(t *testing.T) {
	cases := []struct {
		maxSize int
		overlap int
	}{
		{maxSize: 500, overlap: 0},
		{maxSize: 80, overlap: 0},
		{maxSize: 80, overlap: 20},
		{maxSize: 40, overlap: 39},
		{maxSize: 25, overlap: 5},
		{maxSize: 7, overlap: 3},
	}
	inputs := []string{
		longText,
		"Ünïcödé wörds ärë cöüntëd äs rünës, nöt bÿtës. 東京は日本の首都です。大阪は大きな都市です。",
		strings.Repeat("word ", 60),
	}
	for _, tc := range cases {
		c, err := New(tc.maxSize, tc.overlap)
		require.NoError(t, err)
		for _, in := range inputs {
			chunks := c.Split(in)
			require.NotEmpty(t, chunks)
			for i, ch := range chunks {
				assert.LessOrEqual(t, utf8.RuneCountInString(ch), tc.maxSize, "chunk %d too long", i)
				if i == 0 {
					continue
				}
				prev := []rune(chunks[i-1])
				cur := []rune(ch)
				require.Greater(t, len(prev), tc.overlap)
				assert.Equal(t, string(prev[len(prev)-tc.overlap:]), string(cur[:tc.overlap]),
					"chunks %d and %d must share %d runes", i-1, i, tc.overlap)
			}
		}
	}
}

func TestSplit_CoversWholeInput(t *testing.T) {
	c, err := New(60, 0)
	require.NoError(t, err)

	chunks := c.Split(longText)
	assert.Equal(t, longText, strings.Join(chunks, ""))
}

func TestSplit_Deterministic(t *testing.T) {
	c, err := New(50, 10)
	require.NoError(t, err)

	assert.Equal(t, c.Split(longText), c.Split(longText))
}

func TestChunk_AssignsIdentityAndOffsets(t *testing.T) {
	c, err := New(60, 10)
	require.NoError(t, err)

	p := domain.Passage{ID: "p7", Text: longText}
	chunks, err := c.Chunk(p)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	runes := []rune(longText)
	for i, ch := range chunks {
		assert.Equal(t, "p7", ch.PassageID)
		assert.Equal(t, i, ch.Index)
		assert.Equal(t, "p7:"+strconv.Itoa(i), ch.ChunkID)
		assert.Equal(t, string(runes[ch.Start:ch.End]), ch.Text)
		if i > 0 {
			assert.Equal(t, chunks[i-1].End-10, ch.Start)
		}
	}
	assert.Equal(t, len(runes), chunks[len(chunks)-1].End)
}
