package chunker

import (
	"fmt"
	"strconv"
	"unicode"

	"ragqa/internal/domain"
)

type boundary int

const (
	paragraphBoundary boundary = iota
	sentenceBoundary
	wordBoundary
)

// RecursiveChunker splits text into chunks of at most maxSize runes. It cuts
// at the last paragraph break that fits, then the last sentence end, then the
// last word break, and only falls back to a hard rune cut when a single word
// is longer than the window. Consecutive chunks share exactly overlap runes.
type RecursiveChunker struct {
	maxSize int
	overlap int
}

// New returns a chunker for the given window. overlap must be smaller than maxSize.
func New(maxSize, overlap int) (*RecursiveChunker, error) {
	if maxSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", maxSize)
	}
	if overlap < 0 || overlap >= maxSize {
		return nil, fmt.Errorf("chunk overlap must be in [0, %d), got %d", maxSize, overlap)
	}
	return &RecursiveChunker{maxSize: maxSize, overlap: overlap}, nil
}

// Chunk splits a passage. Chunk text is the exact substring of the passage
// between Start and End, whitespace included.
func (c *RecursiveChunker) Chunk(passage domain.Passage) ([]domain.Chunk, error) {
	runes := []rune(passage.Text)
	spans := c.spans(runes)
	if len(spans) == 0 {
		return nil, nil
	}
	chunks := make([]domain.Chunk, 0, len(spans))
	for i, s := range spans {
		chunks = append(chunks, domain.Chunk{
			PassageID: passage.ID,
			ChunkID:   passage.ID + ":" + strconv.Itoa(i),
			Text:      string(runes[s.start:s.end]),
			Index:     i,
			Start:     s.start,
			End:       s.end,
		})
	}
	return chunks, nil
}

// Split is Chunk for bare text.
func (c *RecursiveChunker) Split(text string) []string {
	runes := []rune(text)
	spans := c.spans(runes)
	out := make([]string, 0, len(spans))
	for _, s := range spans {
		out = append(out, string(runes[s.start:s.end]))
	}
	return out
}

type span struct {
	start int
	end   int
}

func (c *RecursiveChunker) spans(runes []rune) []span {
	if isBlank(runes) {
		return nil
	}
	var out []span
	start := 0
	for len(runes)-start > c.maxSize {
		end := c.cut(runes, start)
		out = append(out, span{start, end})
		start = end - c.overlap
	}
	return append(out, span{start, len(runes)})
}

// cut picks the end of the chunk starting at start. The end always lies in
// (start+overlap, start+maxSize] so the next chunk makes progress.
func (c *RecursiveChunker) cut(runes []rune, start int) int {
	limit := start + c.maxSize
	lo := start + c.overlap + 1
	// paragraph and sentence cuts must keep at least half a window
	half := start + c.maxSize/2 + 1
	if half < lo {
		half = lo
	}
	for _, level := range []boundary{paragraphBoundary, sentenceBoundary} {
		for p := limit; p >= half; p-- {
			if isBoundary(runes, p, level) {
				return p
			}
		}
	}
	for p := limit; p >= lo; p-- {
		if isBoundary(runes, p, wordBoundary) {
			return p
		}
	}
	return limit
}

// isBoundary reports whether a chunk may end right before runes[p]. Boundaries
// sit after a whitespace run so the next chunk begins on a word.
func isBoundary(runes []rune, p int, level boundary) bool {
	if p >= len(runes) {
		return true
	}
	if p == 0 || !unicode.IsSpace(runes[p-1]) || unicode.IsSpace(runes[p]) {
		return false
	}
	if level == wordBoundary {
		return true
	}
	newlines := 0
	i := p - 1
	for ; i >= 0 && unicode.IsSpace(runes[i]); i-- {
		if runes[i] == '\n' {
			newlines++
		}
	}
	switch level {
	case paragraphBoundary:
		return newlines >= 2
	case sentenceBoundary:
		if newlines >= 2 {
			return true
		}
		return i >= 0 && isSentenceEnd(runes[i])
	}
	return false
}

func isSentenceEnd(r rune) bool {
	switch r {
	case '.', '!', '?', '。', '！', '？':
		return true
	}
	return false
}

func isBlank(runes []rune) bool {
	for _, r := range runes {
		if !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}
