package domain

import "context"

// Passage is a contiguous span of source text. Passages are immutable once loaded.
type Passage struct {
	ID     string
	Source string
	Text   string
}

// Chunk is a bounded part of a passage used as the retrieval unit.
// Start and End are rune offsets into the passage text.
type Chunk struct {
	PassageID string
	ChunkID   string
	Text      string
	Index     int
	Ordinal   int
	Start     int
	End       int
}

// SearchResult represents a matching chunk with a relevance score.
type SearchResult struct {
	Chunk Chunk
	Score float64
}

// Answer is a generated answer together with the chunks it was conditioned on.
type Answer struct {
	Query    string
	Text     string
	Sources  []SearchResult
	Fallback bool
}

// NoAnswer reports whether the answer carries no usable content, either because
// the generator produced nothing or because it emitted the fallback phrase.
func (a *Answer) NoAnswer() bool {
	return a.Fallback || a.Text == ""
}

// Embedder converts free text into a numeric vector representation.
// Implementations may require a preparation phase over the corpus.
type Embedder interface {
	Name() string
	// ModelID identifies the embedding space. Two embedders with different
	// ids produce vectors that must not be compared.
	ModelID() string
	Prepare(ctx context.Context, corpus []string) error
	Dimension() int
	Embed(ctx context.Context, text string) ([]float64, error)
}

// Chunker splits passages into chunks suitable for retrieval indexing.
type Chunker interface {
	Chunk(passage Passage) ([]Chunk, error)
}

// GenerationRequest is the input to a text generation capability. Prompt is
// the fully rendered prompt; Question, Context and Fallback carry the same
// information in structured form for capabilities that do not read prompts.
type GenerationRequest struct {
	Prompt    string
	MaxLength int
	Question  string
	Context   []string
	Fallback  string
}

// Generator produces text for a prompt.
type Generator interface {
	Name() string
	Generate(ctx context.Context, req GenerationRequest) (string, error)
}

// QAService defines the operations exposed by the application core to
// presentation layers.
type QAService interface {
	Initialize(ctx context.Context) error
	Ask(ctx context.Context, query string) (*Answer, error)
}
