package domain

import "errors"

var (
	// ErrSourceUnavailable is returned when the corpus is missing or unreachable.
	ErrSourceUnavailable = errors.New("corpus source unavailable")
	// ErrBuild is returned when the index cannot be built.
	ErrBuild = errors.New("index build failed")
	// ErrEmbedding is returned when the embedding capability fails.
	ErrEmbedding = errors.New("embedding failed")
	// ErrGeneration is returned when the generation capability fails or times out.
	ErrGeneration = errors.New("generation failed")
	// ErrEmptyQuery is returned for blank queries.
	ErrEmptyQuery = errors.New("empty query")
	// ErrModelMismatch is returned when a query is embedded in a different
	// embedding space than the index.
	ErrModelMismatch = errors.New("embedding model mismatch")
	// ErrNotReady is returned when a query arrives before the index is built.
	ErrNotReady = errors.New("pipeline not initialized")
)
