package tfidf

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	"ragqa/internal/domain"
	"ragqa/internal/embedding"
	"ragqa/internal/terms"
)

// Embedder implements a simple TF-IDF vectorizer.
// It builds a vocabulary from the corpus and computes IDF values. The
// vocabulary is part of the embedding space, so the model id changes
// whenever Prepare sees a different corpus.
type Embedder struct {
	mu          sync.RWMutex
	vocabulary  map[string]int
	idf         []float64
	dimension   int
	prepared    bool
	fingerprint string
}

// NewEmbedder creates an unprepared TF-IDF embedder.
func NewEmbedder() *Embedder {
	return &Embedder{
		vocabulary: make(map[string]int),
	}
}

// Name returns the identifier of this embedder implementation.
func (e *Embedder) Name() string { return "tfidf" }

// ModelID identifies the prepared vocabulary.
func (e *Embedder) ModelID() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return embedding.ModelID("tfidf", e.fingerprint)
}

// Prepare builds the vocabulary and IDF values from the provided corpus.
func (e *Embedder) Prepare(_ context.Context, corpus []string) error {
	if len(corpus) == 0 {
		return errors.New("empty corpus for TF-IDF prepare")
	}
	// Build vocabulary and document frequencies
	df := make(map[string]int)
	for _, text := range corpus {
		seen := make(map[string]struct{})
		for _, tok := range terms.Split(text) {
			if _, ok := seen[tok]; ok {
				continue
			}
			seen[tok] = struct{}{}
			df[tok]++
		}
	}
	// Create stable ordering for vocabulary
	words := make([]string, 0, len(df))
	for term := range df {
		words = append(words, term)
	}
	sort.Strings(words)
	if len(words) == 0 {
		return errors.New("no tokens found in corpus; ensure tokenizer supports your language")
	}
	vocabulary := make(map[string]int, len(words))
	idf := make([]float64, len(words))
	n := float64(len(corpus))
	h := sha1.New()
	for i, term := range words {
		vocabulary[term] = i
		// Smoothed IDF
		idf[i] = math.Log((1+n)/(1+float64(df[term]))) + 1.0
		fmt.Fprintf(h, "%s:%d\n", term, df[term])
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.vocabulary = vocabulary
	e.idf = idf
	e.dimension = len(words)
	e.fingerprint = hex.EncodeToString(h.Sum(nil)[:8])
	e.prepared = true
	return nil
}

// Dimension returns the dimensionality of the produced embedding vectors.
func (e *Embedder) Dimension() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.dimension
}

// Embed computes the TF-IDF embedding for the given text. Text without any
// vocabulary term yields the zero vector.
func (e *Embedder) Embed(_ context.Context, text string) ([]float64, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if !e.prepared {
		return nil, fmt.Errorf("%w: tfidf embedder not prepared", domain.ErrEmbedding)
	}
	vec := make([]float64, e.dimension)
	tf := make(map[int]int)
	total := 0
	for _, tok := range terms.Split(text) {
		if idx, ok := e.vocabulary[tok]; ok {
			tf[idx]++
			total++
		}
	}
	if total == 0 {
		return vec, nil
	}
	for idx, count := range tf {
		tfv := float64(count) / float64(total)
		vec[idx] = tfv * e.idf[idx]
	}
	return embedding.Normalize(vec), nil
}
