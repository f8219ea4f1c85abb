// Package service wires the build and query phases into the question
// answering pipeline used by the presentation layers.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"ragqa/internal/answer"
	"ragqa/internal/corpus"
	"ragqa/internal/domain"
	"ragqa/internal/index"
	"ragqa/internal/log"
	"ragqa/internal/retrieval"
	"ragqa/internal/vectorstore"
)

// State is the lifecycle state of a Pipeline.
type State int

const (
	Uninitialized State = iota
	Ready
)

func (s State) String() string {
	if s == Ready {
		return "ready"
	}
	return "uninitialized"
}

// BuildReport describes a completed build.
type BuildReport struct {
	Source          string
	Passages        int
	DroppedPassages int
	Chunks          int
	DroppedChunks   int
	ModelID         string
	Dimension       int
	Duration        time.Duration
}

type options struct {
	maxPassages int
	maxChunks   int
	topK        int
	progress    func(done, total int)
}

// Option configures a Pipeline.
type Option func(*options)

// WithMaxPassages caps the number of passages taken from the source.
func WithMaxPassages(n int) Option { return func(o *options) { o.maxPassages = n } }

// WithMaxChunks caps the number of indexed chunks.
func WithMaxChunks(n int) Option { return func(o *options) { o.maxChunks = n } }

// WithTopK sets how many chunks are retrieved per question.
func WithTopK(k int) Option { return func(o *options) { o.topK = k } }

// WithProgress reports embedding progress during Initialize.
func WithProgress(fn func(done, total int)) Option { return func(o *options) { o.progress = fn } }

// Pipeline answers questions over a corpus. Initialize builds the index once;
// Ask may then be called concurrently.
type Pipeline struct {
	source    corpus.Source
	chunker   domain.Chunker
	embedder  domain.Embedder
	store     vectorstore.Storage
	retriever *retrieval.Retriever
	answerer  *answer.Generator
	opts      options

	mu     sync.Mutex
	idx    atomic.Pointer[index.Index]
	report BuildReport
}

var _ domain.QAService = (*Pipeline)(nil)

// New assembles a pipeline from its components. Nothing is loaded until
// Initialize is called.
func New(source corpus.Source, chunker domain.Chunker, embedder domain.Embedder, store vectorstore.Storage, answerer *answer.Generator, opts ...Option) *Pipeline {
	o := options{topK: retrieval.DefaultTopK}
	for _, opt := range opts {
		opt(&o)
	}
	return &Pipeline{
		source:    source,
		chunker:   chunker,
		embedder:  embedder,
		store:     store,
		retriever: retrieval.New(embedder, o.topK),
		answerer:  answerer,
		opts:      o,
	}
}

// State returns the current lifecycle state.
func (p *Pipeline) State() State {
	if p.idx.Load() != nil {
		return Ready
	}
	return Uninitialized
}

// Report returns the report of the successful build, if any.
func (p *Pipeline) Report() (BuildReport, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.report, p.idx.Load() != nil
}

// Initialize loads, chunks and indexes the corpus. It is a no-op once the
// pipeline is Ready. A failed build leaves the pipeline Uninitialized and
// may be retried.
func (p *Pipeline) Initialize(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.idx.Load() != nil {
		return nil
	}
	start := time.Now()
	logger := log.WithValues("model", p.embedder.ModelID())

	loaded, err := corpus.Load(ctx, p.source, p.opts.maxPassages)
	if err != nil {
		if !errors.Is(err, domain.ErrSourceUnavailable) {
			err = fmt.Errorf("%w: %w", domain.ErrSourceUnavailable, err)
		}
		logger.Error(err, "failed to load corpus")
		return err
	}

	var chunks []domain.Chunk
	for _, passage := range loaded.Passages {
		cs, err := p.chunker.Chunk(passage)
		if err != nil {
			return fmt.Errorf("%w: chunking passage %s: %w", domain.ErrBuild, passage.ID, err)
		}
		chunks = append(chunks, cs...)
	}
	logger.Info("corpus chunked", "passages", len(loaded.Passages), "chunks", len(chunks))

	idx, err := index.Build(ctx, chunks, p.embedder, p.store,
		index.WithMaxChunks(p.opts.maxChunks),
		index.WithProgress(p.opts.progress),
	)
	if err != nil {
		logger.Error(err, "failed to build index")
		return err
	}

	p.report = BuildReport{
		Source:          loaded.Source,
		Passages:        len(loaded.Passages),
		DroppedPassages: loaded.Dropped,
		Chunks:          idx.Len(),
		DroppedChunks:   idx.Dropped(),
		ModelID:         idx.ModelID(),
		Dimension:       idx.Dimension(),
		Duration:        time.Since(start),
	}
	p.idx.Store(idx)
	logger.Info("pipeline ready", "chunks", idx.Len(), "took", p.report.Duration.String())
	return nil
}

// Ask answers query from the indexed corpus. Blank queries are rejected
// before any embedding or generation call.
func (p *Pipeline) Ask(ctx context.Context, query string) (*domain.Answer, error) {
	if strings.TrimSpace(query) == "" {
		return nil, domain.ErrEmptyQuery
	}
	idx := p.idx.Load()
	if idx == nil {
		return nil, domain.ErrNotReady
	}
	results, err := p.retriever.Retrieve(ctx, idx, query, p.opts.topK)
	if err != nil {
		return nil, err
	}
	return p.answerer.Generate(ctx, query, results)
}
