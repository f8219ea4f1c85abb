package ollama

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/ollama/ollama/api"

	"ragqa/internal/domain"
	"ragqa/internal/embedding"
)

const (
	DefaultURL   = "http://localhost:11434"
	DefaultModel = "nomic-embed-text"
)

// Config configures the Ollama embedder.
type Config struct {
	URL     string
	Model   string
	Timeout time.Duration
}

// Embedder computes embeddings with a local Ollama server.
type Embedder struct {
	client    *api.Client
	model     string
	mu        sync.RWMutex
	dimension int
}

// NewEmbedder creates an Ollama embedder.
func NewEmbedder(cfg Config) (*Embedder, error) {
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	base, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama url %q: %w", cfg.URL, err)
	}
	return &Embedder{
		client: api.NewClient(base, &http.Client{Timeout: cfg.Timeout}),
		model:  cfg.Model,
	}, nil
}

func (e *Embedder) Name() string { return "ollama" }

func (e *Embedder) ModelID() string { return embedding.ModelID("ollama", e.model) }

func (e *Embedder) Prepare(context.Context, []string) error { return nil }

func (e *Embedder) Dimension() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.dimension
}

func (e *Embedder) Embed(ctx context.Context, text string) ([]float64, error) {
	resp, err := e.client.Embed(ctx, &api.EmbedRequest{
		Model: e.model,
		Input: text,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: ollama embed: %v", domain.ErrEmbedding, err)
	}
	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0]) == 0 {
		return nil, fmt.Errorf("%w: ollama returned no embedding", domain.ErrEmbedding)
	}
	v := embedding.ToFloat64(resp.Embeddings[0])
	e.mu.Lock()
	if e.dimension == 0 {
		e.dimension = len(v)
	}
	e.mu.Unlock()
	return v, nil
}
