package ollama

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"

	"ragqa/internal/domain"
)

const (
	DefaultURL   = "http://localhost:11434"
	DefaultModel = "llama3.2"
)

// Config configures the Ollama generation backend.
type Config struct {
	URL         string
	Model       string
	Temperature float64
	Timeout     time.Duration
}

// Generator produces answers with a local Ollama model.
type Generator struct {
	client      *api.Client
	model       string
	temperature float64
}

// NewGenerator creates an Ollama generator.
func NewGenerator(cfg Config) (*Generator, error) {
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 2 * time.Minute
	}
	base, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama url %q: %w", cfg.URL, err)
	}
	return &Generator{
		client:      api.NewClient(base, &http.Client{Timeout: cfg.Timeout}),
		model:       cfg.Model,
		temperature: cfg.Temperature,
	}, nil
}

func (g *Generator) Name() string { return "ollama/" + g.model }

// Generate sends the rendered prompt as a single non-streaming request.
func (g *Generator) Generate(ctx context.Context, req domain.GenerationRequest) (string, error) {
	stream := false
	opts := map[string]interface{}{"temperature": g.temperature}
	if req.MaxLength > 0 {
		opts["num_predict"] = req.MaxLength
	}
	var out strings.Builder
	err := g.client.Generate(ctx, &api.GenerateRequest{
		Model:   g.model,
		Prompt:  req.Prompt,
		Stream:  &stream,
		Options: opts,
	}, func(resp api.GenerateResponse) error {
		out.WriteString(resp.Response)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("ollama generate: %w", err)
	}
	return out.String(), nil
}
