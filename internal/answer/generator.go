// Package answer turns retrieved chunks and a question into an answer.
//
// The prompt asks the model to reply with a fixed fallback phrase when the
// context does not support an answer. Compliance is up to the model and is
// not verified; a FallbackDetector classifies the output afterwards.
package answer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/prompts"

	"ragqa/internal/domain"
	"ragqa/internal/log"
)

const (
	// DefaultFallback is the phrase the model is told to emit when the context
	// has no answer.
	DefaultFallback = "Not found in source."
	// DefaultMaxLength bounds the generated output, in model tokens.
	DefaultMaxLength = 256
	// ContextSeparator joins context chunks in the prompt.
	ContextSeparator = "\n---\n"
)

// DefaultTemplate has the instruction, context, question and answer cue
// sections. It is a Go template over context, question and fallback.
const DefaultTemplate = `Use the CONTEXT below to answer the QUESTION.
If the answer is not found in the CONTEXT, reply exactly: {{.fallback}}

CONTEXT:
{{.context}}

QUESTION: {{.question}}
ANSWER:`

// FallbackDetector reports whether generated text means "no answer".
type FallbackDetector func(text, fallback string) bool

// ContainsFallback matches the fallback phrase case-insensitively, ignoring
// trailing punctuation.
func ContainsFallback(text, fallback string) bool {
	phrase := strings.ToLower(strings.TrimRight(strings.TrimSpace(fallback), ".!"))
	if phrase == "" {
		return false
	}
	return strings.Contains(strings.ToLower(text), phrase)
}

// Generator builds prompts and invokes a generation capability.
type Generator struct {
	capability domain.Generator
	prompt     prompts.PromptTemplate
	fallback   string
	maxLength  int
	detect     FallbackDetector
}

// Option configures a Generator.
type Option func(*Generator)

// WithFallback sets the fallback phrase.
func WithFallback(phrase string) Option {
	return func(g *Generator) { g.fallback = phrase }
}

// WithMaxLength sets the output bound passed to the capability.
func WithMaxLength(n int) Option {
	return func(g *Generator) { g.maxLength = n }
}

// WithTemplate replaces the prompt template.
func WithTemplate(tmpl string) Option {
	return func(g *Generator) {
		g.prompt = prompts.NewPromptTemplate(tmpl, []string{"context", "question", "fallback"})
	}
}

// WithFallbackDetector replaces the fallback classification hook.
func WithFallbackDetector(d FallbackDetector) Option {
	return func(g *Generator) { g.detect = d }
}

// New returns a Generator around capability. It fails if the template
// cannot be rendered.
func New(capability domain.Generator, opts ...Option) (*Generator, error) {
	if capability == nil {
		return nil, errors.New("generation capability is required")
	}
	g := &Generator{
		capability: capability,
		prompt:     prompts.NewPromptTemplate(DefaultTemplate, []string{"context", "question", "fallback"}),
		fallback:   DefaultFallback,
		maxLength:  DefaultMaxLength,
		detect:     ContainsFallback,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.maxLength <= 0 {
		g.maxLength = DefaultMaxLength
	}
	if _, err := g.render("q", []string{"c"}); err != nil {
		return nil, fmt.Errorf("invalid prompt template: %w", err)
	}
	return g, nil
}

// Fallback returns the configured fallback phrase.
func (g *Generator) Fallback() string { return g.fallback }

// Prompt renders the prompt for query over results, in retrieval order.
func (g *Generator) Prompt(query string, results []domain.SearchResult) (string, error) {
	return g.render(query, contextTexts(results))
}

// Generate asks the capability to answer query from results. An empty
// answer is valid and is returned without error.
func (g *Generator) Generate(ctx context.Context, query string, results []domain.SearchResult) (*domain.Answer, error) {
	texts := contextTexts(results)
	prompt, err := g.render(query, texts)
	if err != nil {
		return nil, fmt.Errorf("%w: rendering prompt: %w", domain.ErrGeneration, err)
	}
	out, err := g.capability.Generate(ctx, domain.GenerationRequest{
		Prompt:    prompt,
		MaxLength: g.maxLength,
		Question:  query,
		Context:   texts,
		Fallback:  g.fallback,
	})
	if err != nil {
		if errors.Is(err, domain.ErrGeneration) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrGeneration, g.capability.Name(), err)
	}
	text := strings.TrimSpace(out)
	ans := &domain.Answer{
		Query:    query,
		Text:     text,
		Sources:  results,
		Fallback: g.detect(text, g.fallback),
	}
	log.Debug("answer generated", "generator", g.capability.Name(), "sources", len(results), "fallback", ans.Fallback)
	return ans, nil
}

func (g *Generator) render(query string, texts []string) (string, error) {
	return g.prompt.Format(map[string]any{
		"context":  strings.Join(texts, ContextSeparator),
		"question": strings.TrimSpace(query),
		"fallback": g.fallback,
	})
}

func contextTexts(results []domain.SearchResult) []string {
	texts := make([]string, 0, len(results))
	for _, r := range results {
		texts = append(texts, strings.TrimSpace(r.Chunk.Text))
	}
	return texts
}
