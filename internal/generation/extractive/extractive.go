// Package extractive is an offline generation capability. It answers with
// the context sentence that best covers the question terms, and with the
// requested fallback phrase when no sentence shares a term with the question.
package extractive

import (
	"context"
	"math"
	"regexp"
	"strings"

	"ragqa/internal/domain"
	"ragqa/internal/terms"
)

// Generator ranks context sentences by overlap with the question.
type Generator struct {
	sentencePattern *regexp.Regexp
}

// New creates an extractive generator.
func New() *Generator {
	return &Generator{
		sentencePattern: regexp.MustCompile(`[^.!?]+(?:[.!?]+|$)`),
	}
}

func (g *Generator) Name() string { return "extractive" }

// Generate returns the best supporting sentence, cut to req.MaxLength words.
func (g *Generator) Generate(ctx context.Context, req domain.GenerationRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	query := g.tokenSet(req.Question)
	if len(query) == 0 {
		return req.Fallback, nil
	}
	best := ""
	bestScore := 0.0
	for _, text := range req.Context {
		for _, sent := range g.sentencePattern.FindAllString(text, -1) {
			sent = strings.TrimSpace(sent)
			if sent == "" {
				continue
			}
			score := g.score(query, sent)
			// strictly greater keeps the earliest sentence on ties
			if score > bestScore {
				best = sent
				bestScore = score
			}
		}
	}
	if best == "" {
		return req.Fallback, nil
	}
	return truncateWords(best, req.MaxLength), nil
}

// score counts distinct question terms in the sentence, normalised by
// sentence length to avoid favouring long sentences.
func (g *Generator) score(query map[string]struct{}, sentence string) float64 {
	tokens := terms.Split(sentence)
	if len(tokens) == 0 {
		return 0
	}
	seen := make(map[string]struct{}, len(tokens))
	hits := 0
	for _, t := range tokens {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		if _, ok := query[t]; ok {
			hits++
		}
	}
	if hits == 0 {
		return 0
	}
	return float64(hits) / math.Sqrt(float64(len(tokens)))
}

func (g *Generator) tokenSet(text string) map[string]struct{} {
	tokens := terms.Split(text)
	m := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		m[t] = struct{}{}
	}
	return m
}

func truncateWords(s string, max int) string {
	if max <= 0 {
		return s
	}
	words := strings.Fields(s)
	if len(words) <= max {
		return s
	}
	return strings.Join(words[:max], " ")
}
