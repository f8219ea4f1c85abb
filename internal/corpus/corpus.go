// Package corpus loads the fixed text corpus the index is built from.
package corpus

import (
	"context"
	"fmt"
	"strconv"

	"ragqa/internal/domain"
	"ragqa/internal/log"
)

// Source yields the raw corpus as a list of passage texts.
type Source interface {
	Corpus(ctx context.Context) ([]string, error)
}

// StaticSource serves a fixed in-memory corpus.
type StaticSource []string

func (s StaticSource) Corpus(context.Context) ([]string, error) {
	out := make([]string, len(s))
	copy(out, s)
	return out, nil
}

func (s StaticSource) String() string { return "static" }

// LoadResult is the outcome of Load.
type LoadResult struct {
	Source   string
	Passages []domain.Passage
	// Dropped counts passages discarded by the max passage cap.
	Dropped int
}

// Load fetches the corpus from src, normalises whitespace, drops empty
// passages and applies the cap. maxPassages <= 0 disables the cap.
func Load(ctx context.Context, src Source, maxPassages int) (*LoadResult, error) {
	if src == nil {
		return nil, fmt.Errorf("%w: no corpus source configured", domain.ErrSourceUnavailable)
	}
	texts, err := src.Corpus(ctx)
	if err != nil {
		return nil, err
	}
	name := sourceName(src)
	res := &LoadResult{Source: name}
	for _, t := range texts {
		t = NormalizeWhitespace(t)
		if t == "" {
			continue
		}
		if maxPassages > 0 && len(res.Passages) == maxPassages {
			res.Dropped++
			continue
		}
		res.Passages = append(res.Passages, domain.Passage{
			ID:     "p" + strconv.Itoa(len(res.Passages)),
			Source: name,
			Text:   t,
		})
	}
	if res.Dropped > 0 {
		log.Info("passage cap applied", "max_passages", maxPassages, "dropped", res.Dropped)
	}
	log.Debug("corpus loaded", "source", name, "passages", len(res.Passages))
	return res, nil
}

func sourceName(src Source) string {
	if s, ok := src.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%T", src)
}
