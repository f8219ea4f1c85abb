package corpus

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"ragqa/internal/domain"
	"ragqa/internal/log"
)

// DefaultSQuADURL points at the SQuAD v1.1 development set.
const DefaultSQuADURL = "https://rajpurkar.github.io/SQuAD-explorer/dataset/dev-v1.1.json"

type squadFile struct {
	Data []struct {
		Title      string `json:"title"`
		Paragraphs []struct {
			Context string `json:"context"`
		} `json:"paragraphs"`
	} `json:"data"`
}

// ExtractSQuAD returns every paragraph context of a SQuAD v1.1 document in
// file order, with newlines replaced by spaces.
func ExtractSQuAD(r io.Reader) ([]string, error) {
	var doc squadFile
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("error decoding squad json: %w", err)
	}
	var out []string
	for _, article := range doc.Data {
		for _, p := range article.Paragraphs {
			c := strings.TrimSpace(strings.ReplaceAll(p.Context, "\n", " "))
			if c != "" {
				out = append(out, c)
			}
		}
	}
	return out, nil
}

// HTTPSource downloads a SQuAD JSON document and extracts its contexts.
type HTTPSource struct {
	URL    string
	Client *http.Client
}

func (h HTTPSource) String() string { return h.URL }

func (h HTTPSource) Corpus(ctx context.Context) ([]string, error) {
	client := h.Client
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Minute}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrSourceUnavailable, err)
	}
	log.Info("downloading corpus", "url", h.URL)
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s returned %s", domain.ErrSourceUnavailable, h.URL, resp.Status)
	}
	passages, err := ExtractSQuAD(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrSourceUnavailable, err)
	}
	if len(passages) == 0 {
		return nil, fmt.Errorf("%w: %s contains no paragraphs", domain.ErrSourceUnavailable, h.URL)
	}
	return passages, nil
}
