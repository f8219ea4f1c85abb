package corpus

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"ragqa/internal/domain"
)

// FileSource reads a local passage file. Files ending in .pdf are converted
// to plain text first.
type FileSource struct {
	Path string
}

func (f FileSource) String() string { return f.Path }

func (f FileSource) Corpus(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var (
		text string
		err  error
	)
	if strings.EqualFold(filepath.Ext(f.Path), ".pdf") {
		text, err = readPDF(f.Path)
	} else {
		var data []byte
		data, err = os.ReadFile(f.Path)
		text = string(data)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrSourceUnavailable, f.Path, err)
	}
	passages := ParsePassages(text)
	if len(passages) == 0 {
		return nil, fmt.Errorf("%w: %s contains no text", domain.ErrSourceUnavailable, f.Path)
	}
	return passages, nil
}

func readPDF(path string) (string, error) {
	file, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open pdf: %w", err)
	}
	defer file.Close()
	plain, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("failed to read pdf text: %w", err)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", fmt.Errorf("failed to read pdf buffer: %w", err)
	}
	return buf.String(), nil
}
