package corpus

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"ragqa/internal/blobstore"
	"ragqa/internal/domain"
	"ragqa/internal/log"
)

// CachedSource serves the corpus stored under Key, falling back to Origin
// and storing its result when the key is missing. Key should identify the
// corpus version, e.g. "squad-dev-v1.1".
type CachedSource struct {
	Key    string
	Store  blobstore.Store
	Origin Source
}

func (c CachedSource) String() string { return "cache:" + c.Key }

func (c CachedSource) Corpus(ctx context.Context) ([]string, error) {
	data, err := c.Store.Get(ctx, c.Key)
	switch {
	case err == nil:
		log.Debug("corpus cache hit", "key", c.Key)
		return ParsePassages(string(data)), nil
	case !errors.Is(err, blobstore.ErrNotFound):
		return nil, fmt.Errorf("%w: cache lookup: %w", domain.ErrSourceUnavailable, err)
	}
	if c.Origin == nil {
		return nil, fmt.Errorf("%w: %q not cached and no origin configured", domain.ErrSourceUnavailable, c.Key)
	}
	passages, err := c.Origin.Corpus(ctx)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := WritePassages(&buf, passages); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrSourceUnavailable, err)
	}
	// a failed write only costs a re-download next time
	if err := c.Store.Put(ctx, c.Key, buf.Bytes()); err != nil {
		log.Error(err, "failed to cache corpus", "key", c.Key)
	}
	return passages, nil
}
