package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"

	"ragqa/internal/answer"
	"ragqa/internal/blobstore"
	"ragqa/internal/blobstore/badgerstore"
	"ragqa/internal/blobstore/miniostore"
	"ragqa/internal/chunker"
	"ragqa/internal/config"
	"ragqa/internal/corpus"
	"ragqa/internal/domain"
	"ragqa/internal/embedding/ollama"
	"ragqa/internal/embedding/openai"
	"ragqa/internal/embedding/tfidf"
	"ragqa/internal/generation/extractive"
	genollama "ragqa/internal/generation/ollama"
	genopenai "ragqa/internal/generation/openai"
	"ragqa/internal/service"
	"ragqa/internal/vectorstore"
	"ragqa/internal/vectorstore/memory"
	"ragqa/internal/vectorstore/qdrant"
)

func secs(n int) time.Duration { return time.Duration(n) * time.Second }

// buildPipeline assembles the pipeline described by cfg. The returned close
// function releases resources held by the blob cache.
func buildPipeline(ctx context.Context, cfg *config.AppConfig, opts ...service.Option) (*service.Pipeline, func(), error) {
	closer := func() {}

	src, c, err := newSource(ctx, cfg)
	if err != nil {
		return nil, closer, err
	}
	if c != nil {
		closer = c
	}

	ch, err := chunker.New(cfg.Chunker.MaxSize, cfg.Chunker.Overlap)
	if err != nil {
		return nil, closer, err
	}

	var emb domain.Embedder
	switch cfg.Embedder.Type {
	case "tfidf", "":
		emb = tfidf.NewEmbedder()
	case "openai":
		oc := cfg.Embedder.OpenAI
		client, err := openai.NewClient(openai.Config{
			BaseURL:    oc.BaseURL,
			APIKeyEnv:  oc.APIKeyEnv,
			Model:      oc.Model,
			Timeout:    secs(oc.TimeoutSecs),
			MaxRetries: oc.MaxRetries,
		})
		if err != nil {
			return nil, closer, fmt.Errorf("openai embedder init failed: %w", err)
		}
		emb = client
	case "ollama":
		oc := cfg.Embedder.Ollama
		e, err := ollama.NewEmbedder(ollama.Config{URL: oc.URL, Model: oc.Model, Timeout: secs(oc.TimeoutSecs)})
		if err != nil {
			return nil, closer, fmt.Errorf("ollama embedder init failed: %w", err)
		}
		emb = e
	default:
		return nil, closer, fmt.Errorf("unknown embedder: %s", cfg.Embedder.Type)
	}

	var st vectorstore.Storage
	switch cfg.VectorStore.Type {
	case "memory", "":
		st = memory.NewStorage()
	case "qdrant":
		q := cfg.VectorStore.Qdrant
		st = qdrant.NewStorage(qdrant.Config{
			URL:        q.URL,
			APIKey:     q.APIKey,
			Collection: q.Collection,
			Timeout:    secs(q.TimeoutSecs),
		})
	default:
		return nil, closer, fmt.Errorf("unknown vector store: %s", cfg.VectorStore.Type)
	}

	var gen domain.Generator
	g := cfg.Generator
	switch g.Type {
	case "extractive", "":
		gen = extractive.New()
	case "ollama":
		gen, err = genollama.NewGenerator(genollama.Config{
			URL:         g.Ollama.URL,
			Model:       g.Ollama.Model,
			Temperature: g.Temperature,
			Timeout:     secs(g.Ollama.TimeoutSecs),
		})
	case "openai":
		gen, err = genopenai.NewGenerator(genopenai.Config{
			BaseURL:     g.OpenAI.BaseURL,
			APIKeyEnv:   g.OpenAI.APIKeyEnv,
			Model:       g.OpenAI.Model,
			Temperature: float32(g.Temperature),
			Timeout:     secs(g.OpenAI.TimeoutSecs),
		})
	default:
		err = fmt.Errorf("unknown generator: %s", g.Type)
	}
	if err != nil {
		return nil, closer, fmt.Errorf("generator init failed: %w", err)
	}
	ans, err := answer.New(gen, answer.WithFallback(g.Fallback), answer.WithMaxLength(g.MaxLength))
	if err != nil {
		return nil, closer, err
	}

	opts = append([]service.Option{
		service.WithMaxPassages(cfg.Corpus.MaxPassages),
		service.WithMaxChunks(cfg.Indexer.MaxChunks),
		service.WithTopK(cfg.Retriever.TopK),
	}, opts...)
	return service.New(src, ch, emb, st, ans, opts...), closer, nil
}

func newSource(ctx context.Context, cfg *config.AppConfig) (corpus.Source, func(), error) {
	var src corpus.Source
	switch cfg.Corpus.Type {
	case "file":
		return corpus.FileSource{Path: cfg.Corpus.Path}, nil, nil
	case "static":
		return corpus.StaticSource(cfg.Corpus.Passages), nil, nil
	case "squad":
		src = corpus.HTTPSource{URL: cfg.Corpus.URL}
	default:
		return nil, nil, fmt.Errorf("unknown corpus type: %s", cfg.Corpus.Type)
	}
	if cfg.Corpus.CacheKey == "" {
		return src, nil, nil
	}
	store, closer, err := newBlobStore(ctx, cfg.Cache)
	if err != nil {
		return nil, nil, fmt.Errorf("cache init failed: %w", err)
	}
	return corpus.CachedSource{Key: cfg.Corpus.CacheKey, Store: store, Origin: src}, closer, nil
}

func newBlobStore(ctx context.Context, c config.CacheConfig) (blobstore.Store, func(), error) {
	switch c.Type {
	case "disk", "":
		d, err := blobstore.NewDisk(c.Dir)
		return d, nil, err
	case "badger":
		s, err := badgerstore.Open(c.Dir)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil
	case "minio":
		m := c.Minio
		s, err := miniostore.New(miniostore.Config{
			Endpoint:  m.Endpoint,
			AccessKey: os.Getenv(m.AccessKeyEnv),
			SecretKey: os.Getenv(m.SecretKeyEnv),
			Bucket:    m.Bucket,
			UseSSL:    m.UseSSL,
		})
		if err != nil {
			return nil, nil, err
		}
		if err := s.EnsureBucket(ctx); err != nil {
			return nil, nil, err
		}
		return s, nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown cache type: %s", c.Type)
	}
}

// progressOption draws embedding progress on stderr.
func progressOption() service.Option {
	var bar *progressbar.ProgressBar
	return service.WithProgress(func(done, total int) {
		if bar == nil {
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionSetDescription("embedding chunks"),
				progressbar.OptionShowCount(),
				progressbar.OptionClearOnFinish(),
			)
		}
		_ = bar.Set(done)
		if done == total {
			_ = bar.Finish()
		}
	})
}

// initialize builds the index with a progress bar and prints the report.
func initialize(ctx context.Context, p *service.Pipeline) error {
	if err := p.Initialize(ctx); err != nil {
		return err
	}
	if r, ok := p.Report(); ok {
		fmt.Fprintf(os.Stderr, "Indexed %d chunks from %d passages (%s) in %s\n", r.Chunks, r.Passages, r.ModelID, r.Duration.Round(time.Millisecond))
		if r.DroppedPassages > 0 || r.DroppedChunks > 0 {
			fmt.Fprintf(os.Stderr, "Caps applied: %d passages and %d chunks not indexed\n", r.DroppedPassages, r.DroppedChunks)
		}
	}
	return nil
}
