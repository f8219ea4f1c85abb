package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// CorpusConfig selects where passages come from.
type CorpusConfig struct {
	Type        string   `yaml:"type" validate:"oneof=file squad static"`
	Path        string   `yaml:"path,omitempty" validate:"required_if=Type file"`
	URL         string   `yaml:"url,omitempty" validate:"required_if=Type squad"`
	Passages    []string `yaml:"passages,omitempty"`
	MaxPassages int      `yaml:"max_passages" validate:"gte=0"`
	// CacheKey names the corpus version in the blob cache. Empty disables caching.
	CacheKey string `yaml:"cache_key,omitempty"`
}

// CacheConfig selects the blob store used to keep downloaded corpora.
type CacheConfig struct {
	Type  string       `yaml:"type" validate:"oneof=disk badger minio"`
	Dir   string       `yaml:"dir,omitempty"`
	Minio *MinioConfig `yaml:"minio,omitempty" validate:"required_if=Type minio"`
}

// MinioConfig contains connection details for an S3-compatible store.
type MinioConfig struct {
	Endpoint     string `yaml:"endpoint" validate:"required"`
	AccessKeyEnv string `yaml:"access_key_env"`
	SecretKeyEnv string `yaml:"secret_key_env"`
	Bucket       string `yaml:"bucket" validate:"required"`
	UseSSL       bool   `yaml:"use_ssl"`
}

// ChunkerConfig configures how passages are split into chunks. Sizes are
// counted in runes.
type ChunkerConfig struct {
	MaxSize int `yaml:"max_size" validate:"gt=0"`
	Overlap int `yaml:"overlap" validate:"gte=0,ltfield=MaxSize"`
}

// OpenAIConfig holds configuration for OpenAI-compatible endpoints.
type OpenAIConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs" validate:"gte=0"`
	MaxRetries  int    `yaml:"max_retries,omitempty" validate:"gte=0"`
}

// OllamaConfig holds configuration for a local Ollama server.
type OllamaConfig struct {
	URL         string `yaml:"url"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs" validate:"gte=0"`
}

// EmbedderConfig selects and configures the text embedder implementation.
type EmbedderConfig struct {
	Type   string        `yaml:"type" validate:"oneof=tfidf openai ollama"`
	OpenAI *OpenAIConfig `yaml:"openai,omitempty"`
	Ollama *OllamaConfig `yaml:"ollama,omitempty"`
}

// VectorStoreConfig selects and configures the vector store implementation.
type VectorStoreConfig struct {
	Type   string        `yaml:"type" validate:"oneof=memory qdrant"`
	Qdrant *QdrantConfig `yaml:"qdrant,omitempty"`
}

// QdrantConfig contains connection details for a Qdrant vector store.
type QdrantConfig struct {
	URL         string `yaml:"url" validate:"required,url"`
	APIKey      string `yaml:"api_key"`
	Collection  string `yaml:"collection"`
	TimeoutSecs int    `yaml:"timeout_secs" validate:"gte=0"`
}

// IndexerConfig configures the index build.
type IndexerConfig struct {
	MaxChunks int `yaml:"max_chunks" validate:"gte=0"`
}

// RetrieverConfig configures retrieval.
type RetrieverConfig struct {
	TopK int `yaml:"top_k" validate:"gt=0"`
}

// GeneratorConfig selects and configures the answer generator.
type GeneratorConfig struct {
	Type        string        `yaml:"type" validate:"oneof=extractive ollama openai"`
	MaxLength   int           `yaml:"max_length" validate:"gt=0"`
	Fallback    string        `yaml:"fallback"`
	Temperature float64       `yaml:"temperature"`
	TimeoutSecs int           `yaml:"timeout_secs" validate:"gte=0"`
	OpenAI      *OpenAIConfig `yaml:"openai,omitempty"`
	Ollama      *OllamaConfig `yaml:"ollama,omitempty"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	Level       string   `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
	Development bool     `yaml:"development"`
	OutputPaths []string `yaml:"output_paths,omitempty"`
}

// ServerConfig configures the HTTP front end.
type ServerConfig struct {
	Addr            string `yaml:"addr"`
	AskTimeoutSecs  int    `yaml:"ask_timeout_secs" validate:"gte=0"`
	ReadTimeoutSecs int    `yaml:"read_timeout_secs" validate:"gte=0"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Corpus      CorpusConfig      `yaml:"corpus"`
	Cache       CacheConfig       `yaml:"cache"`
	Chunker     ChunkerConfig     `yaml:"chunker"`
	Embedder    EmbedderConfig    `yaml:"embedder"`
	VectorStore VectorStoreConfig `yaml:"vector_store"`
	Indexer     IndexerConfig     `yaml:"indexer"`
	Retriever   RetrieverConfig   `yaml:"retriever"`
	Generator   GeneratorConfig   `yaml:"generator"`
	Log         LogConfig         `yaml:"log"`
	Server      ServerConfig      `yaml:"server"`
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaultConfig(), nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	applyConfigDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/ragqa/config.yaml.
// If neither exists, it writes defaults to ~/.config/ragqa/config.yaml and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := defaultConfig()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report yaml keys rather than Go field names
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate reports settings that would make the pipeline unusable.
func (c *AppConfig) Validate() error {
	return validate.Struct(c)
}

func defaultUserConfigPath() (string, error) {
	dir, err := defaultDataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

func defaultDataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "ragqa"), nil
}

func defaultConfig() *AppConfig {
	cfg := &AppConfig{
		Corpus:      CorpusConfig{Type: "squad", URL: "https://rajpurkar.github.io/SQuAD-explorer/dataset/dev-v1.1.json", CacheKey: "squad-dev-v1.1"},
		Cache:       CacheConfig{Type: "disk"},
		Chunker:     ChunkerConfig{MaxSize: 500, Overlap: 0},
		Embedder:    EmbedderConfig{Type: "tfidf"},
		VectorStore: VectorStoreConfig{Type: "memory"},
		Retriever:   RetrieverConfig{TopK: 4},
		Generator:   GeneratorConfig{Type: "extractive"},
	}
	applyConfigDefaults(cfg)
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.Corpus.Type == "" {
		cfg.Corpus.Type = "file"
	}
	if cfg.Cache.Type == "" {
		cfg.Cache.Type = "disk"
	}
	if cfg.Cache.Dir == "" && cfg.Cache.Type != "minio" {
		if dir, err := defaultDataDir(); err == nil {
			cfg.Cache.Dir = filepath.Join(dir, "cache")
		}
	}
	if m := cfg.Cache.Minio; m != nil {
		if m.AccessKeyEnv == "" {
			m.AccessKeyEnv = "MINIO_ACCESS_KEY"
		}
		if m.SecretKeyEnv == "" {
			m.SecretKeyEnv = "MINIO_SECRET_KEY"
		}
	}
	if cfg.Chunker.MaxSize == 0 {
		cfg.Chunker.MaxSize = 500
	}
	if cfg.Embedder.Type == "" {
		cfg.Embedder.Type = "tfidf"
	}
	if cfg.Embedder.Type == "openai" {
		if cfg.Embedder.OpenAI == nil {
			cfg.Embedder.OpenAI = &OpenAIConfig{}
		}
		applyOpenAIDefaults(cfg.Embedder.OpenAI, "text-embedding-3-small")
	}
	if cfg.Embedder.Type == "ollama" {
		if cfg.Embedder.Ollama == nil {
			cfg.Embedder.Ollama = &OllamaConfig{}
		}
		applyOllamaDefaults(cfg.Embedder.Ollama, "nomic-embed-text")
	}
	if cfg.VectorStore.Type == "" {
		cfg.VectorStore.Type = "memory"
	}
	if q := cfg.VectorStore.Qdrant; cfg.VectorStore.Type == "qdrant" {
		if q == nil {
			q = &QdrantConfig{}
			cfg.VectorStore.Qdrant = q
		}
		if q.URL == "" {
			q.URL = "http://localhost:6333"
		}
		if q.Collection == "" {
			q.Collection = "ragqa"
		}
		if q.TimeoutSecs == 0 {
			q.TimeoutSecs = 30
		}
	}
	if cfg.Retriever.TopK == 0 {
		cfg.Retriever.TopK = 4
	}
	if cfg.Generator.Type == "" {
		cfg.Generator.Type = "extractive"
	}
	if cfg.Generator.MaxLength == 0 {
		cfg.Generator.MaxLength = 256
	}
	if cfg.Generator.Fallback == "" {
		cfg.Generator.Fallback = "Not found in source."
	}
	if cfg.Generator.TimeoutSecs == 0 {
		cfg.Generator.TimeoutSecs = 120
	}
	if cfg.Generator.Type == "openai" {
		if cfg.Generator.OpenAI == nil {
			cfg.Generator.OpenAI = &OpenAIConfig{}
		}
		applyOpenAIDefaults(cfg.Generator.OpenAI, "gpt-4o-mini")
	}
	if cfg.Generator.Type == "ollama" {
		if cfg.Generator.Ollama == nil {
			cfg.Generator.Ollama = &OllamaConfig{}
		}
		applyOllamaDefaults(cfg.Generator.Ollama, "llama3.2")
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Server.AskTimeoutSecs == 0 {
		cfg.Server.AskTimeoutSecs = 60
	}
	if cfg.Server.ReadTimeoutSecs == 0 {
		cfg.Server.ReadTimeoutSecs = 10
	}
}

func applyOpenAIDefaults(c *OpenAIConfig, model string) {
	if c.BaseURL == "" {
		c.BaseURL = "https://api.openai.com/v1"
	}
	if c.APIKeyEnv == "" {
		c.APIKeyEnv = "OPENAI_API_KEY"
	}
	if c.Model == "" {
		c.Model = model
	}
	if c.TimeoutSecs == 0 {
		c.TimeoutSecs = 30
	}
}

func applyOllamaDefaults(c *OllamaConfig, model string) {
	if c.URL == "" {
		c.URL = "http://localhost:11434"
	}
	if c.Model == "" {
		c.Model = model
	}
	if c.TimeoutSecs == 0 {
		c.TimeoutSecs = 120
	}
}
