// Package file loads the corpus configuration from a TOML file.
//
// The default location is ~/.corpus/config.toml. Secrets may also
// arrive via environment variables, which take precedence over the
// file so keys never have to be written to disk.
package file

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// Environment variables that override file values.
const (
	EnvZoteroAPIKey   = "CORPUS_ZOTERO_API_KEY"
	EnvOpenAIAPIKey   = "CORPUS_OPENAI_API_KEY"
	EnvPineconeAPIKey = "CORPUS_PINECONE_API_KEY"
)

// Config is the full application configuration.
type Config struct {
	// DataDir holds the state database (default: ~/.corpus/data).
	DataDir string `toml:"data_dir"`

	Zotero    ZoteroConfig    `toml:"zotero"`
	Embedding EmbeddingConfig `toml:"embedding"`
	Index     IndexConfig     `toml:"index"`
	Chunking  ChunkingConfig  `toml:"chunking"`
	Sync      SyncConfig      `toml:"sync"`
}

// ZoteroConfig configures the library client.
type ZoteroConfig struct {
	APIKey      string `toml:"api_key"`
	LibraryID   string `toml:"library_id"`
	LibraryType string `toml:"library_type"`
	BaseURL     string `toml:"base_url"`
}

// EmbeddingConfig selects and configures the embedding provider.
type EmbeddingConfig struct {
	// Provider is "openai" or "ollama" (default: "openai").
	Provider   string `toml:"provider"`
	Model      string `toml:"model"`
	APIKey     string `toml:"api_key"`
	BaseURL    string `toml:"base_url"`
	Dimensions int    `toml:"dimensions"`
	BatchLimit int    `toml:"batch_limit"`
}

// IndexConfig selects and configures the vector store.
type IndexConfig struct {
	// Provider is "pinecone" or "memory" (default: "pinecone").
	Provider string `toml:"provider"`
	APIKey   string `toml:"api_key"`
	Host     string `toml:"host"`
}

// ChunkingConfig tunes the chunker. Zero values keep the defaults.
type ChunkingConfig struct {
	MinSize int `toml:"min_size"`
	MaxSize int `toml:"max_size"`
	Overlap int `toml:"overlap"`
}

// SyncConfig tunes the synchroniser.
type SyncConfig struct {
	// Workers is the item-level concurrency (default: 4).
	Workers int `toml:"workers"`
}

// DefaultPath returns ~/.corpus/config.toml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".corpus", "config.toml"), nil
}

// Load reads the configuration file at path. A missing file yields
// the defaults, so a fresh install works before any config is
// written. Environment variables override file secrets.
func Load(path string) (*Config, error) {
	cfg := &Config{
		Zotero:    ZoteroConfig{LibraryType: "users"},
		Embedding: EmbeddingConfig{Provider: "openai"},
		Index:     IndexConfig{Provider: "pinecone"},
	}

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// Defaults only.
	case err != nil:
		return nil, fmt.Errorf("reading config: %w", err)
	default:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	}

	if v := os.Getenv(EnvZoteroAPIKey); v != "" {
		cfg.Zotero.APIKey = v
	}
	if v := os.Getenv(EnvOpenAIAPIKey); v != "" {
		cfg.Embedding.APIKey = v
	}
	if v := os.Getenv(EnvPineconeAPIKey); v != "" {
		cfg.Index.APIKey = v
	}
	return cfg, nil
}

// Save writes the configuration to path, creating the directory if
// needed. The file is written 0600 since it may hold API keys.
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}
