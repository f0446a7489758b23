// Package cli implements the corpus command-line interface.
package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/corpus-cli/internal/adapters/driven/config/file"
	"github.com/custodia-labs/corpus-cli/internal/adapters/driven/embedding/ollama"
	"github.com/custodia-labs/corpus-cli/internal/adapters/driven/embedding/openai"
	"github.com/custodia-labs/corpus-cli/internal/adapters/driven/extraction"
	"github.com/custodia-labs/corpus-cli/internal/adapters/driven/library/zotero"
	"github.com/custodia-labs/corpus-cli/internal/adapters/driven/reranker"
	"github.com/custodia-labs/corpus-cli/internal/adapters/driven/state/sqlite"
	vectormem "github.com/custodia-labs/corpus-cli/internal/adapters/driven/vectorstore/memory"
	"github.com/custodia-labs/corpus-cli/internal/adapters/driven/vectorstore/pinecone"
	"github.com/custodia-labs/corpus-cli/internal/chunker"
	"github.com/custodia-labs/corpus-cli/internal/core/ports/driven"
	"github.com/custodia-labs/corpus-cli/internal/core/ports/driving"
	"github.com/custodia-labs/corpus-cli/internal/core/services"
	"github.com/custodia-labs/corpus-cli/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// Services the commands run against. main wires them; tests swap in
// mocks.
var (
	indexOrchestrator driving.IndexOrchestrator
	searchService     driving.SearchService
	stateStore        driven.WatermarkStore
)

var (
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "corpus",
	Short: "Semantic search over a Zotero document library",
	Long: `corpus indexes the full text of a Zotero library into a vector
store and answers natural-language queries against it, with citations
back to the exact passage and page.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.corpus/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// wireServices builds the full adapter stack from configuration.
// Commands that need services call this lazily so version and help
// work on an unconfigured machine.
func wireServices() (io.Closer, error) {
	if indexOrchestrator != nil && searchService != nil {
		return nopCloser{}, nil
	}

	path := configPath
	if path == "" {
		var err error
		path, err = file.DefaultPath()
		if err != nil {
			return nil, err
		}
	}
	cfg, err := file.Load(path)
	if err != nil {
		return nil, err
	}

	library, err := zotero.NewClient(zotero.Config{
		APIKey:      cfg.Zotero.APIKey,
		LibraryID:   cfg.Zotero.LibraryID,
		LibraryType: cfg.Zotero.LibraryType,
		BaseURL:     cfg.Zotero.BaseURL,
	})
	if err != nil {
		return nil, err
	}

	state, err := sqlite.NewStore(cfg.DataDir)
	if err != nil {
		return nil, err
	}

	embedding, err := buildEmbedding(cfg)
	if err != nil {
		state.Close()
		return nil, err
	}
	embedder := services.NewEmbedder(embedding, state)

	store, err := buildVectorStore(cfg, embedder.Namespace())
	if err != nil {
		state.Close()
		return nil, err
	}

	var chunkOpts []chunker.Option
	if cfg.Chunking.MinSize > 0 {
		chunkOpts = append(chunkOpts, chunker.WithMinSize(cfg.Chunking.MinSize))
	}
	if cfg.Chunking.MaxSize > 0 {
		chunkOpts = append(chunkOpts, chunker.WithMaxSize(cfg.Chunking.MaxSize))
	}
	if cfg.Chunking.Overlap > 0 {
		chunkOpts = append(chunkOpts, chunker.WithOverlap(cfg.Chunking.Overlap))
	}

	syncOpts := []services.SyncOption{services.WithChunker(chunker.New(chunkOpts...))}
	if cfg.Sync.Workers > 0 {
		syncOpts = append(syncOpts, services.WithWorkers(cfg.Sync.Workers))
	}

	indexOrchestrator = services.NewSynchroniser(
		library, extraction.NewRegistry(), embedder, store, state, syncOpts...)
	searchService = services.NewSearcher(embedder, store, reranker.NewLexical(), state)
	stateStore = state

	return state, nil
}

func buildEmbedding(cfg *file.Config) (driven.EmbeddingService, error) {
	switch cfg.Embedding.Provider {
	case "openai", "":
		return openai.NewEmbeddingService(openai.Config{
			APIKey:     cfg.Embedding.APIKey,
			BaseURL:    cfg.Embedding.BaseURL,
			Model:      cfg.Embedding.Model,
			Dimensions: cfg.Embedding.Dimensions,
			BatchLimit: cfg.Embedding.BatchLimit,
		})
	case "ollama":
		return ollama.NewEmbeddingService(ollama.Config{
			BaseURL:    cfg.Embedding.BaseURL,
			Model:      cfg.Embedding.Model,
			Dimensions: cfg.Embedding.Dimensions,
			BatchLimit: cfg.Embedding.BatchLimit,
		}), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Embedding.Provider)
	}
}

func buildVectorStore(cfg *file.Config, namespace string) (driven.VectorStore, error) {
	switch cfg.Index.Provider {
	case "pinecone", "":
		return pinecone.NewStore(pinecone.Config{
			APIKey:    cfg.Index.APIKey,
			Host:      cfg.Index.Host,
			Namespace: namespace,
		})
	case "memory":
		// Useful for trying the pipeline without an index account;
		// nothing persists between runs.
		return vectormem.NewStore(), nil
	default:
		return nil, fmt.Errorf("unknown index provider %q", cfg.Index.Provider)
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
