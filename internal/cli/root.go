package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"docchat/config"
	"docchat/internal/adapter/cache"
	"docchat/internal/adapter/embedding"
	"docchat/internal/adapter/llm"
	"docchat/internal/adapter/retriever"
	"docchat/internal/adapter/store"
	"docchat/internal/logger"
	"docchat/internal/usecase"
)

var (
	cfgFile string
	cfg     *config.Config
	rootDir string
	log     *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "docchat",
	Short: "Chat with your documents - ingest, search and ask with citations",
	Long: `docchat ingests local documents into a private corpus, retrieves relevant
passages with embedding search, HyDE query expansion and MMR re-ranking,
and answers questions grounded in cited sources.

Example usage:
  docchat ingest ./docs             # Ingest a directory of documents
  docchat query -q "refund policy"  # Find relevant passages
  docchat chat                      # Interactive chat with citations`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error

		// A missing .env file is fine; explicit env vars still apply.
		_ = godotenv.Load()

		if rootDir == "" {
			rootDir, err = os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get working directory: %w", err)
			}
		}

		if cfgFile != "" {
			cfg, err = config.Load(cfgFile)
		} else {
			cfg, err = config.LoadFromDir(rootDir)
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		log, err = logger.New(cfg.Logging.Env, cfg.Logging.Level)
		if err != nil {
			return fmt.Errorf("failed to create logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if log != nil {
			_ = log.Sync()
		}
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./docchat.yaml)")
	rootCmd.PersistentFlags().StringVarP(&rootDir, "dir", "d", "", "corpus directory (default is current directory)")
}

func indexSettings() store.IndexSettings {
	return store.IndexSettings{
		ChunkSize:      cfg.Chunking.ChunkSize,
		ChunkOverlap:   cfg.Chunking.ChunkOverlap,
		EmbeddingModel: cfg.Embedding.Model,
		Dimension:      cfg.Embedding.Dimension,
	}
}

// openCorpus opens the document and vector stores under rootDir. With
// create set, the .docchat directory is made first and a corpus built
// with different settings is cleared for rebuild; otherwise a missing
// or incompatible corpus is an error telling the user to ingest.
func openCorpus(create bool) (*store.BoltStore, *store.BoltVectorStore, error) {
	dbPath := config.IndexDBPath(rootDir)

	if create {
		if err := config.EnsureDataDir(rootDir); err != nil {
			return nil, nil, fmt.Errorf("failed to create .docchat directory: %w", err)
		}
	} else if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return nil, nil, fmt.Errorf("no corpus found in %s. Run 'docchat ingest' first", rootDir)
	}

	docs, err := store.NewBoltStore(dbPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open corpus: %w", err)
	}

	// The fingerprint check runs before the vector store loads its
	// in-memory mirror, so a cleared corpus starts from an empty mirror.
	compatible, reason, err := docs.CheckCompatibility(indexSettings())
	if err != nil {
		docs.Close()
		return nil, nil, err
	}
	if !compatible {
		if !create {
			docs.Close()
			return nil, nil, fmt.Errorf("%s. Run 'docchat ingest' to rebuild the corpus", reason)
		}
		fmt.Printf("Corpus rebuild required: %s\n", reason)
		fmt.Println("Clearing existing corpus; previously ingested documents must be ingested again.")
		if err := docs.Clear(); err != nil {
			docs.Close()
			return nil, nil, fmt.Errorf("failed to clear corpus: %w", err)
		}
	}

	vectors, err := store.NewBoltVectorStore(docs.DB(), cfg.Embedding.Dimension)
	if err != nil {
		docs.Close()
		return nil, nil, fmt.Errorf("failed to open vector store: %w", err)
	}

	return docs, vectors, nil
}

func newEmbedder() (*embedding.OpenAIEmbedder, error) {
	return embedding.NewOpenAIEmbedder(embedding.Config{
		APIKey:            os.Getenv(cfg.Embedding.APIKeyEnv),
		BaseURL:           cfg.Embedding.BaseURL,
		Model:             cfg.Embedding.Model,
		Dimension:         cfg.Embedding.Dimension,
		MaxRetries:        cfg.Embedding.MaxRetries,
		RetryDelay:        cfg.Embedding.RetryDelay(),
		RequestsPerSecond: cfg.Embedding.RequestsPerSecond,
		Burst:             cfg.Embedding.Burst,
		Logger:            log,
	})
}

func newLLM() (*llm.OpenAIChat, error) {
	return llm.NewOpenAIChat(llm.Config{
		APIKey:      os.Getenv(cfg.LLM.APIKeyEnv),
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
	})
}

// newRetrieval wires the full retrieval pipeline over open stores.
// retrieveCfg is passed explicitly so commands can override per-flag
// knobs on a copy without touching the loaded config. Query embeddings
// go through an in-process cache so repeated questions in a session do
// not burn provider calls.
func newRetrieval(docs *store.BoltStore, vectors *store.BoltVectorStore, retrieveCfg config.RetrieveConfig) (*usecase.RetrieveUseCase, error) {
	embedder, err := newEmbedder()
	if err != nil {
		return nil, err
	}
	chatModel, err := newLLM()
	if err != nil {
		return nil, err
	}

	return usecase.NewRetrieveUseCase(
		cache.NewCachedEmbedder(embedder, cache.NewEmbeddingCache(256, 15*time.Minute)),
		vectors,
		docs,
		retriever.NewHyDEGenerator(chatModel, log),
		retriever.NewMMRReranker(retrieveCfg.MMRLambda),
		retrieveCfg,
		cfg.Context.DeepSearchBudget,
		log,
	), nil
}
