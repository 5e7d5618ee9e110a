package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"immigrationiq/config"
	"immigrationiq/internal/adapter/embedding"
	"immigrationiq/internal/adapter/llm"
	"immigrationiq/internal/adapter/retriever"
	"immigrationiq/internal/adapter/store"
	"immigrationiq/internal/port"
)

var (
	cfgFile string
	cfg     *config.Config
	rootDir string
)

var rootCmd = &cobra.Command{
	Use:   "immigrationiq",
	Short: "ImmigrationIQ - Answer questions about US immigration forms from official USCIS instructions",
	Long: `ImmigrationIQ indexes USCIS form instruction documents and answers
natural-language questions about them, grounded in the indexed text.

Example usage:
  immigrationiq ingest                          # Index the configured corpus
  immigrationiq query -q "work permit renewal"  # Show matching passages
  immigrationiq classify -s "I'm on H1B, married to a US citizen"
  immigrationiq chat                            # Interactive conversation`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error

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

		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./immigrationiq.yaml)")
	rootCmd.PersistentFlags().StringVarP(&rootDir, "dir", "d", "", "working directory (default is current directory)")
}

func GetConfig() *config.Config {
	return cfg
}

func GetRootDir() string {
	return rootDir
}

// newStore wires the lazily initialized index store. The embedder is
// created on first use, so commands that never touch the index pay
// nothing for it.
func newStore() *store.LazyStore {
	c := GetConfig()
	return store.NewLazyStore(c.IndexPath(GetRootDir()), c.Embedding.BatchSize, newEmbedder)
}

func newEmbedder() (port.Embedder, error) {
	c := GetConfig()
	switch c.Embedding.Provider {
	case "openai":
		return embedding.NewOpenAIEmbedder(c.Embedding.APIKeyEnv, c.Embedding.Model)
	case "ollama":
		return embedding.NewOllamaEmbedder(c.Embedding.Model, c.Embedding.BaseURL)
	case "mock":
		return embedding.NewMockEmbedder(c.Embedding.Dimension), nil
	default:
		if c.Embedding.BaseURL != "" {
			return embedding.NewOpenAICompatibleEmbedder(c.Embedding.APIKeyEnv, c.Embedding.Model, c.Embedding.BaseURL)
		}
		return nil, fmt.Errorf("unknown embedding provider: %s", c.Embedding.Provider)
	}
}

// newRetriever layers the query cache over the semantic retriever.
func newRetriever(st *store.LazyStore) (port.Retriever, *retriever.QueryCache) {
	c := GetConfig()
	mmr := retriever.NewMMRSelector(c.Retrieve.MMRLambda)
	semantic := retriever.NewSemanticRetriever(st, mmr, c.Retrieve.CandidatePool)
	cache := retriever.NewQueryCache(c.Retrieve.CacheSize, c.Retrieve.CacheTTL)
	return retriever.NewCachedRetriever(semantic, cache), cache
}

func newLLM(ctx context.Context) (port.LLM, error) {
	c := GetConfig()
	switch c.LLM.Provider {
	case "groq":
		return llm.NewGroqClient(c.LLM.APIKeyEnv, c.LLM.Model, c.LLM.Temperature, c.LLM.MaxTokens)
	case "openai":
		return llm.NewOpenAIClient(c.LLM.APIKeyEnv, c.LLM.Model, c.LLM.Temperature, c.LLM.MaxTokens)
	case "gemini":
		return llm.NewGeminiClient(ctx, c.LLM.APIKeyEnv, c.LLM.Model, c.LLM.Temperature, c.LLM.MaxTokens)
	default:
		if c.LLM.BaseURL != "" {
			return llm.NewOpenAICompatibleClient(c.LLM.APIKeyEnv, c.LLM.Model, c.LLM.BaseURL, c.LLM.Temperature, c.LLM.MaxTokens)
		}
		return nil, fmt.Errorf("unknown llm provider: %s", c.LLM.Provider)
	}
}
