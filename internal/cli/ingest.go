package cli

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"immigrationiq/internal/adapter/chunker"
	"immigrationiq/internal/adapter/corpus"
	"immigrationiq/internal/usecase"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [path]",
	Short: "Index USCIS instruction documents for retrieval",
	Long: `Chunk and embed every document under the corpus directory, replacing
the persisted vector index.

Examples:
  immigrationiq ingest                  # Index the configured corpus directory
  immigrationiq ingest ./my_pdfs        # Index a specific directory`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	corpusDir := cfg.Corpus.Dir
	if len(args) > 0 {
		corpusDir = args[0]
	}
	if !filepath.IsAbs(corpusDir) {
		corpusDir = filepath.Join(GetRootDir(), corpusDir)
	}

	// The manifest is the corpus's table of contents; a broken one
	// (duplicate form numbers) should stop the run before any work.
	manifestPath := cfg.Corpus.ManifestPath
	if !filepath.IsAbs(manifestPath) {
		manifestPath = filepath.Join(GetRootDir(), manifestPath)
	}
	if manifest, err := corpus.LoadManifest(manifestPath); err == nil {
		fmt.Printf("Manifest lists %d forms\n", manifest.Len())
	} else {
		fmt.Printf("No corpus manifest loaded (%v); form numbers come from filenames\n", err)
	}

	if err := cfg.EnsureStateDir(GetRootDir()); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	st := newStore()
	defer st.Close()
	_, cache := newRetriever(st)

	ingestUC := usecase.NewIngestUseCase(
		corpus.NewWalker(cfg.Corpus.Includes, cfg.Corpus.Excludes),
		corpus.NewLoader(),
		chunker.NewRecursiveChunker(cfg.Index.ChunkSize, cfg.Index.ChunkOverlap, cfg.Corpus.MinPageChars),
		st,
		cache,
	)

	fmt.Printf("Scanning %s...\n", corpusDir)

	var bar *progressbar.ProgressBar
	var barMu sync.Mutex
	progress := func(done, total int) {
		barMu.Lock()
		defer barMu.Unlock()

		if bar == nil {
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetWidth(40),
				progressbar.OptionShowCount(),
				progressbar.OptionSetDescription("Embedding"),
				progressbar.OptionOnCompletion(func() {
					fmt.Println()
				}),
			)
		}
		bar.Set(done)
	}

	result, err := ingestUC.Ingest(corpusDir, progress)
	if err != nil {
		return err
	}

	fmt.Printf("Indexed %d documents (%d chunks)\n", result.Documents, result.Chunks)
	if result.Skipped > 0 {
		fmt.Printf("Skipped %d documents:\n", result.Skipped)
		for _, msg := range result.Errors {
			fmt.Printf("  %s\n", msg)
		}
	}
	return nil
}
