package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"immigrationiq/internal/adapter/store"
	"immigrationiq/internal/usecase"
)

var (
	queryText string
	queryTopK int
	queryForm string
	queryJSON bool
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Search the indexed USCIS instructions",
	Long: `Retrieve the most relevant instruction passages for a question.

Examples:
  immigrationiq query -q "how do I renew my work permit"
  immigrationiq query -q "filing fee" --form I-485 --top-k 8 --json`,
	RunE: runQuery,
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.Flags().StringVarP(&queryText, "query", "q", "", "question to search for (required)")
	queryCmd.Flags().IntVarP(&queryTopK, "top-k", "k", 0, "number of passages (default from config)")
	queryCmd.Flags().StringVar(&queryForm, "form", "", "restrict results to one form number, e.g. I-485")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output as JSON")
	queryCmd.MarkFlagRequired("query")
}

type queryResult struct {
	FormNumber  string  `json:"form_number"`
	Page        int     `json:"page"`
	SourceLabel string  `json:"source_label"`
	Score       float64 `json:"score"`
	Text        string  `json:"text"`
}

func runQuery(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	st := newStore()
	defer st.Close()
	retr, _ := newRetriever(st)
	retrieveUC := usecase.NewRetrieveUseCase(retr, cfg.Retrieve.TopK)

	chunks, err := retrieveUC.Retrieve(queryText, queryTopK, queryForm)
	if err != nil {
		if errors.Is(err, store.ErrIndexNotFound) {
			return fmt.Errorf("no index found. Run 'immigrationiq ingest' first")
		}
		return fmt.Errorf("search failed: %w", err)
	}

	results := make([]queryResult, 0, len(chunks))
	for _, c := range chunks {
		results = append(results, queryResult{
			FormNumber:  c.Chunk.FormNumber,
			Page:        c.Chunk.Page,
			SourceLabel: c.Chunk.SourceLabel,
			Score:       c.Score,
			Text:        c.Chunk.Text,
		})
	}

	if queryJSON {
		output, _ := json.MarshalIndent(results, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}
	fmt.Printf("Found %d passages for: %s\n\n", len(results), queryText)
	for i, r := range results {
		fmt.Printf("--- [%d] %s (score: %.3f) ---\n", i+1, r.SourceLabel, r.Score)
		text := r.Text
		if len(text) > 500 {
			text = text[:500] + "..."
		}
		fmt.Println(text)
		fmt.Println()
	}
	return nil
}
