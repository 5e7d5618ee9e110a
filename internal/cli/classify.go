package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"immigrationiq/internal/usecase"
)

var (
	classifySituation string
	classifyJSON      bool
)

var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Analyze an immigration situation into structured guidance",
	Long: `Send a free-text description of an immigration situation to the model
and return a validated structured analysis: category, applicable forms,
priority steps, timeline estimate, and confidence.

Examples:
  immigrationiq classify -s "I'm on an H1B visa, married to a US citizen, and want a green card"`,
	RunE: runClassify,
}

func init() {
	rootCmd.AddCommand(classifyCmd)
	classifyCmd.Flags().StringVarP(&classifySituation, "situation", "s", "", "situation description (required)")
	classifyCmd.Flags().BoolVar(&classifyJSON, "json", false, "output as JSON")
	classifyCmd.MarkFlagRequired("situation")
}

func runClassify(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	ctx := cmd.Context()

	model, err := newLLM(ctx)
	if err != nil {
		return fmt.Errorf("failed to create completion client: %w", err)
	}

	classifyUC := usecase.NewClassifyUseCase(model, usecase.RetryPolicy{
		MaxAttempts: cfg.Classify.MaxAttempts,
		BaseDelay:   cfg.Classify.BaseBackoff,
		MaxDelay:    cfg.Classify.MaxBackoff,
	})

	analysis, err := classifyUC.Classify(ctx, classifySituation)
	if err != nil {
		var parseErr *usecase.SchemaParseError
		if errors.As(err, &parseErr) {
			return fmt.Errorf("the model did not produce a valid analysis after %d attempts; try rephrasing your situation", parseErr.Attempts)
		}
		return err
	}

	if classifyJSON {
		output, _ := json.MarshalIndent(analysis, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	fmt.Printf("Category:   %s\n", analysis.Category)
	fmt.Printf("Forms:      %s\n", strings.Join(analysis.ApplicableForms, ", "))
	fmt.Println("Next steps:")
	for i, step := range analysis.PrioritySteps {
		fmt.Printf("  %d. %s\n", i+1, step)
	}
	fmt.Printf("Timeline:   %s\n", analysis.EstimatedTimeline)
	fmt.Printf("Confidence: %.2f\n", analysis.Confidence)
	if analysis.NeedsMoreInfo {
		fmt.Println("The model needs more detail about your situation to be confident.")
	}
	return nil
}
