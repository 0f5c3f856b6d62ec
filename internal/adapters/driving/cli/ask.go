package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

var (
	askTopK       int
	askThreshold  float64
	askNoFallback bool
	askCollection string
	askJSON       bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a question from your documents",
	Long: `Retrieves the chunks most similar to the question and asks the language
model to answer from them.

When the documents do not contain the answer, the model is asked again
without context and the answer is marked as general knowledge. With
--no-fallback the model's grounded reply is returned as is, and a question
with no matching chunks reports that nothing relevant was found.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().IntVarP(&askTopK, "top-k", "k", 0, "number of chunks to consider, 1-10 (default from config)")
	askCmd.Flags().Float64Var(&askThreshold, "threshold", 0, "minimum similarity score, 0-1 (default from config)")
	askCmd.Flags().BoolVar(&askNoFallback, "no-fallback", false, "never answer without supporting documents")
	askCmd.Flags().StringVarP(&askCollection, "collection", "c", "", "collection to answer from (default \"default\")")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the answer as JSON")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if questionService == nil {
		return errors.New("question service not configured")
	}

	req := domain.QuestionRequest{
		Question:      args[0],
		Collection:    askCollection,
		TopK:          askTopK,
		AllowFallback: !askNoFallback,
	}
	if cmd.Flags().Changed("threshold") {
		req.SimilarityThreshold = &askThreshold
	}

	qa, err := questionService.Ask(cmd.Context(), req)
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	if askJSON {
		data, err := json.MarshalIndent(qa, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal answer: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Println(qa.Answer.Answer)
	cmd.Println()
	cmd.Printf("Source: %s\n", describeSource(qa.Answer.Source))

	if len(qa.Sources) > 0 {
		cmd.Println()
		cmd.Println("Chunks considered:")
		for i, src := range qa.Sources {
			cmd.Printf("  [%d] %s (%.2f)\n", i+1, src.SourceID, src.Score)
		}
	}
	return nil
}

// describeSource explains an answer's origin to a reader.
func describeSource(kind domain.SourceKind) string {
	switch kind {
	case domain.SourceDocument:
		return "your documents"
	case domain.SourceGenerative:
		return "general knowledge (not found in your documents)"
	case domain.SourceNone:
		return "none (nothing relevant found)"
	case domain.SourceError:
		return "error (the language model could not be reached)"
	default:
		return string(kind)
	}
}
