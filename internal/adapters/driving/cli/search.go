package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

var (
	searchTopK       int
	searchCollection string
	searchJSON       bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search stored chunks",
	Long: `Ranks the chunks of a collection by similarity to the query and prints
the best matches with their scores. No answer is generated.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchTopK, "top-k", "k", domain.DefaultTopK, "maximum number of results")
	searchCmd.Flags().StringVarP(&searchCollection, "collection", "c", "", "collection to search (default \"default\")")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := args[0]

	if searchService == nil {
		return errors.New("search service not configured")
	}
	if searchTopK < 1 || searchTopK > domain.MaxTopK {
		return fmt.Errorf("%w: --top-k must be between 1 and %d", domain.ErrValidation, domain.MaxTopK)
	}

	opts := domain.SearchOptions{
		Collection: searchCollection,
		TopK:       searchTopK,
	}

	results, err := searchService.Search(cmd.Context(), query, opts)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputSearchJSON(cmd, results)
	}

	return outputSearchTable(cmd, results)
}

// searchResultJSON is the JSON shape of one search result.
type searchResultJSON struct {
	ChunkID    string         `json:"chunk_id"`
	SourceID   string         `json:"source_id"`
	ChunkIndex int            `json:"chunk_index"`
	Score      float64        `json:"score"`
	Content    string         `json:"content"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

func outputSearchJSON(cmd *cobra.Command, results []domain.RetrievalResult) error {
	out := make([]searchResultJSON, len(results))
	for i := range results {
		out[i] = searchResultJSON{
			ChunkID:    results[i].Chunk.ID,
			SourceID:   results[i].Chunk.SourceID,
			ChunkIndex: results[i].Chunk.Index,
			Score:      results[i].Score,
			Content:    results[i].Chunk.Content,
			Metadata:   results[i].Chunk.Metadata,
		}
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSearchTable(cmd *cobra.Command, results []domain.RetrievalResult) error {
	if len(results) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Println("Results:")
	cmd.Println()
	for i := range results {
		// Format: [N] source #index (score)
		chunk := results[i].Chunk
		cmd.Printf("  [%d] %s #%d (%.2f)\n", i+1, chunk.SourceID, chunk.Index, results[i].Score)
		cmd.Printf("      %s\n", snippet(chunk.Content, 160))
		cmd.Println()
	}

	return nil
}

// snippet collapses whitespace and cuts s to n runes.
func snippet(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
