package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

var summarizeJSON bool

var summarizeCmd = &cobra.Command{
	Use:   "summarize [file]",
	Short: "Preview a document's text",
	Long: `Extracts a document and prints its first lines with word, character and
line counts. PDFs are previewed from their first five pages. Nothing is stored.`,
	Args: cobra.ExactArgs(1),
	RunE: runSummarize,
}

func init() {
	summarizeCmd.Flags().BoolVar(&summarizeJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(summarizeCmd)
}

func runSummarize(cmd *cobra.Command, args []string) error {
	if extractionService == nil {
		return errors.New("extraction service not configured")
	}

	path := args[0]
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	summary, err := extractionService.Summarize(cmd.Context(), &domain.RawDocument{
		Name:     filepath.Base(path),
		MIMEType: domain.MIMETypeForName(path),
		Content:  content,
	})
	if err != nil {
		return fmt.Errorf("summarize failed: %w", err)
	}

	if summarizeJSON {
		return printJSON(cmd, summary)
	}

	cmd.Println(summary.Summary)
	return nil
}
