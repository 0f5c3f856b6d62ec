package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

var collectionsJSON bool

var collectionsCmd = &cobra.Command{
	Use:   "collections [name]",
	Short: "List collections or show one",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCollections,
}

func init() {
	collectionsCmd.Flags().BoolVar(&collectionsJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(collectionsCmd)
}

func runCollections(cmd *cobra.Command, args []string) error {
	if collectionService == nil {
		return errors.New("collection service not configured")
	}

	if len(args) == 1 {
		return showCollection(cmd, args[0])
	}

	names, err := collectionService.ListCollections(cmd.Context())
	if err != nil {
		return fmt.Errorf("listing collections: %w", err)
	}
	if names == nil {
		names = []string{}
	}

	if collectionsJSON {
		return printJSON(cmd, names)
	}

	if len(names) == 0 {
		cmd.Println("No collections yet. Add documents with 'docqa ingest'.")
		return nil
	}
	for _, name := range names {
		cmd.Printf("  %s\n", name)
	}
	return nil
}

func showCollection(cmd *cobra.Command, name string) error {
	info, err := collectionService.CollectionInfo(cmd.Context(), name)
	if err != nil {
		return fmt.Errorf("getting collection info: %w", err)
	}
	if !info.Exists {
		return fmt.Errorf("%w: collection '%s'", domain.ErrNotFound, name)
	}

	if collectionsJSON {
		return printJSON(cmd, map[string]any{
			"name":           info.Name,
			"document_count": info.DocumentCount,
		})
	}

	cmd.Printf("Collection: %s\n", info.Name)
	cmd.Printf("Chunks:     %d\n", info.DocumentCount)
	return nil
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
