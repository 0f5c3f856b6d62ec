package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

var (
	deleteID         string
	deleteSource     string
	deleteCollection string
)

var deleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete stored chunks",
	Long: `Deletes a single chunk by id, or every chunk ingested from a file.

Examples:
  docqa delete --source handbook.pdf
  docqa delete --id 5f0c9a52-... --collection faq`,
	Args: cobra.NoArgs,
	RunE: runDelete,
}

func init() {
	deleteCmd.Flags().StringVar(&deleteID, "id", "", "chunk id to delete")
	deleteCmd.Flags().StringVar(&deleteSource, "source", "", "delete every chunk of this file")
	deleteCmd.Flags().StringVarP(&deleteCollection, "collection", "c", "", "collection to delete from (default \"default\")")
	deleteCmd.MarkFlagsMutuallyExclusive("id", "source")
	deleteCmd.MarkFlagsOneRequired("id", "source")
	rootCmd.AddCommand(deleteCmd)
}

func runDelete(cmd *cobra.Command, _ []string) error {
	if collectionService == nil {
		return errors.New("collection service not configured")
	}

	collection := domain.CollectionOrDefault(deleteCollection)

	var (
		n   int
		err error
	)
	if deleteID != "" {
		n, err = collectionService.DeleteByID(cmd.Context(), deleteID, collection)
	} else {
		n, err = collectionService.DeleteBySource(cmd.Context(), deleteSource, collection)
	}
	if err != nil {
		return fmt.Errorf("delete failed: %w", err)
	}

	if n == 0 {
		cmd.Printf("Nothing matched in collection '%s'.\n", collection)
		return nil
	}
	cmd.Printf("Deleted %d chunk(s) from collection '%s'.\n", n, collection)
	return nil
}
