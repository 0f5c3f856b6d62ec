package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
	"github.com/custodia-labs/docqa/internal/watcher"
)

var (
	watchCollection string
	watchNoScan     bool
)

var watchCmd = &cobra.Command{
	Use:   "watch [directory]",
	Short: "Keep a collection in step with a directory",
	Long: `Ingests every supported file under a directory, then watches it.
Created and modified files are re-ingested in place of their previous chunks;
deleted files have their chunks removed. Hidden files and directories are
ignored. Runs until interrupted.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVarP(&watchCollection, "collection", "c", "", "collection to keep in step (default \"default\")")
	watchCmd.Flags().BoolVar(&watchNoScan, "no-scan", false, "skip the initial ingest of existing files")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if ingestService == nil || collectionService == nil {
		return errors.New("services not configured")
	}

	w := watcher.New(args[0])
	defer w.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	changes, err := w.Watch(ctx)
	if err != nil {
		return err
	}

	if !watchNoScan {
		files, err := w.Scan()
		if err != nil {
			return err
		}
		for _, path := range files {
			syncFile(ctx, cmd, path)
		}
	}

	cmd.Printf("Watching %s (collection '%s'). Press Ctrl+C to stop.\n",
		w.Root(), domain.CollectionOrDefault(watchCollection))

	for change := range changes {
		switch change.Type {
		case watcher.ChangeDeleted:
			removeFile(ctx, cmd, change.Path)
		default:
			syncFile(ctx, cmd, change.Path)
		}
	}
	return nil
}

// syncFile re-ingests path, replacing chunks stored for it earlier.
// Files no extractor handles are skipped silently.
func syncFile(ctx context.Context, cmd *cobra.Command, path string) {
	content, err := os.ReadFile(path)
	if err != nil {
		cmd.Printf("  ✗ %s: %v\n", path, err)
		return
	}

	raw := &domain.RawDocument{
		Name:     filepath.Base(path),
		MIMEType: domain.MIMETypeForName(path),
		Content:  content,
		Metadata: map[string]any{"path": path},
	}
	if extractionService != nil && !extractionService.Supports(raw) {
		return
	}

	res, err := ingestService.IngestDocument(ctx, raw, driving.IngestOptions{
		Collection: watchCollection,
		Replace:    true,
	})
	if err != nil {
		cmd.Printf("  ✗ %s: %v\n", path, err)
		return
	}
	cmd.Printf("  ✓ %s: %d chunks in '%s'\n", path, res.Count, res.Collection)
}

func removeFile(ctx context.Context, cmd *cobra.Command, path string) {
	n, err := collectionService.DeleteBySource(ctx, filepath.Base(path), watchCollection)
	if err != nil {
		cmd.Printf("  ✗ %s: %v\n", path, err)
		return
	}
	if n > 0 {
		cmd.Printf("  - %s: removed %d chunks\n", path, n)
	}
}
