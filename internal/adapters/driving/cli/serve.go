package cli

import (
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docqa/internal/adapters/driving/httpapi"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Serves the JSON API under /api/v1 until interrupted.

Routes:
  POST   /api/v1/vectordb/add-document      multipart upload
  POST   /api/v1/vectordb/query             search and answer from documents
  POST   /api/v1/vectordb/ask               answer with optional fallback
  DELETE /api/v1/vectordb/delete-document   by document_id or filename
  GET    /api/v1/vectordb/collections[/{name}]
  POST   /api/v1/voice/query                multipart audio question
  GET    /api/v1/voice/health
  POST   /api/v1/ocr/summarize[-image|-pdf] multipart document preview
  GET    /health`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config, \":8080\")")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if ingestService == nil || questionService == nil || collectionService == nil {
		return errors.New("services not configured")
	}

	addr := serveAddr
	if addr == "" && settingsService != nil {
		if settings, err := settingsService.Get(); err == nil {
			addr = settings.Server.Addr
		}
	}

	server, err := httpapi.NewServer(addr, &httpapi.Ports{
		Ingest:      ingestService,
		Questions:   questionService,
		Collections: collectionService,
		Voice:       voiceService,
		Extraction:  extractionService,
		Health:      runtimeHealth,
	})
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return server.Run(ctx)
}
