package mcp

import (
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Search provides similarity search.
	Search driving.SearchService

	// Ingest chunks and stores text.
	Ingest driving.IngestService

	// Questions answers questions over a collection.
	Questions driving.QuestionService

	// Collections deletes chunks and reports on collections.
	Collections driving.CollectionService
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Search == nil {
		return ErrMissingSearchService
	}
	// The remaining ports are optional; their tools report errNotConfigured.
	return nil
}
