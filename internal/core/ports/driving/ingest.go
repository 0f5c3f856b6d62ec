package driving

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// IngestOptions configures document ingestion.
type IngestOptions struct {
	Collection   string
	ChunkSize    int
	ChunkOverlap int

	// Replace removes chunks previously stored for the same source first.
	Replace bool
}

// IngestService adds documents to the chunk store.
type IngestService interface {
	// Ingest chunks already-extracted text and stores it.
	// Whitespace-only text stores nothing and is not an error.
	Ingest(ctx context.Context, req domain.IngestRequest) (*domain.IngestResult, error)

	// IngestDocument extracts raw and stores its chunks under raw.Name.
	// A document with no text fails with domain.ErrValidation.
	IngestDocument(ctx context.Context, raw *domain.RawDocument, opts IngestOptions) (*domain.IngestResult, error)
}
