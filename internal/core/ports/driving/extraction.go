package driving

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// ExtractionService exposes text extraction and previews.
type ExtractionService interface {
	// Extract recovers the plain text of raw.
	Extract(ctx context.Context, raw *domain.RawDocument) (*domain.ExtractedText, error)

	// Summarize extracts raw and builds a preview with statistics.
	Summarize(ctx context.Context, raw *domain.RawDocument) (*domain.Summary, error)

	// Supports reports whether raw's content type can be extracted.
	Supports(raw *domain.RawDocument) bool
}
