package driven

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// Extractor turns raw document bytes into plain text.
//
// Malformed input returns an error wrapping domain.ErrExtractionFailed.
// Input that is well formed but has no text returns an empty Text and no error.
type Extractor interface {
	// SupportedMIMETypes returns the MIME types this extractor handles.
	SupportedMIMETypes() []string

	// Priority breaks ties when several extractors handle a type.
	// Higher wins. Generic extractors use 5, specialised ones 50 and above.
	Priority() int

	// Extract recovers the text of raw.
	Extract(ctx context.Context, raw *domain.RawDocument) (*domain.ExtractedText, error)
}

// ExtractorRegistry selects an Extractor for a document.
type ExtractorRegistry interface {
	// Register adds an extractor.
	Register(e Extractor)

	// Extract dispatches raw to the best extractor for its content type.
	// Returns domain.ErrUnsupportedType when none matches.
	Extract(ctx context.Context, raw *domain.RawDocument) (*domain.ExtractedText, error)

	// Supports reports whether some extractor handles mimeType.
	Supports(mimeType string) bool

	// SupportedMIMETypes returns every registered MIME type.
	SupportedMIMETypes() []string
}
