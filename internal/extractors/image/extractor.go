// Package image extracts text from images through an OCR engine.
package image

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/extractors"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// Extractor sends images to an OCR engine.
type Extractor struct {
	ocr driven.OCREngine
}

// New creates an image extractor backed by ocr.
func New(ocr driven.OCREngine) *Extractor {
	return &Extractor{ocr: ocr}
}

// SupportedMIMETypes returns the MIME types this extractor handles.
func (e *Extractor) SupportedMIMETypes() []string {
	return []string{
		"image/png",
		"image/jpeg",
		"image/gif",
		"image/webp",
		"image/bmp",
		"image/tiff",
	}
}

// Priority returns the selection priority.
func (e *Extractor) Priority() int {
	return 50
}

// Extract returns the text recognised in the image.
func (e *Extractor) Extract(ctx context.Context, raw *domain.RawDocument) (*domain.ExtractedText, error) {
	if e.ocr == nil {
		return nil, fmt.Errorf("%w: no OCR engine configured", domain.ErrCollaboratorUnavailable)
	}
	if len(raw.Content) == 0 {
		return nil, fmt.Errorf("%w: empty image", domain.ErrValidation)
	}

	text, err := e.ocr.RecognizeImage(ctx, raw.Content, raw.ContentType())
	if err != nil {
		return nil, err
	}

	return &domain.ExtractedText{
		Text:     strings.TrimSpace(text),
		Title:    extractors.TitleFromName(raw.Name),
		Metadata: extractors.Metadata("image"),
	}, nil
}
