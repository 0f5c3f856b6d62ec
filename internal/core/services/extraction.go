package services

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
	"github.com/custodia-labs/docqa/internal/logger"
)

// Ensure ExtractionService implements the interface.
var _ driving.ExtractionService = (*ExtractionService)(nil)

// Summary limits.
const (
	summaryMaxLines = 20
	summaryMaxChars = 1000
	summaryMaxPages = 5
)

const (
	noTextSummary     = "No text content found in the document."
	noReadableSummary = "No readable text found in the document."
)

// ExtractionService recovers document text and builds quick previews.
type ExtractionService struct {
	registry driven.ExtractorRegistry
}

// NewExtractionService creates an extraction service over registry.
func NewExtractionService(registry driven.ExtractorRegistry) *ExtractionService {
	return &ExtractionService{registry: registry}
}

// Extract recovers the plain text of raw.
func (s *ExtractionService) Extract(ctx context.Context, raw *domain.RawDocument) (*domain.ExtractedText, error) {
	if raw == nil || len(raw.Content) == 0 {
		return nil, fmt.Errorf("%w: empty document", domain.ErrValidation)
	}
	return s.registry.Extract(ctx, raw)
}

// Supports reports whether raw's content type can be extracted.
func (s *ExtractionService) Supports(raw *domain.RawDocument) bool {
	if raw == nil {
		return false
	}
	return s.registry.Supports(raw.ContentType())
}

// Summarize extracts raw and returns its leading lines with word, character
// and line counts. Paged documents are summarised from their first five
// pages, each introduced by a page header.
func (s *ExtractionService) Summarize(ctx context.Context, raw *domain.RawDocument) (*domain.Summary, error) {
	logger.Section("Summarize")

	extracted, err := s.Extract(ctx, raw)
	if err != nil {
		return nil, err
	}

	text := extracted.Text
	paged := len(extracted.Pages) > 0 || extracted.TotalPages > 0
	processed := 0
	if paged {
		text, processed = pagedText(extracted.Pages, summaryMaxPages)
	}

	summary := summarizeText(text)
	summary.Name = raw.Name

	if paged {
		total := max(extracted.TotalPages, len(extracted.Pages))
		summary.TotalPages = total
		summary.ProcessedPages = processed
		if total > processed {
			summary.Summary += fmt.Sprintf("\n\n[Note: Document has %d pages. Processed first %d pages.]", total, processed)
		} else {
			summary.Summary += fmt.Sprintf("\n\n[Processed all %d page(s).]", total)
		}
	}

	logger.Debug("Summarised %q: %d words, %d lines", raw.Name, summary.Words, summary.Lines)
	return summary, nil
}

// pagedText joins up to limit pages, each under a "--- Page N ---" header.
// Pages without text are skipped but still count as processed.
func pagedText(pages []string, limit int) (string, int) {
	n := min(len(pages), limit)
	parts := make([]string, 0, n)
	for i := range n {
		page := strings.TrimSpace(pages[i])
		if page == "" {
			continue
		}
		parts = append(parts, fmt.Sprintf("--- Page %d ---\n%s", i+1, page))
	}
	return strings.Join(parts, "\n\n"), n
}

// summarizeText builds the preview and statistics for text.
func summarizeText(text string) *domain.Summary {
	if text == "" {
		return &domain.Summary{Summary: noTextSummary}
	}

	var lines []string
	for line := range strings.SplitSeq(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) == 0 {
		return &domain.Summary{Summary: noReadableSummary}
	}

	preview := strings.Join(lines[:min(len(lines), summaryMaxLines)], "\n")
	if utf8.RuneCountInString(preview) > summaryMaxChars {
		preview = string([]rune(preview)[:summaryMaxChars]) + "..."
	}

	words := len(strings.Fields(text))
	chars := utf8.RuneCountInString(text)

	var b strings.Builder
	b.WriteString(preview)
	b.WriteString("\n\n--- Document Statistics ---")
	fmt.Fprintf(&b, "\nWords: %d", words)
	fmt.Fprintf(&b, "\nCharacters: %d", chars)
	fmt.Fprintf(&b, "\nLines: %d", len(lines))

	return &domain.Summary{
		Summary:    b.String(),
		Words:      words,
		Characters: chars,
		Lines:      len(lines),
	}
}
