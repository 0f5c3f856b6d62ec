// Package pdf extracts text from PDF documents using the poppler command
// line tools. Pages without a text layer are rendered with pdftoppm and sent
// to an OCR engine when one is configured.
package pdf

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strconv"
	"strings"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/extractors"
	"github.com/custodia-labs/docqa/internal/logger"
)

// ErrPDFToolNotFound indicates the poppler utilities are not installed.
var ErrPDFToolNotFound = errors.New("pdftotext not found: install poppler")

// renderDPI is the resolution pages are rasterised at for OCR.
const renderDPI = 144

var pagesLine = regexp.MustCompile(`(?m)^Pages:\s+(\d+)`)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// CommandRunner runs an external program and returns its stdout.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	if _, err := exec.LookPath(name); err != nil {
		return nil, fmt.Errorf("%w (%s)", ErrPDFToolNotFound, name)
	}
	out, err := exec.CommandContext(ctx, name, args...).Output()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
		return nil, fmt.Errorf("%w: %s", err, strings.TrimSpace(string(exitErr.Stderr)))
	}
	return out, err
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithOCR sets the engine used for pages without a text layer.
func WithOCR(engine driven.OCREngine) Option {
	return func(e *Extractor) { e.ocr = engine }
}

// WithMaxPages limits extraction to the first n pages. Zero means no limit.
func WithMaxPages(n int) Option {
	return func(e *Extractor) { e.maxPages = max(n, 0) }
}

// Extractor handles PDF documents.
type Extractor struct {
	runner   CommandRunner
	ocr      driven.OCREngine
	maxPages int
}

// New creates a PDF extractor backed by the installed poppler tools.
func New(opts ...Option) *Extractor {
	return NewWithRunner(execRunner{}, opts...)
}

// NewWithRunner creates a PDF extractor that runs commands through runner.
func NewWithRunner(runner CommandRunner, opts ...Option) *Extractor {
	e := &Extractor{runner: runner}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// CheckAvailable reports whether pdftotext is on PATH.
func CheckAvailable() error {
	if _, err := exec.LookPath("pdftotext"); err != nil {
		return ErrPDFToolNotFound
	}
	return nil
}

// InstallInstructions returns platform hints for installing poppler.
func InstallInstructions() string {
	return `PDF extraction requires pdftotext (poppler).

  macOS:          brew install poppler
  Debian/Ubuntu:  apt install poppler-utils
  Fedora:         dnf install poppler-utils
  Windows:        choco install poppler`
}

// SupportedMIMETypes returns the MIME types this extractor handles.
func (e *Extractor) SupportedMIMETypes() []string {
	return []string{"application/pdf"}
}

// Priority returns the selection priority.
func (e *Extractor) Priority() int {
	return 50
}

// Extract returns the text of each page, falling back to OCR for pages
// that have no text layer.
func (e *Extractor) Extract(ctx context.Context, raw *domain.RawDocument) (*domain.ExtractedText, error) {
	path, cleanup, err := writeTemp(raw.Content)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrExtractionFailed, err)
	}
	defer cleanup()

	total := e.pageCount(ctx, path)

	args := []string{"-enc", "UTF-8"}
	if e.maxPages > 0 {
		args = append(args, "-l", strconv.Itoa(e.maxPages))
	}
	out, err := e.runner.Run(ctx, "pdftotext", append(args, path, "-")...)
	if err != nil {
		if errors.Is(err, ErrPDFToolNotFound) {
			return nil, fmt.Errorf("%w: %w", domain.ErrCollaboratorUnavailable, err)
		}
		return nil, fmt.Errorf("%w: pdftotext failed: %w", domain.ErrExtractionFailed, err)
	}

	pages := splitPages(string(out))
	if total == 0 {
		total = len(pages)
	}
	e.ocrEmptyPages(ctx, path, pages)

	var parts []string
	for _, p := range pages {
		if p != "" {
			parts = append(parts, p)
		}
	}
	text := strings.Join(parts, "\n\n")

	meta := extractors.Metadata("pdf")
	meta["total_pages"] = total

	return &domain.ExtractedText{
		Text:           text,
		Title:          extractTitle(text, raw.Name),
		TotalPages:     total,
		ProcessedPages: len(pages),
		Pages:          pages,
		Metadata:       meta,
	}, nil
}

// pageCount asks pdfinfo for the page count. Zero means unknown.
func (e *Extractor) pageCount(ctx context.Context, path string) int {
	out, err := e.runner.Run(ctx, "pdfinfo", path)
	if err != nil {
		logger.Debug("pdfinfo failed: %v", err)
		return 0
	}
	m := pagesLine.FindSubmatch(out)
	if m == nil {
		return 0
	}
	n, _ := strconv.Atoi(string(m[1]))
	return n
}

func (e *Extractor) ocrEmptyPages(ctx context.Context, path string, pages []string) {
	if e.ocr == nil {
		return
	}
	for i, p := range pages {
		if p != "" {
			continue
		}
		page := strconv.Itoa(i + 1)
		img, err := e.runner.Run(ctx, "pdftoppm",
			"-png", "-r", strconv.Itoa(renderDPI), "-f", page, "-l", page, "-singlefile", path)
		if err != nil {
			logger.Warn("Rendering page %s for OCR failed: %v", page, err)
			continue
		}
		text, err := e.ocr.RecognizeImage(ctx, img, "image/png")
		if err != nil {
			logger.Warn("OCR of page %s failed: %v", page, err)
			continue
		}
		pages[i] = strings.TrimSpace(text)
	}
}

// splitPages splits pdftotext output on form feeds. The trailing feed after
// the last page does not start a new page.
func splitPages(out string) []string {
	if out == "" {
		return nil
	}
	raw := strings.Split(strings.TrimSuffix(out, "\f"), "\f")
	pages := make([]string, len(raw))
	for i, p := range raw {
		pages[i] = strings.TrimSpace(p)
	}
	return pages
}

// extractTitle uses the first short non-empty line, or the filename.
func extractTitle(content, name string) string {
	for line := range strings.SplitSeq(content, "\n") {
		line = strings.TrimSpace(line)
		if line != "" && len(line) < 200 {
			return line
		}
	}
	return extractors.TitleFromName(name)
}

func writeTemp(content []byte) (string, func(), error) {
	f, err := os.CreateTemp("", "docqa-*.pdf")
	if err != nil {
		return "", nil, err
	}
	cleanup := func() { _ = os.Remove(f.Name()) }
	if _, err := f.Write(content); err != nil {
		f.Close()
		cleanup()
		return "", nil, err
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", nil, err
	}
	return f.Name(), cleanup, nil
}
