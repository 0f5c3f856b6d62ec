package pdf

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// mockRunner answers each tool with canned output and records the calls.
type mockRunner struct {
	outputs map[string][]byte
	errs    map[string]error
	calls   [][]string
}

func (m *mockRunner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	m.calls = append(m.calls, append([]string{name}, args...))
	if err := m.errs[name]; err != nil {
		return nil, err
	}
	return m.outputs[name], nil
}

func (m *mockRunner) call(name string) []string {
	for _, c := range m.calls {
		if c[0] == name {
			return c
		}
	}
	return nil
}

type mockOCR struct {
	text  string
	err   error
	calls int
}

func (m *mockOCR) RecognizeImage(_ context.Context, image []byte, mimeType string) (string, error) {
	m.calls++
	if mimeType != "image/png" || len(image) == 0 {
		return "", fmt.Errorf("unexpected image %q (%d bytes)", mimeType, len(image))
	}
	return m.text, m.err
}

func pdfDoc() *domain.RawDocument {
	return &domain.RawDocument{
		Name:     "/path/to/document.pdf",
		MIMEType: "application/pdf",
		Content:  []byte("%PDF-1.4 fake pdf content"),
	}
}

func TestSupportedMIMETypes(t *testing.T) {
	assert.Equal(t, []string{"application/pdf"}, New().SupportedMIMETypes())
	assert.Equal(t, 50, New().Priority())
}

func TestExtract_PerPageText(t *testing.T) {
	runner := &mockRunner{outputs: map[string][]byte{
		"pdfinfo":   []byte("Title: x\nPages:          2\nEncrypted: no\n"),
		"pdftotext": []byte("PDF Title\n\nFirst page body.\n\fSecond page body.\n\f"),
	}}

	result, err := NewWithRunner(runner).Extract(context.Background(), pdfDoc())
	require.NoError(t, err)

	assert.Equal(t, []string{"PDF Title\n\nFirst page body.", "Second page body."}, result.Pages)
	assert.Equal(t, "PDF Title\n\nFirst page body.\n\nSecond page body.", result.Text)
	assert.Equal(t, "PDF Title", result.Title)
	assert.Equal(t, 2, result.TotalPages)
	assert.Equal(t, 2, result.ProcessedPages)
	assert.Equal(t, "pdf", result.Metadata["format"])

	args := runner.call("pdftotext")
	require.NotNil(t, args)
	assert.Equal(t, "-", args[len(args)-1])
	assert.NotContains(t, args, "-l")
}

func TestExtract_MaxPages(t *testing.T) {
	runner := &mockRunner{outputs: map[string][]byte{
		"pdfinfo":   []byte("Pages: 12\n"),
		"pdftotext": []byte("one\ftwo\fthree\ffour\ffive\f"),
	}}

	result, err := NewWithRunner(runner, WithMaxPages(5)).Extract(context.Background(), pdfDoc())
	require.NoError(t, err)

	assert.Equal(t, 12, result.TotalPages)
	assert.Equal(t, 5, result.ProcessedPages)
	args := runner.call("pdftotext")
	idx := slices.Index(args, "-l")
	require.GreaterOrEqual(t, idx, 0)
	assert.Equal(t, "5", args[idx+1])
}

func TestExtract_PageCountFallsBackToOutput(t *testing.T) {
	runner := &mockRunner{
		outputs: map[string][]byte{"pdftotext": []byte("a\fb\fc\f")},
		errs:    map[string]error{"pdfinfo": errors.New("pdfinfo crashed")},
	}

	result, err := NewWithRunner(runner).Extract(context.Background(), pdfDoc())
	require.NoError(t, err)
	assert.Equal(t, 3, result.TotalPages)
}

func TestExtract_OCRFallback(t *testing.T) {
	runner := &mockRunner{outputs: map[string][]byte{
		"pdfinfo":   []byte("Pages: 2\n"),
		"pdftotext": []byte("Typed page\f\f"),
		"pdftoppm":  []byte("\x89PNG fake"),
	}}
	ocr := &mockOCR{text: "  Scanned page  "}

	result, err := NewWithRunner(runner, WithOCR(ocr)).Extract(context.Background(), pdfDoc())
	require.NoError(t, err)

	assert.Equal(t, 1, ocr.calls)
	assert.Equal(t, []string{"Typed page", "Scanned page"}, result.Pages)
	assert.Equal(t, "Typed page\n\nScanned page", result.Text)

	args := runner.call("pdftoppm")
	require.NotNil(t, args)
	assert.Contains(t, args, "-singlefile")
	idx := slices.Index(args, "-f")
	assert.Equal(t, "2", args[idx+1])
}

func TestExtract_OCRFailureLeavesPageEmpty(t *testing.T) {
	runner := &mockRunner{outputs: map[string][]byte{
		"pdftotext": []byte("\f"),
		"pdftoppm":  []byte("png"),
	}}
	ocr := &mockOCR{err: errors.New("model offline")}

	result, err := NewWithRunner(runner, WithOCR(ocr)).Extract(context.Background(), pdfDoc())
	require.NoError(t, err)
	assert.Empty(t, result.Text)
	assert.Equal(t, "document", result.Title)
}

func TestExtract_NoOCRConfigured(t *testing.T) {
	runner := &mockRunner{outputs: map[string][]byte{"pdftotext": []byte("\f")}}

	result, err := NewWithRunner(runner).Extract(context.Background(), pdfDoc())
	require.NoError(t, err)
	assert.Empty(t, result.Text)
	assert.Nil(t, runner.call("pdftoppm"))
}

func TestExtract_RunnerError(t *testing.T) {
	runner := &mockRunner{errs: map[string]error{"pdftotext": errors.New("pdftotext crashed")}}

	result, err := NewWithRunner(runner).Extract(context.Background(), pdfDoc())
	require.ErrorIs(t, err, domain.ErrExtractionFailed)
	assert.Contains(t, err.Error(), "pdftotext failed")
	assert.Nil(t, result)
}

func TestExtract_ToolMissing(t *testing.T) {
	runner := &mockRunner{errs: map[string]error{
		"pdfinfo":   ErrPDFToolNotFound,
		"pdftotext": fmt.Errorf("%w (pdftotext)", ErrPDFToolNotFound),
	}}

	_, err := NewWithRunner(runner).Extract(context.Background(), pdfDoc())
	require.ErrorIs(t, err, domain.ErrCollaboratorUnavailable)
	assert.ErrorIs(t, err, ErrPDFToolNotFound)
}

func TestExtractTitle(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		docName  string
		expected string
	}{
		{name: "first line", content: "Document Title\n\nSome content here.", docName: "doc.pdf", expected: "Document Title"},
		{name: "skip empty lines", content: "\n\n\nActual Title\nContent", docName: "doc.pdf", expected: "Actual Title"},
		{name: "fallback to filename", content: "", docName: "/path/to/my_document.pdf", expected: "my document"},
		{
			name:     "skip very long first line",
			content:  string(make([]byte, 250)) + "\nShort Title\nContent",
			docName:  "doc.pdf",
			expected: "Short Title",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, extractTitle(tc.content, tc.docName))
		})
	}
}

func TestSplitPages(t *testing.T) {
	assert.Nil(t, splitPages(""))
	assert.Equal(t, []string{""}, splitPages("\f"))
	assert.Equal(t, []string{"a", "b"}, splitPages("a\fb"))
	assert.Equal(t, []string{"a", "", "c"}, splitPages(" a \f\n\fc\f"))
}

func TestInstallInstructions(t *testing.T) {
	instructions := InstallInstructions()
	assert.Contains(t, instructions, "pdftotext")
	assert.Contains(t, instructions, "brew install poppler")
	assert.Contains(t, instructions, "apt install poppler-utils")
}

func TestErrPDFToolNotFound(t *testing.T) {
	assert.Contains(t, ErrPDFToolNotFound.Error(), "pdftotext")
}

// Only runs where poppler is installed.
func TestExecRunner_Integration(t *testing.T) {
	if err := CheckAvailable(); err != nil {
		t.Skip("pdftotext not available, skipping integration test")
	}

	_, err := New().Extract(context.Background(), pdfDoc())
	require.ErrorIs(t, err, domain.ErrExtractionFailed)
}
