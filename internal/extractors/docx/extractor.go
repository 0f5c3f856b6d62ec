// Package docx extracts paragraph text from Office Open XML documents.
package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/extractors"
)

// MIMEType is the content type of .docx files.
const MIMEType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

const (
	documentPart = "word/document.xml"
	corePart     = "docProps/core.xml"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// Extractor handles DOCX documents.
type Extractor struct{}

// New creates a new DOCX extractor.
func New() *Extractor {
	return &Extractor{}
}

// SupportedMIMETypes returns the MIME types this extractor handles.
func (e *Extractor) SupportedMIMETypes() []string {
	return []string{MIMEType}
}

// Priority returns the selection priority.
func (e *Extractor) Priority() int {
	return 50
}

// Extract joins the document's paragraphs with newlines.
func (e *Extractor) Extract(_ context.Context, raw *domain.RawDocument) (*domain.ExtractedText, error) {
	reader, err := zip.NewReader(bytes.NewReader(raw.Content), int64(len(raw.Content)))
	if err != nil {
		return nil, fmt.Errorf("%w: open docx: %w", domain.ErrExtractionFailed, err)
	}

	body, err := readPart(reader, documentPart)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrExtractionFailed, err)
	}
	paragraphs, err := Paragraphs(body)
	if err != nil {
		return nil, fmt.Errorf("%w: parse %s: %w", domain.ErrExtractionFailed, documentPart, err)
	}

	title := coreTitle(reader)
	if title == "" {
		title = extractors.TitleFromName(raw.Name)
	}

	meta := extractors.Metadata("docx")
	meta["paragraphs"] = len(paragraphs)

	return &domain.ExtractedText{
		Text:     strings.Join(paragraphs, "\n"),
		Title:    title,
		Metadata: meta,
	}, nil
}

// Paragraphs streams document.xml and returns the text of every non-empty
// w:p element, including those nested in tables.
func Paragraphs(documentXML []byte) ([]string, error) {
	dec := xml.NewDecoder(bytes.NewReader(documentXML))

	var (
		out     []string
		current strings.Builder
		inText  bool
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				current.WriteByte('\t')
			case "br", "cr":
				current.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if text := strings.TrimSpace(current.String()); text != "" {
					out = append(out, text)
				}
				current.Reset()
			}
		case xml.CharData:
			if inText {
				current.Write(t)
			}
		}
	}
	return out, nil
}

func readPart(reader *zip.Reader, name string) ([]byte, error) {
	f, err := reader.Open(name)
	if err != nil {
		return nil, fmt.Errorf("missing %s: %w", name, err)
	}
	defer f.Close()
	return io.ReadAll(f)
}

// coreTitle returns dc:title from the core properties, if any.
func coreTitle(reader *zip.Reader) string {
	body, err := readPart(reader, corePart)
	if err != nil {
		return ""
	}
	var core struct {
		Title string `xml:"title"`
	}
	if err := xml.Unmarshal(body, &core); err != nil {
		return ""
	}
	return strings.TrimSpace(core.Title)
}
