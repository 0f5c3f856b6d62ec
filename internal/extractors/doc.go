// Package extractors turns uploaded documents into plain text.
//
// Each subpackage implements driven.Extractor for one family of formats
// (plaintext, markdown, html, docx, pdf, image, audio). A Registry picks the
// highest priority extractor for a document's content type.
package extractors

import (
	"path/filepath"
	"strings"
)

// TitleFromName derives a display title from a filename:
// "my_report-2024.pdf" becomes "my report 2024".
func TitleFromName(name string) string {
	filename := filepath.Base(name)
	filename = strings.TrimSuffix(filename, filepath.Ext(filename))
	filename = strings.ReplaceAll(filename, "_", " ")
	filename = strings.ReplaceAll(filename, "-", " ")
	return filename
}

// Metadata returns the extraction metadata for format.
func Metadata(format string) map[string]any {
	return map[string]any{"format": format}
}
