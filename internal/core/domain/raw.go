package domain

import (
	"mime"
	"path/filepath"
	"strings"
)

// RawDocument is an uploaded file before text extraction.
type RawDocument struct {
	// Name is the original filename. It becomes the chunks' source id.
	Name string

	// MIMEType is the declared content type (e.g., "application/pdf").
	// When empty it is derived from the filename extension.
	MIMEType string

	// Content is the raw bytes.
	Content []byte

	// Metadata is copied onto every chunk produced from the document.
	Metadata map[string]any
}

// ContentType returns the declared MIME type, falling back to the extension.
// Parameters such as charset are stripped.
func (r *RawDocument) ContentType() string {
	declared := r.MIMEType
	if declared == "" || declared == "application/octet-stream" {
		if byExt := MIMETypeForName(r.Name); byExt != "" {
			return byExt
		}
	}
	if mediaType, _, err := mime.ParseMediaType(declared); err == nil {
		return mediaType
	}
	return declared
}

// extensionTypes covers the formats docqa extracts. The stdlib mime table is
// consulted for anything else.
var extensionTypes = map[string]string{
	".txt":  "text/plain",
	".text": "text/plain",
	".log":  "text/plain",
	".md":   "text/markdown",
	".html": "text/html",
	".htm":  "text/html",
	".pdf":  "application/pdf",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".webp": "image/webp",
	".bmp":  "image/bmp",
	".tiff": "image/tiff",
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".m4a":  "audio/mp4",
	".ogg":  "audio/ogg",
	".flac": "audio/flac",
	".webm": "audio/webm",
}

// MIMETypeForName guesses a content type from a filename extension.
func MIMETypeForName(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		return ""
	}
	if t, ok := extensionTypes[ext]; ok {
		return t
	}
	if t := mime.TypeByExtension(ext); t != "" {
		if mediaType, _, err := mime.ParseMediaType(t); err == nil {
			return mediaType
		}
	}
	return ""
}

// ExtractedText is the plain text recovered from a RawDocument.
type ExtractedText struct {
	// Text is the recovered plain text. Empty when the input had none.
	Text string

	// Title is a display title derived from the content or filename.
	Title string

	// TotalPages is set for paged formats such as PDF.
	TotalPages int

	// ProcessedPages is how many pages were actually read.
	ProcessedPages int

	// Pages holds the text of each processed page for paged formats.
	// Text is the pages joined with blank lines.
	Pages []string

	// Metadata describes the extraction (format, mime type, ...).
	Metadata map[string]any
}

// Summary is a quick preview of a document's text.
type Summary struct {
	Name           string `json:"filename"`
	Summary        string `json:"summary"`
	Words          int    `json:"words"`
	Characters     int    `json:"characters"`
	Lines          int    `json:"lines"`
	TotalPages     int    `json:"total_pages,omitempty"`
	ProcessedPages int    `json:"processed_pages,omitempty"`
}
