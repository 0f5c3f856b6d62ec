package domain

import (
	"fmt"
	"strings"
)

// DefaultCollection is used when a caller does not name a collection.
const DefaultCollection = "default"

// Chunking bounds accepted from uploads and the CLI.
const (
	DefaultChunkSize    = 500
	DefaultChunkOverlap = 50
	MinChunkSize        = 100
	MaxChunkSize        = 5000
	MaxChunkOverlap     = 500
)

// Metadata keys written on every stored chunk.
const (
	MetaSourceID   = "source_id"
	MetaChunkIndex = "chunk_index"
	MetaStartChar  = "start_char"
	MetaEndChar    = "end_char"
)

// Fragment is one boundary-aware slice of a text produced by the chunker.
// Offsets are character offsets into the original text.
type Fragment struct {
	// Content is the trimmed text of the slice. Never empty.
	Content string

	// Index is the 0-based position of the fragment within its run.
	Index int

	// StartChar is the inclusive start offset of the window.
	StartChar int

	// EndChar is the exclusive end offset of the window.
	EndChar int
}

// Chunk is a fragment persisted in a collection.
type Chunk struct {
	// ID is unique across every insertion, including re-ingestion of a source.
	ID string

	// SourceID identifies the owning document (usually the filename).
	SourceID string

	// Collection is the partition the chunk lives in.
	Collection string

	// Content is the chunk text.
	Content string

	// Index is the chunk_index within its source.
	Index int

	// StartChar is the start offset in the source text.
	StartChar int

	// EndChar is the end offset in the source text.
	EndChar int

	// Metadata always carries source_id and chunk_index.
	Metadata map[string]any
}

// IngestRequest describes text to be chunked and stored.
type IngestRequest struct {
	// Text is the extracted plain text.
	Text string

	// SourceID identifies the document the text came from.
	SourceID string

	// Collection defaults to DefaultCollection when empty.
	Collection string

	// ChunkSize is the maximum window size in characters.
	ChunkSize int

	// ChunkOverlap is the number of characters shared by neighbouring windows.
	ChunkOverlap int

	// Metadata is copied onto every chunk.
	Metadata map[string]any
}

// Validate checks the request before any collaborator is called.
func (r IngestRequest) Validate() error {
	if strings.TrimSpace(r.SourceID) == "" {
		return fmt.Errorf("%w: source id is required", ErrValidation)
	}
	return ValidateChunking(r.ChunkSize, r.ChunkOverlap)
}

// ValidateChunking checks the parameters the chunker relies on.
func ValidateChunking(size, overlap int) error {
	if size <= 0 {
		return fmt.Errorf("%w: chunk size must be positive, got %d", ErrValidation, size)
	}
	if overlap < 0 {
		return fmt.Errorf("%w: chunk overlap must not be negative, got %d", ErrValidation, overlap)
	}
	if overlap >= size {
		return fmt.Errorf("%w: chunk overlap (%d) must be smaller than chunk size (%d)", ErrValidation, overlap, size)
	}
	return nil
}

// ValidateUploadChunking applies the bounds enforced on user uploads.
func ValidateUploadChunking(size, overlap int) error {
	if size < MinChunkSize || size > MaxChunkSize {
		return fmt.Errorf("%w: chunk size must be between %d and %d, got %d",
			ErrValidation, MinChunkSize, MaxChunkSize, size)
	}
	if overlap < 0 || overlap > MaxChunkOverlap {
		return fmt.Errorf("%w: chunk overlap must be between 0 and %d, got %d",
			ErrValidation, MaxChunkOverlap, overlap)
	}
	return ValidateChunking(size, overlap)
}

// IngestResult reports what an ingestion stored.
type IngestResult struct {
	SourceID   string
	Collection string
	Count      int
	Chunks     []Chunk
}

// CollectionOrDefault returns name, or DefaultCollection when name is blank.
func CollectionOrDefault(name string) string {
	if strings.TrimSpace(name) == "" {
		return DefaultCollection
	}
	return name
}
