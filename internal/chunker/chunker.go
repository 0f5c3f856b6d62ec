// Package chunker splits text into overlapping, boundary-aware fragments.
package chunker

import (
	"strings"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// boundaries are tried in priority order when a window has to be cut early.
var boundaries = []rune{'.', '\n', ' '}

// Chunker splits text with a fixed size and overlap.
type Chunker struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker.
type Option func(*Chunker)

// WithChunkSize sets the window size in characters.
func WithChunkSize(size int) Option {
	return func(c *Chunker) {
		if size > 0 {
			c.chunkSize = size
		}
	}
}

// WithOverlap sets the number of characters shared by neighbouring windows.
func WithOverlap(overlap int) Option {
	return func(c *Chunker) {
		if overlap >= 0 {
			c.overlap = overlap
		}
	}
}

// New creates a chunker with the given options.
func New(opts ...Option) *Chunker {
	c := &Chunker{
		chunkSize: domain.DefaultChunkSize,
		overlap:   domain.DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(c)
	}

	// Ensure overlap doesn't exceed chunk size
	if c.overlap >= c.chunkSize {
		c.overlap = c.chunkSize / 4
	}

	return c
}

// ChunkSize returns the configured window size.
func (c *Chunker) ChunkSize() int {
	return c.chunkSize
}

// Overlap returns the configured overlap.
func (c *Chunker) Overlap() int {
	return c.overlap
}

// Chunk splits text using the configured size and overlap.
func (c *Chunker) Chunk(text string) []domain.Fragment {
	return Split(text, c.chunkSize, c.overlap)
}

// Split walks text in windows of at most chunkSize characters.
//
// A window that stops short of the end is cut after the last period, newline
// or space (in that priority) found in its second half. Without such a
// boundary the window is cut at chunkSize. Fragments are trimmed and empty
// ones are dropped. Offsets are rune offsets into text.
//
// Every iteration advances by at least one character, so Split terminates for
// any overlap, including overlap >= chunkSize.
func Split(text string, chunkSize, overlap int) []domain.Fragment {
	if text == "" || chunkSize <= 0 {
		return nil
	}
	if overlap < 0 {
		overlap = 0
	}

	runes := []rune(text)
	n := len(runes)

	fragments := make([]domain.Fragment, 0, n/chunkSize+1)
	start := 0
	for start < n {
		end := start + chunkSize
		if end < n {
			end = cutPoint(runes, start, end, chunkSize)
		} else {
			end = n
		}

		content := strings.TrimSpace(string(runes[start:end]))
		if content != "" {
			fragments = append(fragments, domain.Fragment{
				Content:   content,
				Index:     len(fragments),
				StartChar: start,
				EndChar:   end,
			})
		}

		if end >= n {
			break
		}

		next := end - overlap
		if next <= start {
			next = start + 1
		}
		start = next
	}

	return fragments
}

// cutPoint returns the exclusive end of the window [start, end).
// The backward scan never leaves the window.
func cutPoint(runes []rune, start, end, chunkSize int) int {
	floor := start + chunkSize/2
	for _, b := range boundaries {
		if pos := lastIndex(runes, b, start, end); pos > floor {
			return pos + 1
		}
	}
	return end
}

// lastIndex finds the last occurrence of r in runes[start:end], or -1.
func lastIndex(runes []rune, r rune, start, end int) int {
	for i := end - 1; i >= start; i-- {
		if runes[i] == r {
			return i
		}
	}
	return -1
}
