// Package domain defines the core entities of docqa.
//
// This package is the innermost layer of the hexagon. It has NO external
// dependencies and defines the fundamental types:
//
//   - Fragment: A boundary-aware slice of text produced by the chunker
//   - Chunk: A fragment persisted in a collection with identity and metadata
//   - RetrievalResult: A chunk paired with its similarity score
//   - AnswerResult: A resolved answer and where it came from
//   - RawDocument: Uploaded bytes awaiting text extraction
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
