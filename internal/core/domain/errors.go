package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent pipeline failures.
// Adapters wrap their own errors with these so callers can classify them
// with errors.Is.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrValidation indicates malformed input or invalid chunking parameters.
	// It is always returned before any collaborator is called.
	ErrValidation = errors.New("validation failed")

	// ErrUnsupportedType indicates no extractor handles the declared content type.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrExtractionFailed indicates an extraction adapter could not read its input.
	ErrExtractionFailed = errors.New("extraction failed")

	// ErrStoreUnavailable indicates the vector index backend cannot be reached.
	// It is never folded into an empty result.
	ErrStoreUnavailable = errors.New("chunk store unavailable")

	// ErrCollaboratorUnavailable indicates an external collaborator is
	// unreachable or misconfigured.
	ErrCollaboratorUnavailable = errors.New("collaborator unavailable")

	// ErrGenerativeUnavailable indicates the generative text backend is
	// unreachable or misconfigured (e.g. missing API key).
	ErrGenerativeUnavailable = fmt.Errorf("generative backend: %w", ErrCollaboratorUnavailable)

	// ErrCollaboratorTimeout indicates a collaborator call exceeded its deadline.
	ErrCollaboratorTimeout = fmt.Errorf("timed out: %w", ErrCollaboratorUnavailable)

	// ErrEmbeddingUnavailable indicates the embedding service is not configured
	// or cannot be reached.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")
)
