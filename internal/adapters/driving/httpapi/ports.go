// Package httpapi serves the docqa services over a JSON HTTP API.
//
// Routes live under /api/v1 and mirror the CLI: document upload, search,
// question answering, deletion, collection inspection, voice questions and
// document summaries.
package httpapi

import (
	"errors"

	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

// ErrMissingService is returned when a required port is nil.
var ErrMissingService = errors.New("httpapi: ingest, questions and collections services are required")

// Ports bundles the services the API drives.
type Ports struct {
	// Required.
	Ingest      driving.IngestService
	Questions   driving.QuestionService
	Collections driving.CollectionService

	// Optional. Their routes answer 503 when nil.
	Voice      driving.VoiceService
	Extraction driving.ExtractionService

	// Health reports which collaborators were configured at startup.
	Health Health
}

// Health flags collaborators that may be missing from the configuration.
type Health struct {
	Generative    bool
	Transcription bool
}

// Validate checks that the required ports are set.
func (p *Ports) Validate() error {
	if p == nil || p.Ingest == nil || p.Questions == nil || p.Collections == nil {
		return ErrMissingService
	}
	return nil
}
