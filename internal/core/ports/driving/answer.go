package driving

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// AnswerResolver decides between a grounded and a generative answer.
type AnswerResolver interface {
	// Resolve never returns an error: collaborator failures are reported
	// as domain.SourceError.
	Resolve(ctx context.Context, query string, results []domain.RetrievalResult, allowFallback bool) domain.AnswerResult
}

// QuestionService answers questions against a collection.
type QuestionService interface {
	// Ask retrieves context for req.Question and resolves an answer.
	Ask(ctx context.Context, req domain.QuestionRequest) (*domain.QuestionAnswer, error)

	// Query searches and resolves without fallback, returning both the
	// ranked results and the answer.
	Query(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.RetrievalResult, domain.AnswerResult, error)
}

// VoiceService answers spoken questions.
type VoiceService interface {
	// Ask transcribes audio, then searches and answers with fallback enabled.
	Ask(ctx context.Context, audio []byte, filename string, opts domain.SearchOptions) (*domain.VoiceAnswer, error)

	// SupportedFormats lists accepted audio extensions.
	SupportedFormats() []string
}
