package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
	"github.com/custodia-labs/docqa/internal/logger"
)

// Ensure QuestionService implements the interface.
var _ driving.QuestionService = (*QuestionService)(nil)

// QuestionService combines retrieval and answer resolution.
type QuestionService struct {
	search   driving.SearchService
	resolver driving.AnswerResolver
	settings domain.AnswerSettings
}

// NewQuestionService creates a question service.
func NewQuestionService(
	search driving.SearchService,
	resolver driving.AnswerResolver,
	settings domain.AnswerSettings,
) *QuestionService {
	if settings.TopK <= 0 {
		settings.TopK = domain.DefaultAskTopK
	}
	return &QuestionService{
		search:   search,
		resolver: resolver,
		settings: settings,
	}
}

// Ask retrieves the top chunks for req.Question and resolves an answer.
//
// A zero TopK or a nil SimilarityThreshold takes the configured default.
// Chunks scoring below the threshold are dropped only when threshold gating
// is enabled in the answer settings.
func (s *QuestionService) Ask(ctx context.Context, req domain.QuestionRequest) (*domain.QuestionAnswer, error) {
	req.Question = strings.TrimSpace(req.Question)
	if req.Question == "" {
		return nil, fmt.Errorf("%w: question is required", domain.ErrValidation)
	}
	if req.TopK == 0 {
		req.TopK = s.settings.TopK
	}
	if req.TopK < 1 || req.TopK > domain.MaxAskTopK {
		return nil, fmt.Errorf("%w: top_k must be between 1 and %d", domain.ErrValidation, domain.MaxAskTopK)
	}
	threshold := s.settings.SimilarityThreshold
	if req.SimilarityThreshold != nil {
		threshold = *req.SimilarityThreshold
	}
	if threshold < 0 || threshold > 1 {
		return nil, fmt.Errorf("%w: similarity_threshold must be between 0 and 1", domain.ErrValidation)
	}
	req.Collection = domain.CollectionOrDefault(req.Collection)

	results, err := s.search.Search(ctx, req.Question, domain.SearchOptions{
		Collection: req.Collection,
		TopK:       req.TopK,
	})
	if err != nil {
		return nil, err
	}

	if s.settings.ApplyThreshold {
		kept := results[:0:0]
		for _, r := range results {
			if r.Score >= threshold {
				kept = append(kept, r)
			}
		}
		logger.Debug("Threshold %.2f kept %d of %d results", threshold, len(kept), len(results))
		results = kept
	}

	answer := s.resolver.Resolve(ctx, req.Question, results, req.AllowFallback)

	sources := make([]domain.SourceChunk, 0, len(results))
	for _, r := range results {
		sources = append(sources, domain.SourceChunk{
			ChunkID:  r.Chunk.ID,
			SourceID: r.Chunk.SourceID,
			Content:  preview(r.Chunk.Content, domain.SourcePreviewLength),
			Score:    r.Score,
		})
	}

	return &domain.QuestionAnswer{
		Question:   req.Question,
		Collection: req.Collection,
		Answer:     answer,
		HasAnswer:  answer.Source == domain.SourceDocument || answer.Source == domain.SourceGenerative,
		Sources:    sources,
	}, nil
}

// Query searches and resolves against the results without fallback.
func (s *QuestionService) Query(
	ctx context.Context,
	query string,
	opts domain.SearchOptions,
) ([]domain.RetrievalResult, domain.AnswerResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, domain.AnswerResult{}, fmt.Errorf("%w: query is required", domain.ErrValidation)
	}
	if opts.TopK == 0 {
		opts.TopK = domain.DefaultTopK
	}
	if opts.TopK < 1 || opts.TopK > domain.MaxTopK {
		return nil, domain.AnswerResult{}, fmt.Errorf("%w: top_k must be between 1 and %d",
			domain.ErrValidation, domain.MaxTopK)
	}

	results, err := s.search.Search(ctx, query, opts)
	if err != nil {
		return nil, domain.AnswerResult{}, err
	}

	return results, s.resolver.Resolve(ctx, query, results, false), nil
}

// preview truncates content to n runes, marking the cut with "...".
func preview(content string, n int) string {
	runes := []rune(content)
	if len(runes) <= n {
		return content
	}
	return string(runes[:n]) + "..."
}
