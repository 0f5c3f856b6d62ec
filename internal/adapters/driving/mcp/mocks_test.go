package mcp

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

// mockSearchService is a mock implementation of driving.SearchService.
type mockSearchService struct {
	results []domain.RetrievalResult
	err     error
	opts    domain.SearchOptions
}

func (m *mockSearchService) Search(
	_ context.Context,
	_ string,
	opts domain.SearchOptions,
) ([]domain.RetrievalResult, error) {
	m.opts = opts
	return m.results, m.err
}

// mockIngestService is a mock implementation of driving.IngestService.
type mockIngestService struct {
	result *domain.IngestResult
	err    error
	req    domain.IngestRequest
}

func (m *mockIngestService) Ingest(_ context.Context, req domain.IngestRequest) (*domain.IngestResult, error) {
	m.req = req
	return m.result, m.err
}

func (m *mockIngestService) IngestDocument(
	_ context.Context,
	_ *domain.RawDocument,
	_ driving.IngestOptions,
) (*domain.IngestResult, error) {
	return m.result, m.err
}

// mockQuestionService is a mock implementation of driving.QuestionService.
type mockQuestionService struct {
	answer *domain.QuestionAnswer
	err    error
	req    domain.QuestionRequest
}

func (m *mockQuestionService) Ask(_ context.Context, req domain.QuestionRequest) (*domain.QuestionAnswer, error) {
	m.req = req
	return m.answer, m.err
}

func (m *mockQuestionService) Query(
	_ context.Context,
	_ string,
	_ domain.SearchOptions,
) ([]domain.RetrievalResult, domain.AnswerResult, error) {
	return nil, domain.AnswerResult{}, m.err
}

// mockCollectionService is a mock implementation of driving.CollectionService.
type mockCollectionService struct {
	names   []string
	info    domain.CollectionInfo
	deleted int
	err     error

	byID     string
	bySource string
}

func (m *mockCollectionService) DeleteByID(_ context.Context, id, _ string) (int, error) {
	m.byID = id
	return m.deleted, m.err
}

func (m *mockCollectionService) DeleteBySource(_ context.Context, sourceID, _ string) (int, error) {
	m.bySource = sourceID
	return m.deleted, m.err
}

func (m *mockCollectionService) ListCollections(_ context.Context) ([]string, error) {
	return m.names, m.err
}

func (m *mockCollectionService) CollectionInfo(_ context.Context, name string) (domain.CollectionInfo, error) {
	info := m.info
	info.Name = name
	return info, m.err
}
