package services

import (
	"context"
	"errors"
	"maps"
	"slices"
	"sync"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// --- Mock implementations ---

type llmCall struct {
	system string
	user   string
	opts   driven.CompletionOptions
}

// mockLLM replies with queued responses in order and records every call.
type mockLLM struct {
	mu        sync.Mutex
	responses []string
	errs      []error
	calls     []llmCall
}

func (m *mockLLM) Complete(_ context.Context, system, user string, opts driven.CompletionOptions) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := len(m.calls)
	m.calls = append(m.calls, llmCall{system: system, user: user, opts: opts})
	if i < len(m.errs) && m.errs[i] != nil {
		return "", m.errs[i]
	}
	if i < len(m.responses) {
		return m.responses[i], nil
	}
	return "", errors.New("mockLLM: no response queued")
}

func (m *mockLLM) ModelName() string            { return "mock-llm" }
func (m *mockLLM) Ping(_ context.Context) error { return nil }
func (m *mockLLM) Close() error                 { return nil }

// mockVectorIndex stores records in maps and ranks by a fixed distance per id.
type mockVectorIndex struct {
	mu          sync.Mutex
	collections map[string]map[string]driven.VectorRecord
	distances   map[string]float64
	err         error
	upsertErr   error
	deleteErr   error
	deleted     [][]string
}

func newMockVectorIndex() *mockVectorIndex {
	return &mockVectorIndex{
		collections: make(map[string]map[string]driven.VectorRecord),
		distances:   make(map[string]float64),
	}
}

func (m *mockVectorIndex) Upsert(_ context.Context, collection string, records []driven.VectorRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if m.upsertErr != nil {
		return m.upsertErr
	}
	coll, ok := m.collections[collection]
	if !ok {
		coll = make(map[string]driven.VectorRecord)
		m.collections[collection] = coll
	}
	for _, r := range records {
		coll[r.ID] = r
	}
	return nil
}

func (m *mockVectorIndex) SimilaritySearch(
	_ context.Context,
	collection, _ string,
	k int,
) ([]driven.VectorMatch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	coll, ok := m.collections[collection]
	if !ok {
		return nil, domain.ErrNotFound
	}
	var out []driven.VectorMatch
	for _, id := range slices.Sorted(maps.Keys(coll)) {
		r := coll[id]
		out = append(out, driven.VectorMatch{ID: r.ID, Text: r.Text, Metadata: r.Metadata, Distance: m.distances[id]})
	}
	// Unsorted on purpose: the chunk store must rank by score itself.
	if len(out) > k+1 {
		out = out[:k+1]
	}
	return out, nil
}

func (m *mockVectorIndex) Delete(_ context.Context, collection string, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.deleted = append(m.deleted, ids)
	for _, id := range ids {
		delete(m.collections[collection], id)
	}
	return nil
}

func (m *mockVectorIndex) GetByMetadata(_ context.Context, collection string, filter map[string]any) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	coll, ok := m.collections[collection]
	if !ok {
		return nil, domain.ErrNotFound
	}
	var ids []string
	for id, r := range coll {
		match := true
		for k, v := range filter {
			if r.Metadata[k] != v {
				match = false
			}
		}
		if match {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids, nil
}

func (m *mockVectorIndex) GetByIDs(_ context.Context, collection string, ids []string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	coll, ok := m.collections[collection]
	if !ok {
		return nil, domain.ErrNotFound
	}
	var found []string
	for _, id := range ids {
		if _, ok := coll[id]; ok {
			found = append(found, id)
		}
	}
	return found, nil
}

func (m *mockVectorIndex) ListCollections(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return slices.Collect(maps.Keys(m.collections)), nil
}

func (m *mockVectorIndex) Count(_ context.Context, collection string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	coll, ok := m.collections[collection]
	if !ok {
		return 0, domain.ErrNotFound
	}
	return len(coll), nil
}

func (m *mockVectorIndex) Ping(_ context.Context) error { return m.err }
func (m *mockVectorIndex) Close() error                 { return nil }

// mockSearch returns canned results and records the last query.
type mockSearch struct {
	results []domain.RetrievalResult
	err     error
	query   string
	opts    domain.SearchOptions
}

func (m *mockSearch) Search(_ context.Context, query string, opts domain.SearchOptions) ([]domain.RetrievalResult, error) {
	m.query = query
	m.opts = opts
	return m.results, m.err
}

// mockResolver returns a fixed answer and records its inputs.
type mockResolver struct {
	answer        domain.AnswerResult
	results       []domain.RetrievalResult
	allowFallback bool
	calls         int
}

func (m *mockResolver) Resolve(
	_ context.Context,
	_ string,
	results []domain.RetrievalResult,
	allowFallback bool,
) domain.AnswerResult {
	m.calls++
	m.results = results
	m.allowFallback = allowFallback
	return m.answer
}

type mockTranscriber struct {
	text string
	err  error
}

func (m *mockTranscriber) Transcribe(_ context.Context, _ []byte, _ string) (string, error) {
	return m.text, m.err
}

// mockRegistry extracts every document with a fixed result.
type mockRegistry struct {
	out *domain.ExtractedText
	err error
}

func (m *mockRegistry) Register(driven.Extractor) {}

func (m *mockRegistry) Extract(_ context.Context, _ *domain.RawDocument) (*domain.ExtractedText, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := *m.out
	out.Metadata = maps.Clone(m.out.Metadata)
	return &out, nil
}

func (m *mockRegistry) Supports(mimeType string) bool { return mimeType == "text/plain" }
func (m *mockRegistry) SupportedMIMETypes() []string  { return []string{"text/plain"} }

func result(id, source, content string, score float64) domain.RetrievalResult {
	return domain.RetrievalResult{
		Chunk: domain.Chunk{ID: id, SourceID: source, Content: content},
		Score: score,
	}
}
