package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/adapters/driven/embedding/hashing"
	"github.com/custodia-labs/docqa/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

const parisText = "Paris is the capital of France. It is known for the Eiffel Tower."

func TestRetriever_IngestDefaults(t *testing.T) {
	index := newMockVectorIndex()
	r := NewRetriever(newTestChunkStore(index), nil)

	text := ""
	for range 30 {
		text += "A sentence that pads the document out. "
	}

	res, err := r.Ingest(context.Background(), domain.IngestRequest{Text: text, SourceID: "long.txt"})
	require.NoError(t, err)

	assert.Equal(t, domain.DefaultCollection, res.Collection)
	assert.Equal(t, "long.txt", res.SourceID)
	assert.Equal(t, 3, res.Count, "1170 characters at size 500 overlap 50")
	assert.Len(t, index.collections[domain.DefaultCollection], 3)
	for _, c := range res.Chunks {
		assert.LessOrEqual(t, len(c.Content), domain.DefaultChunkSize)
	}
}

func TestRetriever_SetChunkingDefaults(t *testing.T) {
	r := NewRetriever(newTestChunkStore(newMockVectorIndex()), nil)
	r.SetChunkingDefaults(domain.ChunkingSettings{Size: 40, Overlap: 5})

	res, err := r.Ingest(context.Background(), domain.IngestRequest{Text: parisText, SourceID: "geo.txt"})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Count)

	r.SetChunkingDefaults(domain.ChunkingSettings{})
	res, err = r.Ingest(context.Background(), domain.IngestRequest{Text: parisText, SourceID: "geo.txt"})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Count, "a zero size leaves the defaults untouched")
}

func TestRetriever_IngestValidation(t *testing.T) {
	tests := []struct {
		name string
		req  domain.IngestRequest
	}{
		{name: "missing source", req: domain.IngestRequest{Text: "x"}},
		{name: "overlap equals size", req: domain.IngestRequest{Text: "x", SourceID: "s", ChunkSize: 10, ChunkOverlap: 10}},
		{name: "negative size", req: domain.IngestRequest{Text: "x", SourceID: "s", ChunkSize: -1}},
		{name: "negative overlap", req: domain.IngestRequest{Text: "x", SourceID: "s", ChunkSize: 10, ChunkOverlap: -1}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			index := newMockVectorIndex()
			r := NewRetriever(newTestChunkStore(index), nil)

			_, err := r.Ingest(context.Background(), tc.req)
			require.ErrorIs(t, err, domain.ErrValidation)
			assert.Empty(t, index.collections, "nothing is stored on invalid input")
		})
	}
}

func TestRetriever_IngestWhitespace(t *testing.T) {
	index := newMockVectorIndex()
	r := NewRetriever(newTestChunkStore(index), nil)

	res, err := r.Ingest(context.Background(), domain.IngestRequest{Text: " \n\t ", SourceID: "blank.txt"})
	require.NoError(t, err)

	assert.Zero(t, res.Count)
	assert.NotNil(t, res.Chunks)
	assert.Empty(t, index.collections)
}

func TestRetriever_IngestStoreError(t *testing.T) {
	index := newMockVectorIndex()
	index.err = errors.New("refused")
	r := NewRetriever(newTestChunkStore(index), nil)

	_, err := r.Ingest(context.Background(), domain.IngestRequest{Text: parisText, SourceID: "geo.txt"})
	require.ErrorIs(t, err, domain.ErrStoreUnavailable)
	assert.Contains(t, err.Error(), "ingest geo.txt")
}

func TestRetriever_IngestDocument(t *testing.T) {
	index := newMockVectorIndex()
	registry := &mockRegistry{out: &domain.ExtractedText{
		Text:     parisText,
		Title:    "Geography",
		Metadata: map[string]any{"mime_type": "text/plain"},
	}}
	r := NewRetriever(newTestChunkStore(index), registry)

	raw := &domain.RawDocument{
		Name:     "geo.txt",
		Content:  []byte(parisText),
		Metadata: map[string]any{"uploaded_by": "cli"},
	}
	res, err := r.IngestDocument(context.Background(), raw, driving.IngestOptions{Collection: "atlas"})
	require.NoError(t, err)

	assert.Equal(t, "atlas", res.Collection)
	require.Equal(t, 1, res.Count)
	meta := res.Chunks[0].Metadata
	assert.Equal(t, "Geography", meta["title"])
	assert.Equal(t, "text/plain", meta["mime_type"])
	assert.Equal(t, "cli", meta["uploaded_by"])
	assert.Equal(t, "geo.txt", meta[domain.MetaSourceID])
}

func TestRetriever_IngestDocumentReplace(t *testing.T) {
	index := newMockVectorIndex()
	registry := &mockRegistry{out: &domain.ExtractedText{Text: parisText}}
	r := NewRetriever(newTestChunkStore(index), registry)
	ctx := context.Background()
	raw := &domain.RawDocument{Name: "geo.txt", Content: []byte(parisText)}
	opts := driving.IngestOptions{Collection: "c", ChunkSize: 100}

	_, err := r.IngestDocument(ctx, raw, opts)
	require.NoError(t, err)
	_, err = r.IngestDocument(ctx, raw, opts)
	require.NoError(t, err)
	assert.Len(t, index.collections["c"], 2, "without replace chunks accumulate")

	opts.Replace = true
	_, err = r.IngestDocument(ctx, raw, opts)
	require.NoError(t, err)
	assert.Len(t, index.collections["c"], 1)
}

func TestRetriever_IngestDocumentReplaceKeepsOldChunksOnFailure(t *testing.T) {
	index := newMockVectorIndex()
	registry := &mockRegistry{out: &domain.ExtractedText{Text: parisText}}
	r := NewRetriever(newTestChunkStore(index), registry)
	ctx := context.Background()
	raw := &domain.RawDocument{Name: "geo.txt", Content: []byte(parisText)}
	opts := driving.IngestOptions{Collection: "c", ChunkSize: 100, Replace: true}

	first, err := r.IngestDocument(ctx, raw, opts)
	require.NoError(t, err)
	require.Equal(t, 1, first.Count)

	index.upsertErr = domain.ErrStoreUnavailable
	_, err = r.IngestDocument(ctx, raw, opts)
	require.ErrorIs(t, err, domain.ErrStoreUnavailable)

	require.Len(t, index.collections["c"], 1)
	assert.Contains(t, index.collections["c"], first.Chunks[0].ID)
	assert.Empty(t, index.deleted)
}

func TestRetriever_IngestDocumentReplaceDeletesAfterInsert(t *testing.T) {
	index := newMockVectorIndex()
	registry := &mockRegistry{out: &domain.ExtractedText{Text: parisText}}
	r := NewRetriever(newTestChunkStore(index), registry)
	ctx := context.Background()
	raw := &domain.RawDocument{Name: "geo.txt", Content: []byte(parisText)}
	opts := driving.IngestOptions{Collection: "c", ChunkSize: 100, Replace: true}

	first, err := r.IngestDocument(ctx, raw, opts)
	require.NoError(t, err)
	second, err := r.IngestDocument(ctx, raw, opts)
	require.NoError(t, err)

	require.Len(t, index.deleted, 1)
	assert.Equal(t, []string{first.Chunks[0].ID}, index.deleted[0])
	require.Len(t, index.collections["c"], 1)
	assert.Contains(t, index.collections["c"], second.Chunks[0].ID)
}

func TestRetriever_IngestDocumentErrors(t *testing.T) {
	ctx := context.Background()
	raw := &domain.RawDocument{Name: "geo.txt", Content: []byte("x")}

	t.Run("no name", func(t *testing.T) {
		r := NewRetriever(newTestChunkStore(newMockVectorIndex()), &mockRegistry{})
		_, err := r.IngestDocument(ctx, &domain.RawDocument{Content: []byte("x")}, driving.IngestOptions{})
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("chunk size below upload minimum", func(t *testing.T) {
		r := NewRetriever(newTestChunkStore(newMockVectorIndex()), &mockRegistry{})
		_, err := r.IngestDocument(ctx, raw, driving.IngestOptions{ChunkSize: 40, ChunkOverlap: 5})
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("no extractors", func(t *testing.T) {
		r := NewRetriever(newTestChunkStore(newMockVectorIndex()), nil)
		_, err := r.IngestDocument(ctx, raw, driving.IngestOptions{})
		assert.ErrorIs(t, err, domain.ErrUnsupportedType)
	})

	t.Run("extraction fails", func(t *testing.T) {
		r := NewRetriever(newTestChunkStore(newMockVectorIndex()), &mockRegistry{err: domain.ErrExtractionFailed})
		_, err := r.IngestDocument(ctx, raw, driving.IngestOptions{})
		assert.ErrorIs(t, err, domain.ErrExtractionFailed)
	})

	t.Run("no text", func(t *testing.T) {
		r := NewRetriever(newTestChunkStore(newMockVectorIndex()), &mockRegistry{out: &domain.ExtractedText{Text: "  "}})
		_, err := r.IngestDocument(ctx, raw, driving.IngestOptions{})
		require.ErrorIs(t, err, domain.ErrValidation)
		assert.Contains(t, err.Error(), "no text content found in geo.txt")
	})
}

func TestRetriever_SearchError(t *testing.T) {
	index := newMockVectorIndex()
	index.err = errors.New("refused")
	r := NewRetriever(newTestChunkStore(index), nil)

	_, err := r.Search(context.Background(), "q", domain.SearchOptions{})
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
}

// TestParisEndToEnd ingests a short text with a real embedder and index,
// searches it and asks a question over it.
func TestParisEndToEnd(t *testing.T) {
	ctx := context.Background()
	index := memory.NewVectorIndex(hashing.NewEmbeddingService(512))
	retriever := NewRetriever(NewChunkStore(index), nil)

	res, err := retriever.Ingest(ctx, domain.IngestRequest{
		Text:         parisText,
		SourceID:     "geo.txt",
		ChunkSize:    40,
		ChunkOverlap: 5,
	})
	require.NoError(t, err)
	require.Equal(t, 2, res.Count)
	assert.Equal(t, "Paris is the capital of France.", res.Chunks[0].Content)

	results, err := retriever.Search(ctx, "capital of France", domain.SearchOptions{TopK: 1})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Paris is the capital of France.", results[0].Chunk.Content)
	assert.Equal(t, "geo.txt", results[0].Chunk.SourceID)
	assert.Equal(t, 0, results[0].Chunk.Index)
	assert.Greater(t, results[0].Score, 0.0)

	llm := &mockLLM{responses: []string{"Paris"}}
	questions := NewQuestionService(retriever, NewAnswerResolver(llm, answerSettings()), answerSettings())

	answer, err := questions.Ask(ctx, domain.QuestionRequest{Question: "What is the capital of France?", TopK: 1})
	require.NoError(t, err)
	assert.True(t, answer.HasAnswer)
	assert.Equal(t, domain.SourceDocument, answer.Answer.Source)
	assert.Equal(t, "Paris", answer.Answer.Answer)
	require.Len(t, llm.calls, 1)
	assert.Contains(t, llm.calls[0].user, "Paris is the capital of France.")

	collections := NewChunkStore(index)
	info, err := collections.CollectionInfo(ctx, domain.DefaultCollection)
	require.NoError(t, err)
	assert.Equal(t, 2, info.DocumentCount)

	removed, err := collections.DeleteBySource(ctx, "geo.txt", "")
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	results, err = retriever.Search(ctx, "capital of France", domain.SearchOptions{TopK: 1})
	require.NoError(t, err)
	assert.Empty(t, results)
}
