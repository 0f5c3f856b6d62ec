package chroma

import (
	"context"
	"testing"

	"github.com/amikos-tech/chroma-go/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/adapters/driven/embedding/hashing"
	"github.com/custodia-labs/docqa/internal/core/domain"
)

type failingEmbedder struct {
	*hashing.EmbeddingService
}

func (failingEmbedder) EmbedBatch(context.Context, []string) ([][]float32, error) {
	return nil, domain.ErrEmbeddingUnavailable
}

func TestEmbedFunc_UsesConfiguredEmbedder(t *testing.T) {
	ctx := context.Background()
	embedder := hashing.NewEmbeddingService(64)
	ef := &embedFunc{embedder: embedder}

	docs, err := ef.EmbedDocuments(ctx, []string{"Paris is the capital of France.", "Berlin"})
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, 64, docs[0].Len())

	want, err := embedder.Embed(ctx, "Paris is the capital of France.")
	require.NoError(t, err)
	assert.Equal(t, want, *docs[0].ArrayOfFloat32)

	query, err := ef.EmbedQuery(ctx, "Berlin")
	require.NoError(t, err)
	assert.Equal(t, *docs[1].ArrayOfFloat32, *query.ArrayOfFloat32)
}

func TestEmbedFunc_EmbedRecords(t *testing.T) {
	ef := &embedFunc{embedder: hashing.NewEmbeddingService(32)}
	records := []*types.Record{{ID: "a", Document: "capital of France"}}

	require.NoError(t, ef.EmbedRecords(context.Background(), records, false))
	assert.True(t, records[0].Embedding.IsDefined())
	assert.Equal(t, 32, records[0].Embedding.Len())
}

func TestEmbedFunc_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := (&embedFunc{}).EmbedDocuments(ctx, []string{"x"})
	assert.ErrorIs(t, err, errNoEmbedder)
	_, err = (&embedFunc{}).EmbedQuery(ctx, "x")
	assert.ErrorIs(t, err, errNoEmbedder)

	_, err = (&embedFunc{embedder: failingEmbedder{hashing.NewEmbeddingService(8)}}).EmbedDocuments(ctx, []string{"x"})
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)

	empty, err := (&embedFunc{embedder: hashing.NewEmbeddingService(8)}).EmbedDocuments(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestNewVectorIndex_KeepsEmbedder(t *testing.T) {
	embedder := hashing.NewEmbeddingService(16)
	v, err := NewVectorIndex("", embedder)
	require.NoError(t, err)
	assert.Same(t, embedder, v.embed.embedder)
}
