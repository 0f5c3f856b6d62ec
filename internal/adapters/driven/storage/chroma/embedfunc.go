package chroma

import (
	"context"
	"errors"

	"github.com/amikos-tech/chroma-go/types"

	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// Ensure embedFunc implements the chroma interface.
var _ types.EmbeddingFunction = (*embedFunc)(nil)

var errNoEmbedder = errors.New("chroma: no embedding service configured")

// embedFunc lets Chroma collections embed with docqa's embedding service.
type embedFunc struct {
	embedder driven.EmbeddingService
}

func (e *embedFunc) EmbedDocuments(ctx context.Context, texts []string) ([]*types.Embedding, error) {
	if e.embedder == nil {
		return nil, errNoEmbedder
	}
	if len(texts) == 0 {
		return []*types.Embedding{}, nil
	}
	vectors, err := e.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, err
	}
	return types.NewEmbeddingsFromFloat32(vectors), nil
}

func (e *embedFunc) EmbedQuery(ctx context.Context, text string) (*types.Embedding, error) {
	if e.embedder == nil {
		return nil, errNoEmbedder
	}
	vector, err := e.embedder.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	return types.NewEmbeddingFromFloat32(vector), nil
}

func (e *embedFunc) EmbedRecords(ctx context.Context, records []*types.Record, force bool) error {
	return types.EmbedRecordsDefaultImpl(e, ctx, records, force)
}
