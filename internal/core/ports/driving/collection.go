package driving

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// CollectionService manages stored chunks and their collections.
type CollectionService interface {
	// DeleteByID removes one chunk. Returns 1 if it existed, else 0.
	DeleteByID(ctx context.Context, id, collection string) (int, error)

	// DeleteBySource removes every chunk of a source document.
	DeleteBySource(ctx context.Context, sourceID, collection string) (int, error)

	// ListCollections returns every collection name, sorted.
	ListCollections(ctx context.Context) ([]string, error)

	// CollectionInfo describes one collection. Unknown names report
	// Exists=false rather than an error.
	CollectionInfo(ctx context.Context, name string) (domain.CollectionInfo, error)
}
