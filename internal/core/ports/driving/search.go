package driving

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// SearchService ranks stored chunks against a query.
type SearchService interface {
	// Search returns chunks in descending score order. A collection that
	// does not exist yields an empty slice and no error.
	Search(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.RetrievalResult, error)
}
