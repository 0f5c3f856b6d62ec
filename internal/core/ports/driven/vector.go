package driven

import "context"

// VectorRecord is one chunk as handed to the index.
type VectorRecord struct {
	// ID is the chunk identifier.
	ID string

	// Text is the chunk content. The index embeds it.
	Text string

	// Metadata is stored alongside the text and used for filtering.
	Metadata map[string]any
}

// VectorMatch is one nearest-neighbour hit.
type VectorMatch struct {
	ID       string
	Text     string
	Metadata map[string]any

	// Distance is the index's native distance, normalised so that
	// lower means more similar and 1 - Distance is a usable score.
	Distance float64
}

// VectorIndex stores chunk text in named collections and answers
// similarity queries over it.
//
// Collections are created implicitly by Upsert. Operations on a collection
// that does not exist return domain.ErrNotFound, except Upsert. Any other
// error means the backend could not serve the request.
type VectorIndex interface {
	// Upsert inserts or replaces records in collection.
	Upsert(ctx context.Context, collection string, records []VectorRecord) error

	// SimilaritySearch returns up to k matches for queryText, nearest first.
	SimilaritySearch(ctx context.Context, collection, queryText string, k int) ([]VectorMatch, error)

	// Delete removes ids from collection as a single operation.
	// Ids that do not exist are ignored.
	Delete(ctx context.Context, collection string, ids []string) error

	// GetByMetadata returns the ids of records whose metadata equals every
	// key/value pair in filter.
	GetByMetadata(ctx context.Context, collection string, filter map[string]any) ([]string, error)

	// GetByIDs returns the subset of ids present in collection.
	GetByIDs(ctx context.Context, collection string, ids []string) ([]string, error)

	// ListCollections returns the names of all collections.
	ListCollections(ctx context.Context) ([]string, error)

	// Count returns the number of records in collection.
	Count(ctx context.Context, collection string) (int, error)

	// Ping checks the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
