package domain

// Search bounds for ranked queries.
const (
	DefaultTopK = 5
	MaxTopK     = 20
)

// SearchOptions configures a similarity query.
type SearchOptions struct {
	// Collection to query. Defaults to DefaultCollection.
	Collection string

	// TopK bounds the number of results.
	TopK int
}

// RetrievalResult is a chunk ranked against a query.
type RetrievalResult struct {
	// Chunk is the matched chunk, metadata included.
	Chunk Chunk

	// Score is 1 - distance. Higher means more relevant.
	Score float64
}

// ScoreFromDistance converts a normalised index distance into a similarity score.
func ScoreFromDistance(distance float64) float64 {
	return 1 - distance
}

// CollectionInfo describes one collection.
type CollectionInfo struct {
	// Name of the collection.
	Name string

	// Exists is false when the collection has never received a chunk.
	Exists bool

	// DocumentCount is the number of stored chunks.
	DocumentCount int
}
