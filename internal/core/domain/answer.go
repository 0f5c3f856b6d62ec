package domain

// SourceKind records where an answer came from.
type SourceKind string

// Answer sources.
const (
	// SourceDocument means the answer is grounded in retrieved chunks.
	SourceDocument SourceKind = "document"

	// SourceGenerative means the answer came from the model without context.
	SourceGenerative SourceKind = "generative"

	// SourceNone means no context was retrieved and fallback was not allowed.
	SourceNone SourceKind = "none"

	// SourceError means a collaborator failed while answering.
	SourceError SourceKind = "error"
)

// String returns the string representation.
func (k SourceKind) String() string {
	return string(k)
}

// NotFoundSentinel is the exact marker the model is told to emit when the
// supplied context cannot answer the question.
const NotFoundSentinel = "NOT_FOUND_IN_DOCS"

// NoInformationAnswer is returned when no context exists and fallback is off.
const NoInformationAnswer = "No relevant information found in the documents."

// SentinelMatch selects how a model response is tested for the sentinel.
type SentinelMatch string

// Sentinel matching modes.
const (
	// SentinelContains matches the sentinel anywhere in the response.
	SentinelContains SentinelMatch = "contains"

	// SentinelExact requires the trimmed response to equal the sentinel.
	SentinelExact SentinelMatch = "exact"
)

// IsValid returns true if the mode is recognised.
func (m SentinelMatch) IsValid() bool {
	return m == SentinelContains || m == SentinelExact
}

// AnswerResult is the outcome of answer resolution.
type AnswerResult struct {
	// Answer is the text shown to the caller.
	Answer string `json:"answer"`

	// Source says where the answer came from.
	Source SourceKind `json:"source"`

	// Grounded is true iff Source is SourceDocument.
	Grounded bool `json:"grounded"`
}

// Question answering defaults.
const (
	DefaultAskTopK             = 3
	MaxAskTopK                 = 10
	DefaultSimilarityThreshold = 0.3
	SourcePreviewLength        = 200
)

// QuestionRequest is a question asked against a collection.
type QuestionRequest struct {
	Question            string
	Collection          string
	TopK                int
	SimilarityThreshold *float64 // nil takes the configured default
	AllowFallback       bool
}

// SourceChunk is a trimmed view of a chunk used to answer a question.
type SourceChunk struct {
	ChunkID  string  `json:"chunk_id"`
	SourceID string  `json:"source_id"`
	Content  string  `json:"content"`
	Score    float64 `json:"score"`
}

// QuestionAnswer is the answer to a QuestionRequest with its provenance.
type QuestionAnswer struct {
	Question   string        `json:"question"`
	Collection string        `json:"collection"`
	Answer     AnswerResult  `json:"answer"`
	HasAnswer  bool          `json:"has_answer"`
	Sources    []SourceChunk `json:"sources"`
}

// VoiceAnswer is the result of asking a question by audio.
type VoiceAnswer struct {
	Transcript string            `json:"transcript"`
	Collection string            `json:"collection"`
	Results    []RetrievalResult `json:"results"`
	Answer     AnswerResult      `json:"answer"`
	Message    string            `json:"message"`
}
