package domain

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or LLM.
type AIProvider string

// Available AI providers.
const (
	// AIProviderLocal is the built-in hashing embedder. It needs no network.
	AIProviderLocal AIProvider = "local"

	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderLocal, AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama || p == AIProviderLocal
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderLocal:
		return "Built-in (hashing, offline)"
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	default:
		return unknownDescription
	}
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint (for Ollama or OpenAI-compatible servers).
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string

	// Dimensions is the vector size. Zero uses the model default.
	Dimensions int
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() || e.Provider == AIProviderAnthropic {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// LLMSettings holds generative backend configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model name.
	Model string

	// BaseURL is the API endpoint (for Ollama or OpenAI-compatible servers).
	BaseURL string

	// APIKey is the API key (for OpenAI/Anthropic).
	APIKey string

	// RequestsPerSecond throttles calls to the backend. Zero disables throttling.
	RequestsPerSecond float64

	// TimeoutSeconds bounds a single completion call.
	TimeoutSeconds int
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() || l.Provider == AIProviderLocal {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// StoreBackend selects the vector index implementation.
type StoreBackend string

// Available store backends.
const (
	// StoreMemory keeps chunks in process memory. Nothing survives a restart.
	StoreMemory StoreBackend = "memory"

	// StoreSQLite persists chunks and embeddings in a local SQLite file.
	StoreSQLite StoreBackend = "sqlite"

	// StoreChroma stores chunks on a Chroma server. Vectors still come from
	// the configured embedding provider.
	StoreChroma StoreBackend = "chroma"
)

// IsValid returns true if the backend is recognised.
func (b StoreBackend) IsValid() bool {
	switch b {
	case StoreMemory, StoreSQLite, StoreChroma:
		return true
	default:
		return false
	}
}

// RequiresEmbedding returns true if the backend needs an embedding service.
// Every backend does; chunks are embedded before they reach the store.
func (b StoreBackend) RequiresEmbedding() bool {
	return b.IsValid()
}

// String returns the string representation.
func (b StoreBackend) String() string {
	return string(b)
}

// StoreSettings holds chunk store configuration.
type StoreSettings struct {
	// Backend is the vector index implementation.
	Backend StoreBackend

	// Path is the SQLite data directory. Empty uses the docqa home.
	Path string

	// URL is the Chroma server address.
	URL string
}

// ChunkingSettings holds the default chunking parameters.
type ChunkingSettings struct {
	Size    int
	Overlap int
}

// AnswerSettings holds answer resolution behaviour.
type AnswerSettings struct {
	// TopK is the number of chunks considered when asking a question.
	TopK int

	// SimilarityThreshold is the minimum score for a chunk to count as relevant.
	SimilarityThreshold float64

	// ApplyThreshold enables filtering by SimilarityThreshold before resolution.
	ApplyThreshold bool

	// SentinelMatch selects substring or whole-response sentinel detection.
	SentinelMatch SentinelMatch

	// GroundedTemperature is used when answering from context.
	GroundedTemperature float64

	// FallbackTemperature is used for context-free answers.
	FallbackTemperature float64

	// MaxTokens bounds every completion.
	MaxTokens int
}

// ServerSettings holds HTTP API configuration.
type ServerSettings struct {
	// Addr is the listen address, e.g. ":8000".
	Addr string
}

// AppSettings holds all application settings.
type AppSettings struct {
	Embedding EmbeddingSettings
	LLM       LLMSettings
	Store     StoreSettings
	Chunking  ChunkingSettings
	Answer    AnswerSettings
	Server    ServerSettings
}

// DefaultAppSettings returns settings that work offline: the built-in
// embedder over a SQLite store, with the LLM left unconfigured.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Embedding: EmbeddingSettings{
			Provider:   AIProviderLocal,
			Model:      DefaultEmbeddingModels()[AIProviderLocal],
			Dimensions: 512,
		},
		LLM: LLMSettings{
			TimeoutSeconds: 120,
		},
		Store: StoreSettings{
			Backend: StoreSQLite,
			URL:     "http://localhost:8000",
		},
		Chunking: ChunkingSettings{
			Size:    DefaultChunkSize,
			Overlap: DefaultChunkOverlap,
		},
		Answer: AnswerSettings{
			TopK:                DefaultAskTopK,
			SimilarityThreshold: DefaultSimilarityThreshold,
			ApplyThreshold:      false,
			SentinelMatch:       SentinelContains,
			GroundedTemperature: 0.2,
			FallbackTemperature: 0.7,
			MaxTokens:           500,
		},
		Server: ServerSettings{
			Addr: ":8080",
		},
	}
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderLocal,
		AIProviderOllama,
		AIProviderOpenAI,
	}
}

// AllLLMProviders returns providers that support LLM operations.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderAnthropic,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderLocal:  "hashing-bow",
		AIProviderOllama: "nomic-embed-text",
		AIProviderOpenAI: "text-embedding-3-small",
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:    "llama3.2",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderAnthropic: "claude-3-5-sonnet-latest",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		"hashing-bow": 512,
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}
