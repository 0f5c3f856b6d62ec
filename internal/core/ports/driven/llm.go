package driven

import "context"

// CompletionOptions configures a single completion.
type CompletionOptions struct {
	// Temperature controls randomness (0.0 = deterministic).
	Temperature float64

	// MaxTokens limits response length (0 = provider default).
	MaxTokens int
}

// LLMService is the generative text collaborator.
//
// Implementations may include:
//   - OpenAI (gpt-4o-mini) through go-openai
//   - Anthropic (Claude) over the Messages API
//   - Ollama (llama3.2, mistral) for local use
type LLMService interface {
	// Complete sends a system instruction and a user message and returns the
	// model's reply. Unreachable or misconfigured backends return an error
	// wrapping domain.ErrGenerativeUnavailable.
	Complete(ctx context.Context, system, user string, opts CompletionOptions) (string, error)

	// ModelName returns the name of the LLM model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
