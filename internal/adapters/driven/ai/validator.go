package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// Ensure ConfigValidator implements the interface.
var _ driven.AIConfigValidator = (*ConfigValidator)(nil)

// DefaultPingTimeout bounds each provider check.
const DefaultPingTimeout = 5 * time.Second

// ConfigValidator checks provider settings before docqa relies on them.
// It rejects combinations that can never work, then builds the service the
// settings describe and pings it once.
type ConfigValidator struct {
	timeout time.Duration
}

// NewConfigValidator creates a validator using DefaultPingTimeout.
func NewConfigValidator() *ConfigValidator {
	return &ConfigValidator{timeout: DefaultPingTimeout}
}

// WithTimeout returns a copy that waits at most d for each ping.
func (v *ConfigValidator) WithTimeout(d time.Duration) *ConfigValidator {
	if d <= 0 {
		d = DefaultPingTimeout
	}
	return &ConfigValidator{timeout: d}
}

// ValidateEmbedding checks the embedder that chunks and queries will be
// vectorised with. An empty provider has nothing to check.
func (v *ConfigValidator) ValidateEmbedding(config *domain.EmbeddingSettings) error {
	if config == nil || config.Provider == "" {
		return nil
	}
	if !config.Provider.IsValid() {
		return fmt.Errorf("%w: unknown embedding provider %q", domain.ErrValidation, config.Provider)
	}
	if config.Provider == domain.AIProviderAnthropic {
		return fmt.Errorf("%w: anthropic has no embedding API, use local, ollama or openai", domain.ErrValidation)
	}
	if !config.IsConfigured() {
		return fmt.Errorf("%w: %s embeddings need an API key", domain.ErrValidation, config.Provider)
	}

	svc, err := CreateEmbeddingService(config)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), v.timeout)
	defer cancel()
	if err := svc.Ping(ctx); err != nil {
		return fmt.Errorf("embedding model %s unreachable (%w). Run 'docqa config embedding' to fix", svc.ModelName(), err)
	}
	return nil
}

// ValidateLLM checks the model that answers questions. No provider means
// retrieval-only answers, which is valid.
func (v *ConfigValidator) ValidateLLM(config *domain.LLMSettings) error {
	if config == nil || config.Provider == "" {
		return nil
	}
	if !config.Provider.IsValid() || config.Provider == domain.AIProviderLocal {
		return fmt.Errorf("%w: %q cannot answer questions, use ollama, openai or anthropic",
			domain.ErrValidation, config.Provider)
	}
	if !config.IsConfigured() {
		return fmt.Errorf("%w: %s needs an API key", domain.ErrValidation, config.Provider)
	}

	svc, err := CreateLLMService(config)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrGenerativeUnavailable, err)
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), v.timeout)
	defer cancel()
	if err := svc.Ping(ctx); err != nil {
		return fmt.Errorf("language model %s unreachable (%w). Run 'docqa config llm' to fix", svc.ModelName(), err)
	}
	return nil
}
