// Package ai provides factory functions that build the driven adapters
// (embedder, vector index, LLM, OCR and transcription) from settings.
package ai

import (
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/docqa/internal/adapters/driven/embedding/hashing"
	ollamaembed "github.com/custodia-labs/docqa/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/docqa/internal/adapters/driven/embedding/openai"
	anthropicllm "github.com/custodia-labs/docqa/internal/adapters/driven/llm/anthropic"
	ollamallm "github.com/custodia-labs/docqa/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/docqa/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/docqa/internal/adapters/driven/llm/ratelimit"
	openaiocr "github.com/custodia-labs/docqa/internal/adapters/driven/ocr/openai"
	"github.com/custodia-labs/docqa/internal/adapters/driven/storage/chroma"
	"github.com/custodia-labs/docqa/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/docqa/internal/adapters/driven/storage/sqlite"
	openaistt "github.com/custodia-labs/docqa/internal/adapters/driven/transcription/openai"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/logger"
)

// InitResult holds every driven adapter the services need.
// Optional collaborators are nil when not configured.
type InitResult struct {
	EmbeddingService driven.EmbeddingService
	VectorIndex      driven.VectorIndex
	LLMService       driven.LLMService
	OCREngine        driven.OCREngine
	Transcriber      driven.Transcriber
	Warnings         []string // Non-fatal issues; the affected collaborator is nil.
}

// Close releases all resources held by InitResult.
func (r *InitResult) Close() {
	if r.VectorIndex != nil {
		_ = r.VectorIndex.Close()
	}
	if r.EmbeddingService != nil {
		_ = r.EmbeddingService.Close()
	}
	if r.LLMService != nil {
		_ = r.LLMService.Close()
	}
}

// Initialize builds the adapters for settings. The vector index (and the
// embedder it needs) is mandatory; the LLM, OCR and transcription services
// are optional and recorded as warnings when they cannot be created.
// Nothing is pinged here; see Doctor.
func Initialize(settings *domain.AppSettings) (*InitResult, error) {
	result := &InitResult{}

	if settings.Store.Backend.RequiresEmbedding() {
		embedder, err := CreateEmbeddingService(&settings.Embedding)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
		}
		if embedder == nil {
			return nil, fmt.Errorf("%w: %s store needs an embedding provider",
				domain.ErrEmbeddingUnavailable, settings.Store.Backend)
		}
		result.EmbeddingService = embedder
	}

	index, err := CreateVectorIndex(&settings.Store, result.EmbeddingService)
	if err != nil {
		result.Close()
		return nil, err
	}
	result.VectorIndex = index

	llm, err := CreateLLMService(&settings.LLM)
	switch {
	case err != nil:
		result.Warnings = append(result.Warnings, fmt.Sprintf("LLM unavailable: %v", err))
	case llm == nil:
		result.Warnings = append(result.Warnings, "no LLM configured; answers will report an error")
	default:
		result.LLMService = llm
	}

	apiKey, baseURL := openAICredentials(settings)
	if apiKey != "" {
		if ocr, err := openaiocr.NewOCREngine(openaiocr.Config{APIKey: apiKey, BaseURL: baseURL}); err == nil {
			result.OCREngine = ocr
		}
		if stt, err := openaistt.NewTranscriber(openaistt.Config{APIKey: apiKey, BaseURL: baseURL}); err == nil {
			result.Transcriber = stt
		}
	} else {
		result.Warnings = append(result.Warnings, "no OpenAI API key; image OCR and voice questions are disabled")
	}

	for _, w := range result.Warnings {
		logger.Debug("ai: %s", w)
	}
	return result, nil
}

// openAICredentials picks an OpenAI key for the vision and speech services,
// preferring the LLM settings.
func openAICredentials(settings *domain.AppSettings) (apiKey, baseURL string) {
	if settings.LLM.Provider == domain.AIProviderOpenAI && settings.LLM.APIKey != "" {
		return settings.LLM.APIKey, settings.LLM.BaseURL
	}
	if settings.Embedding.Provider == domain.AIProviderOpenAI && settings.Embedding.APIKey != "" {
		return settings.Embedding.APIKey, settings.Embedding.BaseURL
	}
	return "", ""
}

// CreateVectorIndex creates the configured index backend.
func CreateVectorIndex(settings *domain.StoreSettings, embedder driven.EmbeddingService) (driven.VectorIndex, error) {
	if settings.Backend.RequiresEmbedding() && embedder == nil {
		return nil, fmt.Errorf("%w: %s store needs an embedding service",
			domain.ErrEmbeddingUnavailable, settings.Backend)
	}

	switch settings.Backend {
	case domain.StoreMemory:
		return memory.NewVectorIndex(embedder), nil

	case domain.StoreSQLite:
		store, err := sqlite.NewStore(settings.Path)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
		}
		return store.VectorIndex(embedder), nil

	case domain.StoreChroma:
		return chroma.NewVectorIndex(settings.URL, embedder)

	default:
		return nil, fmt.Errorf("%w: unsupported store backend %q", domain.ErrValidation, settings.Backend)
	}
}

// CreateEmbeddingService creates the embedding service selected by settings.
// Returns nil if the provider is not configured.
func CreateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil {
		return nil, nil
	}
	if settings.Provider == domain.AIProviderAnthropic {
		return nil, errors.New("anthropic does not support embeddings, use local, ollama or openai")
	}
	if !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderLocal:
		return hashing.NewEmbeddingService(settings.Dimensions), nil

	case domain.AIProviderOllama:
		dimensions := settings.Dimensions
		if dimensions == 0 {
			dimensions = domain.EmbeddingDimensions()[settings.Model]
		}
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Dimensions: dimensions,
		}), nil

	case domain.AIProviderOpenAI:
		return openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:     settings.APIKey,
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Dimensions: settings.Dimensions,
		})

	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", settings.Provider)
	}
}

// CreateLLMService creates the LLM service selected by settings, wrapped
// with the configured rate limit and timeout.
// Returns nil if the provider is not configured.
func CreateLLMService(settings *domain.LLMSettings) (driven.LLMService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	var (
		svc driven.LLMService
		err error
	)
	switch settings.Provider {
	case domain.AIProviderOllama:
		svc = ollamallm.NewLLMService(ollamallm.LLMConfig{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	case domain.AIProviderOpenAI:
		svc, err = openaillm.NewLLMService(openaillm.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	case domain.AIProviderAnthropic:
		svc, err = anthropicllm.NewLLMService(anthropicllm.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", settings.Provider)
	}
	if err != nil {
		return nil, err
	}

	timeout := time.Duration(settings.TimeoutSeconds) * time.Second
	return ratelimit.Wrap(svc, settings.RequestsPerSecond, timeout), nil
}
