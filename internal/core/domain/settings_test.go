package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAIProvider_IsValid(t *testing.T) {
	tests := []struct {
		name     string
		provider AIProvider
		expected bool
	}{
		{name: "local is valid", provider: AIProviderLocal, expected: true},
		{name: "ollama is valid", provider: AIProviderOllama, expected: true},
		{name: "openai is valid", provider: AIProviderOpenAI, expected: true},
		{name: "anthropic is valid", provider: AIProviderAnthropic, expected: true},
		{name: "empty is invalid", provider: AIProvider(""), expected: false},
		{name: "unknown is invalid", provider: AIProvider("cohere"), expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.provider.IsValid())
		})
	}
}

func TestAIProvider_RequiresAPIKey(t *testing.T) {
	assert.True(t, AIProviderOpenAI.RequiresAPIKey())
	assert.True(t, AIProviderAnthropic.RequiresAPIKey())
	assert.False(t, AIProviderOllama.RequiresAPIKey())
	assert.False(t, AIProviderLocal.RequiresAPIKey())
}

func TestEmbeddingSettings_IsConfigured(t *testing.T) {
	tests := []struct {
		name     string
		settings EmbeddingSettings
		expected bool
	}{
		{name: "local needs nothing", settings: EmbeddingSettings{Provider: AIProviderLocal}, expected: true},
		{name: "openai without key", settings: EmbeddingSettings{Provider: AIProviderOpenAI}, expected: false},
		{name: "openai with key", settings: EmbeddingSettings{Provider: AIProviderOpenAI, APIKey: "sk"}, expected: true},
		{name: "anthropic has no embeddings", settings: EmbeddingSettings{Provider: AIProviderAnthropic, APIKey: "k"}, expected: false},
		{name: "unset provider", settings: EmbeddingSettings{}, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.settings.IsConfigured())
		})
	}
}

func TestLLMSettings_IsConfigured(t *testing.T) {
	assert.False(t, LLMSettings{}.IsConfigured())
	assert.False(t, LLMSettings{Provider: AIProviderLocal}.IsConfigured())
	assert.False(t, LLMSettings{Provider: AIProviderOpenAI}.IsConfigured())
	assert.True(t, LLMSettings{Provider: AIProviderOpenAI, APIKey: "sk"}.IsConfigured())
	assert.True(t, LLMSettings{Provider: AIProviderOllama}.IsConfigured())
}

func TestStoreBackend(t *testing.T) {
	assert.True(t, StoreMemory.IsValid())
	assert.True(t, StoreSQLite.IsValid())
	assert.True(t, StoreChroma.IsValid())
	assert.False(t, StoreBackend("qdrant").IsValid())

	assert.True(t, StoreSQLite.RequiresEmbedding())
	assert.True(t, StoreChroma.RequiresEmbedding())
	assert.False(t, StoreBackend("postgres").RequiresEmbedding())
}

func TestDefaultAppSettings(t *testing.T) {
	s := DefaultAppSettings()

	assert.Equal(t, AIProviderLocal, s.Embedding.Provider)
	assert.True(t, s.Embedding.IsConfigured())
	assert.False(t, s.LLM.IsConfigured())
	assert.Equal(t, StoreSQLite, s.Store.Backend)
	assert.Equal(t, 500, s.Chunking.Size)
	assert.Equal(t, 50, s.Chunking.Overlap)
	assert.Equal(t, 3, s.Answer.TopK)
	assert.InDelta(t, 0.3, s.Answer.SimilarityThreshold, 1e-9)
	assert.False(t, s.Answer.ApplyThreshold)
	assert.Equal(t, SentinelContains, s.Answer.SentinelMatch)
	assert.InDelta(t, 0.2, s.Answer.GroundedTemperature, 1e-9)
	assert.InDelta(t, 0.7, s.Answer.FallbackTemperature, 1e-9)
	assert.Equal(t, 500, s.Answer.MaxTokens)
}

func TestDefaultModels_CoverProviders(t *testing.T) {
	embedModels := DefaultEmbeddingModels()
	for _, p := range AllEmbeddingProviders() {
		assert.NotEmpty(t, embedModels[p], "missing embedding model for %s", p)
	}

	llmModels := DefaultLLMModels()
	for _, p := range AllLLMProviders() {
		assert.NotEmpty(t, llmModels[p], "missing LLM model for %s", p)
	}

	dims := EmbeddingDimensions()
	for _, model := range embedModels {
		assert.Positive(t, dims[model], "missing dimensions for %s", model)
	}
}
