package services

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyEmbedProvider   = "embedding.provider"
	keyEmbedModel      = "embedding.model"
	keyEmbedBaseURL    = "embedding.base_url"
	keyEmbedAPIKey     = "embedding.api_key"
	keyEmbedDims       = "embedding.dimensions"
	keyLLMProvider     = "llm.provider"
	keyLLMModel        = "llm.model"
	keyLLMBaseURL      = "llm.base_url"
	keyLLMAPIKey       = "llm.api_key"
	keyLLMRate         = "llm.requests_per_second"
	keyLLMTimeout      = "llm.timeout_seconds"
	keyStoreBackend    = "store.backend"
	keyStorePath       = "store.path"
	keyStoreURL        = "store.url"
	keyChunkSize       = "chunking.size"
	keyChunkOverlap    = "chunking.overlap"
	keyAnswerTopK      = "answer.top_k"
	keyAnswerThreshold = "answer.similarity_threshold"
	keyAnswerApply     = "answer.apply_threshold"
	keyAnswerSentinel  = "answer.sentinel_match"
	keyAnswerGroundedT = "answer.grounded_temperature"
	keyAnswerFallbackT = "answer.fallback_temperature"
	keyAnswerMaxTokens = "answer.max_tokens"
	keyServerAddr      = "server.addr"
)

type valueKind int

const (
	kindString valueKind = iota
	kindInt
	kindFloat
	kindBool
)

// settableKeys lists every key accepted by Set with its value type.
var settableKeys = map[string]valueKind{
	keyEmbedProvider:   kindString,
	keyEmbedModel:      kindString,
	keyEmbedBaseURL:    kindString,
	keyEmbedAPIKey:     kindString,
	keyEmbedDims:       kindInt,
	keyLLMProvider:     kindString,
	keyLLMModel:        kindString,
	keyLLMBaseURL:      kindString,
	keyLLMAPIKey:       kindString,
	keyLLMRate:         kindFloat,
	keyLLMTimeout:      kindInt,
	keyStoreBackend:    kindString,
	keyStorePath:       kindString,
	keyStoreURL:        kindString,
	keyChunkSize:       kindInt,
	keyChunkOverlap:    kindInt,
	keyAnswerTopK:      kindInt,
	keyAnswerThreshold: kindFloat,
	keyAnswerApply:     kindBool,
	keyAnswerSentinel:  kindString,
	keyAnswerGroundedT: kindFloat,
	keyAnswerFallbackT: kindFloat,
	keyAnswerMaxTokens: kindInt,
	keyServerAddr:      kindString,
}

// SettableKeys returns the keys accepted by Set, sorted.
func SettableKeys() []string {
	keys := make([]string, 0, len(settableKeys))
	for k := range settableKeys {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
	}
}

// Get retrieves current application settings.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Embedding: domain.EmbeddingSettings{
			Provider:   s.getProvider(keyEmbedProvider, defaults.Embedding.Provider),
			Model:      s.getString(keyEmbedModel, defaults.Embedding.Model),
			BaseURL:    s.configStore.GetString(keyEmbedBaseURL), // No default - empty is valid for cloud providers
			APIKey:     s.configStore.GetString(keyEmbedAPIKey),
			Dimensions: s.getInt(keyEmbedDims, defaults.Embedding.Dimensions),
		},
		LLM: domain.LLMSettings{
			Provider:          s.getProvider(keyLLMProvider, defaults.LLM.Provider),
			Model:             s.getString(keyLLMModel, defaults.LLM.Model),
			BaseURL:           s.configStore.GetString(keyLLMBaseURL),
			APIKey:            s.configStore.GetString(keyLLMAPIKey),
			RequestsPerSecond: s.getFloat(keyLLMRate, defaults.LLM.RequestsPerSecond),
			TimeoutSeconds:    s.getInt(keyLLMTimeout, defaults.LLM.TimeoutSeconds),
		},
		Store: domain.StoreSettings{
			Backend: s.getBackend(defaults.Store.Backend),
			Path:    s.getString(keyStorePath, defaults.Store.Path),
			URL:     s.getString(keyStoreURL, defaults.Store.URL),
		},
		Chunking: domain.ChunkingSettings{
			Size:    s.getInt(keyChunkSize, defaults.Chunking.Size),
			Overlap: s.getInt(keyChunkOverlap, defaults.Chunking.Overlap),
		},
		Answer: domain.AnswerSettings{
			TopK:                s.getInt(keyAnswerTopK, defaults.Answer.TopK),
			SimilarityThreshold: s.getFloat(keyAnswerThreshold, defaults.Answer.SimilarityThreshold),
			ApplyThreshold:      s.getBool(keyAnswerApply, defaults.Answer.ApplyThreshold),
			SentinelMatch:       s.getSentinelMatch(defaults.Answer.SentinelMatch),
			GroundedTemperature: s.getFloat(keyAnswerGroundedT, defaults.Answer.GroundedTemperature),
			FallbackTemperature: s.getFloat(keyAnswerFallbackT, defaults.Answer.FallbackTemperature),
			MaxTokens:           s.getInt(keyAnswerMaxTokens, defaults.Answer.MaxTokens),
		},
		Server: domain.ServerSettings{
			Addr: s.getString(keyServerAddr, defaults.Server.Addr),
		},
	}

	return settings, nil
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	values := []struct {
		key   string
		value any
	}{
		{keyEmbedProvider, settings.Embedding.Provider.String()},
		{keyEmbedModel, settings.Embedding.Model},
		{keyEmbedBaseURL, settings.Embedding.BaseURL},
		{keyEmbedDims, settings.Embedding.Dimensions},
		{keyLLMProvider, settings.LLM.Provider.String()},
		{keyLLMModel, settings.LLM.Model},
		{keyLLMBaseURL, settings.LLM.BaseURL},
		{keyLLMRate, settings.LLM.RequestsPerSecond},
		{keyLLMTimeout, settings.LLM.TimeoutSeconds},
		{keyStoreBackend, settings.Store.Backend.String()},
		{keyStorePath, settings.Store.Path},
		{keyStoreURL, settings.Store.URL},
		{keyChunkSize, settings.Chunking.Size},
		{keyChunkOverlap, settings.Chunking.Overlap},
		{keyAnswerTopK, settings.Answer.TopK},
		{keyAnswerThreshold, settings.Answer.SimilarityThreshold},
		{keyAnswerApply, settings.Answer.ApplyThreshold},
		{keyAnswerSentinel, string(settings.Answer.SentinelMatch)},
		{keyAnswerGroundedT, settings.Answer.GroundedTemperature},
		{keyAnswerFallbackT, settings.Answer.FallbackTemperature},
		{keyAnswerMaxTokens, settings.Answer.MaxTokens},
		{keyServerAddr, settings.Server.Addr},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	// API keys are only written when present so env-only setups stay clean.
	if settings.Embedding.APIKey != "" {
		if err := s.configStore.Set(keyEmbedAPIKey, settings.Embedding.APIKey); err != nil {
			return fmt.Errorf("save embedding api_key: %w", err)
		}
	}
	if settings.LLM.APIKey != "" {
		if err := s.configStore.Set(keyLLMAPIKey, settings.LLM.APIKey); err != nil {
			return fmt.Errorf("save llm api_key: %w", err)
		}
	}

	return nil
}

// Set parses value according to key's type, validates it and stores it.
func (s *SettingsService) Set(key, value string) error {
	kind, ok := settableKeys[key]
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrValidation, key)
	}

	var parsed any
	switch kind {
	case kindInt:
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%w: %s expects an integer, got %q", domain.ErrValidation, key, value)
		}
		parsed = n
	case kindFloat:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("%w: %s expects a number, got %q", domain.ErrValidation, key, value)
		}
		parsed = f
	case kindBool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%w: %s expects true or false, got %q", domain.ErrValidation, key, value)
		}
		parsed = b
	default:
		parsed = strings.TrimSpace(value)
	}

	if err := validateValue(key, parsed); err != nil {
		return err
	}
	return s.configStore.Set(key, parsed)
}

// validateValue rejects values that could never form valid settings.
func validateValue(key string, value any) error {
	switch key {
	case keyEmbedProvider, keyLLMProvider:
		if p := domain.AIProvider(value.(string)); !p.IsValid() {
			return fmt.Errorf("%w: invalid provider: %s", domain.ErrValidation, p)
		}
	case keyStoreBackend:
		if b := domain.StoreBackend(value.(string)); !b.IsValid() {
			return fmt.Errorf("%w: invalid store backend: %s", domain.ErrValidation, b)
		}
	case keyAnswerSentinel:
		if m := domain.SentinelMatch(value.(string)); !m.IsValid() {
			return fmt.Errorf("%w: sentinel_match must be %q or %q",
				domain.ErrValidation, domain.SentinelContains, domain.SentinelExact)
		}
	case keyAnswerThreshold:
		if f := value.(float64); f < 0 || f > 1 {
			return fmt.Errorf("%w: similarity_threshold must be between 0 and 1", domain.ErrValidation)
		}
	case keyAnswerTopK:
		if n := value.(int); n < 1 || n > domain.MaxAskTopK {
			return fmt.Errorf("%w: top_k must be between 1 and %d", domain.ErrValidation, domain.MaxAskTopK)
		}
	case keyChunkSize, keyEmbedDims, keyAnswerMaxTokens, keyLLMTimeout:
		if value.(int) <= 0 {
			return fmt.Errorf("%w: %s must be positive", domain.ErrValidation, key)
		}
	case keyChunkOverlap:
		if value.(int) < 0 {
			return fmt.Errorf("%w: %s must not be negative", domain.ErrValidation, key)
		}
	case keyLLMRate:
		if value.(float64) < 0 {
			return fmt.Errorf("%w: %s must not be negative", domain.ErrValidation, key)
		}
	}
	return nil
}

// SetEmbeddingProvider configures the embedding provider.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid embedding provider: %s", provider)
	}
	if !slices.Contains(domain.AllEmbeddingProviders(), provider) {
		return fmt.Errorf("provider %s does not support embeddings", provider)
	}

	// Validate API key if required
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.Embedding.Provider = provider

	// Set model - use provided or default
	if model != "" {
		settings.Embedding.Model = model
	} else if defaultModel, ok := domain.DefaultEmbeddingModels()[provider]; ok {
		settings.Embedding.Model = defaultModel
	}

	switch provider {
	case domain.AIProviderOllama:
		if settings.Embedding.BaseURL == "" {
			settings.Embedding.BaseURL = "http://localhost:11434"
		}
	default:
		settings.Embedding.BaseURL = ""
	}

	settings.Embedding.APIKey = apiKey

	// Update vector dimensions based on model
	if d, ok := domain.EmbeddingDimensions()[settings.Embedding.Model]; ok {
		settings.Embedding.Dimensions = d
	}

	return s.Save(settings)
}

// SetLLMProvider configures the LLM provider.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() || !slices.Contains(domain.AllLLMProviders(), provider) {
		return fmt.Errorf("invalid LLM provider: %s", provider)
	}

	// Validate API key if required
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.LLM.Provider = provider

	// Set model - use provided or default
	if model != "" {
		settings.LLM.Model = model
	} else if defaultModel, ok := domain.DefaultLLMModels()[provider]; ok {
		settings.LLM.Model = defaultModel
	}

	// Set base URL based on provider type
	if provider.IsLocal() {
		if settings.LLM.BaseURL == "" {
			settings.LLM.BaseURL = "http://localhost:11434"
		}
	} else {
		// Cloud providers don't need a custom base URL
		settings.LLM.BaseURL = ""
	}

	settings.LLM.APIKey = apiKey

	return s.Save(settings)
}

// SetStoreBackend selects the vector index backend.
func (s *SettingsService) SetStoreBackend(backend domain.StoreBackend) error {
	if !backend.IsValid() {
		return fmt.Errorf("%w: invalid store backend: %s", domain.ErrValidation, backend)
	}
	return s.configStore.Set(keyStoreBackend, backend.String())
}

// Validate checks the current settings are usable together.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	if !settings.Store.Backend.IsValid() {
		return fmt.Errorf("%w: invalid store backend: %s", domain.ErrValidation, settings.Store.Backend)
	}
	if settings.Store.Backend.RequiresEmbedding() && !settings.Embedding.IsConfigured() {
		return fmt.Errorf("%w: store backend %q requires an embedding provider to be configured",
			domain.ErrValidation, settings.Store.Backend)
	}
	if err := domain.ValidateChunking(settings.Chunking.Size, settings.Chunking.Overlap); err != nil {
		return err
	}
	if settings.Answer.TopK < 1 || settings.Answer.TopK > domain.MaxAskTopK {
		return fmt.Errorf("%w: answer.top_k must be between 1 and %d", domain.ErrValidation, domain.MaxAskTopK)
	}
	if !settings.Answer.SentinelMatch.IsValid() {
		return fmt.Errorf("%w: invalid sentinel_match: %s", domain.ErrValidation, settings.Answer.SentinelMatch)
	}

	return nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(&settings.Embedding)
}

// ValidateLLMConfig validates the current LLM configuration by pinging the provider.
func (s *SettingsService) ValidateLLMConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateLLM(&settings.LLM)
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

// getFloat distinguishes an explicit zero from a missing key, since zero
// is a meaningful temperature or threshold.
func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetFloat(key)
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	provider := domain.AIProvider(val)
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}

func (s *SettingsService) getBackend(defaultVal domain.StoreBackend) domain.StoreBackend {
	val := s.configStore.GetString(keyStoreBackend)
	if val == "" {
		return defaultVal
	}
	backend := domain.StoreBackend(val)
	if !backend.IsValid() {
		return defaultVal
	}
	return backend
}

func (s *SettingsService) getSentinelMatch(defaultVal domain.SentinelMatch) domain.SentinelMatch {
	val := domain.SentinelMatch(s.configStore.GetString(keyAnswerSentinel))
	if !val.IsValid() {
		return defaultVal
	}
	return val
}
