package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/adapters/driving/cli"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

func clearProviderEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{envOpenAIKey, envAnthropicKey, envOpenAIModel, envChromaURL} {
		t.Setenv(key, "")
	}
}

func TestApplyEnv(t *testing.T) {
	tests := []struct {
		name   string
		env    map[string]string
		before func(*domain.AppSettings)
		check  func(*testing.T, *domain.AppSettings)
	}{
		{
			name: "no variables leave settings alone",
			check: func(t *testing.T, s *domain.AppSettings) {
				assert.Equal(t, domain.DefaultAppSettings(), *s)
			},
		},
		{
			name: "openai key selects openai when no llm is set",
			env:  map[string]string{envOpenAIKey: "sk-test"},
			check: func(t *testing.T, s *domain.AppSettings) {
				assert.Equal(t, domain.AIProviderOpenAI, s.LLM.Provider)
				assert.Equal(t, "gpt-4o-mini", s.LLM.Model)
				assert.Equal(t, "sk-test", s.LLM.APIKey)
				assert.Equal(t, domain.AIProviderLocal, s.Embedding.Provider)
			},
		},
		{
			name: "openai model overrides the model",
			env:  map[string]string{envOpenAIKey: "sk-test", envOpenAIModel: "gpt-4o"},
			check: func(t *testing.T, s *domain.AppSettings) {
				assert.Equal(t, "gpt-4o", s.LLM.Model)
			},
		},
		{
			name: "stored key wins over the environment",
			env:  map[string]string{envOpenAIKey: "sk-env"},
			before: func(s *domain.AppSettings) {
				s.LLM.Provider = domain.AIProviderOpenAI
				s.LLM.APIKey = "sk-stored"
			},
			check: func(t *testing.T, s *domain.AppSettings) {
				assert.Equal(t, "sk-stored", s.LLM.APIKey)
			},
		},
		{
			name: "openai key fills an openai embedder",
			env:  map[string]string{envOpenAIKey: "sk-test"},
			before: func(s *domain.AppSettings) {
				s.LLM.Provider = domain.AIProviderOllama
				s.Embedding.Provider = domain.AIProviderOpenAI
			},
			check: func(t *testing.T, s *domain.AppSettings) {
				assert.Equal(t, domain.AIProviderOllama, s.LLM.Provider)
				assert.Empty(t, s.LLM.APIKey)
				assert.Equal(t, "sk-test", s.Embedding.APIKey)
			},
		},
		{
			name: "anthropic key selects anthropic when no llm is set",
			env:  map[string]string{envAnthropicKey: "sk-ant"},
			check: func(t *testing.T, s *domain.AppSettings) {
				assert.Equal(t, domain.AIProviderAnthropic, s.LLM.Provider)
				assert.Equal(t, "sk-ant", s.LLM.APIKey)
			},
		},
		{
			name: "openai key takes precedence over anthropic",
			env:  map[string]string{envOpenAIKey: "sk-test", envAnthropicKey: "sk-ant"},
			check: func(t *testing.T, s *domain.AppSettings) {
				assert.Equal(t, domain.AIProviderOpenAI, s.LLM.Provider)
				assert.Equal(t, "sk-test", s.LLM.APIKey)
			},
		},
		{
			name: "chroma url selects the chroma backend",
			env:  map[string]string{envChromaURL: "http://chroma:8000"},
			check: func(t *testing.T, s *domain.AppSettings) {
				assert.Equal(t, domain.StoreChroma, s.Store.Backend)
				assert.Equal(t, "http://chroma:8000", s.Store.URL)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := domain.DefaultAppSettings()
			if tt.before != nil {
				tt.before(&settings)
			}

			applyEnv(&settings, func(key string) string { return tt.env[key] })

			tt.check(t, &settings)
		})
	}
}

func TestBuildServices_Ephemeral(t *testing.T) {
	clearProviderEnv(t)

	svc, err := buildServices(cli.Options{Ephemeral: true})
	require.NoError(t, err)
	t.Cleanup(svc.Close)

	assert.Empty(t, svc.ConfigPath)
	assert.Empty(t, svc.PromptDir)
	assert.False(t, svc.Health.Generative)
	assert.False(t, svc.Health.Transcription)
	require.Len(t, svc.Checks, 2)
	assert.Equal(t, "chunk store (memory)", svc.Checks[0].Name)
	assert.Equal(t, "embedding (hashing-bow)", svc.Checks[1].Name)
	for _, check := range svc.Checks {
		assert.NoError(t, check.Ping(context.Background()), check.Name)
	}
}

func TestBuildServices_ParisOverSQLite(t *testing.T) {
	clearProviderEnv(t)
	dir := t.TempDir()

	svc, err := buildServices(cli.Options{ConfigDir: dir})
	require.NoError(t, err)
	t.Cleanup(svc.Close)

	assert.Equal(t, filepath.Join(dir, "config.toml"), svc.ConfigPath)
	assert.Equal(t, filepath.Join(dir, "prompts"), svc.PromptDir)

	ctx := context.Background()
	res, err := svc.Ingest.IngestDocument(ctx, &domain.RawDocument{
		Name:     "paris.txt",
		MIMEType: "text/plain",
		Content:  []byte("Paris is the capital of France. It is known for the Eiffel Tower."),
	}, driving.IngestOptions{Collection: "geo"})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Count)

	_, err = os.Stat(filepath.Join(dir, "data"))
	require.NoError(t, err, "sqlite data directory lives under the config directory")

	results, err := svc.Search.Search(ctx, "capital of France", domain.SearchOptions{Collection: "geo", TopK: 1})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "paris.txt", results[0].Chunk.SourceID)

	qa, err := svc.Questions.Ask(ctx, domain.QuestionRequest{Question: "capital of France?", Collection: "geo"})
	require.NoError(t, err)
	assert.Equal(t, domain.SourceError, qa.Answer.Source, "no language model is configured")
}

func TestBuildServices_SettingsPersist(t *testing.T) {
	clearProviderEnv(t)
	dir := t.TempDir()

	svc, err := buildServices(cli.Options{ConfigDir: dir})
	require.NoError(t, err)
	require.NoError(t, svc.Settings.Set("chunking.size", "800"))
	svc.Close()

	svc, err = buildServices(cli.Options{ConfigDir: dir})
	require.NoError(t, err)
	t.Cleanup(svc.Close)

	settings, err := svc.Settings.Get()
	require.NoError(t, err)
	assert.Equal(t, 800, settings.Chunking.Size)
}

func TestBuildServices_EnvSelectsLLM(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv(envOpenAIKey, "sk-test-not-used")

	svc, err := buildServices(cli.Options{Ephemeral: true})
	require.NoError(t, err)
	t.Cleanup(svc.Close)

	assert.True(t, svc.Health.Generative)
	assert.True(t, svc.Health.Transcription)
	require.Len(t, svc.Checks, 3)
	assert.Equal(t, "language model (gpt-4o-mini)", svc.Checks[2].Name)
}
