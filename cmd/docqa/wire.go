package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/custodia-labs/docqa/internal/adapters/driven/ai"
	"github.com/custodia-labs/docqa/internal/adapters/driven/config/file"
	"github.com/custodia-labs/docqa/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/docqa/internal/adapters/driving/cli"
	"github.com/custodia-labs/docqa/internal/adapters/driving/httpapi"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/core/services"
	"github.com/custodia-labs/docqa/internal/extractors"
	"github.com/custodia-labs/docqa/internal/extractors/audio"
	"github.com/custodia-labs/docqa/internal/extractors/docx"
	"github.com/custodia-labs/docqa/internal/extractors/html"
	"github.com/custodia-labs/docqa/internal/extractors/image"
	"github.com/custodia-labs/docqa/internal/extractors/markdown"
	"github.com/custodia-labs/docqa/internal/extractors/pdf"
	"github.com/custodia-labs/docqa/internal/extractors/plaintext"
)

// Environment variables that override the stored settings for one run.
const (
	envOpenAIKey    = "OPENAI_API_KEY"
	envAnthropicKey = "ANTHROPIC_API_KEY"
	envOpenAIModel  = "OPENAI_MODEL"
	envChromaURL    = "CHROMA_URL"
)

// pdfMaxPages bounds the pages read from one PDF.
const pdfMaxPages = 200

// buildServices loads the settings, creates the driven adapters they select
// and assembles the core services around them.
func buildServices(opts cli.Options) (*cli.Services, error) {
	store, dir, err := openConfigStore(opts)
	if err != nil {
		return nil, err
	}

	settingsService := services.NewSettingsService(store, ai.NewConfigValidator())
	settings, err := settingsService.Get()
	if err != nil {
		return nil, fmt.Errorf("loading settings: %w", err)
	}

	applyEnv(settings, os.Getenv)
	if opts.Ephemeral {
		settings.Store.Backend = domain.StoreMemory
	}
	if settings.Store.Backend == domain.StoreSQLite && settings.Store.Path == "" && dir != "" {
		settings.Store.Path = filepath.Join(dir, "data")
	}

	adapters, err := ai.Initialize(settings)
	if err != nil {
		return nil, err
	}

	var prompts driven.PromptStore
	promptDir := ""
	if dir != "" {
		promptDir = filepath.Join(dir, "prompts")
		ps, err := file.NewPromptStore(promptDir)
		if err != nil {
			adapters.Close()
			return nil, fmt.Errorf("opening prompts: %w", err)
		}
		prompts = ps
	}
	if aware, ok := adapters.OCREngine.(driven.PromptStoreAware); ok && prompts != nil {
		aware.SetPromptStore(prompts)
	}

	registry := newRegistry(adapters)
	chunkStore := services.NewChunkStore(adapters.VectorIndex)
	retriever := services.NewRetriever(chunkStore, registry)
	retriever.SetChunkingDefaults(settings.Chunking)

	resolver := services.NewAnswerResolver(adapters.LLMService, settings.Answer)
	if prompts != nil {
		resolver.SetPromptStore(prompts)
	}

	configFile := ""
	if dir != "" {
		configFile = store.Path()
	}

	return &cli.Services{
		Ingest:      retriever,
		Search:      retriever,
		Questions:   services.NewQuestionService(retriever, resolver, settings.Answer),
		Voice:       services.NewVoiceService(adapters.Transcriber, retriever, resolver),
		Collections: chunkStore,
		Extraction:  services.NewExtractionService(registry),
		Settings:    settingsService,
		Health: httpapi.Health{
			Generative:    adapters.LLMService != nil,
			Transcription: adapters.Transcriber != nil,
		},
		Checks:     healthChecks(settings, adapters),
		Warnings:   adapters.Warnings,
		ConfigPath: configFile,
		PromptDir:  promptDir,
		Close:      adapters.Close,
	}, nil
}

// openConfigStore returns the settings store and the directory it lives in.
// Ephemeral runs use an in-memory store and no directory.
func openConfigStore(opts cli.Options) (driven.ConfigStore, string, error) {
	if opts.Ephemeral {
		return memory.NewConfigStore(), "", nil
	}

	dir := opts.ConfigDir
	if dir == "" {
		home, err := file.HomeDir()
		if err != nil {
			return nil, "", fmt.Errorf("locating docqa home: %w", err)
		}
		dir = home
	}

	store, err := file.NewConfigStore(dir)
	if err != nil {
		return nil, "", fmt.Errorf("opening config in %s: %w", dir, err)
	}
	return store, dir, nil
}

// applyEnv overlays API keys and endpoints from the environment. Nothing is
// written back to the config file.
func applyEnv(settings *domain.AppSettings, getenv func(string) string) {
	if key := getenv(envOpenAIKey); key != "" {
		if settings.LLM.Provider == "" {
			settings.LLM.Provider = domain.AIProviderOpenAI
			settings.LLM.Model = domain.DefaultLLMModels()[domain.AIProviderOpenAI]
		}
		if settings.LLM.Provider == domain.AIProviderOpenAI && settings.LLM.APIKey == "" {
			settings.LLM.APIKey = key
		}
		if settings.Embedding.Provider == domain.AIProviderOpenAI && settings.Embedding.APIKey == "" {
			settings.Embedding.APIKey = key
		}
	}

	if key := getenv(envAnthropicKey); key != "" {
		if settings.LLM.Provider == "" {
			settings.LLM.Provider = domain.AIProviderAnthropic
			settings.LLM.Model = domain.DefaultLLMModels()[domain.AIProviderAnthropic]
		}
		if settings.LLM.Provider == domain.AIProviderAnthropic && settings.LLM.APIKey == "" {
			settings.LLM.APIKey = key
		}
	}

	if model := getenv(envOpenAIModel); model != "" && settings.LLM.Provider == domain.AIProviderOpenAI {
		settings.LLM.Model = model
	}

	if url := getenv(envChromaURL); url != "" {
		settings.Store.Backend = domain.StoreChroma
		settings.Store.URL = url
	}
}

// newRegistry registers every extractor. Image and audio documents report
// ErrCollaboratorUnavailable when OCR or transcription is not configured.
func newRegistry(adapters *ai.InitResult) *extractors.Registry {
	pdfOpts := []pdf.Option{pdf.WithMaxPages(pdfMaxPages)}
	if adapters.OCREngine != nil {
		pdfOpts = append(pdfOpts, pdf.WithOCR(adapters.OCREngine))
	}

	return extractors.NewRegistry(
		plaintext.New(),
		markdown.New(),
		html.New(),
		docx.New(),
		pdf.New(pdfOpts...),
		image.New(adapters.OCREngine),
		audio.New(adapters.Transcriber),
	)
}

// healthChecks lists the collaborators "docqa doctor" pings.
func healthChecks(settings *domain.AppSettings, adapters *ai.InitResult) []cli.HealthCheck {
	checks := []cli.HealthCheck{{
		Name: fmt.Sprintf("chunk store (%s)", settings.Store.Backend),
		Ping: adapters.VectorIndex.Ping,
	}}

	if adapters.EmbeddingService != nil {
		checks = append(checks, cli.HealthCheck{
			Name: fmt.Sprintf("embedding (%s)", adapters.EmbeddingService.ModelName()),
			Ping: adapters.EmbeddingService.Ping,
		})
	}

	if adapters.LLMService != nil {
		checks = append(checks, cli.HealthCheck{
			Name: fmt.Sprintf("language model (%s)", adapters.LLMService.ModelName()),
			Ping: adapters.LLMService.Ping,
		})
	}

	return checks
}
