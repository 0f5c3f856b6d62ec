package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/adapters/driven/embedding/hashing"
	"github.com/custodia-labs/docqa/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/core/services"
	"github.com/custodia-labs/docqa/internal/extractors"
	"github.com/custodia-labs/docqa/internal/extractors/markdown"
	"github.com/custodia-labs/docqa/internal/extractors/plaintext"
)

const parisText = "Paris is the capital of France. It is known for the Eiffel Tower."

type stubLLM struct {
	answer string
	err    error
}

func (s *stubLLM) Complete(_ context.Context, _, _ string, _ driven.CompletionOptions) (string, error) {
	return s.answer, s.err
}

func (s *stubLLM) ModelName() string            { return "stub" }
func (s *stubLLM) Ping(_ context.Context) error { return nil }
func (s *stubLLM) Close() error                 { return nil }

type stubTranscriber struct {
	text string
}

func (s *stubTranscriber) Transcribe(_ context.Context, _ []byte, _ string) (string, error) {
	return s.text, nil
}

// setupTestServices installs real services over an in-memory index, with
// llm answering every prompt, and restores the package state on cleanup.
func setupTestServices(t *testing.T, llm driven.LLMService) {
	t.Helper()

	settings := domain.DefaultAppSettings()
	store := services.NewChunkStore(memory.NewVectorIndex(hashing.NewEmbeddingService(256)))
	registry := extractors.NewRegistry(plaintext.New(), markdown.New())
	retriever := services.NewRetriever(store, registry)
	resolver := services.NewAnswerResolver(llm, settings.Answer)

	setServices(&Services{
		Ingest:      retriever,
		Search:      retriever,
		Questions:   services.NewQuestionService(retriever, resolver, settings.Answer),
		Voice:       services.NewVoiceService(&stubTranscriber{text: "What is the capital of France?"}, retriever, resolver),
		Collections: store,
		Extraction:  services.NewExtractionService(registry),
		Settings:    services.NewSettingsService(memory.NewConfigStore(), nil),
	})

	t.Cleanup(func() {
		setServices(&Services{})
		resetFlags(rootCmd)
	})
}

// resetFlags restores every flag to its default so commands do not leak
// state between tests.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue) //nolint:errcheck // defaults always parse
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// execute runs the root command with args and returns everything it printed.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		resetFlags(rootCmd)
	})

	err := rootCmd.Execute()
	return buf.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// ingestParis stores parisText as paris.txt in collection.
func ingestParis(t *testing.T, collection string) {
	t.Helper()

	path := writeFile(t, t.TempDir(), "paris.txt", parisText)
	_, err := execute(t, "ingest", "--chunk-size", "100", "--chunk-overlap", "10", "-c", collection, path)
	require.NoError(t, err)
	resetFlags(rootCmd)
}
