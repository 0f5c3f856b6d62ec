package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
	"github.com/custodia-labs/docqa/internal/logger"
)

// Ensure AnswerResolver implements the interfaces.
var (
	_ driving.AnswerResolver  = (*AnswerResolver)(nil)
	_ driven.PromptStoreAware = (*AnswerResolver)(nil)
)

const (
	defaultGroundedSystemPrompt = `You are a helpful assistant. Answer the user's question based on the provided context.
Be concise and direct. If the answer is clearly found in the context, provide it.
If the context does not contain relevant information to answer the question, respond with exactly: "%s"`

	defaultGroundedUserPrompt = "Context:\n%s\n\nQuestion: %s"

	defaultGeneralSystemPrompt = "You are a helpful assistant. Answer the user's question to the best of your knowledge. " +
		"Be concise and informative."

	notConfiguredAnswer = "No generative backend configured. Cannot generate answer."
)

var errLLMNotConfigured = errors.New("llm not configured")

// AnswerResolver turns retrieved chunks into an answer.
//
// The model is first asked to answer from the chunks. When fallback is
// allowed and the model replies with the not-found sentinel, or there are no
// chunks, the resolver asks the model again without context. With no chunks
// and no fallback it reports that nothing was found.
type AnswerResolver struct {
	llm      driven.LLMService
	prompts  driven.PromptStore
	settings domain.AnswerSettings
}

// NewAnswerResolver creates a resolver. llm may be nil; any answer that
// needs the model then resolves to domain.SourceError.
func NewAnswerResolver(llm driven.LLMService, settings domain.AnswerSettings) *AnswerResolver {
	defaults := domain.DefaultAppSettings().Answer
	if !settings.SentinelMatch.IsValid() {
		settings.SentinelMatch = defaults.SentinelMatch
	}
	if settings.MaxTokens <= 0 {
		settings.MaxTokens = defaults.MaxTokens
	}
	return &AnswerResolver{llm: llm, settings: settings}
}

// SetPromptStore sets the prompt store for loading customisable prompts.
func (r *AnswerResolver) SetPromptStore(store driven.PromptStore) {
	r.prompts = store
}

// Resolve answers query from results.
func (r *AnswerResolver) Resolve(
	ctx context.Context,
	query string,
	results []domain.RetrievalResult,
	allowFallback bool,
) domain.AnswerResult {
	logger.Section("Answer")

	passages := joinContext(results)
	if passages == "" {
		if !allowFallback {
			logger.Debug("No context and fallback disabled")
			return domain.AnswerResult{Answer: domain.NoInformationAnswer, Source: domain.SourceNone}
		}
		logger.Debug("No context, answering generatively")
		return r.generative(ctx, query)
	}

	if r.llm == nil {
		return errorResult(errLLMNotConfigured)
	}

	system := r.loadPrompt(driven.PromptGroundedSystem, defaultGroundedSystemPrompt)
	if strings.Contains(system, "%s") {
		system = fmt.Sprintf(system, domain.NotFoundSentinel)
	}
	user := fmt.Sprintf(r.loadPrompt(driven.PromptGroundedUser, defaultGroundedUserPrompt), passages, query)

	logger.Debug("Asking %s with %d context chunks", r.llm.ModelName(), len(results))
	answer, err := r.llm.Complete(ctx, system, user, driven.CompletionOptions{
		Temperature: r.settings.GroundedTemperature,
		MaxTokens:   r.settings.MaxTokens,
	})
	if err != nil {
		return errorResult(classify(err))
	}
	answer = strings.TrimSpace(answer)

	// Without fallback the grounded reply stands, sentinel included.
	if !allowFallback || !r.isSentinel(answer) {
		return domain.AnswerResult{Answer: answer, Source: domain.SourceDocument, Grounded: true}
	}

	logger.Debug("Model reported %s, answering generatively", domain.NotFoundSentinel)
	return r.generative(ctx, query)
}

// generative asks the model without any context.
func (r *AnswerResolver) generative(ctx context.Context, query string) domain.AnswerResult {
	if r.llm == nil {
		return errorResult(errLLMNotConfigured)
	}

	system := r.loadPrompt(driven.PromptGeneralSystem, defaultGeneralSystemPrompt)
	answer, err := r.llm.Complete(ctx, system, query, driven.CompletionOptions{
		Temperature: r.settings.FallbackTemperature,
		MaxTokens:   r.settings.MaxTokens,
	})
	if err != nil {
		return errorResult(classify(err))
	}
	return domain.AnswerResult{Answer: strings.TrimSpace(answer), Source: domain.SourceGenerative}
}

func (r *AnswerResolver) isSentinel(answer string) bool {
	if r.settings.SentinelMatch == domain.SentinelExact {
		return strings.Trim(answer, " \t\r\n\"'.") == domain.NotFoundSentinel
	}
	return strings.Contains(answer, domain.NotFoundSentinel)
}

// loadPrompt loads a prompt from the store, falling back to the default if unavailable.
func (r *AnswerResolver) loadPrompt(name, fallback string) string {
	if r.prompts == nil {
		return fallback
	}
	prompt, err := r.prompts.Load(name)
	if err != nil {
		return fallback
	}
	return prompt
}

// joinContext concatenates chunk contents separated by blank lines.
func joinContext(results []domain.RetrievalResult) string {
	parts := make([]string, 0, len(results))
	for i := range results {
		if content := strings.TrimSpace(results[i].Chunk.Content); content != "" {
			parts = append(parts, content)
		}
	}
	return strings.Join(parts, "\n\n")
}

// classify maps deadline errors onto ErrCollaboratorTimeout.
func classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, domain.ErrCollaboratorTimeout) {
		return fmt.Errorf("%w: %w", domain.ErrCollaboratorTimeout, err)
	}
	return err
}

func errorResult(err error) domain.AnswerResult {
	logger.Warn("Answer generation failed: %v", err)
	if errors.Is(err, errLLMNotConfigured) {
		return domain.AnswerResult{Answer: notConfiguredAnswer, Source: domain.SourceError}
	}
	return domain.AnswerResult{
		Answer: fmt.Sprintf("Error generating answer: %v", err),
		Source: domain.SourceError,
	}
}
