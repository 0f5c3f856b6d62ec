package chat

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docqa/internal/core/domain"
)

type stubQuestions struct {
	answer *domain.QuestionAnswer
	err    error
	got    domain.QuestionRequest
}

func (s *stubQuestions) Ask(_ context.Context, req domain.QuestionRequest) (*domain.QuestionAnswer, error) {
	s.got = req
	return s.answer, s.err
}

func (s *stubQuestions) Query(
	context.Context, string, domain.SearchOptions,
) ([]domain.RetrievalResult, domain.AnswerResult, error) {
	return nil, domain.AnswerResult{}, nil
}

func newTestView(q *stubQuestions, opts Options) *View {
	v := NewView(nil, nil, q, opts)
	v.SetDimensions(100, 30)
	return v
}

func TestNewView(t *testing.T) {
	v := NewView(nil, nil, nil, Options{Collection: "atlas", AllowFallback: true})

	assert.False(t, v.Ready())
	assert.Equal(t, "Initialising...", v.View())
	assert.Equal(t, "atlas", v.Collection())
	assert.True(t, v.AllowFallback())
	assert.NotNil(t, v.Init())
}

func TestView_EmptyTranscriptNamesCollection(t *testing.T) {
	v := newTestView(&stubQuestions{}, Options{})

	assert.Contains(t, v.View(), "answered from the documents in 'default'")
}

func TestView_SubmitWhilePendingIsIgnored(t *testing.T) {
	v := newTestView(&stubQuestions{}, Options{})
	v.prompt.SetValue("first")
	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Equal(t, "", v.Prompt())

	v.prompt.SetValue("second")
	_, cmd = v.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Nil(t, cmd)
	assert.Len(t, v.Turns(), 1)
	assert.Equal(t, status.StateThinking, v.StatusBar().State())
}

func TestView_AskCarriesOptions(t *testing.T) {
	q := &stubQuestions{answer: &domain.QuestionAnswer{
		Answer: domain.AnswerResult{Answer: "General answer", Source: domain.SourceGenerative},
	}}
	half := 0.5
	v := newTestView(q, Options{Collection: "atlas", TopK: 4, Threshold: &half, AllowFallback: true})

	v.prompt.SetValue("  what is new?  ")
	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	msg := cmd()
	v.Update(msg)

	assert.Equal(t, domain.QuestionRequest{
		Question:            "what is new?",
		Collection:          "atlas",
		TopK:                4,
		SimilarityThreshold: &half,
		AllowFallback:       true,
	}, q.got)
	assert.Equal(t, domain.SourceGenerative, v.StatusBar().Source())
	assert.Contains(t, v.View(), "general knowledge, not from your documents")
}

func TestView_NoQuestionService(t *testing.T) {
	v := newTestView(nil, Options{})
	v.questions = nil

	v.prompt.SetValue("hello")
	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	msg, ok := cmd().(messages.AnswerReceived)

	require.True(t, ok)
	assert.ErrorIs(t, msg.Err, ErrNoQuestionService)
}

func TestView_ToggleSources(t *testing.T) {
	q := &stubQuestions{answer: &domain.QuestionAnswer{
		Answer:  domain.AnswerResult{Answer: "Paris", Source: domain.SourceDocument, Grounded: true},
		Sources: []domain.SourceChunk{{SourceID: "france.txt", Content: "Paris is the capital.", Score: 0.91}},
	}}
	v := newTestView(q, Options{})
	v.prompt.SetValue("capital?")
	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	v.Update(cmd())

	assert.Contains(t, v.View(), "france.txt (0.91)")

	v.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	assert.NotContains(t, v.View(), "france.txt")
}

func TestView_Clear(t *testing.T) {
	v := newTestView(&stubQuestions{err: errors.New("down")}, Options{})
	v.prompt.SetValue("q")
	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	v.Update(cmd())
	require.Len(t, v.Turns(), 1)
	assert.Equal(t, status.StateError, v.StatusBar().State())

	v.Update(tea.KeyMsg{Type: tea.KeyCtrlL})

	assert.Empty(t, v.Turns())
	assert.Equal(t, status.StateReady, v.StatusBar().State())
	assert.Equal(t, "Transcript cleared", v.StatusBar().Message())
}

func TestView_CollectionsKeyOpensPicker(t *testing.T) {
	v := newTestView(&stubQuestions{}, Options{})

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyCtrlO})

	require.NotNil(t, cmd)
	assert.Equal(t, messages.ViewChanged{View: messages.ViewCollections}, cmd())
}

func TestView_SetCollection(t *testing.T) {
	v := newTestView(&stubQuestions{}, Options{})

	v.SetCollection("handbook")

	assert.Equal(t, "handbook", v.Collection())
	assert.Contains(t, v.View(), "'handbook'")
}

func TestView_ErrorOccurred(t *testing.T) {
	v := newTestView(&stubQuestions{}, Options{})

	v.Update(messages.ErrorOccurred{Err: errors.New("lost connection")})

	assert.False(t, v.Pending())
	assert.Equal(t, "lost connection", v.StatusBar().Message())
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "a b c", preview("a\n  b\tc", 40))
	assert.Equal(t, strings.Repeat("a", 17)+"...", preview(strings.Repeat("a", 30), 5))
}

func TestDescribeSource(t *testing.T) {
	assert.Equal(t, "from your documents", describeSource(domain.SourceDocument))
	assert.Equal(t, "the language model failed", describeSource(domain.SourceError))
	assert.Equal(t, "not found in your documents", describeSource(domain.SourceNone))
}
