// Package chat provides the question and answer view for the TUI.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

// ErrNoQuestionService indicates that no question service was provided.
var ErrNoQuestionService = errors.New("question service is required")

// Turn is one question with its answer, or the error that replaced it.
type Turn struct {
	Question string
	Answer   *domain.QuestionAnswer
	Err      error
}

// Options tune the questions the view asks.
type Options struct {
	Collection    string
	TopK          int
	Threshold     *float64
	AllowFallback bool
}

// View shows the transcript above a prompt and a status bar.
type View struct {
	styles     *styles.Styles
	keymap     *keymap.KeyMap
	prompt     *input.Prompt
	transcript viewport.Model
	statusbar  *status.Bar

	questions driving.QuestionService
	ctx       context.Context
	opts      Options

	turns       []Turn
	pending     bool
	showSources bool
	width       int
	height      int
	ready       bool
}

// NewView creates a chat view.
func NewView(s *styles.Styles, km *keymap.KeyMap, questions driving.QuestionService, opts Options) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	bar := status.NewBar(s, km)
	bar.SetCollection(opts.Collection)
	bar.SetFallback(opts.AllowFallback)

	v := &View{
		styles:      s,
		keymap:      km,
		prompt:      input.NewPrompt(s),
		transcript:  viewport.New(80, 16),
		statusbar:   bar,
		questions:   questions,
		ctx:         context.Background(),
		opts:        opts,
		showSources: true,
		width:       80,
		height:      24,
	}
	v.refresh()
	return v
}

// WithContext sets the context questions are asked with.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init starts the prompt cursor.
func (v *View) Init() tea.Cmd {
	return v.prompt.Init()
}

// Update handles messages for the chat view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.AnswerReceived:
		v.handleAnswer(msg)
		return v, nil

	case messages.ErrorOccurred:
		v.pending = false
		v.statusbar.SetState(status.StateError)
		v.statusbar.SetMessage(msg.Err.Error())
		return v, nil
	}

	var cmd tea.Cmd
	v.prompt, cmd = v.prompt.Update(msg)
	return v, cmd
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	keyStr := msg.String()

	switch {
	case keymap.Matches(keyStr, v.keymap.Ask):
		return v, v.submit()

	case keymap.Matches(keyStr, v.keymap.Collections):
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewCollections}
		}

	case keymap.Matches(keyStr, v.keymap.Fallback):
		v.opts.AllowFallback = !v.opts.AllowFallback
		v.statusbar.SetFallback(v.opts.AllowFallback)
		return v, nil

	case keymap.Matches(keyStr, v.keymap.Sources):
		v.showSources = !v.showSources
		v.refresh()
		return v, nil

	case keymap.Matches(keyStr, v.keymap.Clear):
		v.turns = nil
		v.statusbar.Clear()
		v.statusbar.SetMessage("Transcript cleared")
		v.refresh()
		return v, nil

	case keymap.Matches(keyStr, v.keymap.ScrollUp), keymap.Matches(keyStr, v.keymap.ScrollDown):
		var cmd tea.Cmd
		v.transcript, cmd = v.transcript.Update(msg)
		return v, cmd
	}

	var cmd tea.Cmd
	v.prompt, cmd = v.prompt.Update(msg)
	return v, cmd
}

// submit asks the typed question unless one is already in flight.
func (v *View) submit() tea.Cmd {
	question := strings.TrimSpace(v.prompt.Value())
	if question == "" || v.pending {
		return nil
	}

	v.pending = true
	v.prompt.Reset()
	v.statusbar.SetState(status.StateThinking)
	v.turns = append(v.turns, Turn{Question: question})
	v.refresh()

	return v.ask(question)
}

func (v *View) ask(question string) tea.Cmd {
	questions, ctx := v.questions, v.ctx
	req := domain.QuestionRequest{
		Question:            question,
		Collection:          v.opts.Collection,
		TopK:                v.opts.TopK,
		SimilarityThreshold: v.opts.Threshold,
		AllowFallback:       v.opts.AllowFallback,
	}

	return func() tea.Msg {
		if questions == nil {
			return messages.AnswerReceived{Question: question, Err: ErrNoQuestionService}
		}
		answer, err := questions.Ask(ctx, req)
		return messages.AnswerReceived{Question: question, Answer: answer, Err: err}
	}
}

func (v *View) handleAnswer(msg messages.AnswerReceived) {
	v.pending = false

	if n := len(v.turns); n > 0 && v.turns[n-1].Answer == nil && v.turns[n-1].Err == nil {
		v.turns[n-1].Answer = msg.Answer
		v.turns[n-1].Err = msg.Err
	} else {
		v.turns = append(v.turns, Turn{Question: msg.Question, Answer: msg.Answer, Err: msg.Err})
	}

	if msg.Err != nil {
		v.statusbar.SetState(status.StateError)
		v.statusbar.SetMessage(msg.Err.Error())
	} else if msg.Answer != nil {
		v.statusbar.SetSource(msg.Answer.Answer.Source)
	}
	v.refresh()
}

// refresh re-renders the transcript and scrolls to the newest turn.
func (v *View) refresh() {
	if len(v.turns) == 0 {
		v.transcript.SetContent(v.styles.Muted.Render(
			"Questions are answered from the documents in '" + v.statusbar.Collection() + "'."))
		return
	}

	parts := make([]string, 0, len(v.turns))
	for i := range v.turns {
		parts = append(parts, v.renderTurn(&v.turns[i]))
	}
	v.transcript.SetContent(strings.Join(parts, "\n\n"))
	v.transcript.GotoBottom()
}

func (v *View) renderTurn(turn *Turn) string {
	wrap := lipgloss.NewStyle().Width(max(v.width-4, 20))
	lines := []string{v.styles.Question.Render("› " + turn.Question)}

	switch {
	case turn.Err != nil:
		lines = append(lines, v.styles.Error.Render("Error: "+turn.Err.Error()))

	case turn.Answer == nil:
		lines = append(lines, v.styles.Muted.Render("..."))

	default:
		result := turn.Answer.Answer
		lines = append(lines,
			wrap.Render(result.Answer),
			v.styles.ForSource(result.Source).Render("["+describeSource(result.Source)+"]"))

		if v.showSources {
			for _, src := range turn.Answer.Sources {
				lines = append(lines, v.styles.Muted.Render(
					fmt.Sprintf("  %s (%.2f) %s", src.SourceID, src.Score, preview(src.Content, v.width-20))))
			}
		}
	}
	return strings.Join(lines, "\n")
}

func describeSource(kind domain.SourceKind) string {
	switch kind {
	case domain.SourceDocument:
		return "from your documents"
	case domain.SourceGenerative:
		return "general knowledge, not from your documents"
	case domain.SourceError:
		return "the language model failed"
	default:
		return "not found in your documents"
	}
}

func preview(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	n = max(n, 20)
	if r := []rune(s); len(r) > n {
		return string(r[:n-3]) + "..."
	}
	return s
}

// View renders the chat view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		v.styles.Title.Render("docqa"),
		"",
		v.transcript.View(),
		"",
		v.prompt.View(),
		v.statusbar.View(),
	)
}

// SetDimensions sizes the transcript to the space left by the prompt and
// the status bar.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true

	v.prompt.SetWidth(width)
	v.statusbar.SetWidth(width)
	v.transcript.Width = width
	v.transcript.Height = max(height-8, 3)
	v.refresh()
}

// SetCollection switches the collection questions are asked against.
func (v *View) SetCollection(name string) {
	v.opts.Collection = name
	v.statusbar.SetCollection(name)
	v.statusbar.Clear()
	v.refresh()
}

// Collection returns the active collection.
func (v *View) Collection() string {
	return v.statusbar.Collection()
}

// AllowFallback reports whether generative fallback is on.
func (v *View) AllowFallback() bool {
	return v.opts.AllowFallback
}

// Turns returns the transcript.
func (v *View) Turns() []Turn {
	return v.turns
}

// Pending reports whether a question is awaiting its answer.
func (v *View) Pending() bool {
	return v.pending
}

// Prompt returns the typed text.
func (v *View) Prompt() string {
	return v.prompt.Value()
}

// StatusBar exposes the status bar for inspection.
func (v *View) StatusBar() *status.Bar {
	return v.statusbar
}

// Ready returns whether the view has dimensions.
func (v *View) Ready() bool {
	return v.ready
}
