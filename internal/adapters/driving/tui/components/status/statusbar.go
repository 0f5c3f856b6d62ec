// Package status provides the status bar for the TUI.
package status

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docqa/internal/core/domain"
)

// State represents what the application is doing.
type State string

const (
	StateReady    State = "ready"
	StateThinking State = "thinking"
	StateAnswered State = "answered"
	StateError    State = "error"
	StatePicking  State = "picking"
)

// Bar displays the active collection, the last answer's source and
// keybinding hints.
type Bar struct {
	styles     *styles.Styles
	keymap     *keymap.KeyMap
	state      State
	message    string
	collection string
	fallback   bool
	source     domain.SourceKind
	width      int
}

// NewBar creates a new status bar component.
func NewBar(s *styles.Styles, km *keymap.KeyMap) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &Bar{
		styles:     s,
		keymap:     km,
		state:      StateReady,
		collection: domain.DefaultCollection,
		width:      80,
	}
}

// View renders the status bar on a single line. Hints that do not fit
// beside the left segment are truncated.
func (s *Bar) View() string {
	inner := max(s.width-s.styles.StatusBar.GetHorizontalFrameSize(), 0)
	left := truncate(s.renderLeft(), inner)
	right := truncate(s.styles.Muted.Render(s.hints()), max(inner-lipgloss.Width(left)-1, 0))

	padding := max(inner-lipgloss.Width(left)-lipgloss.Width(right), 0)
	if right != "" {
		padding = max(padding, 1)
	}

	return s.styles.StatusBar.Width(s.width).Render(
		left + strings.Repeat(" ", padding) + right,
	)
}

func (s *Bar) renderLeft() string {
	mode := "docs only"
	if s.fallback {
		mode = "fallback on"
	}
	label := s.styles.Subtitle.Render(s.collection) + s.styles.Muted.Render(" · "+mode)

	switch s.state {
	case StateThinking:
		return label + s.styles.Muted.Render(" · Thinking...")
	case StateError:
		if s.message != "" {
			return label + " " + s.styles.Error.Render("Error: "+s.message)
		}
		return label + " " + s.styles.Error.Render("Error")
	case StateAnswered:
		return label + " " + s.styles.ForSource(s.source).Render("· "+string(s.source))
	case StatePicking:
		return s.styles.Normal.Render("Select a collection")
	case StateReady:
	}
	if s.message != "" {
		return label + s.styles.Muted.Render(" · "+s.message)
	}
	return label
}

func (s *Bar) hints() string {
	bindings := s.keymap.ChatHelp()
	if s.state == StatePicking {
		bindings = s.keymap.PickerHelp()
	}
	return Hints(bindings)
}

func truncate(str string, width int) string {
	if width <= 0 {
		return ""
	}
	return lipgloss.NewStyle().Inline(true).MaxWidth(width).Render(str)
}

// Hints formats bindings as "key: desc" pairs.
func Hints(bindings []key.Binding) string {
	hints := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		hints = append(hints, fmt.Sprintf("%s: %s", h.Key, h.Desc))
	}
	return strings.Join(hints, " | ")
}

// SetState sets the current state.
func (s *Bar) SetState(state State) {
	s.state = state
}

// State returns the current state.
func (s *Bar) State() State {
	return s.state
}

// SetMessage sets a transient message.
func (s *Bar) SetMessage(message string) {
	s.message = message
}

// Message returns the current message.
func (s *Bar) Message() string {
	return s.message
}

// SetCollection sets the collection shown on the left.
func (s *Bar) SetCollection(name string) {
	s.collection = domain.CollectionOrDefault(name)
}

// Collection returns the displayed collection.
func (s *Bar) Collection() string {
	return s.collection
}

// SetFallback records whether generative fallback is enabled.
func (s *Bar) SetFallback(on bool) {
	s.fallback = on
}

// SetSource records where the last answer came from and moves to
// StateAnswered.
func (s *Bar) SetSource(kind domain.SourceKind) {
	s.source = kind
	s.state = StateAnswered
	s.message = ""
}

// Source returns the last answer's source.
func (s *Bar) Source() domain.SourceKind {
	return s.source
}

// SetWidth sets the status bar width.
func (s *Bar) SetWidth(width int) {
	s.width = width
}

// Width returns the current width.
func (s *Bar) Width() int {
	return s.width
}

// Clear resets state, message and source. The collection is kept.
func (s *Bar) Clear() {
	s.state = StateReady
	s.message = ""
	s.source = ""
}
