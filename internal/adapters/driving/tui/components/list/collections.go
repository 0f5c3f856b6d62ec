// Package list provides navigable list components for the TUI.
package list

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/styles"
)

// CollectionList displays collection names with the active one marked.
type CollectionList struct {
	names    []string
	active   string
	selected int
	styles   *styles.Styles
	width    int
	height   int
}

// NewCollectionList creates an empty collection list.
func NewCollectionList(s *styles.Styles) *CollectionList {
	if s == nil {
		s = styles.DefaultStyles()
	}

	return &CollectionList{
		styles: s,
		width:  80,
		height: 10,
	}
}

// Update handles list navigation keys.
func (l *CollectionList) Update(msg tea.Msg) (*CollectionList, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "up", "k":
			l.MoveUp()
		case "down", "j":
			l.MoveDown()
		}
	}
	return l, nil
}

// View renders the list, scrolled so the selection stays visible.
func (l *CollectionList) View() string {
	if len(l.names) == 0 {
		return l.styles.Muted.Render("No collections yet. Ingest a document first.")
	}

	lines := make([]string, 0, len(l.names)+2)
	lines = append(lines, l.styles.Subtitle.Render(fmt.Sprintf("Collections (%d)", len(l.names))), "")

	visible := max(l.height-2, 1)
	start := 0
	if l.selected >= visible {
		start = l.selected - visible + 1
	}
	end := min(start+visible, len(l.names))

	for i := start; i < end; i++ {
		lines = append(lines, l.renderName(i))
	}
	return strings.Join(lines, "\n")
}

func (l *CollectionList) renderName(index int) string {
	name := l.names[index]
	marker := "  "
	if name == l.active {
		marker = "* "
	}

	if index == l.selected {
		return l.styles.Selected.Render("> " + marker + name)
	}
	return l.styles.Normal.Render("  " + marker + name)
}

// SetNames replaces the list contents and selects the active collection
// when present.
func (l *CollectionList) SetNames(names []string, active string) {
	l.names = names
	l.active = active
	l.selected = 0
	for i, n := range names {
		if n == active {
			l.selected = i
			break
		}
	}
}

// Names returns the listed collections.
func (l *CollectionList) Names() []string {
	return l.names
}

// Selected returns the index of the highlighted name.
func (l *CollectionList) Selected() int {
	return l.selected
}

// SelectedName returns the highlighted name, or "" when empty.
func (l *CollectionList) SelectedName() string {
	if l.selected < 0 || l.selected >= len(l.names) {
		return ""
	}
	return l.names[l.selected]
}

// MoveUp moves the selection up.
func (l *CollectionList) MoveUp() {
	if l.selected > 0 {
		l.selected--
	}
}

// MoveDown moves the selection down.
func (l *CollectionList) MoveDown() {
	if l.selected < len(l.names)-1 {
		l.selected++
	}
}

// SetDimensions sets the component dimensions.
func (l *CollectionList) SetDimensions(width, height int) {
	l.width = width
	l.height = height
}

// Count returns the number of names.
func (l *CollectionList) Count() int {
	return len(l.names)
}
