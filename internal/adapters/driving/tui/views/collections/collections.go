// Package collections provides the collection picker view for the TUI.
package collections

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

// View lists collections and reports the one chosen.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	list      *list.CollectionList
	statusbar *status.Bar

	service driving.CollectionService
	ctx     context.Context

	active  string
	loading bool
	err     error
	width   int
	height  int
}

// NewView creates a picker over service. A nil service offers only the
// active collection.
func NewView(s *styles.Styles, km *keymap.KeyMap, service driving.CollectionService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	bar := status.NewBar(s, km)
	bar.SetState(status.StatePicking)

	return &View{
		styles:    s,
		keymap:    km,
		list:      list.NewCollectionList(s),
		statusbar: bar,
		service:   service,
		ctx:       context.Background(),
		active:    domain.DefaultCollection,
		width:     80,
		height:    24,
	}
}

// WithContext sets the context collections are listed with.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Open marks active as the current collection and loads the list.
func (v *View) Open(active string) tea.Cmd {
	v.active = domain.CollectionOrDefault(active)
	v.err = nil
	v.loading = true

	service, ctx := v.service, v.ctx
	return func() tea.Msg {
		if service == nil {
			return messages.CollectionsLoaded{}
		}
		names, err := service.ListCollections(ctx)
		return messages.CollectionsLoaded{Names: names, Err: err}
	}
}

// Update handles messages for the picker.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case messages.CollectionsLoaded:
		v.loading = false
		v.err = msg.Err
		names := msg.Names
		if !contains(names, v.active) {
			names = append([]string{v.active}, names...)
		}
		v.list.SetNames(names, v.active)
		return v, nil

	case tea.KeyMsg:
		keyStr := msg.String()
		switch {
		case keymap.Matches(keyStr, v.keymap.Back):
			return v, func() tea.Msg {
				return messages.ViewChanged{View: messages.ViewChat}
			}
		case keymap.Matches(keyStr, v.keymap.Select):
			name := v.list.SelectedName()
			if name == "" {
				return v, nil
			}
			return v, func() tea.Msg {
				return messages.CollectionSelected{Name: name}
			}
		}
		v.list, _ = v.list.Update(msg)
		return v, nil
	}
	return v, nil
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

// View renders the picker.
func (v *View) View() string {
	body := v.list.View()
	switch {
	case v.loading:
		body = v.styles.Muted.Render("Loading collections...")
	case v.err != nil:
		body = v.styles.Error.Render("Error: "+v.err.Error()) + "\n\n" + body
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		v.styles.Title.Render("Collections"),
		"",
		body,
		"",
		v.statusbar.View(),
	)
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.list.SetDimensions(width, height-6)
	v.statusbar.SetWidth(width)
}

// Names returns the listed collections.
func (v *View) Names() []string {
	return v.list.Names()
}

// Err returns the last listing error.
func (v *View) Err() error {
	return v.err
}
