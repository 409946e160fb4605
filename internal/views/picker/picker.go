// Package picker renders the workspace list for switching.
package picker

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/eddiemuhoro/flowhive/internal/api"
	"github.com/eddiemuhoro/flowhive/internal/theme"
)

// Model holds the workspace list state.
type Model struct {
	Items    []api.Workspace
	ActiveID int
	Selected int
	Width    int
}

// New creates an empty picker.
func New() Model {
	return Model{}
}

// SetItems replaces the list, clamping the selection.
func (m *Model) SetItems(items []api.Workspace) {
	m.Items = items
	if m.Selected >= len(items) {
		m.Selected = len(items) - 1
	}
	if m.Selected < 0 {
		m.Selected = 0
	}
}

// MoveUp moves the selection up.
func (m *Model) MoveUp() {
	if m.Selected > 0 {
		m.Selected--
	}
}

// MoveDown moves the selection down.
func (m *Model) MoveDown() {
	if m.Selected < len(m.Items)-1 {
		m.Selected++
	}
}

// SelectedID returns the id of the selected workspace, or 0.
func (m Model) SelectedID() int {
	if m.Selected < 0 || m.Selected >= len(m.Items) {
		return 0
	}
	return m.Items[m.Selected].ID
}

// View renders the workspace list.
func (m Model) View() string {
	if len(m.Items) == 0 {
		return theme.DimStyle.Render("No workspaces.")
	}

	var b strings.Builder
	for i, w := range m.Items {
		marker := "  "
		if w.ID == m.ActiveID {
			marker = lipgloss.NewStyle().Foreground(theme.ColorPrimary).Render("▸ ")
		}
		kind := "project"
		if w.Kind == api.KindFieldOperations {
			kind = "field"
		}
		line := fmt.Sprintf("%s%s  %s", marker, w.Name, theme.DimStyle.Render("("+kind+")"))

		if i == m.Selected {
			line = lipgloss.NewStyle().Foreground(theme.ColorPrimary).Bold(true).Render(line)
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}
