// Package feed renders the notification history.
package feed

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/eddiemuhoro/flowhive/internal/notify"
	"github.com/eddiemuhoro/flowhive/internal/theme"
)

// Model holds the feed view state.
type Model struct {
	Items    []notify.Notification
	Selected int
	Width    int
	Height   int
}

// New creates an empty feed.
func New() Model {
	return Model{}
}

// SetItems replaces the feed contents, clamping the selection.
func (m *Model) SetItems(items []notify.Notification) {
	m.Items = items
	if m.Selected >= len(items) {
		m.Selected = len(items) - 1
	}
	if m.Selected < 0 {
		m.Selected = 0
	}
}

// MoveUp moves the selection toward newer entries.
func (m *Model) MoveUp() {
	if m.Selected > 0 {
		m.Selected--
	}
}

// MoveDown moves the selection toward older entries.
func (m *Model) MoveDown() {
	if m.Selected < len(m.Items)-1 {
		m.Selected++
	}
}

// SelectedID returns the id of the selected notification, or "".
func (m Model) SelectedID() string {
	if m.Selected < 0 || m.Selected >= len(m.Items) {
		return ""
	}
	return m.Items[m.Selected].ID
}

// View renders the feed.
func (m Model) View() string {
	if len(m.Items) == 0 {
		return theme.DimStyle.Render("No notifications yet.")
	}

	max := m.Height - 2
	if max < 1 {
		max = len(m.Items)
	}

	var b strings.Builder
	for i, n := range m.Items {
		if i >= max {
			b.WriteString(theme.DimStyle.Render(fmt.Sprintf("… %d more", len(m.Items)-max)))
			break
		}

		marker := "  "
		if !n.Read {
			marker = lipgloss.NewStyle().Foreground(theme.ColorUnread).Render("● ")
		}
		line := fmt.Sprintf("%s%s — %s", marker, n.Title, n.Message)
		ts := theme.DimStyle.Render(n.CreatedAt.Format("15:04:05"))

		if i == m.Selected {
			line = lipgloss.NewStyle().Foreground(theme.ColorPrimary).Bold(true).Render(line)
		}
		b.WriteString(line + "  " + ts + "\n")
	}
	return b.String()
}
