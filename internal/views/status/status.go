package status

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/eddiemuhoro/flowhive/internal/realtime"
	"github.com/eddiemuhoro/flowhive/internal/theme"
)

// Model holds the status bar state.
type Model struct {
	ConnStatus realtime.Status
	Username   string
	Workspace  string
	Unread     int
	Width      int
}

// New creates a status bar model.
func New() Model {
	return Model{}
}

// View renders the status bar.
func (m Model) View() string {
	width := m.Width
	if width < 40 {
		width = 40
	}

	var connStr string
	switch m.ConnStatus {
	case realtime.StatusOpen:
		connStr = lipgloss.NewStyle().Foreground(theme.ColorConnected).Render("● Connected")
	case realtime.StatusConnecting, realtime.StatusReconnecting:
		connStr = lipgloss.NewStyle().Foreground(theme.ColorReconnecting).Render("◐ " + m.ConnStatus.String())
	default:
		connStr = lipgloss.NewStyle().Foreground(theme.ColorDisconnected).Render("○ Offline")
	}

	who := m.Username
	if who == "" {
		who = "anonymous"
	}
	ws := m.Workspace
	if ws == "" {
		ws = "no workspace"
	}

	unread := ""
	if m.Unread > 0 {
		unread = lipgloss.NewStyle().Foreground(theme.ColorUnread).
			Render(fmt.Sprintf("  %d unread", m.Unread))
	}

	sep := lipgloss.NewStyle().Foreground(theme.ColorBorder).Render(" | ")
	content := connStr + sep + who + sep + ws + unread

	return lipgloss.NewStyle().
		Width(width).
		Padding(0, 1).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(theme.ColorBorder).
		Render(content)
}
