// Package login renders the credential prompt.
package login

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/eddiemuhoro/flowhive/internal/theme"
)

// Model holds the two credential inputs.
type Model struct {
	Username textinput.Model
	Password textinput.Model
	Err      string
	focus    int
}

// New creates the login form with the username field focused.
func New() Model {
	user := textinput.New()
	user.Placeholder = "username"
	user.Focus()
	user.CharLimit = 64

	pass := textinput.New()
	pass.Placeholder = "password"
	pass.EchoMode = textinput.EchoPassword
	pass.CharLimit = 128

	return Model{Username: user, Password: pass}
}

// NextField moves focus between the two inputs.
func (m *Model) NextField() {
	m.focus = (m.focus + 1) % 2
	if m.focus == 0 {
		m.Username.Focus()
		m.Password.Blur()
	} else {
		m.Password.Focus()
		m.Username.Blur()
	}
}

// Update forwards key events to the focused input.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	if m.focus == 0 {
		m.Username, cmd = m.Username.Update(msg)
	} else {
		m.Password, cmd = m.Password.Update(msg)
	}
	return m, cmd
}

// View renders the form.
func (m Model) View() string {
	title := theme.TitleStyle.Render("FlowHive — sign in")
	hint := theme.DimStyle.Render("tab: switch field  enter: submit  ctrl+c: quit")

	body := lipgloss.JoinVertical(lipgloss.Left,
		title,
		"",
		m.Username.View(),
		m.Password.View(),
		"",
		hint,
	)
	if m.Err != "" {
		body = lipgloss.JoinVertical(lipgloss.Left, body, "", theme.ErrorStyle.Render(m.Err))
	}
	return lipgloss.NewStyle().Padding(1, 2).Render(body)
}
