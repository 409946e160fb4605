// Package theme provides the Lip Gloss color palette and reusable styles
// for the FlowHive TUI. It is a leaf package with no internal imports to
// avoid import cycles.
package theme

import "github.com/charmbracelet/lipgloss"

// Status colors.
var (
	ColorConnected    = lipgloss.Color("#22c55e")
	ColorReconnecting = lipgloss.Color("#d97706")
	ColorDisconnected = lipgloss.Color("#dc2626")
	ColorDimmed       = lipgloss.Color("#4b5563")
	ColorBorder       = lipgloss.Color("#374151")
)

// Accent colors.
var (
	ColorPrimary = lipgloss.Color("#3b82f6")
	ColorAccent  = lipgloss.Color("#a855f7")
	ColorUnread  = lipgloss.Color("#f59e0b")
	ColorError   = lipgloss.Color("#dc2626")
)

// Reusable styles.
var (
	TitleStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary)
	DimStyle   = lipgloss.NewStyle().Foreground(ColorDimmed)
	ErrorStyle = lipgloss.NewStyle().Foreground(ColorError)
)
