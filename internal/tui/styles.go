package tui

import "github.com/charmbracelet/lipgloss"

// Palette colours.
var (
	colorPrimary = lipgloss.Color("#7C3AED")
	colorAccent  = lipgloss.Color("#06B6D4")
	colorMuted   = lipgloss.Color("#6C7086")
	colorWarning = lipgloss.Color("#F9E2AF")
	colorError   = lipgloss.Color("#F38BA8")
	colorBorder  = lipgloss.Color("#45475A")
)

// Styles holds the pre-configured lipgloss styles.
type Styles struct {
	Title     lipgloss.Style
	Tab       lipgloss.Style
	ActiveTab lipgloss.Style
	Normal    lipgloss.Style
	Muted     lipgloss.Style
	Cursor    lipgloss.Style
	Highlight lipgloss.Style
	Warning   lipgloss.Style
	Error     lipgloss.Style
	Map       lipgloss.Style
	Popup     lipgloss.Style
	Dropdown  lipgloss.Style
}

// DefaultStyles returns the default styles.
func DefaultStyles() Styles {
	return Styles{
		Title:     lipgloss.NewStyle().Bold(true).Foreground(colorPrimary),
		Tab:       lipgloss.NewStyle().Padding(0, 1).Foreground(colorMuted),
		ActiveTab: lipgloss.NewStyle().Padding(0, 1).Bold(true).Foreground(colorPrimary).Underline(true),
		Normal:    lipgloss.NewStyle(),
		Muted:     lipgloss.NewStyle().Foreground(colorMuted),
		Cursor:    lipgloss.NewStyle().Bold(true).Foreground(colorAccent),
		Highlight: lipgloss.NewStyle().Bold(true).Foreground(colorWarning),
		Warning:   lipgloss.NewStyle().Foreground(colorWarning),
		Error:     lipgloss.NewStyle().Foreground(colorError),
		Map:       lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorBorder),
		Popup:     lipgloss.NewStyle().Border(lipgloss.NormalBorder()).BorderForeground(colorAccent).Padding(0, 1),
		Dropdown:  lipgloss.NewStyle().Border(lipgloss.NormalBorder()).BorderForeground(colorBorder),
	}
}
