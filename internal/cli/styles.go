package cli

import "github.com/charmbracelet/lipgloss"

var (
	// Colors
	ColorPrimary = lipgloss.Color("#bd93f9")
	ColorAccent  = lipgloss.Color("#ff79c6")
	ColorSuccess = lipgloss.Color("#50fa7b")
	ColorError   = lipgloss.Color("#ff5555")
	ColorWarning = lipgloss.Color("#ffb86c")
	ColorSubtext = lipgloss.Color("#6272a4")

	TitleStyle = lipgloss.NewStyle().
			Foreground(ColorPrimary).
			Bold(true)

	LabelStyle = lipgloss.NewStyle().
			Foreground(ColorSubtext)

	StageStyle = lipgloss.NewStyle().
			Foreground(ColorAccent)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(ColorSuccess).
			Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorError).
			Bold(true)

	WarningStyle = lipgloss.NewStyle().
			Foreground(ColorWarning)
)
