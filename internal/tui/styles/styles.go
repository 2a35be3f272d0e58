package styles

import (
	"github.com/charmbracelet/lipgloss"
)

// --- Color Palette ---
var (
	ColorPrimary   = lipgloss.Color("#C061CB") // Magenta
	ColorSecondary = lipgloss.Color("#04B575") // Green
	ColorInfo      = lipgloss.Color("#5FAFFF") // Blue
	ColorAccent    = lipgloss.Color("#5FD7D7") // Cyan
	ColorError     = lipgloss.Color("#FF5F87") // Pink/Red
	ColorWarning   = lipgloss.Color("#FFAF00") // Gold
	ColorText      = lipgloss.Color("#FAFAFA")
	ColorSubtle    = lipgloss.Color("#767676")
	ColorDim       = lipgloss.Color("#4E4E4E")
	ColorBorder    = lipgloss.Color("#3C3C3C")
)

var (
	Banner    = lipgloss.NewStyle().Foreground(ColorPrimary).Bold(true)
	Signature = lipgloss.NewStyle().Foreground(ColorPrimary)

	Panel = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorBorder).
		Padding(0, 2)

	Title = lipgloss.NewStyle().
		Foreground(ColorPrimary).
		Bold(true).
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(ColorSubtle)

	Text   = lipgloss.NewStyle().Foreground(ColorText)
	Subtle = lipgloss.NewStyle().Foreground(ColorSubtle)
	Dim    = lipgloss.NewStyle().Foreground(ColorDim)

	Label   = lipgloss.NewStyle().Foreground(ColorSubtle).Width(16)
	Value   = lipgloss.NewStyle().Foreground(ColorSecondary).Bold(true)
	Info    = lipgloss.NewStyle().Foreground(ColorInfo)
	Start   = lipgloss.NewStyle().Foreground(ColorAccent)
	Error   = lipgloss.NewStyle().Foreground(ColorError)
	Fatal   = lipgloss.NewStyle().Foreground(ColorError).Bold(true)
	Warn    = lipgloss.NewStyle().Foreground(ColorWarning)
	Success = lipgloss.NewStyle().Foreground(ColorSecondary).Bold(true)

	KeyKey  = lipgloss.NewStyle().Foreground(ColorText).Bold(true)
	KeyDesc = lipgloss.NewStyle().Foreground(ColorSubtle)
)

func RenderKey(key, desc string) string {
	return lipgloss.JoinHorizontal(lipgloss.Center,
		KeyKey.Render("<"+key+">"),
		" ",
		KeyDesc.Render(desc),
	)
}
