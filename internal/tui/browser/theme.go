package browser

import "github.com/charmbracelet/lipgloss"

// Theme holds the styles of the browser.
type Theme struct {
	Header    lipgloss.Style
	Info      lipgloss.Style
	Highlight lipgloss.Style
	Selected  lipgloss.Style
	Muted     lipgloss.Style
	Error     lipgloss.Style
	Success   lipgloss.Style
	Match     lipgloss.Style
	Project   lipgloss.Style
	Folder    lipgloss.Style
}

var (
	orange = lipgloss.AdaptiveColor{Light: "#D75F00", Dark: "#FFAF5F"}
	blue   = lipgloss.AdaptiveColor{Light: "#005FAF", Dark: "#5FAFFF"}
	green  = lipgloss.AdaptiveColor{Light: "#008700", Dark: "#87D787"}
	red    = lipgloss.AdaptiveColor{Light: "#AF0000", Dark: "#FF5F5F"}
	gray   = lipgloss.AdaptiveColor{Light: "#767676", Dark: "#8A8A8A"}
)

// DefaultTheme is used unless a caller overrides it.
var DefaultTheme = Theme{
	Header:    lipgloss.NewStyle().Bold(true).Foreground(blue),
	Info:      lipgloss.NewStyle().Foreground(blue),
	Highlight: lipgloss.NewStyle().Foreground(orange).Bold(true),
	Selected:  lipgloss.NewStyle().Reverse(true),
	Muted:     lipgloss.NewStyle().Foreground(gray),
	Error:     lipgloss.NewStyle().Foreground(red),
	Success:   lipgloss.NewStyle().Foreground(green),
	Match:     lipgloss.NewStyle().Underline(true).Foreground(orange),
	Project:   lipgloss.NewStyle().Bold(true),
	Folder:    lipgloss.NewStyle().Foreground(blue),
}
