package dashboard

import (
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/lipgloss"
)

// Dashboard color palette.
const (
	ColorBorder = lipgloss.Color("#2A2A4A")

	ColorHealthy  = lipgloss.Color("#39FF14")
	ColorWarning  = lipgloss.Color("#FFAA00")
	ColorCritical = lipgloss.Color("#FF0055")

	ColorTextPrimary   = lipgloss.Color("#FFFFFF")
	ColorTextSecondary = lipgloss.Color("#B4B4D0")
	ColorTextMuted     = lipgloss.Color("#6B6B8D")

	ColorAccent = lipgloss.Color("#FF2E97")
)

var (
	HeaderStyle = lipgloss.NewStyle().
			Foreground(ColorTextPrimary).
			Bold(true).
			Padding(0, 1)

	FooterStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted).
			Padding(0, 1)

	PanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(0, 1).
			MarginRight(1).
			MarginBottom(1)

	PanelSelectedStyle = PanelStyle.
				BorderForeground(ColorAccent)

	TitleStyle = lipgloss.NewStyle().
			Foreground(ColorAccent).
			Bold(true)

	LabelStyle = lipgloss.NewStyle().
			Foreground(ColorTextSecondary)

	ValueStyle = lipgloss.NewStyle().
			Foreground(ColorTextPrimary)

	HealthyStyle = lipgloss.NewStyle().
			Foreground(ColorHealthy)

	DownStyle = lipgloss.NewStyle().
			Foreground(ColorCritical)

	OfflineStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted)

	PendingStyle = lipgloss.NewStyle().
			Foreground(ColorTextSecondary)
)

// Status indicator glyphs.
const (
	GlyphHealthy = "◉"
	GlyphDown    = "◌"
	GlyphOffline = "○"
	GlyphPending = "◐"
)

// SpinnerFrames animate the refreshing indicator.
var SpinnerFrames = spinner.Spinner{
	Frames: []string{"◐", "◓", "◑", "◒"},
	FPS:    spinnerInterval,
}
