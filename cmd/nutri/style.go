package nutri

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/saadjs/nutri-cli/internal/model"
)

// styles maps the practice theme onto terminal styles.
type styles struct {
	Title   lipgloss.Style
	Heading lipgloss.Style
	Muted   lipgloss.Style
	Accent  lipgloss.Style
	Card    lipgloss.Style
	Good    lipgloss.Style
	Warn    lipgloss.Style
	Bad     lipgloss.Style
}

func newStyles(t model.ThemeConfig) styles {
	primary := lipgloss.Color(t.PrimaryColor)
	text := lipgloss.Color(t.TextColor)
	return styles{
		Title:   lipgloss.NewStyle().Bold(true).Foreground(primary),
		Heading: lipgloss.NewStyle().Bold(true).Foreground(text).Underline(true),
		Muted:   lipgloss.NewStyle().Faint(true),
		Accent:  lipgloss.NewStyle().Foreground(primary),
		Card: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(primary).
			Padding(0, 1),
		Good: lipgloss.NewStyle().Foreground(lipgloss.Color("#22c55e")),
		Warn: lipgloss.NewStyle().Foreground(lipgloss.Color("#eab308")),
		Bad:  lipgloss.NewStyle().Foreground(lipgloss.Color("#ef4444")),
	}
}

func swatch(hex string) string {
	return lipgloss.NewStyle().Background(lipgloss.Color(hex)).Render("    ") + " " + hex
}
