package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/jsamuelsen/quote-gallery/internal/app"
)

type palette struct {
	fg     lipgloss.Color
	muted  lipgloss.Color
	accent lipgloss.Color
	border lipgloss.Color
	card   lipgloss.Color
}

var palettes = map[app.Theme]palette{
	app.ThemeLight: {fg: "#1d1b18", muted: "#6b645c", accent: "#b4532a", border: "#cfc8bd", card: "#ffffff"},
	app.ThemeDark:  {fg: "#ece8e1", muted: "#a39b90", accent: "#e58a5f", border: "#4a4540", card: "#22201d"},
}

type styles struct {
	title    lipgloss.Style
	muted    lipgloss.Style
	active   lipgloss.Style
	featured lipgloss.Style
	fading   lipgloss.Style
	card     lipgloss.Style
	selected lipgloss.Style
	author   lipgloss.Style
	overlay  lipgloss.Style
	errText  lipgloss.Style
}

func newStyles(theme app.Theme) styles {
	p, ok := palettes[theme]
	if !ok {
		p = palettes[app.ThemeLight]
	}

	card := lipgloss.NewStyle().
		Foreground(p.fg).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(p.border).
		Padding(0, 1)

	return styles{
		title:    lipgloss.NewStyle().Bold(true).Foreground(p.accent),
		muted:    lipgloss.NewStyle().Foreground(p.muted),
		active:   lipgloss.NewStyle().Bold(true).Underline(true).Foreground(p.accent),
		featured: lipgloss.NewStyle().Italic(true).Foreground(p.fg).Padding(0, 1),
		fading:   lipgloss.NewStyle().Italic(true).Faint(true).Foreground(p.muted).Padding(0, 1),
		card:     card,
		selected: card.BorderForeground(p.accent),
		author:   lipgloss.NewStyle().Foreground(p.muted),
		overlay: lipgloss.NewStyle().
			Foreground(p.fg).
			Border(lipgloss.DoubleBorder()).
			BorderForeground(p.accent).
			Padding(1, 2),
		errText: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#c0392b")),
	}
}
