package tui

import "github.com/charmbracelet/lipgloss"

// Theme defines all colors used by the dashboard.
// Use DarkTheme() or LightTheme() to get a pre-built theme,
// or construct a custom Theme.
type Theme struct {
	Primary        lipgloss.Color // app title, selected panel marker
	Secondary      lipgloss.Color // selected panel title
	Accent         lipgloss.Color // panel borders of the selection, editor border
	Error          lipgloss.Color // panel errors
	Warning        lipgloss.Color // interactive affordances
	Success        lipgloss.Color // command confirmations
	Info           lipgloss.Color // kind badges
	Text           lipgloss.Color
	TextMuted      lipgloss.Color // hints, placeholders, stale content while loading
	BackgroundElem lipgloss.Color // selected row background
	Border         lipgloss.Color // unselected panel borders
	GlamourStyle   string         // glamour standard style for chat panels
}

// DarkTheme returns the default dark theme.
func DarkTheme() Theme {
	return Theme{
		Primary:        lipgloss.Color("#fab283"),
		Secondary:      lipgloss.Color("#5c9cf5"),
		Accent:         lipgloss.Color("#9d7cd8"),
		Error:          lipgloss.Color("#e06c75"),
		Warning:        lipgloss.Color("#f5a742"),
		Success:        lipgloss.Color("#7fd88f"),
		Info:           lipgloss.Color("#56b6c2"),
		Text:           lipgloss.Color("#eeeeee"),
		TextMuted:      lipgloss.Color("#808080"),
		BackgroundElem: lipgloss.Color("#1e1e1e"),
		Border:         lipgloss.Color("#484848"),
		GlamourStyle:   "dark",
	}
}

// LightTheme returns a light theme for bright terminal backgrounds.
func LightTheme() Theme {
	return Theme{
		Primary:        lipgloss.Color("#b35c00"),
		Secondary:      lipgloss.Color("#0550ae"),
		Accent:         lipgloss.Color("#6639ba"),
		Error:          lipgloss.Color("#cf222e"),
		Warning:        lipgloss.Color("#bf8700"),
		Success:        lipgloss.Color("#116329"),
		Info:           lipgloss.Color("#0969da"),
		Text:           lipgloss.Color("#1f2328"),
		TextMuted:      lipgloss.Color("#656d76"),
		BackgroundElem: lipgloss.Color("#f6f8fa"),
		Border:         lipgloss.Color("#d0d7de"),
		GlamourStyle:   "light",
	}
}

// ThemeByName returns a theme by name. Defaults to dark.
func ThemeByName(name string) Theme {
	switch name {
	case "light":
		return LightTheme()
	default:
		return DarkTheme()
	}
}

// styles holds all lipgloss styles derived from a Theme.
type styles struct {
	title    lipgloss.Style
	selected lipgloss.Style
	panel    lipgloss.Style
	active   lipgloss.Style
	badge    lipgloss.Style
	err      lipgloss.Style
	warn     lipgloss.Style
	ok       lipgloss.Style
	dim      lipgloss.Style
	text     lipgloss.Style
	editor   lipgloss.Style

	hintKey  lipgloss.Style
	hintDesc lipgloss.Style
}

func newStyles(t Theme) styles {
	return styles{
		title:    lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		selected: lipgloss.NewStyle().Bold(true).Foreground(t.Secondary).Background(t.BackgroundElem),
		panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Border).
			Padding(0, 1),
		active: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Accent).
			Padding(0, 1),
		badge:  lipgloss.NewStyle().Foreground(t.Info),
		err:    lipgloss.NewStyle().Foreground(t.Error),
		warn:   lipgloss.NewStyle().Foreground(t.Warning),
		ok:     lipgloss.NewStyle().Foreground(t.Success),
		dim:    lipgloss.NewStyle().Foreground(t.TextMuted),
		text:   lipgloss.NewStyle().Foreground(t.Text),
		editor: lipgloss.NewStyle().Border(lipgloss.NormalBorder()).BorderForeground(t.Accent),

		hintKey:  lipgloss.NewStyle().Foreground(t.Text),
		hintDesc: lipgloss.NewStyle().Foreground(t.TextMuted),
	}
}
