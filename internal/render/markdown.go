package render

import (
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
)

// Glamour styles accepted by Markdown.
const (
	StyleDark  = "dark"
	StyleLight = "light"
	StyleNoTTY = "notty"
)

type rendererKey struct {
	style string
	width int
}

var (
	renderersMu sync.Mutex
	renderers   = map[rendererKey]*glamour.TermRenderer{}
)

// Markdown renders chat content for the terminal, wrapped to width.
// When rendering fails the input is returned unchanged.
func Markdown(markdown string, width int, style string) string {
	if strings.TrimSpace(markdown) == "" {
		return ""
	}
	r, err := renderer(style, width)
	if err != nil {
		return markdown
	}
	out, err := r.Render(markdown)
	if err != nil {
		return markdown
	}
	return strings.Trim(out, "\n")
}

// renderer returns a cached renderer; building one parses the whole style.
func renderer(style string, width int) (*glamour.TermRenderer, error) {
	if width < 20 {
		width = 20
	}
	switch style {
	case StyleDark, StyleLight, StyleNoTTY:
	default:
		style = StyleDark
	}

	key := rendererKey{style: style, width: width}
	renderersMu.Lock()
	defer renderersMu.Unlock()
	if r, ok := renderers[key]; ok {
		return r, nil
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil, err
	}
	renderers[key] = r
	return r, nil
}
