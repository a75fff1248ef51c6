package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/timvw/dashgen/internal/dashboard"
	"github.com/timvw/dashgen/internal/protocol"
	"github.com/timvw/dashgen/internal/render"
)

// collapsedLines is how much body an unselected panel shows.
const collapsedLines = 3

func (m *tuiModel) View() string {
	var b strings.Builder

	b.WriteString(m.viewHeader())
	b.WriteString("\n")

	body, selStart := m.viewPanels()
	if m.mode == modeEdit {
		body = append(body, m.viewEditor()...)
		selStart = -1
	}

	avail := m.height - 3
	if avail < 1 {
		avail = len(body)
	}
	body = scrollTo(body, selStart, avail)
	b.WriteString(strings.Join(body, "\n"))
	b.WriteString("\n")
	b.WriteString(m.viewHints())
	return b.String()
}

func (m *tuiModel) viewHeader() string {
	title := m.styles.title.Render("dashgen")
	n := m.orch.Store.Len()
	status := m.styles.dim.Render(fmt.Sprintf("  %d panels", n))
	if m.inflight > 0 {
		status += "  " + m.spinner.View() + m.styles.dim.Render(fmt.Sprintf(" generating %d", m.inflight))
	}
	if m.message != "" {
		status += "  " + m.styles.dim.Render(truncate(m.message, max(10, m.width-30)))
	}
	return title + status
}

// viewPanels renders every panel as a bordered box, one below the other,
// and returns the first line of the selected panel.
func (m *tuiModel) viewPanels() ([]string, int) {
	panels := m.orch.Store.Panels()
	if len(panels) == 0 {
		return []string{m.styles.dim.Render("  No panels. Press a to add one, c to add a chat.")}, 0
	}

	width := max(20, m.width-2)
	var lines []string
	selStart := 0
	for i, p := range panels {
		selected := i == m.cursor
		box := m.styles.panel
		if selected {
			box = m.styles.active
			selStart = len(lines)
		}
		inner := width - box.GetHorizontalFrameSize()

		content := []string{m.panelHeader(p, selected)}
		body := m.panelBody(p, inner)
		if !selected && len(body) > collapsedLines {
			body = append(body[:collapsedLines], m.styles.dim.Render("…"))
		}
		content = append(content, body...)

		rendered := box.Width(width - box.GetHorizontalBorderSize()).Render(strings.Join(content, "\n"))
		lines = append(lines, strings.Split(rendered, "\n")...)
	}
	return lines, selStart
}

func (m *tuiModel) panelHeader(p dashboard.Panel, selected bool) string {
	marker := "  "
	title := m.styles.text.Render(p.Title)
	if selected {
		marker = m.styles.title.Render("▸ ")
		title = m.styles.selected.Render(p.Title)
	}
	badge := m.styles.badge.Render("[" + kindLabel(p.Kind) + "]")

	var state string
	switch {
	case p.Loading:
		state = " " + m.spinner.View()
	case p.Error != "":
		state = " " + m.styles.err.Render("✗")
	}
	return marker + badge + " " + title + state
}

// panelBody renders content according to the panel kind. While loading,
// existing content stays visible.
func (m *tuiModel) panelBody(p dashboard.Panel, width int) []string {
	var lines []string

	switch {
	case p.Error != "":
		lines = append(lines,
			m.styles.err.Render("Generation failed"),
			m.styles.err.Render(truncate(p.Error, width)))
	case p.Content == "" && p.Loading:
		lines = append(lines, m.styles.dim.Render("Generating…"))
	case p.Content == "":
		lines = append(lines, m.styles.dim.Render("Awaiting content…"))
	case p.Kind == protocol.KindChat:
		lines = append(lines, strings.Split(render.Markdown(p.Content, width, m.theme.GlamourStyle), "\n")...)
	default:
		for _, l := range strings.Split(render.HTMLText(p.Content), "\n") {
			lines = append(lines, wrapText(l, width)...)
		}
		if fields := render.FormFields(p.Content); len(fields) > 0 {
			lines = append(lines, m.styles.warn.Render(fmt.Sprintf("[Save & Submit] %d field(s), press enter", len(fields))))
		}
	}

	if p.InputVisible {
		prompt := p.Prompt
		if prompt == "" {
			prompt = m.styles.dim.Render("press enter to type a prompt")
		}
		lines = append(lines, m.styles.dim.Render("› ")+prompt)
	}
	return lines
}

func (m *tuiModel) viewEditor() []string {
	title := m.panelTitle(m.editTarget)
	head := m.styles.title.Render("  Prompt for " + title)
	box := m.styles.editor.Render(m.editor.View())
	return append([]string{"", head}, strings.Split(box, "\n")...)
}

func (m *tuiModel) viewHints() string {
	bindings := m.keys.listHints()
	if m.mode == modeEdit {
		bindings = m.keys.editHints()
	}
	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		parts = append(parts, m.styles.hintKey.Render(h.Key)+" "+m.styles.hintDesc.Render(h.Desc))
	}
	return truncateStyled(strings.Join(parts, "  "), m.width)
}

// scrollTo returns at most height lines of lines, keeping line target in
// view. A negative target keeps the tail in view.
func scrollTo(lines []string, target, height int) []string {
	if len(lines) <= height {
		return lines
	}
	start := target
	if target < 0 || target+height > len(lines) {
		start = len(lines) - height
	}
	return lines[start : start+height]
}

func kindLabel(k protocol.Kind) string {
	if k == protocol.KindChat {
		return "Chat"
	}
	return "C1"
}

func truncate(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 1 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-1]) + "…"
}

// truncateStyled cuts a styled line to width visible cells.
func truncateStyled(s string, width int) string {
	if width <= 0 || lipgloss.Width(s) <= width {
		return s
	}
	return lipgloss.NewStyle().MaxWidth(width).Render(s)
}

// wrapText wraps s at word boundaries to lines of at most maxLen runes.
func wrapText(s string, maxLen int) []string {
	if maxLen <= 0 || len([]rune(s)) <= maxLen {
		return []string{s}
	}
	var lines []string
	var cur strings.Builder
	for _, word := range strings.Fields(s) {
		if cur.Len() > 0 && len([]rune(cur.String()))+1+len([]rune(word)) > maxLen {
			lines = append(lines, cur.String())
			cur.Reset()
		}
		if cur.Len() > 0 {
			cur.WriteString(" ")
		}
		cur.WriteString(word)
	}
	if cur.Len() > 0 {
		lines = append(lines, cur.String())
	}
	return lines
}
