// Package tui is the interactive terminal dashboard.
//
// All store mutations happen on the bubbletea update loop: remote calls run
// as commands and come back as fetchDoneMsg, inbox datagrams come back as
// commandsMsg, and both are folded into the store by the orchestrator there.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/timvw/dashgen/internal/dashboard"
	"github.com/timvw/dashgen/internal/inbox"
	"github.com/timvw/dashgen/internal/logger"
	"github.com/timvw/dashgen/internal/orchestrator"
	"github.com/timvw/dashgen/internal/protocol"
)

const defaultParallel = 6

// view mode
type viewMode int

const (
	modeList viewMode = iota
	modeEdit
)

// messages
type fetchDoneMsg struct {
	completion orchestrator.Completion
}

type commandsMsg struct {
	cmds []protocol.Command
}

// TUI runs the interactive dashboard.
type TUI struct {
	Orchestrator *orchestrator.Orchestrator
	Theme        Theme
	// Parallel bounds concurrent remote calls. Zero means the default.
	Parallel int
	// SocketPath is the command inbox. Empty disables the inbox.
	SocketPath string
}

// tuiModel implements tea.Model
type tuiModel struct {
	orch   *orchestrator.Orchestrator
	ctx    context.Context
	keys   KeyMap
	styles styles
	theme  Theme

	cursor int
	mode   viewMode

	// prompt editor state
	editor     textarea.Model
	editTarget string // panel id

	spinner spinner.Model
	sem     chan struct{}

	// dimensions
	width  int
	height int

	// status
	inflight int
	message  string
}

func (t *TUI) Run(ctx context.Context) error {
	m := newModel(ctx, t.Orchestrator, t.Theme, t.Parallel)
	p := tea.NewProgram(m, tea.WithAltScreen())

	if t.SocketPath != "" {
		in := inbox.New(t.SocketPath, func(cmds []protocol.Command) {
			p.Send(commandsMsg{cmds: cmds})
		})
		if err := in.Start(ctx); err != nil {
			logger.Warn("command inbox disabled", "socket", t.SocketPath, "error", err)
		} else {
			defer in.Close()
			logger.Info("command inbox listening", "socket", in.SocketPath())
		}
	}

	_, err := p.Run()
	return err
}

func newModel(ctx context.Context, orch *orchestrator.Orchestrator, theme Theme, parallel int) *tuiModel {
	if parallel <= 0 {
		parallel = defaultParallel
	}
	if theme.GlamourStyle == "" {
		theme = DarkTheme()
	}

	ed := textarea.New()
	ed.Placeholder = "Describe what this panel should show..."
	ed.ShowLineNumbers = false
	ed.CharLimit = 4096
	ed.SetHeight(4)
	ed.SetWidth(76)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Accent)

	return &tuiModel{
		orch:    orch,
		ctx:     ctx,
		keys:    DefaultKeyMap,
		styles:  newStyles(theme),
		theme:   theme,
		editor:  ed,
		spinner: sp,
		sem:     make(chan struct{}, parallel),
		width:   80,
		height:  24,
	}
}

func (m *tuiModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.fetchAll())
}

// fetch starts a fetch for one panel. It returns nil when the panel is gone.
func (m *tuiModel) fetch(id, override string) tea.Cmd {
	pending, ok := m.orch.Fetch(m.ctx, id, override)
	if !ok {
		return nil
	}
	m.inflight++
	sem := m.sem
	return func() tea.Msg {
		sem <- struct{}{}
		defer func() { <-sem }()
		return fetchDoneMsg{completion: pending()}
	}
}

func (m *tuiModel) fetchAll() tea.Cmd {
	var cmds []tea.Cmd
	for _, p := range m.orch.Store.Panels() {
		if cmd := m.fetch(p.ID, ""); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}
	return tea.Batch(cmds...)
}

func (m *tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.mode == modeEdit {
			return m.handleEditKey(msg)
		}
		return m.handleListKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.editor.SetWidth(max(20, msg.Width-6))
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case fetchDoneMsg:
		if m.inflight > 0 {
			m.inflight--
		}
		out := m.orch.Complete(msg.completion)
		switch {
		case msg.completion.Err != nil:
			m.message = fmt.Sprintf("%s: %v", m.panelTitle(msg.completion.PanelID), msg.completion.Err)
		case len(out.Results) > 0:
			m.message = fmt.Sprintf("applied %d/%d dashboard commands", out.Applied(), len(out.Results))
		}
		m.clampCursor()
		return m, nil

	case commandsMsg:
		out := m.orch.ApplyCommands(msg.cmds)
		m.message = fmt.Sprintf("inbox: applied %d/%d commands", out.Applied(), len(out.Results))
		m.clampCursor()
		return m, nil
	}

	if m.mode == modeEdit {
		var cmd tea.Cmd
		m.editor, cmd = m.editor.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *tuiModel) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	panels := m.orch.Store.Panels()
	var sel *dashboard.Panel
	if m.cursor >= 0 && m.cursor < len(panels) {
		sel = &panels[m.cursor]
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(panels)-1 {
			m.cursor++
		}

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}

	case key.Matches(msg, m.keys.MoveDown):
		if sel != nil && m.cursor < len(panels)-1 {
			m.orch.Store.Move(sel.ID, 1)
			m.cursor++
		}

	case key.Matches(msg, m.keys.MoveUp):
		if sel != nil && m.cursor > 0 {
			m.orch.Store.Move(sel.ID, -1)
			m.cursor--
		}

	case key.Matches(msg, m.keys.Refresh):
		if sel != nil {
			m.message = ""
			return m, m.fetch(sel.ID, "")
		}

	case key.Matches(msg, m.keys.RefreshAll):
		m.message = ""
		return m, m.fetchAll()

	case key.Matches(msg, m.keys.Edit):
		if sel != nil {
			m.mode = modeEdit
			m.editTarget = sel.ID
			m.editor.SetValue(sel.Prompt)
			m.editor.CursorEnd()
			return m, m.editor.Focus()
		}

	case key.Matches(msg, m.keys.Input):
		if sel != nil {
			m.orch.Store.SetInputVisible(sel.ID, !sel.InputVisible)
		}

	case key.Matches(msg, m.keys.Kind):
		if sel != nil {
			next := protocol.KindChat
			if sel.Kind == protocol.KindChat {
				next = protocol.KindRich
			}
			m.orch.Store.SetKind(sel.ID, next)
			return m, m.fetch(sel.ID, "")
		}

	case key.Matches(msg, m.keys.AddRich):
		return m, m.add(dashboard.New(protocol.KindRich, "New Panel"))

	case key.Matches(msg, m.keys.AddChat):
		return m, m.add(dashboard.New(protocol.KindChat, "Chat"))

	case key.Matches(msg, m.keys.Remove):
		if sel != nil {
			m.orch.Store.Remove(sel.ID)
			m.message = fmt.Sprintf("removed %q", sel.Title)
			m.clampCursor()
		}
	}
	return m, nil
}

// add appends p, selects it and fetches it.
func (m *tuiModel) add(p dashboard.Panel) tea.Cmd {
	if !m.orch.Store.Add(p) {
		return nil
	}
	m.cursor = m.orch.Store.Len() - 1
	return m.fetch(p.ID, "")
}

func (m *tuiModel) handleEditKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Submit):
		prompt := strings.TrimSpace(m.editor.Value())
		id := m.editTarget
		m.closeEditor()
		if !m.orch.Store.SetPrompt(id, prompt) {
			m.message = "panel was removed"
			return m, nil
		}
		m.message = ""
		return m, m.fetch(id, prompt)

	case key.Matches(msg, m.keys.Cancel):
		// Keep the draft; it is submitted with the next refresh.
		m.orch.Store.SetPrompt(m.editTarget, strings.TrimSpace(m.editor.Value()))
		m.closeEditor()
		return m, nil
	}

	var cmd tea.Cmd
	m.editor, cmd = m.editor.Update(msg)
	return m, cmd
}

func (m *tuiModel) closeEditor() {
	m.editor.Blur()
	m.editor.Reset()
	m.editTarget = ""
	m.mode = modeList
}

func (m *tuiModel) clampCursor() {
	n := m.orch.Store.Len()
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *tuiModel) panelTitle(id string) string {
	if p, ok := m.orch.Store.Get(id); ok && p.Title != "" {
		return p.Title
	}
	return id
}
