package tui

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/timvw/dashgen/internal/dashboard"
	"github.com/timvw/dashgen/internal/generator"
	"github.com/timvw/dashgen/internal/orchestrator"
	"github.com/timvw/dashgen/internal/protocol"
)

// fakeGenerator returns canned results and records every request.
type fakeGenerator struct {
	mu       sync.Mutex
	requests []generator.Request
	respond  func(req generator.Request) (*generator.Result, error)
}

func (f *fakeGenerator) Generate(_ context.Context, req generator.Request) (*generator.Result, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()
	return f.respond(req)
}

func (f *fakeGenerator) Provider() string { return "fake" }
func (f *fakeGenerator) Model() string    { return "fake-model" }

func (f *fakeGenerator) last() generator.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

func replying(content string, cmds ...protocol.Command) *fakeGenerator {
	return &fakeGenerator{respond: func(generator.Request) (*generator.Result, error) {
		return &generator.Result{Content: content, Commands: cmds}, nil
	}}
}

func panel(id string, kind protocol.Kind, content string) dashboard.Panel {
	return dashboard.Panel{ID: id, Kind: kind, Title: "Title " + id, Content: content}
}

// newTestModel creates a tuiModel over the given panels with the cursor on
// the first one.
func newTestModel(gen *fakeGenerator, panels ...dashboard.Panel) *tuiModel {
	theme := DarkTheme()
	theme.GlamourStyle = "notty"
	orch := orchestrator.New(dashboard.NewStore(panels...), gen, nil)
	m := newModel(context.Background(), orch, theme, 2)
	m.width = 100
	m.height = 60
	return m
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// drain runs cmd and every command it batches, feeding the results back
// into m.
func drain(t *testing.T, m *tuiModel, cmd tea.Cmd) {
	t.Helper()
	if cmd == nil {
		return
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		for _, c := range batch {
			drain(t, m, c)
		}
		return
	}
	if _, ok := msg.(fetchDoneMsg); !ok {
		t.Fatalf("unexpected message %T", msg)
	}
	_, next := m.Update(msg)
	drain(t, m, next)
}

func ids(m *tuiModel) []string {
	var out []string
	for _, p := range m.orch.Store.Panels() {
		out = append(out, p.ID)
	}
	return out
}

// --- List: keyboard navigation ---

func TestListKey_UpDownNavigation(t *testing.T) {
	m := newTestModel(replying("x"),
		panel("a", protocol.KindRich, ""),
		panel("b", protocol.KindRich, ""),
	)

	m.handleListKey(keyRunes("k"))
	if m.cursor != 0 {
		t.Errorf("cursor = %d after k at top, want 0", m.cursor)
	}
	m.handleListKey(keyRunes("j"))
	if m.cursor != 1 {
		t.Errorf("cursor = %d after j, want 1", m.cursor)
	}
	m.handleListKey(tea.KeyMsg{Type: tea.KeyDown})
	if m.cursor != 1 {
		t.Errorf("cursor = %d after down at bottom, want 1", m.cursor)
	}
	m.handleListKey(tea.KeyMsg{Type: tea.KeyUp})
	if m.cursor != 0 {
		t.Errorf("cursor = %d after up, want 0", m.cursor)
	}
}

func TestListKey_MoveReordersAndFollowsPanel(t *testing.T) {
	m := newTestModel(replying("x"),
		panel("a", protocol.KindRich, ""),
		panel("b", protocol.KindRich, ""),
		panel("c", protocol.KindRich, ""),
	)

	m.handleListKey(keyRunes("J"))
	if got := strings.Join(ids(m), ","); got != "b,a,c" {
		t.Errorf("order after J = %s, want b,a,c", got)
	}
	if m.cursor != 1 {
		t.Errorf("cursor = %d, want 1", m.cursor)
	}

	m.handleListKey(keyRunes("K"))
	m.handleListKey(keyRunes("K"))
	if got := strings.Join(ids(m), ","); got != "a,b,c" {
		t.Errorf("order after K K = %s, want a,b,c", got)
	}
	if m.cursor != 0 {
		t.Errorf("cursor = %d, want 0", m.cursor)
	}
}

func TestListKey_Quit(t *testing.T) {
	m := newTestModel(replying("x"), panel("a", protocol.KindRich, ""))
	_, cmd := m.handleListKey(keyRunes("q"))
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
}

// --- Fetch lifecycle ---

func TestListKey_RefreshFetchesSelectedPanel(t *testing.T) {
	gen := replying("<p>fresh</p>")
	m := newTestModel(gen,
		panel("a", protocol.KindRich, "<p>old</p>"),
		panel("b", protocol.KindRich, ""),
	)
	m.cursor = 1

	_, cmd := m.handleListKey(keyRunes("r"))
	if cmd == nil {
		t.Fatal("expected fetch command")
	}
	if p, _ := m.orch.Store.Get("b"); !p.Loading {
		t.Error("panel not marked loading")
	}
	if m.inflight != 1 {
		t.Errorf("inflight = %d, want 1", m.inflight)
	}

	drain(t, m, cmd)

	b, _ := m.orch.Store.Get("b")
	if b.Loading || b.Content != "<p>fresh</p>" {
		t.Errorf("panel b = %+v, want resolved with fresh content", b)
	}
	if a, _ := m.orch.Store.Get("a"); a.Content != "<p>old</p>" {
		t.Errorf("panel a touched: %+v", a)
	}
	if m.inflight != 0 {
		t.Errorf("inflight = %d after completion, want 0", m.inflight)
	}
}

func TestInit_FetchesEveryPanel(t *testing.T) {
	gen := replying("done")
	m := newTestModel(gen,
		panel("a", protocol.KindRich, ""),
		panel("b", protocol.KindChat, ""),
	)

	drain(t, m, m.fetchAll())

	for _, p := range m.orch.Store.Panels() {
		if p.Content != "done" || p.Loading {
			t.Errorf("panel %s = %+v, want resolved", p.ID, p)
		}
	}
	if len(gen.requests) != 2 {
		t.Errorf("requests = %d, want 2", len(gen.requests))
	}
}

func TestFetchDone_ErrorKeepsContentAndReports(t *testing.T) {
	gen := &fakeGenerator{respond: func(generator.Request) (*generator.Result, error) {
		return nil, errors.New("openai: API error: 500 Internal Server Error")
	}}
	m := newTestModel(gen, panel("a", protocol.KindRich, "<p>old</p>"))

	_, cmd := m.handleListKey(keyRunes("r"))
	drain(t, m, cmd)

	a, _ := m.orch.Store.Get("a")
	if a.Error == "" || a.Content != "<p>old</p>" || a.Loading {
		t.Errorf("panel = %+v, want error with old content kept", a)
	}
	if !strings.Contains(m.message, "Title a") {
		t.Errorf("message = %q, want panel title", m.message)
	}
}

func TestFetchDone_AppliesEmbeddedCommandsWithoutFetchingNewPanels(t *testing.T) {
	gen := replying("ok",
		protocol.SetTitle("a", "Renamed"),
		protocol.AddPanel(protocol.KindChat, "Helper", nil),
	)
	m := newTestModel(gen, panel("a", protocol.KindRich, ""))

	_, cmd := m.handleListKey(keyRunes("r"))
	drain(t, m, cmd)

	panels := m.orch.Store.Panels()
	if len(panels) != 2 {
		t.Fatalf("panels = %d, want 2", len(panels))
	}
	if panels[0].Title != "Renamed" {
		t.Errorf("title = %q, want Renamed", panels[0].Title)
	}
	if panels[1].Loading || panels[1].Content != "" {
		t.Errorf("added panel = %+v, want idle", panels[1])
	}
	if len(gen.requests) != 1 {
		t.Errorf("requests = %d, want 1", len(gen.requests))
	}
	if !strings.Contains(m.message, "2/2") {
		t.Errorf("message = %q", m.message)
	}
}

// --- Panel management ---

func TestListKey_AddChatPanelSelectsAndFetches(t *testing.T) {
	gen := replying("hello")
	m := newTestModel(gen, panel("a", protocol.KindRich, ""))

	_, cmd := m.handleListKey(keyRunes("c"))
	if m.orch.Store.Len() != 2 {
		t.Fatalf("panels = %d, want 2", m.orch.Store.Len())
	}
	if m.cursor != 1 {
		t.Errorf("cursor = %d, want 1", m.cursor)
	}
	added := m.orch.Store.Panels()[1]
	if added.Kind != protocol.KindChat || !added.InputVisible {
		t.Errorf("added = %+v, want chat with input", added)
	}

	drain(t, m, cmd)
	if req := gen.last(); req.Kind != protocol.KindChat || req.PanelKey != "" {
		t.Errorf("request = %+v, want ad-hoc chat", req)
	}
}

func TestListKey_AddRichPanel(t *testing.T) {
	m := newTestModel(replying("x"))
	_, cmd := m.handleListKey(keyRunes("a"))
	if cmd == nil {
		t.Fatal("expected fetch for the new panel")
	}
	if p := m.orch.Store.Panels()[0]; p.Kind != protocol.KindRich || p.InputVisible {
		t.Errorf("added = %+v", p)
	}
}

func TestListKey_RemoveClampsCursor(t *testing.T) {
	m := newTestModel(replying("x"),
		panel("a", protocol.KindRich, ""),
		panel("b", protocol.KindRich, ""),
	)
	m.cursor = 1

	m.handleListKey(keyRunes("x"))
	if got := strings.Join(ids(m), ","); got != "a" {
		t.Errorf("panels = %s, want a", got)
	}
	if m.cursor != 0 {
		t.Errorf("cursor = %d, want 0", m.cursor)
	}

	m.handleListKey(keyRunes("x"))
	m.handleListKey(keyRunes("x"))
	if m.orch.Store.Len() != 0 || m.cursor != 0 {
		t.Errorf("len = %d cursor = %d", m.orch.Store.Len(), m.cursor)
	}
}

func TestListKey_ToggleInput(t *testing.T) {
	m := newTestModel(replying("x"), panel("a", protocol.KindChat, ""))
	m.handleListKey(keyRunes("i"))
	if p, _ := m.orch.Store.Get("a"); !p.InputVisible {
		t.Error("input not shown")
	}
	m.handleListKey(keyRunes("i"))
	if p, _ := m.orch.Store.Get("a"); p.InputVisible {
		t.Error("input not hidden")
	}
}

func TestListKey_ToggleKindClearsAndRefetches(t *testing.T) {
	gen := replying("plain text")
	m := newTestModel(gen, panel("a", protocol.KindRich, "<p>markup</p>"))

	_, cmd := m.handleListKey(keyRunes("t"))
	p, _ := m.orch.Store.Get("a")
	if p.Kind != protocol.KindChat || p.Content != "" || !p.Loading {
		t.Fatalf("after toggle = %+v", p)
	}

	drain(t, m, cmd)
	if req := gen.last(); req.Kind != protocol.KindChat {
		t.Errorf("request kind = %q, want chat", req.Kind)
	}
}

// --- Prompt editor ---

func TestEdit_SubmitStoresPromptAndFetches(t *testing.T) {
	gen := replying("answer")
	m := newTestModel(gen, panel("a", protocol.KindChat, ""))

	m.handleListKey(tea.KeyMsg{Type: tea.KeyEnter})
	if m.mode != modeEdit || m.editTarget != "a" {
		t.Fatalf("mode = %v target = %q, want editing a", m.mode, m.editTarget)
	}
	m.editor.SetValue("  show open incidents  ")

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	if m.mode != modeList {
		t.Error("editor still open after submit")
	}
	if p, _ := m.orch.Store.Get("a"); p.Prompt != "show open incidents" || !p.Loading {
		t.Errorf("panel = %+v", p)
	}

	drain(t, m, cmd)
	if req := gen.last(); req.Prompt != "show open incidents" {
		t.Errorf("request prompt = %q", req.Prompt)
	}
}

func TestEdit_CancelKeepsDraftWithoutFetching(t *testing.T) {
	gen := replying("x")
	m := newTestModel(gen, panel("a", protocol.KindChat, ""))

	m.handleListKey(tea.KeyMsg{Type: tea.KeyEnter})
	m.editor.SetValue("draft")
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})

	if cmd != nil {
		t.Error("cancel should not fetch")
	}
	if m.mode != modeList {
		t.Error("editor still open")
	}
	if p, _ := m.orch.Store.Get("a"); p.Prompt != "draft" || p.Loading {
		t.Errorf("panel = %+v, want draft kept and idle", p)
	}
}

func TestEdit_PrefillsStoredPrompt(t *testing.T) {
	p := panel("a", protocol.KindChat, "")
	p.Prompt = "earlier"
	m := newTestModel(replying("x"), p)

	m.handleListKey(tea.KeyMsg{Type: tea.KeyEnter})
	if got := m.editor.Value(); got != "earlier" {
		t.Errorf("editor = %q, want earlier", got)
	}
}

func TestEdit_SubmitForRemovedPanel(t *testing.T) {
	gen := replying("x")
	m := newTestModel(gen, panel("a", protocol.KindChat, ""))

	m.handleListKey(tea.KeyMsg{Type: tea.KeyEnter})
	m.Update(commandsMsg{cmds: []protocol.Command{protocol.RemovePanel("a")}})
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})

	if cmd != nil {
		t.Error("expected no fetch for a removed panel")
	}
	if len(gen.requests) != 0 {
		t.Errorf("requests = %d", len(gen.requests))
	}
}

// --- Inbox ---

func TestCommandsMsg_AppliesInboxCommands(t *testing.T) {
	m := newTestModel(replying("x"),
		panel("a", protocol.KindRich, ""),
		panel("b", protocol.KindRich, ""),
	)
	m.cursor = 1

	m.Update(commandsMsg{cmds: []protocol.Command{
		protocol.Reorder("b", "a"),
		protocol.RemovePanel("a"),
		protocol.SetTitle("missing", "x"),
	}})

	if got := strings.Join(ids(m), ","); got != "b" {
		t.Errorf("panels = %s, want b", got)
	}
	if m.cursor != 0 {
		t.Errorf("cursor = %d, want 0", m.cursor)
	}
	if !strings.Contains(m.message, "2/3") {
		t.Errorf("message = %q", m.message)
	}
}

// --- View ---

func TestView_RendersPanels(t *testing.T) {
	loading := panel("c", protocol.KindRich, "<p>stale rows</p>")
	loading.Loading = true
	failed := panel("d", protocol.KindRich, "<p>hidden</p>")
	failed.Error = "no content returned"

	m := newTestModel(replying("x"),
		panel("a", protocol.KindRich, `<h2>Deploys</h2><input type="checkbox" name="prod">`),
		panel("b", protocol.KindChat, "All systems **nominal**."),
		loading,
		failed,
		panel("e", protocol.KindRich, ""),
	)

	out := m.View()
	for _, want := range []string{
		"dashgen", "5 panels",
		"Title a", "## Deploys", "Save & Submit",
		"Title b", "[Chat]", "nominal",
		"stale rows",
		"Generation failed", "no content returned",
		"Awaiting content",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("view missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "hidden") {
		t.Error("failed panel should show its error instead of content")
	}
}

func TestView_EditorShowsSubmitHints(t *testing.T) {
	m := newTestModel(replying("x"), panel("a", protocol.KindChat, ""))
	m.handleListKey(tea.KeyMsg{Type: tea.KeyEnter})

	out := m.View()
	for _, want := range []string{"Prompt for Title a", "ctrl+s", "submit", "esc"} {
		if !strings.Contains(out, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestView_NoPanels(t *testing.T) {
	m := newTestModel(replying("x"))
	if out := m.View(); !strings.Contains(out, "No panels") {
		t.Errorf("view = %q", out)
	}
}

// --- helpers ---

func TestScrollTo(t *testing.T) {
	lines := []string{"0", "1", "2", "3", "4", "5"}
	tests := []struct {
		name   string
		target int
		height int
		want   string
	}{
		{"fits", 4, 10, "0,1,2,3,4,5"},
		{"target at top", 2, 3, "2,3,4"},
		{"target near end", 5, 3, "3,4,5"},
		{"tail", -1, 2, "4,5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := strings.Join(scrollTo(lines, tt.target, tt.height), ","); got != tt.want {
				t.Errorf("scrollTo() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestWrapText(t *testing.T) {
	got := wrapText("the quick brown fox jumps", 10)
	want := []string{"the quick", "brown fox", "jumps"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("wrapText() = %q, want %q", got, want)
	}
	if got := wrapText("short", 10); len(got) != 1 || got[0] != "short" {
		t.Errorf("wrapText(short) = %q", got)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"hello", 10, "hello"},
		{"hello world", 6, "hello…"},
		{"héllo", 2, "h…"},
		{"abc", 0, ""},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.n); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}

func TestThemeByName(t *testing.T) {
	if ThemeByName("light").GlamourStyle != "light" {
		t.Error("light theme should render chat with the light style")
	}
	if ThemeByName("anything").GlamourStyle != "dark" {
		t.Error("unknown names fall back to dark")
	}
}
