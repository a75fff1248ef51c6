package prompts

import (
	"strings"
	"testing"

	"github.com/timvw/dashgen/internal/dashboard"
	"github.com/timvw/dashgen/internal/protocol"
)

func TestDefault_NamedPanelsLoaded(t *testing.T) {
	r := Default()
	named := r.Named()
	if len(named) != 6 {
		t.Fatalf("got %d named panels, want 6", len(named))
	}
	if named[0].Key != "pull-requests" || named[0].Title != "Pull Requests" {
		t.Errorf("first named panel = %+v", named[0])
	}
	for _, n := range named {
		if n.Instructions == "" {
			t.Errorf("%s: empty instructions", n.Key)
		}
		if strings.Contains(n.Instructions, "{{interactive}}") {
			t.Errorf("%s: placeholder not expanded", n.Key)
		}
		if !strings.Contains(n.Instructions, "Save & Submit") {
			t.Errorf("%s: interactive elements note missing", n.Key)
		}
	}
}

func TestResolve(t *testing.T) {
	r := Default()

	tests := []struct {
		name     string
		key      string
		kind     protocol.Kind
		contains string
	}{
		{"named panel", "system-logs", protocol.KindRich, "System Logs dashboard panel"},
		{"named panel ignores kind", "issues", protocol.KindChat, "Issues & Bugs dashboard panel"},
		{"unknown key rich", "made-up", protocol.KindRich, "Developer Operations Dashboard Agent"},
		{"no key chat", "", protocol.KindChat, "only plain markdown"},
		{"no key rich", "", protocol.KindRich, "Developer Operations Dashboard Agent"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.Resolve(tt.key, tt.kind)
			if !strings.Contains(got, tt.contains) {
				t.Errorf("Resolve(%q, %s) missing %q:\n%s", tt.key, tt.kind, tt.contains, got)
			}
		})
	}

	if strings.Contains(r.Resolve("", protocol.KindChat), "Save & Submit") {
		t.Error("generic chat prompt should not include the interactive elements note")
	}
}

func TestSystem_AppendsControlProtocol(t *testing.T) {
	r := Default()
	panels := []dashboard.Info{
		{ID: "p1", Kind: protocol.KindRich, Title: "Pull Requests"},
		{ID: "p2", Kind: protocol.KindChat, Title: "Ops Chat"},
	}

	got := r.System("pull-requests", protocol.KindRich, panels)

	for _, want := range []string{
		"Pull Requests dashboard panel",
		"DASHBOARD CONTROL PROTOCOL",
		`  - id="p1" type="rich" title="Pull Requests"`,
		`  - id="p2" type="chat" title="Ops Chat"`,
		protocol.CommandsStart,
		protocol.CommandsEnd,
		`"type": "set_type"`,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("system prompt missing %q", want)
		}
	}
	if strings.Index(got, "DASHBOARD CONTROL PROTOCOL") < strings.Index(got, "Pull Requests dashboard panel") {
		t.Error("control protocol must follow the instruction set")
	}
}

func TestControlProtocol_NoPanels(t *testing.T) {
	got := Default().ControlProtocol(nil)
	if !strings.Contains(got, "(no panels currently)") {
		t.Errorf("missing empty-panels marker:\n%s", got)
	}
	if strings.Contains(got, "{{") {
		t.Errorf("unexpanded placeholder:\n%s", got)
	}
}

func TestUserPromptAndMaxTokens(t *testing.T) {
	r := Default()

	tests := []struct {
		key, prompt string
		kind        protocol.Kind
		want        string
	}{
		{"issues", "", protocol.KindRich, DefaultNamedPrompt},
		{"", "", protocol.KindChat, DefaultChatPrompt},
		{"", "   ", protocol.KindRich, DefaultRichPrompt},
		{"issues", "only critical", protocol.KindRich, "only critical"},
	}
	for _, tt := range tests {
		if got := r.UserPrompt(tt.key, tt.kind, tt.prompt); got != tt.want {
			t.Errorf("UserPrompt(%q, %s, %q) = %q, want %q", tt.key, tt.kind, tt.prompt, got, tt.want)
		}
	}

	if r.MaxTokens("issues") != NamedMaxTokens {
		t.Error("named panel should use the named budget")
	}
	if r.MaxTokens("") != AdHocMaxTokens {
		t.Error("ad-hoc panel should use the ad-hoc budget")
	}
}
