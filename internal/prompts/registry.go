// Package prompts holds the instruction sets sent to the generation model.
//
// Named panels get a dedicated instruction set; everything else falls back
// to a generic set chosen by panel kind. Every resolved set is followed by
// the dashboard control protocol, which teaches the model the sentinel
// tokens and command shapes it may emit.
package prompts

import (
	"embed"
	"fmt"
	"strings"

	"github.com/timvw/dashgen/internal/dashboard"
	"github.com/timvw/dashgen/internal/protocol"
)

//go:embed prompts/*.md
var files embed.FS

// Token budgets. Named panels are compact; ad-hoc panels get more room.
const (
	NamedMaxTokens = 2000
	AdHocMaxTokens = 4000
)

// Implicit user prompts used when a fetch carries no prompt text.
const (
	DefaultNamedPrompt = "Generate this panel with realistic sample data."
	DefaultChatPrompt  = "Introduce yourself and explain how you can help manage this dashboard."
	DefaultRichPrompt  = "Generate a developer dashboard panel."
)

// Named is a registered panel with its dedicated instruction set.
type Named struct {
	Key          string `json:"key"`
	Title        string `json:"title"`
	Instructions string `json:"-"`
}

// builtin lists the named panels in their default dashboard order.
var builtin = []struct{ key, title string }{
	{"pull-requests", "Pull Requests"},
	{"cicd-pipeline", "CI/CD Pipeline"},
	{"issues", "Issues & Bugs"},
	{"system-logs", "System Logs"},
	{"team-activity", "Team Activity"},
	{"deployments", "Deployments"},
}

// Registry resolves instruction sets by panel key and kind.
type Registry struct {
	named    map[string]Named
	order    []string
	rich     string
	chat     string
	protocol string
}

// Default returns the registry of built-in panels.
func Default() *Registry {
	interactive := strings.TrimSpace(mustRead("interactive.md"))
	expand := strings.NewReplacer("{{interactive}}", interactive)

	r := &Registry{
		named:    make(map[string]Named, len(builtin)),
		rich:     strings.TrimSpace(expand.Replace(mustRead("generic-rich.md"))),
		chat:     strings.TrimSpace(mustRead("generic-chat.md")),
		protocol: strings.TrimSpace(mustRead("control-protocol.md")),
	}
	for _, b := range builtin {
		r.named[b.key] = Named{
			Key:          b.key,
			Title:        b.title,
			Instructions: strings.TrimSpace(expand.Replace(mustRead(b.key + ".md"))),
		}
		r.order = append(r.order, b.key)
	}
	return r
}

func mustRead(name string) string {
	data, err := files.ReadFile("prompts/" + name)
	if err != nil {
		panic(fmt.Sprintf("prompts: missing embedded file %s: %v", name, err))
	}
	return string(data)
}

// Lookup returns the named panel registered under key.
func (r *Registry) Lookup(key string) (Named, bool) {
	n, ok := r.named[key]
	return n, ok
}

// Named returns the registered panels in default order.
func (r *Registry) Named() []Named {
	out := make([]Named, 0, len(r.order))
	for _, k := range r.order {
		out = append(out, r.named[k])
	}
	return out
}

// Resolve returns the base instruction set for a panel.
func (r *Registry) Resolve(key string, kind protocol.Kind) string {
	if n, ok := r.named[key]; ok {
		return n.Instructions
	}
	if kind == protocol.KindChat {
		return r.chat
	}
	return r.rich
}

// System returns the full system prompt: the resolved instruction set
// followed by the control protocol for the given panel snapshot.
func (r *Registry) System(key string, kind protocol.Kind, panels []dashboard.Info) string {
	return r.Resolve(key, kind) + "\n\n" + r.ControlProtocol(panels)
}

// ControlProtocol renders the protocol description for a panel snapshot.
func (r *Registry) ControlProtocol(panels []dashboard.Info) string {
	var b strings.Builder
	if len(panels) == 0 {
		b.WriteString("  (no panels currently)")
	}
	for i, p := range panels {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "  - id=%q type=%q title=%q", p.ID, string(p.Kind), p.Title)
	}

	return strings.NewReplacer(
		"{{panels}}", b.String(),
		"{{start}}", protocol.CommandsStart,
		"{{end}}", protocol.CommandsEnd,
	).Replace(r.protocol)
}

// UserPrompt returns prompt, or the implicit default when it is blank.
func (r *Registry) UserPrompt(key string, kind protocol.Kind, prompt string) string {
	if strings.TrimSpace(prompt) != "" {
		return prompt
	}
	switch {
	case key != "":
		return DefaultNamedPrompt
	case kind == protocol.KindChat:
		return DefaultChatPrompt
	default:
		return DefaultRichPrompt
	}
}

// MaxTokens returns the completion budget for a panel.
func (r *Registry) MaxTokens(key string) int64 {
	if key != "" {
		return NamedMaxTokens
	}
	return AdHocMaxTokens
}
