package cmd

import (
	"github.com/timvw/dashgen/internal/config"
	"github.com/timvw/dashgen/internal/dashboard"
	"github.com/timvw/dashgen/internal/prompts"
	"github.com/timvw/dashgen/internal/protocol"
)

// initialLayout builds the starting panels: the configured layout, or
// every named panel in registry order. Panels with a key use it as id.
func initialLayout(panels []config.PanelConfig, reg *prompts.Registry) []dashboard.Panel {
	if len(panels) == 0 {
		var out []dashboard.Panel
		for _, n := range reg.Named() {
			out = append(out, dashboard.Panel{
				ID:    n.Key,
				Key:   n.Key,
				Kind:  protocol.KindRich,
				Title: n.Title,
			})
		}
		return out
	}

	out := make([]dashboard.Panel, 0, len(panels))
	for _, pc := range panels {
		kind := protocol.KindRich
		if k, ok := protocol.ParseKind(pc.Kind); ok {
			kind = k
		}

		title := pc.Title
		if named, ok := reg.Lookup(pc.Key); ok && title == "" {
			title = named.Title
		}
		if title == "" {
			title = "New Panel"
		}

		p := dashboard.New(kind, title)
		if pc.Key != "" {
			p.ID = pc.Key
			p.Key = pc.Key
		}
		p.Prompt = pc.Prompt
		if pc.HasInput != nil {
			p.InputVisible = *pc.HasInput
		}
		out = append(out, p)
	}
	return out
}
