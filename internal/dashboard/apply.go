package dashboard

import (
	"github.com/timvw/dashgen/internal/logger"
	"github.com/timvw/dashgen/internal/protocol"
)

// Result is what happened to a single command.
type Result string

const (
	// ResultApplied means the store changed (or the command was a valid no-change).
	ResultApplied Result = "applied"
	// ResultNoTarget means the command named a panel that does not exist.
	ResultNoTarget Result = "no_target"
	// ResultIgnored means the command type is unknown or its payload unusable.
	ResultIgnored Result = "ignored"
)

// Outcome summarizes one Apply pass.
type Outcome struct {
	// Results has one entry per command, in order.
	Results []CommandResult
	// Added lists the ids of panels created by add_panel.
	Added []string
}

// CommandResult pairs a command type with its result.
type CommandResult struct {
	Type   string
	Result Result
}

// Applied counts commands that were applied.
func (o Outcome) Applied() int {
	n := 0
	for _, r := range o.Results {
		if r.Result == ResultApplied {
			n++
		}
	}
	return n
}

// Merge appends other to o.
func (o Outcome) Merge(other Outcome) Outcome {
	o.Results = append(o.Results, other.Results...)
	o.Added = append(o.Added, other.Added...)
	return o
}

// Apply interprets cmds against s strictly in order; each command sees the
// effects of the ones before it. Unknown types and commands naming missing
// panels change nothing and are only logged.
func Apply(s *Store, cmds []protocol.Command) Outcome {
	var out Outcome
	for _, cmd := range cmds {
		res, added := applyOne(s, cmd)
		if added != "" {
			out.Added = append(out.Added, added)
		}
		if res != ResultApplied {
			logger.Debug("dashboard command not applied", "type", cmd.Type, "id", cmd.ID, "result", string(res))
		}
		out.Results = append(out.Results, CommandResult{Type: cmd.Type, Result: res})
	}
	return out
}

func applyOne(s *Store, cmd protocol.Command) (Result, string) {
	switch cmd.Type {
	case protocol.TypeReorder:
		s.Reorder(cmd.Order)
		return ResultApplied, ""

	case protocol.TypeUpdate:
		content := ""
		if cmd.Content != nil {
			content = *cmd.Content
		}
		return found(s.Update(cmd.ID, content, cmd.Title)), ""

	case protocol.TypeAddPanel:
		if cmd.Panel == nil {
			return ResultIgnored, ""
		}
		kind := protocol.KindRich
		if cmd.Panel.Type != "" {
			k, ok := protocol.ParseKind(cmd.Panel.Type)
			if !ok {
				return ResultIgnored, ""
			}
			kind = k
		}
		p := New(kind, cmd.Panel.Title)
		if cmd.Panel.HasInput != nil {
			p.InputVisible = *cmd.Panel.HasInput
		}
		if !s.Add(p) {
			return ResultIgnored, ""
		}
		return ResultApplied, p.ID

	case protocol.TypeRemovePanel:
		return found(s.Remove(cmd.ID)), ""

	case protocol.TypeSetInput:
		if cmd.HasInput == nil {
			return ResultIgnored, ""
		}
		return found(s.SetInputVisible(cmd.ID, *cmd.HasInput)), ""

	case protocol.TypeSetType:
		kind, ok := protocol.ParseKind(cmd.PanelType)
		if !ok {
			return ResultIgnored, ""
		}
		return found(s.SetKind(cmd.ID, kind)), ""

	case protocol.TypeSetTitle:
		if cmd.Title == nil {
			return ResultIgnored, ""
		}
		return found(s.Retitle(cmd.ID, *cmd.Title)), ""

	default:
		return ResultIgnored, ""
	}
}

func found(ok bool) Result {
	if ok {
		return ResultApplied
	}
	return ResultNoTarget
}
