// Package protocol implements the dashboard command protocol: the trailing
// block of JSON commands a generation may append to its display content.
//
// The package is pure. It splits text and decodes JSON; it never touches
// panel state and never fails the caller. Interpreting commands is the job
// of the dashboard package.
package protocol

import (
	"encoding/json"
	"strings"
)

// Kind is the rendering kind of a panel.
type Kind string

const (
	// KindRich panels render generated markup.
	KindRich Kind = "rich"
	// KindChat panels render plain text / markdown through a local formatter.
	KindChat Kind = "chat"
)

// ParseKind normalizes a wire value into a Kind. "c1" is accepted as an
// alias of rich. The second return value is false for unknown values.
func ParseKind(s string) (Kind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "rich", "c1":
		return KindRich, true
	case "chat":
		return KindChat, true
	default:
		return "", false
	}
}

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	return k == KindRich || k == KindChat
}

// Command type tags.
const (
	TypeReorder     = "reorder"
	TypeUpdate      = "update"
	TypeAddPanel    = "add_panel"
	TypeRemovePanel = "remove_panel"
	TypeSetInput    = "set_input"
	TypeSetType     = "set_type"
	TypeSetTitle    = "set_title"
)

// Command is one decoded dashboard command. Only the fields relevant to
// Type are meaningful; pointer fields distinguish "absent" from zero.
type Command struct {
	Type string `json:"type"`

	// ID targets an existing panel (update, remove_panel, set_input,
	// set_type, set_title).
	ID string `json:"id,omitempty"`

	// Order is the reorder list.
	Order []string `json:"order,omitempty"`

	Content  *string   `json:"content,omitempty"`
	Title    *string   `json:"title,omitempty"`
	HasInput *bool     `json:"hasInput,omitempty"`
	Panel    *NewPanel `json:"panel,omitempty"`

	// PanelType is the target kind of set_type, kept as the raw wire string
	// so unknown kinds survive decoding and are rejected by the applier.
	PanelType string `json:"panelType,omitempty"`
}

// NewPanel is the payload of add_panel.
type NewPanel struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	HasInput *bool  `json:"hasInput,omitempty"`
}

// UnmarshalJSON decodes a command leniently. Every field is decoded on its
// own, so a mistyped field is left zero instead of failing the whole list.
// Non-object values decode into a Command with an empty Type.
func (c *Command) UnmarshalJSON(data []byte) error {
	*c = Command{}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil
	}

	decodeField(fields, "type", &c.Type)
	decodeField(fields, "id", &c.ID)
	decodeField(fields, "order", &c.Order)
	decodeField(fields, "panelType", &c.PanelType)

	var s string
	if decodeField(fields, "content", &s) {
		c.Content = &s
	}
	var title string
	if decodeField(fields, "title", &title) {
		c.Title = &title
	}
	var b bool
	if decodeField(fields, "hasInput", &b) {
		c.HasInput = &b
	}

	if raw, ok := fields["panel"]; ok {
		var p map[string]json.RawMessage
		if json.Unmarshal(raw, &p) == nil && p != nil {
			np := &NewPanel{}
			decodeField(p, "type", &np.Type)
			decodeField(p, "title", &np.Title)
			var hi bool
			if decodeField(p, "hasInput", &hi) {
				np.HasInput = &hi
			}
			c.Panel = np
		}
	}
	return nil
}

// decodeField decodes fields[key] into dst. It reports false when the key
// is missing, null, or has the wrong JSON type.
func decodeField(fields map[string]json.RawMessage, key string, dst any) bool {
	raw, ok := fields[key]
	if !ok || string(raw) == "null" {
		return false
	}
	return json.Unmarshal(raw, dst) == nil
}

// Convenience constructors, mostly for tests and the send command.

func Reorder(ids ...string) Command {
	return Command{Type: TypeReorder, Order: ids}
}

func Update(id, content string) Command {
	return Command{Type: TypeUpdate, ID: id, Content: &content}
}

func UpdateWithTitle(id, content, title string) Command {
	return Command{Type: TypeUpdate, ID: id, Content: &content, Title: &title}
}

func AddPanel(kind Kind, title string, hasInput *bool) Command {
	return Command{Type: TypeAddPanel, Panel: &NewPanel{Type: string(kind), Title: title, HasInput: hasInput}}
}

func RemovePanel(id string) Command {
	return Command{Type: TypeRemovePanel, ID: id}
}

func SetInput(id string, visible bool) Command {
	return Command{Type: TypeSetInput, ID: id, HasInput: &visible}
}

func SetType(id string, kind Kind) Command {
	return Command{Type: TypeSetType, ID: id, PanelType: string(kind)}
}

func SetTitle(id, title string) Command {
	return Command{Type: TypeSetTitle, ID: id, Title: &title}
}
