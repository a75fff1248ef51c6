// Package dashboard holds the panel collection and the applier that
// interprets protocol commands against it.
package dashboard

import (
	"github.com/google/uuid"

	"github.com/timvw/dashgen/internal/protocol"
)

// Panel is one independently fetched and rendered dashboard cell.
type Panel struct {
	// ID is unique within the live collection and stable for the panel's lifetime.
	ID string `json:"id"`
	// Key selects a named instruction set in the prompt registry.
	// Empty for ad-hoc panels.
	Key string `json:"panelKey,omitempty"`
	// Kind is the rendering kind.
	Kind protocol.Kind `json:"kind"`
	// Title is the display title.
	Title string `json:"title"`
	// Content is the raw generated payload. Empty until the first successful fetch.
	Content string `json:"content"`
	// Loading is true while a fetch is outstanding.
	Loading bool `json:"isLoading"`
	// Error holds the last fetch failure. Empty when the last fetch succeeded.
	Error string `json:"error"`
	// Prompt is user text awaiting submission.
	Prompt string `json:"userPrompt"`
	// InputVisible shows the prompt input. Only meaningful for chat panels.
	InputVisible bool `json:"hasInput"`
}

// Info is the slice of a panel the remote model sees.
type Info struct {
	ID    string        `json:"id"`
	Kind  protocol.Kind `json:"type"`
	Title string        `json:"title"`
}

// Info returns the remote-visible snapshot of p.
func (p Panel) Info() Info {
	return Info{ID: p.ID, Kind: p.Kind, Title: p.Title}
}

// NewID returns a fresh panel id.
func NewID() string {
	return "panel-" + uuid.NewString()
}

// New returns an empty panel of the given kind with a fresh id.
func New(kind protocol.Kind, title string) Panel {
	return Panel{
		ID:           NewID(),
		Kind:         kind,
		Title:        title,
		InputVisible: kind == protocol.KindChat,
	}
}
