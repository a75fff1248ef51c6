package dashboard

import (
	"sync"

	"github.com/timvw/dashgen/internal/protocol"
)

// Store is the ordered panel collection. Slice order is render order.
//
// Every mutation builds a new slice and swaps it in, so a slice returned by
// Panels is never modified afterwards. Operations that name an unknown id
// are no-ops and return false.
type Store struct {
	mu     sync.RWMutex
	panels []Panel
}

// NewStore returns a store seeded with panels. Panels with duplicate ids
// after the first occurrence are dropped.
func NewStore(panels ...Panel) *Store {
	seen := make(map[string]bool, len(panels))
	seeded := make([]Panel, 0, len(panels))
	for _, p := range panels {
		if p.ID == "" || seen[p.ID] {
			continue
		}
		seen[p.ID] = true
		seeded = append(seeded, p)
	}
	return &Store{panels: seeded}
}

// Panels returns the current collection. Callers must not modify it.
func (s *Store) Panels() []Panel {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.panels
}

// Len returns the number of panels.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.panels)
}

// Get returns a copy of the panel with the given id.
func (s *Store) Get(id string) (Panel, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := indexOf(s.panels, id); i >= 0 {
		return s.panels[i], true
	}
	return Panel{}, false
}

// Snapshot returns {id, kind, title} for every panel in render order.
func (s *Store) Snapshot() []Info {
	s.mu.RLock()
	defer s.mu.RUnlock()
	infos := make([]Info, len(s.panels))
	for i, p := range s.panels {
		infos[i] = p.Info()
	}
	return infos
}

// Add appends p. It returns false if p has no id or the id is taken.
func (s *Store) Add(p Panel) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == "" || indexOf(s.panels, p.ID) >= 0 {
		return false
	}
	next := make([]Panel, len(s.panels), len(s.panels)+1)
	copy(next, s.panels)
	s.panels = append(next, p)
	return true
}

// Remove deletes the panel with the given id.
func (s *Store) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := indexOf(s.panels, id)
	if i < 0 {
		return false
	}
	next := make([]Panel, 0, len(s.panels)-1)
	next = append(next, s.panels[:i]...)
	next = append(next, s.panels[i+1:]...)
	s.panels = next
	return true
}

// Reorder moves the named panels to the front in the given order. Unknown
// and repeated ids are dropped; panels not named keep their relative order
// after the named ones.
func (s *Store) Reorder(ids []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	byID := make(map[string]Panel, len(s.panels))
	for _, p := range s.panels {
		byID[p.ID] = p
	}

	placed := make(map[string]bool, len(ids))
	next := make([]Panel, 0, len(s.panels))
	for _, id := range ids {
		p, ok := byID[id]
		if !ok || placed[id] {
			continue
		}
		placed[id] = true
		next = append(next, p)
	}
	for _, p := range s.panels {
		if !placed[p.ID] {
			next = append(next, p)
		}
	}
	s.panels = next
}

// Move shifts the panel with the given id by delta positions, clamped to
// the collection bounds.
func (s *Store) Move(id string, delta int) bool {
	s.mu.RLock()
	i := indexOf(s.panels, id)
	n := len(s.panels)
	order := make([]string, n)
	for k, p := range s.panels {
		order[k] = p.ID
	}
	s.mu.RUnlock()
	if i < 0 {
		return false
	}

	j := i + delta
	if j < 0 {
		j = 0
	}
	if j >= n {
		j = n - 1
	}
	if i == j {
		return true
	}
	order = append(order[:i], order[i+1:]...)
	order = append(order[:j], append([]string{id}, order[j:]...)...)
	s.Reorder(order)
	return true
}

// Update replaces content, and the title when title is non-nil. It clears
// the loading flag and any error.
func (s *Store) Update(id, content string, title *string) bool {
	return s.mutate(id, func(p *Panel) {
		p.Content = content
		if title != nil {
			p.Title = *title
		}
		p.Loading = false
		p.Error = ""
	})
}

// Retitle renames a panel.
func (s *Store) Retitle(id, title string) bool {
	return s.mutate(id, func(p *Panel) { p.Title = title })
}

// SetInputVisible shows or hides the prompt input.
func (s *Store) SetInputVisible(id string, visible bool) bool {
	return s.mutate(id, func(p *Panel) { p.InputVisible = visible })
}

// SetKind switches the rendering kind and clears content, which is only
// valid for the kind it was generated for.
func (s *Store) SetKind(id string, kind protocol.Kind) bool {
	return s.mutate(id, func(p *Panel) {
		p.Kind = kind
		p.Content = ""
	})
}

// SetPrompt stores user text awaiting submission.
func (s *Store) SetPrompt(id, prompt string) bool {
	return s.mutate(id, func(p *Panel) { p.Prompt = prompt })
}

// MarkLoading starts a fetch: loading set, error cleared, content kept.
func (s *Store) MarkLoading(id string) bool {
	return s.mutate(id, func(p *Panel) {
		p.Loading = true
		p.Error = ""
	})
}

// Resolve completes a fetch successfully.
func (s *Store) Resolve(id, content string) bool {
	return s.mutate(id, func(p *Panel) {
		p.Content = content
		p.Error = ""
		p.Loading = false
	})
}

// Fail completes a fetch with an error. Content is left untouched.
func (s *Store) Fail(id, message string) bool {
	return s.mutate(id, func(p *Panel) {
		p.Error = message
		p.Loading = false
	})
}

// mutate replaces the panel with the given id by a modified copy.
func (s *Store) mutate(id string, fn func(p *Panel)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := indexOf(s.panels, id)
	if i < 0 {
		return false
	}
	next := make([]Panel, len(s.panels))
	copy(next, s.panels)
	fn(&next[i])
	s.panels = next
	return true
}

func indexOf(panels []Panel, id string) int {
	for i, p := range panels {
		if p.ID == id {
			return i
		}
	}
	return -1
}
