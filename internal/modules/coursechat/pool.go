package coursechat

import "github.com/google/uuid"

// LessonSuggestion is a candidate lesson. Title and Description are opaque
// generator text; identity is ID.
type LessonSuggestion struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	IsSelected  bool      `json:"is_selected"`
}

// pool is the suggestion working set, keyed by id with insertion order kept
// for stable listing.
type pool struct {
	order []uuid.UUID
	byID  map[uuid.UUID]*LessonSuggestion
}

func newPool() pool {
	return pool{byID: map[uuid.UUID]*LessonSuggestion{}}
}

func (p *pool) replace(items []LessonSuggestion) {
	p.order = p.order[:0]
	p.byID = make(map[uuid.UUID]*LessonSuggestion, len(items))
	p.append(items, false)
}

// append adds items, forcing IsSelected to selected, and returns the ids that
// were added. Items whose id is already present are skipped.
func (p *pool) append(items []LessonSuggestion, selected bool) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(items))
	for _, it := range items {
		if _, dup := p.byID[it.ID]; dup {
			continue
		}
		s := it
		s.IsSelected = selected
		p.byID[s.ID] = &s
		p.order = append(p.order, s.ID)
		ids = append(ids, s.ID)
	}
	return ids
}

func (p *pool) toggle(id uuid.UUID) bool {
	s, ok := p.byID[id]
	if !ok {
		return false
	}
	s.IsSelected = !s.IsSelected
	return true
}

func (p *pool) selectedCount() int {
	n := 0
	for _, id := range p.order {
		if p.byID[id].IsSelected {
			n++
		}
	}
	return n
}

func (p *pool) titles() []string {
	out := make([]string, 0, len(p.order))
	for _, id := range p.order {
		out = append(out, p.byID[id].Title)
	}
	return out
}

func (p *pool) list() []LessonSuggestion {
	out := make([]LessonSuggestion, 0, len(p.order))
	for _, id := range p.order {
		out = append(out, *p.byID[id])
	}
	return out
}

// selected returns the selected suggestions. Ids listed in order come first,
// in that order; the remaining selected ones follow in pool order.
func (p *pool) selected(order []uuid.UUID) []LessonSuggestion {
	out := make([]LessonSuggestion, 0, len(p.order))
	seen := make(map[uuid.UUID]bool, len(order))
	for _, id := range order {
		s, ok := p.byID[id]
		if !ok || !s.IsSelected || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, *s)
	}
	for _, id := range p.order {
		s := p.byID[id]
		if s.IsSelected && !seen[id] {
			out = append(out, *s)
		}
	}
	return out
}
