package view

import "scoreboard/internal/scoreboard/model"

const DefaultPanelSize = 30

// PanelRing keeps the latest panel items. Items with a known run id are
// replaced in place; new ids evict the oldest item once full.
// PanelRing is not safe for concurrent use.
type PanelRing struct {
	capacity int
	items    []model.PanelItem
}

func NewPanelRing(capacity int) *PanelRing {
	if capacity <= 0 {
		capacity = DefaultPanelSize
	}
	return &PanelRing{capacity: capacity, items: make([]model.PanelItem, 0, capacity)}
}

func (r *PanelRing) Push(item model.PanelItem) {
	for i := range r.items {
		if r.items[i].ID == item.ID {
			r.items[i] = item
			return
		}
	}
	if len(r.items) == r.capacity {
		copy(r.items, r.items[1:])
		r.items = r.items[:len(r.items)-1]
	}
	r.items = append(r.items, item)
}

// Items returns the items newest first.
func (r *PanelRing) Items() []model.PanelItem {
	out := make([]model.PanelItem, len(r.items))
	for i, item := range r.items {
		out[len(r.items)-1-i] = item
	}
	return out
}

func (r *PanelRing) Len() int { return len(r.items) }
