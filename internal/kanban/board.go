package kanban

import (
	"github.com/mesh-intelligence/slate/pkg/types"
)

// Column is one lane of the board.
type Column struct {
	Name   string        `json:"name"`
	Scenes []types.Scene `json:"scenes"`
}

// Board is a rendered view of a project's scenes. Scenes whose status
// matches no column are collected in Unassigned so they stay reachable.
type Board struct {
	Columns    []Column      `json:"columns"`
	Unassigned []types.Scene `json:"unassigned"`
	SortKey    SortKey       `json:"sort_key"`
	Filter     string        `json:"filter,omitempty"`
}

// Total counts the scenes visible on the board.
func (b Board) Total() int {
	n := len(b.Unassigned)
	for _, c := range b.Columns {
		n += len(c.Scenes)
	}
	return n
}

// Columnize filters scenes by character, groups them by status into
// columns (in column order) and sorts every lane by key. An empty status
// counts as unscheduled.
func Columnize(scenes []types.Scene, columns []string, key SortKey, filter string) Board {
	visible := FilterByCharacter(scenes, filter)

	lanes := make(map[string][]types.Scene, len(columns))
	for _, c := range columns {
		lanes[c] = []types.Scene{}
	}
	unassigned := []types.Scene{}
	for _, s := range visible {
		status := s.EffectiveStatus()
		if _, ok := lanes[status]; ok {
			lanes[status] = append(lanes[status], s)
			continue
		}
		unassigned = append(unassigned, s)
	}

	b := Board{
		Columns:    make([]Column, 0, len(columns)),
		Unassigned: SortScenes(unassigned, key),
		SortKey:    key,
		Filter:     filter,
	}
	for _, c := range columns {
		b.Columns = append(b.Columns, Column{Name: c, Scenes: SortScenes(lanes[c], key)})
	}
	return b
}
