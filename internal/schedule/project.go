// Package schedule projects scenes onto shoot days and summarizes
// production progress. Everything here is read-only over its input.
package schedule

import (
	"slices"

	"github.com/mesh-intelligence/slate/internal/kanban"
	"github.com/mesh-intelligence/slate/pkg/types"
)

// Day is the set of scenes shot on one date.
type Day struct {
	Date   string        `json:"date"`
	Scenes []types.Scene `json:"scenes"`
}

// Project groups scenes that have a shoot date by that date. Days are
// ordered by date with unparsable dates last; scenes within a day are
// ordered by scene number.
func Project(scenes []types.Scene) []Day {
	groups := make(map[string][]types.Scene)
	for _, s := range scenes {
		if s.ShootDate == "" {
			continue
		}
		groups[s.ShootDate] = append(groups[s.ShootDate], s)
	}

	days := make([]Day, 0, len(groups))
	for date, list := range groups {
		slices.SortStableFunc(list, func(a, b types.Scene) int {
			return kanban.LeadingInt(a.SceneNumber) - kanban.LeadingInt(b.SceneNumber)
		})
		days = append(days, Day{Date: date, Scenes: list})
	}
	slices.SortFunc(days, func(a, b Day) int { return types.CompareShootDates(a.Date, b.Date) })
	return days
}
