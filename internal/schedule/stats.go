package schedule

import (
	"math"
	"slices"

	"github.com/mesh-intelligence/slate/pkg/types"
)

// Stats summarizes where a project's scenes are in production.
type Stats struct {
	Total      int           `json:"total"`
	Completed  int           `json:"completed"`
	InProgress int           `json:"in_progress"`
	Waiting    int           `json:"waiting"`
	Progress   int           `json:"progress"`
	Upcoming   []types.Scene `json:"upcoming"`
}

// Summarize counts scenes by stage. A scene is complete when it is shot,
// in edit, or flagged completed; in progress when scheduled; waiting
// otherwise. Upcoming lists scheduled scenes with a shoot date, soonest
// first.
func Summarize(scenes []types.Scene) Stats {
	st := Stats{Total: len(scenes), Upcoming: []types.Scene{}}
	for _, s := range scenes {
		switch {
		case s.Completed || s.Status == types.StatusShot || s.Status == types.StatusEdit:
			st.Completed++
		case s.Status == types.StatusScheduled:
			st.InProgress++
			if s.ShootDate != "" {
				st.Upcoming = append(st.Upcoming, s)
			}
		default:
			st.Waiting++
		}
	}
	if st.Total > 0 {
		st.Progress = int(math.Round(float64(st.Completed) / float64(st.Total) * 100))
	}
	slices.SortStableFunc(st.Upcoming, func(a, b types.Scene) int {
		return types.CompareShootDates(a.ShootDate, b.ShootDate)
	})
	return st
}
