package kanban

import (
	"fmt"
	"slices"
	"strings"

	"github.com/mesh-intelligence/slate/pkg/types"
)

// SortKey selects the order of scenes inside a column.
type SortKey string

const (
	SortSceneNumber   SortKey = "scene_number"
	SortComplexity    SortKey = "complexity"
	SortCastSize      SortKey = "cast_size"
	SortShootDateAsc  SortKey = "shoot_date_asc"
	SortShootDateDesc SortKey = "shoot_date_desc"
)

// SortKeys lists every supported sort key.
func SortKeys() []SortKey {
	return []SortKey{SortSceneNumber, SortComplexity, SortCastSize, SortShootDateAsc, SortShootDateDesc}
}

// ParseSortKey validates s. An empty string selects SortSceneNumber.
func ParseSortKey(s string) (SortKey, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return SortSceneNumber, nil
	}
	for _, k := range SortKeys() {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", types.ErrInvalidSortKey, s)
}

// SortScenes returns a sorted copy of scenes. Completed scenes always sort
// after open ones; within each group the key decides and ties keep input
// order. Unknown keys leave the grouping as the only criterion.
func SortScenes(scenes []types.Scene, key SortKey) []types.Scene {
	out := slices.Clone(scenes)
	slices.SortStableFunc(out, func(a, b types.Scene) int {
		if a.Completed != b.Completed {
			if a.Completed {
				return 1
			}
			return -1
		}
		return compareBy(key, a, b)
	})
	return out
}

func compareBy(key SortKey, a, b types.Scene) int {
	switch key {
	case SortSceneNumber:
		return LeadingInt(a.SceneNumber) - LeadingInt(b.SceneNumber)
	case SortComplexity:
		return complexityRank(a) - complexityRank(b)
	case SortCastSize:
		return b.CastSize() - a.CastSize()
	case SortShootDateAsc:
		return compareDates(a.ShootDate, b.ShootDate, false)
	case SortShootDateDesc:
		return compareDates(a.ShootDate, b.ShootDate, true)
	default:
		return 0
	}
}

func complexityRank(s types.Scene) int {
	if s.Analysis == nil {
		return 0
	}
	return s.Analysis.Complexity.Rank()
}

// compareDates orders dated scenes before undated ones in either
// direction.
func compareDates(a, b string, desc bool) int {
	c := types.CompareShootDates(a, b)
	if desc {
		_, okA := types.ParseShootDate(a)
		_, okB := types.ParseShootDate(b)
		if okA && okB {
			return -c
		}
	}
	return c
}

// LeadingInt parses the integer prefix of s after leading whitespace, so
// "12" is 12, "2A" is 2 and "A2" is 0. Scene numbers are display strings
// and often carry suffixes.
func LeadingInt(s string) int {
	s = strings.TrimLeft(s, " \t\r\n")
	neg := false
	if s != "" && (s[0] == '-' || s[0] == '+') {
		neg = s[0] == '-'
		s = s[1:]
	}
	n := 0
	for i := 0; i < len(s) && s[i] >= '0' && s[i] <= '9'; i++ {
		n = n*10 + int(s[i]-'0')
		if n > 1<<31 {
			break
		}
	}
	if neg {
		return -n
	}
	return n
}
