package kanban

import (
	"sort"

	"github.com/mesh-intelligence/slate/pkg/types"
)

// FilterByCharacter keeps scenes whose character list or analysis cast
// contains name exactly. An empty name keeps everything.
func FilterByCharacter(scenes []types.Scene, name string) []types.Scene {
	if name == "" {
		return scenes
	}
	out := make([]types.Scene, 0, len(scenes))
	for _, s := range scenes {
		if s.HasCharacter(name) {
			out = append(out, s)
		}
	}
	return out
}

// Characters returns the sorted, de-duplicated names appearing in any
// scene's characters or analysis cast.
func Characters(scenes []types.Scene) []string {
	seen := make(map[string]bool)
	for _, s := range scenes {
		for _, c := range s.Characters {
			seen[c] = true
		}
		if s.Analysis != nil {
			for _, c := range s.Analysis.Cast {
				seen[c] = true
			}
		}
	}
	delete(seen, "")
	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func sortFields(defs []types.FieldDefinition) {
	sort.SliceStable(defs, func(i, j int) bool {
		if !defs[i].CreatedAt.Equal(defs[j].CreatedAt) {
			return defs[i].CreatedAt.Before(defs[j].CreatedAt)
		}
		return defs[i].ID < defs[j].ID
	})
}
