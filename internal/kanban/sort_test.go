package kanban

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/slate/pkg/types"
)

func ids(scenes []types.Scene) []string {
	out := make([]string, len(scenes))
	for i, s := range scenes {
		out[i] = s.ID
	}
	return out
}

func TestSortScenesSceneNumber(t *testing.T) {
	scenes := []types.Scene{
		{ID: "a", SceneNumber: "10"},
		{ID: "b", SceneNumber: "2A"},
		{ID: "c", SceneNumber: "x"},
		{ID: "d", SceneNumber: "2"},
		{ID: "e", SceneNumber: "1", Completed: true},
	}
	got := SortScenes(scenes, SortSceneNumber)
	assert.Equal(t, []string{"c", "b", "d", "a", "e"}, ids(got))
	assert.Equal(t, "a", scenes[0].ID, "input must not be reordered")
}

func TestSortScenesCompletedLast(t *testing.T) {
	scenes := []types.Scene{
		{ID: "done", SceneNumber: "1", Completed: true},
		{ID: "open", SceneNumber: "5"},
	}
	for _, key := range SortKeys() {
		t.Run(string(key), func(t *testing.T) {
			got := SortScenes(scenes, key)
			assert.Equal(t, []string{"open", "done"}, ids(got))
		})
	}
}

func TestSortScenesComplexity(t *testing.T) {
	scenes := []types.Scene{
		{ID: "high", Analysis: &types.Analysis{Complexity: types.ComplexityHigh}},
		{ID: "none"},
		{ID: "low", Analysis: &types.Analysis{Complexity: types.ComplexityLow}},
		{ID: "med", Analysis: &types.Analysis{Complexity: types.ComplexityMedium}},
	}
	got := SortScenes(scenes, SortComplexity)
	assert.Equal(t, []string{"none", "low", "med", "high"}, ids(got))
}

func TestSortScenesCastSize(t *testing.T) {
	scenes := []types.Scene{
		{ID: "one", Characters: []string{"A"}},
		{ID: "three", Analysis: &types.Analysis{Cast: []string{"A", "B", "C"}}},
		{ID: "two", Characters: []string{"A", "B"}, Analysis: &types.Analysis{Cast: []string{"A"}}},
		{ID: "zero"},
	}
	got := SortScenes(scenes, SortCastSize)
	assert.Equal(t, []string{"three", "two", "one", "zero"}, ids(got))
}

func TestSortScenesShootDate(t *testing.T) {
	scenes := []types.Scene{
		{ID: "none"},
		{ID: "may", ShootDate: "2024-05-01"},
		{ID: "jan", ShootDate: "2024-01-15"},
	}
	assert.Equal(t, []string{"jan", "may", "none"}, ids(SortScenes(scenes, SortShootDateAsc)))
	assert.Equal(t, []string{"may", "jan", "none"}, ids(SortScenes(scenes, SortShootDateDesc)))

	// Dates that do not parse sort after every dated scene in both directions.
	withBad := append(scenes, types.Scene{ID: "bad", ShootDate: "05/01/2024"})
	assert.Equal(t, []string{"jan", "may", "none", "bad"}, ids(SortScenes(withBad, SortShootDateAsc)))
	assert.Equal(t, []string{"may", "jan", "none", "bad"}, ids(SortScenes(withBad, SortShootDateDesc)))
}

func TestSortScenesStable(t *testing.T) {
	scenes := []types.Scene{
		{ID: "first", SceneNumber: "3"},
		{ID: "second", SceneNumber: "3"},
		{ID: "third", SceneNumber: "3"},
	}
	assert.Equal(t, []string{"first", "second", "third"}, ids(SortScenes(scenes, SortSceneNumber)))
}

func TestParseSortKey(t *testing.T) {
	k, err := ParseSortKey("")
	require.NoError(t, err)
	assert.Equal(t, SortSceneNumber, k)

	k, err = ParseSortKey("cast_size")
	require.NoError(t, err)
	assert.Equal(t, SortCastSize, k)

	_, err = ParseSortKey("alphabetical")
	assert.ErrorIs(t, err, types.ErrInvalidSortKey)
}

func TestLeadingInt(t *testing.T) {
	tests := map[string]int{
		"12":   12,
		"2A":   2,
		" 7":   7,
		"A2":   0,
		"":     0,
		"-3":   -3,
		"4.5":  4,
		"007b": 7,
	}
	for in, want := range tests {
		assert.Equal(t, want, LeadingInt(in), "LeadingInt(%q)", in)
	}
}
