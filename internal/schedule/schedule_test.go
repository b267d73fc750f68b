package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/slate/internal/kanban"
	"github.com/mesh-intelligence/slate/pkg/types"
)

func sceneIDs(scenes []types.Scene) []string {
	out := make([]string, len(scenes))
	for i, s := range scenes {
		out[i] = s.ID
	}
	return out
}

func TestProjectGroupsByDate(t *testing.T) {
	scenes := []types.Scene{
		{ID: "a", SceneNumber: "3", ShootDate: "2024-05-02"},
		{ID: "b", SceneNumber: "10", ShootDate: "2024-05-01"},
		{ID: "c", SceneNumber: "2", ShootDate: "2024-05-01"},
		{ID: "d", SceneNumber: "1"},
	}
	days := Project(scenes)

	require.Len(t, days, 2)
	assert.Equal(t, "2024-05-01", days[0].Date)
	assert.Equal(t, []string{"c", "b"}, sceneIDs(days[0].Scenes))
	assert.Equal(t, "2024-05-02", days[1].Date)
	assert.Equal(t, []string{"a"}, sceneIDs(days[1].Scenes))

	assert.Equal(t, "a", scenes[0].ID, "input must not be reordered")
}

func TestProjectUnparsableDatesLast(t *testing.T) {
	days := Project([]types.Scene{
		{ID: "x", ShootDate: "someday"},
		{ID: "y", ShootDate: "2030-01-01"},
		{ID: "z", ShootDate: "2020-12-31"},
	})
	var dates []string
	for _, d := range days {
		dates = append(dates, d.Date)
	}
	assert.Equal(t, []string{"2020-12-31", "2030-01-01", "someday"}, dates)
}

func TestProjectEmpty(t *testing.T) {
	days := Project([]types.Scene{{ID: "a"}})
	assert.NotNil(t, days)
	assert.Empty(t, days)
}

func TestProjectStableWithinDay(t *testing.T) {
	days := Project([]types.Scene{
		{ID: "first", SceneNumber: "4", ShootDate: "2024-01-01"},
		{ID: "second", SceneNumber: "4A", ShootDate: "2024-01-01"},
	})
	require.Len(t, days, 1)
	assert.Equal(t, []string{"first", "second"}, sceneIDs(days[0].Scenes))
}

func TestSummarize(t *testing.T) {
	scenes := []types.Scene{
		{ID: "shot", Status: types.StatusShot},
		{ID: "edit", Status: types.StatusEdit},
		{ID: "flag", Status: types.StatusUnscheduled, Completed: true},
		{ID: "later", Status: types.StatusScheduled, ShootDate: "2024-06-01"},
		{ID: "sooner", Status: types.StatusScheduled, ShootDate: "2024-05-01"},
		{ID: "undated", Status: types.StatusScheduled},
		{ID: "wait", Status: types.StatusUnscheduled},
	}
	st := Summarize(scenes)

	assert.Equal(t, 7, st.Total)
	assert.Equal(t, 3, st.Completed)
	assert.Equal(t, 3, st.InProgress)
	assert.Equal(t, 1, st.Waiting)
	assert.Equal(t, 43, st.Progress)
	assert.Equal(t, []string{"sooner", "later"}, sceneIDs(st.Upcoming))
}

func TestSummarizeEmpty(t *testing.T) {
	st := Summarize(nil)
	assert.Equal(t, 0, st.Total)
	assert.Equal(t, 0, st.Progress)
	assert.NotNil(t, st.Upcoming)
}

func TestProjectMatchesBoardDateOrder(t *testing.T) {
	scenes := []types.Scene{
		{ID: "bad", SceneNumber: "1", ShootDate: "05/01/2024"},
		{ID: "may", SceneNumber: "2", ShootDate: "2024-05-01"},
		{ID: "jan", SceneNumber: "3", ShootDate: "2024-01-15"},
	}
	var days []string
	for _, d := range Project(scenes) {
		days = append(days, d.Scenes[0].ID)
	}
	assert.Equal(t, []string{"jan", "may", "bad"}, days)
	assert.Equal(t, days, sceneIDs(kanban.SortScenes(scenes, kanban.SortShootDateAsc)))
}
