package kanban

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/slate/pkg/types"
)

const project = "film"

func startEngine(t *testing.T, store *fakeStore, opts ...Option) *Engine {
	t.Helper()
	e := New(project, store, opts...)
	require.NoError(t, e.Start(context.Background()))
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func TestEngineStartLoadsSnapshot(t *testing.T) {
	store := newFakeStore(
		types.Scene{ID: "s1", SceneNumber: "1", Status: types.StatusUnscheduled},
		types.Scene{ID: "s2", SceneNumber: "2", Status: types.StatusShot},
	)
	e := startEngine(t, store)

	assert.Len(t, e.Scenes(), 2)
	assert.Equal(t, types.DefaultColumns, e.Columns())
	b := e.Board()
	assert.Equal(t, []string{"s1"}, ids(b.Columns[0].Scenes))
	assert.Equal(t, []string{"s2"}, ids(b.Columns[2].Scenes))
}

func TestEngineStartRequiresProject(t *testing.T) {
	e := New("  ", newFakeStore())
	assert.ErrorIs(t, e.Start(context.Background()), types.ErrInvalidProject)
}

func TestEngineDragEnd(t *testing.T) {
	tests := []struct {
		name       string
		target     DropTarget
		wantIssued bool
		wantStatus string
	}{
		{name: "live column", target: OnColumn(types.StatusShot), wantIssued: true, wantStatus: types.StatusShot},
		{name: "same column still writes", target: OnColumn(types.StatusUnscheduled), wantIssued: true, wantStatus: types.StatusUnscheduled},
		{name: "unknown column", target: OnColumn("archive"), wantStatus: types.StatusUnscheduled},
		{name: "another card", target: OnCard("s2"), wantStatus: types.StatusUnscheduled},
		{name: "nowhere", target: DropTarget{}, wantStatus: types.StatusUnscheduled},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore(
				types.Scene{ID: "s1", Status: types.StatusUnscheduled},
				types.Scene{ID: "s2", Status: types.StatusScheduled},
			)
			e := startEngine(t, store)

			issued, err := e.DragEnd(context.Background(), "s1", tt.target)
			require.NoError(t, err)
			assert.Equal(t, tt.wantIssued, issued)
			if tt.wantIssued {
				assert.Equal(t, 1, store.updateCount())
			} else {
				assert.Equal(t, 0, store.updateCount())
			}
			s, ok := e.Scene("s1")
			require.True(t, ok)
			assert.Equal(t, tt.wantStatus, s.Status)
		})
	}
}

func TestEngineUpdateSchedulesOnShootDate(t *testing.T) {
	store := newFakeStore(types.Scene{ID: "s1", Status: types.StatusUnscheduled})
	e := startEngine(t, store)

	require.NoError(t, e.Update(context.Background(), "s1", types.ScenePatch{ShootDate: strPtr("2024-05-01")}))

	s, _ := e.Scene("s1")
	assert.Equal(t, "2024-05-01", s.ShootDate)
	assert.Equal(t, types.StatusScheduled, s.Status)
	require.Equal(t, 1, store.updateCount())
	require.NotNil(t, store.updates[0].Status)
	assert.Equal(t, types.StatusScheduled, *store.updates[0].Status)
}

func TestEngineUpdateValidation(t *testing.T) {
	store := newFakeStore(types.Scene{ID: "s1", Status: types.StatusUnscheduled})
	e := startEngine(t, store)
	ctx := context.Background()

	err := e.Update(ctx, "s1", types.ScenePatch{Status: strPtr("archive")})
	assert.ErrorIs(t, err, types.ErrUnknownColumn)

	err = e.Update(ctx, "s1", types.ScenePatch{ShootDate: strPtr("May 1")})
	assert.ErrorIs(t, err, types.ErrInvalidShootDate)

	err = e.Update(ctx, "missing", types.ScenePatch{Status: strPtr(types.StatusShot)})
	assert.ErrorIs(t, err, types.ErrNotFound)

	err = e.Update(ctx, "s1", types.ScenePatch{CustomFieldValues: map[string]any{"nope": "x"}})
	assert.ErrorIs(t, err, types.ErrFieldNotFound)

	assert.Equal(t, 0, store.updateCount())
}

func TestEngineUpdateNormalizesTimeOfDay(t *testing.T) {
	store := newFakeStore(types.Scene{ID: "s1"})
	e := startEngine(t, store)

	tod := types.TimeOfDay("night")
	require.NoError(t, e.Update(context.Background(), "s1", types.ScenePatch{TimeOfDay: &tod}))
	s, _ := e.Scene("s1")
	assert.Equal(t, types.TimeNight, s.TimeOfDay)

	bogus := types.TimeOfDay("dusk")
	require.NoError(t, e.Update(context.Background(), "s1", types.ScenePatch{TimeOfDay: &bogus}))
	s, _ = e.Scene("s1")
	assert.Equal(t, types.TimeOfDay(""), s.TimeOfDay)
}

func TestEngineFailedWriteKeepsOptimisticState(t *testing.T) {
	store := newFakeStore(types.Scene{ID: "s1", Status: types.StatusUnscheduled})
	var alerts []string
	e := startEngine(t, store, WithAlerter(AlertFunc(func(m string) { alerts = append(alerts, m) })))

	store.failOnce()
	_, err := e.DragEnd(context.Background(), "s1", OnColumn(types.StatusShot))
	require.Error(t, err)

	var se *types.StoreError
	assert.ErrorAs(t, err, &se)
	require.Len(t, alerts, 1)
	assert.Contains(t, alerts[0], "update scene failed")

	s, _ := e.Scene("s1")
	assert.Equal(t, types.StatusShot, s.Status, "failed write must not roll back")

	store.publish()
	s, _ = e.Scene("s1")
	assert.Equal(t, types.StatusUnscheduled, s.Status, "next snapshot reconciles")
}

func TestEngineSortAndFilter(t *testing.T) {
	store := newFakeStore(
		types.Scene{ID: "a", SceneNumber: "2", Characters: []string{"ANNA"}},
		types.Scene{ID: "b", SceneNumber: "1", Characters: []string{"BEN"}},
		types.Scene{ID: "c", SceneNumber: "3", Analysis: &types.Analysis{Cast: []string{"ANNA"}}},
	)
	e := startEngine(t, store)

	assert.Equal(t, []string{"b", "a", "c"}, ids(e.Board().Columns[0].Scenes))

	require.NoError(t, e.SetSort(SortCastSize))
	assert.Equal(t, SortCastSize, e.SortKey())
	assert.ErrorIs(t, e.SetSort("bogus"), types.ErrInvalidSortKey)

	e.SetFilter("ANNA")
	assert.Equal(t, "ANNA", e.Filter())
	assert.Equal(t, []string{"a", "c"}, ids(e.Board().Columns[0].Scenes))

	v := e.View(SortSceneNumber, "")
	assert.Equal(t, 3, v.Total())
	assert.Equal(t, []string{"ANNA", "BEN"}, e.Characters())
}

func TestEngineCreateScene(t *testing.T) {
	store := newFakeStore(types.Scene{ID: "s1", SceneNumber: "1"})
	e := startEngine(t, store)

	id, err := e.CreateScene(context.Background(), types.SceneDraft{Slugline: "EXT. PIER - DAY"})
	require.NoError(t, err)

	s, ok := e.Scene(id)
	require.True(t, ok)
	assert.Equal(t, "2", s.SceneNumber)
	assert.Equal(t, types.StatusUnscheduled, s.Status)
	assert.NotNil(t, s.Characters)

	_, err = e.CreateScene(context.Background(), types.SceneDraft{Status: "archive"})
	assert.ErrorIs(t, err, types.ErrUnknownColumn)
}

func TestEngineDuplicate(t *testing.T) {
	store := newFakeStore(types.Scene{
		ID: "s1", SceneNumber: "5", Status: types.StatusShot, Body: "Rain.",
		Analysis: &types.Analysis{Cast: []string{"ANNA"}},
	})
	e := startEngine(t, store)

	id, err := e.Duplicate(context.Background(), "s1")
	require.NoError(t, err)
	dup, ok := e.Scene(id)
	require.True(t, ok)
	assert.Equal(t, "5 -copy", dup.SceneNumber)
	assert.Equal(t, types.StatusUnscheduled, dup.Status)
	assert.Equal(t, "Rain.", dup.Body)
	assert.Len(t, e.Scenes(), 2)
}

func TestEngineDelete(t *testing.T) {
	store := newFakeStore(types.Scene{ID: "s1"}, types.Scene{ID: "s2"})
	e := startEngine(t, store)

	require.NoError(t, e.Delete(context.Background(), "s1"))
	assert.Equal(t, []string{"s2"}, ids(e.Scenes()))
	assert.ErrorIs(t, e.Delete(context.Background(), "s1"), types.ErrNotFound)
}

func TestEngineAnalyze(t *testing.T) {
	store := newFakeStore(types.Scene{ID: "s1", Body: "Anna at night."})
	analyzer := &fakeAnalyzer{
		ok: true,
		result: &types.Analysis{
			Title: "Night walk", Cast: []string{"ANNA"},
			Complexity: types.ComplexityMedium, TimeOfDay: types.TimeNight,
		},
	}
	e := startEngine(t, store, WithAnalyzer(analyzer))

	ok, err := e.Analyze(context.Background(), "s1")
	require.NoError(t, err)
	assert.True(t, ok)
	s, _ := e.Scene("s1")
	require.NotNil(t, s.Analysis)
	assert.Equal(t, "Night walk", s.Analysis.Title)
	assert.Equal(t, types.TimeNight, s.TimeOfDay)
	assert.Equal(t, []string{"Anna at night."}, analyzer.bodies)

	analyzer.ok = false
	analyzer.result = nil
	ok, err = e.Analyze(context.Background(), "s1")
	require.NoError(t, err)
	assert.False(t, ok)
	s, _ = e.Scene("s1")
	assert.Equal(t, "Night walk", s.Analysis.Title, "failed analysis leaves the scene alone")
}

func TestEngineAnalyzeWithoutAnalyzer(t *testing.T) {
	e := startEngine(t, newFakeStore(types.Scene{ID: "s1"}))
	_, err := e.Analyze(context.Background(), "s1")
	assert.ErrorIs(t, err, ErrNoAnalyzer)
}

func TestEngineEdit(t *testing.T) {
	old := &types.Analysis{Title: "Old", Complexity: types.ComplexityLow}
	store := newFakeStore(types.Scene{ID: "s1", Body: "old body", Analysis: old})
	analyzer := &fakeAnalyzer{ok: false}
	e := startEngine(t, store, WithAnalyzer(analyzer))

	err := e.Edit(context.Background(), "s1", EditForm{
		Patch:      types.ScenePatch{Body: strPtr("new body")},
		Complexity: types.ComplexityHigh,
	})
	require.NoError(t, err)

	s, _ := e.Scene("s1")
	assert.Equal(t, "new body", s.Body)
	require.NotNil(t, s.Analysis)
	assert.Equal(t, "Old", s.Analysis.Title, "failed re-analysis keeps the previous analysis")
	assert.Equal(t, types.ComplexityHigh, s.Analysis.Complexity)
	assert.Equal(t, []string{"new body"}, analyzer.bodies)

	analyzer.ok = true
	analyzer.result = &types.Analysis{Title: "Fresh", Complexity: types.ComplexityMedium}
	require.NoError(t, e.Edit(context.Background(), "s1", EditForm{}))
	s, _ = e.Scene("s1")
	assert.Equal(t, "Fresh", s.Analysis.Title)
	assert.Equal(t, types.ComplexityMedium, s.Analysis.Complexity)
}

func TestEngineAddColumn(t *testing.T) {
	store := newFakeStore()
	e := startEngine(t, store)
	ctx := context.Background()

	outcome, err := e.AddColumn(ctx, " color ")
	require.NoError(t, err)
	assert.Equal(t, types.ColumnAdded, outcome)
	assert.Equal(t, []string{"unscheduled", "scheduled", "shot", "edit", "color"}, e.Columns())
	assert.Equal(t, e.Columns(), store.columns)

	outcome, err = e.AddColumn(ctx, "Color")
	require.NoError(t, err)
	assert.Equal(t, types.ColumnDuplicate, outcome)

	_, err = e.AddColumn(ctx, "  ")
	assert.ErrorIs(t, err, types.ErrInvalidName)

	store.seedScene(types.Scene{ID: "s1"})
	_, err = e.DragEnd(ctx, "s1", OnColumn("color"))
	require.NoError(t, err)
	s, _ := e.Scene("s1")
	assert.Equal(t, "color", s.Status)
}

func TestEngineCustomFields(t *testing.T) {
	store := newFakeStore(types.Scene{ID: "s1"})
	e := startEngine(t, store)
	ctx := context.Background()

	id, err := e.DefineField(ctx, types.FieldDefinition{
		Name: "Unit", Type: types.FieldMultiSelect,
		Options: []types.FieldOption{{Label: "A", Color: "red"}, {Label: "B", Color: "blue"}},
	})
	require.NoError(t, err)
	assert.Len(t, e.Fields(), 1)

	require.NoError(t, e.Update(ctx, "s1", types.ScenePatch{CustomFieldValues: map[string]any{id: []any{"A"}}}))
	s, _ := e.Scene("s1")
	assert.Equal(t, []string{"A"}, s.CustomFieldValues[id])

	err = e.Update(ctx, "s1", types.ScenePatch{CustomFieldValues: map[string]any{id: []string{"Z"}}})
	assert.ErrorIs(t, err, types.ErrInvalidOption)

	require.NoError(t, e.ArchiveField(ctx, id))
	assert.Empty(t, e.Fields())
	err = e.Update(ctx, "s1", types.ScenePatch{CustomFieldValues: map[string]any{id: []string{"B"}}})
	assert.ErrorIs(t, err, types.ErrFieldArchived)

	s, _ = e.Scene("s1")
	assert.Equal(t, []string{"A"}, s.CustomFieldValues[id], "archived values are retained")

	_, err = e.DefineField(ctx, types.FieldDefinition{Name: "", Type: types.FieldShortText})
	assert.ErrorIs(t, err, types.ErrInvalidName)
}

func TestEngineCloseIsIdempotent(t *testing.T) {
	store := newFakeStore()
	e := New(project, store)
	require.NoError(t, e.Start(context.Background()))
	require.NoError(t, e.Close())
	require.NoError(t, e.Close())
	assert.Empty(t, store.subs)
}
