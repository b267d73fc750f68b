package intake

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/slate/internal/sqlite"
	"github.com/mesh-intelligence/slate/pkg/types"
)

// batchRecorder records CreateBatch calls; other methods are unused.
type batchRecorder struct {
	types.SceneTable
	batches [][]types.SceneDraft
	err     error
}

func (b *batchRecorder) CreateBatch(_ context.Context, _ string, drafts []types.SceneDraft) ([]string, error) {
	if b.err != nil {
		return nil, b.err
	}
	b.batches = append(b.batches, drafts)
	ids := make([]string, len(drafts))
	for i := range drafts {
		ids[i] = fmt.Sprintf("id-%d", i)
	}
	return ids, nil
}

// scriptRecorder records saved scripts by project.
type scriptRecorder struct {
	saved map[string]string
}

func (r *scriptRecorder) SaveScript(_ context.Context, projectID, content string) error {
	if r.saved == nil {
		r.saved = make(map[string]string)
	}
	r.saved[projectID] = content
	return nil
}

type stubParser struct {
	drafts []types.SceneDraft
	err    error
}

func (p stubParser) ParseWithAnalysis(context.Context, string, int) ([]types.SceneDraft, error) {
	return p.drafts, p.err
}

func TestSegmented(t *testing.T) {
	rec := &batchRecorder{}
	scripts := &scriptRecorder{}
	text := "INT. A - DAY\nx\nEXT. B - NIGHT\ny"
	ids, err := Segmented(context.Background(), rec, scripts, "film", text)
	require.NoError(t, err)
	assert.Equal(t, text, scripts.saved["film"])
	assert.Equal(t, []string{"id-0", "id-1"}, ids)
	require.Len(t, rec.batches, 1, "all scenes go in one batch")
	assert.Len(t, rec.batches[0], 2)
	assert.Equal(t, types.StatusUnscheduled, rec.batches[0][1].Status)
}

func TestSegmentedNoHeadings(t *testing.T) {
	rec := &batchRecorder{}
	scripts := &scriptRecorder{}
	ids, err := Segmented(context.Background(), rec, scripts, "film", "just prose")
	require.NoError(t, err)
	assert.Empty(t, ids)
	assert.Empty(t, rec.batches)
	assert.Equal(t, "just prose", scripts.saved["film"], "the script is kept even without headings")
}

func TestSegmentedEmpty(t *testing.T) {
	scripts := &scriptRecorder{}
	_, err := Segmented(context.Background(), &batchRecorder{}, scripts, "film", "  \n ")
	assert.ErrorIs(t, err, ErrEmptyScript)
	assert.Empty(t, scripts.saved)
}

func TestSegmentedStoreFailure(t *testing.T) {
	rec := &batchRecorder{err: errors.New("disk full")}
	scripts := &scriptRecorder{}
	_, err := Segmented(context.Background(), rec, scripts, "film", "INT. A - DAY\nx")
	assert.ErrorContains(t, err, "disk full")
	assert.Empty(t, scripts.saved)
}

func TestAnalyzed(t *testing.T) {
	rec := &batchRecorder{}
	parser := stubParser{drafts: []types.SceneDraft{
		{SceneNumber: "1", Slugline: "INT. A - DAY", Status: types.StatusShot},
		{SceneNumber: "2", Slugline: "EXT. B - DAY"},
	}}
	scripts := &scriptRecorder{}
	ids, err := Analyzed(context.Background(), parser, rec, scripts, "film", "script", 100)
	require.NoError(t, err)
	assert.Equal(t, "script", scripts.saved["film"])
	assert.Len(t, ids, 2)
	require.Len(t, rec.batches, 1)
	for _, d := range rec.batches[0] {
		assert.Equal(t, types.StatusUnscheduled, d.Status)
		assert.NotNil(t, d.Characters)
	}
}

func TestAnalyzedParserFailureWritesNothing(t *testing.T) {
	rec := &batchRecorder{}
	parseErr := errors.New("parse script: request: quota exceeded")
	scripts := &scriptRecorder{}
	_, err := Analyzed(context.Background(), stubParser{err: parseErr}, rec, scripts, "film", "script", 0)
	assert.ErrorIs(t, err, parseErr)
	assert.Empty(t, rec.batches)
	assert.Empty(t, scripts.saved)
}

func TestSegmentedRepeatAddsAgain(t *testing.T) {
	store := sqlite.NewBackend()
	require.NoError(t, store.Attach(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}))
	t.Cleanup(func() { store.Detach() })
	scenes, err := store.Scenes()
	require.NoError(t, err)
	projects, err := store.Projects()
	require.NoError(t, err)
	ctx := context.Background()

	text := "INT. A - DAY\nx\nEXT. B - NIGHT\ny"
	for range 2 {
		ids, err := Segmented(ctx, scenes, projects, "film", text)
		require.NoError(t, err)
		assert.Len(t, ids, 2)
	}

	all, err := scenes.List(ctx, "film")
	require.NoError(t, err)
	assert.Len(t, all, 4)

	p, err := projects.Get(ctx, "film")
	require.NoError(t, err)
	assert.Equal(t, text, p.Content)
}
