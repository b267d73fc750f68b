package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mesh-intelligence/slate/pkg/types"
)

var _ types.SceneTable = (*scenesTable)(nil)

// scenesTable implements types.SceneTable. Writes commit to SQLite, then
// persist scenes.jsonl, then notify subscribers.
type scenesTable struct {
	backend *Backend
}

func (t *scenesTable) Create(ctx context.Context, projectID string, draft types.SceneDraft) (string, error) {
	ids, err := t.CreateBatch(ctx, projectID, []types.SceneDraft{draft})
	if err != nil {
		return "", err
	}
	return ids[0], nil
}

// CreateBatch inserts all drafts in one transaction.
func (t *scenesTable) CreateBatch(ctx context.Context, projectID string, drafts []types.SceneDraft) ([]string, error) {
	if strings.TrimSpace(projectID) == "" {
		return nil, &types.StoreError{Op: "create", ProjectID: projectID, Err: types.ErrInvalidProject}
	}
	if len(drafts) == 0 {
		return []string{}, nil
	}

	b := t.backend
	b.writeMu.Lock()
	defer b.writeMu.Unlock()
	db, err := b.database()
	if err != nil {
		return nil, &types.StoreError{Op: "create", ProjectID: projectID, Err: err}
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, &types.StoreError{Op: "create", ProjectID: projectID, Err: err}
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	ids := make([]string, 0, len(drafts))
	for _, d := range drafts {
		s := sceneFromDraft(projectID, d, now)
		args, err := dehydrateScene(s)
		if err != nil {
			return nil, &types.StoreError{Op: "create", ProjectID: projectID, Err: err}
		}
		if _, err := tx.ExecContext(ctx, insertSceneSQL, args...); err != nil {
			return nil, &types.StoreError{Op: "create", ProjectID: projectID, Err: fmt.Errorf("inserting scene: %w", err)}
		}
		ids = append(ids, s.ID)
	}
	if err := tx.Commit(); err != nil {
		return nil, &types.StoreError{Op: "create", ProjectID: projectID, Err: fmt.Errorf("committing scenes: %w", err)}
	}

	if err := b.persist(tableScenes); err != nil {
		return ids, &types.StoreError{Op: "create", ProjectID: projectID, Err: fmt.Errorf("persisting %s: %w", scenesJSONL, err)}
	}
	b.notify(projectID)
	return ids, nil
}

func sceneFromDraft(projectID string, d types.SceneDraft, now time.Time) types.Scene {
	status := d.Status
	if status == "" {
		status = types.StatusUnscheduled
	}
	chars := d.Characters
	if chars == nil {
		chars = []string{}
	}
	s := types.Scene{
		ID:                newID(),
		ProjectID:         projectID,
		SceneNumber:       d.SceneNumber,
		Slugline:          d.Slugline,
		Body:              d.Body,
		Status:            status,
		Completed:         d.Completed,
		ShootDate:         d.ShootDate,
		TimeOfDay:         d.TimeOfDay,
		Characters:        chars,
		Analysis:          d.Analysis,
		CustomFieldValues: d.CustomFieldValues,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	return s.Clone()
}

func (t *scenesTable) Get(ctx context.Context, projectID, id string) (*types.Scene, error) {
	if id == "" {
		return nil, &types.StoreError{Op: "get", ProjectID: projectID, Err: types.ErrInvalidID}
	}
	db, err := t.backend.database()
	if err != nil {
		return nil, &types.StoreError{Op: "get", ProjectID: projectID, ID: id, Err: err}
	}
	s, err := getScene(ctx, db, projectID, id)
	if err != nil {
		return nil, &types.StoreError{Op: "get", ProjectID: projectID, ID: id, Err: err}
	}
	return &s, nil
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getScene(ctx context.Context, q queryer, projectID, id string) (types.Scene, error) {
	row := q.QueryRowContext(ctx,
		"SELECT "+sceneColumns+" FROM scenes WHERE project_id = ? AND scene_id = ?", projectID, id)
	s, err := hydrateScene(row)
	if errors.Is(err, sql.ErrNoRows) {
		return s, types.ErrNotFound
	}
	return s, err
}

// List returns the project's scenes in insertion order.
func (t *scenesTable) List(ctx context.Context, projectID string) ([]types.Scene, error) {
	scenes, err := t.backend.listScenes(ctx, projectID)
	if err != nil {
		return nil, &types.StoreError{Op: "list", ProjectID: projectID, Err: err}
	}
	return scenes, nil
}

func (b *Backend) listScenes(ctx context.Context, projectID string) ([]types.Scene, error) {
	db, err := b.database()
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx,
		"SELECT "+sceneColumns+" FROM scenes WHERE project_id = ? ORDER BY seq", projectID)
	if err != nil {
		return nil, fmt.Errorf("querying scenes: %w", err)
	}
	defer rows.Close()
	scenes := []types.Scene{}
	for rows.Next() {
		s, err := hydrateScene(rows)
		if err != nil {
			return nil, err
		}
		scenes = append(scenes, s)
	}
	return scenes, rows.Err()
}

// Update writes the fields set in patch. Fields the patch leaves nil keep
// their stored values, even if another writer changed them.
func (t *scenesTable) Update(ctx context.Context, projectID, id string, patch types.ScenePatch) error {
	if id == "" {
		return &types.StoreError{Op: "update", ProjectID: projectID, Err: types.ErrInvalidID}
	}
	b := t.backend
	b.writeMu.Lock()
	defer b.writeMu.Unlock()
	wrap := func(err error) error {
		return &types.StoreError{Op: "update", ProjectID: projectID, ID: id, Err: err}
	}
	db, err := b.database()
	if err != nil {
		return wrap(err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return wrap(err)
	}
	defer tx.Rollback()

	s, err := getScene(ctx, tx, projectID, id)
	if err != nil {
		return wrap(err)
	}
	s.Apply(patch)
	s.UpdatedAt = time.Now().UTC()
	args, err := dehydrateScene(s)
	if err != nil {
		return wrap(err)
	}
	// Drop scene_id and project_id from the front; they key the update.
	_, err = tx.ExecContext(ctx, `UPDATE scenes SET scene_number = ?, slugline = ?, body = ?,
		status = ?, completed = ?, shoot_date = ?, time_of_day = ?, characters = ?, analysis = ?,
		custom_field_values = ?, created_at = ?, updated_at = ?
		WHERE project_id = ? AND scene_id = ?`, append(args[2:], projectID, id)...)
	if err != nil {
		return wrap(fmt.Errorf("updating scene: %w", err))
	}
	if err := tx.Commit(); err != nil {
		return wrap(fmt.Errorf("committing scene: %w", err))
	}

	if err := b.persist(tableScenes); err != nil {
		return wrap(fmt.Errorf("persisting %s: %w", scenesJSONL, err))
	}
	b.notify(projectID)
	return nil
}

func (t *scenesTable) Delete(ctx context.Context, projectID, id string) error {
	if id == "" {
		return &types.StoreError{Op: "delete", ProjectID: projectID, Err: types.ErrInvalidID}
	}
	b := t.backend
	b.writeMu.Lock()
	defer b.writeMu.Unlock()
	wrap := func(err error) error {
		return &types.StoreError{Op: "delete", ProjectID: projectID, ID: id, Err: err}
	}
	db, err := b.database()
	if err != nil {
		return wrap(err)
	}
	res, err := db.ExecContext(ctx, "DELETE FROM scenes WHERE project_id = ? AND scene_id = ?", projectID, id)
	if err != nil {
		return wrap(fmt.Errorf("deleting scene: %w", err))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return wrap(types.ErrNotFound)
	}
	if err := b.persist(tableScenes); err != nil {
		return wrap(fmt.Errorf("persisting %s: %w", scenesJSONL, err))
	}
	b.notify(projectID)
	return nil
}

// Subscribe registers fn for the project's snapshots and delivers the
// current list before returning. fn runs on the writer's goroutine and
// must not write to the store.
func (t *scenesTable) Subscribe(projectID string, fn func([]types.Scene)) (types.Subscription, error) {
	if strings.TrimSpace(projectID) == "" {
		return nil, &types.StoreError{Op: "subscribe", ProjectID: projectID, Err: types.ErrInvalidProject}
	}
	if fn == nil {
		return nil, errors.New("subscribe: nil callback")
	}
	b := t.backend
	b.writeMu.Lock()
	defer b.writeMu.Unlock()

	scenes, err := b.listScenes(context.Background(), projectID)
	if err != nil {
		return nil, &types.StoreError{Op: "subscribe", ProjectID: projectID, Err: err}
	}
	id := b.hub.add(projectID, fn)
	fn(scenes)
	return &subscription{hub: b.hub, projectID: projectID, id: id}, nil
}
