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

var _ types.ProjectTable = (*projectsTable)(nil)

// projectsTable implements types.ProjectTable.
type projectsTable struct {
	backend *Backend
}

func (t *projectsTable) Create(ctx context.Context, id, title string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		id = newID()
	}
	wrap := func(err error) error {
		return &types.StoreError{Op: "create project", ProjectID: id, Err: err}
	}
	if err := types.ValidateProjectID(id); err != nil {
		return "", wrap(err)
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return "", wrap(types.ErrInvalidName)
	}

	b := t.backend
	b.writeMu.Lock()
	defer b.writeMu.Unlock()
	db, err := b.database()
	if err != nil {
		return "", wrap(err)
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return "", wrap(err)
	}
	defer tx.Rollback()

	if _, err := getProject(ctx, tx, id); err == nil {
		return "", wrap(types.ErrProjectExists)
	} else if !errors.Is(err, types.ErrNotFound) {
		return "", wrap(err)
	}
	now := formatTime(time.Now())
	if _, err := tx.ExecContext(ctx, insertProjectSQL, id, title, "", now, now); err != nil {
		return "", wrap(fmt.Errorf("inserting project: %w", err))
	}
	if err := tx.Commit(); err != nil {
		return "", wrap(fmt.Errorf("committing project: %w", err))
	}
	if err := b.persist(tableProjects); err != nil {
		return id, wrap(fmt.Errorf("persisting %s: %w", projectsJSONL, err))
	}
	return id, nil
}

func (t *projectsTable) Get(ctx context.Context, id string) (*types.Project, error) {
	db, err := t.backend.database()
	if err != nil {
		return nil, &types.StoreError{Op: "get project", ProjectID: id, Err: err}
	}
	p, err := getProject(ctx, db, id)
	if err != nil {
		return nil, &types.StoreError{Op: "get project", ProjectID: id, Err: err}
	}
	return p, nil
}

func getProject(ctx context.Context, q queryer, id string) (*types.Project, error) {
	var r projectJSON
	err := q.QueryRowContext(ctx, "SELECT "+projectColumns+" FROM projects WHERE project_id = ?", id).
		Scan(&r.ProjectID, &r.Title, &r.Content, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying project: %w", err)
	}
	p := r.project()
	return &p, nil
}

func (t *projectsTable) List(ctx context.Context) ([]types.Project, error) {
	db, err := t.backend.database()
	if err != nil {
		return nil, &types.StoreError{Op: "list projects", Err: err}
	}
	rows, err := db.QueryContext(ctx,
		"SELECT project_id, title, created_at, updated_at FROM projects ORDER BY seq")
	if err != nil {
		return nil, &types.StoreError{Op: "list projects", Err: fmt.Errorf("querying projects: %w", err)}
	}
	defer rows.Close()
	projects := []types.Project{}
	for rows.Next() {
		var r projectJSON
		if err := rows.Scan(&r.ProjectID, &r.Title, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, &types.StoreError{Op: "list projects", Err: err}
		}
		projects = append(projects, r.project())
	}
	if err := rows.Err(); err != nil {
		return nil, &types.StoreError{Op: "list projects", Err: err}
	}
	return projects, nil
}

func (t *projectsTable) Rename(ctx context.Context, id, title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return &types.StoreError{Op: "rename project", ProjectID: id, Err: types.ErrInvalidName}
	}
	return t.update(ctx, "rename project", id, "title", title)
}

func (t *projectsTable) SaveScript(ctx context.Context, id, content string) error {
	wrap := func(err error) error {
		return &types.StoreError{Op: "save script", ProjectID: id, Err: err}
	}
	if err := types.ValidateProjectID(id); err != nil {
		return wrap(err)
	}
	b := t.backend
	b.writeMu.Lock()
	defer b.writeMu.Unlock()
	db, err := b.database()
	if err != nil {
		return wrap(err)
	}
	now := formatTime(time.Now())
	if _, err := db.ExecContext(ctx, insertProjectSQL+
		" ON CONFLICT(project_id) DO UPDATE SET content = excluded.content, updated_at = excluded.updated_at",
		id, id, content, now, now); err != nil {
		return wrap(fmt.Errorf("saving script: %w", err))
	}
	if err := b.persist(tableProjects); err != nil {
		return wrap(fmt.Errorf("persisting %s: %w", projectsJSONL, err))
	}
	return nil
}

// update sets one text column on a registered project.
func (t *projectsTable) update(ctx context.Context, op, id, column, value string) error {
	wrap := func(err error) error {
		return &types.StoreError{Op: op, ProjectID: id, Err: err}
	}
	b := t.backend
	b.writeMu.Lock()
	defer b.writeMu.Unlock()
	db, err := b.database()
	if err != nil {
		return wrap(err)
	}
	res, err := db.ExecContext(ctx,
		"UPDATE projects SET "+column+" = ?, updated_at = ? WHERE project_id = ?",
		value, formatTime(time.Now()), id)
	if err != nil {
		return wrap(fmt.Errorf("updating project: %w", err))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return wrap(types.ErrNotFound)
	}
	if err := b.persist(tableProjects); err != nil {
		return wrap(fmt.Errorf("persisting %s: %w", projectsJSONL, err))
	}
	return nil
}

// Delete removes a registered project and everything keyed by it in one
// transaction. Subscribers of the project receive an empty snapshot.
func (t *projectsTable) Delete(ctx context.Context, id string) error {
	wrap := func(err error) error {
		return &types.StoreError{Op: "delete project", ProjectID: id, Err: err}
	}
	b := t.backend
	b.writeMu.Lock()
	defer b.writeMu.Unlock()
	db, err := b.database()
	if err != nil {
		return wrap(err)
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return wrap(err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, "DELETE FROM projects WHERE project_id = ?", id)
	if err != nil {
		return wrap(fmt.Errorf("deleting project: %w", err))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return wrap(types.ErrNotFound)
	}
	for _, table := range []string{tableScenes, tableFields, tableColumns} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE project_id = ?", id); err != nil {
			return wrap(fmt.Errorf("deleting %s: %w", table, err))
		}
	}
	if err := tx.Commit(); err != nil {
		return wrap(fmt.Errorf("committing delete: %w", err))
	}
	for _, table := range []string{tableProjects, tableScenes, tableFields, tableColumns} {
		if err := b.persist(table); err != nil {
			return wrap(fmt.Errorf("persisting %s: %w", table, err))
		}
	}
	b.notify(id)
	return nil
}
