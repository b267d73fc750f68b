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

var _ types.FieldTable = (*fieldsTable)(nil)

// fieldsTable implements types.FieldTable.
type fieldsTable struct {
	backend *Backend
}

func (t *fieldsTable) Create(ctx context.Context, projectID string, def types.FieldDefinition) (string, error) {
	if strings.TrimSpace(projectID) == "" {
		return "", &types.StoreError{Op: "create field", ProjectID: projectID, Err: types.ErrInvalidProject}
	}
	def.Normalize()
	if err := def.Validate(); err != nil {
		return "", &types.StoreError{Op: "create field", ProjectID: projectID, Err: err}
	}
	def.ID = newID()
	def.ProjectID = projectID
	def.CreatedAt = time.Now().UTC()
	def.ArchivedAt = nil

	b := t.backend
	b.writeMu.Lock()
	defer b.writeMu.Unlock()
	db, err := b.database()
	if err != nil {
		return "", &types.StoreError{Op: "create field", ProjectID: projectID, Err: err}
	}
	args, err := dehydrateField(def)
	if err != nil {
		return "", &types.StoreError{Op: "create field", ProjectID: projectID, Err: err}
	}
	if _, err := db.ExecContext(ctx, insertFieldSQL, args...); err != nil {
		return "", &types.StoreError{Op: "create field", ProjectID: projectID, Err: fmt.Errorf("inserting field: %w", err)}
	}
	if err := b.persist(tableFields); err != nil {
		return def.ID, &types.StoreError{Op: "create field", ProjectID: projectID, Err: fmt.Errorf("persisting %s: %w", fieldsJSONL, err)}
	}
	return def.ID, nil
}

// Update replaces a definition's name, type and options. The archive state
// and creation time are kept.
func (t *fieldsTable) Update(ctx context.Context, projectID string, def types.FieldDefinition) error {
	if def.ID == "" {
		return &types.StoreError{Op: "update field", ProjectID: projectID, Err: types.ErrInvalidID}
	}
	wrap := func(err error) error {
		return &types.StoreError{Op: "update field", ProjectID: projectID, ID: def.ID, Err: err}
	}
	def.Normalize()
	if err := def.Validate(); err != nil {
		return wrap(err)
	}

	b := t.backend
	b.writeMu.Lock()
	defer b.writeMu.Unlock()
	db, err := b.database()
	if err != nil {
		return wrap(err)
	}
	args, err := dehydrateField(def)
	if err != nil {
		return wrap(err)
	}
	res, err := db.ExecContext(ctx,
		"UPDATE custom_fields SET name = ?, field_type = ?, options = ? WHERE project_id = ? AND field_id = ?",
		args[2], args[3], args[4], projectID, def.ID)
	if err != nil {
		return wrap(fmt.Errorf("updating field: %w", err))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return wrap(types.ErrFieldNotFound)
	}
	if err := b.persist(tableFields); err != nil {
		return wrap(fmt.Errorf("persisting %s: %w", fieldsJSONL, err))
	}
	return nil
}

func (t *fieldsTable) Get(ctx context.Context, projectID, id string) (*types.FieldDefinition, error) {
	if id == "" {
		return nil, &types.StoreError{Op: "get field", ProjectID: projectID, Err: types.ErrInvalidID}
	}
	db, err := t.backend.database()
	if err != nil {
		return nil, &types.StoreError{Op: "get field", ProjectID: projectID, ID: id, Err: err}
	}
	row := db.QueryRowContext(ctx,
		"SELECT "+fieldColumns+" FROM custom_fields WHERE project_id = ? AND field_id = ?", projectID, id)
	f, err := hydrateField(row)
	if errors.Is(err, sql.ErrNoRows) {
		err = types.ErrFieldNotFound
	}
	if err != nil {
		return nil, &types.StoreError{Op: "get field", ProjectID: projectID, ID: id, Err: err}
	}
	return &f, nil
}

// List returns definitions in creation order. Archived definitions are
// included only when includeArchived is set.
func (t *fieldsTable) List(ctx context.Context, projectID string, includeArchived bool) ([]types.FieldDefinition, error) {
	db, err := t.backend.database()
	if err != nil {
		return nil, &types.StoreError{Op: "list fields", ProjectID: projectID, Err: err}
	}
	query := "SELECT " + fieldColumns + " FROM custom_fields WHERE project_id = ?"
	if !includeArchived {
		query += " AND archived_at IS NULL"
	}
	rows, err := db.QueryContext(ctx, query+" ORDER BY seq", projectID)
	if err != nil {
		return nil, &types.StoreError{Op: "list fields", ProjectID: projectID, Err: err}
	}
	defer rows.Close()
	defs := []types.FieldDefinition{}
	for rows.Next() {
		f, err := hydrateField(rows)
		if err != nil {
			return nil, &types.StoreError{Op: "list fields", ProjectID: projectID, Err: err}
		}
		defs = append(defs, f)
	}
	if err := rows.Err(); err != nil {
		return nil, &types.StoreError{Op: "list fields", ProjectID: projectID, Err: err}
	}
	return defs, nil
}

// Archive marks a definition archived. Scene values for it are left in
// place. Archiving an archived definition is a no-op.
func (t *fieldsTable) Archive(ctx context.Context, projectID, id string) error {
	if id == "" {
		return &types.StoreError{Op: "archive field", ProjectID: projectID, Err: types.ErrInvalidID}
	}
	wrap := func(err error) error {
		return &types.StoreError{Op: "archive field", ProjectID: projectID, ID: id, Err: err}
	}
	b := t.backend
	b.writeMu.Lock()
	defer b.writeMu.Unlock()
	db, err := b.database()
	if err != nil {
		return wrap(err)
	}
	var archived sql.NullString
	err = db.QueryRowContext(ctx,
		"SELECT archived_at FROM custom_fields WHERE project_id = ? AND field_id = ?", projectID, id).Scan(&archived)
	if errors.Is(err, sql.ErrNoRows) {
		return wrap(types.ErrFieldNotFound)
	}
	if err != nil {
		return wrap(err)
	}
	if archived.Valid {
		return nil
	}
	if _, err := db.ExecContext(ctx,
		"UPDATE custom_fields SET archived_at = ? WHERE project_id = ? AND field_id = ?",
		formatTime(time.Now()), projectID, id); err != nil {
		return wrap(fmt.Errorf("archiving field: %w", err))
	}
	if err := b.persist(tableFields); err != nil {
		return wrap(fmt.Errorf("persisting %s: %w", fieldsJSONL, err))
	}
	return nil
}
