package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mesh-intelligence/slate/pkg/types"
)

var _ types.ColumnTable = (*columnsTable)(nil)

// columnsTable implements types.ColumnTable. A project has no rows until
// its first Add, which writes the default columns ahead of the new one.
type columnsTable struct {
	backend *Backend
}

func (t *columnsTable) List(ctx context.Context, projectID string) ([]string, error) {
	db, err := t.backend.database()
	if err != nil {
		return nil, &types.StoreError{Op: "list columns", ProjectID: projectID, Err: err}
	}
	names, err := listColumns(ctx, db, projectID)
	if err != nil {
		return nil, &types.StoreError{Op: "list columns", ProjectID: projectID, Err: err}
	}
	return names, nil
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func listColumns(ctx context.Context, q querier, projectID string) ([]string, error) {
	rows, err := q.QueryContext(ctx,
		"SELECT name FROM board_columns WHERE project_id = ? ORDER BY ordinal", projectID)
	if err != nil {
		return nil, fmt.Errorf("querying columns: %w", err)
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		names = append(names, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return append([]string(nil), types.DefaultColumns...), nil
	}
	return names, nil
}

// Add appends name to the project's columns. A name already present in any
// casing returns ColumnDuplicate and writes nothing.
func (t *columnsTable) Add(ctx context.Context, projectID, name string) (types.AddOutcome, error) {
	wrap := func(err error) error {
		return &types.StoreError{Op: "add column", ProjectID: projectID, Err: err}
	}
	b := t.backend
	b.writeMu.Lock()
	defer b.writeMu.Unlock()
	db, err := b.database()
	if err != nil {
		return types.ColumnDuplicate, wrap(err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return types.ColumnDuplicate, wrap(err)
	}
	defer tx.Rollback()

	current, err := listColumns(ctx, tx, projectID)
	if err != nil {
		return types.ColumnDuplicate, wrap(err)
	}
	set := types.NewColumnSet(current...)
	outcome, err := set.Add(name)
	if err != nil {
		return outcome, wrap(err)
	}
	if outcome == types.ColumnDuplicate {
		return outcome, nil
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM board_columns WHERE project_id = ?", projectID); err != nil {
		return types.ColumnDuplicate, wrap(err)
	}
	for i, n := range set.Names() {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO board_columns (project_id, name, ordinal) VALUES (?, ?, ?)", projectID, n, i); err != nil {
			return types.ColumnDuplicate, wrap(fmt.Errorf("inserting column: %w", err))
		}
	}
	if err := tx.Commit(); err != nil {
		return types.ColumnDuplicate, wrap(fmt.Errorf("committing columns: %w", err))
	}
	if err := b.persist(tableColumns); err != nil {
		return types.ColumnAdded, wrap(fmt.Errorf("persisting %s: %w", columnsJSONL, err))
	}
	return types.ColumnAdded, nil
}
