package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mesh-intelligence/slate/pkg/types"
)

// loaders map each data file to the function inserting one of its records.
// A loader returns false for records it skips.
var loaders = []struct {
	file string
	load func(tx *sql.Tx, rec json.RawMessage) bool
}{
	{projectsJSONL, loadProject},
	{scenesJSONL, loadScene},
	{fieldsJSONL, loadField},
	{columnsJSONL, loadColumn},
}

// loadAllJSONL fills a fresh database from the data files in one
// transaction. Malformed records, records missing their identity and
// records that violate constraints are skipped. Unknown fields are
// ignored.
func loadAllJSONL(db *sql.DB, dataDir string) (map[string]int, error) {
	tx, err := db.Begin()
	if err != nil {
		return nil, fmt.Errorf("beginning load transaction: %w", err)
	}
	defer tx.Rollback()

	skipped := make(map[string]int)
	for _, l := range loaders {
		records, err := readJSONL(filepath.Join(dataDir, l.file))
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", l.file, err)
		}
		for _, rec := range records {
			if !l.load(tx, rec) {
				skipped[l.file]++
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing load transaction: %w", err)
	}
	return skipped, nil
}

func loadScene(tx *sql.Tx, rec json.RawMessage) bool {
	var r sceneJSON
	if err := json.Unmarshal(rec, &r); err != nil || r.SceneID == "" || r.ProjectID == "" {
		return false
	}
	args, err := dehydrateScene(r.scene())
	if err != nil {
		return false
	}
	_, err = tx.Exec(insertSceneSQL, args...)
	return err == nil
}

func loadField(tx *sql.Tx, rec json.RawMessage) bool {
	var r fieldJSON
	if err := json.Unmarshal(rec, &r); err != nil || r.FieldID == "" || r.ProjectID == "" {
		return false
	}
	args, err := dehydrateField(r.field())
	if err != nil {
		return false
	}
	_, err = tx.Exec(insertFieldSQL, args...)
	return err == nil
}

func loadColumn(tx *sql.Tx, rec json.RawMessage) bool {
	var r columnJSON
	if err := json.Unmarshal(rec, &r); err != nil || r.ProjectID == "" || strings.TrimSpace(r.Name) == "" {
		return false
	}
	_, err := tx.Exec("INSERT INTO board_columns (project_id, name, ordinal) VALUES (?, ?, ?)",
		r.ProjectID, strings.TrimSpace(r.Name), r.Ordinal)
	return err == nil
}

func loadProject(tx *sql.Tx, rec json.RawMessage) bool {
	var r projectJSON
	if err := json.Unmarshal(rec, &r); err != nil || types.ValidateProjectID(r.ProjectID) != nil || strings.TrimSpace(r.Title) == "" {
		return false
	}
	_, err := tx.Exec(insertProjectSQL, r.ProjectID, r.Title, r.Content, r.CreatedAt, r.UpdatedAt)
	return err == nil
}

var (
	insertSceneSQL   = "INSERT INTO scenes (" + sceneColumns + ") VALUES (" + placeholders(14) + ")"
	insertFieldSQL   = "INSERT INTO custom_fields (" + fieldColumns + ") VALUES (" + placeholders(7) + ")"
	insertProjectSQL = "INSERT INTO projects (" + projectColumns + ") VALUES (" + placeholders(5) + ")"
)

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// persistScenes rewrites scenes.jsonl from the database in insertion order.
func persistScenes(db *sql.DB, dataDir string) error {
	rows, err := db.Query("SELECT " + sceneColumns + " FROM scenes ORDER BY seq")
	if err != nil {
		return fmt.Errorf("querying scenes: %w", err)
	}
	defer rows.Close()
	var records []sceneJSON
	for rows.Next() {
		s, err := hydrateScene(rows)
		if err != nil {
			return err
		}
		records = append(records, sceneRecord(s))
	}
	if err := rows.Err(); err != nil {
		return err
	}
	return writeJSONL(filepath.Join(dataDir, scenesJSONL), records)
}

// persistFields rewrites custom_fields.jsonl.
func persistFields(db *sql.DB, dataDir string) error {
	rows, err := db.Query("SELECT " + fieldColumns + " FROM custom_fields ORDER BY seq")
	if err != nil {
		return fmt.Errorf("querying fields: %w", err)
	}
	defer rows.Close()
	var records []fieldJSON
	for rows.Next() {
		f, err := hydrateField(rows)
		if err != nil {
			return err
		}
		records = append(records, fieldRecord(f))
	}
	if err := rows.Err(); err != nil {
		return err
	}
	return writeJSONL(filepath.Join(dataDir, fieldsJSONL), records)
}

// persistColumns rewrites columns.jsonl.
func persistColumns(db *sql.DB, dataDir string) error {
	rows, err := db.Query("SELECT project_id, name, ordinal FROM board_columns ORDER BY project_id, ordinal")
	if err != nil {
		return fmt.Errorf("querying columns: %w", err)
	}
	defer rows.Close()
	var records []columnJSON
	for rows.Next() {
		var r columnJSON
		if err := rows.Scan(&r.ProjectID, &r.Name, &r.Ordinal); err != nil {
			return err
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	return writeJSONL(filepath.Join(dataDir, columnsJSONL), records)
}

// persistProjects rewrites projects.jsonl in registration order.
func persistProjects(db *sql.DB, dataDir string) error {
	rows, err := db.Query("SELECT " + projectColumns + " FROM projects ORDER BY seq")
	if err != nil {
		return fmt.Errorf("querying projects: %w", err)
	}
	defer rows.Close()
	var records []projectJSON
	for rows.Next() {
		var r projectJSON
		if err := rows.Scan(&r.ProjectID, &r.Title, &r.Content, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return err
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	return writeJSONL(filepath.Join(dataDir, projectsJSONL), records)
}
