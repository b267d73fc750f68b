package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mesh-intelligence/slate/pkg/types"
)

// Record structures mirroring the JSONL file format.

// sceneJSON is one line of scenes.jsonl.
type sceneJSON struct {
	SceneID           string          `json:"scene_id"`
	ProjectID         string          `json:"project_id"`
	SceneNumber       string          `json:"scene_number"`
	Slugline          string          `json:"slugline"`
	Body              string          `json:"body"`
	Status            string          `json:"status"`
	Completed         bool            `json:"completed"`
	ShootDate         string          `json:"shoot_date"`
	TimeOfDay         string          `json:"time_of_day"`
	Characters        []string        `json:"characters"`
	Analysis          *types.Analysis `json:"analysis"`
	CustomFieldValues map[string]any  `json:"custom_field_values"`
	CreatedAt         string          `json:"created_at"`
	UpdatedAt         string          `json:"updated_at"`
}

// fieldJSON is one line of custom_fields.jsonl.
type fieldJSON struct {
	FieldID    string              `json:"field_id"`
	ProjectID  string              `json:"project_id"`
	Name       string              `json:"name"`
	FieldType  string              `json:"field_type"`
	Options    []types.FieldOption `json:"options"`
	ArchivedAt *string             `json:"archived_at"`
	CreatedAt  string              `json:"created_at"`
}

// columnJSON is one line of columns.jsonl.
type columnJSON struct {
	ProjectID string `json:"project_id"`
	Name      string `json:"name"`
	Ordinal   int    `json:"ordinal"`
}

// projectJSON is one line of projects.jsonl.
type projectJSON struct {
	ProjectID string `json:"project_id"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func (r projectJSON) project() types.Project {
	return types.Project{
		ID:        r.ProjectID,
		Title:     r.Title,
		Content:   r.Content,
		CreatedAt: parseTime(r.CreatedAt),
		UpdatedAt: parseTime(r.UpdatedAt),
	}
}

const projectColumns = "project_id, title, content, created_at, updated_at"

const timeLayout = time.RFC3339Nano

func formatTime(t time.Time) string { return t.UTC().Format(timeLayout) }

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

type rowScanner interface {
	Scan(dest ...any) error
}

const sceneColumns = "scene_id, project_id, scene_number, slugline, body, status, completed, shoot_date, time_of_day, characters, analysis, custom_field_values, created_at, updated_at"

// hydrateScene converts a scenes row into a types.Scene.
func hydrateScene(row rowScanner) (types.Scene, error) {
	var (
		s                    types.Scene
		completed            int
		tod                  string
		characters, values   string
		analysis             sql.NullString
		createdAt, updatedAt string
	)
	err := row.Scan(&s.ID, &s.ProjectID, &s.SceneNumber, &s.Slugline, &s.Body, &s.Status,
		&completed, &s.ShootDate, &tod, &characters, &analysis, &values, &createdAt, &updatedAt)
	if err != nil {
		return s, err
	}
	s.Completed = completed != 0
	s.TimeOfDay = types.TimeOfDay(tod)
	s.CreatedAt = parseTime(createdAt)
	s.UpdatedAt = parseTime(updatedAt)
	s.Characters = []string{}
	if err := json.Unmarshal([]byte(characters), &s.Characters); err != nil {
		return s, fmt.Errorf("decode characters: %w", err)
	}
	if analysis.Valid && analysis.String != "" {
		s.Analysis = &types.Analysis{}
		if err := json.Unmarshal([]byte(analysis.String), s.Analysis); err != nil {
			return s, fmt.Errorf("decode analysis: %w", err)
		}
	}
	if err := json.Unmarshal([]byte(values), &s.CustomFieldValues); err != nil {
		return s, fmt.Errorf("decode custom field values: %w", err)
	}
	s.CustomFieldValues = normalizeValues(s.CustomFieldValues)
	return s, nil
}

// dehydrateScene returns the column values for s in sceneColumns order.
func dehydrateScene(s types.Scene) ([]any, error) {
	characters := s.Characters
	if characters == nil {
		characters = []string{}
	}
	chars, err := json.Marshal(characters)
	if err != nil {
		return nil, fmt.Errorf("encode characters: %w", err)
	}
	var analysis any
	if s.Analysis != nil {
		b, err := json.Marshal(s.Analysis)
		if err != nil {
			return nil, fmt.Errorf("encode analysis: %w", err)
		}
		analysis = string(b)
	}
	values := s.CustomFieldValues
	if values == nil {
		values = map[string]any{}
	}
	vals, err := json.Marshal(values)
	if err != nil {
		return nil, fmt.Errorf("encode custom field values: %w", err)
	}
	completed := 0
	if s.Completed {
		completed = 1
	}
	return []any{
		s.ID, s.ProjectID, s.SceneNumber, s.Slugline, s.Body, s.Status, completed,
		s.ShootDate, string(s.TimeOfDay), string(chars), analysis, string(vals),
		formatTime(s.CreatedAt), formatTime(s.UpdatedAt),
	}, nil
}

func sceneRecord(s types.Scene) sceneJSON {
	chars := s.Characters
	if chars == nil {
		chars = []string{}
	}
	values := s.CustomFieldValues
	if values == nil {
		values = map[string]any{}
	}
	return sceneJSON{
		SceneID: s.ID, ProjectID: s.ProjectID, SceneNumber: s.SceneNumber,
		Slugline: s.Slugline, Body: s.Body, Status: s.Status, Completed: s.Completed,
		ShootDate: s.ShootDate, TimeOfDay: string(s.TimeOfDay), Characters: chars,
		Analysis: s.Analysis, CustomFieldValues: values,
		CreatedAt: formatTime(s.CreatedAt), UpdatedAt: formatTime(s.UpdatedAt),
	}
}

func (r sceneJSON) scene() types.Scene {
	return types.Scene{
		ID: r.SceneID, ProjectID: r.ProjectID, SceneNumber: r.SceneNumber,
		Slugline: r.Slugline, Body: r.Body, Status: r.Status, Completed: r.Completed,
		ShootDate: r.ShootDate, TimeOfDay: types.TimeOfDay(r.TimeOfDay),
		Characters: r.Characters, Analysis: r.Analysis,
		CustomFieldValues: r.CustomFieldValues,
		CreatedAt:         parseTime(r.CreatedAt), UpdatedAt: parseTime(r.UpdatedAt),
	}
}

const fieldColumns = "field_id, project_id, name, field_type, options, archived_at, created_at"

func hydrateField(row rowScanner) (types.FieldDefinition, error) {
	var (
		f                  types.FieldDefinition
		fieldType, options string
		archivedAt         sql.NullString
		createdAt          string
	)
	if err := row.Scan(&f.ID, &f.ProjectID, &f.Name, &fieldType, &options, &archivedAt, &createdAt); err != nil {
		return f, err
	}
	f.Type = types.FieldType(fieldType)
	f.CreatedAt = parseTime(createdAt)
	if archivedAt.Valid {
		t := parseTime(archivedAt.String)
		f.ArchivedAt = &t
	}
	if err := json.Unmarshal([]byte(options), &f.Options); err != nil {
		return f, fmt.Errorf("decode options: %w", err)
	}
	if len(f.Options) == 0 {
		f.Options = nil
	}
	return f, nil
}

func dehydrateField(f types.FieldDefinition) ([]any, error) {
	opts := f.Options
	if opts == nil {
		opts = []types.FieldOption{}
	}
	b, err := json.Marshal(opts)
	if err != nil {
		return nil, fmt.Errorf("encode options: %w", err)
	}
	var archived any
	if f.ArchivedAt != nil {
		archived = formatTime(*f.ArchivedAt)
	}
	return []any{f.ID, f.ProjectID, f.Name, string(f.Type), string(b), archived, formatTime(f.CreatedAt)}, nil
}

func fieldRecord(f types.FieldDefinition) fieldJSON {
	r := fieldJSON{
		FieldID: f.ID, ProjectID: f.ProjectID, Name: f.Name,
		FieldType: string(f.Type), Options: f.Options, CreatedAt: formatTime(f.CreatedAt),
	}
	if r.Options == nil {
		r.Options = []types.FieldOption{}
	}
	if f.ArchivedAt != nil {
		s := formatTime(*f.ArchivedAt)
		r.ArchivedAt = &s
	}
	return r
}

func (r fieldJSON) field() types.FieldDefinition {
	f := types.FieldDefinition{
		ID: r.FieldID, ProjectID: r.ProjectID, Name: r.Name,
		Type: types.FieldType(r.FieldType), Options: r.Options, CreatedAt: parseTime(r.CreatedAt),
	}
	if r.ArchivedAt != nil {
		t := parseTime(*r.ArchivedAt)
		f.ArchivedAt = &t
	}
	return f
}

// normalizeValues turns JSON-decoded string lists back into []string so
// multi-select values read the same as they were written.
func normalizeValues(values map[string]any) map[string]any {
	if len(values) == 0 {
		return nil
	}
	for k, v := range values {
		list, ok := v.([]any)
		if !ok {
			continue
		}
		strs := make([]string, 0, len(list))
		for _, item := range list {
			s, ok := item.(string)
			if !ok {
				strs = nil
				break
			}
			strs = append(strs, s)
		}
		if strs != nil {
			values[k] = strs
		}
	}
	return values
}
