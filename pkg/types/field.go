package types

import (
	"fmt"
	"strings"
	"time"
)

// FieldType is the kind of value a custom field holds.
type FieldType string

const (
	FieldShortText    FieldType = "short_text"
	FieldLongText     FieldType = "long_text"
	FieldSingleSelect FieldType = "single_select"
	FieldMultiSelect  FieldType = "multi_select"
)

var validFieldTypes = map[FieldType]bool{
	FieldShortText:    true,
	FieldLongText:     true,
	FieldSingleSelect: true,
	FieldMultiSelect:  true,
}

// Valid reports whether t is a recognized field type.
func (t FieldType) Valid() bool { return validFieldTypes[t] }

// IsSelect reports whether values of t are drawn from an option list.
func (t FieldType) IsSelect() bool {
	return t == FieldSingleSelect || t == FieldMultiSelect
}

// FieldOption is one choice of a select field.
type FieldOption struct {
	Label string `json:"label"`
	Color string `json:"color"`
}

// FieldDefinition describes a per-project custom field. Archived fields
// keep their stored values but accept no new writes.
type FieldDefinition struct {
	ID         string        `json:"id"`
	ProjectID  string        `json:"project_id"`
	Name       string        `json:"name"`
	Type       FieldType     `json:"type"`
	Options    []FieldOption `json:"options,omitempty"`
	ArchivedAt *time.Time    `json:"archived_at,omitempty"`
	CreatedAt  time.Time     `json:"created_at"`
}

// Archived reports whether the field has been deleted from the board.
func (f FieldDefinition) Archived() bool { return f.ArchivedAt != nil }

// Normalize trims the name and option labels and drops options from
// non-select fields.
func (f *FieldDefinition) Normalize() {
	f.Name = strings.TrimSpace(f.Name)
	if !f.Type.IsSelect() {
		f.Options = nil
		return
	}
	for i := range f.Options {
		f.Options[i].Label = strings.TrimSpace(f.Options[i].Label)
		f.Options[i].Color = strings.TrimSpace(f.Options[i].Color)
	}
}

// Validate checks the definition after Normalize.
func (f FieldDefinition) Validate() error {
	if strings.TrimSpace(f.Name) == "" {
		return ErrInvalidName
	}
	if !f.Type.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidFieldType, f.Type)
	}
	seen := make(map[string]bool, len(f.Options))
	for _, o := range f.Options {
		label := strings.TrimSpace(o.Label)
		if label == "" {
			return fmt.Errorf("%w: empty label", ErrInvalidOption)
		}
		if seen[label] {
			return fmt.Errorf("%w: duplicate label %q", ErrInvalidOption, label)
		}
		seen[label] = true
	}
	return nil
}

func (f FieldDefinition) hasOption(label string) bool {
	for _, o := range f.Options {
		if o.Label == label {
			return true
		}
	}
	return false
}

// CheckValue verifies that v has the shape this field accepts and returns
// it in canonical form: a string for text and single-select fields, a
// []string for multi-select. Values decoded from JSON ([]any of strings)
// are accepted for multi-select.
func (f FieldDefinition) CheckValue(v any) (any, error) {
	if f.Archived() {
		return nil, ErrFieldArchived
	}
	switch f.Type {
	case FieldShortText, FieldLongText:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("%w: %s wants text, got %T", ErrTypeMismatch, f.Name, v)
		}
		return s, nil
	case FieldSingleSelect:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("%w: %s wants one option, got %T", ErrTypeMismatch, f.Name, v)
		}
		if s != "" && !f.hasOption(s) {
			return nil, fmt.Errorf("%w: %q is not an option of %s", ErrInvalidOption, s, f.Name)
		}
		return s, nil
	case FieldMultiSelect:
		labels, err := stringList(v)
		if err != nil {
			return nil, fmt.Errorf("%w: %s wants a list of options", ErrTypeMismatch, f.Name)
		}
		for _, l := range labels {
			if !f.hasOption(l) {
				return nil, fmt.Errorf("%w: %q is not an option of %s", ErrInvalidOption, l, f.Name)
			}
		}
		return labels, nil
	default:
		return nil, ErrInvalidFieldType
	}
}

func stringList(v any) ([]string, error) {
	switch list := v.(type) {
	case []string:
		return cloneStrings(list), nil
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			s, ok := item.(string)
			if !ok {
				return nil, ErrTypeMismatch
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, ErrTypeMismatch
	}
}
