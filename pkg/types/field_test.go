package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldDefinitionValidate(t *testing.T) {
	tests := []struct {
		name    string
		def     FieldDefinition
		wantErr error
	}{
		{
			name: "short text",
			def:  FieldDefinition{Name: "Notes", Type: FieldShortText},
		},
		{
			name: "single select with options",
			def: FieldDefinition{Name: "Unit", Type: FieldSingleSelect, Options: []FieldOption{
				{Label: "A", Color: "red"}, {Label: "B", Color: "blue"},
			}},
		},
		{
			name:    "empty name",
			def:     FieldDefinition{Name: "  ", Type: FieldShortText},
			wantErr: ErrInvalidName,
		},
		{
			name:    "unknown type",
			def:     FieldDefinition{Name: "Rating", Type: "number"},
			wantErr: ErrInvalidFieldType,
		},
		{
			name: "duplicate option",
			def: FieldDefinition{Name: "Unit", Type: FieldMultiSelect, Options: []FieldOption{
				{Label: "A"}, {Label: "A"},
			}},
			wantErr: ErrInvalidOption,
		},
		{
			name: "blank option",
			def: FieldDefinition{Name: "Unit", Type: FieldMultiSelect, Options: []FieldOption{
				{Label: " "},
			}},
			wantErr: ErrInvalidOption,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.def.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestFieldDefinitionNormalizeDropsOptionsForText(t *testing.T) {
	def := FieldDefinition{Name: " Notes ", Type: FieldLongText, Options: []FieldOption{{Label: "x"}}}
	def.Normalize()
	assert.Equal(t, "Notes", def.Name)
	assert.Nil(t, def.Options)
}

func TestFieldDefinitionCheckValue(t *testing.T) {
	sel := FieldDefinition{Name: "Unit", Type: FieldSingleSelect, Options: []FieldOption{{Label: "A"}, {Label: "B"}}}
	multi := FieldDefinition{Name: "Tags", Type: FieldMultiSelect, Options: []FieldOption{{Label: "A"}, {Label: "B"}}}
	text := FieldDefinition{Name: "Notes", Type: FieldShortText}
	archivedAt := time.Now()
	archived := FieldDefinition{Name: "Old", Type: FieldShortText, ArchivedAt: &archivedAt}

	tests := []struct {
		name    string
		def     FieldDefinition
		value   any
		want    any
		wantErr error
	}{
		{name: "text ok", def: text, value: "hello", want: "hello"},
		{name: "text wrong type", def: text, value: 3, wantErr: ErrTypeMismatch},
		{name: "single option", def: sel, value: "B", want: "B"},
		{name: "single clear", def: sel, value: "", want: ""},
		{name: "single unknown", def: sel, value: "Z", wantErr: ErrInvalidOption},
		{name: "multi strings", def: multi, value: []string{"A", "B"}, want: []string{"A", "B"}},
		{name: "multi from json", def: multi, value: []any{"A"}, want: []string{"A"}},
		{name: "multi unknown", def: multi, value: []string{"A", "Z"}, wantErr: ErrInvalidOption},
		{name: "multi scalar", def: multi, value: "A", wantErr: ErrTypeMismatch},
		{name: "archived", def: archived, value: "x", wantErr: ErrFieldArchived},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.def.CheckValue(tt.value)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsUserError(t *testing.T) {
	assert.True(t, IsUserError(&StoreError{Op: "update", Err: ErrNotFound}))
	assert.True(t, IsUserError(ErrUnknownColumn))
	assert.False(t, IsUserError(ErrStoreDetached))
	assert.False(t, IsUserError(nil))
}
