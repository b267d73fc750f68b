package sqlite

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadJSONL(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file reads empty", func(t *testing.T) {
		records, err := readJSONL(filepath.Join(dir, "nope.jsonl"))
		require.NoError(t, err)
		assert.Empty(t, records)
	})

	t.Run("blank and malformed lines are skipped", func(t *testing.T) {
		path := filepath.Join(dir, "mixed.jsonl")
		body := "{\"name\":\"a\"}\n\nnot json\n{\"name\":\"b\"}\n{\"name\":\n"
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

		records, err := readJSONL(path)
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.JSONEq(t, `{"name":"a"}`, string(records[0]))
		assert.JSONEq(t, `{"name":"b"}`, string(records[1]))
	})
}

func TestWriteJSONL_ReplacesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, columnsJSONL)
	require.NoError(t, os.WriteFile(path, []byte("stale\n"), 0o644))

	rows := []columnJSON{
		{ProjectID: "p1", Name: "unscheduled", Ordinal: 0},
		{ProjectID: "p1", Name: "Pickups & <reshoots>", Ordinal: 1},
	}
	require.NoError(t, writeJSONL(path, rows))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t,
		"{\"project_id\":\"p1\",\"name\":\"unscheduled\",\"ordinal\":0}\n"+
			"{\"project_id\":\"p1\",\"name\":\"Pickups & <reshoots>\",\"ordinal\":1}\n",
		string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file left behind")
}

func TestInitJSONLFiles_KeepsExisting(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, scenesJSONL)
	require.NoError(t, os.WriteFile(existing, []byte("{}\n"), 0o644))

	require.NoError(t, initJSONLFiles(dir))

	for _, name := range []string{projectsJSONL, scenesJSONL, fieldsJSONL, columnsJSONL} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}
	data, _ := os.ReadFile(existing)
	assert.Equal(t, "{}\n", string(data))
}

func TestNormalizeValues(t *testing.T) {
	in := map[string]any{
		"multi":  []any{"Lamp", "Chair"},
		"single": "A",
		"mixed":  []any{"x", 1.0},
	}
	out := normalizeValues(in)
	assert.Equal(t, []string{"Lamp", "Chair"}, out["multi"])
	assert.Equal(t, "A", out["single"])
	assert.Equal(t, []any{"x", 1.0}, out["mixed"])
	assert.Nil(t, normalizeValues(map[string]any{}))
}

func TestTimeRoundTrip(t *testing.T) {
	now := time.Date(2026, 3, 4, 5, 6, 7, 890, time.FixedZone("X", 3600))
	assert.True(t, parseTime(formatTime(now)).Equal(now))
	assert.True(t, parseTime("garbage").IsZero())
}
