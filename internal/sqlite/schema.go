package sqlite

// Data files in the data directory. JSONL is the source of truth; the
// SQLite database is rebuilt from it on every Attach.
const (
	scenesJSONL   = "scenes.jsonl"
	fieldsJSONL   = "custom_fields.jsonl"
	columnsJSONL  = "columns.jsonl"
	projectsJSONL = "projects.jsonl"

	dbFile   = "slate.db"
	lockFile = "slate.lock"
)

const (
	tableScenes   = "scenes"
	tableFields   = "custom_fields"
	tableColumns  = "board_columns"
	tableProjects = "projects"
)

// seq columns preserve insertion order, which is the order snapshots and
// lists are returned in.
const schemaSQL = `
CREATE TABLE scenes (
    seq INTEGER PRIMARY KEY AUTOINCREMENT,
    scene_id TEXT NOT NULL UNIQUE,
    project_id TEXT NOT NULL,
    scene_number TEXT NOT NULL,
    slugline TEXT NOT NULL,
    body TEXT NOT NULL,
    status TEXT NOT NULL,
    completed INTEGER NOT NULL DEFAULT 0,
    shoot_date TEXT NOT NULL DEFAULT '',
    time_of_day TEXT NOT NULL DEFAULT '',
    characters TEXT NOT NULL DEFAULT '[]',
    analysis TEXT,
    custom_field_values TEXT NOT NULL DEFAULT '{}',
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);
CREATE INDEX idx_scenes_project ON scenes(project_id, seq);

CREATE TABLE custom_fields (
    seq INTEGER PRIMARY KEY AUTOINCREMENT,
    field_id TEXT NOT NULL UNIQUE,
    project_id TEXT NOT NULL,
    name TEXT NOT NULL,
    field_type TEXT NOT NULL,
    options TEXT NOT NULL DEFAULT '[]',
    archived_at TEXT,
    created_at TEXT NOT NULL
);
CREATE INDEX idx_fields_project ON custom_fields(project_id, seq);

CREATE TABLE board_columns (
    project_id TEXT NOT NULL,
    name TEXT NOT NULL,
    ordinal INTEGER NOT NULL,
    PRIMARY KEY (project_id, name)
);

CREATE TABLE projects (
    seq INTEGER PRIMARY KEY AUTOINCREMENT,
    project_id TEXT NOT NULL UNIQUE,
    title TEXT NOT NULL,
    content TEXT NOT NULL DEFAULT '',
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);
`
