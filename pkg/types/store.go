package types

import "context"

// Store is the document store behind every project board. A Store must be
// attached before its tables are used and detached when done.
type Store interface {
	Attach(config Config) error
	Detach() error
	Scenes() (SceneTable, error)
	Fields() (FieldTable, error)
	Columns() (ColumnTable, error)
	Projects() (ProjectTable, error)
}

// SceneTable holds the scenes of every project.
type SceneTable interface {
	Create(ctx context.Context, projectID string, draft SceneDraft) (string, error)
	// CreateBatch writes every draft or none of them.
	CreateBatch(ctx context.Context, projectID string, drafts []SceneDraft) ([]string, error)
	Get(ctx context.Context, projectID, id string) (*Scene, error)
	// List returns scenes in insertion order.
	List(ctx context.Context, projectID string) ([]Scene, error)
	// Update writes only the fields set in patch.
	Update(ctx context.Context, projectID, id string, patch ScenePatch) error
	Delete(ctx context.Context, projectID, id string) error
	// Subscribe calls fn with the full scene list now and after every
	// committed change to the project, until the subscription is closed.
	Subscribe(projectID string, fn func([]Scene)) (Subscription, error)
}

// FieldTable holds custom field definitions.
type FieldTable interface {
	Create(ctx context.Context, projectID string, def FieldDefinition) (string, error)
	Update(ctx context.Context, projectID string, def FieldDefinition) error
	Get(ctx context.Context, projectID, id string) (*FieldDefinition, error)
	List(ctx context.Context, projectID string, includeArchived bool) ([]FieldDefinition, error)
	Archive(ctx context.Context, projectID, id string) error
}

// ColumnTable holds each project's ordered board columns. A project that
// has never been written has DefaultColumns.
type ColumnTable interface {
	List(ctx context.Context, projectID string) ([]string, error)
	Add(ctx context.Context, projectID, name string) (AddOutcome, error)
}

// ProjectTable is the project registry. Scene, field and column tables
// accept any valid project ID; registering a project gives it a title and
// a stored script.
type ProjectTable interface {
	// Create registers a project. A blank id gets a generated one.
	Create(ctx context.Context, id, title string) (string, error)
	Get(ctx context.Context, id string) (*Project, error)
	// List returns projects in registration order, without their scripts.
	List(ctx context.Context) ([]Project, error)
	Rename(ctx context.Context, id, title string) error
	// Delete removes the project with its scenes, fields and columns.
	Delete(ctx context.Context, id string) error
	// SaveScript stores the project's script text, registering the project
	// under its ID when it is not yet known.
	SaveScript(ctx context.Context, id, content string) error
}

// Subscription is a live snapshot feed. Close is idempotent.
type Subscription interface {
	Close() error
}
