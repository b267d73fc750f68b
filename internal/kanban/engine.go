// Package kanban implements the production board: grouping scenes into
// status columns, sorting and filtering them, and turning board gestures
// into store updates.
//
// The pure functions (ApplyDateRule, SortScenes, FilterByCharacter,
// Columnize, DuplicateDraft) never fail. Engine keeps a live snapshot of
// one project and issues writes through the store.
package kanban

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/mesh-intelligence/slate/internal/logging"
	"github.com/mesh-intelligence/slate/pkg/types"
)

// Engine errors.
var (
	ErrNotStarted = errors.New("board engine not started")
	ErrNoAnalyzer = errors.New("no analyzer configured")
)

// TargetKind distinguishes what a card was dropped on.
type TargetKind int

const (
	TargetNone TargetKind = iota
	TargetColumn
	TargetCard
)

// DropTarget is the element under the pointer at the end of a drag.
type DropTarget struct {
	Kind TargetKind
	ID   string
}

// OnColumn is a drop on the named column.
func OnColumn(name string) DropTarget { return DropTarget{Kind: TargetColumn, ID: name} }

// OnCard is a drop on another scene card.
func OnCard(sceneID string) DropTarget { return DropTarget{Kind: TargetCard, ID: sceneID} }

// EditForm is a detail-view save: a bulk patch plus an optional manual
// complexity that overrides whatever the re-analysis returns.
type EditForm struct {
	Patch      types.ScenePatch
	Complexity types.Complexity
}

// Engine is the live board of one project. It is safe for concurrent use.
type Engine struct {
	projectID string
	store     types.Store
	analyzer  Analyzer
	logger    *slog.Logger
	alerter   Alerter

	scenes  types.SceneTable
	fields  types.FieldTable
	columns types.ColumnTable
	sub     types.Subscription

	mu       sync.RWMutex
	snapshot []types.Scene
	cols     *types.ColumnSet
	defs     map[string]types.FieldDefinition
	sortKey  SortKey
	filter   string
}

// New creates an engine for projectID. Call Start before use.
func New(projectID string, store types.Store, opts ...Option) *Engine {
	e := &Engine{
		projectID: projectID,
		store:     store,
		logger:    logging.NewNop(),
		alerter:   AlertFunc(func(string) {}),
		cols:      types.NewColumnSet(types.DefaultColumns...),
		defs:      make(map[string]types.FieldDefinition),
		sortKey:   SortSceneNumber,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With(slog.String(logging.FieldComponent, "kanban"), slog.String("project", projectID))
	return e
}

// ProjectID returns the project this engine serves.
func (e *Engine) ProjectID() string { return e.projectID }

// Start loads columns and field definitions and subscribes to the
// project's scenes. The first snapshot has arrived when Start returns.
func (e *Engine) Start(ctx context.Context) error {
	if strings.TrimSpace(e.projectID) == "" {
		return types.ErrInvalidProject
	}
	scenes, err := e.store.Scenes()
	if err != nil {
		return fmt.Errorf("open scenes: %w", err)
	}
	fields, err := e.store.Fields()
	if err != nil {
		return fmt.Errorf("open fields: %w", err)
	}
	columns, err := e.store.Columns()
	if err != nil {
		return fmt.Errorf("open columns: %w", err)
	}

	names, err := columns.List(ctx, e.projectID)
	if err != nil {
		return fmt.Errorf("load columns: %w", err)
	}
	defs, err := fields.List(ctx, e.projectID, true)
	if err != nil {
		return fmt.Errorf("load fields: %w", err)
	}

	e.mu.Lock()
	e.scenes, e.fields, e.columns = scenes, fields, columns
	e.cols = types.NewColumnSet(names...)
	e.defs = make(map[string]types.FieldDefinition, len(defs))
	for _, d := range defs {
		e.defs[d.ID] = d
	}
	e.mu.Unlock()

	sub, err := scenes.Subscribe(e.projectID, e.replace)
	if err != nil {
		return fmt.Errorf("subscribe scenes: %w", err)
	}
	e.mu.Lock()
	e.sub = sub
	e.mu.Unlock()
	return nil
}

// Close releases the scene subscription. It is safe to call twice.
func (e *Engine) Close() error {
	e.mu.Lock()
	sub := e.sub
	e.sub = nil
	e.mu.Unlock()
	if sub == nil {
		return nil
	}
	return sub.Close()
}

// replace installs a store snapshot, discarding any optimistic state.
func (e *Engine) replace(scenes []types.Scene) {
	e.mu.Lock()
	e.snapshot = scenes
	e.mu.Unlock()
	e.logger.Debug("snapshot received", slog.Int("scenes", len(scenes)))
}

// SetSort changes the board sort key.
func (e *Engine) SetSort(key SortKey) error {
	k, err := ParseSortKey(string(key))
	if err != nil {
		return err
	}
	e.mu.Lock()
	e.sortKey = k
	e.mu.Unlock()
	return nil
}

// SortKey returns the current sort key.
func (e *Engine) SortKey() SortKey {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.sortKey
}

// SetFilter restricts the board to scenes featuring name. Empty clears.
func (e *Engine) SetFilter(name string) {
	e.mu.Lock()
	e.filter = name
	e.mu.Unlock()
}

// Filter returns the current character filter.
func (e *Engine) Filter() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.filter
}

// Board renders the snapshot with the engine's sort key and filter.
func (e *Engine) Board() Board {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return Columnize(e.snapshot, e.cols.Names(), e.sortKey, e.filter)
}

// View renders the snapshot with an explicit sort key and filter,
// leaving the engine's own settings untouched.
func (e *Engine) View(key SortKey, filter string) Board {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return Columnize(e.snapshot, e.cols.Names(), key, filter)
}

// Scenes returns a copy of the current snapshot in store order.
func (e *Engine) Scenes() []types.Scene {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]types.Scene, len(e.snapshot))
	for i, s := range e.snapshot {
		out[i] = s.Clone()
	}
	return out
}

// Scene returns the scene with id from the snapshot.
func (e *Engine) Scene(id string) (types.Scene, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	i := e.indexLocked(id)
	if i < 0 {
		return types.Scene{}, false
	}
	return e.snapshot[i].Clone(), true
}

// Columns returns the board columns in order.
func (e *Engine) Columns() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.cols.Names()
}

// Characters returns every character name on the board.
func (e *Engine) Characters() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return Characters(e.snapshot)
}

// Fields returns the live (non-archived) custom field definitions.
func (e *Engine) Fields() []types.FieldDefinition {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]types.FieldDefinition, 0, len(e.defs))
	for _, d := range e.defs {
		if !d.Archived() {
			out = append(out, d)
		}
	}
	sortFields(out)
	return out
}

// DragEnd handles the end of a card drag. Only a drop on a live column
// writes anything: exactly one status update. It reports whether an
// update was issued.
func (e *Engine) DragEnd(ctx context.Context, sceneID string, target DropTarget) (bool, error) {
	if target.Kind != TargetColumn {
		return false, nil
	}
	e.mu.RLock()
	live := e.cols.Contains(target.ID)
	e.mu.RUnlock()
	if !live {
		return false, nil
	}
	status := target.ID
	return true, e.Update(ctx, sceneID, types.ScenePatch{Status: &status})
}

// Update validates patch, applies it to the local snapshot and writes it.
// Setting a shoot date on an unscheduled scene also schedules it. A failed
// write is logged and alerted; the local change stays until the next
// snapshot replaces it.
func (e *Engine) Update(ctx context.Context, sceneID string, patch types.ScenePatch) error {
	if e.scenes == nil {
		return ErrNotStarted
	}
	current, ok := e.Scene(sceneID)
	if !ok {
		return fmt.Errorf("update scene %s: %w", sceneID, types.ErrNotFound)
	}

	patch = ApplyDateRule(current, patch)
	patch, err := e.validate(patch)
	if err != nil {
		return err
	}
	if patch.IsEmpty() {
		return nil
	}

	e.applyLocal(sceneID, patch)
	if err := e.scenes.Update(ctx, e.projectID, sceneID, patch); err != nil {
		e.fail("update scene", sceneID, err)
		return err
	}
	return nil
}

// validate checks a patch against the live columns and field definitions
// and returns it with custom values and time of day in canonical form.
func (e *Engine) validate(patch types.ScenePatch) (types.ScenePatch, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if patch.Status != nil && !e.cols.Contains(*patch.Status) {
		return patch, fmt.Errorf("%w: %q", types.ErrUnknownColumn, *patch.Status)
	}
	if patch.ShootDate != nil && !types.ValidShootDate(*patch.ShootDate) {
		return patch, fmt.Errorf("%w: %q", types.ErrInvalidShootDate, *patch.ShootDate)
	}
	if patch.TimeOfDay != nil {
		tod, _ := types.ParseTimeOfDay(string(*patch.TimeOfDay))
		patch.TimeOfDay = &tod
	}
	if len(patch.CustomFieldValues) > 0 {
		values := make(map[string]any, len(patch.CustomFieldValues))
		for id, v := range patch.CustomFieldValues {
			if v == nil {
				values[id] = nil
				continue
			}
			def, ok := e.defs[id]
			if !ok {
				return patch, fmt.Errorf("%w: %s", types.ErrFieldNotFound, id)
			}
			canon, err := def.CheckValue(v)
			if err != nil {
				return patch, err
			}
			values[id] = canon
		}
		patch.CustomFieldValues = values
	}
	return patch, nil
}

func (e *Engine) applyLocal(sceneID string, patch types.ScenePatch) {
	e.mu.Lock()
	defer e.mu.Unlock()
	i := e.indexLocked(sceneID)
	if i < 0 {
		return
	}
	next := make([]types.Scene, len(e.snapshot))
	copy(next, e.snapshot)
	s := next[i].Clone()
	s.Apply(patch)
	next[i] = s
	e.snapshot = next
}

// CreateScene adds a manual scene. A blank scene number becomes the next
// position on the board and a blank status becomes unscheduled.
func (e *Engine) CreateScene(ctx context.Context, draft types.SceneDraft) (string, error) {
	if e.scenes == nil {
		return "", ErrNotStarted
	}
	e.mu.RLock()
	if strings.TrimSpace(draft.SceneNumber) == "" {
		draft.SceneNumber = strconv.Itoa(len(e.snapshot) + 1)
	}
	if draft.Status == "" {
		draft.Status = types.StatusUnscheduled
	}
	live := e.cols.Contains(draft.Status)
	e.mu.RUnlock()

	if !live {
		return "", fmt.Errorf("%w: %q", types.ErrUnknownColumn, draft.Status)
	}
	if !types.ValidShootDate(draft.ShootDate) {
		return "", fmt.Errorf("%w: %q", types.ErrInvalidShootDate, draft.ShootDate)
	}
	if draft.Characters == nil {
		draft.Characters = []string{}
	}

	id, err := e.scenes.Create(ctx, e.projectID, draft)
	if err != nil {
		e.fail("create scene", "", err)
		return "", err
	}
	return id, nil
}

// Edit saves a detail-view form. The body is re-analyzed; if analysis
// fails the previous analysis is kept, and a manual complexity replaces
// the analyzed one.
func (e *Engine) Edit(ctx context.Context, sceneID string, form EditForm) error {
	current, ok := e.Scene(sceneID)
	if !ok {
		return fmt.Errorf("edit scene %s: %w", sceneID, types.ErrNotFound)
	}
	patch := form.Patch

	body := current.Body
	if patch.Body != nil {
		body = *patch.Body
	}
	analysis := current.Analysis
	if e.analyzer != nil {
		if fresh, ok := e.analyzer.Analyze(ctx, body); ok {
			analysis = fresh
		}
	}
	if form.Complexity != "" {
		if analysis == nil {
			analysis = &types.Analysis{}
		} else {
			analysis = analysis.Clone()
		}
		analysis.Complexity = form.Complexity
	}
	if analysis != nil {
		patch.Analysis = analysis
	}
	return e.Update(ctx, sceneID, patch)
}

// Analyze runs the analyzer on a scene and writes the result, including
// the time of day when the analysis has one. It reports false when no
// analysis was produced.
func (e *Engine) Analyze(ctx context.Context, sceneID string) (bool, error) {
	if e.analyzer == nil {
		return false, ErrNoAnalyzer
	}
	current, ok := e.Scene(sceneID)
	if !ok {
		return false, fmt.Errorf("analyze scene %s: %w", sceneID, types.ErrNotFound)
	}
	analysis, ok := e.analyzer.Analyze(ctx, current.Body)
	if !ok || analysis == nil {
		e.logger.Info("analysis produced no result", slog.String("scene", sceneID))
		return false, nil
	}
	patch := types.ScenePatch{Analysis: analysis}
	if analysis.TimeOfDay != "" {
		tod := analysis.TimeOfDay
		patch.TimeOfDay = &tod
	}
	return true, e.Update(ctx, sceneID, patch)
}

// Duplicate copies a scene into a new unscheduled scene.
func (e *Engine) Duplicate(ctx context.Context, sceneID string) (string, error) {
	if e.scenes == nil {
		return "", ErrNotStarted
	}
	current, ok := e.Scene(sceneID)
	if !ok {
		return "", fmt.Errorf("duplicate scene %s: %w", sceneID, types.ErrNotFound)
	}
	id, err := e.scenes.Create(ctx, e.projectID, DuplicateDraft(current))
	if err != nil {
		e.fail("duplicate scene", sceneID, err)
		return "", err
	}
	return id, nil
}

// Delete removes a scene from the board and the store.
func (e *Engine) Delete(ctx context.Context, sceneID string) error {
	if e.scenes == nil {
		return ErrNotStarted
	}
	e.mu.Lock()
	i := e.indexLocked(sceneID)
	if i < 0 {
		e.mu.Unlock()
		return fmt.Errorf("delete scene %s: %w", sceneID, types.ErrNotFound)
	}
	next := make([]types.Scene, 0, len(e.snapshot)-1)
	next = append(next, e.snapshot[:i]...)
	next = append(next, e.snapshot[i+1:]...)
	e.snapshot = next
	e.mu.Unlock()

	if err := e.scenes.Delete(ctx, e.projectID, sceneID); err != nil {
		e.fail("delete scene", sceneID, err)
		return err
	}
	return nil
}

// AddColumn appends a column. A name already on the board (ignoring case)
// is reported as ColumnDuplicate and nothing is written.
func (e *Engine) AddColumn(ctx context.Context, name string) (types.AddOutcome, error) {
	if e.columns == nil {
		return types.ColumnDuplicate, ErrNotStarted
	}
	e.mu.Lock()
	outcome, err := e.cols.Add(name)
	e.mu.Unlock()
	if err != nil || outcome == types.ColumnDuplicate {
		return outcome, err
	}
	if _, err := e.columns.Add(ctx, e.projectID, name); err != nil {
		e.fail("add column", "", err)
		return outcome, err
	}
	return outcome, nil
}

// DefineField creates a custom field definition for the project.
func (e *Engine) DefineField(ctx context.Context, def types.FieldDefinition) (string, error) {
	if e.fields == nil {
		return "", ErrNotStarted
	}
	def.Normalize()
	if err := def.Validate(); err != nil {
		return "", err
	}
	id, err := e.fields.Create(ctx, e.projectID, def)
	if err != nil {
		e.fail("create field", "", err)
		return "", err
	}
	stored, err := e.fields.Get(ctx, e.projectID, id)
	if err != nil {
		return id, err
	}
	e.mu.Lock()
	e.defs[id] = *stored
	e.mu.Unlock()
	return id, nil
}

// ArchiveField removes a custom field from the board. Stored values stay
// on the scenes but the field accepts no new values.
func (e *Engine) ArchiveField(ctx context.Context, fieldID string) error {
	if e.fields == nil {
		return ErrNotStarted
	}
	if err := e.fields.Archive(ctx, e.projectID, fieldID); err != nil {
		if !errors.Is(err, types.ErrFieldNotFound) {
			e.fail("archive field", fieldID, err)
		}
		return err
	}
	stored, err := e.fields.Get(ctx, e.projectID, fieldID)
	if err != nil {
		return err
	}
	e.mu.Lock()
	e.defs[fieldID] = *stored
	e.mu.Unlock()
	return nil
}

func (e *Engine) indexLocked(id string) int {
	for i := range e.snapshot {
		if e.snapshot[i].ID == id {
			return i
		}
	}
	return -1
}

func (e *Engine) fail(op, id string, err error) {
	e.logger.Error(op+" failed", slog.String("scene", id), slog.Any("error", err))
	e.alerter.Alert(fmt.Sprintf("%s failed: %v", op, err))
}
