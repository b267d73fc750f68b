package kanban

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mesh-intelligence/slate/pkg/types"
)

var errBackend = errors.New("backend unavailable")

// fakeStore is an in-memory types.Store for engine tests.
type fakeStore struct {
	mu       sync.Mutex
	scenes   []types.Scene
	columns  []string
	fields   map[string]types.FieldDefinition
	subs     map[int]func([]types.Scene)
	nextSub  int
	nextID   int
	failNext bool
	updates  []types.ScenePatch
}

func newFakeStore(scenes ...types.Scene) *fakeStore {
	return &fakeStore{
		scenes:  scenes,
		columns: append([]string(nil), types.DefaultColumns...),
		fields:  make(map[string]types.FieldDefinition),
		subs:    make(map[int]func([]types.Scene)),
	}
}

func (f *fakeStore) Attach(types.Config) error             { return nil }
func (f *fakeStore) Detach() error                         { return nil }
func (f *fakeStore) Scenes() (types.SceneTable, error)     { return fakeScenes{f}, nil }
func (f *fakeStore) Fields() (types.FieldTable, error)     { return fakeFields{f}, nil }
func (f *fakeStore) Columns() (types.ColumnTable, error)   { return fakeColumns{f}, nil }
func (f *fakeStore) Projects() (types.ProjectTable, error) { return nil, errBackend }
func (f *fakeStore) failOnce()                             { f.mu.Lock(); f.failNext = true; f.mu.Unlock() }
func (f *fakeStore) updateCount() int                      { f.mu.Lock(); defer f.mu.Unlock(); return len(f.updates) }

func (f *fakeStore) takeFailure() bool {
	if f.failNext {
		f.failNext = false
		return true
	}
	return false
}

// publish delivers a snapshot to subscribers. Callers must not hold mu.
func (f *fakeStore) publish() {
	f.mu.Lock()
	snap := make([]types.Scene, len(f.scenes))
	for i, s := range f.scenes {
		snap[i] = s.Clone()
	}
	fns := make([]func([]types.Scene), 0, len(f.subs))
	for _, fn := range f.subs {
		fns = append(fns, fn)
	}
	f.mu.Unlock()
	for _, fn := range fns {
		fn(snap)
	}
}

type fakeScenes struct{ f *fakeStore }

func (t fakeScenes) Create(ctx context.Context, projectID string, d types.SceneDraft) (string, error) {
	ids, err := t.CreateBatch(ctx, projectID, []types.SceneDraft{d})
	if err != nil {
		return "", err
	}
	return ids[0], nil
}

func (t fakeScenes) CreateBatch(_ context.Context, projectID string, drafts []types.SceneDraft) ([]string, error) {
	t.f.mu.Lock()
	if t.f.takeFailure() {
		t.f.mu.Unlock()
		return nil, &types.StoreError{Op: "create", ProjectID: projectID, Err: errBackend}
	}
	ids := make([]string, 0, len(drafts))
	for _, d := range drafts {
		t.f.nextID++
		id := fmt.Sprintf("new-%d", t.f.nextID)
		now := time.Now()
		t.f.scenes = append(t.f.scenes, types.Scene{
			ID: id, ProjectID: projectID, SceneNumber: d.SceneNumber, Slugline: d.Slugline,
			Body: d.Body, Status: d.Status, Completed: d.Completed, ShootDate: d.ShootDate,
			TimeOfDay: d.TimeOfDay, Characters: d.Characters, Analysis: d.Analysis,
			CustomFieldValues: d.CustomFieldValues, CreatedAt: now, UpdatedAt: now,
		})
		ids = append(ids, id)
	}
	t.f.mu.Unlock()
	t.f.publish()
	return ids, nil
}

func (t fakeScenes) Get(_ context.Context, _ string, id string) (*types.Scene, error) {
	t.f.mu.Lock()
	defer t.f.mu.Unlock()
	for _, s := range t.f.scenes {
		if s.ID == id {
			cp := s.Clone()
			return &cp, nil
		}
	}
	return nil, types.ErrNotFound
}

func (t fakeScenes) List(_ context.Context, _ string) ([]types.Scene, error) {
	t.f.mu.Lock()
	defer t.f.mu.Unlock()
	return append([]types.Scene(nil), t.f.scenes...), nil
}

func (t fakeScenes) Update(_ context.Context, projectID, id string, p types.ScenePatch) error {
	t.f.mu.Lock()
	t.f.updates = append(t.f.updates, p)
	if t.f.takeFailure() {
		t.f.mu.Unlock()
		return &types.StoreError{Op: "update", ProjectID: projectID, ID: id, Err: errBackend}
	}
	for i := range t.f.scenes {
		if t.f.scenes[i].ID == id {
			t.f.scenes[i].Apply(p)
			t.f.mu.Unlock()
			t.f.publish()
			return nil
		}
	}
	t.f.mu.Unlock()
	return types.ErrNotFound
}

func (t fakeScenes) Delete(_ context.Context, projectID, id string) error {
	t.f.mu.Lock()
	if t.f.takeFailure() {
		t.f.mu.Unlock()
		return &types.StoreError{Op: "delete", ProjectID: projectID, ID: id, Err: errBackend}
	}
	for i := range t.f.scenes {
		if t.f.scenes[i].ID == id {
			t.f.scenes = append(t.f.scenes[:i], t.f.scenes[i+1:]...)
			t.f.mu.Unlock()
			t.f.publish()
			return nil
		}
	}
	t.f.mu.Unlock()
	return types.ErrNotFound
}

type fakeSub struct {
	f  *fakeStore
	id int
}

func (s fakeSub) Close() error {
	s.f.mu.Lock()
	delete(s.f.subs, s.id)
	s.f.mu.Unlock()
	return nil
}

func (t fakeScenes) Subscribe(_ string, fn func([]types.Scene)) (types.Subscription, error) {
	t.f.mu.Lock()
	t.f.nextSub++
	id := t.f.nextSub
	t.f.subs[id] = fn
	t.f.mu.Unlock()
	t.f.publish()
	return fakeSub{t.f, id}, nil
}

type fakeFields struct{ f *fakeStore }

func (t fakeFields) Create(_ context.Context, projectID string, def types.FieldDefinition) (string, error) {
	t.f.mu.Lock()
	defer t.f.mu.Unlock()
	t.f.nextID++
	def.ID = fmt.Sprintf("field-%d", t.f.nextID)
	def.ProjectID = projectID
	def.CreatedAt = time.Now()
	t.f.fields[def.ID] = def
	return def.ID, nil
}

func (t fakeFields) Update(_ context.Context, _ string, def types.FieldDefinition) error {
	t.f.mu.Lock()
	defer t.f.mu.Unlock()
	t.f.fields[def.ID] = def
	return nil
}

func (t fakeFields) Get(_ context.Context, _ string, id string) (*types.FieldDefinition, error) {
	t.f.mu.Lock()
	defer t.f.mu.Unlock()
	def, ok := t.f.fields[id]
	if !ok {
		return nil, types.ErrNotFound
	}
	return &def, nil
}

func (t fakeFields) List(_ context.Context, _ string, includeArchived bool) ([]types.FieldDefinition, error) {
	t.f.mu.Lock()
	defer t.f.mu.Unlock()
	var out []types.FieldDefinition
	for _, d := range t.f.fields {
		if includeArchived || !d.Archived() {
			out = append(out, d)
		}
	}
	return out, nil
}

func (t fakeFields) Archive(_ context.Context, _ string, id string) error {
	t.f.mu.Lock()
	defer t.f.mu.Unlock()
	def, ok := t.f.fields[id]
	if !ok {
		return types.ErrNotFound
	}
	now := time.Now()
	def.ArchivedAt = &now
	t.f.fields[id] = def
	return nil
}

type fakeColumns struct{ f *fakeStore }

func (t fakeColumns) List(context.Context, string) ([]string, error) {
	t.f.mu.Lock()
	defer t.f.mu.Unlock()
	return append([]string(nil), t.f.columns...), nil
}

func (t fakeColumns) Add(_ context.Context, _ string, name string) (types.AddOutcome, error) {
	t.f.mu.Lock()
	defer t.f.mu.Unlock()
	if t.f.takeFailure() {
		return types.ColumnDuplicate, errBackend
	}
	cs := types.NewColumnSet(t.f.columns...)
	outcome, err := cs.Add(name)
	t.f.columns = cs.Names()
	return outcome, err
}

type fakeAnalyzer struct {
	result *types.Analysis
	ok     bool
	bodies []string
}

func (a *fakeAnalyzer) Analyze(_ context.Context, body string) (*types.Analysis, bool) {
	a.bodies = append(a.bodies, body)
	return a.result.Clone(), a.ok
}

// seedScene inserts a scene behind the engine's back and publishes.
func (f *fakeStore) seedScene(s types.Scene) {
	f.mu.Lock()
	f.scenes = append(f.scenes, s)
	f.mu.Unlock()
	f.publish()
}
