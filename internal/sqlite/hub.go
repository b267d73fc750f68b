package sqlite

import (
	"context"
	"log/slog"
	"sync"

	"github.com/mesh-intelligence/slate/pkg/types"
)

// hub tracks scene subscribers per project.
type hub struct {
	mu   sync.Mutex
	next int
	subs map[string]map[int]func([]types.Scene)
}

func newHub() *hub {
	return &hub{subs: make(map[string]map[int]func([]types.Scene))}
}

func (h *hub) add(projectID string, fn func([]types.Scene)) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.next++
	if h.subs[projectID] == nil {
		h.subs[projectID] = make(map[int]func([]types.Scene))
	}
	h.subs[projectID][h.next] = fn
	return h.next
}

func (h *hub) remove(projectID string, id int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subs[projectID], id)
	if len(h.subs[projectID]) == 0 {
		delete(h.subs, projectID)
	}
}

func (h *hub) listeners(projectID string) []func([]types.Scene) {
	h.mu.Lock()
	defer h.mu.Unlock()
	fns := make([]func([]types.Scene), 0, len(h.subs[projectID]))
	for _, fn := range h.subs[projectID] {
		fns = append(fns, fn)
	}
	return fns
}

func (h *hub) reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.subs = make(map[string]map[int]func([]types.Scene))
}

type subscription struct {
	hub       *hub
	projectID string
	id        int
	once      sync.Once
}

func (s *subscription) Close() error {
	s.once.Do(func() { s.hub.remove(s.projectID, s.id) })
	return nil
}

// notify sends the project's current scene list to every subscriber. The
// caller holds writeMu, so deliveries follow commit order.
func (b *Backend) notify(projectID string) {
	fns := b.hub.listeners(projectID)
	if len(fns) == 0 {
		return
	}
	scenes, err := b.listScenes(context.Background(), projectID)
	if err != nil {
		b.logger.Error("snapshot for subscribers failed", slog.String("project", projectID), slog.Any("error", err))
		return
	}
	for _, fn := range fns {
		fn(cloneScenes(scenes))
	}
}

func cloneScenes(in []types.Scene) []types.Scene {
	out := make([]types.Scene, len(in))
	for i, s := range in {
		out[i] = s.Clone()
	}
	return out
}
