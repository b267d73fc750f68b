// Package sqlite exposes the SQLite-backed slate Store while keeping the
// implementation internal.
package sqlite

import (
	"log/slog"

	"github.com/mesh-intelligence/slate/internal/sqlite"
	"github.com/mesh-intelligence/slate/pkg/types"
)

// NewBackend creates a detached SQLite store. Pass a nil logger to
// discard store logs.
//
// Example:
//
//	store := sqlite.NewBackend(nil)
//	err := store.Attach(types.Config{
//	    Backend: types.BackendSQLite,
//	    DataDir: ".slate-db",
//	})
//	defer store.Detach()
func NewBackend(logger *slog.Logger) types.Store {
	return sqlite.NewBackend(sqlite.WithLogger(logger))
}
