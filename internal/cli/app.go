package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/slate/internal/analysis"
	"github.com/mesh-intelligence/slate/internal/kanban"
	"github.com/mesh-intelligence/slate/internal/logging"
	"github.com/mesh-intelligence/slate/internal/sqlite"
	"github.com/mesh-intelligence/slate/pkg/types"
)

// app is everything one command run needs: settings, a logger, the
// attached store and, when requested, the project's board engine.
type app struct {
	settings settings
	json     bool
	logger   *slog.Logger
	store    types.Store
	analyzer *analysis.Analyzer
	engine   *kanban.Engine
}

// openApp loads settings and attaches the store. With startEngine set it
// also starts the board engine for the selected project. The caller must
// defer app.close().
func openApp(cmd *cobra.Command, flags *rootFlags, startEngine bool) (*app, error) {
	s, err := loadSettings(flags)
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(logging.Options{Level: s.LogLevel, Format: s.LogFormat, Writer: cmd.ErrOrStderr()})
	if err != nil {
		return nil, userErr(err)
	}

	a := &app{settings: s, json: flags.jsonMode, logger: logger}
	if s.LLM.APIKey != "" {
		client := analysis.NewClient(s.LLM)
		a.analyzer = analysis.NewAnalyzer(client, logging.NewComponentLogger(logger, "analysis"))
	}

	store := sqlite.NewBackend(sqlite.WithLogger(logger))
	if err := store.Attach(s.Store); err != nil {
		return nil, fmt.Errorf("attach store: %w", err)
	}
	a.store = store

	if startEngine {
		opts := []kanban.Option{
			kanban.WithLogger(logger),
			kanban.WithAlerter(kanban.AlertFunc(func(msg string) {
				fmt.Fprintln(cmd.ErrOrStderr(), "alert:", msg)
			})),
		}
		if a.analyzer != nil {
			opts = append(opts, kanban.WithAnalyzer(a.analyzer))
		}
		a.engine = kanban.New(s.Project, store, opts...)
		if err := a.engine.Start(ctxOf(cmd)); err != nil {
			store.Detach()
			return nil, err
		}
	}
	return a, nil
}

func (a *app) close() {
	if a.engine != nil {
		a.engine.Close()
	}
	if err := a.store.Detach(); err != nil {
		fmt.Fprintln(os.Stderr, "detach store:", err)
	}
}

// ctxOf returns the command context, or Background when run outside cobra.
func ctxOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// resolveScene finds a scene by full ID, unique ID prefix or scene number.
func (a *app) resolveScene(ref string) (types.Scene, error) {
	ref = strings.TrimSpace(ref)
	if s, ok := a.engine.Scene(ref); ok {
		return s, nil
	}
	var matches []types.Scene
	for _, s := range a.engine.Scenes() {
		if strings.HasPrefix(s.ID, ref) || s.SceneNumber == ref {
			matches = append(matches, s)
		}
	}
	switch len(matches) {
	case 0:
		return types.Scene{}, fmt.Errorf("scene %q: %w", ref, types.ErrNotFound)
	case 1:
		return matches[0], nil
	default:
		return types.Scene{}, userErrf("scene %q is ambiguous: %d scenes match", ref, len(matches))
	}
}
