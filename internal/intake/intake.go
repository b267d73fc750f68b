// Package intake turns a script into stored scenes for a project.
package intake

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mesh-intelligence/slate/internal/screenplay"
	"github.com/mesh-intelligence/slate/pkg/types"
)

// ErrEmptyScript is returned for blank script text.
var ErrEmptyScript = errors.New("script is empty")

// ScriptParser splits and analyzes a whole script. *analysis.Analyzer
// satisfies it.
type ScriptParser interface {
	ParseWithAnalysis(ctx context.Context, text string, maxChars int) ([]types.SceneDraft, error)
}

// ScriptSaver keeps a project's script text. types.ProjectTable
// satisfies it.
type ScriptSaver interface {
	SaveScript(ctx context.Context, projectID, content string) error
}

// Segmented splits text on scene headings and stores every scene in one
// batch, then saves text as the project's script. It returns the new scene
// IDs in script order. Scenes already on the board are added again.
func Segmented(ctx context.Context, scenes types.SceneTable, scripts ScriptSaver, projectID, text string) ([]string, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyScript
	}
	return store(ctx, scenes, scripts, projectID, text, screenplay.Segment(text))
}

// Analyzed parses text with parser and stores the result in one batch,
// then saves text as the project's script. A parser failure writes
// nothing.
func Analyzed(ctx context.Context, parser ScriptParser, scenes types.SceneTable, scripts ScriptSaver, projectID, text string, maxChars int) ([]string, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyScript
	}
	drafts, err := parser.ParseWithAnalysis(ctx, text, maxChars)
	if err != nil {
		return nil, err
	}
	for i := range drafts {
		drafts[i].Status = types.StatusUnscheduled
		if drafts[i].Characters == nil {
			drafts[i].Characters = []string{}
		}
	}
	return store(ctx, scenes, scripts, projectID, text, drafts)
}

func store(ctx context.Context, scenes types.SceneTable, scripts ScriptSaver, projectID, text string, drafts []types.SceneDraft) ([]string, error) {
	ids := []string{}
	if len(drafts) > 0 {
		var err error
		ids, err = scenes.CreateBatch(ctx, projectID, drafts)
		if err != nil {
			return nil, fmt.Errorf("store scenes: %w", err)
		}
	}
	if err := scripts.SaveScript(ctx, projectID, text); err != nil {
		return ids, fmt.Errorf("save script: %w", err)
	}
	return ids, nil
}
