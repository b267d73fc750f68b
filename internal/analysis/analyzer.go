package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/mesh-intelligence/slate/internal/logging"
	"github.com/mesh-intelligence/slate/pkg/types"
)

// DefaultMaxChars is how much of a script is sent for whole-script parsing
// when the caller does not say otherwise.
const DefaultMaxChars = 30000

// Completer is the transport Analyzer needs. *Client satisfies it.
type Completer interface {
	CompleteJSON(ctx context.Context, system, user string) (string, error)
}

// ParseError reports why a whole-script parse produced nothing.
type ParseError struct {
	Stage string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse script: %s: %v", e.Stage, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Analyzer turns scene and script text into structured breakdowns.
type Analyzer struct {
	llm    Completer
	logger *slog.Logger
}

// NewAnalyzer wraps llm. A nil logger discards output.
func NewAnalyzer(llm Completer, logger *slog.Logger) *Analyzer {
	return &Analyzer{llm: llm, logger: logging.NewComponentLogger(logger, "analysis")}
}

type rawAnalysis struct {
	Title      string   `json:"title"`
	Summary    string   `json:"summary"`
	Cast       []string `json:"cast"`
	Complexity string   `json:"complexity"`
	TimeOfDay  string   `json:"time_of_day"`
}

type rawScene struct {
	SceneNumber json.RawMessage `json:"scene_number"`
	Slugline    string          `json:"slugline"`
	Body        string          `json:"body"`
	Analysis    *rawAnalysis    `json:"analysis"`
}

// Analyze breaks down one scene body. Any failure, from transport to a
// malformed reply, is logged and reported as false.
func (a *Analyzer) Analyze(ctx context.Context, body string) (*types.Analysis, bool) {
	if strings.TrimSpace(body) == "" {
		a.logger.Debug("skipping analysis of empty scene")
		return nil, false
	}
	content, err := a.llm.CompleteJSON(ctx, scenePrompt, body)
	if err != nil {
		a.logger.Warn("scene analysis request failed", slog.Any("error", err))
		return nil, false
	}
	var raw rawAnalysis
	if err := DecodeJSON(content, &raw); err != nil {
		a.logger.Warn("scene analysis reply unreadable", slog.Any("error", err))
		return nil, false
	}
	analysis, err := normalize(raw)
	if err != nil {
		a.logger.Warn("scene analysis reply invalid", slog.Any("error", err))
		return nil, false
	}
	return analysis, true
}

// ParseWithAnalysis splits and analyzes a whole script in one request.
// Only the first maxChars characters are sent; maxChars <= 0 uses
// DefaultMaxChars. Every returned draft is unscheduled and lists the
// analyzed cast as its characters.
func (a *Analyzer) ParseWithAnalysis(ctx context.Context, text string, maxChars int) ([]types.SceneDraft, error) {
	if strings.TrimSpace(text) == "" {
		return nil, &ParseError{Stage: "input", Err: errors.New("script is empty")}
	}
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	content, err := a.llm.CompleteJSON(ctx, scriptPrompt, truncateRunes(text, maxChars))
	if err != nil {
		a.logger.Error("script parse request failed", slog.Any("error", err))
		return nil, &ParseError{Stage: "request", Err: err}
	}
	raws, err := decodeScenes(content)
	if err != nil {
		a.logger.Error("script parse reply unreadable", slog.Any("error", err))
		return nil, &ParseError{Stage: "decode", Err: err}
	}

	drafts := make([]types.SceneDraft, 0, len(raws))
	for i, r := range raws {
		d := types.SceneDraft{
			SceneNumber: sceneNumber(r.SceneNumber, i+1),
			Slugline:    strings.TrimSpace(r.Slugline),
			Body:        strings.TrimSpace(r.Body),
			Status:      types.StatusUnscheduled,
			Characters:  []string{},
		}
		if d.Slugline == "" && d.Body == "" {
			continue
		}
		if r.Analysis != nil {
			if an, err := normalize(*r.Analysis); err == nil {
				d.Analysis = an
				d.Characters = append(d.Characters, an.Cast...)
				d.TimeOfDay = an.TimeOfDay
			} else {
				a.logger.Debug("dropping invalid scene analysis", slog.Int("index", i), slog.Any("error", err))
			}
		}
		drafts = append(drafts, d)
	}
	a.logger.Info("script parsed", slog.Int("scenes", len(drafts)))
	return drafts, nil
}

// decodeScenes accepts either a bare array or an object with a "scenes"
// array.
func decodeScenes(content string) ([]rawScene, error) {
	var envelope json.RawMessage
	if err := DecodeJSON(content, &envelope); err != nil {
		return nil, err
	}
	envelope = bytes.TrimSpace(envelope)
	var scenes []rawScene
	if len(envelope) > 0 && envelope[0] == '[' {
		if err := json.Unmarshal(envelope, &scenes); err != nil {
			return nil, fmt.Errorf("decode scenes: %w", err)
		}
		return scenes, nil
	}
	var wrapped struct {
		Scenes []rawScene `json:"scenes"`
	}
	if err := json.Unmarshal(envelope, &wrapped); err != nil {
		return nil, fmt.Errorf("decode scenes: %w", err)
	}
	if wrapped.Scenes == nil {
		return nil, errors.New("decode scenes: reply has no scenes array")
	}
	return wrapped.Scenes, nil
}

func normalize(raw rawAnalysis) (*types.Analysis, error) {
	complexity, ok := types.ParseComplexity(raw.Complexity)
	if !ok {
		return nil, fmt.Errorf("complexity %q is not Low, Medium or High", raw.Complexity)
	}
	out := &types.Analysis{
		Title:      strings.TrimSpace(raw.Title),
		Summary:    strings.TrimSpace(raw.Summary),
		Cast:       dedupe(raw.Cast),
		Complexity: complexity,
	}
	if out.Title == "" && out.Summary == "" {
		return nil, errors.New("reply has neither title nor summary")
	}
	if tod, ok := types.ParseTimeOfDay(raw.TimeOfDay); ok {
		out.TimeOfDay = tod
	}
	return out, nil
}

func dedupe(names []string) []string {
	out := make([]string, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

// sceneNumber reads a scene number sent as either a string or a number.
func sceneNumber(raw json.RawMessage, fallback int) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil && strings.TrimSpace(s) != "" {
		return strings.TrimSpace(s)
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil && n.String() != "" {
		return n.String()
	}
	return strconv.Itoa(fallback)
}

func truncateRunes(s string, limit int) string {
	n := 0
	for i := range s {
		if n == limit {
			return s[:i]
		}
		n++
	}
	return s
}
