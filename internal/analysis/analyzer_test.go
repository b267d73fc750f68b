package analysis

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/slate/pkg/types"
)

type stubCompleter struct {
	reply  string
	err    error
	system string
	user   string
}

func (s *stubCompleter) CompleteJSON(_ context.Context, system, user string) (string, error) {
	s.system, s.user = system, user
	return s.reply, s.err
}

func TestAnalyze(t *testing.T) {
	stub := &stubCompleter{reply: "```json\n" + `{
		"title": " Coffee Confrontation ",
		"summary": "Anna confronts Ben.",
		"cast": ["ANNA", "BEN", "ANNA", " "],
		"complexity": "medium",
		"time_of_day": "🌙"
	}` + "\n```"}
	a := NewAnalyzer(stub, nil)

	got, ok := a.Analyze(context.Background(), "INT. CAFE - NIGHT\nAnna glares.")
	require.True(t, ok)
	assert.Equal(t, "Coffee Confrontation", got.Title)
	assert.Equal(t, []string{"ANNA", "BEN"}, got.Cast)
	assert.Equal(t, types.ComplexityMedium, got.Complexity)
	assert.Equal(t, types.TimeNight, got.TimeOfDay)
	assert.Equal(t, scenePrompt, stub.system)
}

func TestAnalyzeSilentFailures(t *testing.T) {
	tests := []struct {
		name string
		stub *stubCompleter
		body string
	}{
		{name: "transport error", stub: &stubCompleter{err: errors.New("boom")}, body: "x"},
		{name: "not json", stub: &stubCompleter{reply: "I cannot help"}, body: "x"},
		{name: "bad complexity", stub: &stubCompleter{reply: `{"title":"t","complexity":"Huge"}`}, body: "x"},
		{name: "missing text", stub: &stubCompleter{reply: `{"complexity":"Low"}`}, body: "x"},
		{name: "empty body", stub: &stubCompleter{reply: `{"title":"t","complexity":"Low"}`}, body: "  "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NewAnalyzer(tt.stub, nil).Analyze(context.Background(), tt.body)
			assert.False(t, ok)
			assert.Nil(t, got)
		})
	}
}

func TestAnalyzeUnknownTimeOfDayDropped(t *testing.T) {
	stub := &stubCompleter{reply: `{"title":"t","summary":"s","cast":[],"complexity":"High","time_of_day":"dusk"}`}
	got, ok := NewAnalyzer(stub, nil).Analyze(context.Background(), "x")
	require.True(t, ok)
	assert.Equal(t, types.TimeOfDay(""), got.TimeOfDay)
	assert.NotNil(t, got.Cast)
}

func TestParseWithAnalysis(t *testing.T) {
	stub := &stubCompleter{reply: `[
		{"scene_number": "1", "slugline": "INT. CAFE - DAY", "body": "Anna sips.",
		 "analysis": {"title": "Sip", "summary": "Anna drinks.", "cast": ["ANNA"], "complexity": "Low", "time_of_day": "☁️"}},
		{"scene_number": 2, "slugline": "EXT. STREET - NIGHT", "body": "Rain.",
		 "analysis": {"title": "Rain", "summary": "It rains.", "cast": [], "complexity": "bogus"}},
		{"slugline": "", "body": ""}
	]`}
	drafts, err := NewAnalyzer(stub, nil).ParseWithAnalysis(context.Background(), "script text", 0)
	require.NoError(t, err)
	require.Len(t, drafts, 2)

	assert.Equal(t, "1", drafts[0].SceneNumber)
	assert.Equal(t, types.StatusUnscheduled, drafts[0].Status)
	assert.Equal(t, []string{"ANNA"}, drafts[0].Characters)
	require.NotNil(t, drafts[0].Analysis)
	assert.Equal(t, types.TimeMorning, drafts[0].TimeOfDay)

	assert.Equal(t, "2", drafts[1].SceneNumber)
	assert.Nil(t, drafts[1].Analysis)
	assert.NotNil(t, drafts[1].Characters)
}

func TestParseWithAnalysisWrappedObject(t *testing.T) {
	stub := &stubCompleter{reply: `{"scenes":[{"slugline":"INT. A - DAY","body":"x"}]}`}
	drafts, err := NewAnalyzer(stub, nil).ParseWithAnalysis(context.Background(), "script", 10)
	require.NoError(t, err)
	require.Len(t, drafts, 1)
	assert.Equal(t, "1", drafts[0].SceneNumber)
}

func TestParseWithAnalysisTruncates(t *testing.T) {
	stub := &stubCompleter{reply: `[]`}
	text := strings.Repeat("é", 50)
	_, err := NewAnalyzer(stub, nil).ParseWithAnalysis(context.Background(), text, 20)
	require.NoError(t, err)
	assert.Equal(t, 20, utf8.RuneCountInString(stub.user))
	assert.True(t, utf8.ValidString(stub.user))
}

func TestParseWithAnalysisErrors(t *testing.T) {
	tests := []struct {
		name  string
		stub  *stubCompleter
		text  string
		stage string
	}{
		{name: "empty script", stub: &stubCompleter{}, text: " ", stage: "input"},
		{name: "request", stub: &stubCompleter{err: errors.New("quota")}, text: "x", stage: "request"},
		{name: "decode", stub: &stubCompleter{reply: "no json"}, text: "x", stage: "decode"},
		{name: "no scenes key", stub: &stubCompleter{reply: `{"items":[]}`}, text: "x", stage: "decode"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			drafts, err := NewAnalyzer(tt.stub, nil).ParseWithAnalysis(context.Background(), tt.text, 0)
			assert.Nil(t, drafts)
			var pe *ParseError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, tt.stage, pe.Stage)
			assert.Contains(t, err.Error(), "parse script")
		})
	}
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "abc", truncateRunes("abcdef", 3))
	assert.Equal(t, "ab", truncateRunes("ab", 3))
	assert.Equal(t, "日本", truncateRunes("日本語", 2))
}
