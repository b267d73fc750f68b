// Package screenplay splits raw screenplay text into scene drafts.
package screenplay

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/mesh-intelligence/slate/pkg/types"
)

// headerPattern matches a scene heading prefix.
var headerPattern = regexp.MustCompile(`(?i)^(?:INT/EXT\.|I/E\.|INT\.|EXT\.)`)

var lineBreak = regexp.MustCompile(`\r\n|\r|\n`)

// IsHeader reports whether line is a scene heading.
func IsHeader(line string) bool {
	return headerPattern.MatchString(strings.TrimSpace(line))
}

// Segment splits text into scene drafts. Each heading line starts a new
// scene; lines before the first heading are dropped. Scenes are numbered
// 1, 2, ... in order of appearance, then scenes repeating an earlier
// (slugline, body) pair are removed without renumbering. Segment never
// fails and never returns nil.
func Segment(text string) []types.SceneDraft {
	drafts := make([]types.SceneDraft, 0)
	var (
		current *types.SceneDraft
		buf     []string
		number  int
	)

	finish := func() {
		if current == nil {
			return
		}
		current.Body = strings.TrimSpace(strings.Join(buf, "\n"))
		if current.Body != "" || current.Slugline != "" {
			drafts = append(drafts, *current)
		}
		current = nil
		buf = buf[:0]
	}

	for _, line := range lineBreak.Split(text, -1) {
		if IsHeader(line) {
			finish()
			number++
			current = &types.SceneDraft{
				SceneNumber: strconv.Itoa(number),
				Slugline:    strings.TrimSpace(line),
				Status:      types.StatusUnscheduled,
				Characters:  []string{},
			}
			continue
		}
		if current != nil {
			buf = append(buf, line)
		}
	}
	finish()

	return dedupe(drafts)
}

type sceneKey struct {
	slugline string
	body     string
}

func dedupe(drafts []types.SceneDraft) []types.SceneDraft {
	seen := make(map[sceneKey]bool, len(drafts))
	out := drafts[:0]
	for _, d := range drafts {
		k := sceneKey{d.Slugline, d.Body}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, d)
	}
	return out
}
