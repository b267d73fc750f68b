package types

import (
	"strings"
	"time"
)

// Built-in scene statuses. The set of valid statuses for a project is its
// column list; these four are the columns every board starts with.
const (
	StatusUnscheduled = "unscheduled"
	StatusScheduled   = "scheduled"
	StatusShot        = "shot"
	StatusEdit        = "edit"
)

// ShootDateLayout is the layout of Scene.ShootDate.
const ShootDateLayout = "2006-01-02"

// Complexity is a coarse estimate of production difficulty.
type Complexity string

const (
	ComplexityLow    Complexity = "Low"
	ComplexityMedium Complexity = "Medium"
	ComplexityHigh   Complexity = "High"
)

// Rank orders complexities Low=1, Medium=2, High=3. Anything else ranks 0.
func (c Complexity) Rank() int {
	switch c {
	case ComplexityLow:
		return 1
	case ComplexityMedium:
		return 2
	case ComplexityHigh:
		return 3
	default:
		return 0
	}
}

// ParseComplexity accepts any casing of Low, Medium or High.
func ParseComplexity(s string) (Complexity, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return ComplexityLow, true
	case "medium":
		return ComplexityMedium, true
	case "high":
		return ComplexityHigh, true
	default:
		return "", false
	}
}

// TimeOfDay is one of four lighting symbols.
type TimeOfDay string

const (
	TimeMorning   TimeOfDay = "☁️"
	TimeAfternoon TimeOfDay = "☀️"
	TimeEvening   TimeOfDay = "🌤️"
	TimeNight     TimeOfDay = "🌙"
)

// timeOfDayAliases maps symbols, their variation-selector-free forms and
// plain words onto the canonical symbol.
var timeOfDayAliases = map[string]TimeOfDay{
	string(TimeMorning):   TimeMorning,
	"☁":                   TimeMorning,
	"morning":             TimeMorning,
	"day":                 TimeMorning,
	string(TimeAfternoon): TimeAfternoon,
	"☀":                   TimeAfternoon,
	"afternoon":           TimeAfternoon,
	string(TimeEvening):   TimeEvening,
	"🌤":                   TimeEvening,
	"evening":             TimeEvening,
	string(TimeNight):     TimeNight,
	"night":               TimeNight,
}

// ParseTimeOfDay normalizes s to one of the four symbols. Unknown values
// return false.
func ParseTimeOfDay(s string) (TimeOfDay, bool) {
	t, ok := timeOfDayAliases[strings.ToLower(strings.TrimSpace(s))]
	return t, ok
}

// Analysis is the structured result of the scene analysis adapter.
type Analysis struct {
	Title      string     `json:"title"`
	Summary    string     `json:"summary"`
	Cast       []string   `json:"cast"`
	Complexity Complexity `json:"complexity"`
	TimeOfDay  TimeOfDay  `json:"time_of_day,omitempty"`
}

// Clone returns a deep copy. A nil receiver returns nil.
func (a *Analysis) Clone() *Analysis {
	if a == nil {
		return nil
	}
	cp := *a
	cp.Cast = cloneStrings(a.Cast)
	return &cp
}

// Scene is one segmented scene of a project's script.
type Scene struct {
	ID                string         `json:"id"`
	ProjectID         string         `json:"project_id"`
	SceneNumber       string         `json:"scene_number"`
	Slugline          string         `json:"slugline"`
	Body              string         `json:"body"`
	Status            string         `json:"status"`
	Completed         bool           `json:"completed"`
	ShootDate         string         `json:"shoot_date,omitempty"`
	TimeOfDay         TimeOfDay      `json:"time_of_day,omitempty"`
	Characters        []string       `json:"characters"`
	Analysis          *Analysis      `json:"analysis,omitempty"`
	CustomFieldValues map[string]any `json:"custom_field_values,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

// EffectiveStatus returns the scene's status, treating an empty status as
// unscheduled.
func (s Scene) EffectiveStatus() string {
	if s.Status == "" {
		return StatusUnscheduled
	}
	return s.Status
}

// HasCharacter reports whether name appears in Characters or in the
// analysis cast. Matching is exact.
func (s Scene) HasCharacter(name string) bool {
	for _, c := range s.Characters {
		if c == name {
			return true
		}
	}
	if s.Analysis != nil {
		for _, c := range s.Analysis.Cast {
			if c == name {
				return true
			}
		}
	}
	return false
}

// CastSize is the larger of the analysis cast and the character list.
func (s Scene) CastSize() int {
	n := len(s.Characters)
	if s.Analysis != nil && len(s.Analysis.Cast) > n {
		n = len(s.Analysis.Cast)
	}
	return n
}

// Clone returns a deep copy of the scene.
func (s Scene) Clone() Scene {
	cp := s
	cp.Characters = cloneStrings(s.Characters)
	cp.Analysis = s.Analysis.Clone()
	cp.CustomFieldValues = cloneValues(s.CustomFieldValues)
	return cp
}

// Draft returns the scene's content as a draft, dropping identity and
// timestamps.
func (s Scene) Draft() SceneDraft {
	c := s.Clone()
	return SceneDraft{
		SceneNumber:       c.SceneNumber,
		Slugline:          c.Slugline,
		Body:              c.Body,
		Status:            c.Status,
		Completed:         c.Completed,
		ShootDate:         c.ShootDate,
		TimeOfDay:         c.TimeOfDay,
		Characters:        c.Characters,
		Analysis:          c.Analysis,
		CustomFieldValues: c.CustomFieldValues,
	}
}

// Apply writes every non-nil field of p onto the scene and refreshes
// UpdatedAt.
func (s *Scene) Apply(p ScenePatch) {
	if p.SceneNumber != nil {
		s.SceneNumber = *p.SceneNumber
	}
	if p.Slugline != nil {
		s.Slugline = *p.Slugline
	}
	if p.Body != nil {
		s.Body = *p.Body
	}
	if p.Status != nil {
		s.Status = *p.Status
	}
	if p.Completed != nil {
		s.Completed = *p.Completed
	}
	if p.ShootDate != nil {
		s.ShootDate = *p.ShootDate
	}
	if p.TimeOfDay != nil {
		s.TimeOfDay = *p.TimeOfDay
	}
	if p.Characters != nil {
		s.Characters = cloneStrings(*p.Characters)
	}
	if p.Analysis != nil {
		s.Analysis = p.Analysis.Clone()
	}
	if len(p.CustomFieldValues) > 0 {
		if s.CustomFieldValues == nil {
			s.CustomFieldValues = make(map[string]any, len(p.CustomFieldValues))
		}
		for k, v := range p.CustomFieldValues {
			if v == nil {
				delete(s.CustomFieldValues, k)
				continue
			}
			s.CustomFieldValues[k] = v
		}
	}
	s.UpdatedAt = time.Now()
}

// SceneDraft is the content of a scene that does not exist yet.
type SceneDraft struct {
	SceneNumber       string         `json:"scene_number"`
	Slugline          string         `json:"slugline"`
	Body              string         `json:"body"`
	Status            string         `json:"status,omitempty"`
	Completed         bool           `json:"completed"`
	ShootDate         string         `json:"shoot_date,omitempty"`
	TimeOfDay         TimeOfDay      `json:"time_of_day,omitempty"`
	Characters        []string       `json:"characters"`
	Analysis          *Analysis      `json:"analysis,omitempty"`
	CustomFieldValues map[string]any `json:"custom_field_values,omitempty"`
}

// ScenePatch is a field-scoped partial update. Nil fields are left alone.
// A nil entry in CustomFieldValues removes that value.
type ScenePatch struct {
	SceneNumber       *string        `json:"scene_number,omitempty"`
	Slugline          *string        `json:"slugline,omitempty"`
	Body              *string        `json:"body,omitempty"`
	Status            *string        `json:"status,omitempty"`
	Completed         *bool          `json:"completed,omitempty"`
	ShootDate         *string        `json:"shoot_date,omitempty"`
	TimeOfDay         *TimeOfDay     `json:"time_of_day,omitempty"`
	Characters        *[]string      `json:"characters,omitempty"`
	Analysis          *Analysis      `json:"analysis,omitempty"`
	CustomFieldValues map[string]any `json:"custom_field_values,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p ScenePatch) IsEmpty() bool {
	return p.SceneNumber == nil && p.Slugline == nil && p.Body == nil &&
		p.Status == nil && p.Completed == nil && p.ShootDate == nil &&
		p.TimeOfDay == nil && p.Characters == nil && p.Analysis == nil &&
		len(p.CustomFieldValues) == 0
}

// ValidShootDate reports whether s is empty or a YYYY-MM-DD date.
func ValidShootDate(s string) bool {
	if s == "" {
		return true
	}
	_, ok := ParseShootDate(s)
	return ok
}

// ParseShootDate parses a YYYY-MM-DD shoot date.
func ParseShootDate(s string) (time.Time, bool) {
	t, err := time.Parse(ShootDateLayout, s)
	return t, err == nil
}

// CompareShootDates orders shoot dates by calendar date. Empty and
// unparsable dates sort after every valid date and among themselves by
// text.
func CompareShootDates(a, b string) int {
	ta, okA := ParseShootDate(a)
	tb, okB := ParseShootDate(b)
	switch {
	case okA && okB:
		return ta.Compare(tb)
	case okA:
		return -1
	case okB:
		return 1
	default:
		return strings.Compare(a, b)
	}
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func cloneValues(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		if list, ok := v.([]string); ok {
			out[k] = cloneStrings(list)
			continue
		}
		if list, ok := v.([]any); ok {
			cp := make([]any, len(list))
			copy(cp, list)
			out[k] = cp
			continue
		}
		out[k] = v
	}
	return out
}
