package types

import (
	"strings"
	"time"
)

// Project is a registered production. Scenes, fields and columns are keyed
// by its ID. Content is the raw script text last fed to intake.
type Project struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ValidateProjectID rejects blank IDs and IDs that cannot be used as a
// single URL path segment.
func ValidateProjectID(id string) error {
	if strings.TrimSpace(id) == "" || id != strings.TrimSpace(id) || strings.ContainsAny(id, "/?#") {
		return ErrInvalidProject
	}
	return nil
}
