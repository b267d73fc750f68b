package kanban

import (
	"github.com/mesh-intelligence/slate/pkg/types"
)

// CopySuffix is appended to the scene number of a duplicated scene.
const CopySuffix = " -copy"

// ApplyDateRule returns patch, extended to move the scene to the scheduled
// column when it sets a shoot date on an unscheduled scene. A status set
// in the patch itself is left alone, and clearing a date never changes
// the status.
func ApplyDateRule(current types.Scene, patch types.ScenePatch) types.ScenePatch {
	if patch.ShootDate == nil || *patch.ShootDate == "" || patch.Status != nil {
		return patch
	}
	if current.Status != "" && current.Status != types.StatusUnscheduled {
		return patch
	}
	status := types.StatusScheduled
	patch.Status = &status
	return patch
}

// DuplicateDraft copies scene into a new unscheduled draft whose scene
// number carries CopySuffix.
func DuplicateDraft(scene types.Scene) types.SceneDraft {
	d := scene.Draft()
	d.SceneNumber = scene.SceneNumber + CopySuffix
	d.Status = types.StatusUnscheduled
	if d.Characters == nil {
		d.Characters = []string{}
	}
	return d
}
