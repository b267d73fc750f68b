package types

import (
	"errors"
	"fmt"
)

// Store lifecycle errors.
var (
	ErrStoreDetached   = errors.New("store is detached")
	ErrAlreadyAttached = errors.New("store is already attached")
	ErrDataDirLocked   = errors.New("data directory is locked by another process")
)

// Entity errors.
var (
	ErrNotFound         = errors.New("entity not found")
	ErrInvalidID        = errors.New("invalid entity ID")
	ErrInvalidProject   = errors.New("invalid project ID")
	ErrProjectExists    = errors.New("project already exists")
	ErrInvalidName      = errors.New("invalid name")
	ErrUnknownColumn    = errors.New("status is not a column on this board")
	ErrInvalidFieldType = errors.New("invalid custom field type")
	ErrFieldNotFound    = errors.New("custom field not found")
	ErrFieldArchived    = errors.New("custom field is archived")
	ErrTypeMismatch     = errors.New("type mismatch")
	ErrInvalidOption    = errors.New("invalid select option")
	ErrInvalidSortKey   = errors.New("invalid sort key")
	ErrInvalidShootDate = errors.New("shoot date must be YYYY-MM-DD")
)

// StoreError wraps a failed store operation. It unwraps to the underlying
// cause so callers can still match sentinels such as ErrNotFound.
type StoreError struct {
	Op        string
	ProjectID string
	ID        string
	Err       error
}

func (e *StoreError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("store %s %s/%s: %v", e.Op, e.ProjectID, e.ID, e.Err)
	}
	return fmt.Sprintf("store %s %s: %v", e.Op, e.ProjectID, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// IsUserError reports whether err is caused by invalid input rather than a
// backend or system failure.
func IsUserError(err error) bool {
	for _, target := range []error{
		ErrNotFound, ErrInvalidID, ErrInvalidProject, ErrProjectExists, ErrInvalidName,
		ErrUnknownColumn, ErrInvalidFieldType, ErrFieldNotFound, ErrFieldArchived,
		ErrTypeMismatch, ErrInvalidOption, ErrInvalidSortKey, ErrInvalidShootDate,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
