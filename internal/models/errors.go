package models

import (
	"errors"
	"fmt"
)

// Sentinel errors for validation.
var (
	ErrMissingName        = errors.New("name is required")
	ErrMissingSlug        = errors.New("slug is required")
	ErrInvalidSlug        = errors.New("slug must be lowercase letters, digits, '-' or '_'")
	ErrMissingTitle       = errors.New("title is required")
	ErrMissingProjectSlug = errors.New("project_slug is required")
	ErrNegativeSprint     = errors.New("sprint_number must not be negative")
	ErrNegativeEstimate   = errors.New("est_days must not be negative")
)

// Sentinel errors for entity lookups.
var (
	ErrProjectNotFound = errors.New("project not found")
	ErrBacklogNotFound = errors.New("backlog not found")
)

// ErrDuplicateKey indicates a unique constraint violation (maps to HTTP 409 Conflict).
var ErrDuplicateKey = errors.New("duplicate key")

// ErrProjectHasBacklogs indicates a project slug cannot change while backlogs reference it.
var ErrProjectHasBacklogs = errors.New("project slug is referenced by backlogs")

// ErrUnknownProject indicates a backlog references a project slug that does not exist.
var ErrUnknownProject = errors.New("unknown project")

// ErrFieldTooLong returns an error indicating a field exceeds its maximum length.
func ErrFieldTooLong(field string, maxLen int) error {
	return fmt.Errorf("%s exceeds maximum length of %d", field, maxLen)
}
