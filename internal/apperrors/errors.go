package apperrors

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrEntityNotFound covers missing ids and cross-tenant lookups alike, so a
// caller cannot distinguish "does not exist" from "belongs to someone else".
var ErrEntityNotFound = errors.New("entity not found")

// ValidationError reports bad input shape, size or type.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func NewValidation(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// DuplicateUploadError is returned when an upload's content checksum already
// exists for the same bank account. JobID points at the existing import job.
type DuplicateUploadError struct {
	JobID    uuid.UUID
	Checksum string
}

func (e *DuplicateUploadError) Error() string {
	return fmt.Sprintf("duplicate upload: checksum %s already imported as job %s", e.Checksum, e.JobID)
}

// PersistenceError wraps storage/DB failures.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
