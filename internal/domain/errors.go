package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrBlockNotFound is returned by chain clients when the requested
	// height has not been produced yet. Callers back off, never abort.
	ErrBlockNotFound = errors.New("block not found")

	// ErrLockDenied is returned when the per-chain lease lock is held by
	// another worker
	ErrLockDenied = errors.New("chain lock denied")

	// ErrLockLost is returned when a worker no longer owns its lease at
	// release time
	ErrLockLost = errors.New("chain lock lost")

	// ErrCheckpointMismatch is returned when a commit observes a checkpoint
	// that no longer matches the height it is about to certify
	ErrCheckpointMismatch = errors.New("checkpoint mismatch")

	// ErrEntityExists is returned when a CREATE targets an existing id
	ErrEntityExists = errors.New("entity already exists")

	// ErrEntityNotFound is returned when UPDATE/DELETE/VIEW target a
	// nonexistent id
	ErrEntityNotFound = errors.New("entity not found")

	// ErrCurrentRowConflict indicates more than one is_current row exists
	// for an entity id. This means the version invariant is already broken
	// and must be surfaced to operators, never silently repaired.
	ErrCurrentRowConflict = errors.New("multiple current rows for entity")
)

// ValidationError marks a per-transaction validation failure. It is local to
// one transaction: the ingestion loop records a skipped transaction and
// continues with the rest of the block.
type ValidationError struct {
	Kind   EntityKind
	Action ActionKind
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s rejected: %s: %v", e.Action, e.Kind, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s %s rejected: %s", e.Action, e.Kind, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError creates a validation error for one mutation
func NewValidationError(kind EntityKind, action ActionKind, reason string, err error) *ValidationError {
	return &ValidationError{Kind: kind, Action: action, Reason: reason, Err: err}
}

// IsValidation reports whether err is a per-transaction validation failure
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
