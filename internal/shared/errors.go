package shared

import "errors"

// Error taxonomy shared by every service. Handlers map these onto HTTP
// statuses in platform/httpx.
var (
	// ErrNotFound indicates a referenced entity id is absent.
	ErrNotFound = errors.New("record not found")
	// ErrConflict indicates the operation is invalid for the entity's
	// current state (approved estimate edited, paid invoice paid again).
	ErrConflict = errors.New("operation conflicts with current state")
	// ErrValidation indicates a malformed or incomplete request.
	ErrValidation = errors.New("validation failed")
	// ErrDependency indicates an unreachable external collaborator
	// (object storage, database). Propagated, never retried.
	ErrDependency = errors.New("dependency failure")
)
