package lifecycle

import "fmt"

// ValidationError indicates malformed or missing input, such as a
// non-positive quantity or a phone number that is not exactly 10 digits.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NotFoundError indicates an unknown record or referenced entity.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

// InvalidTransitionError indicates the requested status is not a legal
// successor of the record's current status. The losing side of a
// transition race receives this error with From set to the post-race status.
type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot transition from %s to %s", e.From, e.To)
}

// InvalidStateError indicates an operation not permitted in the record's
// current status, such as deleting an in-flight record.
type InvalidStateError struct {
	Status Status
	Op     string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("cannot %s record in status %s", e.Op, e.Status)
}

// AuthorizationError indicates a caller without the required role attempted
// an admin-only operation.
type AuthorizationError struct {
	Op string
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("%s requires the admin role", e.Op)
}
