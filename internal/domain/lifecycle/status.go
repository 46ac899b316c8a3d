// Package lifecycle defines the status state machine shared by the order and
// custom-request ledgers, the deadline calculator, and the domain error
// taxonomy.
//
// Both ledgers move records through the same graph:
//
//	PENDING -> CONFIRMED -> COMPLETED
//	PENDING -> CANCELLED
//	CONFIRMED -> CANCELLED
//
// COMPLETED and CANCELLED are absorbing. No other edges exist.
package lifecycle

// Status is the lifecycle state of a ledger record.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
)

// ParseStatus validates a raw status string. Returns a ValidationError for
// anything outside the four known states.
func ParseStatus(raw string) (Status, error) {
	switch s := Status(raw); s {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled:
		return s, nil
	default:
		return "", &ValidationError{Field: "status", Reason: "unknown status " + raw}
	}
}

// IsTerminal reports whether no further transitions are permitted from s.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// CanTransition reports whether to is a legal successor of from.
// Repeated calls that would no-op a terminal state are not legal.
func CanTransition(from, to Status) bool {
	switch from {
	case StatusPending:
		return to == StatusConfirmed || to == StatusCancelled
	case StatusConfirmed:
		return to == StatusCompleted || to == StatusCancelled
	default:
		return false
	}
}

// TransitionSources returns the statuses from which to is reachable in one
// step. Storage backends use this to build compare-and-set predicates.
func TransitionSources(to Status) []Status {
	switch to {
	case StatusConfirmed:
		return []Status{StatusPending}
	case StatusCompleted:
		return []Status{StatusConfirmed}
	case StatusCancelled:
		return []Status{StatusPending, StatusConfirmed}
	default:
		return nil
	}
}
