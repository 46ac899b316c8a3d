// Package customreq owns the custom-request ledger: free-form arrangement
// requests with reference photos, structurally parallel to the order ledger
// but with no product reference and no price.
package customreq

import (
	"context"
	"time"

	"github.com/vkmflowers/backend/internal/domain/lifecycle"
)

// CustomRequest is a free-form request for a bespoke arrangement.
// ContactName and ContactPhone are snapshots of the contact details given at
// submission time and may differ from the user's profile. RequestedDate and
// RequestedTime describe the customer's desired slot; they are informational
// and never drive the state machine.
type CustomRequest struct {
	ID            string
	UserID        string
	Description   string
	RequestedDate string
	RequestedTime string
	ContactName   string
	ContactPhone  string
	Images        []string
	Status        lifecycle.Status
	CreatedAt     time.Time
	// DeadlineAt is set exactly once at confirmation, immutable afterwards.
	DeadlineAt time.Time
}

// Repository defines ledger persistence for custom requests. Confirm and
// Transition follow the same compare-and-set contract as the order ledger:
// one winner per race, losers get InvalidTransitionError.
type Repository interface {
	Create(ctx context.Context, r *CustomRequest) error
	GetByID(ctx context.Context, id string) (*CustomRequest, error)
	List(ctx context.Context) ([]CustomRequest, error)
	ListByUser(ctx context.Context, userID string) ([]CustomRequest, error)
	ListByStatus(ctx context.Context, statuses ...lifecycle.Status) ([]CustomRequest, error)

	// Confirm moves a PENDING request to CONFIRMED, setting deadlineAt.
	Confirm(ctx context.Context, id string, deadlineAt time.Time) (*CustomRequest, error)

	// Transition moves a request to COMPLETED or CANCELLED.
	Transition(ctx context.Context, id string, to lifecycle.Status) (*CustomRequest, error)

	// Delete removes a terminal record only.
	Delete(ctx context.Context, id string) error
}
