// Package order owns the stock-order ledger: records created from catalog
// products and the admin-driven status transitions that move them from
// PENDING to a terminal state.
package order

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vkmflowers/backend/internal/domain/lifecycle"
)

// Order is a stock purchase. ProductTitle, ProductImage, and TotalPrice are
// snapshots taken at creation time; later catalog edits must not alter them.
type Order struct {
	ID           string
	BillID       string // assigned once, at confirmation
	UserID       string
	ProductID    string
	ProductTitle string
	ProductImage string
	Quantity     int
	TotalPrice   decimal.Decimal
	Description  string
	Status       lifecycle.Status
	CreatedAt    time.Time
	// ExpectedDeliveryAt is set exactly once at the PENDING->CONFIRMED
	// transition and is immutable afterwards. Zero before confirmation.
	ExpectedDeliveryAt time.Time
}

// Confirmed reports whether the order has passed through CONFIRMED, which is
// exactly when a bill id exists.
func (o Order) Confirmed() bool {
	return o.BillID != ""
}

// Repository defines ledger persistence for orders.
//
// Confirm and Transition carry the concurrency contract: the status change is
// a compare-and-set against the legal source states, so of N racing calls
// exactly one wins and the rest receive InvalidTransitionError with the
// post-race status. Confirm additionally assigns the bill id and delivery
// timestamp in the same atomic step; a reader can never observe
// status=CONFIRMED with an unset bill id.
type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id string) (*Order, error)
	List(ctx context.Context) ([]Order, error)
	ListByUser(ctx context.Context, userID string) ([]Order, error)
	ListByStatus(ctx context.Context, statuses ...lifecycle.Status) ([]Order, error)

	// Confirm moves a PENDING order to CONFIRMED, setting deliveryAt and the
	// next bill id for the calendar day containing now.
	Confirm(ctx context.Context, id string, now, deliveryAt time.Time) (*Order, error)

	// Transition moves an order to COMPLETED or CANCELLED.
	Transition(ctx context.Context, id string, to lifecycle.Status) (*Order, error)

	// Delete removes a terminal record. Non-terminal records are refused with
	// InvalidStateError so in-flight work cannot be lost silently.
	Delete(ctx context.Context, id string) error
}
