package order

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vkmflowers/backend/internal/domain/identity"
	"github.com/vkmflowers/backend/internal/domain/lifecycle"
	"github.com/vkmflowers/backend/internal/domain/product"
)

// PlaceOrderRequest holds the customer input for placing a stock order.
type PlaceOrderRequest struct {
	ProductID   string
	Quantity    int
	Description string
}

// Service encapsulates the order ledger's business rules: creation-time
// snapshotting from the catalog and the admin-only status transitions.
type Service struct {
	products product.Repository
	orders   Repository
	now      func() time.Time
}

// NewService creates an order Service over the given catalog and ledger.
func NewService(products product.Repository, orders Repository) *Service {
	return &Service{
		products: products,
		orders:   orders,
		now:      time.Now,
	}
}

// Place validates the request, snapshots the product's title, image, and
// price, and persists a new PENDING order owned by the actor.
func (s *Service) Place(ctx context.Context, actor identity.Actor, req PlaceOrderRequest) (*Order, error) {
	if strings.TrimSpace(req.ProductID) == "" {
		return nil, &lifecycle.ValidationError{Field: "productId", Reason: "required"}
	}
	if req.Quantity < 1 {
		return nil, &lifecycle.ValidationError{Field: "quantity", Reason: "must be at least 1"}
	}

	p, err := s.products.GetByID(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}

	o := &Order{
		ID:           uuid.New().String(),
		UserID:       actor.UserID,
		ProductID:    p.ID,
		ProductTitle: p.Title,
		ProductImage: p.FirstImage(),
		Quantity:     req.Quantity,
		TotalPrice:   p.Price.Mul(decimal.NewFromInt(int64(req.Quantity))),
		Description:  strings.TrimSpace(req.Description),
		Status:       lifecycle.StatusPending,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.orders.Create(ctx, o); err != nil {
		return nil, errors.Wrap(err, "create order")
	}
	return o, nil
}

// Transition applies an admin status change. Confirming computes the
// expected delivery instant from the product's preparation hours and assigns
// the day's next bill id; both happen atomically with the status change.
func (s *Service) Transition(ctx context.Context, actor identity.Actor, id string, to lifecycle.Status) (*Order, error) {
	if !actor.IsAdmin() {
		return nil, &lifecycle.AuthorizationError{Op: "update order status"}
	}

	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !lifecycle.CanTransition(o.Status, to) {
		return nil, &lifecycle.InvalidTransitionError{From: o.Status, To: to}
	}

	if to == lifecycle.StatusConfirmed {
		p, err := s.products.GetByID(ctx, o.ProductID)
		if err != nil {
			return nil, err
		}
		now := s.now().UTC()
		deliveryAt := lifecycle.HoursDeadline(now, p.DurationHours)
		return s.orders.Confirm(ctx, id, now, deliveryAt)
	}
	return s.orders.Transition(ctx, id, to)
}

// Delete removes a terminal order from the ledger. The storage layer refuses
// non-terminal records.
func (s *Service) Delete(ctx context.Context, actor identity.Actor, id string) error {
	if !actor.IsAdmin() {
		return &lifecycle.AuthorizationError{Op: "delete order"}
	}
	return s.orders.Delete(ctx, id)
}
