// Package query is the read-only aggregation layer serving the polling
// clients: per-user history, the admin's pending and deadline-ordered active
// queues, terminal history, and pending counts for badge display. Nothing
// here mutates state, so the reference clients can call it every 10 seconds
// without side effects.
package query

import (
	"context"
	"sort"

	"github.com/go-faster/errors"

	"github.com/vkmflowers/backend/internal/domain/customreq"
	"github.com/vkmflowers/backend/internal/domain/lifecycle"
	"github.com/vkmflowers/backend/internal/domain/order"
)

// Kind selects which ledger a queue read targets.
type Kind string

const (
	KindOrders   Kind = "orders"
	KindRequests Kind = "custom-requests"
)

// ParseKind validates a raw kind path segment.
func ParseKind(raw string) (Kind, error) {
	switch k := Kind(raw); k {
	case KindOrders, KindRequests:
		return k, nil
	default:
		return "", &lifecycle.ValidationError{Field: "kind", Reason: "unknown queue kind " + raw}
	}
}

// UserHistory bundles everything a customer sees on their history screen.
type UserHistory struct {
	Orders         []order.Order
	CustomRequests []customreq.CustomRequest
}

// PendingCounts holds per-ledger PENDING totals for the admin badge.
type PendingCounts struct {
	Orders         int `json:"orders"`
	CustomRequests int `json:"customRequests"`
}

// Facade aggregates reads over both ledgers.
type Facade struct {
	orders   order.Repository
	requests customreq.Repository
}

// NewFacade creates a Facade over the two ledgers.
func NewFacade(orders order.Repository, requests customreq.Repository) *Facade {
	return &Facade{orders: orders, requests: requests}
}

// AllOrders returns the full order ledger for administrative assembly, in
// creation order.
func (f *Facade) AllOrders(ctx context.Context) ([]order.Order, error) {
	os, err := f.orders.List(ctx)
	if err != nil {
		return nil, err
	}
	sortOrdersByCreation(os)
	return os, nil
}

// AllRequests returns the full custom-request ledger in creation order.
func (f *Facade) AllRequests(ctx context.Context) ([]customreq.CustomRequest, error) {
	rs, err := f.requests.List(ctx)
	if err != nil {
		return nil, err
	}
	sortRequestsByCreation(rs)
	return rs, nil
}

// ForUser returns all records owned by userID across both ledgers,
// unfiltered by status, in creation order.
func (f *Facade) ForUser(ctx context.Context, userID string) (*UserHistory, error) {
	os, err := f.orders.ListByUser(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "list user orders")
	}
	rs, err := f.requests.ListByUser(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "list user custom requests")
	}
	sortOrdersByCreation(os)
	sortRequestsByCreation(rs)
	return &UserHistory{Orders: os, CustomRequests: rs}, nil
}

// PendingOrders returns all PENDING stock orders in creation order.
func (f *Facade) PendingOrders(ctx context.Context) ([]order.Order, error) {
	os, err := f.orders.ListByStatus(ctx, lifecycle.StatusPending)
	if err != nil {
		return nil, err
	}
	sortOrdersByCreation(os)
	return os, nil
}

// PendingRequests returns all PENDING custom requests in creation order.
func (f *Facade) PendingRequests(ctx context.Context) ([]customreq.CustomRequest, error) {
	rs, err := f.requests.ListByStatus(ctx, lifecycle.StatusPending)
	if err != nil {
		return nil, err
	}
	sortRequestsByCreation(rs)
	return rs, nil
}

// ActiveOrders returns CONFIRMED orders sorted ascending by expected
// delivery, so the most time-urgent work comes first. Ties break by
// creation order.
func (f *Facade) ActiveOrders(ctx context.Context) ([]order.Order, error) {
	os, err := f.orders.ListByStatus(ctx, lifecycle.StatusConfirmed)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(os, func(i, j int) bool {
		if os[i].ExpectedDeliveryAt.Equal(os[j].ExpectedDeliveryAt) {
			return os[i].CreatedAt.Before(os[j].CreatedAt)
		}
		return os[i].ExpectedDeliveryAt.Before(os[j].ExpectedDeliveryAt)
	})
	return os, nil
}

// ActiveRequests returns CONFIRMED custom requests sorted ascending by
// deadline, ties by creation order.
func (f *Facade) ActiveRequests(ctx context.Context) ([]customreq.CustomRequest, error) {
	rs, err := f.requests.ListByStatus(ctx, lifecycle.StatusConfirmed)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(rs, func(i, j int) bool {
		if rs[i].DeadlineAt.Equal(rs[j].DeadlineAt) {
			return rs[i].CreatedAt.Before(rs[j].CreatedAt)
		}
		return rs[i].DeadlineAt.Before(rs[j].DeadlineAt)
	})
	return rs, nil
}

// OrderHistory returns terminal orders, most recent first, truncated to
// limit. A non-positive limit returns everything.
func (f *Facade) OrderHistory(ctx context.Context, limit int) ([]order.Order, error) {
	os, err := f.orders.ListByStatus(ctx, lifecycle.StatusCompleted, lifecycle.StatusCancelled)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(os, func(i, j int) bool {
		return os[i].CreatedAt.After(os[j].CreatedAt)
	})
	return truncate(os, limit), nil
}

// RequestHistory returns terminal custom requests, most recent first,
// truncated to limit.
func (f *Facade) RequestHistory(ctx context.Context, limit int) ([]customreq.CustomRequest, error) {
	rs, err := f.requests.ListByStatus(ctx, lifecycle.StatusCompleted, lifecycle.StatusCancelled)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(rs, func(i, j int) bool {
		return rs[i].CreatedAt.After(rs[j].CreatedAt)
	})
	return truncate(rs, limit), nil
}

// Counts returns the PENDING totals for both ledgers.
func (f *Facade) Counts(ctx context.Context) (PendingCounts, error) {
	os, err := f.orders.ListByStatus(ctx, lifecycle.StatusPending)
	if err != nil {
		return PendingCounts{}, err
	}
	rs, err := f.requests.ListByStatus(ctx, lifecycle.StatusPending)
	if err != nil {
		return PendingCounts{}, err
	}
	return PendingCounts{Orders: len(os), CustomRequests: len(rs)}, nil
}

func truncate[T any](s []T, limit int) []T {
	if limit > 0 && len(s) > limit {
		return s[:limit]
	}
	return s
}

func sortOrdersByCreation(os []order.Order) {
	sort.SliceStable(os, func(i, j int) bool {
		return os[i].CreatedAt.Before(os[j].CreatedAt)
	})
}

func sortRequestsByCreation(rs []customreq.CustomRequest) {
	sort.SliceStable(rs, func(i, j int) bool {
		return rs[i].CreatedAt.Before(rs[j].CreatedAt)
	})
}
