// Package memory provides in-process implementations of the ledger and
// catalog repositories, guarded by read-write mutexes. It backs the unit and
// handler tests and a no-database development mode; the compare-and-set
// transition contract is identical to the Postgres backend.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/vkmflowers/backend/internal/domain/billing"
	"github.com/vkmflowers/backend/internal/domain/lifecycle"
	"github.com/vkmflowers/backend/internal/domain/order"
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository is an in-memory order ledger. All mutations run under the
// write lock, so a racing Confirm observes either PENDING (and wins) or the
// post-transition status (and fails cleanly). The bill counter only advances
// for winners, keeping the per-day sequence gapless.
type OrderRepository struct {
	mu     sync.RWMutex
	byID   map[string]*order.Order
	seq    *billing.MemorySequencer
	prefix string
	loc    *time.Location
}

// NewOrderRepository creates an empty in-memory order ledger issuing bill
// ids with the given prefix and store time zone.
func NewOrderRepository(prefix string, loc *time.Location) *OrderRepository {
	return &OrderRepository{
		byID:   make(map[string]*order.Order),
		seq:    billing.NewMemorySequencer(),
		prefix: prefix,
		loc:    loc,
	}
}

func (r *OrderRepository) Create(_ context.Context, o *order.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *o
	r.byID[o.ID] = &cp
	return nil
}

func (r *OrderRepository) GetByID(_ context.Context, id string) (*order.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.byID[id]
	if !ok {
		return nil, &lifecycle.NotFoundError{Kind: "order", ID: id}
	}
	cp := *o
	return &cp, nil
}

func (r *OrderRepository) List(_ context.Context) ([]order.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]order.Order, 0, len(r.byID))
	for _, o := range r.byID {
		out = append(out, *o)
	}
	sortByCreation(out)
	return out, nil
}

func (r *OrderRepository) ListByUser(_ context.Context, userID string) ([]order.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []order.Order
	for _, o := range r.byID {
		if o.UserID == userID {
			out = append(out, *o)
		}
	}
	sortByCreation(out)
	return out, nil
}

func (r *OrderRepository) ListByStatus(_ context.Context, statuses ...lifecycle.Status) ([]order.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []order.Order
	for _, o := range r.byID {
		for _, s := range statuses {
			if o.Status == s {
				out = append(out, *o)
				break
			}
		}
	}
	sortByCreation(out)
	return out, nil
}

func (r *OrderRepository) Confirm(ctx context.Context, id string, now, deliveryAt time.Time) (*order.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.byID[id]
	if !ok {
		return nil, &lifecycle.NotFoundError{Kind: "order", ID: id}
	}
	if o.Status != lifecycle.StatusPending {
		return nil, &lifecycle.InvalidTransitionError{From: o.Status, To: lifecycle.StatusConfirmed}
	}

	day := billing.DayKey(now, r.loc)
	seq, err := r.seq.Next(ctx, day)
	if err != nil {
		return nil, err
	}
	o.Status = lifecycle.StatusConfirmed
	o.BillID = billing.Format(r.prefix, day, seq)
	o.ExpectedDeliveryAt = deliveryAt

	cp := *o
	return &cp, nil
}

func (r *OrderRepository) Transition(_ context.Context, id string, to lifecycle.Status) (*order.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.byID[id]
	if !ok {
		return nil, &lifecycle.NotFoundError{Kind: "order", ID: id}
	}
	if !lifecycle.CanTransition(o.Status, to) {
		return nil, &lifecycle.InvalidTransitionError{From: o.Status, To: to}
	}
	o.Status = to
	cp := *o
	return &cp, nil
}

func (r *OrderRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.byID[id]
	if !ok {
		return &lifecycle.NotFoundError{Kind: "order", ID: id}
	}
	if !o.Status.IsTerminal() {
		return &lifecycle.InvalidStateError{Status: o.Status, Op: "delete"}
	}
	delete(r.byID, id)
	return nil
}

func sortByCreation(os []order.Order) {
	sort.SliceStable(os, func(i, j int) bool {
		return os[i].CreatedAt.Before(os[j].CreatedAt)
	})
}
