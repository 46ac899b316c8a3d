package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/vkmflowers/backend/internal/domain/customreq"
	"github.com/vkmflowers/backend/internal/domain/lifecycle"
)

var _ customreq.Repository = (*CustomRequestRepository)(nil)

// CustomRequestRepository is an in-memory custom-request ledger with the
// same locking discipline as the order ledger.
type CustomRequestRepository struct {
	mu   sync.RWMutex
	byID map[string]*customreq.CustomRequest
}

// NewCustomRequestRepository creates an empty in-memory request ledger.
func NewCustomRequestRepository() *CustomRequestRepository {
	return &CustomRequestRepository{byID: make(map[string]*customreq.CustomRequest)}
}

func (r *CustomRequestRepository) Create(_ context.Context, cr *customreq.CustomRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *cr
	cp.Images = append([]string(nil), cr.Images...)
	r.byID[cr.ID] = &cp
	return nil
}

func (r *CustomRequestRepository) GetByID(_ context.Context, id string) (*customreq.CustomRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cr, ok := r.byID[id]
	if !ok {
		return nil, &lifecycle.NotFoundError{Kind: "custom request", ID: id}
	}
	cp := copyRequest(cr)
	return &cp, nil
}

func (r *CustomRequestRepository) List(_ context.Context) ([]customreq.CustomRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]customreq.CustomRequest, 0, len(r.byID))
	for _, cr := range r.byID {
		out = append(out, copyRequest(cr))
	}
	sortRequestsByCreation(out)
	return out, nil
}

func (r *CustomRequestRepository) ListByUser(_ context.Context, userID string) ([]customreq.CustomRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []customreq.CustomRequest
	for _, cr := range r.byID {
		if cr.UserID == userID {
			out = append(out, copyRequest(cr))
		}
	}
	sortRequestsByCreation(out)
	return out, nil
}

func (r *CustomRequestRepository) ListByStatus(_ context.Context, statuses ...lifecycle.Status) ([]customreq.CustomRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []customreq.CustomRequest
	for _, cr := range r.byID {
		for _, s := range statuses {
			if cr.Status == s {
				out = append(out, copyRequest(cr))
				break
			}
		}
	}
	sortRequestsByCreation(out)
	return out, nil
}

func (r *CustomRequestRepository) Confirm(_ context.Context, id string, deadlineAt time.Time) (*customreq.CustomRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cr, ok := r.byID[id]
	if !ok {
		return nil, &lifecycle.NotFoundError{Kind: "custom request", ID: id}
	}
	if cr.Status != lifecycle.StatusPending {
		return nil, &lifecycle.InvalidTransitionError{From: cr.Status, To: lifecycle.StatusConfirmed}
	}
	cr.Status = lifecycle.StatusConfirmed
	cr.DeadlineAt = deadlineAt
	cp := copyRequest(cr)
	return &cp, nil
}

func (r *CustomRequestRepository) Transition(_ context.Context, id string, to lifecycle.Status) (*customreq.CustomRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cr, ok := r.byID[id]
	if !ok {
		return nil, &lifecycle.NotFoundError{Kind: "custom request", ID: id}
	}
	if !lifecycle.CanTransition(cr.Status, to) {
		return nil, &lifecycle.InvalidTransitionError{From: cr.Status, To: to}
	}
	cr.Status = to
	cp := copyRequest(cr)
	return &cp, nil
}

func (r *CustomRequestRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cr, ok := r.byID[id]
	if !ok {
		return &lifecycle.NotFoundError{Kind: "custom request", ID: id}
	}
	if !cr.Status.IsTerminal() {
		return &lifecycle.InvalidStateError{Status: cr.Status, Op: "delete"}
	}
	delete(r.byID, id)
	return nil
}

func copyRequest(cr *customreq.CustomRequest) customreq.CustomRequest {
	cp := *cr
	cp.Images = append([]string(nil), cr.Images...)
	return cp
}

func sortRequestsByCreation(rs []customreq.CustomRequest) {
	sort.SliceStable(rs, func(i, j int) bool {
		return rs[i].CreatedAt.Before(rs[j].CreatedAt)
	})
}
