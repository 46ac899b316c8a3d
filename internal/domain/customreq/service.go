package customreq

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/vkmflowers/backend/internal/domain/identity"
	"github.com/vkmflowers/backend/internal/domain/lifecycle"
)

var phoneRe = regexp.MustCompile(`^\d{10}$`)

// PlaceRequest holds the customer input for a custom-request submission.
type PlaceRequest struct {
	Description   string
	RequestedDate string
	RequestedTime string
	ContactName   string
	ContactPhone  string
	Images        []string
}

// Service encapsulates the custom-request ledger's business rules. The
// confirmation deadline is now + sla, with sla coming from configuration
// rather than a constant baked into the code.
type Service struct {
	requests Repository
	sla      time.Duration
	now      func() time.Time
}

// NewService creates a custom-request Service with the configured
// confirmation SLA.
func NewService(requests Repository, sla time.Duration) *Service {
	return &Service{
		requests: requests,
		sla:      sla,
		now:      time.Now,
	}
}

// Place validates the submission and persists a new PENDING request.
// At least one reference image is mandatory and the contact phone must be
// exactly 10 digits.
func (s *Service) Place(ctx context.Context, actor identity.Actor, req PlaceRequest) (*CustomRequest, error) {
	if strings.TrimSpace(req.Description) == "" {
		return nil, &lifecycle.ValidationError{Field: "description", Reason: "required"}
	}
	if len(req.Images) == 0 {
		return nil, &lifecycle.ValidationError{Field: "images", Reason: "at least one reference image is required"}
	}
	if !phoneRe.MatchString(req.ContactPhone) {
		return nil, &lifecycle.ValidationError{Field: "contactPhone", Reason: "must be exactly 10 digits"}
	}

	r := &CustomRequest{
		ID:            uuid.New().String(),
		UserID:        actor.UserID,
		Description:   strings.TrimSpace(req.Description),
		RequestedDate: req.RequestedDate,
		RequestedTime: req.RequestedTime,
		ContactName:   strings.TrimSpace(req.ContactName),
		ContactPhone:  req.ContactPhone,
		Images:        req.Images,
		Status:        lifecycle.StatusPending,
		CreatedAt:     s.now().UTC(),
	}
	if err := s.requests.Create(ctx, r); err != nil {
		return nil, errors.Wrap(err, "create custom request")
	}
	return r, nil
}

// Transition applies an admin status change. Confirming stamps the deadline
// from the configured SLA atomically with the status change.
func (s *Service) Transition(ctx context.Context, actor identity.Actor, id string, to lifecycle.Status) (*CustomRequest, error) {
	if !actor.IsAdmin() {
		return nil, &lifecycle.AuthorizationError{Op: "update custom request status"}
	}

	r, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !lifecycle.CanTransition(r.Status, to) {
		return nil, &lifecycle.InvalidTransitionError{From: r.Status, To: to}
	}

	if to == lifecycle.StatusConfirmed {
		deadlineAt := lifecycle.Deadline(s.now().UTC(), s.sla)
		return s.requests.Confirm(ctx, id, deadlineAt)
	}
	return s.requests.Transition(ctx, id, to)
}

// Delete removes a terminal custom request from the ledger.
func (s *Service) Delete(ctx context.Context, actor identity.Actor, id string) error {
	if !actor.IsAdmin() {
		return &lifecycle.AuthorizationError{Op: "delete custom request"}
	}
	return s.requests.Delete(ctx, id)
}
