package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vkmflowers/backend/internal/domain/customreq"
	"github.com/vkmflowers/backend/internal/domain/lifecycle"
)

const requestColumns = `id, user_id, description, requested_date, requested_time,
		contact_name, contact_phone, images, status, created_at, deadline_at`

const (
	createRequestSQL = `INSERT INTO custom_requests
		(id, user_id, description, requested_date, requested_time, contact_name, contact_phone, images, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	getRequestSQL = `SELECT ` + requestColumns + ` FROM custom_requests WHERE id = $1`

	listRequestsSQL = `SELECT ` + requestColumns + ` FROM custom_requests ORDER BY created_at`

	listRequestsByUserSQL = `SELECT ` + requestColumns + ` FROM custom_requests
		WHERE user_id = $1 ORDER BY created_at`

	listRequestsByStatusSQL = `SELECT ` + requestColumns + ` FROM custom_requests
		WHERE status = ANY($1) ORDER BY created_at`

	confirmRequestSQL = `UPDATE custom_requests
		SET status = 'CONFIRMED', deadline_at = $2
		WHERE id = $1 AND status = 'PENDING'
		RETURNING ` + requestColumns

	transitionRequestSQL = `UPDATE custom_requests SET status = $2
		WHERE id = $1 AND status = ANY($3)
		RETURNING ` + requestColumns

	deleteRequestSQL = `DELETE FROM custom_requests
		WHERE id = $1 AND status IN ('COMPLETED', 'CANCELLED')`

	requestStatusSQL = `SELECT status FROM custom_requests WHERE id = $1`
)

var _ customreq.Repository = (*CustomRequestRepository)(nil)

// CustomRequestRepository implements customreq.Repository backed by
// PostgreSQL. Reference images are serialized to a JSONB column.
type CustomRequestRepository struct {
	pool *pgxpool.Pool
}

// NewCustomRequestRepository returns a CustomRequestRepository using the
// given pool.
func NewCustomRequestRepository(pool *pgxpool.Pool) *CustomRequestRepository {
	return &CustomRequestRepository{pool: pool}
}

func (r *CustomRequestRepository) Create(ctx context.Context, cr *customreq.CustomRequest) error {
	images, err := json.Marshal(cr.Images)
	if err != nil {
		return fmt.Errorf("marshaling request images: %w", err)
	}
	_, err = r.pool.Exec(ctx, createRequestSQL,
		cr.ID, cr.UserID, cr.Description, cr.RequestedDate, cr.RequestedTime,
		cr.ContactName, cr.ContactPhone, images, string(cr.Status), cr.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating custom request %q: %w", cr.ID, err)
	}
	return nil
}

func (r *CustomRequestRepository) GetByID(ctx context.Context, id string) (*customreq.CustomRequest, error) {
	rows, err := r.pool.Query(ctx, getRequestSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting custom request %q: %w", id, err)
	}
	cr, err := pgx.CollectExactlyOneRow(rows, scanRequest)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &lifecycle.NotFoundError{Kind: "custom request", ID: id}
		}
		return nil, fmt.Errorf("getting custom request %q: %w", id, err)
	}
	return &cr, nil
}

func (r *CustomRequestRepository) List(ctx context.Context) ([]customreq.CustomRequest, error) {
	rows, err := r.pool.Query(ctx, listRequestsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing custom requests: %w", err)
	}
	return pgx.CollectRows(rows, scanRequest)
}

func (r *CustomRequestRepository) ListByUser(ctx context.Context, userID string) ([]customreq.CustomRequest, error) {
	rows, err := r.pool.Query(ctx, listRequestsByUserSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("listing custom requests for user %q: %w", userID, err)
	}
	return pgx.CollectRows(rows, scanRequest)
}

func (r *CustomRequestRepository) ListByStatus(ctx context.Context, statuses ...lifecycle.Status) ([]customreq.CustomRequest, error) {
	rows, err := r.pool.Query(ctx, listRequestsByStatusSQL, statusStrings(statuses))
	if err != nil {
		return nil, fmt.Errorf("listing custom requests by status: %w", err)
	}
	return pgx.CollectRows(rows, scanRequest)
}

func (r *CustomRequestRepository) Confirm(ctx context.Context, id string, deadlineAt time.Time) (*customreq.CustomRequest, error) {
	rows, err := r.pool.Query(ctx, confirmRequestSQL, id, deadlineAt)
	if err != nil {
		return nil, fmt.Errorf("confirming custom request %q: %w", id, err)
	}
	cr, err := pgx.CollectExactlyOneRow(rows, scanRequest)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, r.transitionConflict(ctx, id, lifecycle.StatusConfirmed)
		}
		return nil, fmt.Errorf("confirming custom request %q: %w", id, err)
	}
	return &cr, nil
}

func (r *CustomRequestRepository) Transition(ctx context.Context, id string, to lifecycle.Status) (*customreq.CustomRequest, error) {
	sources := lifecycle.TransitionSources(to)
	if len(sources) == 0 {
		cur, err := r.currentStatus(ctx, id)
		if err != nil {
			return nil, err
		}
		return nil, &lifecycle.InvalidTransitionError{From: cur, To: to}
	}

	rows, err := r.pool.Query(ctx, transitionRequestSQL, id, string(to), statusStrings(sources))
	if err != nil {
		return nil, fmt.Errorf("transitioning custom request %q: %w", id, err)
	}
	cr, err := pgx.CollectExactlyOneRow(rows, scanRequest)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, r.transitionConflict(ctx, id, to)
		}
		return nil, fmt.Errorf("transitioning custom request %q: %w", id, err)
	}
	return &cr, nil
}

func (r *CustomRequestRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, deleteRequestSQL, id)
	if err != nil {
		return fmt.Errorf("deleting custom request %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		cur, err := r.currentStatus(ctx, id)
		if err != nil {
			return err
		}
		return &lifecycle.InvalidStateError{Status: cur, Op: "delete"}
	}
	return nil
}

func (r *CustomRequestRepository) transitionConflict(ctx context.Context, id string, to lifecycle.Status) error {
	cur, err := r.currentStatus(ctx, id)
	if err != nil {
		return err
	}
	return &lifecycle.InvalidTransitionError{From: cur, To: to}
}

func (r *CustomRequestRepository) currentStatus(ctx context.Context, id string) (lifecycle.Status, error) {
	var raw string
	if err := r.pool.QueryRow(ctx, requestStatusSQL, id).Scan(&raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", &lifecycle.NotFoundError{Kind: "custom request", ID: id}
		}
		return "", fmt.Errorf("reading custom request %q status: %w", id, err)
	}
	return lifecycle.Status(raw), nil
}

func scanRequest(row pgx.CollectableRow) (customreq.CustomRequest, error) {
	var (
		cr         customreq.CustomRequest
		images     []byte
		status     string
		deadlineAt *time.Time
	)
	err := row.Scan(
		&cr.ID, &cr.UserID, &cr.Description, &cr.RequestedDate, &cr.RequestedTime,
		&cr.ContactName, &cr.ContactPhone, &images, &status, &cr.CreatedAt, &deadlineAt,
	)
	if err != nil {
		return cr, err
	}
	if err := json.Unmarshal(images, &cr.Images); err != nil {
		return cr, fmt.Errorf("unmarshaling request images: %w", err)
	}
	cr.Status = lifecycle.Status(status)
	if deadlineAt != nil {
		cr.DeadlineAt = *deadlineAt
	}
	return cr, nil
}
