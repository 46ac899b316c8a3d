package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vkmflowers/backend/internal/domain/billing"
	"github.com/vkmflowers/backend/internal/domain/lifecycle"
	"github.com/vkmflowers/backend/internal/domain/order"
)

const orderColumns = `id, COALESCE(bill_id, ''), user_id, product_id, product_title, product_image,
		quantity, total_price, description, status, created_at, expected_delivery_at`

const (
	createOrderSQL = `INSERT INTO orders
		(id, user_id, product_id, product_title, product_image, quantity, total_price, description, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	getOrderSQL = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	listOrdersSQL = `SELECT ` + orderColumns + ` FROM orders ORDER BY created_at`

	listOrdersByUserSQL = `SELECT ` + orderColumns + ` FROM orders
		WHERE user_id = $1 ORDER BY created_at`

	listOrdersByStatusSQL = `SELECT ` + orderColumns + ` FROM orders
		WHERE status = ANY($1) ORDER BY created_at`

	nextBillSeqSQL = `INSERT INTO bill_counters (day, value) VALUES ($1, 1)
		ON CONFLICT (day) DO UPDATE SET value = bill_counters.value + 1
		RETURNING value`

	confirmOrderSQL = `UPDATE orders
		SET status = 'CONFIRMED', bill_id = $2, expected_delivery_at = $3
		WHERE id = $1 AND status = 'PENDING'
		RETURNING ` + orderColumns

	transitionOrderSQL = `UPDATE orders SET status = $2
		WHERE id = $1 AND status = ANY($3)
		RETURNING ` + orderColumns

	deleteOrderSQL = `DELETE FROM orders
		WHERE id = $1 AND status IN ('COMPLETED', 'CANCELLED')`

	orderStatusSQL = `SELECT status FROM orders WHERE id = $1`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool   *pgxpool.Pool
	prefix string
	loc    *time.Location
}

// NewOrderRepository returns an OrderRepository issuing bill ids with the
// given prefix and store time zone.
func NewOrderRepository(pool *pgxpool.Pool, prefix string, loc *time.Location) *OrderRepository {
	return &OrderRepository{pool: pool, prefix: prefix, loc: loc}
}

func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	_, err := r.pool.Exec(ctx, createOrderSQL,
		o.ID, o.UserID, o.ProductID, o.ProductTitle, o.ProductImage,
		o.Quantity, o.TotalPrice, o.Description, string(o.Status), o.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating order %q: %w", o.ID, err)
	}
	return nil
}

func (r *OrderRepository) GetByID(ctx context.Context, id string) (*order.Order, error) {
	rows, err := r.pool.Query(ctx, getOrderSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}
	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &lifecycle.NotFoundError{Kind: "order", ID: id}
		}
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}
	return &o, nil
}

func (r *OrderRepository) List(ctx context.Context) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, listOrdersSQL)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	return pgx.CollectRows(rows, scanOrder)
}

func (r *OrderRepository) ListByUser(ctx context.Context, userID string) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, listOrdersByUserSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("listing orders for user %q: %w", userID, err)
	}
	return pgx.CollectRows(rows, scanOrder)
}

func (r *OrderRepository) ListByStatus(ctx context.Context, statuses ...lifecycle.Status) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, listOrdersByStatusSQL, statusStrings(statuses))
	if err != nil {
		return nil, fmt.Errorf("listing orders by status: %w", err)
	}
	return pgx.CollectRows(rows, scanOrder)
}

// Confirm assigns the day's next bill sequence and flips PENDING to
// CONFIRMED in one transaction. The counter upsert locks the day row until
// commit, which serializes same-day confirmations; when the conditional
// UPDATE matches no row the transaction rolls back and the sequence number
// is returned to the counter, keeping the day gapless.
func (r *OrderRepository) Confirm(ctx context.Context, id string, now, deliveryAt time.Time) (*order.Order, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning confirm tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	day := billing.DayKey(now, r.loc)
	var seq int64
	if err := tx.QueryRow(ctx, nextBillSeqSQL, day).Scan(&seq); err != nil {
		return nil, fmt.Errorf("incrementing bill counter for %s: %w", day, err)
	}

	rows, err := tx.Query(ctx, confirmOrderSQL, id, billing.Format(r.prefix, day, seq), deliveryAt)
	if err != nil {
		return nil, fmt.Errorf("confirming order %q: %w", id, err)
	}
	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, r.transitionConflict(ctx, id, lifecycle.StatusConfirmed)
		}
		return nil, fmt.Errorf("confirming order %q: %w", id, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing confirm tx: %w", err)
	}
	return &o, nil
}

func (r *OrderRepository) Transition(ctx context.Context, id string, to lifecycle.Status) (*order.Order, error) {
	sources := lifecycle.TransitionSources(to)
	if len(sources) == 0 {
		cur, err := r.currentStatus(ctx, id)
		if err != nil {
			return nil, err
		}
		return nil, &lifecycle.InvalidTransitionError{From: cur, To: to}
	}

	rows, err := r.pool.Query(ctx, transitionOrderSQL, id, string(to), statusStrings(sources))
	if err != nil {
		return nil, fmt.Errorf("transitioning order %q: %w", id, err)
	}
	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, r.transitionConflict(ctx, id, to)
		}
		return nil, fmt.Errorf("transitioning order %q: %w", id, err)
	}
	return &o, nil
}

func (r *OrderRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, deleteOrderSQL, id)
	if err != nil {
		return fmt.Errorf("deleting order %q: %w", id, err)
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

// transitionConflict distinguishes an unknown id from a lost status race
// after a conditional UPDATE matched no row.
func (r *OrderRepository) transitionConflict(ctx context.Context, id string, to lifecycle.Status) error {
	cur, err := r.currentStatus(ctx, id)
	if err != nil {
		return err
	}
	return &lifecycle.InvalidTransitionError{From: cur, To: to}
}

func (r *OrderRepository) currentStatus(ctx context.Context, id string) (lifecycle.Status, error) {
	var raw string
	if err := r.pool.QueryRow(ctx, orderStatusSQL, id).Scan(&raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", &lifecycle.NotFoundError{Kind: "order", ID: id}
		}
		return "", fmt.Errorf("reading order %q status: %w", id, err)
	}
	return lifecycle.Status(raw), nil
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var (
		o          order.Order
		status     string
		deliveryAt *time.Time
	)
	err := row.Scan(
		&o.ID, &o.BillID, &o.UserID, &o.ProductID, &o.ProductTitle, &o.ProductImage,
		&o.Quantity, &o.TotalPrice, &o.Description, &status, &o.CreatedAt, &deliveryAt,
	)
	o.Status = lifecycle.Status(status)
	if deliveryAt != nil {
		o.ExpectedDeliveryAt = *deliveryAt
	}
	return o, err
}

func statusStrings(statuses []lifecycle.Status) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}
