package order

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vkmflowers/backend/internal/domain/identity"
	"github.com/vkmflowers/backend/internal/domain/lifecycle"
	"github.com/vkmflowers/backend/internal/domain/product"
)

// stubCatalog is an in-memory product.Repository for service tests.
type stubCatalog struct {
	products map[string]product.Product
}

func (s *stubCatalog) List(_ context.Context) ([]product.Product, error) {
	out := make([]product.Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, p)
	}
	return out, nil
}

func (s *stubCatalog) GetByID(_ context.Context, id string) (*product.Product, error) {
	p, ok := s.products[id]
	if !ok {
		return nil, &lifecycle.NotFoundError{Kind: "product", ID: id}
	}
	return &p, nil
}

func (s *stubCatalog) Create(_ context.Context, p *product.Product) error {
	s.products[p.ID] = *p
	return nil
}

func (s *stubCatalog) Delete(_ context.Context, id string) error {
	delete(s.products, id)
	return nil
}

// stubLedger records Repository calls and returns canned orders.
type stubLedger struct {
	created     []*Order
	byID        map[string]*Order
	confirmed   []string
	confirmedAt time.Time
	deliveryAt  time.Time
	transitions map[string]lifecycle.Status
	deleted     []string
}

func newStubLedger() *stubLedger {
	return &stubLedger{
		byID:        make(map[string]*Order),
		transitions: make(map[string]lifecycle.Status),
	}
}

func (s *stubLedger) Create(_ context.Context, o *Order) error {
	s.created = append(s.created, o)
	cp := *o
	s.byID[o.ID] = &cp
	return nil
}

func (s *stubLedger) GetByID(_ context.Context, id string) (*Order, error) {
	o, ok := s.byID[id]
	if !ok {
		return nil, &lifecycle.NotFoundError{Kind: "order", ID: id}
	}
	cp := *o
	return &cp, nil
}

func (s *stubLedger) List(_ context.Context) ([]Order, error)                { return nil, nil }
func (s *stubLedger) ListByUser(_ context.Context, _ string) ([]Order, error) { return nil, nil }
func (s *stubLedger) ListByStatus(_ context.Context, _ ...lifecycle.Status) ([]Order, error) {
	return nil, nil
}

func (s *stubLedger) Confirm(_ context.Context, id string, now, deliveryAt time.Time) (*Order, error) {
	s.confirmed = append(s.confirmed, id)
	s.confirmedAt = now
	s.deliveryAt = deliveryAt
	o := *s.byID[id]
	o.Status = lifecycle.StatusConfirmed
	o.BillID = "VKM-20250114-001"
	o.ExpectedDeliveryAt = deliveryAt
	s.byID[id] = &o
	cp := o
	return &cp, nil
}

func (s *stubLedger) Transition(_ context.Context, id string, to lifecycle.Status) (*Order, error) {
	s.transitions[id] = to
	o := *s.byID[id]
	o.Status = to
	s.byID[id] = &o
	cp := o
	return &cp, nil
}

func (s *stubLedger) Delete(_ context.Context, id string) error {
	s.deleted = append(s.deleted, id)
	return nil
}

var (
	customer = identity.Actor{UserID: "user-1", Role: identity.RoleCustomer}
	admin    = identity.Actor{UserID: "admin-1", Role: identity.RoleAdmin}
)

func roseCatalog() *stubCatalog {
	return &stubCatalog{products: map[string]product.Product{
		"rose-bouquet-red": {
			ID:            "rose-bouquet-red",
			Title:         "Red Rose Bouquet",
			Price:         decimal.NewFromInt(500),
			DurationHours: 3,
			Images:        []string{"/images/rose-1.jpg", "/images/rose-2.jpg"},
		},
	}}
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestPlace(t *testing.T) {
	catalog := roseCatalog()
	ledger := newStubLedger()
	svc := NewService(catalog, ledger)
	svc.now = fixedClock(time.Date(2025, 1, 14, 10, 0, 0, 0, time.UTC))

	o, err := svc.Place(context.Background(), customer, PlaceOrderRequest{
		ProductID:   "rose-bouquet-red",
		Quantity:    2,
		Description: "  anniversary ",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, o.ID)
	assert.Equal(t, "user-1", o.UserID)
	assert.Equal(t, lifecycle.StatusPending, o.Status)
	assert.Equal(t, "Red Rose Bouquet", o.ProductTitle)
	assert.Equal(t, "/images/rose-1.jpg", o.ProductImage, "snapshot takes the first image")
	assert.True(t, o.TotalPrice.Equal(decimal.NewFromInt(1000)), "500 x 2")
	assert.Equal(t, "anniversary", o.Description)
	assert.Empty(t, o.BillID)
	assert.True(t, o.ExpectedDeliveryAt.IsZero())
	require.Len(t, ledger.created, 1)
}

func TestPlace_Validation(t *testing.T) {
	svc := NewService(roseCatalog(), newStubLedger())
	ctx := context.Background()

	tests := []struct {
		name  string
		req   PlaceOrderRequest
		field string
	}{
		{"missing product", PlaceOrderRequest{Quantity: 1}, "productId"},
		{"blank product", PlaceOrderRequest{ProductID: "   ", Quantity: 1}, "productId"},
		{"zero quantity", PlaceOrderRequest{ProductID: "rose-bouquet-red"}, "quantity"},
		{"negative quantity", PlaceOrderRequest{ProductID: "rose-bouquet-red", Quantity: -3}, "quantity"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Place(ctx, customer, tt.req)
			var verr *lifecycle.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestPlace_UnknownProduct(t *testing.T) {
	svc := NewService(roseCatalog(), newStubLedger())

	_, err := svc.Place(context.Background(), customer, PlaceOrderRequest{
		ProductID: "tulip-bunch", Quantity: 1,
	})
	var nf *lifecycle.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "product", nf.Kind)
}

func TestTransition_ConfirmComputesDelivery(t *testing.T) {
	catalog := roseCatalog()
	ledger := newStubLedger()
	svc := NewService(catalog, ledger)
	svc.now = fixedClock(time.Date(2025, 1, 14, 10, 0, 0, 0, time.UTC))

	o, err := svc.Place(context.Background(), customer, PlaceOrderRequest{
		ProductID: "rose-bouquet-red", Quantity: 1,
	})
	require.NoError(t, err)

	confirmTime := time.Date(2025, 1, 14, 13, 0, 0, 0, time.UTC)
	svc.now = fixedClock(confirmTime)

	got, err := svc.Transition(context.Background(), admin, o.ID, lifecycle.StatusConfirmed)
	require.NoError(t, err)

	assert.Equal(t, lifecycle.StatusConfirmed, got.Status)
	assert.NotEmpty(t, got.BillID)
	// Delivery is confirmation time plus the product's 3 preparation hours.
	assert.Equal(t, confirmTime.Add(3*time.Hour), ledger.deliveryAt)
	assert.Equal(t, confirmTime, ledger.confirmedAt)
}

func TestTransition_SnapshotSurvivesPriceChange(t *testing.T) {
	catalog := roseCatalog()
	ledger := newStubLedger()
	svc := NewService(catalog, ledger)
	svc.now = fixedClock(time.Date(2025, 1, 14, 10, 0, 0, 0, time.UTC))

	o, err := svc.Place(context.Background(), customer, PlaceOrderRequest{
		ProductID: "rose-bouquet-red", Quantity: 2,
	})
	require.NoError(t, err)
	require.True(t, o.TotalPrice.Equal(decimal.NewFromInt(1000)))

	// Reprice the catalog after the order exists.
	p := catalog.products["rose-bouquet-red"]
	p.Price = decimal.NewFromInt(600)
	catalog.products["rose-bouquet-red"] = p

	got, err := svc.Transition(context.Background(), admin, o.ID, lifecycle.StatusConfirmed)
	require.NoError(t, err)
	assert.True(t, got.TotalPrice.Equal(decimal.NewFromInt(1000)),
		"total keeps the price captured at creation")
}

func TestTransition_RequiresAdmin(t *testing.T) {
	svc := NewService(roseCatalog(), newStubLedger())

	_, err := svc.Transition(context.Background(), customer, "whatever", lifecycle.StatusConfirmed)
	var aerr *lifecycle.AuthorizationError
	require.ErrorAs(t, err, &aerr)
}

func TestTransition_IllegalEdge(t *testing.T) {
	ledger := newStubLedger()
	svc := NewService(roseCatalog(), ledger)

	o, err := svc.Place(context.Background(), customer, PlaceOrderRequest{
		ProductID: "rose-bouquet-red", Quantity: 1,
	})
	require.NoError(t, err)

	// PENDING -> COMPLETED skips confirmation.
	_, err = svc.Transition(context.Background(), admin, o.ID, lifecycle.StatusCompleted)
	var terr *lifecycle.InvalidTransitionError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, lifecycle.StatusPending, terr.From)
	assert.Equal(t, lifecycle.StatusCompleted, terr.To)
	assert.Empty(t, ledger.transitions, "ledger must not be touched on an illegal edge")
}

func TestTransition_TerminalIsAbsorbing(t *testing.T) {
	ledger := newStubLedger()
	svc := NewService(roseCatalog(), ledger)

	o, err := svc.Place(context.Background(), customer, PlaceOrderRequest{
		ProductID: "rose-bouquet-red", Quantity: 1,
	})
	require.NoError(t, err)

	_, err = svc.Transition(context.Background(), admin, o.ID, lifecycle.StatusCancelled)
	require.NoError(t, err)

	_, err = svc.Transition(context.Background(), admin, o.ID, lifecycle.StatusCompleted)
	var terr *lifecycle.InvalidTransitionError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, lifecycle.StatusCancelled, terr.From)
}

func TestTransition_UnknownOrder(t *testing.T) {
	svc := NewService(roseCatalog(), newStubLedger())

	_, err := svc.Transition(context.Background(), admin, "missing", lifecycle.StatusConfirmed)
	var nf *lifecycle.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "order", nf.Kind)
}

func TestDelete(t *testing.T) {
	ledger := newStubLedger()
	svc := NewService(roseCatalog(), ledger)

	require.NoError(t, svc.Delete(context.Background(), admin, "order-1"))
	assert.Equal(t, []string{"order-1"}, ledger.deleted)

	err := svc.Delete(context.Background(), customer, "order-1")
	var aerr *lifecycle.AuthorizationError
	require.ErrorAs(t, err, &aerr)
}
