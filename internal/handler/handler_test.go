package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/vkmflowers/backend/internal/domain/customreq"
	"github.com/vkmflowers/backend/internal/domain/identity"
	"github.com/vkmflowers/backend/internal/domain/order"
	"github.com/vkmflowers/backend/internal/domain/product"
	"github.com/vkmflowers/backend/internal/domain/query"
	"github.com/vkmflowers/backend/internal/domain/settings"
	"github.com/vkmflowers/backend/internal/storage/memory"
)

type testEnv struct {
	handler http.Handler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	products := memory.NewProductRepository()
	orders := memory.NewOrderRepository("VKM", time.UTC)
	requests := memory.NewCustomRequestRepository()
	settingsRepo := memory.NewSettingsRepository()

	require.NoError(t, products.Create(t.Context(), &product.Product{
		ID:            "rose-bouquet-red",
		Title:         "Red Rose Bouquet",
		Price:         decimal.NewFromInt(500),
		DurationHours: 3,
		Images:        []string{"/images/rose-1.jpg"},
	}))

	h, err := NewHandler(
		order.NewService(products, orders),
		customreq.NewService(requests, 48*time.Hour),
		query.NewFacade(orders, requests),
		settings.NewService(settingsRepo),
		products,
		noop.NewMeterProvider(),
	)
	require.NoError(t, err)

	mux := http.NewServeMux()
	h.Register(mux)

	return &testEnv{handler: Identity()(mux)}
}

// do performs a request with the given identity headers and decodes the JSON
// response into out when it is non-nil.
func (e *testEnv) do(t *testing.T, method, path string, body any, userID string, role identity.Role, out any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
		req.Header.Set("X-User-Role", string(role))
	}

	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, req)

	if out != nil && w.Body.Len() > 0 {
		require.NoError(t, json.NewDecoder(w.Body).Decode(out))
	}
	return w
}

func (e *testEnv) placeOrder(t *testing.T, userID string) orderDTO {
	t.Helper()
	var got orderDTO
	w := e.do(t, http.MethodPost, "/api/orders",
		map[string]any{"productId": "rose-bouquet-red", "quantity": 1},
		userID, identity.RoleCustomer, &got)
	require.Equal(t, http.StatusCreated, w.Code)
	return got
}

func (e *testEnv) setOrderStatus(t *testing.T, id, status string) (*httptest.ResponseRecorder, orderDTO) {
	t.Helper()
	var got orderDTO
	w := e.do(t, http.MethodPut, "/api/orders/"+id+"/status",
		map[string]string{"status": status}, "admin-1", identity.RoleAdmin, &got)
	return w, got
}

func TestPlaceOrder(t *testing.T) {
	env := newTestEnv(t)

	var got orderDTO
	w := env.do(t, http.MethodPost, "/api/orders",
		map[string]any{"productId": "rose-bouquet-red", "quantity": 2, "description": "anniversary"},
		"alice", identity.RoleCustomer, &got)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.NotEmpty(t, got.ID)
	assert.Equal(t, "alice", got.UserID)
	assert.Equal(t, "PENDING", got.Status)
	assert.Equal(t, "Red Rose Bouquet", got.ProductTitle)
	assert.InEpsilon(t, 1000.0, got.TotalPrice, 1e-9)
	assert.Empty(t, got.BillID)
	assert.Nil(t, got.ExpectedDeliveryAt)
}

func TestPlaceOrder_RequiresIdentity(t *testing.T) {
	env := newTestEnv(t)

	var body errorBody
	w := env.do(t, http.MethodPost, "/api/orders",
		map[string]any{"productId": "rose-bouquet-red", "quantity": 1},
		"", "", &body)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.NotEmpty(t, body.Error)
}

func TestPlaceOrder_Errors(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		body map[string]any
		code int
	}{
		{"unknown product", map[string]any{"productId": "tulips", "quantity": 1}, http.StatusNotFound},
		{"zero quantity", map[string]any{"productId": "rose-bouquet-red", "quantity": 0}, http.StatusBadRequest},
		{"missing product", map[string]any{"quantity": 1}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body errorBody
			w := env.do(t, http.MethodPost, "/api/orders", tt.body, "alice", identity.RoleCustomer, &body)
			assert.Equal(t, tt.code, w.Code)
			assert.NotEmpty(t, body.Error)
		})
	}
}

func TestPlaceOrder_MalformedJSON(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/api/orders", bytes.NewBufferString("{nope"))
	req.Header.Set("X-User-ID", "alice")
	w := httptest.NewRecorder()
	env.handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListOrders_ScopedByRole(t *testing.T) {
	env := newTestEnv(t)

	env.placeOrder(t, "alice")
	env.placeOrder(t, "bob")

	var mine []orderDTO
	w := env.do(t, http.MethodGet, "/api/orders", nil, "alice", identity.RoleCustomer, &mine)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, mine, 1, "customers see only their own orders")
	assert.Equal(t, "alice", mine[0].UserID)

	var all []orderDTO
	w = env.do(t, http.MethodGet, "/api/orders", nil, "admin-1", identity.RoleAdmin, &all)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, all, 2, "the admin sees the whole ledger")
}

func TestOrderLifecycle(t *testing.T) {
	env := newTestEnv(t)

	o := env.placeOrder(t, "alice")

	w, confirmed := env.setOrderStatus(t, o.ID, "CONFIRMED")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "CONFIRMED", confirmed.Status)
	assert.Regexp(t, `^VKM-\d{8}-\d{3}$`, confirmed.BillID)
	require.NotNil(t, confirmed.ExpectedDeliveryAt)

	w, completed := env.setOrderStatus(t, o.ID, "COMPLETED")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "COMPLETED", completed.Status)
	assert.Equal(t, confirmed.BillID, completed.BillID, "bill id never changes after confirmation")
}

func TestUpdateOrderStatus_Rejections(t *testing.T) {
	env := newTestEnv(t)
	o := env.placeOrder(t, "alice")

	// Customers may not transition.
	var body errorBody
	w := env.do(t, http.MethodPut, "/api/orders/"+o.ID+"/status",
		map[string]string{"status": "CONFIRMED"}, "alice", identity.RoleCustomer, &body)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Unknown status value.
	w, _ = env.setOrderStatus(t, o.ID, "SHIPPED")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Skipping confirmation.
	w, _ = env.setOrderStatus(t, o.ID, "COMPLETED")
	assert.Equal(t, http.StatusConflict, w.Code)

	// Unknown order.
	w, _ = env.setOrderStatus(t, "no-such-order", "CONFIRMED")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateOrderStatus_TerminalIsAbsorbing(t *testing.T) {
	env := newTestEnv(t)
	o := env.placeOrder(t, "alice")

	w, _ := env.setOrderStatus(t, o.ID, "CANCELLED")
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = env.setOrderStatus(t, o.ID, "COMPLETED")
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestDeleteOrder(t *testing.T) {
	env := newTestEnv(t)
	o := env.placeOrder(t, "alice")

	// In-flight records cannot be deleted.
	w := env.do(t, http.MethodDelete, "/api/orders/"+o.ID, nil, "admin-1", identity.RoleAdmin, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w, _ = env.setOrderStatus(t, o.ID, "CANCELLED")
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodDelete, "/api/orders/"+o.ID, nil, "admin-1", identity.RoleAdmin, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = env.do(t, http.MethodDelete, "/api/orders/"+o.ID, nil, "alice", identity.RoleCustomer, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func validRequestBody() map[string]any {
	return map[string]any{
		"description":   "heart-shaped arrangement",
		"requestedDate": "2025-01-20",
		"requestedTime": "16:00",
		"contactName":   "Priya",
		"contactPhone":  "9876543210",
		"images":        []string{"/uploads/ref-1.jpg"},
	}
}

func TestPlaceCustomRequest(t *testing.T) {
	env := newTestEnv(t)

	var got customRequestDTO
	w := env.do(t, http.MethodPost, "/api/custom-orders", validRequestBody(),
		"alice", identity.RoleCustomer, &got)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "PENDING", got.Status)
	assert.Nil(t, got.DeadlineAt)
	assert.Len(t, got.Images, 1)
}

func TestPlaceCustomRequest_Validation(t *testing.T) {
	env := newTestEnv(t)

	noImages := validRequestBody()
	noImages["images"] = []string{}
	badPhone := validRequestBody()
	badPhone["contactPhone"] = "12345"

	for name, body := range map[string]map[string]any{"no images": noImages, "bad phone": badPhone} {
		t.Run(name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, "/api/custom-orders", body, "alice", identity.RoleCustomer, nil)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestCustomRequestLifecycle(t *testing.T) {
	env := newTestEnv(t)

	var placed customRequestDTO
	w := env.do(t, http.MethodPost, "/api/custom-orders", validRequestBody(),
		"alice", identity.RoleCustomer, &placed)
	require.Equal(t, http.StatusCreated, w.Code)

	var confirmed customRequestDTO
	w = env.do(t, http.MethodPut, "/api/custom-orders/"+placed.ID+"/status",
		map[string]string{"status": "CONFIRMED"}, "admin-1", identity.RoleAdmin, &confirmed)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, confirmed.DeadlineAt)
	// The 48h SLA lands the deadline two days out.
	assert.WithinDuration(t, time.Now().Add(48*time.Hour), *confirmed.DeadlineAt, time.Minute)

	w = env.do(t, http.MethodPut, "/api/custom-orders/"+placed.ID+"/status",
		map[string]string{"status": "COMPLETED"}, "admin-1", identity.RoleAdmin, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestQueues(t *testing.T) {
	env := newTestEnv(t)

	o1 := env.placeOrder(t, "alice")
	o2 := env.placeOrder(t, "bob")
	env.do(t, http.MethodPost, "/api/custom-orders", validRequestBody(), "carol", identity.RoleCustomer, nil)

	var counts query.PendingCounts
	w := env.do(t, http.MethodGet, "/api/queues/counts", nil, "admin-1", identity.RoleAdmin, &counts)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, query.PendingCounts{Orders: 2, CustomRequests: 1}, counts)

	var pending []orderDTO
	w = env.do(t, http.MethodGet, "/api/queues/orders/pending", nil, "admin-1", identity.RoleAdmin, &pending)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, pending, 2)

	// Confirm one order; it moves from pending to active with a countdown.
	w, _ = env.setOrderStatus(t, o1.ID, "CONFIRMED")
	require.Equal(t, http.StatusOK, w.Code)

	var active []orderDTO
	w = env.do(t, http.MethodGet, "/api/queues/orders/active", nil, "admin-1", identity.RoleAdmin, &active)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, active, 1)
	require.NotNil(t, active[0].RemainingSeconds)
	assert.Greater(t, *active[0].RemainingSeconds, int64(0))

	// Finish the other order; it shows up in history.
	w, _ = env.setOrderStatus(t, o2.ID, "CANCELLED")
	require.Equal(t, http.StatusOK, w.Code)

	var history []orderDTO
	w = env.do(t, http.MethodGet, "/api/queues/orders/history", nil, "admin-1", identity.RoleAdmin, &history)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, history, 1)
	assert.Equal(t, o2.ID, history[0].ID)
}

func TestQueues_AdminOnly(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{
		"/api/queues/counts",
		"/api/queues/orders/pending",
		"/api/queues/orders/active",
		"/api/queues/custom-requests/history",
	} {
		w := env.do(t, http.MethodGet, path, nil, "alice", identity.RoleCustomer, nil)
		assert.Equal(t, http.StatusForbidden, w.Code, path)

		w = env.do(t, http.MethodGet, path, nil, "", "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
}

func TestQueues_UnknownKind(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/queues/invoices/pending", nil, "admin-1", identity.RoleAdmin, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHistoryLimit(t *testing.T) {
	env := newTestEnv(t)

	for range 3 {
		o := env.placeOrder(t, "alice")
		w, _ := env.setOrderStatus(t, o.ID, "CANCELLED")
		require.Equal(t, http.StatusOK, w.Code)
	}

	var history []orderDTO
	w := env.do(t, http.MethodGet, "/api/queues/orders/history?limit=2", nil, "admin-1", identity.RoleAdmin, &history)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, history, 2)

	w = env.do(t, http.MethodGet, "/api/queues/orders/history?limit=0", nil, "admin-1", identity.RoleAdmin, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProducts(t *testing.T) {
	env := newTestEnv(t)

	// Listing is public.
	var ps []productDTO
	w := env.do(t, http.MethodGet, "/api/products", nil, "", "", &ps)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, ps, 1)

	// Creation is admin only.
	body := map[string]any{"title": "Lily Basket", "price": 1249.0, "durationHours": 4}
	w = env.do(t, http.MethodPost, "/api/products", body, "alice", identity.RoleCustomer, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	var created productDTO
	w = env.do(t, http.MethodPost, "/api/products", body, "admin-1", identity.RoleAdmin, &created)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.NotEmpty(t, created.ID)

	w = env.do(t, http.MethodDelete, "/api/products/"+created.ID, nil, "admin-1", identity.RoleAdmin, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestProducts_CreateValidation(t *testing.T) {
	env := newTestEnv(t)

	tests := []map[string]any{
		{"title": "  ", "price": 100.0, "durationHours": 2},
		{"title": "Roses", "price": -1.0, "durationHours": 2},
		{"title": "Roses", "price": 100.0, "durationHours": 0},
	}
	for _, body := range tests {
		w := env.do(t, http.MethodPost, "/api/products", body, "admin-1", identity.RoleAdmin, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	}
}

func TestContactSettings(t *testing.T) {
	env := newTestEnv(t)

	// Default before anyone saves a number.
	var got contactBody
	w := env.do(t, http.MethodGet, "/api/settings/contact", nil, "", "", &got)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, settings.DefaultContactPhone, got.Phone)

	w = env.do(t, http.MethodPut, "/api/settings/contact",
		contactBody{Phone: "9123456780"}, "alice", identity.RoleCustomer, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodPut, "/api/settings/contact",
		contactBody{Phone: "12345"}, "admin-1", identity.RoleAdmin, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPut, "/api/settings/contact",
		contactBody{Phone: "9123456780"}, "admin-1", identity.RoleAdmin, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/api/settings/contact", nil, "", "", &got)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "9123456780", got.Phone)
}

// Two orders confirmed on the same day receive consecutive bill numbers.
func TestBillSequenceAcrossOrders(t *testing.T) {
	env := newTestEnv(t)

	o1 := env.placeOrder(t, "alice")
	o2 := env.placeOrder(t, "bob")

	_, first := env.setOrderStatus(t, o1.ID, "CONFIRMED")
	_, second := env.setOrderStatus(t, o2.ID, "CONFIRMED")

	day := time.Now().UTC().Format("20060102")
	assert.Equal(t, "VKM-"+day+"-001", first.BillID)
	assert.Equal(t, "VKM-"+day+"-002", second.BillID)
}
