// Package handler exposes the lifecycle engine over JSON HTTP, mirroring the
// storefront client's API. Routing uses net/http method patterns; business
// rules live in the domain services, this layer only decodes, dispatches,
// and maps domain errors to status codes.
package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/vkmflowers/backend/internal/domain/customreq"
	"github.com/vkmflowers/backend/internal/domain/lifecycle"
	"github.com/vkmflowers/backend/internal/domain/order"
	"github.com/vkmflowers/backend/internal/domain/product"
	"github.com/vkmflowers/backend/internal/domain/query"
	"github.com/vkmflowers/backend/internal/domain/settings"
)

// Handler wires the domain services to HTTP routes.
type Handler struct {
	orders   *order.Service
	requests *customreq.Service
	queries  *query.Facade
	settings *settings.Service
	products product.Repository

	placedOrders   metric.Int64Counter
	placedRequests metric.Int64Counter
	transitions    metric.Int64Counter
}

// NewHandler constructs a Handler with the required domain dependencies.
// Counters are registered on the given meter provider.
func NewHandler(
	orders *order.Service,
	requests *customreq.Service,
	queries *query.Facade,
	settingsSvc *settings.Service,
	products product.Repository,
	mp metric.MeterProvider,
) (*Handler, error) {
	meter := mp.Meter("vkm-backend/handler")

	placedOrders, err := meter.Int64Counter("orders_placed_total",
		metric.WithDescription("Stock orders accepted into the ledger"))
	if err != nil {
		return nil, err
	}
	placedRequests, err := meter.Int64Counter("custom_requests_placed_total",
		metric.WithDescription("Custom requests accepted into the ledger"))
	if err != nil {
		return nil, err
	}
	transitions, err := meter.Int64Counter("status_transitions_total",
		metric.WithDescription("Accepted status transitions across both ledgers"))
	if err != nil {
		return nil, err
	}

	return &Handler{
		orders:         orders,
		requests:       requests,
		queries:        queries,
		settings:       settingsSvc,
		products:       products,
		placedOrders:   placedOrders,
		placedRequests: placedRequests,
		transitions:    transitions,
	}, nil
}

// Register attaches all API routes to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/orders", h.placeOrder)
	mux.HandleFunc("GET /api/orders", h.listOrders)
	mux.HandleFunc("PUT /api/orders/{id}/status", h.updateOrderStatus)
	mux.HandleFunc("DELETE /api/orders/{id}", h.deleteOrder)

	mux.HandleFunc("POST /api/custom-orders", h.placeCustomRequest)
	mux.HandleFunc("GET /api/custom-orders", h.listCustomRequests)
	mux.HandleFunc("PUT /api/custom-orders/{id}/status", h.updateCustomRequestStatus)
	mux.HandleFunc("DELETE /api/custom-orders/{id}", h.deleteCustomRequest)

	mux.HandleFunc("GET /api/queues/counts", h.pendingCounts)
	mux.HandleFunc("GET /api/queues/{kind}/pending", h.pendingQueue)
	mux.HandleFunc("GET /api/queues/{kind}/active", h.activeQueue)
	mux.HandleFunc("GET /api/queues/{kind}/history", h.historyQueue)

	mux.HandleFunc("GET /api/products", h.listProducts)
	mux.HandleFunc("POST /api/products", h.createProduct)
	mux.HandleFunc("DELETE /api/products/{id}", h.deleteProduct)

	mux.HandleFunc("GET /api/settings/contact", h.getContact)
	mux.HandleFunc("PUT /api/settings/contact", h.setContact)
}

// respondJSON writes v as a JSON response body with the given status.
func respondJSON(ctx context.Context, w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zctx.From(ctx).Error("encode response", zap.Error(err))
	}
}

// errorBody matches what the storefront client reads on failure.
type errorBody struct {
	Error string `json:"error"`
}

// respondError maps a domain error to its HTTP status. Every entry in the
// taxonomy is an expected, recoverable condition; anything else is a 500.
func respondError(ctx context.Context, w http.ResponseWriter, err error) {
	var (
		validationErr *lifecycle.ValidationError
		notFoundErr   *lifecycle.NotFoundError
		transitionErr *lifecycle.InvalidTransitionError
		stateErr      *lifecycle.InvalidStateError
		authErr       *lifecycle.AuthorizationError
	)

	status := http.StatusInternalServerError
	msg := "internal error"

	switch {
	case errors.As(err, &validationErr):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.As(err, &notFoundErr):
		status, msg = http.StatusNotFound, err.Error()
	case errors.As(err, &transitionErr):
		status, msg = http.StatusConflict, err.Error()
	case errors.As(err, &stateErr):
		status, msg = http.StatusConflict, err.Error()
	case errors.As(err, &authErr):
		status, msg = http.StatusForbidden, err.Error()
	default:
		zctx.From(ctx).Error("request failed", zap.Error(err))
	}

	respondJSON(ctx, w, status, errorBody{Error: msg})
}

func decodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return &lifecycle.ValidationError{Field: "body", Reason: "malformed JSON"}
	}
	return nil
}
