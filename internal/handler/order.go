package handler

import (
	"net/http"

	"github.com/vkmflowers/backend/internal/domain/lifecycle"
	"github.com/vkmflowers/backend/internal/domain/order"
)

type placeOrderBody struct {
	ProductID   string `json:"productId"`
	Quantity    int    `json:"quantity"`
	Description string `json:"description"`
}

func (h *Handler) placeOrder(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var body placeOrderBody
	if err := decodeBody(r, &body); err != nil {
		respondError(r.Context(), w, err)
		return
	}

	o, err := h.orders.Place(r.Context(), actor, order.PlaceOrderRequest{
		ProductID:   body.ProductID,
		Quantity:    body.Quantity,
		Description: body.Description,
	})
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	h.placedOrders.Add(r.Context(), 1)
	respondJSON(r.Context(), w, http.StatusCreated, toOrderDTO(*o))
}

// listOrders returns every order for the admin, or the caller's own history
// for a customer.
func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	if actor.IsAdmin() {
		hist, err := h.queries.AllOrders(r.Context())
		if err != nil {
			respondError(r.Context(), w, err)
			return
		}
		respondJSON(r.Context(), w, http.StatusOK, toOrderDTOs(hist))
		return
	}

	hist, err := h.queries.ForUser(r.Context(), actor.UserID)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondJSON(r.Context(), w, http.StatusOK, toOrderDTOs(hist.Orders))
}

type statusBody struct {
	Status string `json:"status"`
}

func (h *Handler) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var body statusBody
	if err := decodeBody(r, &body); err != nil {
		respondError(r.Context(), w, err)
		return
	}
	to, err := lifecycle.ParseStatus(body.Status)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}

	o, err := h.orders.Transition(r.Context(), actor, r.PathValue("id"), to)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	h.transitions.Add(r.Context(), 1)
	respondJSON(r.Context(), w, http.StatusOK, toOrderDTO(*o))
}

func (h *Handler) deleteOrder(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	if err := h.orders.Delete(r.Context(), actor, r.PathValue("id")); err != nil {
		respondError(r.Context(), w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
