package handler

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vkmflowers/backend/internal/domain/lifecycle"
	"github.com/vkmflowers/backend/internal/domain/product"
)

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	ps, err := h.products.List(r.Context())
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	out := make([]productDTO, len(ps))
	for i, p := range ps {
		out[i] = toProductDTO(p)
	}
	respondJSON(r.Context(), w, http.StatusOK, out)
}

type createProductBody struct {
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	Price         float64  `json:"price"`
	DurationHours int      `json:"durationHours"`
	Images        []string `json:"images"`
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	if !actor.IsAdmin() {
		respondError(r.Context(), w, &lifecycle.AuthorizationError{Op: "create product"})
		return
	}
	var body createProductBody
	if err := decodeBody(r, &body); err != nil {
		respondError(r.Context(), w, err)
		return
	}
	if strings.TrimSpace(body.Title) == "" {
		respondError(r.Context(), w, &lifecycle.ValidationError{Field: "title", Reason: "required"})
		return
	}
	if body.Price < 0 {
		respondError(r.Context(), w, &lifecycle.ValidationError{Field: "price", Reason: "must not be negative"})
		return
	}
	if body.DurationHours < 1 {
		respondError(r.Context(), w, &lifecycle.ValidationError{Field: "durationHours", Reason: "must be at least 1"})
		return
	}

	p := &product.Product{
		ID:            uuid.New().String(),
		Title:         strings.TrimSpace(body.Title),
		Description:   body.Description,
		Price:         decimal.NewFromFloat(body.Price),
		DurationHours: body.DurationHours,
		Images:        body.Images,
	}
	if err := h.products.Create(r.Context(), p); err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondJSON(r.Context(), w, http.StatusCreated, toProductDTO(*p))
}

func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	if !actor.IsAdmin() {
		respondError(r.Context(), w, &lifecycle.AuthorizationError{Op: "delete product"})
		return
	}
	if err := h.products.Delete(r.Context(), r.PathValue("id")); err != nil {
		respondError(r.Context(), w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
