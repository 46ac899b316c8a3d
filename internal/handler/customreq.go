package handler

import (
	"net/http"

	"github.com/vkmflowers/backend/internal/domain/customreq"
	"github.com/vkmflowers/backend/internal/domain/lifecycle"
)

type placeCustomRequestBody struct {
	Description   string   `json:"description"`
	RequestedDate string   `json:"requestedDate"`
	RequestedTime string   `json:"requestedTime"`
	ContactName   string   `json:"contactName"`
	ContactPhone  string   `json:"contactPhone"`
	Images        []string `json:"images"`
}

func (h *Handler) placeCustomRequest(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var body placeCustomRequestBody
	if err := decodeBody(r, &body); err != nil {
		respondError(r.Context(), w, err)
		return
	}

	cr, err := h.requests.Place(r.Context(), actor, customreq.PlaceRequest{
		Description:   body.Description,
		RequestedDate: body.RequestedDate,
		RequestedTime: body.RequestedTime,
		ContactName:   body.ContactName,
		ContactPhone:  body.ContactPhone,
		Images:        body.Images,
	})
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	h.placedRequests.Add(r.Context(), 1)
	respondJSON(r.Context(), w, http.StatusCreated, toCustomRequestDTO(*cr))
}

func (h *Handler) listCustomRequests(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	if actor.IsAdmin() {
		rs, err := h.queries.AllRequests(r.Context())
		if err != nil {
			respondError(r.Context(), w, err)
			return
		}
		respondJSON(r.Context(), w, http.StatusOK, toCustomRequestDTOs(rs))
		return
	}

	hist, err := h.queries.ForUser(r.Context(), actor.UserID)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondJSON(r.Context(), w, http.StatusOK, toCustomRequestDTOs(hist.CustomRequests))
}

func (h *Handler) updateCustomRequestStatus(w http.ResponseWriter, r *http.Request) {
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

	cr, err := h.requests.Transition(r.Context(), actor, r.PathValue("id"), to)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	h.transitions.Add(r.Context(), 1)
	respondJSON(r.Context(), w, http.StatusOK, toCustomRequestDTO(*cr))
}

func (h *Handler) deleteCustomRequest(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	if err := h.requests.Delete(r.Context(), actor, r.PathValue("id")); err != nil {
		respondError(r.Context(), w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
