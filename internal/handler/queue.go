package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/vkmflowers/backend/internal/domain/lifecycle"
	"github.com/vkmflowers/backend/internal/domain/query"
)

const defaultHistoryLimit = 50

// requireAdmin resolves the caller and rejects non-admins. Queue reads are
// admin screens; customers use their own history endpoints.
func (h *Handler) requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	actor, ok := requireActor(w, r)
	if !ok {
		return false
	}
	if !actor.IsAdmin() {
		respondError(r.Context(), w, &lifecycle.AuthorizationError{Op: "read admin queues"})
		return false
	}
	return true
}

func (h *Handler) pendingQueue(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}
	kind, err := query.ParseKind(r.PathValue("kind"))
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}

	if kind == query.KindOrders {
		os, err := h.queries.PendingOrders(r.Context())
		if err != nil {
			respondError(r.Context(), w, err)
			return
		}
		respondJSON(r.Context(), w, http.StatusOK, toOrderDTOs(os))
		return
	}
	rs, err := h.queries.PendingRequests(r.Context())
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondJSON(r.Context(), w, http.StatusOK, toCustomRequestDTOs(rs))
}

// activeQueue returns CONFIRMED work sorted by urgency, annotated with the
// live countdown derived at read time.
func (h *Handler) activeQueue(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}
	kind, err := query.ParseKind(r.PathValue("kind"))
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	now := time.Now().UTC()

	if kind == query.KindOrders {
		os, err := h.queries.ActiveOrders(r.Context())
		if err != nil {
			respondError(r.Context(), w, err)
			return
		}
		respondJSON(r.Context(), w, http.StatusOK, withOrderCountdown(toOrderDTOs(os), os, now))
		return
	}
	rs, err := h.queries.ActiveRequests(r.Context())
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondJSON(r.Context(), w, http.StatusOK, withRequestCountdown(toCustomRequestDTOs(rs), rs, now))
}

func (h *Handler) historyQueue(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}
	kind, err := query.ParseKind(r.PathValue("kind"))
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}

	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			respondError(r.Context(), w, &lifecycle.ValidationError{Field: "limit", Reason: "must be a positive integer"})
			return
		}
		limit = n
	}

	if kind == query.KindOrders {
		os, err := h.queries.OrderHistory(r.Context(), limit)
		if err != nil {
			respondError(r.Context(), w, err)
			return
		}
		respondJSON(r.Context(), w, http.StatusOK, toOrderDTOs(os))
		return
	}
	rs, err := h.queries.RequestHistory(r.Context(), limit)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondJSON(r.Context(), w, http.StatusOK, toCustomRequestDTOs(rs))
}

func (h *Handler) pendingCounts(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}
	counts, err := h.queries.Counts(r.Context())
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondJSON(r.Context(), w, http.StatusOK, counts)
}
