package handler

import "net/http"

type contactBody struct {
	Phone string `json:"phone"`
}

func (h *Handler) getContact(w http.ResponseWriter, r *http.Request) {
	phone, err := h.settings.Contact(r.Context())
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondJSON(r.Context(), w, http.StatusOK, contactBody{Phone: phone})
}

func (h *Handler) setContact(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var body contactBody
	if err := decodeBody(r, &body); err != nil {
		respondError(r.Context(), w, err)
		return
	}
	if err := h.settings.SetContact(r.Context(), actor, body.Phone); err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondJSON(r.Context(), w, http.StatusOK, contactBody{Phone: body.Phone})
}
