package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/voicehouse/outreach/internal/domain"
	"github.com/voicehouse/outreach/internal/pkg/httputil"
	"github.com/voicehouse/outreach/internal/service/audience"
)

// ListContacts returns subscribed contacts.
//
//	GET /api/contacts
func (h *Handlers) ListContacts(w http.ResponseWriter, r *http.Request) {
	contacts, err := h.contacts.List(r.Context())
	if errors.Is(err, audience.ErrDataUnavailable) {
		httputil.Error(w, http.StatusInternalServerError, "contact store unavailable")
		return
	}
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, map[string]any{"contacts": contacts})
}

// GetContact returns one contact.
//
//	GET /api/contacts/{id}
func (h *Handlers) GetContact(w http.ResponseWriter, r *http.Request) {
	c, err := h.contacts.Get(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, audience.ErrNotFound) {
		httputil.NotFound(w, "contact not found")
		return
	}
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, c)
}

// CreateContact adds a contact.
//
//	POST /api/contacts
func (h *Handlers) CreateContact(w http.ResponseWriter, r *http.Request) {
	var c domain.Contact
	if !httputil.Decode(w, r, &c) {
		return
	}

	id, err := h.contacts.Create(r.Context(), &c)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	httputil.Created(w, map[string]any{"id": id})
}
