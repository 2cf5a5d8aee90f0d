package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/voicehouse/outreach/internal/domain"
	"github.com/voicehouse/outreach/internal/pkg/httputil"
	"github.com/voicehouse/outreach/internal/service/audience"
)

// ListAudiences returns all audiences.
//
//	GET /api/audiences
func (h *Handlers) ListAudiences(w http.ResponseWriter, r *http.Request) {
	audiences, err := h.audiences.List(r.Context())
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, map[string]any{"audiences": audiences})
}

// GetAudience returns one audience.
//
//	GET /api/audiences/{id}
func (h *Handlers) GetAudience(w http.ResponseWriter, r *http.Request) {
	a, err := h.audiences.Get(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, audience.ErrNotFound) {
		httputil.NotFound(w, "audience not found")
		return
	}
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, a)
}

// CreateAudience creates an audience.
//
//	POST /api/audiences
func (h *Handlers) CreateAudience(w http.ResponseWriter, r *http.Request) {
	var a domain.Audience
	if !httputil.Decode(w, r, &a) {
		return
	}
	if a.Name == "" {
		httputil.BadRequest(w, "name is required")
		return
	}
	switch a.Type {
	case domain.AudienceStatic, domain.AudienceDynamic, domain.AudienceAll:
	default:
		httputil.BadRequest(w, "type must be static, dynamic, or all")
		return
	}

	id, err := h.audiences.Create(r.Context(), &a)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.Created(w, map[string]any{"id": id})
}

// UpdateAudience updates an audience definition.
//
//	PUT /api/audiences/{id}
func (h *Handlers) UpdateAudience(w http.ResponseWriter, r *http.Request) {
	var a domain.Audience
	if !httputil.Decode(w, r, &a) {
		return
	}
	a.ID = chi.URLParam(r, "id")

	err := h.audiences.Update(r.Context(), &a)
	if errors.Is(err, audience.ErrNotFound) {
		httputil.NotFound(w, "audience not found")
		return
	}
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, map[string]any{"success": true})
}

// DeleteAudience removes an audience.
//
//	DELETE /api/audiences/{id}
func (h *Handlers) DeleteAudience(w http.ResponseWriter, r *http.Request) {
	err := h.audiences.Delete(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, audience.ErrNotFound) {
		httputil.NotFound(w, "audience not found")
		return
	}
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.NoContent(w)
}

// SyncAudience pushes the audience's contacts to the email provider.
//
//	POST /api/audiences/{id}/sync
func (h *Handlers) SyncAudience(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	result, err := h.sync.SyncAudience(r.Context(), id)
	switch {
	case errors.Is(err, audience.ErrNotFound):
		httputil.NotFound(w, "audience not found")
		return
	case errors.Is(err, audience.ErrSyncInProgress):
		httputil.Error(w, http.StatusConflict, "sync already in progress")
		return
	case errors.Is(err, audience.ErrCreateAudience):
		httputil.Error(w, http.StatusInternalServerError, "failed to create provider audience")
		return
	case errors.Is(err, audience.ErrDataUnavailable):
		httputil.Error(w, http.StatusInternalServerError, "contact store unavailable")
		return
	case err != nil:
		httputil.InternalError(w, err)
		return
	}

	httputil.OK(w, map[string]any{
		"success":     true,
		"audienceId":  id,
		"syncResults": result,
	})
}
