package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/voicehouse/outreach/internal/domain"
	"github.com/voicehouse/outreach/internal/pkg/httputil"
	"github.com/voicehouse/outreach/internal/service/audience"
	"github.com/voicehouse/outreach/internal/service/campaign"
)

// ListCampaigns returns all campaigns.
//
//	GET /api/campaigns
func (h *Handlers) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	campaigns, err := h.campaigns.List(r.Context())
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, map[string]any{"campaigns": campaigns})
}

// GetCampaign returns one campaign.
//
//	GET /api/campaigns/{id}
func (h *Handlers) GetCampaign(w http.ResponseWriter, r *http.Request) {
	c, err := h.campaigns.Get(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, campaign.ErrNotFound) {
		httputil.NotFound(w, "campaign not found")
		return
	}
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, c)
}

// CreateCampaign creates a draft campaign.
//
//	POST /api/campaigns
func (h *Handlers) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	var c domain.Campaign
	if !httputil.Decode(w, r, &c) {
		return
	}
	if c.Name == "" || c.Subject == "" {
		httputil.BadRequest(w, "name and subject are required")
		return
	}
	if c.FromEmail == "" {
		httputil.BadRequest(w, "from_email is required")
		return
	}

	id, err := h.campaigns.Create(r.Context(), &c)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.Created(w, map[string]any{"id": id})
}

// UpdateCampaign updates a draft campaign.
//
//	PUT /api/campaigns/{id}
func (h *Handlers) UpdateCampaign(w http.ResponseWriter, r *http.Request) {
	var c domain.Campaign
	if !httputil.Decode(w, r, &c) {
		return
	}
	c.ID = chi.URLParam(r, "id")

	err := h.campaigns.Update(r.Context(), &c)
	if errors.Is(err, campaign.ErrNotFound) {
		httputil.NotFound(w, "campaign not found or not editable")
		return
	}
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, map[string]any{"success": true})
}

// DeleteCampaign removes a draft campaign.
//
//	DELETE /api/campaigns/{id}
func (h *Handlers) DeleteCampaign(w http.ResponseWriter, r *http.Request) {
	err := h.campaigns.Delete(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, campaign.ErrNotFound) {
		httputil.NotFound(w, "campaign not found or not deletable")
		return
	}
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.NoContent(w)
}

type sendCampaignRequest struct {
	Test       bool     `json:"test"`
	TestEmails []string `json:"test_emails"`
}

// SendCampaign dispatches a campaign, either as a test delivery or as
// a production broadcast.
//
//	POST /api/campaigns/{id}/send
func (h *Handlers) SendCampaign(w http.ResponseWriter, r *http.Request) {
	var req sendCampaignRequest
	if !httputil.Decode(w, r, &req) {
		return
	}

	result, err := h.campaigns.Send(r.Context(), chi.URLParam(r, "id"), campaign.SendOptions{
		Test:       req.Test,
		TestEmails: req.TestEmails,
	})
	switch {
	case errors.Is(err, campaign.ErrNotFound):
		httputil.NotFound(w, "campaign not found")
		return
	case errors.Is(err, campaign.ErrNotDraft):
		httputil.BadRequest(w, "campaign is not in draft status")
		return
	case errors.Is(err, campaign.ErrNoTestRecipients):
		httputil.BadRequest(w, "test send requires at least one recipient")
		return
	case errors.Is(err, campaign.ErrNoAudience):
		httputil.BadRequest(w, "campaign has no sendable audience")
		return
	case errors.Is(err, audience.ErrCreateAudience):
		httputil.Error(w, http.StatusInternalServerError, "failed to create provider audience")
		return
	case errors.Is(err, campaign.ErrSendFailed):
		httputil.Error(w, http.StatusInternalServerError, "provider send failed")
		return
	case err != nil:
		httputil.InternalError(w, err)
		return
	}

	if result.Test {
		httputil.OK(w, map[string]any{"testResults": result.TestResults})
		return
	}
	httputil.OK(w, map[string]any{
		"success":     true,
		"broadcastId": result.BroadcastID,
		"status":      result.Status,
		"recipients":  result.Recipients,
	})
}
