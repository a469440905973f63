package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/uppalapadu/watersafe/internal/auth"
	"github.com/uppalapadu/watersafe/internal/model"
	"github.com/uppalapadu/watersafe/internal/service"
)

// CreateCampaign handles POST /campaigns
// Creates an Upcoming campaign with no booked slots.
func (h *Handler) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	var req model.CreateCampaignRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadBody(w, err)
		return
	}

	principal, _ := auth.FromContext(r.Context())
	campaign, err := h.svc.Campaigns.CreateCampaign(r.Context(), principal.UserID, req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, campaign)
}

// ListCampaigns handles GET /campaigns
// With ?active=true, Completed campaigns are omitted.
func (h *Handler) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	activeOnly := false
	if raw := r.URL.Query().Get("active"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, service.KindValidation, "active must be a boolean")
			return
		}
		activeOnly = v
	}

	campaigns, err := h.svc.Queries.ListCampaigns(r.Context(), activeOnly)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, campaigns)
}

// GetCampaign handles GET /campaigns/{id}
// Returns the campaign with its confirmed participants.
func (h *Handler) GetCampaign(w http.ResponseWriter, r *http.Request) {
	detail, err := h.svc.Queries.GetCampaignDetail(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// UpdateCampaign handles PATCH /campaigns/{id}
func (h *Handler) UpdateCampaign(w http.ResponseWriter, r *http.Request) {
	var req model.UpdateCampaignRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadBody(w, err)
		return
	}

	campaign, err := h.svc.Campaigns.UpdateCampaign(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, campaign)
}

// DeleteCampaign handles DELETE /campaigns/{id}
// Bookings of the campaign are removed with it.
func (h *Handler) DeleteCampaign(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Campaigns.DeleteCampaign(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Stats handles GET /admin/stats
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Queries.Stats(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
