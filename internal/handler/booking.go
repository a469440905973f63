package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/uppalapadu/watersafe/internal/model"
)

// CreateBooking handles POST /bookings
// Claims one slot of a campaign for the given user.
func (h *Handler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var req model.CreateBookingRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadBody(w, err)
		return
	}

	booking, err := h.svc.Bookings.CreateBooking(r.Context(), req.UserID, req.CampaignID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, booking)
}

// CancelBooking handles DELETE /bookings/{id}
// Cancelling an already cancelled booking returns it unchanged.
func (h *Handler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	booking, err := h.svc.Bookings.CancelBooking(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

// UserBookings handles GET /users/{id}/bookings
func (h *Handler) UserBookings(w http.ResponseWriter, r *http.Request) {
	bookings, err := h.svc.Queries.GetUserBookings(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bookings)
}

// UserCampaigns handles GET /users/{id}/campaigns
// Lists active campaigns with the user's booking state on each.
func (h *Handler) UserCampaigns(w http.ResponseWriter, r *http.Request) {
	campaigns, err := h.svc.Queries.ListCampaignAvailability(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, campaigns)
}
