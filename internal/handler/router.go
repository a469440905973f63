package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// NewRouter builds the chi router with the global middleware stack and all routes.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(Logger(h.log))
	r.Use(CORS)

	r.Get("/health", HealthCheck)

	// Public. Credentials are not read here, so a stale token never blocks login.
	r.Post("/users", h.RegisterUser)
	r.Post("/auth/login", h.Login)
	r.Get("/campaigns", h.ListCampaigns)
	r.Get("/campaigns/{id}", h.GetCampaign)

	r.Group(func(r chi.Router) {
		r.Use(Authenticate(h.issuer))
		r.Use(RequireAuth)

		r.Get("/users/{id}", h.GetUser)
		r.Get("/users/{id}/bookings", h.UserBookings)
		r.Get("/users/{id}/campaigns", h.UserCampaigns)

		r.Post("/bookings", h.CreateBooking)
		r.Delete("/bookings/{id}", h.CancelBooking)

		r.Post("/assistant/questions", h.AskQuestion)
		r.Get("/assistant/example-image", h.ExampleImage)
	})

	r.Group(func(r chi.Router) {
		r.Use(Authenticate(h.issuer))
		r.Use(RequireAdmin)

		r.Post("/campaigns", h.CreateCampaign)
		r.Patch("/campaigns/{id}", h.UpdateCampaign)
		r.Delete("/campaigns/{id}", h.DeleteCampaign)
		r.Get("/admin/stats", h.Stats)
	})

	return r
}
