package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/uppalapadu/watersafe/internal/model"
	"github.com/uppalapadu/watersafe/internal/service"
)

// RegisterUser handles POST /users
func (h *Handler) RegisterUser(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadBody(w, err)
		return
	}

	user, err := h.svc.Users.Register(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

// Login handles POST /auth/login
// Resolves the user by email and returns a bearer token for them.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadBody(w, err)
		return
	}

	user, err := h.svc.Users.Login(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	token, err := h.issuer.Issue(user)
	if err != nil {
		h.writeServiceError(w, r, service.Internal("issue token", err))
		return
	}
	writeJSON(w, http.StatusOK, model.LoginResponse{User: user, Token: token})
}

// GetUser handles GET /users/{id}
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.svc.Users.GetUser(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}
