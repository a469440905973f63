// Package handler contains chi HTTP handlers that translate HTTP
// requests/responses to and from the service layer.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/uppalapadu/watersafe/internal/assistant"
	"github.com/uppalapadu/watersafe/internal/auth"
	"github.com/uppalapadu/watersafe/internal/model"
	"github.com/uppalapadu/watersafe/internal/service"
)

// Handler holds all HTTP handlers for the campaign booking API.
type Handler struct {
	svc       *service.Services
	issuer    *auth.Issuer
	assistant assistant.Assistant
	log       *zap.Logger
}

// New constructs a Handler.
func New(svc *service.Services, issuer *auth.Issuer, guide assistant.Assistant, log *zap.Logger) *Handler {
	return &Handler{svc: svc, issuer: issuer, assistant: guide, log: log}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, kind service.Kind, msg string) {
	writeJSON(w, status, model.ErrorResponse{Error: msg, Kind: string(kind)})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MB limit
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func writeBadBody(w http.ResponseWriter, err error) {
	writeError(w, http.StatusBadRequest, service.KindValidation, "invalid request body: "+err.Error())
}

var statusByKind = map[service.Kind]int{
	service.KindNotFound:           http.StatusNotFound,
	service.KindConflict:           http.StatusConflict,
	service.KindValidation:         http.StatusBadRequest,
	service.KindUnauthorized:       http.StatusUnauthorized,
	service.KindForbidden:          http.StatusForbidden,
	service.KindServiceUnavailable: http.StatusServiceUnavailable,
	service.KindInternal:           http.StatusInternalServerError,
}

// writeServiceError maps a service failure onto a status code and JSON envelope.
// Internal details are logged, never returned to the client.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var svcErr *service.Error
	if !errors.As(err, &svcErr) {
		svcErr = service.Internal("unexpected error", err)
	}
	status, ok := statusByKind[svcErr.Kind]
	if !ok {
		status = http.StatusInternalServerError
	}

	msg := svcErr.Message
	switch svcErr.Kind {
	case service.KindValidation:
		msg = svcErr.Error()
	case service.KindInternal:
		h.log.Error("request failed",
			zap.String("request_id", chimiddleware.GetReqID(r.Context())),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		msg = "internal server error"
	case service.KindServiceUnavailable:
		h.log.Warn("collaborator unavailable",
			zap.String("request_id", chimiddleware.GetReqID(r.Context())),
			zap.Error(err),
		)
	}
	writeError(w, status, svcErr.Kind, msg)
}

// HealthCheck handles GET /health
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
