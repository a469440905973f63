package handler

import (
	"net/http"
	"strconv"

	"github.com/uppalapadu/watersafe/internal/model"
	"github.com/uppalapadu/watersafe/internal/service"
)

// AskQuestion handles POST /assistant/questions
func (h *Handler) AskQuestion(w http.ResponseWriter, r *http.Request) {
	var req model.QuestionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadBody(w, err)
		return
	}
	if err := req.Validate(); err != nil {
		h.writeServiceError(w, r, service.Validation(err))
		return
	}

	answer, err := h.assistant.AnswerQuestion(r.Context(), req.Question)
	if err != nil {
		h.writeServiceError(w, r, service.Unavailable(err))
		return
	}
	writeJSON(w, http.StatusOK, model.AnswerResponse{Answer: answer})
}

// ExampleImage handles GET /assistant/example-image
// Responds with the raw image bytes.
func (h *Handler) ExampleImage(w http.ResponseWriter, r *http.Request) {
	img, err := h.assistant.GenerateExampleImage(r.Context())
	if err != nil {
		h.writeServiceError(w, r, service.Unavailable(err))
		return
	}
	w.Header().Set("Content-Type", img.MIMEType)
	w.Header().Set("Content-Length", strconv.Itoa(len(img.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(img.Data)
}
