// internal/importer/handler.go
package importer

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ticketsync/internal/transport"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// Routes mounts under /import.
func (h *Handler) Routes(r chi.Router) {
	r.With(transport.RequireJSON).Post("/step", h.HandleStep)
}

func (h *Handler) HandleStep(w http.ResponseWriter, r *http.Request) {
	var req StepRequest
	if !transport.DecodeJSON(w, r, &req) {
		return
	}

	result, err := h.service.Step(r.Context(), req)
	var stepErr *StepError
	switch {
	case err == nil:
		transport.WriteJSON(w, http.StatusOK, result)
	case errors.Is(err, ErrInvalidRequest):
		transport.WriteProblem(w, http.StatusBadRequest, "invalid import request", err.Error(), nil)
	case errors.As(err, &stepErr):
		transport.WriteProblemMeta(w, http.StatusBadGateway, "import step failed", stepErr.Error(), nil, map[string]any{
			"logs":   stepErr.Logs,
			"cursor": stepErr.Cursor,
		})
	default:
		transport.WriteProblem(w, http.StatusInternalServerError, "import step failed", err.Error(), nil)
	}
}
