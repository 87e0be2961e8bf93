// internal/mapping/handler.go
package mapping

import (
	"errors"
	"net/http"

	"cloud.google.com/go/civil"
	"github.com/go-chi/chi/v5"

	"ticketsync/internal/heuristics"
	"ticketsync/internal/transport"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// Routes mounts under /products/{id}/mappings.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.HandleList)
	r.Put("/", h.HandleSave)
	r.Get("/resolve", h.HandleResolve)
	r.Put("/default", h.HandleSaveDefault)
}

type saveRequest struct {
	Mappings []OccurrenceMapping `json:"mappings" validate:"dive"`
}

func (h *Handler) HandleResolve(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "id")

	var date civil.Date
	if raw := r.URL.Query().Get("date"); raw != "" {
		d, err := civil.ParseDate(raw)
		if err != nil {
			transport.WriteProblem(w, http.StatusBadRequest, "invalid date", "date must be YYYY-MM-DD", nil)
			return
		}
		date = d
	}

	var clock string
	if raw := r.URL.Query().Get("time"); raw != "" {
		c, ok := heuristics.ParseTimeValue(raw)
		if !ok {
			transport.WriteProblem(w, http.StatusBadRequest, "invalid time", "time must be HH:MM", nil)
			return
		}
		clock = c
	}

	m, err := h.service.Resolve(r.Context(), productID, date, clock)
	if err != nil {
		transport.WriteProblem(w, http.StatusInternalServerError, "resolve failed", err.Error(), nil)
		return
	}
	transport.WriteJSON(w, http.StatusOK, m)
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.Occurrences(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		transport.WriteProblem(w, http.StatusInternalServerError, "list failed", err.Error(), nil)
		return
	}
	if list == nil {
		list = []ResolvedMapping{}
	}
	transport.WriteJSON(w, http.StatusOK, list)
}

func (h *Handler) HandleSave(w http.ResponseWriter, r *http.Request) {
	var req saveRequest
	if !transport.DecodeJSON(w, r, &req) {
		return
	}

	n, err := h.service.Save(r.Context(), chi.URLParam(r, "id"), req.Mappings)
	if err != nil {
		writeError(w, err)
		return
	}
	transport.WriteJSON(w, http.StatusOK, map[string]int{"saved": n})
}

func (h *Handler) HandleSaveDefault(w http.ResponseWriter, r *http.Request) {
	var m ChannelMapping
	if !transport.DecodeJSON(w, r, &m) {
		return
	}
	if err := h.service.SaveDefault(r.Context(), chi.URLParam(r, "id"), m); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrMissingProduct) {
		transport.WriteProblem(w, http.StatusBadRequest, "invalid product", err.Error(), nil)
		return
	}
	if errors.Is(err, ErrInvalidTime) {
		transport.WriteProblem(w, http.StatusUnprocessableEntity, "validation failed", err.Error(), nil)
		return
	}
	transport.WriteProblem(w, http.StatusInternalServerError, "save failed", err.Error(), nil)
}
