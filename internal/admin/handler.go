// internal/admin/handler.go
package admin

import (
	"errors"
	"net/http"
	"strconv"

	"cloud.google.com/go/civil"
	"github.com/go-chi/chi/v5"

	"ticketsync/internal/catalog"
	"ticketsync/internal/heuristics"
	"ticketsync/internal/mapping"
	"ticketsync/internal/transport"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// ProductRoutes mounts under /products/{id}.
func (h *Handler) ProductRoutes(r chi.Router) {
	r.Get("/occurrences", h.HandleOccurrences)
	r.Get("/check", h.HandleTestMapping)
	r.Get("/attendees", h.HandleAttendees)
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/connections", h.HandleConnections)
	r.Get("/pos/catalog", h.HandlePOSCatalog)
}

func (h *Handler) HandleOccurrences(w http.ResponseWriter, r *http.Request) {
	useRemote, _ := strconv.ParseBool(r.URL.Query().Get("remote"))
	list, err := h.service.ProductOccurrences(r.Context(), chi.URLParam(r, "id"), useRemote)
	if err != nil {
		writeError(w, err)
		return
	}
	transport.WriteJSON(w, http.StatusOK, list)
}

func (h *Handler) HandleTestMapping(w http.ResponseWriter, r *http.Request) {
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

	check, err := h.service.TestMapping(r.Context(), chi.URLParam(r, "id"), date, clock)
	if err != nil {
		writeError(w, err)
		return
	}
	transport.WriteJSON(w, http.StatusOK, check)
}

func (h *Handler) HandleAttendees(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.Attendees(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	transport.WriteJSON(w, http.StatusOK, list)
}

func (h *Handler) HandleConnections(w http.ResponseWriter, r *http.Request) {
	transport.WriteJSON(w, http.StatusOK, h.service.TestConnections(r.Context()))
}

func (h *Handler) HandlePOSCatalog(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.POSCatalog(r.Context())
	if err != nil {
		transport.WriteProblem(w, http.StatusBadGateway, "POS catalog unavailable", err.Error(), nil)
		return
	}
	transport.WriteJSON(w, http.StatusOK, items)
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, catalog.ErrProductNotFound):
		transport.WriteProblem(w, http.StatusNotFound, "product not found", err.Error(), nil)
	case errors.Is(err, mapping.ErrMissingProduct):
		transport.WriteProblem(w, http.StatusBadRequest, "invalid request", err.Error(), nil)
	default:
		transport.WriteProblem(w, http.StatusInternalServerError, "admin query failed", err.Error(), nil)
	}
}
