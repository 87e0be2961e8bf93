// internal/ledger/handler.go
package ledger

import (
	"errors"
	"net/http"

	"cloud.google.com/go/civil"
	"github.com/go-chi/chi/v5"

	"ticketsync/internal/transport"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// Routes mounts under /ledger.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/daily/{date}", h.HandleDaily)
	r.Get("/total", h.HandleTotal)
	r.Get("/summary", h.HandleSummary)
	r.Get("/products", h.HandleProductSummary)
	r.Delete("/", h.HandleReset)
}

func (h *Handler) HandleDaily(w http.ResponseWriter, r *http.Request) {
	date, err := civil.ParseDate(chi.URLParam(r, "date"))
	if err != nil {
		transport.WriteProblem(w, http.StatusBadRequest, "invalid date", "date must be YYYY-MM-DD", nil)
		return
	}
	entries, err := h.service.Daily(r.Context(), date)
	if err != nil {
		h.writeError(w, err)
		return
	}
	transport.WriteJSON(w, http.StatusOK, entries)
}

func (h *Handler) HandleTotal(w http.ResponseWriter, r *http.Request) {
	from, to, ok := period(w, r)
	if !ok {
		return
	}
	totals, err := h.service.Total(r.Context(), from, to)
	if err != nil {
		h.writeError(w, err)
		return
	}
	transport.WriteJSON(w, http.StatusOK, totals)
}

func (h *Handler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	from, to, ok := period(w, r)
	if !ok {
		return
	}
	summary, err := h.service.Summary(r.Context(), from, to)
	if err != nil {
		h.writeError(w, err)
		return
	}
	transport.WriteJSON(w, http.StatusOK, summary)
}

func (h *Handler) HandleProductSummary(w http.ResponseWriter, r *http.Request) {
	from, to, ok := period(w, r)
	if !ok {
		return
	}
	totals, err := h.service.ProductSummary(r.Context(), from, to)
	if err != nil {
		h.writeError(w, err)
		return
	}
	transport.WriteJSON(w, http.StatusOK, totals)
}

func (h *Handler) HandleReset(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Reset(r.Context()); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// period reads the from and to query parameters. to defaults to from.
func period(w http.ResponseWriter, r *http.Request) (civil.Date, civil.Date, bool) {
	from, err := civil.ParseDate(r.URL.Query().Get("from"))
	if err != nil {
		transport.WriteProblem(w, http.StatusBadRequest, "invalid period", "from must be YYYY-MM-DD", nil)
		return civil.Date{}, civil.Date{}, false
	}
	to := from
	if raw := r.URL.Query().Get("to"); raw != "" {
		if to, err = civil.ParseDate(raw); err != nil {
			transport.WriteProblem(w, http.StatusBadRequest, "invalid period", "to must be YYYY-MM-DD", nil)
			return civil.Date{}, civil.Date{}, false
		}
	}
	return from, to, true
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidRange), errors.Is(err, ErrInvalidSale):
		transport.WriteProblem(w, http.StatusBadRequest, "invalid request", err.Error(), nil)
	default:
		transport.WriteProblem(w, http.StatusInternalServerError, "ledger error", err.Error(), nil)
	}
}
