// internal/reconcile/handler.go
package reconcile

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ticketsync/internal/catalog"
	"ticketsync/internal/ledger"
	"ticketsync/internal/transport"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// WebhookRoutes carries the catalog's order webhook, which is
// authenticated by signature rather than API key.
func (h *Handler) WebhookRoutes(r chi.Router) {
	r.With(transport.RequireJSON).Post("/orders", h.HandleOrder)
}

func (h *Handler) Routes(r chi.Router) {
	r.With(transport.RequireJSON).Post("/remote-sales", h.HandleRemoteSale)
	r.Post("/sync", h.HandleSync)
	r.Get("/tickets/{id}/test", h.HandleTestTicket)
}

// HandleOrder takes the local catalog's order webhook.
func (h *Handler) HandleOrder(w http.ResponseWriter, r *http.Request) {
	var order catalog.Order
	if !transport.DecodeWebhook(w, r, &order) {
		return
	}
	result, err := h.service.HandleOrder(r.Context(), order)
	if err != nil {
		transport.WriteProblemMeta(w, statusOf(err), "order partially reconciled", err.Error(), nil,
			map[string]any{"result": result})
		return
	}
	transport.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) HandleRemoteSale(w http.ResponseWriter, r *http.Request) {
	var sale RemoteSale
	if !transport.DecodeJSON(w, r, &sale) {
		return
	}
	entry, err := h.service.RecordRemoteSale(r.Context(), sale)
	if err != nil {
		transport.WriteProblem(w, statusOf(err), "record failed", err.Error(), nil)
		return
	}
	transport.WriteJSON(w, http.StatusCreated, entry)
}

func (h *Handler) HandleSync(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.Sync(r.Context())
	if err != nil {
		transport.WriteProblem(w, http.StatusInternalServerError, "sync failed", err.Error(), nil)
		return
	}
	transport.WriteJSON(w, http.StatusOK, report)
}

func (h *Handler) HandleTestTicket(w http.ResponseWriter, r *http.Request) {
	status, err := h.service.TestTicket(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		transport.WriteProblem(w, statusOf(err), "ticket test failed", err.Error(), nil)
		return
	}
	transport.WriteJSON(w, http.StatusOK, status)
}

func statusOf(err error) int {
	var remote *RemoteError
	switch {
	case errors.Is(err, ledger.ErrInvalidSale), errors.Is(err, ErrMissingTicket):
		return http.StatusBadRequest
	case errors.Is(err, catalog.ErrProductNotFound):
		return http.StatusNotFound
	case errors.As(err, &remote):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
