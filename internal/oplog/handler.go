// internal/oplog/handler.go
package oplog

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"ticketsync/internal/logging"
	"ticketsync/internal/transport"
)

type Handler struct {
	recorder *Recorder
}

func NewHandler(recorder *Recorder) *Handler {
	return &Handler{recorder: recorder}
}

// Routes mounts under /logs.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.HandleList)
	r.Delete("/", h.HandleClear)
}

type listResponse struct {
	Modes   Modes   `json:"modes"`
	Entries []Entry `json:"entries"`
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	entries, err := h.recorder.Recent(r.Context())
	if err != nil {
		logging.LogError(h.recorder.logger, "oplog", "HandleList", "load operation log", nil, err)
		transport.WriteProblem(w, http.StatusInternalServerError, "internal error", "could not load operation log", nil)
		return
	}
	if entries == nil {
		entries = []Entry{}
	}
	transport.WriteJSON(w, http.StatusOK, listResponse{Modes: h.recorder.Modes(), Entries: entries})
}

func (h *Handler) HandleClear(w http.ResponseWriter, r *http.Request) {
	if err := h.recorder.Clear(r.Context()); err != nil {
		logging.LogError(h.recorder.logger, "oplog", "HandleClear", "clear operation log", nil, err)
		transport.WriteProblem(w, http.StatusInternalServerError, "internal error", "could not clear operation log", nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
