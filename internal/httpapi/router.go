// internal/httpapi/router.go
package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"ticketsync/internal/admin"
	"ticketsync/internal/auth"
	"ticketsync/internal/importer"
	"ticketsync/internal/ledger"
	"ticketsync/internal/mapping"
	"ticketsync/internal/oplog"
	"ticketsync/internal/reconcile"
	"ticketsync/internal/transport"
)

// MaxBodyBytes caps request bodies; order webhooks are the largest.
const MaxBodyBytes = 1 << 20

type Services struct {
	Mappings  mapping.Service
	Ledger    ledger.Service
	Reconcile reconcile.Service
	Importer  importer.Service
	Admin     admin.Service
	Oplog     *oplog.Recorder
}

// NewRouter mounts every domain handler. A nil verifier leaves the API
// unauthenticated.
func NewRouter(svc Services, verifier *auth.Verifier, webhook auth.WebhookPolicy, logger logrus.FieldLogger) http.Handler {
	r := chi.NewRouter()
	r.Use(transport.RequestLogger(logger))
	r.Use(transport.BodyLimit(MaxBodyBytes))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		transport.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	reconcileHandler := reconcile.NewHandler(svc.Reconcile)
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireSignature(webhook, logger))
		reconcileHandler.WebhookRoutes(r)
	})

	r.Group(func(r chi.Router) {
		r.Use(auth.Require(verifier, logger))

		adminHandler := admin.NewHandler(svc.Admin)
		r.Route("/products/{id}", func(r chi.Router) {
			r.Route("/mappings", mapping.NewHandler(svc.Mappings).Routes)
			adminHandler.ProductRoutes(r)
		})
		r.Route("/ledger", ledger.NewHandler(svc.Ledger).Routes)
		r.Route("/import", importer.NewHandler(svc.Importer).Routes)
		r.Route("/logs", oplog.NewHandler(svc.Oplog).Routes)
		r.Route("/admin", adminHandler.Routes)
		reconcileHandler.Routes(r)
	})

	return r
}
