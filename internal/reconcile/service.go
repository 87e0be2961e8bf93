// internal/reconcile/service.go
package reconcile

import (
	"context"

	"ticketsync/internal/catalog"
	"ticketsync/internal/ledger"
)

// Service defines the interface for stock reconciliation between the
// local catalog and the ticketing service.
type Service interface {
	// HandleOrder books every line item of a completed order and pushes
	// the sold quantity to the mapped ticket class.
	HandleOrder(ctx context.Context, order catalog.Order) (OrderResult, error)
	PushSale(ctx context.Context, push Push) (PushResult, error)
	// RecordRemoteSale books a sale reported by a remote channel. Nothing
	// is pushed back.
	RecordRemoteSale(ctx context.Context, sale RemoteSale) (ledger.Entry, error)
	Sync(ctx context.Context) (SyncReport, error)
	TestTicket(ctx context.Context, ticketID string) (TicketStatus, error)
}
