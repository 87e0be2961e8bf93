// internal/ledger/service.go
package ledger

import (
	"context"

	"cloud.google.com/go/civil"
)

// Service defines the interface for the sales ledger.
type Service interface {
	// Record books a live sale. In test mode the would-be entry is logged
	// and returned but not stored.
	Record(ctx context.Context, sale Sale) (Entry, error)
	// RecordHistorical books a backfilled sale on its original date. It
	// always writes and never triggers reconciliation.
	RecordHistorical(ctx context.Context, sale Sale) (Entry, error)

	Daily(ctx context.Context, date civil.Date) (map[string]Entry, error)
	Total(ctx context.Context, from, to civil.Date) (map[string]Entry, error)
	Summary(ctx context.Context, from, to civil.Date) (Summary, error)
	ProductSummary(ctx context.Context, from, to civil.Date) (map[string]ProductTotal, error)
	Reset(ctx context.Context) error
}
