// internal/admin/service.go
package admin

import (
	"context"

	"cloud.google.com/go/civil"

	"ticketsync/internal/pos"
)

// Service defines the read-mostly queries behind the admin screens.
type Service interface {
	ProductOccurrences(ctx context.Context, productID string, useRemote bool) ([]AnnotatedOccurrence, error)
	TestMapping(ctx context.Context, productID string, date civil.Date, clock string) (MappingCheck, error)
	TestConnections(ctx context.Context) []ConnectionStatus
	POSCatalog(ctx context.Context) ([]pos.CatalogItem, error)
	Attendees(ctx context.Context, productID string) ([]Attendee, error)
}
