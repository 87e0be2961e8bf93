// internal/pos/service.go
package pos

import "context"

// Service defines the interface for the remote point-of-sale service.
type Service interface {
	ListCatalogItems(ctx context.Context) ([]CatalogItem, error)
	GetCatalogItem(ctx context.Context, id string) (*CatalogItem, error)
	TestConnection(ctx context.Context) error
	SearchOrders(ctx context.Context, q OrderSearch) (OrderPage, error)
}
