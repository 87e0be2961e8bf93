// internal/catalog/service.go
package catalog

import (
	"context"
	"encoding/json"
)

// Service defines the interface for the local catalog.
type Service interface {
	GetProduct(ctx context.Context, id string) (*Product, error)
	ListOrders(ctx context.Context, q OrderQuery) ([]Order, error)
	UpdateProductMeta(ctx context.Context, id, key string, value json.RawMessage) error
	SetStock(ctx context.Context, id string, quantity int) error
}
