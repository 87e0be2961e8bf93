// internal/pos/domain.go
package pos

import (
	"time"

	"cloud.google.com/go/civil"
)

type CatalogItem struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Variations []ItemVariation `json:"variations,omitempty"`
}

type ItemVariation struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	SKU  string `json:"sku,omitempty"`
}

// Order is a completed POS order.
type Order struct {
	ID        string      `json:"id"`
	CreatedAt time.Time   `json:"created_at"`
	Lines     []OrderLine `json:"line_items"`
}

type OrderLine struct {
	CatalogObjectID string `json:"catalog_object_id"`
	Name            string `json:"name"`
	Quantity        int    `json:"quantity"`
	Note            string `json:"note,omitempty"`
}

// OrderPage is one page of an order search. An empty Cursor means the
// search is complete.
type OrderPage struct {
	Orders []Order `json:"orders"`
	Cursor string  `json:"cursor,omitempty"`
}

type OrderSearch struct {
	From   civil.Date
	To     civil.Date
	Cursor string
	Limit  int
}
