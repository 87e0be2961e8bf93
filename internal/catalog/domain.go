// internal/catalog/domain.go
package catalog

import (
	"encoding/json"
	"errors"
	"time"

	"cloud.google.com/go/civil"
	"github.com/tidwall/gjson"
)

var ErrProductNotFound = errors.New("product not found")

// Product is a local catalog item as this service sees it. The catalog is
// authoritative for identity; this service only reads products and writes
// back stock figures.
type Product struct {
	ID            string                     `json:"id"`
	ParentID      string                     `json:"parent_id,omitempty"`
	Type          string                     `json:"type"`
	Name          string                     `json:"name"`
	SKU           string                     `json:"sku"`
	ManageStock   bool                       `json:"manage_stock"`
	StockQuantity *int                       `json:"stock_quantity"`
	Attributes    map[string]string          `json:"attributes,omitempty"`
	Variations    []Variation                `json:"variations,omitempty"`
	Meta          map[string]json.RawMessage `json:"meta,omitempty"`
}

// Variation is one purchasable option of a variable product.
type Variation struct {
	ID            string            `json:"id"`
	Attributes    map[string]string `json:"attributes"`
	StockQuantity *int              `json:"stock_quantity"`
}

// MetaValue returns the metadata entry under key for path-style reads.
// Values stored as JSON-encoded strings are unwrapped once.
func (p *Product) MetaValue(key string) gjson.Result {
	raw, ok := p.Meta[key]
	if !ok {
		return gjson.Result{}
	}
	res := gjson.ParseBytes(raw)
	if res.Type == gjson.String {
		if inner := gjson.Parse(res.Str); inner.IsObject() || inner.IsArray() {
			return inner
		}
	}
	return res
}

// Order is a completed local order.
type Order struct {
	ID        string     `json:"id"`
	Status    string     `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	Items     []LineItem `json:"line_items"`
}

type LineItem struct {
	ProductID   string      `json:"product_id"`
	VariationID string      `json:"variation_id,omitempty"`
	Name        string      `json:"name"`
	SKU         string      `json:"sku,omitempty"`
	Quantity    int         `json:"quantity"`
	Meta        []MetaEntry `json:"meta_data,omitempty"`
}

// MetaEntry keeps line item metadata in its stored order.
type MetaEntry struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// MetaValue returns the first value stored under key.
func (li LineItem) MetaValue(key string) string {
	for _, m := range li.Meta {
		if m.Key == key {
			return m.Value
		}
	}
	return ""
}

// OrderQuery selects a page of orders created inside a date range.
type OrderQuery struct {
	From     civil.Date
	To       civil.Date
	Statuses []string
	Offset   int
	Limit    int
}
