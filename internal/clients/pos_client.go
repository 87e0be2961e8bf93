// internal/clients/pos_client.go
package clients

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	"ticketsync/internal/pos"
)

const squareVersion = "2024-01-18"

// POSClient talks to the Square v2 REST API.
type POSClient struct {
	rest
	token      string
	locationID string
	loc        *time.Location
}

// NewPOSClient builds a client; loc turns search dates into instants.
func NewPOSClient(baseURL, token, locationID string, loc *time.Location, opts Options) *POSClient {
	if loc == nil {
		loc = time.UTC
	}
	c := &POSClient{token: token, locationID: locationID, loc: loc}
	c.rest = newRest("square", baseURL, opts, func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer "+c.token)
		req.Header.Set("Square-Version", squareVersion)
	})
	return c
}

type sqCatalogObject struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	ItemData *struct {
		Name       string            `json:"name"`
		Variations []sqCatalogObject `json:"variations"`
	} `json:"item_data"`
	VariationData *struct {
		ItemID string `json:"item_id"`
		Name   string `json:"name"`
		SKU    string `json:"sku"`
	} `json:"item_variation_data"`
}

func (o sqCatalogObject) toItem() pos.CatalogItem {
	item := pos.CatalogItem{ID: o.ID}
	if o.ItemData == nil {
		return item
	}
	item.Name = o.ItemData.Name
	for _, v := range o.ItemData.Variations {
		iv := pos.ItemVariation{ID: v.ID}
		if v.VariationData != nil {
			iv.Name = v.VariationData.Name
			iv.SKU = v.VariationData.SKU
		}
		item.Variations = append(item.Variations, iv)
	}
	return item
}

func (c *POSClient) ListCatalogItems(ctx context.Context) ([]pos.CatalogItem, error) {
	if c.token == "" {
		return nil, ErrMissingCredentials
	}
	query := url.Values{"types": {"ITEM"}}
	var items []pos.CatalogItem
	for {
		var page struct {
			Objects []sqCatalogObject `json:"objects"`
			Cursor  string            `json:"cursor"`
		}
		if err := c.do(ctx, call{method: http.MethodGet, path: "/catalog/list", query: query, out: &page}); err != nil {
			return nil, err
		}
		for _, o := range page.Objects {
			items = append(items, o.toItem())
		}
		if page.Cursor == "" {
			return items, nil
		}
		query.Set("cursor", page.Cursor)
	}
}

// GetCatalogItem accepts an item or variation id and returns the item.
func (c *POSClient) GetCatalogItem(ctx context.Context, id string) (*pos.CatalogItem, error) {
	if c.token == "" {
		return nil, ErrMissingCredentials
	}
	obj, err := c.object(ctx, id)
	if err != nil {
		return nil, err
	}
	if obj.Type == "ITEM_VARIATION" && obj.VariationData != nil && obj.VariationData.ItemID != "" {
		if obj, err = c.object(ctx, obj.VariationData.ItemID); err != nil {
			return nil, err
		}
	}
	item := obj.toItem()
	return &item, nil
}

func (c *POSClient) object(ctx context.Context, id string) (sqCatalogObject, error) {
	var res struct {
		Object sqCatalogObject `json:"object"`
	}
	err := c.do(ctx, call{method: http.MethodGet, path: "/catalog/object/" + url.PathEscape(id), out: &res})
	return res.Object, err
}

func (c *POSClient) TestConnection(ctx context.Context) error {
	if c.token == "" {
		return ErrMissingCredentials
	}
	return c.do(ctx, call{method: http.MethodGet, path: "/locations"})
}

type sqSearchOrders struct {
	LocationIDs []string       `json:"location_ids"`
	Cursor      string         `json:"cursor,omitempty"`
	Limit       int            `json:"limit,omitempty"`
	Query       map[string]any `json:"query"`
}

// SearchOrders returns one page of completed orders created between
// q.From and the end of q.To.
func (c *POSClient) SearchOrders(ctx context.Context, q pos.OrderSearch) (pos.OrderPage, error) {
	if c.token == "" || c.locationID == "" {
		return pos.OrderPage{}, ErrMissingCredentials
	}

	createdAt := map[string]string{}
	if q.From.IsValid() {
		createdAt["start_at"] = q.From.In(c.loc).Format(time.RFC3339)
	}
	if q.To.IsValid() {
		createdAt["end_at"] = q.To.AddDays(1).In(c.loc).Format(time.RFC3339)
	}
	body := sqSearchOrders{
		LocationIDs: []string{c.locationID},
		Cursor:      q.Cursor,
		Limit:       q.Limit,
		Query: map[string]any{
			"filter": map[string]any{
				"date_time_filter": map[string]any{"created_at": createdAt},
				"state_filter":     map[string]any{"states": []string{"COMPLETED"}},
			},
			"sort": map[string]string{"sort_field": "CREATED_AT", "sort_order": "ASC"},
		},
	}

	var res struct {
		Orders []struct {
			ID        string    `json:"id"`
			CreatedAt time.Time `json:"created_at"`
			LineItems []struct {
				CatalogObjectID string          `json:"catalog_object_id"`
				Name            string          `json:"name"`
				Quantity        decimal.Decimal `json:"quantity"`
				Note            string          `json:"note"`
			} `json:"line_items"`
		} `json:"orders"`
		Cursor string `json:"cursor"`
	}
	if err := c.do(ctx, call{method: http.MethodPost, path: "/orders/search", body: body, out: &res}); err != nil {
		return pos.OrderPage{}, err
	}

	page := pos.OrderPage{Cursor: res.Cursor}
	for _, o := range res.Orders {
		order := pos.Order{ID: o.ID, CreatedAt: o.CreatedAt}
		for _, li := range o.LineItems {
			// Fractional quantities only occur for weighed goods.
			qty := li.Quantity.Round(0).IntPart()
			order.Lines = append(order.Lines, pos.OrderLine{
				CatalogObjectID: li.CatalogObjectID,
				Name:            li.Name,
				Quantity:        int(qty),
				Note:            li.Note,
			})
		}
		page.Orders = append(page.Orders, order)
	}
	return page, nil
}
