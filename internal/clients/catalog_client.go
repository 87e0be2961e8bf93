// internal/clients/catalog_client.go
package clients

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"ticketsync/internal/catalog"
)

// CatalogClient talks to the WooCommerce v3 REST API.
type CatalogClient struct {
	rest
	key    string
	secret string
}

func NewCatalogClient(baseURL, key, secret string, opts Options) *CatalogClient {
	c := &CatalogClient{key: key, secret: secret}
	c.rest = newRest("woocommerce", baseURL, opts, func(req *http.Request) {
		if c.key != "" {
			req.SetBasicAuth(c.key, c.secret)
		}
	})
	return c
}

type wcMeta struct {
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
}

type wcAttribute struct {
	Name    string   `json:"name"`
	Option  string   `json:"option"`
	Options []string `json:"options"`
}

type wcProduct struct {
	ID            json.Number   `json:"id"`
	ParentID      json.Number   `json:"parent_id"`
	Type          string        `json:"type"`
	Name          string        `json:"name"`
	SKU           string        `json:"sku"`
	ManageStock   any           `json:"manage_stock"`
	StockQuantity *int          `json:"stock_quantity"`
	Attributes    []wcAttribute `json:"attributes"`
	MetaData      []wcMeta      `json:"meta_data"`
}

func idString(n json.Number) string {
	if n == "" || n == "0" {
		return ""
	}
	return n.String()
}

func attributeMap(attrs []wcAttribute) map[string]string {
	if len(attrs) == 0 {
		return nil
	}
	out := make(map[string]string, len(attrs))
	for _, a := range attrs {
		if a.Option != "" {
			out[a.Name] = a.Option
		} else {
			out[a.Name] = strings.Join(a.Options, ", ")
		}
	}
	return out
}

func (p wcProduct) toDomain() *catalog.Product {
	out := &catalog.Product{
		ID:            idString(p.ID),
		ParentID:      idString(p.ParentID),
		Type:          p.Type,
		Name:          p.Name,
		SKU:           p.SKU,
		StockQuantity: p.StockQuantity,
		Attributes:    attributeMap(p.Attributes),
	}
	// Variations report "parent" when stock is managed on the parent.
	if b, ok := p.ManageStock.(bool); ok {
		out.ManageStock = b
	}
	if len(p.MetaData) > 0 {
		out.Meta = make(map[string]json.RawMessage, len(p.MetaData))
		for _, m := range p.MetaData {
			out.Meta[m.Key] = m.Value
		}
	}
	return out
}

func (c *CatalogClient) GetProduct(ctx context.Context, id string) (*catalog.Product, error) {
	var p wcProduct
	err := c.do(ctx, call{method: http.MethodGet, path: "/products/" + url.PathEscape(id), out: &p})
	if err != nil {
		if isNotFound(err) {
			return nil, catalog.ErrProductNotFound
		}
		return nil, err
	}
	product := p.toDomain()

	if p.Type == "variable" {
		variations, err := c.variations(ctx, product.ID)
		if err != nil {
			return nil, err
		}
		product.Variations = variations
	}
	return product, nil
}

func (c *CatalogClient) variations(ctx context.Context, productID string) ([]catalog.Variation, error) {
	var out []catalog.Variation
	for page := 1; ; page++ {
		var batch []wcProduct
		err := c.do(ctx, call{
			method: http.MethodGet,
			path:   "/products/" + url.PathEscape(productID) + "/variations",
			query:  url.Values{"per_page": {"100"}, "page": {strconv.Itoa(page)}},
			out:    &batch,
		})
		if err != nil {
			return nil, err
		}
		for _, v := range batch {
			out = append(out, catalog.Variation{
				ID:            idString(v.ID),
				Attributes:    attributeMap(v.Attributes),
				StockQuantity: v.StockQuantity,
			})
		}
		if len(batch) < 100 {
			return out, nil
		}
	}
}

type wcOrder struct {
	ID          json.Number `json:"id"`
	Status      string      `json:"status"`
	DateCreated string      `json:"date_created_gmt"`
	LineItems   []struct {
		ProductID   json.Number `json:"product_id"`
		VariationID json.Number `json:"variation_id"`
		Name        string      `json:"name"`
		SKU         string      `json:"sku"`
		Quantity    int         `json:"quantity"`
		MetaData    []wcMeta    `json:"meta_data"`
	} `json:"line_items"`
}

// ListOrders returns one page of orders. A zero From or To leaves that
// side of the range open.
func (c *CatalogClient) ListOrders(ctx context.Context, q catalog.OrderQuery) ([]catalog.Order, error) {
	query := url.Values{}
	query.Set("orderby", "date")
	query.Set("order", "asc")
	if len(q.Statuses) > 0 {
		query.Set("status", strings.Join(q.Statuses, ","))
	}
	if q.From.IsValid() {
		query.Set("after", q.From.In(time.UTC).Format("2006-01-02T15:04:05"))
	}
	if q.To.IsValid() {
		query.Set("before", q.To.AddDays(1).In(time.UTC).Format("2006-01-02T15:04:05"))
	}
	if q.Offset > 0 {
		query.Set("offset", strconv.Itoa(q.Offset))
	}
	if q.Limit > 0 {
		query.Set("per_page", strconv.Itoa(q.Limit))
	}

	var raw []wcOrder
	if err := c.do(ctx, call{method: http.MethodGet, path: "/orders", query: query, out: &raw, timeout: 30 * time.Second}); err != nil {
		return nil, err
	}

	orders := make([]catalog.Order, 0, len(raw))
	for _, o := range raw {
		created, _ := time.ParseInLocation("2006-01-02T15:04:05", o.DateCreated, time.UTC)
		order := catalog.Order{ID: idString(o.ID), Status: o.Status, CreatedAt: created}
		for _, li := range o.LineItems {
			item := catalog.LineItem{
				ProductID:   idString(li.ProductID),
				VariationID: idString(li.VariationID),
				Name:        li.Name,
				SKU:         li.SKU,
				Quantity:    li.Quantity,
			}
			for _, m := range li.MetaData {
				item.Meta = append(item.Meta, catalog.MetaEntry{Key: m.Key, Value: gjson.ParseBytes(m.Value).String()})
			}
			order.Items = append(order.Items, item)
		}
		orders = append(orders, order)
	}
	return orders, nil
}

func (c *CatalogClient) UpdateProductMeta(ctx context.Context, id, key string, value json.RawMessage) error {
	path, err := c.writePath(ctx, id)
	if err != nil {
		return err
	}
	return c.do(ctx, call{
		method: http.MethodPut,
		path:   path,
		body:   map[string]any{"meta_data": []wcMeta{{Key: key, Value: value}}},
	})
}

func (c *CatalogClient) SetStock(ctx context.Context, id string, quantity int) error {
	path, err := c.writePath(ctx, id)
	if err != nil {
		return err
	}
	return c.do(ctx, call{
		method: http.MethodPut,
		path:   path,
		body:   map[string]any{"manage_stock": true, "stock_quantity": quantity},
	})
}

// writePath resolves variations to their nested endpoint.
func (c *CatalogClient) writePath(ctx context.Context, id string) (string, error) {
	var p wcProduct
	if err := c.do(ctx, call{method: http.MethodGet, path: "/products/" + url.PathEscape(id), out: &p}); err != nil {
		if isNotFound(err) {
			return "", catalog.ErrProductNotFound
		}
		return "", err
	}
	if parent := idString(p.ParentID); parent != "" {
		return "/products/" + url.PathEscape(parent) + "/variations/" + url.PathEscape(id), nil
	}
	return "/products/" + url.PathEscape(id), nil
}
