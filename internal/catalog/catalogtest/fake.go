// Package catalogtest provides an in-memory catalog.Service.
package catalogtest

import (
	"context"
	"encoding/json"
	"sync"

	"ticketsync/internal/catalog"
)

type MetaWrite struct {
	ProductID string
	Key       string
	Value     json.RawMessage
}

type StockWrite struct {
	ProductID string
	Quantity  int
}

// Fake holds products and orders in memory. Orders are returned in slice
// order; ListOrders honors Offset and Limit but ignores dates and statuses
// unless FilterStatus is set.
type Fake struct {
	mu sync.Mutex

	Products map[string]*catalog.Product
	Orders   []catalog.Order

	FilterStatus bool
	ListErr      error
	WriteErr     error

	MetaWrites  []MetaWrite
	StockWrites []StockWrite
	ListCalls   int
}

func New(products ...*catalog.Product) *Fake {
	f := &Fake{Products: map[string]*catalog.Product{}}
	for _, p := range products {
		f.Products[p.ID] = p
	}
	return f
}

func (f *Fake) GetProduct(_ context.Context, id string) (*catalog.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.Products[id]
	if !ok {
		return nil, catalog.ErrProductNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *Fake) ListOrders(_ context.Context, q catalog.OrderQuery) ([]catalog.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ListCalls++
	if f.ListErr != nil {
		return nil, f.ListErr
	}

	var matched []catalog.Order
	for _, o := range f.Orders {
		if f.FilterStatus && !contains(q.Statuses, o.Status) {
			continue
		}
		matched = append(matched, o)
	}
	if q.Offset >= len(matched) {
		return nil, nil
	}
	end := len(matched)
	if q.Limit > 0 && q.Offset+q.Limit < end {
		end = q.Offset + q.Limit
	}
	return append([]catalog.Order(nil), matched[q.Offset:end]...), nil
}

// UpdateProductMeta stores the value on the product so later reads see it.
func (f *Fake) UpdateProductMeta(_ context.Context, id, key string, value json.RawMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.WriteErr != nil {
		return f.WriteErr
	}
	p, ok := f.Products[id]
	if !ok {
		return catalog.ErrProductNotFound
	}
	if p.Meta == nil {
		p.Meta = map[string]json.RawMessage{}
	}
	p.Meta[key] = value
	f.MetaWrites = append(f.MetaWrites, MetaWrite{ProductID: id, Key: key, Value: value})
	return nil
}

func (f *Fake) SetStock(_ context.Context, id string, quantity int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.WriteErr != nil {
		return f.WriteErr
	}
	f.StockWrites = append(f.StockWrites, StockWrite{ProductID: id, Quantity: quantity})
	if p, ok := f.Products[id]; ok {
		q := quantity
		p.StockQuantity = &q
		return nil
	}
	for _, p := range f.Products {
		for i := range p.Variations {
			if p.Variations[i].ID == id {
				q := quantity
				p.Variations[i].StockQuantity = &q
				return nil
			}
		}
	}
	return catalog.ErrProductNotFound
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
