// Package postest provides an in-memory pos.Service.
package postest

import (
	"context"
	"errors"
	"sync"

	"ticketsync/internal/pos"
)

var ErrNotFound = errors.New("postest: not found")

// Fake serves catalog items and order pages. Pages are keyed by the
// cursor that requests them; the first page has the empty cursor.
type Fake struct {
	mu sync.Mutex

	Items []pos.CatalogItem
	Pages map[string]pos.OrderPage

	SearchErr error
	PingErr   error

	Searches []pos.OrderSearch
}

func (f *Fake) ListCatalogItems(context.Context) ([]pos.CatalogItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]pos.CatalogItem(nil), f.Items...), nil
}

func (f *Fake) GetCatalogItem(_ context.Context, id string) (*pos.CatalogItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, item := range f.Items {
		if item.ID == id {
			return &item, nil
		}
		for _, v := range item.Variations {
			if v.ID == id {
				return &item, nil
			}
		}
	}
	return nil, ErrNotFound
}

func (f *Fake) TestConnection(context.Context) error {
	return f.PingErr
}

func (f *Fake) SearchOrders(_ context.Context, q pos.OrderSearch) (pos.OrderPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Searches = append(f.Searches, q)
	if f.SearchErr != nil {
		return pos.OrderPage{}, f.SearchErr
	}
	page, ok := f.Pages[q.Cursor]
	if !ok && q.Cursor != "" {
		return pos.OrderPage{}, ErrNotFound
	}
	return page, nil
}
