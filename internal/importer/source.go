// internal/importer/source.go
package importer

import (
	"context"
	"time"

	"cloud.google.com/go/civil"

	"ticketsync/internal/catalog"
	"ticketsync/internal/ledger"
	"ticketsync/internal/mapping"
	"ticketsync/internal/occurrence"
	"ticketsync/internal/pos"
)

// Source reads historical sales one bounded batch at a time.
type Source interface {
	Name() string
	Kind() Kind
	FetchBatch(ctx context.Context, r Range, at Progress, limit int) (Batch, error)
}

// OrdersSource reads completed local orders by offset.
type OrdersSource struct {
	catalog catalog.Service
	loc     *time.Location
}

func NewOrdersSource(c catalog.Service, loc *time.Location) *OrdersSource {
	if loc == nil {
		loc = time.UTC
	}
	return &OrdersSource{catalog: c, loc: loc}
}

func (s *OrdersSource) Name() string { return SourceOrders }
func (s *OrdersSource) Kind() Kind   { return KindOffset }

func (s *OrdersSource) FetchBatch(ctx context.Context, r Range, at Progress, limit int) (Batch, error) {
	batch := Batch{Logs: []LogLine{
		info("Querying WooCommerce orders from %s to %s, offset %d, limit %d...", r.From, r.To, at.Offset, limit),
	}}

	orders, err := s.catalog.ListOrders(ctx, catalog.OrderQuery{
		From:     r.From,
		To:       r.To,
		Statuses: []string{"completed"},
		Offset:   at.Offset,
		Limit:    limit,
	})
	if err != nil {
		return batch, err
	}
	if len(orders) == 0 {
		batch.Logs = append(batch.Logs, info("No more WooCommerce orders found in this batch/date range."))
		batch.Exhausted = true
		return batch, nil
	}

	batch.Logs = append(batch.Logs, info("Found %d WooCommerce order(s) in this batch.", len(orders)))
	for _, o := range orders {
		saleDate := civil.DateOf(o.CreatedAt.In(s.loc))
		for _, item := range o.Items {
			if item.ProductID == "" || item.Quantity <= 0 {
				continue
			}
			date, clock := occurrence.FromLineItem(item, nil)
			batch.Sales = append(batch.Sales, ledger.Sale{
				Channel:        ledger.ChannelLocal,
				ProductID:      item.ProductID,
				Quantity:       item.Quantity,
				SaleDate:       saleDate,
				OccurrenceDate: date,
				OccurrenceTime: clock,
				Reference:      o.ID,
			})
		}
		batch.Processed++
		batch.Logs = append(batch.Logs, info("Processed order #%s (Date: %s).", o.ID, saleDate))
	}

	batch.Next = Progress{Kind: KindOffset, Offset: at.Offset + len(orders)}
	if len(orders) < limit {
		batch.Logs = append(batch.Logs, info("Last batch processed for WooCommerce in this date range."))
		batch.Exhausted = true
	}
	return batch, nil
}

// POSSource reads POS orders by pagination token. Lines are tied to local
// products through their mappings; unmapped lines are skipped.
type POSSource struct {
	pos      pos.Service
	mappings mapping.Service
	loc      *time.Location
}

func NewPOSSource(p pos.Service, mappings mapping.Service, loc *time.Location) *POSSource {
	if loc == nil {
		loc = time.UTC
	}
	return &POSSource{pos: p, mappings: mappings, loc: loc}
}

func (s *POSSource) Name() string { return SourcePOS }
func (s *POSSource) Kind() Kind   { return KindToken }

func (s *POSSource) FetchBatch(ctx context.Context, r Range, at Progress, limit int) (Batch, error) {
	var batch Batch
	if at.Token == "" {
		batch.Logs = append(batch.Logs, info("Processing Square batch (First batch)..."))
	} else {
		batch.Logs = append(batch.Logs, info("Processing Square batch (Cursor: %s)...", at.Token))
	}

	page, err := s.pos.SearchOrders(ctx, pos.OrderSearch{From: r.From, To: r.To, Cursor: at.Token, Limit: limit})
	if err != nil {
		return batch, err
	}

	for _, o := range page.Orders {
		saleDate := civil.DateOf(o.CreatedAt.In(s.loc))
		for _, line := range o.Lines {
			if line.Quantity <= 0 {
				continue
			}
			m, found, err := s.mappings.FindByPOSID(ctx, line.CatalogObjectID)
			if err != nil {
				return batch, err
			}
			if !found {
				batch.Logs = append(batch.Logs, warning("Square item %q (%s) in order %s is not mapped to a product.", line.Name, line.CatalogObjectID, o.ID))
				continue
			}
			batch.Sales = append(batch.Sales, ledger.Sale{
				Channel:        ledger.ChannelPOS,
				ProductID:      m.ProductID,
				Quantity:       line.Quantity,
				SaleDate:       saleDate,
				OccurrenceDate: m.Date,
				OccurrenceTime: m.Time,
				Reference:      o.ID,
			})
		}
		batch.Processed++
	}
	batch.Logs = append(batch.Logs, info("Found %d Square order(s) in this batch.", len(page.Orders)))

	batch.Next = Progress{Kind: KindToken, Token: page.Cursor}
	batch.Exhausted = page.Cursor == ""
	return batch, nil
}
