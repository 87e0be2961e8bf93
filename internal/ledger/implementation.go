// internal/ledger/implementation.go
package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"cloud.google.com/go/civil"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"

	"ticketsync/internal/catalog"
	"ticketsync/internal/docstore"
	"ticketsync/internal/lock"
	"ticketsync/internal/logging"
	"ticketsync/internal/occurrence"
	"ticketsync/internal/oplog"
	"ticketsync/internal/telemetry"
)

// service implements the Service interface.
type service struct {
	store    docstore.Store
	locker   lock.Locker
	products catalog.Service
	ops      *oplog.Recorder
	counters *telemetry.Counters
	logger   logrus.FieldLogger
	loc      *time.Location
	now      func() time.Time
}

// NewService creates a ledger over the shared document store. Sales with
// no name are completed from products; loc decides what "today" is.
func NewService(store docstore.Store, locker lock.Locker, products catalog.Service, ops *oplog.Recorder, counters *telemetry.Counters, loc *time.Location, logger logrus.FieldLogger) Service {
	if locker == nil {
		locker = lock.Noop{}
	}
	if loc == nil {
		loc = time.UTC
	}
	return &service{
		store:    store,
		locker:   locker,
		products: products,
		ops:      ops,
		counters: counters,
		logger:   logger,
		loc:      loc,
		now:      time.Now,
	}
}

func (s *service) today() civil.Date {
	return civil.DateOf(s.now().In(s.loc))
}

func (s *service) Record(ctx context.Context, sale Sale) (Entry, error) {
	if sale.SaleDate.IsZero() {
		sale.SaleDate = s.today()
	}
	if err := s.prepare(ctx, &sale); err != nil {
		return Entry{}, err
	}

	source := channelSource(sale.Channel)
	modes := s.ops.Modes()
	if modes.TestMode {
		entry, err := s.preview(ctx, sale)
		if err != nil {
			return Entry{}, err
		}
		s.ops.Operation(ctx, source, "Record Sale",
			fmt.Sprintf("%s. Would record %s sale.", describe(sale), source))
		return entry, nil
	}
	if modes.LiveLogging {
		s.ops.Operation(ctx, source, "Record Sale",
			fmt.Sprintf("%s. Recording %s sale. (Live Mode)", describe(sale), source))
	}
	return s.write(ctx, sale)
}

func (s *service) RecordHistorical(ctx context.Context, sale Sale) (Entry, error) {
	if sale.SaleDate.IsZero() {
		return Entry{}, fmt.Errorf("%w: historical sale needs a sale date", ErrInvalidSale)
	}
	if err := s.prepare(ctx, &sale); err != nil {
		return Entry{}, err
	}
	return s.write(ctx, sale)
}

// prepare validates a sale and fills in the product name and SKU.
func (s *service) prepare(ctx context.Context, sale *Sale) error {
	if sale.ProductID == "" || sale.Quantity <= 0 {
		return fmt.Errorf("%w: product %q quantity %d", ErrInvalidSale, sale.ProductID, sale.Quantity)
	}
	if _, err := ParseChannel(string(sale.Channel)); err != nil {
		return err
	}
	if sale.Name != "" || s.products == nil {
		return nil
	}
	p, err := s.products.GetProduct(ctx, sale.ProductID)
	if err != nil {
		return fmt.Errorf("look up product %s: %w", sale.ProductID, err)
	}
	sale.Name, sale.SKU = p.Name, p.SKU
	return nil
}

func (s *service) preview(ctx context.Context, sale Sale) (Entry, error) {
	var doc dailySales
	if _, err := s.store.Load(ctx, docstore.DailySales, &doc); err != nil {
		return Entry{}, fmt.Errorf("load ledger: %w", err)
	}
	return s.apply(&doc, sale), nil
}

func (s *service) write(ctx context.Context, sale Sale) (Entry, error) {
	release, err := s.locker.Acquire(ctx, docstore.DailySales)
	if err != nil {
		return Entry{}, fmt.Errorf("lock ledger: %w", err)
	}
	defer release()

	// Product summaries are derived from this document, so a sale is
	// either fully counted or not at all.
	var entry Entry
	_, err = docstore.Update(ctx, s.store, docstore.DailySales, func(doc *dailySales) error {
		entry = s.apply(doc, sale)
		return nil
	})
	if err != nil {
		logging.LogError(s.logger, "ledger", "write", "update daily sales", sale, err)
		return Entry{}, err
	}

	if s.counters != nil {
		telemetry.Add(ctx, s.counters.LedgerWrites, 1, attribute.String("channel", string(sale.Channel)))
	}
	return entry, nil
}

// apply adds sale to its entry and returns the result. An unreadable
// existing entry is logged and replaced.
func (s *service) apply(doc *dailySales, sale Sale) Entry {
	if *doc == nil {
		*doc = dailySales{}
	}
	day := sale.SaleDate.String()
	if (*doc)[day] == nil {
		(*doc)[day] = map[string]json.RawMessage{}
	}

	bookingKey := bookingKeyOf(sale)
	key := entryKey(sale.ProductID, bookingKey)

	entry := Entry{
		Name:        sale.Name,
		SKU:         sale.SKU,
		ProductID:   sale.ProductID,
		BookingDate: bookingKey,
	}
	if raw, ok := (*doc)[day][key]; ok {
		existing, err := parseEntry(raw)
		if err != nil {
			logging.LogError(s.logger, "ledger", "apply", "replace malformed entry", map[string]string{
				"date": day, "key": key, "raw": string(raw),
			}, err)
		} else {
			entry = existing
			if entry.repair() {
				s.logger.WithFields(logrus.Fields{"date": day, "key": key}).Warn("repaired ledger entry whose channel counts did not sum")
			}
		}
	}

	entry.Quantity += sale.Quantity
	*entry.channel(sale.Channel) += sale.Quantity

	encoded, _ := json.Marshal(entry)
	(*doc)[day][key] = encoded
	return entry
}

func bookingKeyOf(sale Sale) string {
	if sale.OccurrenceDate.IsZero() {
		return ""
	}
	return occurrence.Key(sale.OccurrenceDate, sale.OccurrenceTime)
}

func (s *service) loadDaily(ctx context.Context) (dailySales, error) {
	var doc dailySales
	if _, err := s.store.Load(ctx, docstore.DailySales, &doc); err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}
	return doc, nil
}

// daysIn lists the stored sale dates within from..to, in order. Unreadable
// day keys are skipped.
func daysIn(doc dailySales, from, to civil.Date) []civil.Date {
	days := make([]civil.Date, 0, len(doc))
	for key := range doc {
		d, err := civil.ParseDate(key)
		if err != nil || d.Before(from) || d.After(to) {
			continue
		}
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	return days
}

// entriesOn decodes one day, skipping malformed entries.
func (s *service) entriesOn(doc dailySales, date civil.Date) map[string]Entry {
	day := date.String()
	out := make(map[string]Entry, len(doc[day]))
	for key, raw := range doc[day] {
		e, err := parseEntry(raw)
		if err != nil {
			logging.LogError(s.logger, "ledger", "entriesOn", "skip malformed entry", map[string]string{
				"date": day, "key": key, "raw": string(raw),
			}, err)
			continue
		}
		if e.ProductID == "" {
			e.ProductID = key
		}
		out[key] = e
	}
	return out
}

func (s *service) Daily(ctx context.Context, date civil.Date) (map[string]Entry, error) {
	doc, err := s.loadDaily(ctx)
	if err != nil {
		return nil, err
	}
	return s.entriesOn(doc, date), nil
}

// Total merges the period's entries per product occurrence.
func (s *service) Total(ctx context.Context, from, to civil.Date) (map[string]Entry, error) {
	if to.Before(from) {
		return nil, ErrInvalidRange
	}
	doc, err := s.loadDaily(ctx)
	if err != nil {
		return nil, err
	}

	totals := map[string]Entry{}
	for _, d := range daysIn(doc, from, to) {
		for _, e := range s.entriesOn(doc, d) {
			key := entryKey(e.ProductID, e.BookingDate)
			total, ok := totals[key]
			if !ok {
				total = Entry{Name: e.Name, SKU: e.SKU, ProductID: e.ProductID, BookingDate: e.BookingDate}
			}
			total.add(e)
			totals[key] = total
		}
	}
	return totals, nil
}

func (s *service) Summary(ctx context.Context, from, to civil.Date) (Summary, error) {
	if to.Before(from) {
		return Summary{}, ErrInvalidRange
	}
	if to.DaysSince(from) >= MaxSummaryDays {
		return Summary{}, fmt.Errorf("%w: summaries cover at most %d days", ErrInvalidRange, MaxSummaryDays)
	}
	doc, err := s.loadDaily(ctx)
	if err != nil {
		return Summary{}, err
	}

	var summary Summary
	for d := from; !d.After(to); d = d.AddDays(1) {
		day := DaySummary{Date: d, Products: s.entriesOn(doc, d)}
		for _, e := range day.Products {
			day.add(e)
		}
		summary.TotalSales += day.TotalSales
		summary.WooCommerceSales += day.WooCommerceSales
		summary.EventbriteSales += day.EventbriteSales
		summary.SquareSales += day.SquareSales
		summary.Days = append(summary.Days, day)
	}
	return summary, nil
}

// ProductSummary totals each product over the period, split by booking
// date.
func (s *service) ProductSummary(ctx context.Context, from, to civil.Date) (map[string]ProductTotal, error) {
	if to.Before(from) {
		return nil, ErrInvalidRange
	}
	doc, err := s.loadDaily(ctx)
	if err != nil {
		return nil, err
	}

	out := map[string]ProductTotal{}
	for _, d := range daysIn(doc, from, to) {
		for _, e := range s.entriesOn(doc, d) {
			total, ok := out[e.ProductID]
			if !ok {
				total = ProductTotal{Name: e.Name, SKU: e.SKU, Dates: map[string]int{}}
			}
			total.TotalQuantity += e.Quantity
			if e.BookingDate != "" {
				total.Dates[e.BookingDate] += e.Quantity
			}
			out[e.ProductID] = total
		}
	}
	return out, nil
}

// Reset drops the whole ledger.
func (s *service) Reset(ctx context.Context) error {
	release, err := s.locker.Acquire(ctx, docstore.DailySales)
	if err != nil {
		return fmt.Errorf("lock ledger: %w", err)
	}
	defer release()

	if err := s.store.Delete(ctx, docstore.DailySales); err != nil {
		return fmt.Errorf("reset %s: %w", docstore.DailySales, err)
	}
	s.ops.Operation(ctx, "Ledger", "Reset", "All sales data cleared")
	return nil
}

func channelSource(c Channel) string {
	switch c {
	case ChannelTicketing:
		return "Eventbrite"
	case ChannelPOS:
		return "Square"
	default:
		return "WooCommerce"
	}
}

func describe(sale Sale) string {
	out := fmt.Sprintf("Product ID: %s, Quantity: %d", sale.ProductID, sale.Quantity)
	if key := bookingKeyOf(sale); key != "" {
		out += " for date " + key
	}
	return out
}
