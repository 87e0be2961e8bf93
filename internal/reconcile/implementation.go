// internal/reconcile/implementation.go
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"

	"ticketsync/internal/catalog"
	"ticketsync/internal/heuristics"
	"ticketsync/internal/ledger"
	"ticketsync/internal/logging"
	"ticketsync/internal/mapping"
	"ticketsync/internal/occurrence"
	"ticketsync/internal/oplog"
	"ticketsync/internal/telemetry"
	"ticketsync/internal/ticketing"
)

// service implements the Service interface.
type service struct {
	mappings  mapping.Service
	sales     ledger.Service
	products  catalog.Service
	tickets   ticketing.Service
	ops       *oplog.Recorder
	counters  *telemetry.Counters
	tolerance time.Duration
	logger    logrus.FieldLogger
}

func NewService(mappings mapping.Service, sales ledger.Service, products catalog.Service, tickets ticketing.Service, ops *oplog.Recorder, counters *telemetry.Counters, tolerance time.Duration, logger logrus.FieldLogger) Service {
	if tolerance <= 0 {
		tolerance = heuristics.DefaultTolerance
	}
	return &service{
		mappings:  mappings,
		sales:     sales,
		products:  products,
		tickets:   tickets,
		ops:       ops,
		counters:  counters,
		tolerance: tolerance,
		logger:    logger,
	}
}

func (s *service) HandleOrder(ctx context.Context, order catalog.Order) (OrderResult, error) {
	result := OrderResult{OrderID: order.ID}
	if order.Status != "" && order.Status != completedStatus {
		result.Skipped = true
		return result, nil
	}

	var errs []error
	for _, item := range order.Items {
		if item.ProductID == "" || item.Quantity <= 0 {
			continue
		}
		date, clock := occurrence.FromLineItem(item, s.variationAttributes(ctx, item))
		res := ItemResult{ProductID: item.ProductID, Quantity: item.Quantity, Date: date, Time: clock}

		entry, err := s.sales.Record(ctx, ledger.Sale{
			Channel:        ledger.ChannelLocal,
			ProductID:      item.ProductID,
			Quantity:       item.Quantity,
			OccurrenceDate: date,
			OccurrenceTime: clock,
			Reference:      order.ID,
		})
		if err != nil {
			logging.LogError(s.logger, "reconcile", "HandleOrder", "record sale", item, err)
			res.Error = err.Error()
			errs = append(errs, err)
		}
		res.Entry = entry

		// The local sale stands even when the ledger write failed, so the
		// remote still has to hear about it.
		push, err := s.PushSale(ctx, Push{
			OrderID:   order.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Date:      date,
			Time:      clock,
		})
		if err != nil {
			if res.Error == "" {
				res.Error = err.Error()
			}
			errs = append(errs, err)
		} else {
			res.Push = &push
		}
		result.Items = append(result.Items, res)
	}
	return result, errors.Join(errs...)
}

// variationAttributes returns the attributes of the sold variation, if any.
func (s *service) variationAttributes(ctx context.Context, item catalog.LineItem) map[string]string {
	if item.VariationID == "" {
		return nil
	}
	p, err := s.products.GetProduct(ctx, item.ProductID)
	if err != nil {
		logging.LogError(s.logger, "reconcile", "variationAttributes", "load parent product", item.ProductID, err)
		return nil
	}
	for _, v := range p.Variations {
		if v.ID == item.VariationID {
			return v.Attributes
		}
	}
	return nil
}

func (s *service) PushSale(ctx context.Context, push Push) (PushResult, error) {
	result := PushResult{ProductID: push.ProductID, Outcome: OutcomeUntracked}

	m, err := s.mappings.Resolve(ctx, push.ProductID, push.Date, push.Time)
	if err != nil {
		return result, fmt.Errorf("resolve mapping: %w", err)
	}
	if m.TicketID == "" && push.Time != "" {
		if m, err = s.mappings.Resolve(ctx, push.ProductID, push.Date, ""); err != nil {
			return result, fmt.Errorf("resolve mapping: %w", err)
		}
	}
	if m.TicketID == "" {
		return result, nil
	}
	result.TicketID = m.TicketID

	ticket, err := s.tickets.GetTicket(ctx, m.TicketID)
	if err != nil {
		rerr := &RemoteError{Op: "get", ProductID: push.ProductID, TicketID: m.TicketID, Err: err}
		logging.LogError(s.logger, "reconcile", "PushSale", "get ticket", push, rerr)
		return result, rerr
	}

	capacity := ticket.EffectiveCapacity()
	result.PreviousCapacity = capacity
	result.Sold = ticket.QuantitySold
	result.NewCapacity = max(ticket.QuantitySold, capacity-push.Quantity)

	action := fmt.Sprintf("Order #%s: %%s Eventbrite ticket for product ID %s%s (Ticket ID: %s) reducing by %d units, capacity %d to %d",
		push.OrderID, push.ProductID, occurrenceInfo(push.Date, push.Time), m.TicketID, push.Quantity, capacity, result.NewCapacity)

	modes := s.ops.Modes()
	if modes.TestMode {
		s.ops.Operation(ctx, "Eventbrite", "Update Ticket", fmt.Sprintf(action, "Would update"))
		result.Outcome = OutcomeWouldPush
		return result, nil
	}
	if modes.LiveLogging {
		s.ops.Operation(ctx, "Eventbrite", "Update Ticket", fmt.Sprintf(action, "Updating")+" (Live Mode)")
	}

	if err := s.tickets.UpdateTicketCapacity(ctx, m.TicketID, result.NewCapacity); err != nil {
		rerr := &RemoteError{Op: "update", ProductID: push.ProductID, TicketID: m.TicketID, Err: err}
		logging.LogError(s.logger, "reconcile", "PushSale", "update ticket capacity", push, rerr)
		return result, rerr
	}
	if s.counters != nil {
		telemetry.Add(ctx, s.counters.RemotePushes, 1)
	}
	s.logger.WithFields(logrus.Fields{
		"product_id": push.ProductID,
		"ticket_id":  m.TicketID,
		"from":       capacity,
		"to":         result.NewCapacity,
	}).Info("reduced remote ticket capacity")

	result.Outcome = OutcomePushed
	return result, nil
}

func (s *service) RecordRemoteSale(ctx context.Context, sale RemoteSale) (ledger.Entry, error) {
	if sale.Channel == ledger.ChannelLocal {
		return ledger.Entry{}, fmt.Errorf("%w: local sales arrive as orders", ledger.ErrInvalidSale)
	}
	return s.sales.Record(ctx, ledger.Sale{
		Channel:        sale.Channel,
		ProductID:      sale.ProductID,
		Quantity:       sale.Quantity,
		OccurrenceDate: sale.Date,
		OccurrenceTime: sale.Time,
		Reference:      sale.Reference,
	})
}

func (s *service) Sync(ctx context.Context) (SyncReport, error) {
	var report SyncReport

	all, err := s.mappings.All(ctx)
	if err != nil {
		return report, fmt.Errorf("list mappings: %w", err)
	}
	for _, m := range all {
		if m.TicketID == "" {
			continue
		}
		report.add(s.syncOne(ctx, m))
	}

	s.logger.WithFields(logrus.Fields{
		"checked": report.Checked,
		"updated": report.Updated,
		"failed":  report.Failed,
	}).Info("sync pass finished")
	return report, nil
}

func (s *service) syncOne(ctx context.Context, m mapping.ResolvedMapping) SyncItem {
	item := SyncItem{ProductID: m.ProductID, Key: m.Key, TicketID: m.TicketID}
	fail := func(what string, err error) SyncItem {
		logging.LogError(s.logger, "reconcile", "Sync", what, m, err)
		item.Action = SyncFailed
		item.Reason = err.Error()
		return item
	}

	p, err := s.products.GetProduct(ctx, m.ProductID)
	if errors.Is(err, catalog.ErrProductNotFound) {
		item.Action = SyncSkipped
		item.Reason = "product not found"
		return item
	}
	if err != nil {
		return fail("load product", err)
	}

	ticket, err := s.tickets.GetTicket(ctx, m.TicketID)
	if err != nil {
		return fail("get ticket", &RemoteError{Op: "get", ProductID: m.ProductID, TicketID: m.TicketID, Err: err})
	}
	item.Available = ticket.Available()

	var write func() error
	if m.IsDefault() {
		if !p.ManageStock {
			item.Action = SyncSkipped
			item.Reason = "stock not managed"
			return item
		}
		item.Current = p.StockQuantity
		write = func() error { return s.products.SetStock(ctx, p.ID, item.Available) }
	} else {
		current, found := occurrence.InventoryFor(p, m.Date, m.Time, s.tolerance)
		if !found {
			item.Action = SyncSkipped
			item.Reason = "no stored inventory for occurrence"
			return item
		}
		item.Current = current
		write = func() error {
			patch, err := occurrence.SetInventory(p, m.Date, m.Time, item.Available, s.tolerance)
			if err != nil {
				return err
			}
			return s.apply(ctx, patch)
		}
	}

	if item.Current != nil && *item.Current == item.Available {
		item.Action = SyncInSync
		return item
	}

	action := fmt.Sprintf("%%s WooCommerce stock for product ID %s (%s)%s from %s to %d based on Eventbrite availability",
		p.ID, p.Name, occurrenceInfo(m.Date, m.Time), formatCount(item.Current), item.Available)
	operation := "Sync Ticket"
	if !m.IsDefault() {
		operation = "Sync Date Ticket"
	}

	modes := s.ops.Modes()
	if modes.TestMode {
		s.ops.Operation(ctx, "Eventbrite", operation, fmt.Sprintf(action, "Would update"))
		item.Action = SyncWouldUpdate
		return item
	}
	if modes.LiveLogging {
		s.ops.Operation(ctx, "Eventbrite", operation, fmt.Sprintf(action, "Updating")+" (Live Mode)")
	}

	if err := write(); err != nil {
		return fail("write local inventory", err)
	}
	if s.counters != nil {
		telemetry.Add(ctx, s.counters.SyncUpdates, 1, attribute.Bool("default_mapping", m.IsDefault()))
	}
	item.Action = SyncUpdated
	return item
}

func (s *service) apply(ctx context.Context, patch occurrence.Patch) error {
	if patch.MetaKey != "" {
		return s.products.UpdateProductMeta(ctx, patch.ProductID, patch.MetaKey, patch.Meta)
	}
	return s.products.SetStock(ctx, patch.ProductID, patch.Stock)
}

func (s *service) TestTicket(ctx context.Context, ticketID string) (TicketStatus, error) {
	if ticketID == "" {
		return TicketStatus{}, ErrMissingTicket
	}
	ticket, err := s.tickets.GetTicket(ctx, ticketID)
	if err != nil {
		return TicketStatus{}, &RemoteError{Op: "get", TicketID: ticketID, Err: err}
	}
	event, err := s.tickets.GetEvent(ctx, ticket.EventID)
	if err != nil {
		return TicketStatus{}, &RemoteError{Op: "get event of", TicketID: ticketID, Err: err}
	}

	status := TicketStatus{
		EventID:    ticket.EventID,
		TicketID:   ticketID,
		EventName:  event.Name,
		Venue:      event.Venue,
		TicketName: ticket.Name,
		Free:       ticket.Free,
		Capacity:   ticket.EffectiveCapacity(),
		Sold:       ticket.QuantitySold,
		Available:  ticket.Available(),
	}
	if !event.StartDate().IsZero() {
		status.EventDate = event.StartDate()
		status.EventTime = event.StartClock()
		status.FormattedTime = event.Start.In(time.UTC).Format("3:04 PM")
	}
	return status, nil
}

func occurrenceInfo(date civil.Date, clock string) string {
	out := ""
	if !date.IsZero() {
		out += " for date " + date.String()
	}
	if clock != "" {
		out += " time " + clock
	}
	return out
}

func formatCount(v *int) string {
	if v == nil {
		return "none"
	}
	return fmt.Sprint(*v)
}
