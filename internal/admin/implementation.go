// internal/admin/implementation.go
package admin

import (
	"context"
	"fmt"

	"cloud.google.com/go/civil"
	"github.com/sirupsen/logrus"

	"ticketsync/internal/catalog"
	"ticketsync/internal/logging"
	"ticketsync/internal/mapping"
	"ticketsync/internal/matching"
	"ticketsync/internal/occurrence"
	"ticketsync/internal/oplog"
	"ticketsync/internal/pos"
	"ticketsync/internal/ticketing"
)

const ordersPageSize = 100

// service implements the Service interface.
type service struct {
	products   catalog.Service
	discoverer *occurrence.Discoverer
	mappings   mapping.Service
	engine     *matching.Engine
	tickets    ticketing.Service
	register   pos.Service
	ops        *oplog.Recorder
	logger     logrus.FieldLogger
}

func NewService(products catalog.Service, discoverer *occurrence.Discoverer, mappings mapping.Service, engine *matching.Engine, tickets ticketing.Service, register pos.Service, ops *oplog.Recorder, logger logrus.FieldLogger) Service {
	return &service{
		products:   products,
		discoverer: discoverer,
		mappings:   mappings,
		engine:     engine,
		tickets:    tickets,
		register:   register,
		ops:        ops,
		logger:     logger,
	}
}

func (s *service) ProductOccurrences(ctx context.Context, productID string, useRemote bool) ([]AnnotatedOccurrence, error) {
	p, err := s.products.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	stored, err := s.mappings.Occurrences(ctx, productID)
	if err != nil {
		return nil, err
	}
	byKey := make(map[string]mapping.ChannelMapping, len(stored))
	for _, m := range stored {
		byKey[m.Key] = m.ChannelMapping
	}

	found := s.discoverer.Discover(ctx, p, occurrence.Options{UseRemote: useRemote})
	out := make([]AnnotatedOccurrence, 0, len(found))
	for _, o := range found {
		a := AnnotatedOccurrence{Occurrence: o, Key: o.Key()}
		if m, ok := byKey[a.Key]; ok {
			a.Mapping = &m
		}
		if a.Mapping == nil || a.Mapping.TicketID == "" {
			if candidates := s.engine.Suggest(ctx, p.Name, o.Date, o.Time); len(candidates) > 0 {
				a.Suggestion = &candidates[0]
			}
		}
		out = append(out, a)
	}
	return out, nil
}

func (s *service) TestMapping(ctx context.Context, productID string, date civil.Date, clock string) (MappingCheck, error) {
	if productID == "" {
		return MappingCheck{}, mapping.ErrMissingProduct
	}
	p, err := s.products.GetProduct(ctx, productID)
	if err != nil {
		return MappingCheck{}, err
	}
	m, err := s.mappings.Resolve(ctx, productID, date, clock)
	if err != nil {
		return MappingCheck{}, err
	}

	check := MappingCheck{ProductID: productID, Mapping: m}
	suffix := ""
	if !date.IsZero() {
		check.Key = occurrence.Key(date, clock)
		suffix = " (" + check.Key + ")"
	}

	details := fmt.Sprintf("Testing connections for product ID %s%s with ticket %q and POS item %q", productID, suffix, m.TicketID, m.POSID)
	if s.ops.Modes().LiveLogging && !s.ops.Modes().TestMode {
		details += " (Live Mode)"
	}
	s.ops.Operation(ctx, "Admin", "Test Mapping", details)

	if m.IsEmpty() {
		check.note(StatusWarning, fmt.Sprintf("No ticket or POS item is mapped for %s%s.", p.Name, suffix))
		return check, nil
	}

	if m.TicketID == "" {
		check.note(StatusWarning, "No ticket ID mapped.")
	} else if ticket, err := s.tickets.GetTicket(ctx, m.TicketID); err != nil {
		logging.LogError(s.logger, "admin", "TestMapping", "get ticket", m, err)
		check.note(StatusError, fmt.Sprintf("Ticket %s could not be read: %v", m.TicketID, err))
	} else {
		check.Ticket = ticket
		check.note(StatusOK, fmt.Sprintf("Ticket %s (%s): %d of %d available.", ticket.ID, ticket.Name, ticket.Available(), ticket.EffectiveCapacity()))
	}

	if m.POSID == "" {
		check.note(StatusWarning, "No POS item mapped.")
	} else if item, err := s.register.GetCatalogItem(ctx, m.POSID); err != nil {
		logging.LogError(s.logger, "admin", "TestMapping", "get POS item", m, err)
		check.note(StatusError, fmt.Sprintf("POS item %s could not be read: %v", m.POSID, err))
	} else {
		check.POSItem = item
		check.note(StatusOK, fmt.Sprintf("POS item %s found (%s).", m.POSID, item.Name))
	}
	return check, nil
}

func (s *service) TestConnections(ctx context.Context) []ConnectionStatus {
	return []ConnectionStatus{
		connection("Eventbrite", s.tickets.TestConnection(ctx)),
		connection("Square", s.register.TestConnection(ctx)),
	}
}

func connection(service string, err error) ConnectionStatus {
	if err != nil {
		return ConnectionStatus{Service: service, Message: fmt.Sprintf("%s API connection failed: %v", service, err)}
	}
	return ConnectionStatus{Service: service, OK: true, Message: service + " API connection successful!"}
}

func (s *service) POSCatalog(ctx context.Context) ([]pos.CatalogItem, error) {
	return s.register.ListCatalogItems(ctx)
}

// Attendees lists local buyers from processing and completed orders, then
// remote attendees of every event mapped to the product. A remote failure
// is logged and leaves the remote part out.
func (s *service) Attendees(ctx context.Context, productID string) ([]Attendee, error) {
	var out []Attendee
	for offset := 0; ; offset += ordersPageSize {
		orders, err := s.products.ListOrders(ctx, catalog.OrderQuery{
			Statuses: []string{"processing", "completed"},
			Offset:   offset,
			Limit:    ordersPageSize,
		})
		if err != nil {
			return nil, fmt.Errorf("list orders: %w", err)
		}
		for _, o := range orders {
			for _, item := range o.Items {
				if item.ProductID != productID && item.VariationID != productID {
					continue
				}
				out = append(out, Attendee{
					Source:       "WooCommerce",
					Reference:    o.ID,
					Quantity:     item.Quantity,
					PurchaseDate: o.CreatedAt.Format("2006-01-02 15:04:05"),
				})
			}
		}
		if len(orders) < ordersPageSize {
			break
		}
	}

	events, err := s.mappedEvents(ctx, productID)
	if err != nil {
		return nil, err
	}
	for _, eventID := range events {
		attendees, err := s.tickets.ListAttendees(ctx, eventID)
		if err != nil {
			logging.LogError(s.logger, "admin", "Attendees", "list remote attendees", eventID, err)
			continue
		}
		for _, a := range attendees {
			if a.Cancelled || a.Refunded {
				continue
			}
			out = append(out, Attendee{
				Source:       "Eventbrite",
				Reference:    a.ID,
				Quantity:     max(a.Quantity, 1),
				PurchaseDate: a.Created.Format("2006-01-02 15:04:05"),
			})
		}
	}
	return out, nil
}

func (s *service) mappedEvents(ctx context.Context, productID string) ([]string, error) {
	def, err := s.mappings.Resolve(ctx, productID, civil.Date{}, "")
	if err != nil {
		return nil, err
	}
	stored, err := s.mappings.Occurrences(ctx, productID)
	if err != nil {
		return nil, err
	}

	seen := map[string]bool{}
	var out []string
	add := func(id string) {
		if id != "" && !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	add(def.EventID)
	for _, m := range stored {
		add(m.EventID)
	}
	return out, nil
}
