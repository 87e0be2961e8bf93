// internal/clients/ticketing_client.go
package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"cloud.google.com/go/civil"
	"github.com/tidwall/gjson"

	"ticketsync/internal/ticketing"
)

// TicketingClient talks to the Eventbrite v3 REST API.
type TicketingClient struct {
	rest
	token string

	mu    sync.Mutex
	orgID string
}

func NewTicketingClient(baseURL, token, orgID string, opts Options) *TicketingClient {
	c := &TicketingClient{token: token, orgID: orgID}
	c.rest = newRest("eventbrite", baseURL, opts, func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer "+c.token)
	})
	return c
}

type ebText struct {
	Text string `json:"text"`
}

type ebTicketClass struct {
	ID               string `json:"id"`
	EventID          string `json:"event_id"`
	Name             string `json:"name"`
	Free             bool   `json:"free"`
	Capacity         int    `json:"capacity"`
	CapacityIsCustom bool   `json:"capacity_is_custom"`
	QuantitySold     int    `json:"quantity_sold"`
}

type ebEvent struct {
	ID     string `json:"id"`
	Name   ebText `json:"name"`
	Status string `json:"status"`
	Start  struct {
		Local string `json:"local"`
	} `json:"start"`
	Capacity int `json:"capacity"`
	Venue    *struct {
		Name string `json:"name"`
	} `json:"venue"`
	TicketClasses []ebTicketClass `json:"ticket_classes"`
}

type ebPagination struct {
	HasMoreItems bool   `json:"has_more_items"`
	Continuation string `json:"continuation"`
}

func (t ebTicketClass) toDomain(eventCapacity int) ticketing.TicketClass {
	return ticketing.TicketClass{
		ID:               t.ID,
		EventID:          t.EventID,
		Name:             t.Name,
		Free:             t.Free,
		Capacity:         t.Capacity,
		CapacityIsCustom: t.CapacityIsCustom,
		QuantitySold:     t.QuantitySold,
		EventCapacity:    eventCapacity,
	}
}

func (e ebEvent) toDomain() (ticketing.Event, error) {
	start, err := civil.ParseDateTime(e.Start.Local)
	if err != nil {
		return ticketing.Event{}, fmt.Errorf("event %s start %q: %w", e.ID, e.Start.Local, err)
	}
	ev := ticketing.Event{
		ID:       e.ID,
		Name:     e.Name.Text,
		Status:   e.Status,
		Start:    start,
		Capacity: e.Capacity,
	}
	if e.Venue != nil {
		ev.Venue = e.Venue.Name
	}
	for _, tc := range e.TicketClasses {
		if tc.EventID == "" {
			tc.EventID = e.ID
		}
		ev.TicketClasses = append(ev.TicketClasses, tc.toDomain(e.Capacity))
	}
	return ev, nil
}

// organization returns the configured organization id, falling back to the
// first organization of the token's user.
func (c *TicketingClient) organization(ctx context.Context) (string, error) {
	c.mu.Lock()
	id := c.orgID
	c.mu.Unlock()
	if id != "" {
		return id, nil
	}

	var raw json.RawMessage
	if err := c.do(ctx, call{method: http.MethodGet, path: "/users/me/organizations/", out: &raw}); err != nil {
		return "", err
	}
	id = gjson.GetBytes(raw, "organizations.0.id").String()
	if id == "" {
		return "", fmt.Errorf("eventbrite: no organization found for token")
	}

	c.mu.Lock()
	c.orgID = id
	c.mu.Unlock()
	return id, nil
}

func (c *TicketingClient) ListOrgEvents(ctx context.Context, status string, pageSize int) ([]ticketing.Event, error) {
	if c.token == "" {
		return nil, ErrMissingCredentials
	}
	org, err := c.organization(ctx)
	if err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("expand", "venue,ticket_classes")
	if status != "" {
		query.Set("status", status)
	}
	if pageSize > 0 {
		query.Set("page_size", strconv.Itoa(pageSize))
	}

	var events []ticketing.Event
	for {
		var page struct {
			Events     []ebEvent    `json:"events"`
			Pagination ebPagination `json:"pagination"`
		}
		err := c.do(ctx, call{
			method:  http.MethodGet,
			path:    "/organizations/" + url.PathEscape(org) + "/events/",
			query:   query,
			out:     &page,
			timeout: 15 * time.Second,
		})
		if err != nil {
			return nil, err
		}
		for _, e := range page.Events {
			ev, err := e.toDomain()
			if err != nil {
				c.logger.WithError(err).WithField("event_id", e.ID).Warn("skipping event with unreadable start")
				continue
			}
			events = append(events, ev)
		}
		if !page.Pagination.HasMoreItems || page.Pagination.Continuation == "" {
			return events, nil
		}
		query.Set("continuation", page.Pagination.Continuation)
	}
}

// GetTicket loads a ticket class; the owning event's capacity is filled in
// when the class does not carry its own.
func (c *TicketingClient) GetTicket(ctx context.Context, ticketID string) (*ticketing.TicketClass, error) {
	if c.token == "" {
		return nil, ErrMissingCredentials
	}
	var tc ebTicketClass
	if err := c.do(ctx, call{method: http.MethodGet, path: "/ticket_classes/" + url.PathEscape(ticketID) + "/", out: &tc}); err != nil {
		return nil, err
	}

	eventCapacity := 0
	if !tc.CapacityIsCustom && tc.EventID != "" {
		var ev ebEvent
		if err := c.do(ctx, call{method: http.MethodGet, path: "/events/" + url.PathEscape(tc.EventID) + "/", out: &ev}); err != nil {
			return nil, err
		}
		eventCapacity = ev.Capacity
	}

	out := tc.toDomain(eventCapacity)
	return &out, nil
}

func (c *TicketingClient) GetEvent(ctx context.Context, eventID string) (*ticketing.Event, error) {
	if c.token == "" {
		return nil, ErrMissingCredentials
	}
	var e ebEvent
	err := c.do(ctx, call{
		method: http.MethodGet,
		path:   "/events/" + url.PathEscape(eventID) + "/",
		query:  url.Values{"expand": {"venue,ticket_classes"}},
		out:    &e,
	})
	if err != nil {
		return nil, err
	}
	ev, err := e.toDomain()
	if err != nil {
		return nil, err
	}
	return &ev, nil
}

// UpdateTicketCapacity sets a custom capacity on the ticket class.
func (c *TicketingClient) UpdateTicketCapacity(ctx context.Context, ticketID string, capacity int) error {
	if c.token == "" {
		return ErrMissingCredentials
	}
	var tc ebTicketClass
	if err := c.do(ctx, call{method: http.MethodGet, path: "/ticket_classes/" + url.PathEscape(ticketID) + "/", out: &tc}); err != nil {
		return err
	}

	body := map[string]any{
		"ticket_class": map[string]any{
			"capacity":           capacity,
			"capacity_is_custom": true,
		},
	}
	return c.do(ctx, call{
		method: http.MethodPost,
		path:   "/events/" + url.PathEscape(tc.EventID) + "/ticket_classes/" + url.PathEscape(ticketID) + "/",
		body:   body,
	})
}

func (c *TicketingClient) ListAttendees(ctx context.Context, eventID string) ([]ticketing.Attendee, error) {
	if c.token == "" {
		return nil, ErrMissingCredentials
	}

	query := url.Values{}
	var attendees []ticketing.Attendee
	for {
		var page struct {
			Attendees []struct {
				ID            string    `json:"id"`
				EventID       string    `json:"event_id"`
				TicketClassID string    `json:"ticket_class_id"`
				Quantity      int       `json:"quantity"`
				Status        string    `json:"status"`
				Cancelled     bool      `json:"cancelled"`
				Refunded      bool      `json:"refunded"`
				Created       time.Time `json:"created"`
			} `json:"attendees"`
			Pagination ebPagination `json:"pagination"`
		}
		err := c.do(ctx, call{
			method:  http.MethodGet,
			path:    "/events/" + url.PathEscape(eventID) + "/attendees/",
			query:   query,
			out:     &page,
			timeout: 20 * time.Second,
		})
		if err != nil {
			return nil, err
		}
		for _, a := range page.Attendees {
			qty := a.Quantity
			if qty <= 0 {
				qty = 1
			}
			attendees = append(attendees, ticketing.Attendee{
				ID:            a.ID,
				EventID:       a.EventID,
				TicketClassID: a.TicketClassID,
				Quantity:      qty,
				Status:        a.Status,
				Cancelled:     a.Cancelled,
				Refunded:      a.Refunded,
				Created:       a.Created,
			})
		}
		if !page.Pagination.HasMoreItems || page.Pagination.Continuation == "" {
			return attendees, nil
		}
		query.Set("continuation", page.Pagination.Continuation)
	}
}

func (c *TicketingClient) TestConnection(ctx context.Context) error {
	if c.token == "" {
		return ErrMissingCredentials
	}
	return c.do(ctx, call{method: http.MethodGet, path: "/users/me/"})
}
