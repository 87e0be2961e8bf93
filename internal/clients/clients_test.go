package clients

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticketsync/internal/catalog"
	"ticketsync/internal/pos"
)

type recorded struct {
	Method string
	Path   string
	Query  string
	Body   string
	Auth   string
}

// stub serves canned JSON per "METHOD /path" and records every request.
func stub(t *testing.T, routes map[string]string) (*httptest.Server, *[]recorded) {
	t.Helper()
	var calls []recorded
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		calls = append(calls, recorded{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.RawQuery,
			Body:   string(body),
			Auth:   r.Header.Get("Authorization"),
		})
		key := r.Method + " " + r.URL.Path
		if r.URL.Query().Get("continuation") != "" {
			key += "?continuation=" + r.URL.Query().Get("continuation")
		}
		resp, ok := routes[key]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"error":"NOT_FOUND","error_description":"The requested resource does not exist."}`)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, resp)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestTicketingGetTicketFillsEventCapacity(t *testing.T) {
	srv, calls := stub(t, map[string]string{
		"GET /ticket_classes/T1/": `{"id":"T1","event_id":"E1","name":"General","capacity":0,"capacity_is_custom":false,"quantity_sold":12}`,
		"GET /events/E1/":         `{"id":"E1","name":{"text":"Friday Improv"},"start":{"local":"2026-10-16T20:00:00"},"capacity":80}`,
	})
	c := NewTicketingClient(srv.URL, "tok", "ORG", Options{})

	tc, err := c.GetTicket(context.Background(), "T1")
	require.NoError(t, err)
	assert.Equal(t, "E1", tc.EventID)
	assert.Equal(t, 80, tc.EffectiveCapacity())
	assert.Equal(t, 68, tc.Available())
	assert.Equal(t, "Bearer tok", (*calls)[0].Auth)
}

func TestTicketingUpdateCapacity(t *testing.T) {
	srv, calls := stub(t, map[string]string{
		"GET /ticket_classes/T1/":            `{"id":"T1","event_id":"E1","capacity":100,"capacity_is_custom":true}`,
		"POST /events/E1/ticket_classes/T1/": `{"id":"T1"}`,
	})
	c := NewTicketingClient(srv.URL, "tok", "ORG", Options{})

	require.NoError(t, c.UpdateTicketCapacity(context.Background(), "T1", 97))
	require.Len(t, *calls, 2)
	assert.JSONEq(t, `{"ticket_class":{"capacity":97,"capacity_is_custom":true}}`, (*calls)[1].Body)
}

func TestTicketingListEventsPaginatesAndResolvesOrg(t *testing.T) {
	srv, calls := stub(t, map[string]string{
		"GET /users/me/organizations/": `{"organizations":[{"id":"ORG9"}]}`,
		"GET /organizations/ORG9/events/": `{"events":[{"id":"E1","name":{"text":"Friday Improv"},"status":"live",
			"start":{"local":"2026-10-16T20:00:00"},"capacity":80,"venue":{"name":"Main Stage"},
			"ticket_classes":[{"id":"T1","name":"General","capacity":0,"quantity_sold":3}]}],
			"pagination":{"has_more_items":true,"continuation":"abc"}}`,
		"GET /organizations/ORG9/events/?continuation=abc": `{"events":[{"id":"E2","name":{"text":"Saturday Improv"},"status":"live",
			"start":{"local":"2026-10-17T19:30:00"},"capacity":50}],"pagination":{"has_more_items":false}}`,
	})
	c := NewTicketingClient(srv.URL, "tok", "", Options{})

	events, err := c.ListOrgEvents(context.Background(), "live", 50)
	require.NoError(t, err)
	require.Len(t, events, 2)

	assert.Equal(t, "Friday Improv", events[0].Name)
	assert.Equal(t, "Main Stage", events[0].Venue)
	assert.Equal(t, civil.Date{Year: 2026, Month: 10, Day: 16}, events[0].StartDate())
	assert.Equal(t, "20:00", events[0].StartClock())
	assert.Equal(t, "E1", events[0].TicketClasses[0].EventID)
	assert.Equal(t, 80, events[0].TicketClasses[0].EffectiveCapacity())
	assert.Equal(t, "19:30", events[1].StartClock())

	assert.Contains(t, (*calls)[1].Query, "status=live")
	assert.Contains(t, (*calls)[1].Query, "page_size=50")

	// The resolved organization is cached.
	_, err = c.ListOrgEvents(context.Background(), "live", 50)
	require.NoError(t, err)
	assert.Equal(t, "/organizations/ORG9/events/", (*calls)[3].Path)
}

func TestTicketingListEventsSkipsUnreadableStart(t *testing.T) {
	srv, _ := stub(t, map[string]string{
		"GET /organizations/ORG/events/": `{"events":[
			{"id":"E1","name":{"text":"Broken"},"start":{"local":"sometime soon"}},
			{"id":"E2","name":{"text":"Friday Improv"},"start":{"local":"2026-10-16T20:00:00"},"capacity":40}],
			"pagination":{"has_more_items":false}}`,
	})
	c := NewTicketingClient(srv.URL, "tok", "ORG", Options{})

	events, err := c.ListOrgEvents(context.Background(), "live", 50)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "E2", events[0].ID)
}

func TestTicketingErrors(t *testing.T) {
	srv, _ := stub(t, map[string]string{})
	c := NewTicketingClient(srv.URL, "tok", "ORG", Options{})

	_, err := c.GetTicket(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "The requested resource does not exist.", apiErr.Message)

	noToken := NewTicketingClient(srv.URL, "", "ORG", Options{})
	assert.ErrorIs(t, noToken.TestConnection(context.Background()), ErrMissingCredentials)
}

func TestTicketingAttendees(t *testing.T) {
	srv, _ := stub(t, map[string]string{
		"GET /events/E1/attendees/": `{"attendees":[
			{"id":"A1","event_id":"E1","ticket_class_id":"T1","quantity":2,"status":"Attending","created":"2026-10-01T10:00:00Z"},
			{"id":"A2","event_id":"E1","ticket_class_id":"T1","status":"Not Attending","cancelled":true,"created":"2026-10-02T10:00:00Z"}
		],"pagination":{"has_more_items":false}}`,
	})
	c := NewTicketingClient(srv.URL, "tok", "ORG", Options{})

	attendees, err := c.ListAttendees(context.Background(), "E1")
	require.NoError(t, err)
	require.Len(t, attendees, 2)
	assert.Equal(t, 2, attendees[0].Quantity)
	assert.Equal(t, 1, attendees[1].Quantity)
	assert.True(t, attendees[1].Cancelled)
}

func TestPOSSearchOrders(t *testing.T) {
	srv, calls := stub(t, map[string]string{
		"POST /orders/search": `{"orders":[{"id":"SQ1","created_at":"2026-10-10T18:00:00Z","line_items":[
			{"catalog_object_id":"VAR1","name":"Friday Improv","quantity":"2"},
			{"catalog_object_id":"VAR2","name":"Popcorn","quantity":"1.0"}]}],"cursor":"next"}`,
	})
	c := NewPOSClient(srv.URL, "sq", "LOC1", time.UTC, Options{})

	page, err := c.SearchOrders(context.Background(), pos.OrderSearch{
		From:  civil.Date{Year: 2026, Month: 10, Day: 1},
		To:    civil.Date{Year: 2026, Month: 10, Day: 31},
		Limit: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, "next", page.Cursor)
	require.Len(t, page.Orders, 1)
	assert.Equal(t, 2, page.Orders[0].Lines[0].Quantity)
	assert.Equal(t, 1, page.Orders[0].Lines[1].Quantity)

	var sent map[string]any
	require.NoError(t, json.Unmarshal([]byte((*calls)[0].Body), &sent))
	assert.Equal(t, []any{"LOC1"}, sent["location_ids"])
	created := sent["query"].(map[string]any)["filter"].(map[string]any)["date_time_filter"].(map[string]any)["created_at"].(map[string]any)
	assert.Equal(t, "2026-10-01T00:00:00Z", created["start_at"])
	assert.Equal(t, "2026-11-01T00:00:00Z", created["end_at"])
}

func TestPOSCatalog(t *testing.T) {
	srv, _ := stub(t, map[string]string{
		"GET /catalog/list": `{"objects":[{"id":"ITEM1","type":"ITEM","item_data":{"name":"Friday Improv","variations":[
			{"id":"VAR1","type":"ITEM_VARIATION","item_variation_data":{"item_id":"ITEM1","name":"Regular","sku":"IMP-FRI"}}]}}]}`,
		"GET /catalog/object/VAR1":  `{"object":{"id":"VAR1","type":"ITEM_VARIATION","item_variation_data":{"item_id":"ITEM1","name":"Regular"}}}`,
		"GET /catalog/object/ITEM1": `{"object":{"id":"ITEM1","type":"ITEM","item_data":{"name":"Friday Improv"}}}`,
	})
	c := NewPOSClient(srv.URL, "sq", "LOC1", nil, Options{})

	items, err := c.ListCatalogItems(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "IMP-FRI", items[0].Variations[0].SKU)

	item, err := c.GetCatalogItem(context.Background(), "VAR1")
	require.NoError(t, err)
	assert.Equal(t, "ITEM1", item.ID)
	assert.Equal(t, "Friday Improv", item.Name)
}

func TestCatalogGetVariableProduct(t *testing.T) {
	srv, _ := stub(t, map[string]string{
		"GET /products/42": `{"id":42,"parent_id":0,"type":"variable","name":"Friday Improv","sku":"IMP-FRI",
			"manage_stock":false,"stock_quantity":null,
			"attributes":[{"name":"Date","options":["October 16, 2026","October 23, 2026"]}],
			"meta_data":[{"id":1,"key":"fooevents_event_dates","value":"[\"2026-10-16\"]"}]}`,
		"GET /products/42/variations": `[{"id":43,"attributes":[{"name":"Date","option":"October 16, 2026"}],"stock_quantity":20}]`,
	})
	c := NewCatalogClient(srv.URL, "ck", "cs", Options{})

	p, err := c.GetProduct(context.Background(), "42")
	require.NoError(t, err)
	assert.Equal(t, "42", p.ID)
	assert.Empty(t, p.ParentID)
	assert.Equal(t, "October 16, 2026, October 23, 2026", p.Attributes["Date"])
	require.Len(t, p.Variations, 1)
	assert.Equal(t, "43", p.Variations[0].ID)
	assert.Equal(t, 20, *p.Variations[0].StockQuantity)
	assert.Equal(t, `2026-10-16`, p.MetaValue("fooevents_event_dates").Get("0").String())

	_, err = c.GetProduct(context.Background(), "404")
	assert.ErrorIs(t, err, catalog.ErrProductNotFound)
}

func TestCatalogListOrders(t *testing.T) {
	srv, calls := stub(t, map[string]string{
		"GET /orders": `[{"id":1001,"status":"completed","date_created_gmt":"2026-10-10T18:00:00","line_items":[
			{"product_id":42,"variation_id":43,"name":"Friday Improv","quantity":2,
			 "meta_data":[{"key":"Event Date","value":"October 16, 2026"},{"key":"_extra","value":{"a":1}}]}]}]`,
	})
	c := NewCatalogClient(srv.URL, "ck", "cs", Options{})

	orders, err := c.ListOrders(context.Background(), catalog.OrderQuery{
		From:     civil.Date{Year: 2026, Month: 10, Day: 1},
		Statuses: []string{"completed"},
		Offset:   4,
		Limit:    2,
	})
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, "1001", orders[0].ID)
	assert.Equal(t, time.Date(2026, 10, 10, 18, 0, 0, 0, time.UTC), orders[0].CreatedAt)
	item := orders[0].Items[0]
	assert.Equal(t, "43", item.VariationID)
	assert.Equal(t, "October 16, 2026", item.MetaValue("Event Date"))
	assert.JSONEq(t, `{"a":1}`, item.MetaValue("_extra"))

	q := (*calls)[0].Query
	assert.Contains(t, q, "after=2026-10-01T00%3A00%3A00")
	assert.NotContains(t, q, "before=")
	assert.Contains(t, q, "offset=4")
	assert.Contains(t, q, "per_page=2")
	assert.Contains(t, (*calls)[0].Auth, "Basic ")
}

func TestCatalogSetStockOnVariation(t *testing.T) {
	srv, calls := stub(t, map[string]string{
		"GET /products/43":             `{"id":43,"parent_id":42,"type":"variation"}`,
		"PUT /products/42/variations/43": `{"id":43}`,
	})
	c := NewCatalogClient(srv.URL, "ck", "cs", Options{})

	require.NoError(t, c.SetStock(context.Background(), "43", 7))
	require.Len(t, *calls, 2)
	assert.JSONEq(t, `{"manage_stock":true,"stock_quantity":7}`, (*calls)[1].Body)
}
