package reconcile

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"ticketsync/internal/catalog"
	"ticketsync/internal/catalog/catalogtest"
	"ticketsync/internal/docstore"
	"ticketsync/internal/ledger"
	"ticketsync/internal/lock"
	"ticketsync/internal/logging"
	"ticketsync/internal/mapping"
	"ticketsync/internal/oplog"
	"ticketsync/internal/ticketing"
	"ticketsync/internal/ticketing/ticketingtest"
)

var friday = civil.Date{Year: 2026, Month: 10, Day: 16}

type fixture struct {
	svc      Service
	mappings mapping.Service
	sales    ledger.Service
	catalog  *catalogtest.Fake
	tickets  *ticketingtest.Fake
	ops      *oplog.Recorder
}

func newFixture(t *testing.T, modes oplog.Modes) *fixture {
	t.Helper()
	logger := logging.Discard()
	store := docstore.NewMemoryStore()
	ops := oplog.NewRecorder(store, logger, modes)

	stock := 5
	products := catalogtest.New(
		&catalog.Product{ID: "42", Name: "Friday Improv", SKU: "IMP-FRI", ManageStock: true, StockQuantity: &stock},
		&catalog.Product{ID: "7", Name: "Jazz Brunch", Meta: map[string]json.RawMessage{
			"_booking_slots": json.RawMessage(`{"2026-10-16_20:00":{"quantity":5},"2026-10-17":{"stock":8}}`),
		}},
	)
	tickets := &ticketingtest.Fake{Events: []ticketing.Event{{
		ID:       "E1",
		Name:     "Friday Improv",
		Start:    civil.DateTime{Date: friday, Time: civil.Time{Hour: 20}},
		Venue:    "Main Room",
		Capacity: 50,
		TicketClasses: []ticketing.TicketClass{
			{ID: "T1", Name: "General", Capacity: 100, CapacityIsCustom: true, QuantitySold: 10},
			{ID: "T2", Name: "Front Row", QuantitySold: 48},
			{ID: "T3", Name: "Balcony", Capacity: 8, CapacityIsCustom: true, QuantitySold: 0},
		},
	}}}

	mappings := mapping.NewService(store, lock.Noop{}, ops, logger, 0)
	sales := ledger.NewService(store, lock.Noop{}, products, ops, nil, time.UTC, logger)
	return &fixture{
		svc:      NewService(mappings, sales, products, tickets, ops, nil, 0, logger),
		mappings: mappings,
		sales:    sales,
		catalog:  products,
		tickets:  tickets,
		ops:      ops,
	}
}

func (f *fixture) save(t *testing.T, productID string, entries ...mapping.OccurrenceMapping) {
	t.Helper()
	_, err := f.mappings.Save(context.Background(), productID, entries)
	require.NoError(t, err)
}

func order(items ...catalog.LineItem) catalog.Order {
	return catalog.Order{ID: "1001", Status: "completed", Items: items}
}

func showItem(productID string, qty int, date, clock string) catalog.LineItem {
	return catalog.LineItem{ProductID: productID, Quantity: qty, Meta: []catalog.MetaEntry{
		{Key: "Event Date", Value: date},
		{Key: "Event Time", Value: clock},
	}}
}

func TestHandleOrderRecordsAndPushes(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, oplog.Modes{})
	f.save(t, "42", mapping.OccurrenceMapping{Date: friday, Time: "20:00", ChannelMapping: mapping.ChannelMapping{TicketID: "T1"}})

	result, err := f.svc.HandleOrder(ctx, order(showItem("42", 2, "2026-10-16", "20:00")))
	require.NoError(t, err)
	require.Len(t, result.Items, 1)

	item := result.Items[0]
	assert.Equal(t, friday, item.Date)
	assert.Equal(t, "20:00", item.Time)
	assert.Equal(t, "2026-10-16_20:00", item.Entry.BookingDate)
	assert.Equal(t, 2, item.Entry.WooCommerce)
	require.NotNil(t, item.Push)
	assert.Equal(t, OutcomePushed, item.Push.Outcome)
	assert.Equal(t, []ticketingtest.CapacityUpdate{{TicketID: "T1", Capacity: 98}}, f.tickets.Updates)
}

func TestHandleOrderSkipsOtherStatuses(t *testing.T) {
	f := newFixture(t, oplog.Modes{})
	o := order(showItem("42", 2, "2026-10-16", "20:00"))
	o.Status = "processing"

	result, err := f.svc.HandleOrder(context.Background(), o)
	require.NoError(t, err)
	assert.True(t, result.Skipped)
	assert.Empty(t, f.tickets.Updates)
}

func TestHandleOrderUsesVariationAttributes(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, oplog.Modes{})
	f.catalog.Products["42"].Variations = []catalog.Variation{
		{ID: "421", Attributes: map[string]string{"Show Date": "2026-10-16"}},
	}
	f.save(t, "42", mapping.OccurrenceMapping{Date: friday, ChannelMapping: mapping.ChannelMapping{TicketID: "T1"}})

	result, err := f.svc.HandleOrder(ctx, order(catalog.LineItem{ProductID: "42", VariationID: "421", Quantity: 1}))
	require.NoError(t, err)
	assert.Equal(t, friday, result.Items[0].Date)
	assert.Equal(t, []ticketingtest.CapacityUpdate{{TicketID: "T1", Capacity: 99}}, f.tickets.Updates)
}

func TestPushSale(t *testing.T) {
	ctx := context.Background()

	t.Run("capacity never drops below sold", func(t *testing.T) {
		f := newFixture(t, oplog.Modes{})
		require.NoError(t, f.mappings.SaveDefault(ctx, "42", mapping.ChannelMapping{TicketID: "T2"}))

		res, err := f.svc.PushSale(ctx, Push{ProductID: "42", Quantity: 5})
		require.NoError(t, err)
		assert.Equal(t, 50, res.PreviousCapacity)
		assert.Equal(t, 48, res.NewCapacity)
		assert.Equal(t, []ticketingtest.CapacityUpdate{{TicketID: "T2", Capacity: 48}}, f.tickets.Updates)
	})

	t.Run("date-only retry when the timed mapping has no ticket", func(t *testing.T) {
		f := newFixture(t, oplog.Modes{})
		f.save(t, "42",
			mapping.OccurrenceMapping{Date: friday, Time: "20:00", ChannelMapping: mapping.ChannelMapping{POSID: "sq-1"}},
			mapping.OccurrenceMapping{Date: friday, ChannelMapping: mapping.ChannelMapping{TicketID: "T3"}},
		)

		res, err := f.svc.PushSale(ctx, Push{ProductID: "42", Quantity: 3, Date: friday, Time: "20:00"})
		require.NoError(t, err)
		assert.Equal(t, "T3", res.TicketID)
		assert.Equal(t, 5, res.NewCapacity)
	})

	t.Run("untracked product is a no-op", func(t *testing.T) {
		f := newFixture(t, oplog.Modes{})

		res, err := f.svc.PushSale(ctx, Push{ProductID: "42", Quantity: 1, Date: friday})
		require.NoError(t, err)
		assert.Equal(t, OutcomeUntracked, res.Outcome)
		assert.Empty(t, f.tickets.Updates)
	})

	t.Run("remote failure is typed and not retried", func(t *testing.T) {
		f := newFixture(t, oplog.Modes{})
		require.NoError(t, f.mappings.SaveDefault(ctx, "42", mapping.ChannelMapping{TicketID: "T1"}))
		f.tickets.UpdateErr = errors.New("503 from remote")

		_, err := f.svc.PushSale(ctx, Push{ProductID: "42", Quantity: 1})
		var remote *RemoteError
		require.ErrorAs(t, err, &remote)
		assert.Equal(t, "update", remote.Op)
		assert.Equal(t, "T1", remote.TicketID)
	})

	t.Run("test mode logs the computed action", func(t *testing.T) {
		f := newFixture(t, oplog.Modes{TestMode: true, LiveLogging: true})
		require.NoError(t, f.mappings.SaveDefault(ctx, "42", mapping.ChannelMapping{TicketID: "T1"}))

		res, err := f.svc.PushSale(ctx, Push{OrderID: "1001", ProductID: "42", Quantity: 4})
		require.NoError(t, err)
		assert.Equal(t, OutcomeWouldPush, res.Outcome)
		assert.Empty(t, f.tickets.Updates)

		logged, err := f.ops.Recent(ctx)
		require.NoError(t, err)
		require.NotEmpty(t, logged)
		last := logged[len(logged)-1]
		assert.Contains(t, last.Details, "Would update")
		assert.Contains(t, last.Details, "capacity 100 to 96")
	})
}

func TestHandleOrderKeepsLocalSaleOnRemoteFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, oplog.Modes{})
	require.NoError(t, f.mappings.SaveDefault(ctx, "42", mapping.ChannelMapping{TicketID: "T1"}))
	f.tickets.GetErr = errors.New("timeout")

	result, err := f.svc.HandleOrder(ctx, order(catalog.LineItem{ProductID: "42", Quantity: 1}))
	var remote *RemoteError
	require.ErrorAs(t, err, &remote)
	require.Len(t, result.Items, 1)
	assert.Equal(t, 1, result.Items[0].Entry.Quantity)
	assert.Nil(t, result.Items[0].Push)
}

func TestRecordRemoteSale(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, oplog.Modes{})
	require.NoError(t, f.mappings.SaveDefault(ctx, "42", mapping.ChannelMapping{TicketID: "T1"}))

	entry, err := f.svc.RecordRemoteSale(ctx, RemoteSale{Channel: ledger.ChannelTicketing, ProductID: "42", Quantity: 2, Date: friday})
	require.NoError(t, err)
	assert.Equal(t, 2, entry.Eventbrite)
	assert.Empty(t, f.tickets.Updates)

	_, err = f.svc.RecordRemoteSale(ctx, RemoteSale{Channel: ledger.ChannelLocal, ProductID: "42", Quantity: 1})
	assert.ErrorIs(t, err, ledger.ErrInvalidSale)
}

func TestSync(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, oplog.Modes{})
	require.NoError(t, f.mappings.SaveDefault(ctx, "42", mapping.ChannelMapping{TicketID: "T1"}))
	f.save(t, "7",
		mapping.OccurrenceMapping{Date: friday, Time: "20:00", ChannelMapping: mapping.ChannelMapping{TicketID: "T3"}},
		mapping.OccurrenceMapping{Date: friday.AddDays(1), ChannelMapping: mapping.ChannelMapping{TicketID: "T2"}},
		mapping.OccurrenceMapping{Date: friday.AddDays(2), ChannelMapping: mapping.ChannelMapping{TicketID: "T1"}},
		mapping.OccurrenceMapping{Date: friday.AddDays(3), ChannelMapping: mapping.ChannelMapping{POSID: "sq-1"}},
	)

	report, err := f.svc.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, report.Checked)
	assert.Equal(t, 3, report.Updated)

	byKey := map[string]SyncItem{}
	for _, item := range report.Items {
		byKey[item.ProductID+"|"+item.Key] = item
	}
	assert.Equal(t, SyncUpdated, byKey["42|"].Action)
	assert.Equal(t, 90, byKey["42|"].Available)
	assert.Equal(t, SyncUpdated, byKey["7|2026-10-16_20:00"].Action)
	assert.Equal(t, SyncUpdated, byKey["7|2026-10-17"].Action)
	assert.Equal(t, SyncSkipped, byKey["7|2026-10-18"].Action)

	assert.Equal(t, []catalogtest.StockWrite{{ProductID: "42", Quantity: 90}}, f.catalog.StockWrites)
	slots := f.catalog.Products["7"].Meta["_booking_slots"]
	assert.Equal(t, int64(8), gjson.GetBytes(slots, `2026-10-16_20:00.quantity`).Int())
	assert.Equal(t, int64(2), gjson.GetBytes(slots, `2026-10-17.stock`).Int())

	// A second pass finds everything in sync.
	report, err = f.svc.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Updated)
}

func TestSyncTestModeDoesNotWrite(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, oplog.Modes{TestMode: true})
	require.NoError(t, f.mappings.SaveDefault(ctx, "42", mapping.ChannelMapping{TicketID: "T1"}))

	report, err := f.svc.Sync(ctx)
	require.NoError(t, err)
	require.Len(t, report.Items, 1)
	assert.Equal(t, SyncWouldUpdate, report.Items[0].Action)
	assert.Empty(t, f.catalog.StockWrites)
}

func TestSyncCollectsFailures(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, oplog.Modes{})
	require.NoError(t, f.mappings.SaveDefault(ctx, "42", mapping.ChannelMapping{TicketID: "missing"}))
	require.NoError(t, f.mappings.SaveDefault(ctx, "7", mapping.ChannelMapping{TicketID: "T1"}))

	report, err := f.svc.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Checked)
	assert.Equal(t, 1, report.Failed)
}

func TestTestTicket(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, oplog.Modes{})

	status, err := f.svc.TestTicket(ctx, "T2")
	require.NoError(t, err)
	assert.Equal(t, TicketStatus{
		EventID:       "E1",
		TicketID:      "T2",
		EventName:     "Friday Improv",
		EventDate:     friday,
		EventTime:     "20:00",
		FormattedTime: "8:00 PM",
		Venue:         "Main Room",
		TicketName:    "Front Row",
		Capacity:      50,
		Sold:          48,
		Available:     2,
	}, status)

	_, err = f.svc.TestTicket(ctx, "")
	assert.ErrorIs(t, err, ErrMissingTicket)
}
