package occurrence

import (
	"testing"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"

	"ticketsync/internal/catalog"
)

func TestFromLineItem(t *testing.T) {
	cases := []struct {
		name  string
		meta  []catalog.MetaEntry
		attrs map[string]string
		date  civil.Date
		clock string
	}{
		{
			name:  "event plugin key wins",
			meta:  []catalog.MetaEntry{{Key: "event_date", Value: "2026-10-01"}, {Key: "WooCommerceEventsDate", Value: "October 16, 2026"}},
			date:  day(10, 16),
			clock: "",
		},
		{
			name:  "known keys with time",
			meta:  []catalog.MetaEntry{{Key: "Event Time", Value: "8:00 PM"}, {Key: "Show Date", Value: "10/16/2026"}},
			date:  day(10, 16),
			clock: "20:00",
		},
		{
			name: "date-like key scanned in stored order",
			meta: []catalog.MetaEntry{{Key: "Performance", Value: "soon"}, {Key: "Which Show", Value: "2026-10-17"}, {Key: "Session day", Value: "2026-10-18"}},
			date: day(10, 17),
		},
		{
			name:  "time-like key",
			meta:  []catalog.MetaEntry{{Key: "Door opening hour", Value: "19:30"}},
			clock: "19:30",
		},
		{
			name:  "variation attributes",
			meta:  []catalog.MetaEntry{{Key: "Seat", Value: "A1"}},
			attrs: map[string]string{"pa_event-day": "2026-10-20", "pa_size": "L"},
			date:  day(10, 20),
		},
		{
			name:  "datetime value keeps its clock",
			meta:  []catalog.MetaEntry{{Key: "booking_datetime", Value: "2026-10-16 19:00"}},
			date:  day(10, 16),
			clock: "19:00",
		},
		{
			name:  "iso datetime value",
			meta:  []catalog.MetaEntry{{Key: "booking_datetime", Value: "2026-10-16T20:00:00"}},
			date:  day(10, 16),
			clock: "20:00",
		},
		{
			name:  "spelled-out datetime value",
			meta:  []catalog.MetaEntry{{Key: "booking_datetime", Value: "October 16, 2026 8:00 pm"}},
			date:  day(10, 16),
			clock: "20:00",
		},
		{
			name: "nothing found",
			meta: []catalog.MetaEntry{{Key: "Seat", Value: "A1"}},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			date, clock := FromLineItem(catalog.LineItem{ProductID: "1", Quantity: 1, Meta: tc.meta}, tc.attrs)
			assert.Equal(t, tc.date, date)
			assert.Equal(t, tc.clock, clock)
		})
	}
}
