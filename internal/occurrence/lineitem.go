// internal/occurrence/lineitem.go
package occurrence

import (
	"regexp"
	"strings"

	"cloud.google.com/go/civil"

	"ticketsync/internal/catalog"
	"ticketsync/internal/heuristics"
)

// Line item metadata keys, tried in order.
var (
	eventPluginDateKeys = []string{
		"WooCommerceEventsDate",
		"WooCommerceEventsTicketDate",
		"WooCommerceEventsProductDate",
		"_event_date",
		"_event_start_date",
		"fooevents_date",
		"fooevents_ticket_date",
	}
	itemDateKeys = []string{
		"event_date",
		"ticket_date",
		"booking_date",
		"pa_date",
		"date",
		"_event_date",
		"_booking_date",
		"Event Date",
		"Ticket Date",
		"Show Date",
		"Performance Date",
	}
	itemTimeKeys = []string{
		"event_time",
		"ticket_time",
		"booking_time",
		"pa_time",
		"time",
		"_event_time",
		"_booking_time",
		"Event Time",
		"Ticket Time",
		"Show Time",
		"Performance Time",
	}

	dateLikeKey      = regexp.MustCompile(`(?i)(date|day|event|show|performance|time)`)
	dateLikeAttr     = regexp.MustCompile(`(?i)(date|day|event|show|performance)`)
	timeLikeFragment = []string{"time", "hour", "clock"}
)

// FromLineItem finds which occurrence an order line item was sold for.
// Known keys are tried first, then any date-like key in stored order, then
// the attributes of the purchased variation. A zero date means none was
// found.
func FromLineItem(item catalog.LineItem, variationAttrs map[string]string) (civil.Date, string) {
	return lineItemDate(item, variationAttrs), lineItemTime(item)
}

func lineItemDate(item catalog.LineItem, variationAttrs map[string]string) civil.Date {
	for _, keys := range [][]string{eventPluginDateKeys, itemDateKeys} {
		for _, key := range keys {
			if d, ok := heuristics.ParseDateValue(item.MetaValue(key)); ok {
				return d
			}
		}
	}
	for _, m := range item.Meta {
		if !dateLikeKey.MatchString(m.Key) {
			continue
		}
		if d, ok := heuristics.ParseDateValue(m.Value); ok {
			return d
		}
	}
	for _, name := range sortedKeys(variationAttrs) {
		if !dateLikeAttr.MatchString(name) {
			continue
		}
		if d, ok := heuristics.ParseDateValue(variationAttrs[name]); ok {
			return d
		}
	}
	return civil.Date{}
}

func lineItemTime(item catalog.LineItem) string {
	for _, key := range itemTimeKeys {
		if clock, ok := heuristics.ParseTimeValue(item.MetaValue(key)); ok {
			return clock
		}
	}
	for _, m := range item.Meta {
		lower := strings.ToLower(m.Key)
		for _, fragment := range timeLikeFragment {
			if !strings.Contains(lower, fragment) {
				continue
			}
			if clock, ok := heuristics.ParseTimeValue(m.Value); ok {
				return clock
			}
			break
		}
	}
	return ""
}
