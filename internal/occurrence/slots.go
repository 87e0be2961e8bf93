// internal/occurrence/slots.go
package occurrence

import (
	"fmt"
	"sort"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/tidwall/gjson"

	"ticketsync/internal/catalog"
	"ticketsync/internal/heuristics"
)

const (
	metaBookingSlots        = "_booking_slots"
	metaBookingAvailability = "_wc_booking_availability"
	metaProductSlots        = "_product_booking_slots"
)

// slotListKeys are checked in order when the product slot list is empty.
var slotListKeys = []string{"_wc_slots", "_event_slots", "_bookings", "_event_dates"}

// inventoryMetaKeys hold per-date inventory that sync reads and writes.
var inventoryMetaKeys = []string{
	metaBookingSlots,
	metaProductSlots,
	"_wc_slots",
	"_event_slots",
	"_bookings",
	"_event_dates",
}

// bookingSlotOccurrences tries each booking slot layout in turn and
// returns the first that yields data.
func bookingSlotOccurrences(p *catalog.Product) []Occurrence {
	for _, shape := range []func(*catalog.Product) []Occurrence{
		slotMap,
		availabilityRanges,
		slotList,
		variationSlots,
	} {
		if out := shape(p); len(out) > 0 {
			return out
		}
	}
	return nil
}

// slotMap reads date -> {time, inventory}.
func slotMap(p *catalog.Product) []Occurrence {
	slots := p.MetaValue(metaBookingSlots)
	if !slots.IsObject() {
		return nil
	}
	var out []Occurrence
	slots.ForEach(func(key, slot gjson.Result) bool {
		date, ok := heuristics.ParseDateValue(key.String())
		if !ok {
			return true
		}
		clock, _ := heuristics.ParseTimeValue(slot.Get("time").String())
		out = append(out, Occurrence{
			Date:       date,
			Time:       clock,
			Inventory:  intOrNil(slot.Get("inventory")),
			Provenance: FromBookingSlots,
		})
		return true
	})
	return out
}

// availabilityRanges expands each from/to range one day at a time, the end
// date excluded.
func availabilityRanges(p *catalog.Product) []Occurrence {
	ranges := p.MetaValue(metaBookingAvailability)
	if !ranges.IsArray() && !ranges.IsObject() {
		return nil
	}
	var out []Occurrence
	ranges.ForEach(func(_, r gjson.Result) bool {
		if !r.Get("from").Exists() || !r.Get("to").Exists() {
			return true
		}
		from, okFrom := heuristics.ParseDateValue(r.Get("from").String())
		to, okTo := heuristics.ParseDateValue(r.Get("to").String())
		if !okFrom || !okTo {
			return true
		}
		var clock string
		if r.Get("from_time").Exists() && r.Get("to_time").Exists() {
			clock, _ = heuristics.ParseTimeValue(r.Get("from_time").String())
		}
		for d := from; d.Before(to); d = d.AddDays(1) {
			out = append(out, Occurrence{
				Date:       d,
				Time:       clock,
				Inventory:  intOrNil(r.Get("qty")),
				Provenance: FromBookingSlots,
			})
		}
		return true
	})
	return out
}

// slotList reads a list of {date, time|hour+minute, stock|inventory|quantity}.
func slotList(p *catalog.Product) []Occurrence {
	list := p.MetaValue(metaProductSlots)
	if !nonEmpty(list) {
		for _, key := range slotListKeys {
			if candidate := p.MetaValue(key); nonEmpty(candidate) {
				list = candidate
				break
			}
		}
	}
	if !list.IsArray() && !list.IsObject() {
		return nil
	}

	var out []Occurrence
	list.ForEach(func(_, slot gjson.Result) bool {
		date, ok := heuristics.ParseDateValue(slot.Get("date").String())
		if !ok {
			return true
		}
		var clock string
		if t := slot.Get("time"); t.Exists() {
			clock, _ = heuristics.ParseTimeValue(t.String())
		} else if slot.Get("hour").Exists() && slot.Get("minute").Exists() {
			clock = fmt.Sprintf("%02d:%02d", slot.Get("hour").Int(), slot.Get("minute").Int())
		}
		var inventory *int
		if field, ok := firstField(slot, listInventoryFields); ok {
			inventory = intOrNil(slot.Get(field))
		}
		out = append(out, Occurrence{
			Date:       date,
			Time:       clock,
			Inventory:  inventory,
			Provenance: FromBookingSlots,
		})
		return true
	})
	return out
}

// variationSlots treats each variation with a date attribute as an
// occurrence carrying the variation's stock.
func variationSlots(p *catalog.Product) []Occurrence {
	var out []Occurrence
	for _, v := range p.Variations {
		date, clock, ok := variationOccurrence(v)
		if !ok {
			continue
		}
		out = append(out, Occurrence{
			Date:       date,
			Time:       clock,
			Inventory:  copyInt(v.StockQuantity),
			Provenance: FromBookingSlots,
		})
	}
	return out
}

// variationOccurrence reads the date and time attributes of a variation.
// Attribute names containing date or day carry the date; time or hour
// carry the time.
func variationOccurrence(v catalog.Variation) (civil.Date, string, bool) {
	var (
		date  civil.Date
		found bool
		clock string
	)
	for _, name := range sortedKeys(v.Attributes) {
		switch {
		case isDateAttribute(name):
			if d, ok := heuristics.ParseDateValue(v.Attributes[name]); ok {
				date, found = d, true
			}
		case isTimeAttribute(name):
			if c, ok := heuristics.ParseTimeValue(v.Attributes[name]); ok {
				clock = c
			}
		}
	}
	return date, clock, found
}

func isDateAttribute(name string) bool {
	lower := strings.ToLower(name)
	return strings.Contains(lower, "date") || strings.Contains(lower, "day")
}

func isTimeAttribute(name string) bool {
	lower := strings.ToLower(name)
	return !isDateAttribute(name) && (strings.Contains(lower, "time") || strings.Contains(lower, "hour"))
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
