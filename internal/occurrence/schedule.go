// internal/occurrence/schedule.go
package occurrence

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tidwall/gjson"

	"ticketsync/internal/catalog"
	"ticketsync/internal/heuristics"
)

// Event plugin metadata keys.
const (
	metaBookingOptions    = "fooevents_bookings_options_serialized"
	metaEventDate         = "fooevents_event_date"
	metaEventTime         = "fooevents_event_time"
	metaEventDates        = "fooevents_event_dates"
	metaEventTimes        = "fooevents_event_times"
	metaEventDatesEncoded = "fooevents_event_dates_serialized"
	metaEventTimesEncoded = "fooevents_event_times_serialized"
	metaDaySlots          = "fooevents_event_day_slots"
)

// scheduleOccurrences reads the explicit per-date schedule. Booking
// sessions win outright; otherwise the single, multi-day and day-slot
// shapes are combined.
func scheduleOccurrences(p *catalog.Product) []Occurrence {
	if out := bookingSessions(p); len(out) > 0 {
		return out
	}

	var out []Occurrence
	out = append(out, singleDate(p)...)
	out = append(out, multiDate(p)...)
	out = append(out, encodedDates(p)...)
	out = append(out, daySlots(p)...)
	return out
}

// bookingSessions handles two layouts of the bookings options: sessions
// with a nested add_date map, and sessions with flat *_add_date keys whose
// stock sits under the matching *_stock key.
func bookingSessions(p *catalog.Product) []Occurrence {
	options := p.MetaValue(metaBookingOptions)
	if !options.IsObject() && !options.IsArray() {
		return nil
	}

	var out []Occurrence
	options.ForEach(func(_, session gjson.Result) bool {
		clock := sessionClock(session)

		if slots := session.Get("add_date"); slots.IsObject() || slots.IsArray() {
			slots.ForEach(func(_, slot gjson.Result) bool {
				if date, ok := heuristics.ParseDateValue(slot.Get("date").String()); ok {
					out = append(out, Occurrence{
						Date:       date,
						Time:       clock,
						Inventory:  stockOr(slot.Get("stock"), p.StockQuantity),
						Provenance: FromSchedule,
					})
				}
				return true
			})
			return true
		}

		session.ForEach(func(key, value gjson.Result) bool {
			if !strings.Contains(key.Str, "_add_date") || !nonEmpty(value) {
				return true
			}
			date, ok := heuristics.ParseDateValue(value.String())
			if !ok {
				return true
			}
			stockKey := strings.ReplaceAll(key.Str, "_add_date", "_stock")
			out = append(out, Occurrence{
				Date:       date,
				Time:       clock,
				Inventory:  stockOr(session.Get(escapeKey(stockKey)), p.StockQuantity),
				Provenance: FromSchedule,
			})
			return true
		})
		return true
	})

	sortChronologically(out)
	return out
}

// sessionClock is the session start when add_time is enabled.
func sessionClock(session gjson.Result) string {
	if session.Get("add_time").String() != "enabled" {
		return ""
	}
	hourRes, minuteRes := session.Get("hour"), session.Get("minute")
	if !hourRes.Exists() || !minuteRes.Exists() {
		return ""
	}
	hour, minute := int(hourRes.Int()), int(minuteRes.Int())
	switch strings.ToLower(session.Get("period").String()) {
	case "p.m.":
		if hour < 12 {
			hour += 12
		}
	case "a.m.":
		if hour == 12 {
			hour = 0
		}
	}
	return fmt.Sprintf("%02d:%02d", hour%24, minute)
}

func stockOr(res gjson.Result, fallback *int) *int {
	if res.Exists() && res.Type != gjson.Null {
		v := int(res.Int())
		return &v
	}
	return copyInt(fallback)
}

func singleDate(p *catalog.Product) []Occurrence {
	date, ok := heuristics.ParseDateValue(p.MetaValue(metaEventDate).String())
	if !ok {
		return nil
	}
	clock, _ := heuristics.ParseTimeValue(p.MetaValue(metaEventTime).String())
	return []Occurrence{{
		Date:       date,
		Time:       clock,
		Inventory:  copyInt(p.StockQuantity),
		Provenance: FromSchedule,
	}}
}

// multiDate reads a date list with an optional date-keyed time map. All
// dates share the product stock.
func multiDate(p *catalog.Product) []Occurrence {
	dates := p.MetaValue(metaEventDates)
	if !dates.IsArray() && !dates.IsObject() {
		return nil
	}
	times := p.MetaValue(metaEventTimes)

	var out []Occurrence
	dates.ForEach(func(_, value gjson.Result) bool {
		date, ok := heuristics.ParseDateValue(value.String())
		if !ok {
			return true
		}
		clock, _ := heuristics.ParseTimeValue(times.Get(escapeKey(date.String())).String())
		out = append(out, Occurrence{
			Date:       date,
			Time:       clock,
			Inventory:  copyInt(p.StockQuantity),
			Provenance: FromSchedule,
		})
		return true
	})
	return out
}

// encodedDates reads the index-aligned date and time lists.
func encodedDates(p *catalog.Product) []Occurrence {
	dates := p.MetaValue(metaEventDatesEncoded)
	if !dates.IsArray() && !dates.IsObject() {
		return nil
	}
	times := p.MetaValue(metaEventTimesEncoded)

	var out []Occurrence
	dates.ForEach(func(index, value gjson.Result) bool {
		date, ok := heuristics.ParseDateValue(value.String())
		if !ok {
			return true
		}
		var clock string
		if index.Exists() {
			clock, _ = heuristics.ParseTimeValue(times.Get(escapeKey(index.String())).String())
		}
		out = append(out, Occurrence{
			Date:       date,
			Time:       clock,
			Inventory:  copyInt(p.StockQuantity),
			Provenance: FromSchedule,
		})
		return true
	})
	return out
}

// daySlots reads date-keyed slots. A slot with a times map yields one
// occurrence per session.
func daySlots(p *catalog.Product) []Occurrence {
	slots := p.MetaValue(metaDaySlots)
	if !slots.IsObject() {
		return nil
	}

	var out []Occurrence
	slots.ForEach(func(key, slot gjson.Result) bool {
		date, ok := heuristics.ParseDateValue(key.String())
		if !ok {
			return true
		}
		if times := slot.Get("times"); times.IsObject() && nonEmpty(times) {
			times.ForEach(func(at, session gjson.Result) bool {
				clock, ok := heuristics.ParseTimeValue(at.String())
				if !ok {
					return true
				}
				out = append(out, Occurrence{
					Date:       date,
					Time:       clock,
					Inventory:  intOrNil(session.Get("stock")),
					Provenance: FromSchedule,
				})
				return true
			})
			return true
		}
		clock, _ := heuristics.ParseTimeValue(slot.Get("time").String())
		out = append(out, Occurrence{
			Date:       date,
			Time:       clock,
			Inventory:  intOrNil(slot.Get("stock")),
			Provenance: FromSchedule,
		})
		return true
	})
	return out
}

func sortChronologically(out []Occurrence) {
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].Time < out[j].Time
	})
}
