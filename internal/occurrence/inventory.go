// internal/occurrence/inventory.go
package occurrence

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/tidwall/gjson"

	"ticketsync/internal/catalog"
	"ticketsync/internal/heuristics"
)

var ErrNoInventory = errors.New("no stored inventory for occurrence")

// Patch is the catalog write that sets an occurrence's inventory. Either
// MetaKey and Meta are set, or Stock applies to ProductID.
type Patch struct {
	ProductID string
	MetaKey   string
	Meta      json.RawMessage
	Stock     int
}

// location is where an occurrence's inventory lives.
type location struct {
	value *int

	metaKey string
	parent  []string
	field   string

	stockProductID string
}

// InventoryFor returns the stored inventory of one occurrence. found is
// false when the product keeps no per-occurrence figure for it.
func InventoryFor(p *catalog.Product, date civil.Date, clock string, tolerance time.Duration) (inventory *int, found bool) {
	loc, ok := locate(p, date, clock, tolerance)
	if !ok {
		return nil, false
	}
	return copyInt(loc.value), true
}

// SetInventory builds the catalog write that stores quantity as the
// occurrence's inventory. It looks in the same places InventoryFor reads.
func SetInventory(p *catalog.Product, date civil.Date, clock string, quantity int, tolerance time.Duration) (Patch, error) {
	loc, ok := locate(p, date, clock, tolerance)
	if !ok {
		return Patch{}, fmt.Errorf("product %s occurrence %s: %w", p.ID, Key(date, clock), ErrNoInventory)
	}
	if loc.stockProductID != "" {
		return Patch{ProductID: loc.stockProductID, Stock: quantity}, nil
	}

	raw, wrapped := metaDoc(p, loc.metaKey)
	updated, err := setNumber(raw, loc.parent, loc.field, quantity)
	if err != nil {
		return Patch{}, fmt.Errorf("patch %s: %w", loc.metaKey, err)
	}
	value := json.RawMessage(updated)
	if wrapped {
		encoded, err := json.Marshal(updated)
		if err != nil {
			return Patch{}, err
		}
		value = encoded
	}
	return Patch{ProductID: p.ID, MetaKey: loc.metaKey, Meta: value}, nil
}

func locate(p *catalog.Product, date civil.Date, clock string, tolerance time.Duration) (location, bool) {
	if loc, ok := locateDaySlot(p, date, clock, tolerance); ok {
		return loc, true
	}
	if d, ok := heuristics.ParseDateValue(p.MetaValue(metaEventDate).String()); ok && d == date {
		return location{value: p.StockQuantity, stockProductID: p.ID}, true
	}
	for _, key := range inventoryMetaKeys {
		if loc, ok := locateSlot(p, key, date, clock, tolerance); ok {
			return loc, true
		}
	}
	return locateVariation(p, date, clock, tolerance)
}

// locateDaySlot prefers a session within tolerance, then the date's own
// stock.
func locateDaySlot(p *catalog.Product, date civil.Date, clock string, tolerance time.Duration) (location, bool) {
	slots := p.MetaValue(metaDaySlots)
	if !slots.IsObject() {
		return location{}, false
	}
	dateKey := date.String()
	slot := slots.Get(escapeKey(dateKey))
	if !slot.Exists() {
		return location{}, false
	}

	if clock != "" {
		var (
			match location
			found bool
		)
		slot.Get("times").ForEach(func(at, session gjson.Result) bool {
			if heuristics.TimeClose(at.String(), clock, tolerance) {
				match = location{
					value:   intOrNil(session.Get("stock")),
					metaKey: metaDaySlots,
					parent:  []string{dateKey, "times", at.String()},
					field:   "stock",
				}
				found = true
				return false
			}
			return true
		})
		if found {
			return match, true
		}
	}

	return location{
		value:   intOrNil(slot.Get("stock")),
		metaKey: metaDaySlots,
		parent:  []string{dateKey},
		field:   "stock",
	}, true
}

// locateSlot handles the keyed layout (date or date_time keys) and the
// list layout of {date, time, stock} entries under one metadata key.
func locateSlot(p *catalog.Product, key string, date civil.Date, clock string, tolerance time.Duration) (location, bool) {
	slots := p.MetaValue(key)
	if !nonEmpty(slots) || (!slots.IsObject() && !slots.IsArray()) {
		return location{}, false
	}

	if slots.IsObject() {
		exact := Key(date, clock)
		if slot := slots.Get(escapeKey(exact)); slot.Exists() {
			if field, ok := firstField(slot, inventoryFields); ok {
				return location{
					value:   intOrNil(slot.Get(field)),
					metaKey: key,
					parent:  []string{exact},
					field:   field,
				}, true
			}
		} else if slot := slots.Get(escapeKey(date.String())); slot.Exists() {
			slotTime := slot.Get("time")
			timeOK := clock == "" ||
				(slotTime.Exists() && heuristics.TimeClose(slotTime.String(), clock, tolerance))
			if timeOK {
				if field, ok := firstField(slot, inventoryFields); ok {
					return location{
						value:   intOrNil(slot.Get(field)),
						metaKey: key,
						parent:  []string{date.String()},
						field:   field,
					}, true
				}
			}
		}
	}

	var (
		match location
		found bool
	)
	slots.ForEach(func(index, slot gjson.Result) bool {
		if !slot.IsObject() {
			return true
		}
		d, ok := heuristics.ParseDateValue(slot.Get("date").String())
		if !ok || d != date {
			return true
		}
		if clock != "" {
			t := slot.Get("time")
			if !t.Exists() || !heuristics.TimeClose(t.String(), clock, tolerance) {
				return true
			}
		}
		field, ok := firstField(slot, listInventoryFields)
		if !ok {
			return true
		}
		match = location{
			value:   intOrNil(slot.Get(field)),
			metaKey: key,
			parent:  []string{index.String()},
			field:   field,
		}
		found = true
		return false
	})
	return match, found
}

func locateVariation(p *catalog.Product, date civil.Date, clock string, tolerance time.Duration) (location, bool) {
	for _, v := range p.Variations {
		d, vClock, ok := variationOccurrence(v)
		if !ok || d != date {
			continue
		}
		if clock != "" && hasTimeAttribute(v) && !heuristics.TimeClose(vClock, clock, tolerance) {
			continue
		}
		return location{value: v.StockQuantity, stockProductID: v.ID}, true
	}
	return location{}, false
}

func hasTimeAttribute(v catalog.Variation) bool {
	for _, name := range sortedKeys(v.Attributes) {
		if isTimeAttribute(name) {
			return true
		}
	}
	return false
}
