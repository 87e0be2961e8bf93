// internal/ledger/entry.go
package ledger

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/tidwall/gjson"
)

// entryKey is the product id, suffixed with the occurrence key when the
// sale names one.
func entryKey(productID, occurrenceKey string) string {
	if occurrenceKey == "" {
		return productID
	}
	return productID + "_" + occurrenceKey
}

// parseEntry decodes a stored entry. Missing channel counts read as zero;
// a missing or non-numeric quantity, or a non-numeric channel count, makes
// the entry malformed.
func parseEntry(raw json.RawMessage) (Entry, error) {
	doc := gjson.ParseBytes(raw)
	if !doc.IsObject() {
		return Entry{}, fmt.Errorf("%w: not an object", errMalformed)
	}

	q := doc.Get("quantity")
	quantity, ok := count(q)
	if !ok || (q.Type != gjson.Number && q.Type != gjson.String) {
		return Entry{}, fmt.Errorf("%w: quantity missing or not a number", errMalformed)
	}
	e := Entry{
		Name:        doc.Get("name").String(),
		SKU:         doc.Get("sku").String(),
		ProductID:   doc.Get("product_id").String(),
		BookingDate: doc.Get("booking_date").String(),
		Quantity:    quantity,
	}
	for _, c := range []Channel{ChannelLocal, ChannelTicketing, ChannelPOS} {
		v, ok := count(doc.Get(string(c)))
		if !ok {
			return Entry{}, fmt.Errorf("%w: %s count is not a number", errMalformed, c)
		}
		*e.channel(c) = v
	}
	return e, nil
}

// count reads an integer that may have been stored as a number or a
// numeric string. Absent values are zero.
func count(res gjson.Result) (int, bool) {
	switch res.Type {
	case gjson.Null:
		return 0, true
	case gjson.Number:
		return int(res.Int()), true
	case gjson.String:
		v, err := strconv.Atoi(res.Str)
		return v, err == nil
	}
	return 0, false
}
