// internal/catalog/wire.go
package catalog

import (
	"encoding/json"

	"github.com/tidwall/gjson"
)

// looseString accepts a JSON string, number or structure. Numeric zero,
// which the catalog uses for "no variation", becomes empty.
type looseString string

func (s *looseString) UnmarshalJSON(b []byte) error {
	res := gjson.ParseBytes(b)
	switch res.Type {
	case gjson.Null:
		*s = ""
	case gjson.Number:
		if res.Raw == "0" {
			*s = ""
		} else {
			*s = looseString(res.Raw)
		}
	default:
		*s = looseString(res.String())
	}
	return nil
}

// UnmarshalJSON takes the catalog's order webhook payload, which carries
// numeric ids.
func (o *Order) UnmarshalJSON(b []byte) error {
	type alias Order
	var raw struct {
		alias
		ID looseString `json:"id"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*o = Order(raw.alias)
	o.ID = string(raw.ID)
	return nil
}

func (li *LineItem) UnmarshalJSON(b []byte) error {
	type alias LineItem
	var raw struct {
		alias
		ProductID   looseString `json:"product_id"`
		VariationID looseString `json:"variation_id"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*li = LineItem(raw.alias)
	li.ProductID = string(raw.ProductID)
	li.VariationID = string(raw.VariationID)
	return nil
}

func (m *MetaEntry) UnmarshalJSON(b []byte) error {
	var raw struct {
		Key   string      `json:"key"`
		Value looseString `json:"value"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	m.Key, m.Value = raw.Key, string(raw.Value)
	return nil
}
