// internal/occurrence/metadata.go
package occurrence

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"ticketsync/internal/catalog"
)

// inventoryFields are read in this order from a slot object.
var inventoryFields = []string{"inventory", "stock", "quantity"}

// listInventoryFields is the order used by slot lists.
var listInventoryFields = []string{"stock", "inventory", "quantity"}

// metaDoc returns the raw JSON stored under key. Values saved as a JSON
// string holding an object or array are unwrapped and reported as such.
func metaDoc(p *catalog.Product, key string) (raw string, wrapped bool) {
	stored, ok := p.Meta[key]
	if !ok {
		return "", false
	}
	res := gjson.ParseBytes(stored)
	if res.Type == gjson.String {
		if inner := gjson.Parse(res.Str); inner.IsObject() || inner.IsArray() {
			return res.Str, true
		}
	}
	return res.Raw, false
}

// nonEmpty mirrors the loose "has data" check used by the catalog
// plugins: missing, null, false, "", 0, {} and [] all count as empty.
func nonEmpty(res gjson.Result) bool {
	switch res.Type {
	case gjson.Null:
		return false
	case gjson.False:
		return false
	case gjson.String:
		return res.Str != "" && res.Str != "0"
	case gjson.Number:
		return res.Num != 0
	case gjson.JSON:
		empty := true
		res.ForEach(func(_, _ gjson.Result) bool {
			empty = false
			return false
		})
		return !empty
	}
	return res.Exists()
}

func intOrNil(res gjson.Result) *int {
	if !res.Exists() || res.Type == gjson.Null {
		return nil
	}
	v := int(res.Int())
	return &v
}

// firstField returns the first of fields present on obj.
func firstField(obj gjson.Result, fields []string) (string, bool) {
	for _, f := range fields {
		if obj.Get(escapeKey(f)).Exists() {
			return f, true
		}
	}
	return "", false
}

func copyInt(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

// escapeKey makes a literal object key safe to use as a gjson path
// component.
func escapeKey(key string) string {
	var b strings.Builder
	for _, r := range key {
		switch r {
		case '.', '*', '?', '|', '#', '@', '!', '=', '<', '>', '%', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func joinPath(parts ...string) string {
	escaped := make([]string, 0, len(parts))
	for _, p := range parts {
		escaped = append(escaped, escapeKey(p))
	}
	return strings.Join(escaped, ".")
}

// setNumber writes value at parent.field inside raw. Other members keep
// their bytes; a missing field is appended to the parent object.
func setNumber(raw string, parent []string, field string, value int) (string, error) {
	obj := gjson.Parse(raw)
	if len(parent) > 0 {
		obj = gjson.Get(raw, joinPath(parent...))
	}
	if !obj.IsObject() {
		return "", fmt.Errorf("set %s: parent is not an object", field)
	}
	path := joinPath(append(append([]string{}, parent...), field)...)
	return sjson.Set(raw, path, value)
}
