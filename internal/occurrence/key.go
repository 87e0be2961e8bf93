// internal/occurrence/key.go
package occurrence

import (
	"fmt"
	"strings"

	"cloud.google.com/go/civil"
)

// Key derives the OccurrenceKey for a date and optional HH:MM time. Every
// mapping and ledger key is built here and nowhere else.
func Key(date civil.Date, clock string) string {
	if clock == "" {
		return date.String()
	}
	return date.String() + "_" + clock
}

// SplitKey is the inverse of Key.
func SplitKey(key string) (civil.Date, string, error) {
	datePart, clock, _ := strings.Cut(key, "_")
	date, err := civil.ParseDate(datePart)
	if err != nil {
		return civil.Date{}, "", fmt.Errorf("occurrence key %q: %w", key, err)
	}
	return date, clock, nil
}
