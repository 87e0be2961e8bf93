// internal/heuristics/parse.go
package heuristics

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/araddon/dateparse"
)

var (
	clockPattern     = regexp.MustCompile(`^\d{1,2}:\d{2}$`)
	loosePattern     = regexp.MustCompile(`(?i)^(\d{1,2})[:.]?(\d{2})?(?::\d{2})?\s*(am|pm)?$`)
	clockHint        = regexp.MustCompile(`(?i)\d:\d{2}|\d\s*[ap]\.?m\b`)
	isoDatePattern   = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	slashDatePattern = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{2,4})$`)
	dotDatePattern   = regexp.MustCompile(`^(\d{1,2})\.(\d{1,2})\.(\d{2,4})$`)
	lettersPattern   = regexp.MustCompile(`[a-zA-Z]+`)
)

var humanDateLayouts = []string{
	"January 2, 2006",
	"January 2 2006",
	"Jan 2, 2006",
	"Jan 2 2006",
	"2 January 2006",
	"2 Jan 2006",
	"Monday, January 2, 2006",
	"Mon, Jan 2, 2006",
}

var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// Matched against the upper-cased value so "pm" and "PM" both parse.
var humanDateTimeLayouts = []string{
	"January 2, 2006 3:04 PM",
	"January 2, 2006 3:04PM",
	"January 2, 2006 3 PM",
	"January 2, 2006 15:04",
	"January 2 2006 3:04 PM",
	"Jan 2, 2006 3:04 PM",
	"Jan 2, 2006 15:04",
	"2 January 2006 15:04",
	"2 Jan 2006 15:04",
	"2 January 2006 3:04 PM",
	"Monday, January 2, 2006 3:04 PM",
	"Mon, Jan 2, 2006 3:04 PM",
}

// ParseTimeValue normalizes a stored time such as "8:00 PM", "8 pm" or
// "20:00" to HH:MM. Full date-time values yield their clock.
func ParseTimeValue(value string) (string, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", false
	}
	if clockPattern.MatchString(value) {
		h, m, _ := strings.Cut(value, ":")
		hour, _ := strconv.Atoi(h)
		minute, _ := strconv.Atoi(m)
		if hour > 23 || minute > 59 {
			return "", false
		}
		return formatClock(hour, minute), true
	}
	if match := loosePattern.FindStringSubmatch(value); match != nil {
		if match[2] == "" && match[3] == "" {
			return "", false
		}
		hour, _ := strconv.Atoi(match[1])
		minute := 0
		if match[2] != "" {
			minute, _ = strconv.Atoi(match[2])
		}
		hour = applyMeridiem(hour, match[3])
		if hour > 23 || minute > 59 {
			return "", false
		}
		return formatClock(hour, minute), true
	}
	if dt, ok := ParseDateTimeValue(value); ok {
		return formatClock(dt.Time.Hour, dt.Time.Minute), true
	}
	return "", false
}

// ParseDateTimeValue reads a value that carries both a date and a clock,
// such as "2026-10-16 19:00" or "October 16, 2026 8:00 pm". The wall clock
// is kept as written; any zone offset is not applied.
func ParseDateTimeValue(value string) (civil.DateTime, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return civil.DateTime{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return civil.DateTimeOf(t), true
		}
	}
	upper := strings.ToUpper(value)
	for _, layout := range humanDateTimeLayouts {
		if t, err := time.Parse(layout, upper); err == nil {
			return civil.DateTimeOf(t), true
		}
	}
	// Without a visible clock the fallback reads bare numbers as years and
	// plain dates as midnight.
	if !clockHint.MatchString(value) {
		return civil.DateTime{}, false
	}
	t, err := dateparse.ParseIn(value, time.UTC)
	if err != nil {
		return civil.DateTime{}, false
	}
	return civil.DateTimeOf(t), true
}

// ParseDateValue reads the date formats found in product metadata and
// order line items: ISO dates, M/D/Y (then D/M/Y), D.M.Y, timestamps and
// spelled-out month names.
func ParseDateValue(value string) (civil.Date, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return civil.Date{}, false
	}

	if isoDatePattern.MatchString(value) {
		d, err := civil.ParseDate(value)
		return d, err == nil
	}

	if m := slashDatePattern.FindStringSubmatch(value); m != nil {
		year := expandYear(m[3])
		if d, ok := exactDate(year, m[1], m[2]); ok {
			return d, true
		}
		if d, ok := exactDate(year, m[2], m[1]); ok {
			return d, true
		}
		return civil.Date{}, false
	}

	if m := dotDatePattern.FindStringSubmatch(value); m != nil {
		return exactDate(expandYear(m[3]), m[2], m[1])
	}

	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return civil.DateOf(t), true
		}
	}

	if lettersPattern.MatchString(value) {
		for _, layout := range humanDateLayouts {
			if t, err := time.Parse(layout, value); err == nil {
				return civil.DateOf(t), true
			}
		}
	}

	if dt, ok := ParseDateTimeValue(value); ok {
		return dt.Date, true
	}
	return civil.Date{}, false
}

func expandYear(y string) int {
	year, _ := strconv.Atoi(y)
	if len(y) == 2 {
		year += 2000
	}
	return year
}

// exactDate rejects values that would roll over, such as month 13.
func exactDate(year int, month, day string) (civil.Date, bool) {
	mo, err := strconv.Atoi(month)
	if err != nil {
		return civil.Date{}, false
	}
	dd, err := strconv.Atoi(day)
	if err != nil {
		return civil.Date{}, false
	}
	d := civil.Date{Year: year, Month: time.Month(mo), Day: dd}
	if !d.IsValid() {
		return civil.Date{}, false
	}
	return d, true
}
