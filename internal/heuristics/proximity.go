// internal/heuristics/proximity.go
package heuristics

import (
	"strconv"
	"strings"
	"time"
)

// DefaultTolerance is the window within which two show times are treated
// as the same session.
const DefaultTolerance = 30 * time.Minute

// TimeClose reports whether two HH:MM values lie within tolerance of each
// other. A missing or unreadable value is never close to anything.
func TimeClose(a, b string, tolerance time.Duration) bool {
	ma, ok := minutesOfDay(a)
	if !ok {
		return false
	}
	mb, ok := minutesOfDay(b)
	if !ok {
		return false
	}
	diff := ma - mb
	if diff < 0 {
		diff = -diff
	}
	return time.Duration(diff)*time.Minute <= tolerance
}

func minutesOfDay(clock string) (int, bool) {
	hh, mm, found := strings.Cut(strings.TrimSpace(clock), ":")
	if !found {
		return 0, false
	}
	hour, err := strconv.Atoi(hh)
	if err != nil {
		return 0, false
	}
	minute, err := strconv.Atoi(mm)
	if err != nil {
		return 0, false
	}
	return hour*60 + minute, true
}
