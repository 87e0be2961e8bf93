// internal/heuristics/title.go
package heuristics

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

// DefaultUpcomingCount is how many weekly dates are generated for a title
// that names a weekday.
const DefaultUpcomingCount = 8

var weekdayNames = []struct {
	name string
	day  time.Weekday
}{
	{"sunday", time.Sunday},
	{"monday", time.Monday},
	{"tuesday", time.Tuesday},
	{"wednesday", time.Wednesday},
	{"thursday", time.Thursday},
	{"friday", time.Friday},
	{"saturday", time.Saturday},
}

// Tried in order; the first pattern that matches decides the time.
var titleTimePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(\d{1,2})[ :]?([0-5][0-9])?\s*(am|pm)`),
	regexp.MustCompile(`(\d{1,2})[:.](\d{2})`),
	regexp.MustCompile(`(?i)(\d{1,2})\s*o'?clock`),
}

// ExtractDay finds the first weekday name contained in title.
//
// The search is a plain substring match, so "Mondayitis" reports Monday.
func ExtractDay(title string) (time.Weekday, bool) {
	lower := strings.ToLower(title)
	for _, wd := range weekdayNames {
		if strings.Contains(lower, wd.name) {
			return wd.day, true
		}
	}
	return time.Sunday, false
}

// ParseWeekday maps an English weekday name to time.Weekday.
func ParseWeekday(name string) (time.Weekday, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, wd := range weekdayNames {
		if wd.name == name {
			return wd.day, true
		}
	}
	return time.Sunday, false
}

// ExtractTime returns the show time encoded in title as 24-hour HH:MM.
func ExtractTime(title string) (string, bool) {
	for _, pattern := range titleTimePatterns {
		m := pattern.FindStringSubmatch(title)
		if m == nil {
			continue
		}
		hour, _ := strconv.Atoi(m[1])
		minute := 0
		if len(m) > 2 && m[2] != "" {
			minute, _ = strconv.Atoi(m[2])
		}
		if len(m) > 3 {
			hour = applyMeridiem(hour, m[3])
		}
		return formatClock(hour, minute), true
	}
	return "", false
}

// UpcomingDatesForDay lists the next count dates falling on day, counted
// from now's calendar date. When today is that weekday a single requested
// date is today; longer lists start one week out.
func UpcomingDatesForDay(day time.Weekday, count int, now time.Time) []civil.Date {
	if count <= 0 {
		return nil
	}
	today := civil.DateOf(now)
	ahead := (int(day) - int(now.Weekday()) + 7) % 7
	if ahead == 0 {
		if count == 1 {
			return []civil.Date{today}
		}
		ahead = 7
	}

	dates := make([]civil.Date, 0, count)
	next := today.AddDays(ahead)
	for i := 0; i < count; i++ {
		dates = append(dates, next)
		next = next.AddDays(7)
	}
	return dates
}

func applyMeridiem(hour int, meridiem string) int {
	switch strings.ToLower(meridiem) {
	case "pm", "p.m.":
		if hour < 12 {
			return hour + 12
		}
	case "am", "a.m.":
		if hour == 12 {
			return 0
		}
	}
	return hour
}

func formatClock(hour, minute int) string {
	return fmt.Sprintf("%02d:%02d", hour, minute)
}
