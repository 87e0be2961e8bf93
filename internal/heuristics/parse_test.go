package heuristics

import (
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
)

func TestTimeClose(t *testing.T) {
	assert.True(t, TimeClose("20:00", "20:00", DefaultTolerance))
	assert.True(t, TimeClose("20:00", "20:30", DefaultTolerance))
	assert.True(t, TimeClose("19:30", "20:00", DefaultTolerance))
	assert.False(t, TimeClose("20:00", "20:31", DefaultTolerance))
	assert.True(t, TimeClose("20:00", "20:45", time.Hour))
	assert.False(t, TimeClose("", "20:00", DefaultTolerance))
	assert.False(t, TimeClose("20:00", "", DefaultTolerance))
	assert.False(t, TimeClose("8pm", "20:00", DefaultTolerance))
}

func TestParseTimeValue(t *testing.T) {
	cases := map[string]string{
		"20:00":    "20:00",
		"8:05":     "08:05",
		"8:00 PM":  "20:00",
		"8 pm":     "20:00",
		"8.30pm":   "20:30",
		"12 AM":    "00:00",
		"0930":     "09:30",
		"19:00:00": "19:00",

		"2026-10-16 19:00":          "19:00",
		"2026-10-16T20:00:00":       "20:00",
		"2026-10-16T20:00:00-04:00": "20:00",
		"October 16, 2026 8:00 pm":  "20:00",
		"Oct 16, 2026 7:30 PM":      "19:30",
		"2026/10/16 19:00":          "19:00",
	}
	for in, want := range cases {
		got, ok := ParseTimeValue(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}

	_, ok := ParseTimeValue("")
	assert.False(t, ok)
	for _, bad := range []string{"evening", "25:00", "12:75", "2026-10-16", "20"} {
		_, ok = ParseTimeValue(bad)
		assert.False(t, ok, bad)
	}
}

func TestParseDateTimeValue(t *testing.T) {
	got, ok := ParseDateTimeValue("October 16, 2026 8:00 pm")
	assert.True(t, ok)
	assert.Equal(t, civil.DateTime{
		Date: civil.Date{Year: 2026, Month: time.October, Day: 16},
		Time: civil.Time{Hour: 20},
	}, got)

	_, ok = ParseDateTimeValue("2026-10-16")
	assert.False(t, ok)
	_, ok = ParseDateTimeValue("Comedy Night")
	assert.False(t, ok)
}

func TestParseDateValue(t *testing.T) {
	cases := []struct {
		in   string
		want civil.Date
	}{
		{"2026-10-16", civil.Date{Year: 2026, Month: time.October, Day: 16}},
		{"10/16/2026", civil.Date{Year: 2026, Month: time.October, Day: 16}},
		{"16/10/2026", civil.Date{Year: 2026, Month: time.October, Day: 16}},
		{"03/04/26", civil.Date{Year: 2026, Month: time.March, Day: 4}},
		{"16.10.2026", civil.Date{Year: 2026, Month: time.October, Day: 16}},
		{"October 16, 2026", civil.Date{Year: 2026, Month: time.October, Day: 16}},
		{"16 Oct 2026", civil.Date{Year: 2026, Month: time.October, Day: 16}},
		{"2026-10-16 20:00", civil.Date{Year: 2026, Month: time.October, Day: 16}},
		{"2026-10-16T20:00:00", civil.Date{Year: 2026, Month: time.October, Day: 16}},
		{"October 16, 2026 8:00 pm", civil.Date{Year: 2026, Month: time.October, Day: 16}},
		{"2026/10/16 19:00", civil.Date{Year: 2026, Month: time.October, Day: 16}},
	}
	for _, tc := range cases {
		got, ok := ParseDateValue(tc.in)
		assert.True(t, ok, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}

	for _, bad := range []string{"", "tomorrow", "13/13/2026", "2026-13-45", "31.02.2026"} {
		_, ok := ParseDateValue(bad)
		assert.False(t, ok, bad)
	}
}
