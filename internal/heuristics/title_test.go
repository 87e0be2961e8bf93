package heuristics

import (
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestExtractDay(t *testing.T) {
	cases := []struct {
		title string
		day   time.Weekday
		found bool
	}{
		{"Friday Improv 8pm", time.Friday, true},
		{"SATURDAY NIGHT LIVE-ISH", time.Saturday, true},
		{"Sunday Funday at 10", time.Sunday, true},
		{"Monday and Friday Jam", time.Monday, true},
		{"Friday and Sunday Jam", time.Sunday, true},
		{"Open Mic Night", 0, false},
		{"", 0, false},
		// substring match, no word boundary
		{"Mondayitis Comedy", time.Monday, true},
	}

	for _, tc := range cases {
		t.Run(tc.title, func(t *testing.T) {
			day, ok := ExtractDay(tc.title)
			assert.Equal(t, tc.found, ok)
			if tc.found {
				assert.Equal(t, tc.day, day)
			}
		})
	}
}

func TestExtractTime(t *testing.T) {
	cases := []struct {
		title string
		want  string
		found bool
	}{
		{"Friday Improv 8pm", "20:00", true},
		{"Friday Improv 8:00pm", "20:00", true},
		{"Friday Improv 8 PM", "20:00", true},
		{"Late Show 10:30 pm", "22:30", true},
		{"Brunch 11am", "11:00", true},
		{"Midnight Madness 12am", "00:00", true},
		{"Noon Special 12pm", "12:00", true},
		{"Showcase 20:00", "20:00", true},
		{"Showcase 8.00", "08:00", true},
		{"Matinee 2 o'clock", "02:00", true},
		{"Matinee 3 oclock", "03:00", true},
		{"Sunday Funday at 10", "", false},
		{"Open Mic Night", "", false},
	}

	for _, tc := range cases {
		t.Run(tc.title, func(t *testing.T) {
			got, ok := ExtractTime(tc.title)
			assert.Equal(t, tc.found, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestUpcomingDatesForDay(t *testing.T) {
	// 2026-10-12 is a Monday.
	monday := time.Date(2026, time.October, 12, 15, 4, 0, 0, time.UTC)

	t.Run("single date on the same weekday is today", func(t *testing.T) {
		dates := UpcomingDatesForDay(time.Monday, 1, monday)
		assert.Equal(t, []civil.Date{{Year: 2026, Month: time.October, Day: 12}}, dates)
	})

	t.Run("several dates on the same weekday start next week", func(t *testing.T) {
		dates := UpcomingDatesForDay(time.Monday, 3, monday)
		assert.Equal(t, []civil.Date{
			{Year: 2026, Month: time.October, Day: 19},
			{Year: 2026, Month: time.October, Day: 26},
			{Year: 2026, Month: time.November, Day: 2},
		}, dates)
	})

	t.Run("other weekday starts at its next occurrence", func(t *testing.T) {
		dates := UpcomingDatesForDay(time.Friday, DefaultUpcomingCount, monday)
		require.Len(t, dates, DefaultUpcomingCount)
		assert.Equal(t, civil.Date{Year: 2026, Month: time.October, Day: 16}, dates[0])
		assert.Equal(t, civil.Date{Year: 2026, Month: time.December, Day: 4}, dates[7])
	})

	t.Run("zero count", func(t *testing.T) {
		assert.Empty(t, UpcomingDatesForDay(time.Friday, 0, monday))
	})
}

func TestUpcomingDatesForDayProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		base := time.Date(2026, time.January, 1, 12, 0, 0, 0, time.UTC)
		now := base.AddDate(0, 0, rapid.IntRange(0, 730).Draw(t, "offset"))
		day := time.Weekday(rapid.IntRange(0, 6).Draw(t, "day"))
		count := rapid.IntRange(1, 12).Draw(t, "count")

		dates := UpcomingDatesForDay(day, count, now)
		today := civil.DateOf(now)

		if len(dates) != count {
			t.Fatalf("got %d dates, want %d", len(dates), count)
		}
		for i, d := range dates {
			if d.In(time.UTC).Weekday() != day {
				t.Fatalf("date %s is not a %s", d, day)
			}
			if i > 0 && d.DaysSince(dates[i-1]) != 7 {
				t.Fatalf("dates %s and %s are not a week apart", dates[i-1], d)
			}
		}
		if count > 1 && dates[0] == today {
			t.Fatalf("multi-date list must not start today")
		}
		if gap := dates[0].DaysSince(today); gap < 0 || gap > 7 {
			t.Fatalf("first date %s is %d days from today", dates[0], gap)
		}
	})
}
