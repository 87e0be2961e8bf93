package matching

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"ticketsync/internal/logging"
	"ticketsync/internal/ticketing"
	"ticketsync/internal/ticketing/ticketingtest"
)

func event(id, name string, start civil.DateTime, classes ...ticketing.TicketClass) ticketing.Event {
	return ticketing.Event{ID: id, Name: name, Start: start, Capacity: 100, TicketClasses: classes}
}

func at(y int, m, d, hh, mm int) civil.DateTime {
	return civil.DateTime{
		Date: civil.Date{Year: y, Month: time.Month(m), Day: d},
		Time: civil.Time{Hour: hh, Minute: mm},
	}
}

func TestSimilarText(t *testing.T) {
	assert.Equal(t, 100.0, SimilarText("friday improv", "friday improv"))
	assert.Equal(t, 0.0, SimilarText("", ""))
	assert.Equal(t, 0.0, SimilarText("abc", "xyz"))
	assert.InDelta(t, 88.888, SimilarText("World", "Word"), 0.01)
	assert.InDelta(t, 88.888, SimilarText("Word", "World"), 0.01)
}

func TestLevenshteinSimilarity(t *testing.T) {
	assert.Equal(t, 100.0, LevenshteinSimilarity("improv", "improv"))
	assert.InDelta(t, 57.14, LevenshteinSimilarity("kitten", "sitting"), 0.01)
	assert.Equal(t, 0.0, LevenshteinSimilarity("", ""))
}

func TestScore(t *testing.T) {
	engine := NewEngine(&ticketingtest.Fake{}, logging.Discard(), nil, 0)
	paid := ticketing.TicketClass{ID: "t1", Name: "General"}
	free := ticketing.TicketClass{ID: "t0", Name: "Comp", Free: true}
	date := civil.Date{Year: 2026, Month: 10, Day: 16}

	t.Run("exact date and close time", func(t *testing.T) {
		got := engine.Score("Friday Improv 8pm", date, "20:00",
			event("e1", "Friday Improv 8pm", at(2026, 10, 16, 20, 15), paid, free))
		require.Len(t, got, 1)
		c := got[0]
		assert.Equal(t, "t1", c.TicketID)
		assert.Equal(t, "e1", c.EventID)
		assert.Equal(t, 100.0, c.NameSimilarity)
		assert.Equal(t, 275.0, c.Relevance)
		assert.True(t, c.ExactDateMatch)
		assert.True(t, c.CloseTimeMatch)
		assert.Equal(t, "20:15", c.Time)
	})

	t.Run("date distance penalised", func(t *testing.T) {
		got := engine.Score("Friday Improv 8pm", date, "20:00",
			event("e1", "Friday Improv 8pm", at(2026, 10, 19, 20, 0), paid))
		require.Len(t, got, 1)
		assert.Equal(t, 247.0, got[0].Relevance)
		assert.Equal(t, 3, got[0].DateDiffDays)
		assert.False(t, got[0].ExactDateMatch)
	})

	t.Run("far time gets no bonus", func(t *testing.T) {
		got := engine.Score("Friday Improv 8pm", date, "17:00",
			event("e1", "Friday Improv 8pm", at(2026, 10, 16, 20, 0), paid))
		require.Len(t, got, 1)
		assert.Equal(t, 225.0, got[0].Relevance)
		assert.False(t, got[0].CloseTimeMatch)
	})

	t.Run("no local date or time", func(t *testing.T) {
		got := engine.Score("Friday Improv 8pm", civil.Date{}, "",
			event("e1", "Friday Improv 8pm", at(2026, 12, 25, 9, 0), paid))
		require.Len(t, got, 1)
		assert.Equal(t, 200.0, got[0].Relevance)
		assert.False(t, got[0].ExactDateMatch)
		assert.False(t, got[0].CloseTimeMatch)
		assert.Equal(t, 0, got[0].DateDiffDays)
	})

	t.Run("case insensitive", func(t *testing.T) {
		got := engine.Score("FRIDAY IMPROV", civil.Date{}, "",
			event("e1", "friday improv", at(2026, 10, 16, 20, 0), paid))
		require.Len(t, got, 1)
		assert.Equal(t, 100.0, got[0].NameSimilarity)
	})

	t.Run("dissimilar discarded", func(t *testing.T) {
		got := engine.Score("Friday Improv", date, "",
			event("e1", "zzzz qqqq", at(2026, 10, 16, 20, 0), paid))
		assert.Empty(t, got)
	})

	t.Run("free only event", func(t *testing.T) {
		got := engine.Score("Friday Improv", date, "",
			event("e1", "Friday Improv", at(2026, 10, 16, 20, 0), free))
		assert.Empty(t, got)
	})
}

func TestInjectableSimilarity(t *testing.T) {
	low := func(string, string) float64 { return 29.9 }
	engine := NewEngine(&ticketingtest.Fake{}, logging.Discard(), low, 0)
	got := engine.Score("Friday Improv", civil.Date{}, "",
		event("e1", "Friday Improv", at(2026, 10, 16, 20, 0), ticketing.TicketClass{ID: "t1"}))
	assert.Empty(t, got)

	engine = NewEngine(&ticketingtest.Fake{}, logging.Discard(), LevenshteinSimilarity, 0)
	got = engine.Score("Friday Improv", civil.Date{}, "",
		event("e1", "Friday Improv", at(2026, 10, 16, 20, 0), ticketing.TicketClass{ID: "t1"}))
	require.Len(t, got, 1)
	assert.Equal(t, 100.0, got[0].NameSimilarity)
}

func TestRankKeepsTopFive(t *testing.T) {
	engine := NewEngine(&ticketingtest.Fake{}, logging.Discard(), nil, 0)
	date := civil.Date{Year: 2026, Month: 10, Day: 16}

	var events []ticketing.Event
	for i := 0; i < 7; i++ {
		events = append(events, event(fmt.Sprintf("e%d", i), "Friday Improv",
			at(2026, 10, 16+i, 20, 0), ticketing.TicketClass{ID: fmt.Sprintf("t%d", i)}))
	}

	got := engine.Rank("Friday Improv", date, "20:00", events)
	require.Len(t, got, MaxCandidates)
	for i, c := range got {
		assert.Equal(t, fmt.Sprintf("t%d", i), c.TicketID)
	}
}

func TestSuggest(t *testing.T) {
	fake := &ticketingtest.Fake{Events: []ticketing.Event{
		event("e1", "Saturday Showcase", at(2026, 10, 17, 19, 0), ticketing.TicketClass{ID: "sat"}),
		event("e2", "Friday Improv", at(2026, 10, 16, 20, 0), ticketing.TicketClass{ID: "fri"}),
	}}
	engine := NewEngine(fake, logging.Discard(), nil, 0)

	date := civil.Date{Year: 2026, Month: 10, Day: 16}
	got := engine.Suggest(context.Background(), "Friday Improv 8pm", date, "20:00")
	require.NotEmpty(t, got)
	assert.Equal(t, "fri", got[0].TicketID)
	assert.Equal(t, "fri", engine.SuggestTicketID(context.Background(), "Friday Improv 8pm", date, "20:00"))
}

func TestSuggestListFailure(t *testing.T) {
	fake := &ticketingtest.Fake{ListErr: errors.New("timeout")}
	engine := NewEngine(fake, logging.Discard(), nil, 0)

	got := engine.Suggest(context.Background(), "Friday Improv", civil.Date{}, "")
	assert.Empty(t, got)
	assert.Equal(t, "", engine.SuggestTicketID(context.Background(), "Friday Improv", civil.Date{}, ""))
}

func TestRankProperties(t *testing.T) {
	engine := NewEngine(&ticketingtest.Fake{}, logging.Discard(), nil, 0)
	words := []string{"friday", "improv", "jam", "comedy", "night", "open", "mic", "saturday"}

	rapid.Check(t, func(t *rapid.T) {
		title := rapid.SliceOfN(rapid.SampledFrom(words), 1, 4).Draw(t, "title")
		n := rapid.IntRange(0, 12).Draw(t, "events")

		free := map[string]bool{}
		var events []ticketing.Event
		for i := 0; i < n; i++ {
			name := rapid.SliceOfN(rapid.SampledFrom(words), 1, 4).Draw(t, "name")
			var classes []ticketing.TicketClass
			count := rapid.IntRange(0, 3).Draw(t, "classes")
			for j := 0; j < count; j++ {
				id := fmt.Sprintf("t%d-%d", i, j)
				isFree := rapid.Bool().Draw(t, "free")
				free[id] = isFree
				classes = append(classes, ticketing.TicketClass{ID: id, Free: isFree})
			}
			events = append(events, event(fmt.Sprintf("e%d", i), strings.Join(name, " "),
				at(2026, 10, rapid.IntRange(1, 28).Draw(t, "day"), rapid.IntRange(0, 23).Draw(t, "hour"), 0), classes...))
		}

		date := civil.Date{Year: 2026, Month: 10, Day: rapid.IntRange(1, 28).Draw(t, "localDay")}
		got := engine.Rank(strings.Join(title, " "), date, "20:00", events)

		if len(got) > MaxCandidates {
			t.Fatalf("got %d candidates", len(got))
		}
		for i, c := range got {
			if c.NameSimilarity < MinSimilarity {
				t.Fatalf("candidate %s below similarity floor: %v", c.TicketID, c.NameSimilarity)
			}
			if free[c.TicketID] {
				t.Fatalf("free ticket class %s suggested", c.TicketID)
			}
			if i > 0 && got[i-1].Relevance < c.Relevance {
				t.Fatalf("not sorted at %d: %v < %v", i, got[i-1].Relevance, c.Relevance)
			}
		}
	})
}
