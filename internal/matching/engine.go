// internal/matching/engine.go
package matching

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/sirupsen/logrus"

	"ticketsync/internal/heuristics"
	"ticketsync/internal/logging"
	"ticketsync/internal/ticketing"
)

const (
	// MinSimilarity is the name similarity below which a remote event is
	// never suggested.
	MinSimilarity = 30
	// MaxCandidates caps a suggestion list.
	MaxCandidates = 5

	suggestStatus   = "live,started"
	suggestPageSize = 50
)

// Candidate is one remote ticket class scored against a local occurrence.
type Candidate struct {
	EventID        string     `json:"event_id"`
	TicketID       string     `json:"ticket_id"`
	Name           string     `json:"event_name"`
	TicketName     string     `json:"ticket_name"`
	Date           civil.Date `json:"event_date,omitzero"`
	Time           string     `json:"event_time"`
	Venue          string     `json:"venue_name,omitempty"`
	NameSimilarity float64    `json:"name_similarity"`
	Relevance      float64    `json:"relevance"`
	ExactDateMatch bool       `json:"is_exact_date_match"`
	CloseTimeMatch bool       `json:"is_close_time_match"`
	DateDiffDays   int        `json:"date_diff_days"`
}

type Engine struct {
	tickets    ticketing.Service
	logger     logrus.FieldLogger
	similarity Similarity
	tolerance  time.Duration
}

// NewEngine builds a match engine. A nil similarity selects SimilarText and
// a zero tolerance selects heuristics.DefaultTolerance.
func NewEngine(tickets ticketing.Service, logger logrus.FieldLogger, similarity Similarity, tolerance time.Duration) *Engine {
	if similarity == nil {
		similarity = SimilarText
	}
	if tolerance <= 0 {
		tolerance = heuristics.DefaultTolerance
	}
	return &Engine{
		tickets:    tickets,
		logger:     logger,
		similarity: similarity,
		tolerance:  tolerance,
	}
}

// Score rates every paid ticket class of event against a local title and
// optional date and time. A zero date or empty clock means "not given".
// Events too dissimilar by name yield nothing.
func (e *Engine) Score(localTitle string, localDate civil.Date, localTime string, event ticketing.Event) []Candidate {
	title := strings.ToLower(localTitle)
	name := strings.ToLower(event.Name)
	if title == "" || name == "" {
		return nil
	}
	sim := e.similarity(name, title)
	if sim < MinSimilarity {
		return nil
	}

	hasStart := !event.Start.Date.IsZero()
	timeGiven := localTime != ""
	dateGiven := !localDate.IsZero()

	timeMatch := true
	if timeGiven && hasStart {
		timeMatch = heuristics.TimeClose(localTime, event.StartClock(), e.tolerance)
	}
	dateMatch := true
	diff := 0
	if dateGiven && hasStart {
		dateMatch = event.StartDate() == localDate
		diff = event.StartDate().DaysSince(localDate)
		if diff < 0 {
			diff = -diff
		}
	}

	relevance := sim * 2
	if timeMatch && timeGiven {
		relevance += 50
	}
	if dateMatch && dateGiven {
		relevance += 25
	}
	relevance -= float64(diff)

	var clock string
	if hasStart {
		clock = event.StartClock()
	}

	var out []Candidate
	for _, tc := range event.TicketClasses {
		if tc.Free {
			continue
		}
		out = append(out, Candidate{
			EventID:        event.ID,
			TicketID:       tc.ID,
			Name:           event.Name,
			TicketName:     tc.Name,
			Date:           event.StartDate(),
			Time:           clock,
			Venue:          event.Venue,
			NameSimilarity: round2(sim),
			Relevance:      round2(relevance),
			ExactDateMatch: dateMatch && dateGiven,
			CloseTimeMatch: timeMatch && timeGiven,
			DateDiffDays:   diff,
		})
	}
	return out
}

// Rank scores all events and returns the best MaxCandidates, highest
// relevance first. Ties keep listing order.
func (e *Engine) Rank(localTitle string, localDate civil.Date, localTime string, events []ticketing.Event) []Candidate {
	var all []Candidate
	for _, ev := range events {
		all = append(all, e.Score(localTitle, localDate, localTime, ev)...)
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Relevance > all[j].Relevance
	})
	if len(all) > MaxCandidates {
		all = all[:MaxCandidates]
	}
	return all
}

// Suggest lists the organization's current events and ranks them. A failed
// listing is logged and yields no suggestions.
func (e *Engine) Suggest(ctx context.Context, localTitle string, localDate civil.Date, localTime string) []Candidate {
	events, err := e.tickets.ListOrgEvents(ctx, suggestStatus, suggestPageSize)
	if err != nil {
		logging.LogError(e.logger, "matching", "Suggest", "list organization events", map[string]any{
			"title": localTitle,
			"date":  localDate.String(),
			"time":  localTime,
		}, err)
		return nil
	}
	candidates := e.Rank(localTitle, localDate, localTime, events)
	e.logger.WithFields(logrus.Fields{
		"title":       localTitle,
		"events":      len(events),
		"suggestions": len(candidates),
	}).Debug("ranked remote events")
	return candidates
}

// SuggestTicketID returns the top suggestion's ticket id, or "".
func (e *Engine) SuggestTicketID(ctx context.Context, localTitle string, localDate civil.Date, localTime string) string {
	candidates := e.Suggest(ctx, localTitle, localDate, localTime)
	if len(candidates) == 0 {
		return ""
	}
	return candidates[0].TicketID
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
