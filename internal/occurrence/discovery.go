// internal/occurrence/discovery.go
package occurrence

import (
	"context"
	"sort"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/sirupsen/logrus"

	"ticketsync/internal/catalog"
	"ticketsync/internal/heuristics"
	"ticketsync/internal/logging"
	"ticketsync/internal/matching"
	"ticketsync/internal/ticketing"
)

const (
	// remoteSimilarityFloor is the title similarity a same-weekday remote
	// event needs unless its start time matches the title.
	remoteSimilarityFloor = 60
	// remoteTimeBonus is added when the start matches the time in the title.
	remoteTimeBonus = 20

	fallbackDays   = 7
	remoteStatus   = "live"
	remotePageSize = 50
)

// Discoverer lists the occurrences of a product from the first source that
// has any.
type Discoverer struct {
	tickets    ticketing.Service
	similarity matching.Similarity
	tolerance  time.Duration
	logger     logrus.FieldLogger
	loc        *time.Location
	now        func() time.Time
}

// NewDiscoverer builds a Discoverer. tickets may be nil when no remote
// ticketing service is configured.
func NewDiscoverer(tickets ticketing.Service, similarity matching.Similarity, tolerance time.Duration, loc *time.Location, logger logrus.FieldLogger) *Discoverer {
	if similarity == nil {
		similarity = matching.SimilarText
	}
	if tolerance <= 0 {
		tolerance = heuristics.DefaultTolerance
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Discoverer{
		tickets:    tickets,
		similarity: similarity,
		tolerance:  tolerance,
		logger:     logger,
		loc:        loc,
		now:        time.Now,
	}
}

// Discover never fails: an unavailable source simply yields nothing and
// the next one is tried, down to a week of placeholder dates.
func (d *Discoverer) Discover(ctx context.Context, p *catalog.Product, opts Options) []Occurrence {
	if out := scheduleOccurrences(p); len(out) > 0 {
		return out
	}
	if out := bookingSlotOccurrences(p); len(out) > 0 {
		return out
	}
	if !opts.SkipTitleInference {
		if out := d.weeklyRecurrence(p); len(out) > 0 {
			return out
		}
	}
	if opts.UseRemote {
		if out := d.remoteByWeekday(ctx, p); len(out) > 0 {
			return out
		}
	}
	return d.fallback()
}

func (d *Discoverer) today() time.Time {
	return d.now().In(d.loc)
}

func (d *Discoverer) weeklyRecurrence(p *catalog.Product) []Occurrence {
	day, ok := heuristics.ExtractDay(p.Name)
	if !ok {
		return nil
	}
	clock, _ := heuristics.ExtractTime(p.Name)

	dates := heuristics.UpcomingDatesForDay(day, heuristics.DefaultUpcomingCount, d.today())
	out := make([]Occurrence, 0, len(dates))
	for _, date := range dates {
		out = append(out, Occurrence{
			Date:       date,
			Time:       clock,
			Provenance: FromWeeklyRecurrence,
		})
	}
	return out
}

// remoteByWeekday proposes same-weekday remote events with a paid ticket
// class whose name is close to the title or whose start matches the time in
// the title, best score first.
func (d *Discoverer) remoteByWeekday(ctx context.Context, p *catalog.Product) []Occurrence {
	if d.tickets == nil {
		return nil
	}
	day, ok := heuristics.ExtractDay(p.Name)
	if !ok {
		return nil
	}
	events, err := d.tickets.ListOrgEvents(ctx, remoteStatus, remotePageSize)
	if err != nil {
		logging.LogError(d.logger, "occurrence", "remoteByWeekday", "list organization events", p.ID, err)
		return nil
	}

	title := strings.ToLower(p.Name)
	titleClock, hasClock := heuristics.ExtractTime(p.Name)

	var out []Occurrence
	for _, ev := range events {
		if ev.Start.Date.IsZero() || ev.Weekday() != day {
			continue
		}
		score := d.similarity(strings.ToLower(ev.Name), title)
		closeTime := hasClock && heuristics.TimeClose(titleClock, ev.StartClock(), d.tolerance)
		if closeTime {
			score += remoteTimeBonus
		}
		if score <= remoteSimilarityFloor && !closeTime {
			continue
		}

		paid, ok := firstPaidClass(ev)
		if !ok {
			continue
		}
		available := paid.Available()

		out = append(out, Occurrence{
			Date:       ev.StartDate(),
			Time:       ev.StartClock(),
			Inventory:  &available,
			Provenance: FromRemoteTicketing,
			EventID:    ev.ID,
			TicketID:   paid.ID,
			EventName:  ev.Name,
			Venue:      ev.Venue,
			Score:      score,
		})
	}
	sortChronologically(out)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

func firstPaidClass(ev ticketing.Event) (ticketing.TicketClass, bool) {
	for _, tc := range ev.TicketClasses {
		if tc.Free {
			continue
		}
		if tc.EventCapacity == 0 {
			tc.EventCapacity = ev.Capacity
		}
		return tc, true
	}
	return ticketing.TicketClass{}, false
}

// fallback is tomorrow through a week out with unknown inventory.
func (d *Discoverer) fallback() []Occurrence {
	today := civil.DateOf(d.today())
	out := make([]Occurrence, 0, fallbackDays)
	for i := 1; i <= fallbackDays; i++ {
		out = append(out, Occurrence{
			Date:       today.AddDays(i),
			Provenance: FromFallback,
		})
	}
	return out
}
