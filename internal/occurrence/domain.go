// internal/occurrence/domain.go
package occurrence

import (
	"cloud.google.com/go/civil"
)

// Provenance names the discovery step that produced an occurrence.
type Provenance string

const (
	FromSchedule         Provenance = "schedule"
	FromBookingSlots     Provenance = "booking_slots"
	FromWeeklyRecurrence Provenance = "weekly_recurrence"
	FromRemoteTicketing  Provenance = "remote_ticketing"
	FromFallback         Provenance = "fallback"
)

// Occurrence is one dated instance of a product. Time is HH:MM or empty for
// a whole-day occurrence; a nil Inventory means the count is unknown.
type Occurrence struct {
	Date       civil.Date `json:"date"`
	Time       string     `json:"time,omitempty"`
	Inventory  *int       `json:"inventory"`
	Provenance Provenance `json:"provenance"`

	// Set only for remote ticketing occurrences. TicketID is the event's
	// first paid ticket class; Score is title similarity plus the time bonus.
	EventID   string  `json:"event_id,omitempty"`
	TicketID  string  `json:"ticket_id,omitempty"`
	EventName string  `json:"event_name,omitempty"`
	Venue     string  `json:"venue,omitempty"`
	Score     float64 `json:"score,omitempty"`
}

func (o Occurrence) Key() string {
	return Key(o.Date, o.Time)
}

// Options tune a discovery run.
type Options struct {
	// UseRemote enables the remote ticketing lookup step.
	UseRemote bool
	// SkipTitleInference disables weekly dates guessed from the title.
	SkipTitleInference bool
}
