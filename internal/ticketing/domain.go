// internal/ticketing/domain.go
package ticketing

import (
	"fmt"
	"time"

	"cloud.google.com/go/civil"
)

// Event is a remote ticketing event with its ticket classes expanded.
type Event struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	Status        string         `json:"status"`
	Start         civil.DateTime `json:"start"`
	Venue         string         `json:"venue,omitempty"`
	Capacity      int            `json:"capacity"`
	TicketClasses []TicketClass  `json:"ticket_classes"`
}

// StartDate is the event's local calendar date.
func (e Event) StartDate() civil.Date {
	return e.Start.Date
}

// StartClock is the event's local start time as HH:MM.
func (e Event) StartClock() string {
	return fmt.Sprintf("%02d:%02d", e.Start.Time.Hour, e.Start.Time.Minute)
}

// Weekday of the local start date.
func (e Event) Weekday() time.Weekday {
	return e.Start.Date.In(time.UTC).Weekday()
}

// TicketClass is one priced ticket type of an event.
type TicketClass struct {
	ID               string `json:"id"`
	EventID          string `json:"event_id"`
	Name             string `json:"name"`
	Free             bool   `json:"free"`
	Capacity         int    `json:"capacity"`
	CapacityIsCustom bool   `json:"capacity_is_custom"`
	QuantitySold     int    `json:"quantity_sold"`
	// EventCapacity is the owning event's capacity, used when the class
	// has no capacity of its own.
	EventCapacity int `json:"event_capacity"`
}

// EffectiveCapacity applies the custom-capacity rule.
func (t TicketClass) EffectiveCapacity() int {
	if t.CapacityIsCustom {
		return t.Capacity
	}
	return t.EventCapacity
}

// Available is the remaining sellable count.
func (t TicketClass) Available() int {
	return t.EffectiveCapacity() - t.QuantitySold
}

type Attendee struct {
	ID            string    `json:"id"`
	EventID       string    `json:"event_id"`
	TicketClassID string    `json:"ticket_class_id"`
	Quantity      int       `json:"quantity"`
	Status        string    `json:"status"`
	Cancelled     bool      `json:"cancelled"`
	Refunded      bool      `json:"refunded"`
	Created       time.Time `json:"created"`
}
