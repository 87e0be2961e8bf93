// Package ticketingtest provides an in-memory ticketing.Service.
package ticketingtest

import (
	"context"
	"errors"
	"sync"

	"ticketsync/internal/ticketing"
)

var ErrNotFound = errors.New("ticketingtest: not found")

type CapacityUpdate struct {
	TicketID string
	Capacity int
}

// Fake serves canned events and records capacity updates. Setting an Err
// field makes the matching call fail.
type Fake struct {
	mu sync.Mutex

	Events    []ticketing.Event
	Attendees map[string][]ticketing.Attendee

	ListErr   error
	GetErr    error
	UpdateErr error
	PingErr   error

	Updates   []CapacityUpdate
	ListCalls int
}

func (f *Fake) ListOrgEvents(_ context.Context, _ string, _ int) ([]ticketing.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ListCalls++
	if f.ListErr != nil {
		return nil, f.ListErr
	}
	return append([]ticketing.Event(nil), f.Events...), nil
}

func (f *Fake) GetTicket(_ context.Context, ticketID string) (*ticketing.TicketClass, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.GetErr != nil {
		return nil, f.GetErr
	}
	for _, ev := range f.Events {
		for _, tc := range ev.TicketClasses {
			if tc.ID == ticketID {
				tc.EventID = ev.ID
				if tc.EventCapacity == 0 {
					tc.EventCapacity = ev.Capacity
				}
				return &tc, nil
			}
		}
	}
	return nil, ErrNotFound
}

func (f *Fake) GetEvent(_ context.Context, eventID string) (*ticketing.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.GetErr != nil {
		return nil, f.GetErr
	}
	for _, ev := range f.Events {
		if ev.ID == eventID {
			return &ev, nil
		}
	}
	return nil, ErrNotFound
}

// UpdateTicketCapacity records the update and applies it to the stored
// ticket class as a custom capacity.
func (f *Fake) UpdateTicketCapacity(_ context.Context, ticketID string, capacity int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.UpdateErr != nil {
		return f.UpdateErr
	}
	f.Updates = append(f.Updates, CapacityUpdate{TicketID: ticketID, Capacity: capacity})
	for i := range f.Events {
		for j := range f.Events[i].TicketClasses {
			if f.Events[i].TicketClasses[j].ID == ticketID {
				f.Events[i].TicketClasses[j].Capacity = capacity
				f.Events[i].TicketClasses[j].CapacityIsCustom = true
				return nil
			}
		}
	}
	return ErrNotFound
}

func (f *Fake) ListAttendees(_ context.Context, eventID string) ([]ticketing.Attendee, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ListErr != nil {
		return nil, f.ListErr
	}
	return f.Attendees[eventID], nil
}

func (f *Fake) TestConnection(context.Context) error {
	return f.PingErr
}
