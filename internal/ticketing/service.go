// internal/ticketing/service.go
package ticketing

import "context"

// Service defines the interface for the remote ticketing service.
type Service interface {
	ListOrgEvents(ctx context.Context, status string, pageSize int) ([]Event, error)
	GetTicket(ctx context.Context, ticketID string) (*TicketClass, error)
	GetEvent(ctx context.Context, eventID string) (*Event, error)
	UpdateTicketCapacity(ctx context.Context, ticketID string, capacity int) error
	ListAttendees(ctx context.Context, eventID string) ([]Attendee, error)
	TestConnection(ctx context.Context) error
}
