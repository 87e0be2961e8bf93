// internal/admin/domain.go
package admin

import (
	"ticketsync/internal/mapping"
	"ticketsync/internal/matching"
	"ticketsync/internal/occurrence"
	"ticketsync/internal/pos"
	"ticketsync/internal/ticketing"
)

// AnnotatedOccurrence is one discovered occurrence with what is stored
// for it and, when no ticket is mapped yet, the best remote match.
type AnnotatedOccurrence struct {
	occurrence.Occurrence
	Key        string                  `json:"key"`
	Mapping    *mapping.ChannelMapping `json:"mapping,omitempty"`
	Suggestion *matching.Candidate     `json:"suggestion,omitempty"`
}

// Check status values.
const (
	StatusOK      = "ok"
	StatusWarning = "warning"
	StatusError   = "error"
)

// MappingCheck is the result of testing a product mapping against the
// remote services.
type MappingCheck struct {
	ProductID string                 `json:"product_id"`
	Key       string                 `json:"key,omitempty"`
	Mapping   mapping.ChannelMapping `json:"mapping"`
	Ticket    *ticketing.TicketClass `json:"ticket,omitempty"`
	POSItem   *pos.CatalogItem       `json:"pos_item,omitempty"`
	Status    string                 `json:"status"`
	Messages  []string               `json:"messages"`
}

var severity = map[string]int{StatusOK: 1, StatusWarning: 2, StatusError: 3}

// note adds a message; the check keeps its worst status.
func (c *MappingCheck) note(status, msg string) {
	c.Messages = append(c.Messages, msg)
	if severity[status] > severity[c.Status] {
		c.Status = status
	}
}

type ConnectionStatus struct {
	Service string `json:"service"`
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

// Attendee is one buyer of a product on either channel.
type Attendee struct {
	Source       string `json:"source"`
	Reference    string `json:"reference"`
	Quantity     int    `json:"quantity"`
	PurchaseDate string `json:"purchase_date"`
}
