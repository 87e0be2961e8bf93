// internal/mapping/domain.go
package mapping

import (
	"errors"

	"cloud.google.com/go/civil"
)

var (
	ErrMissingProduct = errors.New("product id is required")
	ErrInvalidTime    = errors.New("invalid occurrence time")
)

// ChannelMapping links a local product, or one of its occurrences, to the
// remote ticket class and POS catalog object that sell the same seats.
type ChannelMapping struct {
	TicketID string `json:"ticket_id"`
	EventID  string `json:"event_id,omitempty"`
	POSID    string `json:"pos_id"`
}

// IsEmpty reports whether neither remote id is set.
func (m ChannelMapping) IsEmpty() bool {
	return m.TicketID == "" && m.POSID == ""
}

// OccurrenceMapping is one entry of an admin save.
type OccurrenceMapping struct {
	Date civil.Date `json:"date"`
	Time string     `json:"time,omitempty"`
	ChannelMapping
}

// ResolvedMapping is a stored mapping with its owner spelled out. Key is
// the OccurrenceKey, or empty for the product default.
type ResolvedMapping struct {
	ProductID string     `json:"product_id"`
	Key       string     `json:"key"`
	Date      civil.Date `json:"date,omitzero"`
	Time      string     `json:"time,omitempty"`
	ChannelMapping
}

// IsDefault reports whether this is a product-level mapping.
func (r ResolvedMapping) IsDefault() bool {
	return r.Key == ""
}

// document is the persisted shape of every product's mappings.
// Occurrences keep the order in which they were saved.
type document struct {
	Products map[string]*productMappings `json:"products"`
}

type productMappings struct {
	Default     ChannelMapping     `json:"default"`
	Occurrences []storedOccurrence `json:"occurrences"`
}

type storedOccurrence struct {
	Key string `json:"key"`
	ChannelMapping
}
