// internal/reconcile/domain.go
package reconcile

import (
	"errors"
	"fmt"

	"cloud.google.com/go/civil"

	"ticketsync/internal/ledger"
)

var ErrMissingTicket = errors.New("ticket id is required")

// completedStatus is the only local order status that moves stock.
const completedStatus = "completed"

// RemoteError is a failed read or write against the remote ticketing
// service. The local side of the sale has already been committed.
type RemoteError struct {
	Op        string
	ProductID string
	TicketID  string
	Err       error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s ticket %s for product %s: %v", e.Op, e.TicketID, e.ProductID, e.Err)
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

// Outcome says what a push did.
type Outcome string

const (
	OutcomeUntracked Outcome = "untracked"
	OutcomeWouldPush Outcome = "would_push"
	OutcomePushed    Outcome = "pushed"
)

// Push describes one local sale to be mirrored on the ticketing service.
type Push struct {
	OrderID   string
	ProductID string
	Quantity  int
	Date      civil.Date
	Time      string
}

type PushResult struct {
	ProductID        string  `json:"product_id"`
	TicketID         string  `json:"ticket_id,omitempty"`
	Outcome          Outcome `json:"outcome"`
	PreviousCapacity int     `json:"previous_capacity,omitempty"`
	NewCapacity      int     `json:"new_capacity,omitempty"`
	Sold             int     `json:"sold,omitempty"`
}

// ItemResult is the handling of one order line item.
type ItemResult struct {
	ProductID string       `json:"product_id"`
	Quantity  int          `json:"quantity"`
	Date      civil.Date   `json:"date,omitzero"`
	Time      string       `json:"time,omitempty"`
	Entry     ledger.Entry `json:"entry"`
	Push      *PushResult  `json:"push,omitempty"`
	Error     string       `json:"error,omitempty"`
}

type OrderResult struct {
	OrderID string       `json:"order_id"`
	Skipped bool         `json:"skipped"`
	Items   []ItemResult `json:"items"`
}

// RemoteSale is a sale reported by the ticketing or POS channel.
type RemoteSale struct {
	Channel   ledger.Channel `json:"channel" validate:"required,oneof=eventbrite square"`
	ProductID string         `json:"product_id" validate:"required"`
	Quantity  int            `json:"quantity" validate:"gt=0"`
	Date      civil.Date     `json:"date,omitzero"`
	Time      string         `json:"time,omitempty"`
	Reference string         `json:"reference,omitempty"`
}

// SyncAction says what a sync pass did for one mapping.
type SyncAction string

const (
	SyncInSync      SyncAction = "in_sync"
	SyncUpdated     SyncAction = "updated"
	SyncWouldUpdate SyncAction = "would_update"
	SyncSkipped     SyncAction = "skipped"
	SyncFailed      SyncAction = "failed"
)

type SyncItem struct {
	ProductID string     `json:"product_id"`
	Key       string     `json:"key,omitempty"`
	TicketID  string     `json:"ticket_id"`
	Current   *int       `json:"current"`
	Available int        `json:"available"`
	Action    SyncAction `json:"action"`
	Reason    string     `json:"reason,omitempty"`
}

// SyncReport lists every mapping the pass looked at. Failures do not stop
// the pass.
type SyncReport struct {
	Checked int        `json:"checked"`
	Updated int        `json:"updated"`
	Failed  int        `json:"failed"`
	Items   []SyncItem `json:"items"`
}

func (r *SyncReport) add(item SyncItem) {
	r.Checked++
	switch item.Action {
	case SyncUpdated:
		r.Updated++
	case SyncFailed:
		r.Failed++
	}
	r.Items = append(r.Items, item)
}

// TicketStatus is the live state of one remote ticket class.
type TicketStatus struct {
	EventID       string     `json:"event_id"`
	TicketID      string     `json:"ticket_id"`
	EventName     string     `json:"event_name"`
	EventDate     civil.Date `json:"event_date,omitzero"`
	EventTime     string     `json:"event_time"`
	FormattedTime string     `json:"formatted_time"`
	Venue         string     `json:"venue_name"`
	TicketName    string     `json:"ticket_name"`
	Free          bool       `json:"is_free"`
	Capacity      int        `json:"capacity"`
	Sold          int        `json:"sold"`
	Available     int        `json:"available"`
}
