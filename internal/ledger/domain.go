// internal/ledger/domain.go
package ledger

import (
	"encoding/json"
	"errors"
	"fmt"

	"cloud.google.com/go/civil"
)

// MaxSummaryDays bounds the per-day breakdown of a summary.
const MaxSummaryDays = 366

var (
	ErrInvalidSale  = errors.New("invalid sale")
	ErrInvalidRange = errors.New("end date is before start date")
	errMalformed    = errors.New("malformed ledger entry")
)

// Channel is a sales surface. The values double as the per-channel field
// names of a ledger entry.
type Channel string

const (
	ChannelLocal     Channel = "woocommerce"
	ChannelTicketing Channel = "eventbrite"
	ChannelPOS       Channel = "square"
)

// ParseChannel accepts the stored channel names.
func ParseChannel(s string) (Channel, error) {
	switch c := Channel(s); c {
	case ChannelLocal, ChannelTicketing, ChannelPOS:
		return c, nil
	}
	return "", fmt.Errorf("%w: unknown channel %q", ErrInvalidSale, s)
}

// Entry is one product occurrence's sales on one day. Quantity always
// equals the sum of the channel counts.
type Entry struct {
	Name        string `json:"name"`
	SKU         string `json:"sku"`
	ProductID   string `json:"product_id"`
	BookingDate string `json:"booking_date,omitempty"`
	Quantity    int    `json:"quantity"`
	WooCommerce int    `json:"woocommerce"`
	Eventbrite  int    `json:"eventbrite"`
	Square      int    `json:"square"`
}

func (e *Entry) channel(c Channel) *int {
	switch c {
	case ChannelTicketing:
		return &e.Eventbrite
	case ChannelPOS:
		return &e.Square
	default:
		return &e.WooCommerce
	}
}

func (e *Entry) add(other Entry) {
	e.Quantity += other.Quantity
	e.WooCommerce += other.WooCommerce
	e.Eventbrite += other.Eventbrite
	e.Square += other.Square
}

// repair restores the channel sum of a legacy entry. A shortfall is
// credited to the local channel; an excess raises the total.
func (e *Entry) repair() bool {
	sum := e.WooCommerce + e.Eventbrite + e.Square
	switch {
	case sum < e.Quantity:
		e.WooCommerce += e.Quantity - sum
	case sum > e.Quantity:
		e.Quantity = sum
	default:
		return false
	}
	return true
}

// Sale is one recorded sale. A zero SaleDate means today. OccurrenceDate
// and OccurrenceTime name the occurrence sold, when known. Name and SKU
// are looked up in the catalog when empty.
type Sale struct {
	Channel        Channel    `json:"channel"`
	ProductID      string     `json:"product_id"`
	Quantity       int        `json:"quantity"`
	SaleDate       civil.Date `json:"sale_date,omitzero"`
	OccurrenceDate civil.Date `json:"occurrence_date,omitzero"`
	OccurrenceTime string     `json:"occurrence_time,omitempty"`
	Name           string     `json:"name,omitempty"`
	SKU            string     `json:"sku,omitempty"`
	Reference      string     `json:"reference,omitempty"`
}

// DaySummary totals one calendar day.
type DaySummary struct {
	Date             civil.Date       `json:"date"`
	TotalSales       int              `json:"total_sales"`
	WooCommerceSales int              `json:"woocommerce_sales"`
	EventbriteSales  int              `json:"eventbrite_sales"`
	SquareSales      int              `json:"square_sales"`
	Products         map[string]Entry `json:"products"`
}

func (d *DaySummary) add(e Entry) {
	d.TotalSales += e.Quantity
	d.WooCommerceSales += e.WooCommerce
	d.EventbriteSales += e.Eventbrite
	d.SquareSales += e.Square
}

// Summary totals a period with a per-day breakdown, every day of the
// period included.
type Summary struct {
	TotalSales       int          `json:"total_sales"`
	WooCommerceSales int          `json:"woocommerce_sales"`
	EventbriteSales  int          `json:"eventbrite_sales"`
	SquareSales      int          `json:"square_sales"`
	Days             []DaySummary `json:"days"`
}

// ProductTotal is a product's sales over a period, split by occurrence.
type ProductTotal struct {
	Name          string         `json:"name"`
	SKU           string         `json:"sku"`
	TotalQuantity int            `json:"total_quantity"`
	Dates         map[string]int `json:"dates"`
}

// dailySales is the stored ledger: sale date -> entry key -> entry. Entries
// stay raw so one bad entry cannot spoil a read.
type dailySales map[string]map[string]json.RawMessage
