package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

var ErrConvertJSONB = errors.New("cannot convert to JSONB")

// Customer contact details entered at checkout
type Customer struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// Shipping delivery address of an order
type Shipping struct {
	Address string `json:"address"`
	City    string `json:"city"`
	Zip     string `json:"zip"`
	Region  string `json:"region"`
	Country string `json:"country"`
}

// Totals all amounts are in minor units of Currency
type Totals struct {
	Subtotal int    `json:"subtotal"`
	Discount int    `json:"discount"`
	Shipping int    `json:"shipping"`
	Total    int    `json:"total"`
	Currency string `json:"currency"`
}

// StatusChange one entry of the order status history
type StatusChange struct {
	From OrderStatus `json:"from,omitempty"`
	To   OrderStatus `json:"to"`
	Note string      `json:"note,omitempty"`
	At   time.Time   `json:"at"`
}

// Order is the main entity of the shop: a paid-for (or pending) set of framed prints.
// The whole struct is stored as a JSONB document, see Scan and Value.
type Order struct {
	ID             string         `json:"id"`
	TrackingNumber string         `json:"tracking_number"`
	Status         OrderStatus    `json:"status"`
	Customer       Customer       `json:"customer"`
	Shipping       Shipping       `json:"shipping"`
	Items          []CheckoutItem `json:"items"`
	Totals         Totals         `json:"totals"`
	PromoCode      string         `json:"promo_code,omitempty"`
	Note           string         `json:"note,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	History        []StatusChange `json:"history,omitempty"`
}

// Quantity number of prints across all items.
func (o *Order) Quantity() int {
	n := 0
	for _, item := range o.Items {
		n += item.Quantity
	}
	return n
}

// Transition moves the order to the next status and records it in the history.
// Moving to the current status is a no-op.
func (o *Order) Transition(to OrderStatus, note string, at time.Time) error {
	if o.Status == to {
		return nil
	}
	if !CanTransition(o.Status, to) {
		return &TransitionError{From: o.Status, To: to}
	}
	o.History = append(o.History, StatusChange{From: o.Status, To: to, Note: note, At: at})
	o.Status = to
	o.UpdatedAt = at
	return nil
}

func (o *Order) Scan(dst interface{}) error {
	switch src := dst.(type) {
	case string:
		return json.Unmarshal([]byte(src), o)
	case []byte:
		return json.Unmarshal(src, o)
	case nil:
		return nil
	}
	return ErrConvertJSONB
}

func (o Order) Value() (driver.Value, error) {
	j, err := json.Marshal(o)
	if err != nil {
		return `{}`, err
	}
	return string(j), nil
}
