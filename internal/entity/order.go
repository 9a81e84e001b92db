package entity

import (
	"strings"
	"time"
)

// DateLayout is the calendar date format used by forms and the backend.
const DateLayout = "2006-01-02"

// Order is a tracked shipment record as returned by the order backend.
type Order struct {
	ID             string
	SerialNumber   string
	Owner          string
	OrderDate      time.Time
	DeliveryStatus Status
	CreatedAt      time.Time
}

// OrderDateString formats the order date for date inputs.
func (o Order) OrderDateString() string {
	if o.OrderDate.IsZero() {
		return ""
	}
	return o.OrderDate.Format(DateLayout)
}

// Draft holds the fields of the order creation form.
type Draft struct {
	SerialNumber string
	Owner        string
	OrderDate    string
}

// NewDraft returns an empty draft dated today.
func NewDraft(now time.Time) Draft {
	return Draft{OrderDate: now.Format(DateLayout)}
}

// Trimmed returns the draft with surrounding whitespace removed.
func (d Draft) Trimmed() Draft {
	return Draft{
		SerialNumber: strings.TrimSpace(d.SerialNumber),
		Owner:        strings.TrimSpace(d.Owner),
		OrderDate:    strings.TrimSpace(d.OrderDate),
	}
}

// Edit holds the fields of the modal edit form.
type Edit struct {
	SerialNumber   string
	Owner          string
	OrderDate      string
	DeliveryStatus Status
	Notes          string
}

// EditFrom seeds an edit form from the current order snapshot.
func EditFrom(o Order) Edit {
	return Edit{
		SerialNumber:   o.SerialNumber,
		Owner:          o.Owner,
		OrderDate:      o.OrderDateString(),
		DeliveryStatus: o.DeliveryStatus,
	}
}

// StatusChange is a row level status update with an optional reason.
type StatusChange struct {
	Status Status
	Notes  string
}
