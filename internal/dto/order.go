package dto

import (
	"strings"
	"time"

	"github.com/Additional-Code/ordertrack/internal/entity"
)

// Order is the backend's JSON representation of an order.
type Order struct {
	ID             string `json:"_id"`
	SerialNumber   string `json:"serialNumber"`
	Owner          string `json:"owner"`
	Vendor         string `json:"vendor,omitempty"`
	OrderDate      string `json:"orderDate"`
	DeliveryStatus string `json:"deliveryStatus"`
	CreatedAt      string `json:"createdAt,omitempty"`
}

// CreateOrderRequest is the POST body for a new order.
type CreateOrderRequest struct {
	SerialNumber string `json:"serialNumber"`
	Owner        string `json:"owner"`
	OrderDate    string `json:"orderDate"`
}

// UpdateOrderRequest is the PUT body for a full edit. Notes is only set when
// the delivery status changes.
type UpdateOrderRequest struct {
	SerialNumber   string  `json:"serialNumber"`
	Owner          string  `json:"owner"`
	OrderDate      string  `json:"orderDate"`
	DeliveryStatus string  `json:"deliveryStatus"`
	Notes          *string `json:"notes,omitempty"`
}

// StatusPatchRequest is the PATCH body for a status-only change.
type StatusPatchRequest struct {
	DeliveryStatus string  `json:"deliveryStatus"`
	Notes          *string `json:"notes,omitempty"`
}

// ErrorBody is the error payload returned by the backend.
type ErrorBody struct {
	Message string `json:"message"`
}

// OrderResponse is the console's own JSON view of an order.
type OrderResponse struct {
	ID             string    `json:"id"`
	SerialNumber   string    `json:"serial_number"`
	Owner          string    `json:"owner"`
	OrderDate      string    `json:"order_date"`
	DeliveryStatus string    `json:"delivery_status"`
	CreatedAt      time.Time `json:"created_at,omitempty"`
}

// ToEntity converts the wire order into the domain model. Unparseable dates
// are left zero rather than failing the whole list.
func (o Order) ToEntity() entity.Order {
	owner := o.Owner
	if owner == "" {
		owner = o.Vendor
	}
	return entity.Order{
		ID:             o.ID,
		SerialNumber:   o.SerialNumber,
		Owner:          owner,
		OrderDate:      parseDate(o.OrderDate),
		DeliveryStatus: entity.Status(o.DeliveryStatus),
		CreatedAt:      parseDate(o.CreatedAt),
	}
}

// ToResponse converts a domain order into the console JSON view.
func ToResponse(o entity.Order) OrderResponse {
	return OrderResponse{
		ID:             o.ID,
		SerialNumber:   o.SerialNumber,
		Owner:          o.Owner,
		OrderDate:      o.OrderDateString(),
		DeliveryStatus: o.DeliveryStatus.String(),
		CreatedAt:      o.CreatedAt,
	}
}

func parseDate(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t.UTC()
	}
	if t, err := time.Parse(entity.DateLayout, raw); err == nil {
		return t
	}
	return time.Time{}
}
