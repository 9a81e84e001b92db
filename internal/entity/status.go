package entity

import "strings"

// Status is the delivery lifecycle stage of an order.
type Status string

const (
	StatusPending    Status = "Pending"
	StatusProcessing Status = "Processing"
	StatusShipped    Status = "Shipped"
	StatusInTransit  Status = "In Transit"
	StatusDelivered  Status = "Delivered"
	StatusCancelled  Status = "Cancelled"
	StatusReturned   Status = "Returned"
)

// Statuses lists every canonical status in lifecycle order.
func Statuses() []Status {
	return []Status{
		StatusPending,
		StatusProcessing,
		StatusShipped,
		StatusInTransit,
		StatusDelivered,
		StatusCancelled,
		StatusReturned,
	}
}

// String implements fmt.Stringer.
func (s Status) String() string {
	return string(s)
}

// Slug returns a css friendly lowercase form ("In Transit" -> "in-transit").
func (s Status) Slug() string {
	if s == "" {
		return "pending"
	}
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(string(s))), " ", "-")
}

// ParseStatus matches a status case-insensitively against the known values
// and returns false when nothing matches.
func ParseStatus(raw string, known []Status) (Status, bool) {
	raw = strings.TrimSpace(raw)
	for _, s := range known {
		if strings.EqualFold(raw, string(s)) {
			return s, true
		}
	}
	return Status(raw), false
}
