package order

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Additional-Code/ordertrack/internal/messaging"
)

// EventType names an audit event emitted after a successful mutation.
type EventType string

const (
	EventCreated       EventType = "order.created"
	EventUpdated       EventType = "order.updated"
	EventStatusChanged EventType = "order.status_changed"
	EventDeleted       EventType = "order.deleted"
)

// EventTypeHeader is the message header carrying the EventType.
const EventTypeHeader = messaging.HeaderEventType

// OrderEvent is the audit record published for every change made through
// the console or CLI.
type OrderEvent struct {
	EventID        string    `json:"event_id"`
	Type           EventType `json:"type"`
	OrderID        string    `json:"order_id"`
	SerialNumber   string    `json:"serial_number,omitempty"`
	Owner          string    `json:"owner,omitempty"`
	Status         string    `json:"status,omitempty"`
	PreviousStatus string    `json:"previous_status,omitempty"`
	Notes          string    `json:"notes,omitempty"`
	Session        string    `json:"session,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
}

func (s *Service) publish(ctx context.Context, event OrderEvent) {
	if !s.messaging.enabled || s.publisher == nil {
		return
	}
	event.EventID = uuid.NewString()
	event.OccurredAt = s.now().UTC()

	payload, err := json.Marshal(event)
	if err != nil {
		if s.logger != nil {
			s.logger.Error("marshal order event", zap.Error(err))
		}
		return
	}
	headers := map[string]string{EventTypeHeader: string(event.Type)}
	if err := s.publisher.Publish(ctx, []byte(event.OrderID), payload, headers); err != nil {
		if s.logger != nil {
			s.logger.Error("publish order event",
				zap.String("type", string(event.Type)),
				zap.String("order_id", event.OrderID),
				zap.Error(err),
			)
		}
	}
}
