package order

import (
	"context"
	"encoding/json"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/ordertrack/internal/config"
	"github.com/Additional-Code/ordertrack/internal/messaging"
	"github.com/Additional-Code/ordertrack/internal/observability"
	ordersvc "github.com/Additional-Code/ordertrack/internal/service/order"
	"github.com/Additional-Code/ordertrack/internal/worker"
)

var workerTracer = otel.Tracer("github.com/Additional-Code/ordertrack/worker/order")

// Module registers the order audit handlers.
var Module = fx.Module("worker_order",
	fx.Provide(
		NewAuditCounter,
		fx.Annotate(
			NewAuditHandler,
			fx.ResultTags(`group:"worker.handlers"`),
		),
		fx.Annotate(
			NewStatusChangeHandler,
			fx.ResultTags(`group:"worker.handlers"`),
		),
	),
)

// AuditCounter counts processed audit events per type.
type AuditCounter struct {
	events metric.Int64Counter
}

// NewAuditCounter registers the audit event counter on the manager's meter.
func NewAuditCounter(mgr *observability.Manager) (*AuditCounter, error) {
	counter, err := mgr.Meter("github.com/Additional-Code/ordertrack/worker/order").Int64Counter(
		"ordertrack.audit.events",
		metric.WithDescription("Order audit events consumed by the worker"),
	)
	if err != nil {
		return nil, err
	}
	return &AuditCounter{events: counter}, nil
}

func (a *AuditCounter) add(ctx context.Context, eventType ordersvc.EventType) {
	if a == nil || a.events == nil {
		return
	}
	a.events.Add(ctx, 1, metric.WithAttributes(attribute.String("event.type", string(eventType))))
}

// NewAuditHandler logs every order audit event published on the topic.
func NewAuditHandler(logger *zap.Logger, cfg config.Config, counter *AuditCounter) worker.HandlerRegistration {
	handler := func(ctx context.Context, msg messaging.Message) error {
		event, err := decode(ctx, logger, msg)
		if err != nil {
			return err
		}
		counter.add(ctx, event.Type)

		logger.Info("order audit event",
			zap.String("type", string(event.Type)),
			zap.String("order_id", event.OrderID),
			zap.String("serial_number", event.SerialNumber),
			zap.String("owner", event.Owner),
			zap.String("status", event.Status),
			zap.Time("occurred_at", event.OccurredAt),
		)
		return nil
	}

	return worker.HandlerRegistration{
		Topic:   cfg.Messaging.Kafka.Topic,
		Handler: handler,
	}
}

// NewStatusChangeHandler records delivery status transitions with their
// reason.
func NewStatusChangeHandler(logger *zap.Logger, cfg config.Config, counter *AuditCounter) worker.HandlerRegistration {
	handler := func(ctx context.Context, msg messaging.Message) error {
		event, err := decode(ctx, logger, msg)
		if err != nil {
			return err
		}
		counter.add(ctx, event.Type)

		notes := event.Notes
		if notes == "" {
			notes = "-"
		}
		logger.Info("order status changed",
			zap.String("order_id", event.OrderID),
			zap.String("serial_number", event.SerialNumber),
			zap.String("from", event.PreviousStatus),
			zap.String("to", event.Status),
			zap.String("notes", notes),
		)
		return nil
	}

	return worker.HandlerRegistration{
		Topic:     cfg.Messaging.Kafka.Topic,
		EventType: string(ordersvc.EventStatusChanged),
		Handler:   handler,
	}
}

func decode(ctx context.Context, logger *zap.Logger, msg messaging.Message) (ordersvc.OrderEvent, error) {
	_, span := workerTracer.Start(ctx, "worker.orders.audit", trace.WithAttributes(
		attribute.String("messaging.topic", msg.Topic),
		attribute.String("messaging.event_type", msg.Headers[messaging.HeaderEventType]),
	))
	defer span.End()

	var event ordersvc.OrderEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		logger.Error("failed to decode order audit event", zap.Int64("offset", msg.Offset), zap.Error(err))

		span.RecordError(err)
		span.SetStatus(codes.Error, "decode error")
		return ordersvc.OrderEvent{}, err
	}
	return event, nil
}
