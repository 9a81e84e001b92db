package order

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Additional-Code/ordertrack/internal/config"
	"github.com/Additional-Code/ordertrack/internal/messaging"
	ordersvc "github.com/Additional-Code/ordertrack/internal/service/order"
)

func auditConfig() config.Config {
	return config.Config{Messaging: config.Messaging{Kafka: config.Kafka{Topic: "orders.audit"}}}
}

func TestStatusChangeHandlerLogsTransition(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	counter, err := NewAuditCounter(nil)
	require.NoError(t, err)
	reg := NewStatusChangeHandler(zap.New(core), auditConfig(), counter)

	assert.Equal(t, "orders.audit", reg.Topic)
	assert.Equal(t, string(ordersvc.EventStatusChanged), reg.EventType)

	payload, err := json.Marshal(ordersvc.OrderEvent{
		Type:           ordersvc.EventStatusChanged,
		OrderID:        "ord-1",
		SerialNumber:   "SN-001",
		PreviousStatus: "Pending",
		Status:         "Shipped",
		OccurredAt:     time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	require.NoError(t, reg.Handler(context.Background(), messaging.Message{Topic: "orders.audit", Value: payload}))

	entries := logs.FilterMessage("order status changed").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "Pending", fields["from"])
	assert.Equal(t, "Shipped", fields["to"])
	assert.Equal(t, "-", fields["notes"])
}

func TestAuditHandlerRejectsGarbage(t *testing.T) {
	counter, err := NewAuditCounter(nil)
	require.NoError(t, err)
	reg := NewAuditHandler(zap.NewNop(), auditConfig(), counter)

	assert.Empty(t, reg.EventType)
	assert.Error(t, reg.Handler(context.Background(), messaging.Message{Value: []byte("{")}))
}
