package worker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Additional-Code/ordertrack/internal/config"
	"github.com/Additional-Code/ordertrack/internal/messaging"
)

// replayClient hands its messages to the handler once, then waits for
// cancellation like a real consumer.
type replayClient struct {
	mu       sync.Mutex
	messages []messaging.Message
}

func (r *replayClient) Publish(context.Context, []byte, []byte, map[string]string) error { return nil }

func (r *replayClient) Consume(ctx context.Context, handler messaging.Handler) error {
	r.mu.Lock()
	msgs := r.messages
	r.messages = nil
	r.mu.Unlock()
	for _, m := range msgs {
		_ = handler(ctx, m)
	}
	<-ctx.Done()
	return ctx.Err()
}

func (r *replayClient) Topic() string { return "orders.audit" }

type recorder struct {
	mu   sync.Mutex
	seen []string
}

func (r *recorder) handler(name string) messaging.Handler {
	return func(context.Context, messaging.Message) error {
		r.mu.Lock()
		r.seen = append(r.seen, name)
		r.mu.Unlock()
		return nil
	}
}

func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.seen...)
}

func enabledConfig() config.Config {
	return config.Config{Messaging: config.Messaging{
		Enabled: true,
		Workers: config.Worker{Enabled: true, Concurrency: 1},
	}}
}

func TestEngineRoutesByEventType(t *testing.T) {
	client := &replayClient{messages: []messaging.Message{
		{Topic: "orders.audit", Headers: map[string]string{messaging.HeaderEventType: "order.status_changed"}},
		{Topic: "orders.audit", Headers: map[string]string{messaging.HeaderEventType: "order.created"}},
		{Topic: "orders.audit"},
		{Topic: "other"},
	}}
	rec := &recorder{}

	engine := NewEngine(Params{
		Client: client,
		Logger: zap.NewNop(),
		Config: enabledConfig(),
		Registrations: []HandlerRegistration{
			{Topic: "orders.audit", Handler: rec.handler("all")},
			{Topic: "orders.audit", EventType: "order.status_changed", Handler: rec.handler("status")},
			{Topic: "", Handler: rec.handler("ignored")},
		},
	})

	require.NoError(t, engine.start(context.Background()))
	assert.Eventually(t, func() bool { return len(rec.snapshot()) == 3 }, time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, engine.stop(ctx))

	assert.Equal(t, []string{"status", "all", "all"}, rec.snapshot())
}

func TestEngineDisabled(t *testing.T) {
	engine := NewEngine(Params{
		Client:        &replayClient{},
		Logger:        zap.NewNop(),
		Config:        config.Config{},
		Registrations: []HandlerRegistration{{Topic: "orders.audit", Handler: func(context.Context, messaging.Message) error { return nil }}},
	})
	require.NoError(t, engine.start(context.Background()))
	assert.Nil(t, engine.cancel)
	assert.NoError(t, engine.stop(context.Background()))
}
