package order

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/Additional-Code/ordertrack/internal/config"
	"github.com/Additional-Code/ordertrack/internal/dto"
	"github.com/Additional-Code/ordertrack/internal/entity"
	"github.com/Additional-Code/ordertrack/internal/observability"
	"github.com/Additional-Code/ordertrack/pkg/errorbank"
)

var repoTracer = otel.Tracer("github.com/Additional-Code/ordertrack/repository/order")

// Fallback messages used when the backend gives no message of its own.
const (
	MsgListFailed   = "Failed to load orders."
	MsgCreateFailed = "Failed to add order."
	MsgUpdateFailed = "Failed to update order."
	MsgStatusFailed = "Failed to update status."
	MsgDeleteFailed = "Failed to delete order."
)

// maxBodyBytes bounds how much of a backend response is read.
const maxBodyBytes = 4 << 20

// Repository talks to the external order backend over REST. The backend is
// the only source of truth; nothing is kept between calls.
type Repository struct {
	ordersURL  string
	ownerParam string
	httpClient *http.Client
	metrics    *observability.BackendMetrics
}

// NewRepository wires a repository from the backend configuration.
func NewRepository(cfg config.Config, metrics *observability.BackendMetrics) *Repository {
	return New(cfg.Backend.OrdersURL(), cfg.Backend.OwnerParam, cfg.Backend.Timeout, metrics)
}

// New builds a repository for the orders collection at ordersURL.
func New(ordersURL, ownerParam string, timeout time.Duration, metrics *observability.BackendMetrics) *Repository {
	if ownerParam == "" {
		ownerParam = "owner"
	}
	return &Repository{
		ordersURL:  strings.TrimRight(ordersURL, "/"),
		ownerParam: ownerParam,
		httpClient: &http.Client{Timeout: timeout},
		metrics:    metrics,
	}
}

// OrdersURL returns the collection URL the repository talks to.
func (r *Repository) OrdersURL() string { return r.ordersURL }

// List fetches the orders matching the filter. Only active filters are
// sent as query parameters.
func (r *Repository) List(ctx context.Context, filter entity.Filter) ([]entity.Order, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.List", trace.WithAttributes(
		attribute.String("filter.search", filter.Search),
		attribute.String("filter.owner", filter.Owner),
		attribute.String("filter.status", filter.Status),
	))
	defer span.End()

	target := r.ordersURL
	if q := filter.Query(r.ownerParam).Encode(); q != "" {
		target += "?" + q
	}

	data, err := r.do(ctx, "list", http.MethodGet, target, nil, MsgListFailed)
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}

	var wire []dto.Order
	if err := json.Unmarshal(data, &wire); err != nil {
		err = errorbank.Upstream(MsgListFailed, errorbank.WithCause(fmt.Errorf("decode orders: %w", err)))
		recordSpanError(span, err)
		return nil, err
	}

	orders := make([]entity.Order, 0, len(wire))
	for _, o := range wire {
		orders = append(orders, o.ToEntity())
	}
	span.SetAttributes(attribute.Int("orders.count", len(orders)))
	return orders, nil
}

// Create posts a new order.
func (r *Repository) Create(ctx context.Context, req dto.CreateOrderRequest) (entity.Order, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.Create", trace.WithAttributes(attribute.String("order.serial_number", req.SerialNumber)))
	defer span.End()

	data, err := r.do(ctx, "create", http.MethodPost, r.ordersURL, req, MsgCreateFailed)
	if err != nil {
		recordSpanError(span, err)
		return entity.Order{}, err
	}
	return decodeOrder(data), nil
}

// Update replaces the editable fields of an order.
func (r *Repository) Update(ctx context.Context, id string, req dto.UpdateOrderRequest) (entity.Order, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.Update", trace.WithAttributes(attribute.String("order.id", id)))
	defer span.End()

	data, err := r.do(ctx, "update", http.MethodPut, r.itemURL(id), req, MsgUpdateFailed)
	if err != nil {
		recordSpanError(span, err)
		return entity.Order{}, err
	}
	return decodeOrder(data), nil
}

// PatchStatus changes only the delivery status of an order.
func (r *Repository) PatchStatus(ctx context.Context, id string, req dto.StatusPatchRequest) (entity.Order, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.PatchStatus", trace.WithAttributes(
		attribute.String("order.id", id),
		attribute.String("order.status", req.DeliveryStatus),
	))
	defer span.End()

	data, err := r.do(ctx, "patch_status", http.MethodPatch, r.itemURL(id), req, MsgStatusFailed)
	if err != nil {
		recordSpanError(span, err)
		return entity.Order{}, err
	}
	return decodeOrder(data), nil
}

// Delete removes an order.
func (r *Repository) Delete(ctx context.Context, id string) error {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.Delete", trace.WithAttributes(attribute.String("order.id", id)))
	defer span.End()

	if _, err := r.do(ctx, "delete", http.MethodDelete, r.itemURL(id), nil, MsgDeleteFailed); err != nil {
		recordSpanError(span, err)
		return err
	}
	return nil
}

func (r *Repository) itemURL(id string) string {
	return r.ordersURL + "/" + url.PathEscape(id)
}

// do performs one request and returns the response body of a 2xx answer.
// Failures come back as errorbank errors whose message is the backend's
// {message} or the fallback.
func (r *Repository) do(ctx context.Context, op, method, target string, body any, fallback string) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, errorbank.Internal(fallback, errorbank.WithCause(fmt.Errorf("marshal %s: %w", op, err)))
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, errorbank.Internal(fallback, errorbank.WithCause(err))
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	start := time.Now()
	resp, err := r.httpClient.Do(req)
	if err != nil {
		r.metrics.Record(ctx, op, 0, time.Since(start))
		return nil, errorbank.Unavailable(fallback, errorbank.WithCause(fmt.Errorf("%s %s: %w", method, target, err)))
	}
	defer resp.Body.Close()
	r.metrics.Record(ctx, op, resp.StatusCode, time.Since(start))

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, errorbank.Unavailable(fallback, errorbank.WithCause(fmt.Errorf("read body: %w", err)))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		message := fallback
		var eb dto.ErrorBody
		if json.Unmarshal(data, &eb) == nil && strings.TrimSpace(eb.Message) != "" {
			message = strings.TrimSpace(eb.Message)
		}
		return nil, errorbank.FromStatus(resp.StatusCode, message,
			errorbank.WithDetail("operation", op),
			errorbank.WithCause(fmt.Errorf("backend %s %s: HTTP %d", method, target, resp.StatusCode)),
		)
	}
	return data, nil
}

// decodeOrder reads the order echoed by a mutation. Backends differ in what
// they return, so an unreadable body yields an empty order.
func decodeOrder(data []byte) entity.Order {
	var wire dto.Order
	if len(bytes.TrimSpace(data)) == 0 || json.Unmarshal(data, &wire) != nil {
		return entity.Order{}
	}
	return wire.ToEntity()
}

func recordSpanError(span trace.Span, err error) {
	if errors.Is(err, context.Canceled) {
		span.SetStatus(codes.Unset, "canceled")
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, errorbank.From(err).Message())
}
