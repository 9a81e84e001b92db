package order

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/ordertrack/internal/cache"
	"github.com/Additional-Code/ordertrack/internal/catalog"
	"github.com/Additional-Code/ordertrack/internal/config"
	"github.com/Additional-Code/ordertrack/internal/dto"
	"github.com/Additional-Code/ordertrack/internal/entity"
	"github.com/Additional-Code/ordertrack/internal/messaging"
	"github.com/Additional-Code/ordertrack/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/Additional-Code/ordertrack/service/order")

// User facing messages produced by the service itself.
const (
	MsgBusy          = "A request is already in progress."
	MsgMissingFields = "Serial number, owner and order date are required."
	MsgInvalidDate   = "Order date must be a valid date (YYYY-MM-DD)."
	MsgUnknownStatus = "Unknown delivery status."
	MsgNotConfirmed  = "Deletion must be confirmed."
	MsgOrderNotFound = "Order not found."
)

// DefaultStatusNote is the reason sent when a status change carries no notes.
const DefaultStatusNote = "Status manually changed to %s"

// ErrSuperseded is returned by List when a newer list request for the same
// session started before this one finished.
var ErrSuperseded = errors.New("list request superseded")

// Backend is the order REST backend the service drives.
type Backend interface {
	List(ctx context.Context, filter entity.Filter) ([]entity.Order, error)
	Create(ctx context.Context, req dto.CreateOrderRequest) (entity.Order, error)
	Update(ctx context.Context, id string, req dto.UpdateOrderRequest) (entity.Order, error)
	PatchStatus(ctx context.Context, id string, req dto.StatusPatchRequest) (entity.Order, error)
	Delete(ctx context.Context, id string) error
}

// Service holds the client side rules of the order console: which fields
// each request carries, per-session sequencing and duplicate suppression.
type Service struct {
	backend   Backend
	catalog   *catalog.Catalog
	cache     cache.Store
	cacheTTL  time.Duration
	logger    *zap.Logger
	publisher messaging.Client
	messaging messagingConfig
	sequencer *Sequencer
	guard     *Guard
	now       func() time.Time
}

// messagingConfig contains messaging specific knobs we care about.
type messagingConfig struct {
	enabled bool
	topic   string
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Backend   Backend
	Catalog   *catalog.Catalog
	Cache     cache.Store `optional:"true"`
	Config    config.Config
	Logger    *zap.Logger
	Publisher messaging.Client `optional:"true"`
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	cat := p.Catalog
	if cat == nil {
		cat = catalog.Default()
	}
	return &Service{
		backend:   p.Backend,
		catalog:   cat,
		cache:     p.Cache,
		cacheTTL:  p.Config.Cache.DefaultTTL,
		logger:    p.Logger,
		publisher: p.Publisher,
		messaging: messagingConfig{
			enabled: p.Config.Messaging.Enabled,
			topic:   p.Config.Messaging.Kafka.Topic,
		},
		sequencer: NewSequencer(),
		guard:     NewGuard(),
		now:       time.Now,
	}
}

// Catalog exposes the status/owner catalog used by the service.
func (s *Service) Catalog() *catalog.Catalog { return s.catalog }

// NewDraft returns an empty creation draft dated today.
func (s *Service) NewDraft() entity.Draft {
	return entity.NewDraft(s.now())
}

// List fetches the orders for a filter and, for a browser session, replaces
// the session snapshot with the result. When a newer List starts for the
// same session, the older call is canceled and returns ErrSuperseded.
func (s *Service) List(ctx context.Context, session string, filter entity.Filter) ([]entity.Order, error) {
	filter = filter.Normalized()
	ctx, span := serviceTracer.Start(ctx, "OrderService.List", trace.WithAttributes(attribute.Bool("session", session != "")))
	defer span.End()

	if session == "" {
		orders, err := s.backend.List(ctx, filter)
		if err != nil {
			markSpan(span, err)
			return nil, err
		}
		return orders, nil
	}

	runCtx, ticket := s.sequencer.Begin(ctx, session)
	defer ticket.Done()

	orders, err := s.backend.List(runCtx, filter)
	if !ticket.Current() {
		span.SetAttributes(attribute.Bool("superseded", true))
		return nil, ErrSuperseded
	}
	if err != nil {
		markSpan(span, err)
		return nil, err
	}

	s.storeViewState(ctx, session, filter, orders)
	return orders, nil
}

// Find resolves an order by id, first from the session snapshot, then from an
// unfiltered list.
func (s *Service) Find(ctx context.Context, session, id string) (entity.Order, error) {
	if o, ok := s.ViewState(ctx, session).Find(id); ok {
		return o, nil
	}
	orders, err := s.backend.List(ctx, entity.Filter{})
	if err != nil {
		return entity.Order{}, err
	}
	for _, o := range orders {
		if o.ID == id {
			return o, nil
		}
	}
	return entity.Order{}, errorbank.NotFound(MsgOrderNotFound, errorbank.WithDetail("id", id))
}

// Create validates the draft and posts it to the backend.
func (s *Service) Create(ctx context.Context, session string, draft entity.Draft) (entity.Order, error) {
	draft = draft.Trimmed()
	ctx, span := serviceTracer.Start(ctx, "OrderService.Create", trace.WithAttributes(attribute.String("order.serial_number", draft.SerialNumber)))
	defer span.End()

	if err := validateFields(draft.SerialNumber, draft.Owner, draft.OrderDate); err != nil {
		return entity.Order{}, err
	}

	release, ok := s.guard.Acquire(session + "|create")
	if !ok {
		return entity.Order{}, errorbank.Conflict(MsgBusy)
	}
	defer release()

	created, err := s.backend.Create(ctx, dto.CreateOrderRequest{
		SerialNumber: draft.SerialNumber,
		Owner:        draft.Owner,
		OrderDate:    draft.OrderDate,
	})
	if err != nil {
		markSpan(span, err)
		s.logFailure("create order failed", err, zap.String("serial_number", draft.SerialNumber))
		return entity.Order{}, err
	}

	if created.SerialNumber == "" {
		created.SerialNumber = draft.SerialNumber
		created.Owner = draft.Owner
	}
	s.publish(ctx, OrderEvent{
		Type:         EventCreated,
		OrderID:      created.ID,
		SerialNumber: created.SerialNumber,
		Owner:        created.Owner,
		Status:       created.DeliveryStatus.String(),
		Session:      session,
	})
	return created, nil
}

// BuildUpdate produces the PUT body for an edit of original. Notes are only
// sent when the delivery status changes; a blank note then gets a default
// reason.
func (s *Service) BuildUpdate(original entity.Order, edit entity.Edit) (dto.UpdateOrderRequest, error) {
	edit.SerialNumber = strings.TrimSpace(edit.SerialNumber)
	edit.Owner = strings.TrimSpace(edit.Owner)
	edit.OrderDate = strings.TrimSpace(edit.OrderDate)

	if err := validateFields(edit.SerialNumber, edit.Owner, edit.OrderDate); err != nil {
		return dto.UpdateOrderRequest{}, err
	}

	status := edit.DeliveryStatus
	if status == "" {
		status = original.DeliveryStatus
	}
	if resolved, ok := s.catalog.ParseStatus(string(status)); ok {
		status = resolved
	} else if !strings.EqualFold(string(status), string(original.DeliveryStatus)) {
		return dto.UpdateOrderRequest{}, errorbank.Unprocessable(MsgUnknownStatus, errorbank.WithDetail("status", string(status)))
	} else {
		status = original.DeliveryStatus
	}

	req := dto.UpdateOrderRequest{
		SerialNumber:   edit.SerialNumber,
		Owner:          edit.Owner,
		OrderDate:      edit.OrderDate,
		DeliveryStatus: status.String(),
	}
	if status != original.DeliveryStatus {
		notes := strings.TrimSpace(edit.Notes)
		if notes == "" {
			notes = fmt.Sprintf(DefaultStatusNote, status)
		}
		req.Notes = &notes
	}
	return req, nil
}

// Update sends an edit of original to the backend.
func (s *Service) Update(ctx context.Context, session string, original entity.Order, edit entity.Edit) (entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.Update", trace.WithAttributes(attribute.String("order.id", original.ID)))
	defer span.End()

	req, err := s.BuildUpdate(original, edit)
	if err != nil {
		return entity.Order{}, err
	}

	release, ok := s.guard.Acquire(session + "|order|" + original.ID)
	if !ok {
		return entity.Order{}, errorbank.Conflict(MsgBusy)
	}
	defer release()

	updated, err := s.backend.Update(ctx, original.ID, req)
	if err != nil {
		markSpan(span, err)
		s.logFailure("update order failed", err, zap.String("order_id", original.ID))
		return entity.Order{}, err
	}
	if updated.ID == "" {
		updated = entity.Order{
			ID:             original.ID,
			SerialNumber:   req.SerialNumber,
			Owner:          req.Owner,
			OrderDate:      original.OrderDate,
			DeliveryStatus: entity.Status(req.DeliveryStatus),
			CreatedAt:      original.CreatedAt,
		}
	}

	event := OrderEvent{
		Type:         EventUpdated,
		OrderID:      original.ID,
		SerialNumber: req.SerialNumber,
		Owner:        req.Owner,
		Status:       req.DeliveryStatus,
		Session:      session,
	}
	if req.Notes != nil {
		event.PreviousStatus = original.DeliveryStatus.String()
		event.Notes = *req.Notes
	}
	s.publish(ctx, event)
	return updated, nil
}

// ChangeStatus sends a status-only update. Blank notes are left out of the
// request.
func (s *Service) ChangeStatus(ctx context.Context, session, id string, change entity.StatusChange) (entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.ChangeStatus", trace.WithAttributes(
		attribute.String("order.id", id),
		attribute.String("order.status", change.Status.String()),
	))
	defer span.End()

	status, ok := s.catalog.ParseStatus(change.Status.String())
	if !ok {
		return entity.Order{}, errorbank.Unprocessable(MsgUnknownStatus, errorbank.WithDetail("status", change.Status.String()))
	}

	req := dto.StatusPatchRequest{DeliveryStatus: status.String()}
	if notes := strings.TrimSpace(change.Notes); notes != "" {
		req.Notes = &notes
	}

	release, ok := s.guard.Acquire(session + "|order|" + id)
	if !ok {
		return entity.Order{}, errorbank.Conflict(MsgBusy)
	}
	defer release()

	previous, _ := s.ViewState(ctx, session).Find(id)

	updated, err := s.backend.PatchStatus(ctx, id, req)
	if err != nil {
		markSpan(span, err)
		s.logFailure("status change failed", err, zap.String("order_id", id), zap.String("status", req.DeliveryStatus))
		return entity.Order{}, err
	}
	if updated.ID == "" {
		updated = previous
		updated.ID = id
		updated.DeliveryStatus = status
	}

	s.publish(ctx, OrderEvent{
		Type:           EventStatusChanged,
		OrderID:        id,
		SerialNumber:   updated.SerialNumber,
		Owner:          updated.Owner,
		Status:         req.DeliveryStatus,
		PreviousStatus: previous.DeliveryStatus.String(),
		Notes:          strings.TrimSpace(change.Notes),
		Session:        session,
	})
	return updated, nil
}

// Delete removes an order once the user confirmed it. Without confirmation
// no request is sent.
func (s *Service) Delete(ctx context.Context, session string, order entity.Order, confirmed bool) error {
	if !confirmed {
		return errorbank.BadRequest(MsgNotConfirmed, errorbank.WithDetail("id", order.ID))
	}
	ctx, span := serviceTracer.Start(ctx, "OrderService.Delete", trace.WithAttributes(attribute.String("order.id", order.ID)))
	defer span.End()

	release, ok := s.guard.Acquire(session + "|order|" + order.ID)
	if !ok {
		return errorbank.Conflict(MsgBusy)
	}
	defer release()

	if err := s.backend.Delete(ctx, order.ID); err != nil {
		markSpan(span, err)
		s.logFailure("delete order failed", err, zap.String("order_id", order.ID))
		return err
	}

	s.publish(ctx, OrderEvent{
		Type:         EventDeleted,
		OrderID:      order.ID,
		SerialNumber: order.SerialNumber,
		Owner:        order.Owner,
		Status:       order.DeliveryStatus.String(),
		Session:      session,
	})
	return nil
}

func validateFields(serial, owner, date string) error {
	if serial == "" || owner == "" || date == "" {
		return errorbank.Unprocessable(MsgMissingFields, errorbank.WithDetails(map[string]any{
			"serialNumber": serial != "",
			"owner":        owner != "",
			"orderDate":    date != "",
		}))
	}
	if _, err := time.Parse(entity.DateLayout, date); err != nil {
		return errorbank.Unprocessable(MsgInvalidDate, errorbank.WithCause(err))
	}
	return nil
}

func (s *Service) logFailure(msg string, err error, fields ...zap.Field) {
	if s.logger == nil {
		return
	}
	appErr := errorbank.From(err)
	fields = append(fields, zap.String("kind", string(appErr.Kind())), zap.Error(err))
	if appErr.Kind() == errorbank.KindInternal || appErr.Kind() == errorbank.KindUnavailable {
		s.logger.Error(msg, fields...)
		return
	}
	s.logger.Warn(msg, fields...)
}

func markSpan(span trace.Span, err error) {
	if errors.Is(err, context.Canceled) {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, errorbank.From(err).Message())
}
