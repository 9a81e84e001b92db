package order

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/Additional-Code/ordertrack/internal/config"
	"github.com/Additional-Code/ordertrack/internal/dto"
	"github.com/Additional-Code/ordertrack/internal/entity"
	"github.com/Additional-Code/ordertrack/internal/presentation/http/response"
	repo "github.com/Additional-Code/ordertrack/internal/repository/order"
	service "github.com/Additional-Code/ordertrack/internal/service/order"
	"github.com/Additional-Code/ordertrack/internal/session"
	"github.com/Additional-Code/ordertrack/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/Additional-Code/ordertrack/transport/http/order")

// Handler serves the order dashboard and its form endpoints.
type Handler struct {
	svc      *service.Service
	sessions *session.Store
	cfg      config.Config
	logger   *zap.Logger
	now      func() time.Time
}

// NewHandler constructs an order Handler.
func NewHandler(svc *service.Service, sessions *session.Store, cfg config.Config, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, sessions: sessions, cfg: cfg, logger: logger, now: time.Now}
}

// Register routes with provided Echo instance.
func Register(e *echo.Echo, h *Handler) {
	e.GET("/", h.dashboard)
	e.GET("/console/api/orders", h.listJSON)

	g := e.Group("/orders")
	g.POST("", h.create)
	g.GET("/:id", h.show)
	g.POST("/:id", h.update)
	g.POST("/:id/status", h.changeStatus)
	g.POST("/:id/delete", h.remove)
}

// pageState carries what a handler wants shown on top of the fresh list.
type pageState struct {
	status  int
	draft   *entity.Draft
	formErr string
	rowID   string
	rowErr  string
	modal   *modalRequest
}

type modalRequest struct {
	id    string
	mode  string
	order *entity.Order
	edit  *entity.Edit
	err   string
}

func (h *Handler) dashboard(c echo.Context) error {
	return h.render(c, pageState{})
}

func (h *Handler) show(c echo.Context) error {
	mode := c.QueryParam("mode")
	if mode != ModeEdit && mode != ModeDelete {
		mode = ModeView
	}
	return h.render(c, pageState{modal: &modalRequest{id: c.Param("id"), mode: mode}})
}

func (h *Handler) listJSON(c echo.Context) error {
	b := response.New(c)
	filter := entity.FilterFromQuery(c.QueryParams())

	orders, err := h.svc.List(c.Request().Context(), session.ID(c), filter)
	if errors.Is(err, service.ErrSuperseded) {
		return b.WithStatus(http.StatusNoContent).Build()
	}
	if err != nil {
		return b.WithError(err).Build()
	}

	data := make([]dto.OrderResponse, 0, len(orders))
	for _, o := range orders {
		data = append(data, dto.ToResponse(o))
	}
	return b.WithData(data).WithMeta("count", len(data)).Build()
}

func (h *Handler) create(c echo.Context) error {
	ctx, span := httpTracer.Start(c.Request().Context(), "orders.create")
	defer span.End()

	draft := entity.Draft{
		SerialNumber: c.FormValue("serialNumber"),
		Owner:        c.FormValue("owner"),
		OrderDate:    c.FormValue("orderDate"),
	}
	span.SetAttributes(attribute.String("order.serial_number", strings.TrimSpace(draft.SerialNumber)))

	created, err := h.svc.Create(ctx, session.ID(c), draft)
	if err != nil {
		return h.render(c, pageState{
			status:  failureStatus(err),
			draft:   &draft,
			formErr: errorbank.MessageOr(err, repo.MsgCreateFailed),
		})
	}

	h.sessions.AddFlash(c, fmt.Sprintf("Order %s added.", created.SerialNumber))
	return h.redirect(c)
}

func (h *Handler) update(c echo.Context) error {
	id := c.Param("id")
	ctx, span := httpTracer.Start(c.Request().Context(), "orders.update", trace.WithAttributes(attribute.String("order.id", id)))
	defer span.End()

	sid := session.ID(c)
	original, err := h.svc.Find(ctx, sid, id)
	if err != nil {
		return h.render(c, pageState{
			status: failureStatus(err),
			modal:  &modalRequest{id: id, mode: ModeEdit, err: errorbank.MessageOr(err, repo.MsgUpdateFailed)},
		})
	}

	edit := entity.Edit{
		SerialNumber:   c.FormValue("serialNumber"),
		Owner:          c.FormValue("owner"),
		OrderDate:      c.FormValue("orderDate"),
		DeliveryStatus: entity.Status(c.FormValue("deliveryStatus")),
		Notes:          c.FormValue("notes"),
	}
	updated, err := h.svc.Update(ctx, sid, original, edit)
	if err != nil {
		return h.render(c, pageState{
			status: failureStatus(err),
			modal: &modalRequest{
				id:    id,
				mode:  ModeEdit,
				order: &original,
				edit:  &edit,
				err:   errorbank.MessageOr(err, repo.MsgUpdateFailed),
			},
		})
	}

	h.sessions.AddFlash(c, fmt.Sprintf("Order %s updated.", orderLabel(updated)))
	return h.redirect(c)
}

func (h *Handler) changeStatus(c echo.Context) error {
	id := c.Param("id")
	change := entity.StatusChange{
		Status: entity.Status(c.FormValue("status")),
		Notes:  c.FormValue("notes"),
	}
	ctx, span := httpTracer.Start(c.Request().Context(), "orders.changeStatus", trace.WithAttributes(
		attribute.String("order.id", id),
		attribute.String("order.status", change.Status.String()),
	))
	defer span.End()

	updated, err := h.svc.ChangeStatus(ctx, session.ID(c), id, change)
	if err != nil {
		return h.render(c, pageState{
			status: failureStatus(err),
			rowID:  id,
			rowErr: errorbank.MessageOr(err, repo.MsgStatusFailed),
		})
	}

	h.sessions.AddFlash(c, fmt.Sprintf("Order %s updated.", orderLabel(updated)))
	return h.redirect(c)
}

func (h *Handler) remove(c echo.Context) error {
	id := c.Param("id")
	if c.FormValue("confirm") != "yes" {
		return h.render(c, pageState{modal: &modalRequest{id: id, mode: ModeDelete}})
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.delete", trace.WithAttributes(attribute.String("order.id", id)))
	defer span.End()

	sid := session.ID(c)
	target, err := h.svc.Find(ctx, sid, id)
	if err != nil {
		return h.render(c, pageState{
			status: failureStatus(err),
			modal:  &modalRequest{id: id, mode: ModeDelete, err: errorbank.MessageOr(err, repo.MsgDeleteFailed)},
		})
	}

	if err := h.svc.Delete(ctx, sid, target, true); err != nil {
		return h.render(c, pageState{
			status: failureStatus(err),
			modal: &modalRequest{
				id:    id,
				mode:  ModeDelete,
				order: &target,
				err:   errorbank.MessageOr(err, repo.MsgDeleteFailed),
			},
		})
	}

	h.sessions.AddFlash(c, fmt.Sprintf("Order %s deleted.", orderLabel(target)))
	return h.redirect(c)
}

// render fetches the list for the active filters and renders the dashboard
// with st layered on top.
func (h *Handler) render(c echo.Context, st pageState) error {
	ctx := c.Request().Context()
	sid := session.ID(c)
	filter := entity.FilterFromQuery(c.QueryParams())
	l := newLinks(filter)
	cat := h.svc.Catalog()

	orders, listErr := h.svc.List(ctx, sid, filter)
	if errors.Is(listErr, service.ErrSuperseded) {
		snapshot := h.svc.ViewState(ctx, sid)
		orders, listErr = make([]entity.Order, 0, len(snapshot.Orders)), nil
		for _, o := range snapshot.Orders {
			orders = append(orders, o.ToEntity())
		}
	}

	page := Page{
		Title:         "Order Tracking",
		Nav:           navState(l, c.QueryParams()),
		Filter:        filter,
		OwnerOptions:  cat.OwnerOptions(orders, filter.Owner),
		StatusOptions: cat.Statuses(),
		Form: FormState{
			Action: l.create(),
			Draft:  h.svc.NewDraft(),
			Owners: cat.OwnerOptions(orders, ""),
			Error:  st.formErr,
		},
		Footer: FooterState{
			Year:        h.now().Year(),
			ServiceName: h.cfg.Observability.ServiceName,
			BackendURL:  h.cfg.Backend.OrdersURL(),
		},
	}
	if st.draft != nil {
		page.Form.Draft = *st.draft
	}
	if listErr != nil {
		h.logger.Warn("order list failed", zap.Error(listErr))
		page.ListError = errorbank.MessageOr(listErr, repo.MsgListFailed)
	}

	page.Rows = make([]Row, 0, len(orders))
	for _, o := range orders {
		row := Row{
			Order:         o,
			StatusOptions: cat.StatusOptions(o.DeliveryStatus),
			StatusAction:  l.status(o.ID),
			ViewURL:       l.order(o.ID),
		}
		if o.ID == st.rowID {
			row.Error = st.rowErr
		}
		page.Rows = append(page.Rows, row)
	}
	page.Count = len(page.Rows)

	if st.modal != nil {
		page.Modal = h.modal(ctx, sid, l, orders, st.modal)
	}
	if flashes := h.sessions.PopFlash(c); len(flashes) > 0 {
		page.Flash = strings.Join(flashes, " ")
	}

	status := st.status
	if status == 0 {
		status = http.StatusOK
	}
	return response.New(c).WithView(viewDashboard).WithStatus(status).WithData(page).Build()
}

func (h *Handler) modal(ctx context.Context, sid string, l links, orders []entity.Order, req *modalRequest) *ModalState {
	m := &ModalState{
		Mode:         req.mode,
		Error:        req.err,
		CloseURL:     l.dashboard(),
		ViewURL:      l.order(req.id),
		EditURL:      l.orderMode(req.id, ModeEdit),
		DeleteURL:    l.orderMode(req.id, ModeDelete),
		UpdateAction: l.order(req.id),
		DeleteAction: l.remove(req.id),
	}

	switch {
	case req.order != nil:
		m.Order, m.Found = *req.order, true
	default:
		for _, o := range orders {
			if o.ID == req.id {
				m.Order, m.Found = o, true
				break
			}
		}
		if !m.Found {
			if o, err := h.svc.Find(ctx, sid, req.id); err == nil {
				m.Order, m.Found = o, true
			}
		}
	}
	if !m.Found {
		if m.Error == "" {
			m.Error = service.MsgOrderNotFound
		}
		return m
	}

	m.Edit = entity.EditFrom(m.Order)
	if req.edit != nil {
		m.Edit = *req.edit
	}
	m.StatusOptions = h.svc.Catalog().StatusOptions(m.Order.DeliveryStatus)
	return m
}

func (h *Handler) redirect(c echo.Context) error {
	return c.Redirect(http.StatusSeeOther, newLinks(entity.FilterFromQuery(c.QueryParams())).dashboard())
}

// failureStatus keeps page renders for failed mutations in the 4xx/5xx range
// the error maps to.
func failureStatus(err error) int {
	return errorbank.From(err).StatusCode()
}

func orderLabel(o entity.Order) string {
	if o.SerialNumber != "" {
		return o.SerialNumber
	}
	return o.ID
}
