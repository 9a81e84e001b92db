package order

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/Additional-Code/ordertrack/internal/cache"
	"github.com/Additional-Code/ordertrack/internal/dto"
	"github.com/Additional-Code/ordertrack/internal/entity"
)

// ViewState is what the console remembers about one browser session: the
// active filters and the last list the backend returned.
type ViewState struct {
	Filter    entity.Filter `json:"filter"`
	Orders    []dto.Order   `json:"orders"`
	FetchedAt time.Time     `json:"fetched_at"`
}

// Find returns the order with id from the snapshot.
func (v ViewState) Find(id string) (entity.Order, bool) {
	for _, o := range v.Orders {
		if o.ID == id {
			return o.ToEntity(), true
		}
	}
	return entity.Order{}, false
}

func viewKey(session string) string {
	return "ordertrack:view:" + session
}

// ViewState loads the remembered state for a session. A missing or
// unreadable entry yields an empty state.
func (s *Service) ViewState(ctx context.Context, session string) ViewState {
	if session == "" || s.cache == nil {
		return ViewState{}
	}
	data, err := s.cache.Get(ctx, viewKey(session))
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) && s.logger != nil {
			s.logger.Warn("view state read failed", zap.String("session", session), zap.Error(err))
		}
		return ViewState{}
	}
	var state ViewState
	if err := json.Unmarshal(data, &state); err != nil {
		if s.logger != nil {
			s.logger.Warn("view state decode failed", zap.String("session", session), zap.Error(err))
		}
		return ViewState{}
	}
	return state
}

func (s *Service) storeViewState(ctx context.Context, session string, filter entity.Filter, orders []entity.Order) {
	if session == "" || s.cache == nil {
		return
	}
	state := ViewState{Filter: filter, Orders: make([]dto.Order, 0, len(orders)), FetchedAt: s.now().UTC()}
	for _, o := range orders {
		state.Orders = append(state.Orders, toWire(o))
	}
	data, err := json.Marshal(state)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, viewKey(session), data, s.cacheTTL); err != nil && s.logger != nil {
		s.logger.Warn("view state write failed", zap.String("session", session), zap.Error(err))
	}
}

func toWire(o entity.Order) dto.Order {
	w := dto.Order{
		ID:             o.ID,
		SerialNumber:   o.SerialNumber,
		Owner:          o.Owner,
		OrderDate:      o.OrderDateString(),
		DeliveryStatus: o.DeliveryStatus.String(),
	}
	if !o.CreatedAt.IsZero() {
		w.CreatedAt = o.CreatedAt.Format(time.RFC3339Nano)
	}
	return w
}
