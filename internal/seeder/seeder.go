package seeder

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Additional-Code/ordertrack/internal/entity"
	ordersvc "github.com/Additional-Code/ordertrack/internal/service/order"
)

// Seeder loads sample orders into the backend for local/dev setups.
type Seeder struct {
	svc    *ordersvc.Service
	logger *zap.Logger
	now    func() time.Time
}

// New constructs a Seeder that goes through the order service.
func New(svc *ordersvc.Service, logger *zap.Logger) *Seeder {
	return &Seeder{svc: svc, logger: logger, now: time.Now}
}

// Samples returns count drafts spread over the known owners, dated over the
// last days.
func (s *Seeder) Samples(count int) []entity.Draft {
	owners := s.svc.Catalog().Owners()
	if len(owners) == 0 {
		owners = []string{"Ahsan"}
	}
	today := s.now()
	drafts := make([]entity.Draft, 0, count)
	for i := 0; i < count; i++ {
		drafts = append(drafts, entity.Draft{
			SerialNumber: fmt.Sprintf("SN-%04d", 1000+i),
			Owner:        owners[i%len(owners)],
			OrderDate:    today.AddDate(0, 0, -i).Format(entity.DateLayout),
		})
	}
	return drafts
}

// Orders creates the sample orders whose serial numbers are missing from the
// backend and returns how many were created.
func (s *Seeder) Orders(ctx context.Context, count int) (int, error) {
	existing, err := s.svc.List(ctx, "", entity.Filter{})
	if err != nil {
		return 0, err
	}
	seen := make(map[string]bool, len(existing))
	for _, o := range existing {
		seen[o.SerialNumber] = true
	}

	created := 0
	for _, draft := range s.Samples(count) {
		if seen[draft.SerialNumber] {
			continue
		}
		if _, err := s.svc.Create(ctx, "", draft); err != nil {
			return created, fmt.Errorf("seed %s: %w", draft.SerialNumber, err)
		}
		created++
	}

	if s.logger != nil {
		s.logger.Info("seeded orders", zap.Int("created", created), zap.Int("skipped", count-created))
	}
	return created, nil
}
