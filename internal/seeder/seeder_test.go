package seeder

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Additional-Code/ordertrack/internal/backendtest"
	"github.com/Additional-Code/ordertrack/internal/catalog"
	"github.com/Additional-Code/ordertrack/internal/config"
	"github.com/Additional-Code/ordertrack/internal/dto"
	repo "github.com/Additional-Code/ordertrack/internal/repository/order"
	ordersvc "github.com/Additional-Code/ordertrack/internal/service/order"
)

func TestOrdersSkipsExistingSerials(t *testing.T) {
	backend := backendtest.New()
	defer backend.Close()
	backend.Seed(dto.Order{SerialNumber: "SN-1001", Owner: "Ahsan", OrderDate: "2026-10-01", DeliveryStatus: "Shipped"})

	svc := ordersvc.NewService(ordersvc.Params{
		Backend: repo.New(backend.OrdersURL(), "owner", 5*time.Second, nil),
		Catalog: catalog.Default(),
		Config:  config.Config{},
		Logger:  zap.NewNop(),
	})
	s := New(svc, zap.NewNop())
	s.now = func() time.Time { return time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC) }

	created, err := s.Orders(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, 2, created)
	assert.Equal(t, 2, backend.Count(http.MethodPost))
	assert.Len(t, backend.Orders(), 3)

	req, _ := backend.Last(http.MethodPost)
	assert.Equal(t, "SN-1002", req.Body["serialNumber"])
	assert.Equal(t, "2026-10-16", req.Body["orderDate"])

	created, err = s.Orders(context.Background(), 3)
	require.NoError(t, err)
	assert.Zero(t, created)
}

func TestSamplesRotateOwners(t *testing.T) {
	svc := ordersvc.NewService(ordersvc.Params{Catalog: catalog.Default(), Logger: zap.NewNop()})
	s := New(svc, nil)

	drafts := s.Samples(4)
	require.Len(t, drafts, 4)
	owners := catalog.Default().Owners()
	assert.Equal(t, owners[0], drafts[0].Owner)
	assert.Equal(t, owners[0], drafts[len(owners)].Owner)
	assert.Equal(t, "SN-1003", drafts[3].SerialNumber)
}
