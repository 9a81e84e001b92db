package cli

import (
	"bytes"
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Additional-Code/ordertrack/internal/backendtest"
	"github.com/Additional-Code/ordertrack/internal/catalog"
	"github.com/Additional-Code/ordertrack/internal/config"
	"github.com/Additional-Code/ordertrack/internal/dto"
	"github.com/Additional-Code/ordertrack/internal/entity"
	repo "github.com/Additional-Code/ordertrack/internal/repository/order"
	ordersvc "github.com/Additional-Code/ordertrack/internal/service/order"
)

func newTestCLI(t *testing.T) (*backendtest.Backend, func(stdin string, args ...string) (string, error)) {
	t.Helper()
	backend := backendtest.New()
	t.Cleanup(backend.Close)

	svc := ordersvc.NewService(ordersvc.Params{
		Backend: repo.New(backend.OrdersURL(), "owner", 5*time.Second, nil),
		Catalog: catalog.Default(),
		Config:  config.Config{},
		Logger:  zap.NewNop(),
	})
	runner := func(ctx context.Context, fn func(context.Context, *ordersvc.Service) error) error {
		return fn(ctx, svc)
	}

	exec := func(stdin string, args ...string) (string, error) {
		root := newRootCommand(runner)
		var out bytes.Buffer
		root.SetOut(&out)
		root.SetErr(&out)
		root.SetIn(strings.NewReader(stdin))
		root.SetArgs(args)
		err := root.ExecuteContext(context.Background())
		return out.String(), err
	}
	return backend, exec
}

func seedOne(backend *backendtest.Backend) {
	backend.Seed(dto.Order{ID: "ord-1", SerialNumber: "SN-001", Owner: "Ahsan", OrderDate: "2026-10-01", DeliveryStatus: "Pending"})
}

func TestOrdersCreateAndList(t *testing.T) {
	backend, exec := newTestCLI(t)

	out, err := exec("", "orders", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No orders found matching your criteria.")

	out, err = exec("", "orders", "create", "--serial", "SN-001", "--owner", "Ahsan", "--date", "2026-10-18")
	require.NoError(t, err)
	assert.Contains(t, out, "Order SN-001 added.")
	req, _ := backend.Last(http.MethodPost)
	assert.Equal(t, map[string]any{"serialNumber": "SN-001", "owner": "Ahsan", "orderDate": "2026-10-18"}, req.Body)

	out, err = exec("", "orders", "list", "--owner", "Ahsan")
	require.NoError(t, err)
	assert.Contains(t, out, "SN-001")
	assert.Contains(t, out, "Pending")
	assert.Contains(t, out, "1 order")
	req, _ = backend.Last(http.MethodGet)
	assert.Equal(t, "owner=Ahsan", req.Query.Encode())
}

func TestOrdersCreateSurfacesServerMessage(t *testing.T) {
	backend, exec := newTestCLI(t)
	backend.Fail(http.MethodPost, http.StatusConflict, "Serial number already exists")

	_, err := exec("", "orders", "create", "--serial", "SN-001", "--owner", "Ahsan")
	require.Error(t, err)
	assert.Equal(t, "Serial number already exists", err.Error())
}

func TestOrdersListJSON(t *testing.T) {
	backend, exec := newTestCLI(t)
	seedOne(backend)

	out, err := exec("", "orders", "list", "-o", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"serial_number": "SN-001"`)
}

func TestOrdersEditKeepsUnsetFields(t *testing.T) {
	backend, exec := newTestCLI(t)
	seedOne(backend)

	out, err := exec("", "orders", "edit", "ord-1", "--status", "Shipped")
	require.NoError(t, err)
	assert.Contains(t, out, "Order SN-001 updated.")

	req, _ := backend.Last(http.MethodPut)
	assert.Equal(t, map[string]any{
		"serialNumber":   "SN-001",
		"owner":          "Ahsan",
		"orderDate":      "2026-10-01",
		"deliveryStatus": "Shipped",
		"notes":          "Status manually changed to Shipped",
	}, req.Body)
}

func TestOrdersStatus(t *testing.T) {
	backend, exec := newTestCLI(t)
	seedOne(backend)

	out, err := exec("", "orders", "status", "ord-1", "delivered", "--notes", "Signed")
	require.NoError(t, err)
	assert.Contains(t, out, "updated to Delivered")
	req, _ := backend.Last(http.MethodPatch)
	assert.Equal(t, map[string]any{"deliveryStatus": "Delivered", "notes": "Signed"}, req.Body)

	_, err = exec("", "orders", "status", "ord-1", "Lost")
	require.Error(t, err)
	assert.Equal(t, ordersvc.MsgUnknownStatus, err.Error())
}

func TestOrdersDeleteConfirmation(t *testing.T) {
	backend, exec := newTestCLI(t)
	seedOne(backend)

	out, err := exec("n\n", "orders", "delete", "ord-1")
	require.NoError(t, err)
	assert.Contains(t, out, "Delete order SN-001 permanently?")
	assert.Contains(t, out, "Deletion cancelled.")
	assert.Zero(t, backend.Count(http.MethodDelete))

	out, err = exec("y\n", "orders", "delete", "ord-1")
	require.NoError(t, err)
	assert.Contains(t, out, "Order SN-001 deleted.")
	assert.Equal(t, 1, backend.Count(http.MethodDelete))
}

func TestOrdersDeleteYesFlag(t *testing.T) {
	backend, exec := newTestCLI(t)
	seedOne(backend)

	out, err := exec("", "orders", "delete", "ord-1", "--yes")
	require.NoError(t, err)
	assert.NotContains(t, out, "permanently?")
	assert.Equal(t, 1, backend.Count(http.MethodDelete))
}

func TestStatusesCommand(t *testing.T) {
	_, exec := newTestCLI(t)

	out, err := exec("", "statuses")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, len(entity.Statuses()))
	assert.Equal(t, "Pending (default)", lines[0])
	assert.Equal(t, "Returned", lines[len(lines)-1])
}

func TestSeedCommand(t *testing.T) {
	backend, exec := newTestCLI(t)

	out, err := exec("", "seed", "--count", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "seeded 2 orders")
	assert.Len(t, backend.Orders(), 2)
}
