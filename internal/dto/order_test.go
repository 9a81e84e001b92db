package dto

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Additional-Code/ordertrack/internal/entity"
)

func TestOrderToEntity(t *testing.T) {
	raw := `{"_id":"65f1","serialNumber":"SN-001","owner":"Ahsan","orderDate":"2026-10-18T00:00:00.000Z","deliveryStatus":"Pending","createdAt":"2026-10-18T09:30:00.000Z"}`

	var o Order
	require.NoError(t, json.Unmarshal([]byte(raw), &o))

	got := o.ToEntity()
	assert.Equal(t, "65f1", got.ID)
	assert.Equal(t, entity.StatusPending, got.DeliveryStatus)
	assert.Equal(t, "2026-10-18", got.OrderDateString())
	assert.Equal(t, time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC), got.CreatedAt)
}

func TestOrderToEntityLegacyVendor(t *testing.T) {
	got := Order{ID: "1", Vendor: "Habibi Tools", OrderDate: "2026-01-02", CreatedAt: "garbage"}.ToEntity()
	assert.Equal(t, "Habibi Tools", got.Owner)
	assert.Equal(t, "2026-01-02", got.OrderDateString())
	assert.True(t, got.CreatedAt.IsZero())
}

func TestNotesOmittedWhenNil(t *testing.T) {
	data, err := json.Marshal(UpdateOrderRequest{SerialNumber: "SN", Owner: "A", OrderDate: "2026-10-18", DeliveryStatus: "Pending"})
	require.NoError(t, err)
	assert.NotContains(t, string(data), "notes")

	notes := "customer asked"
	data, err = json.Marshal(StatusPatchRequest{DeliveryStatus: "Shipped", Notes: &notes})
	require.NoError(t, err)
	assert.JSONEq(t, `{"deliveryStatus":"Shipped","notes":"customer asked"}`, string(data))
}
