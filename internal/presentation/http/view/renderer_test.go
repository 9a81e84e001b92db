package view

import (
	"bytes"
	"io/fs"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Additional-Code/ordertrack/internal/entity"
)

func TestRendererParsesPages(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)
	assert.Contains(t, r.pages, "dashboard")
	assert.NotContains(t, r.pages, "layout")

	var buf bytes.Buffer
	assert.Error(t, r.Render(&buf, "missing", nil, nil))
}

func TestTemplateFuncs(t *testing.T) {
	r := &Renderer{now: func() time.Time { return time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC) }}
	funcs := r.funcs()

	slug := funcs["statusSlug"].(func(entity.Status) string)
	assert.Equal(t, "in-transit", slug(entity.StatusInTransit))

	formatDate := funcs["formatDate"].(func(time.Time) string)
	assert.Equal(t, "Oct 1, 2026", formatDate(time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "-", formatDate(time.Time{}))

	timeAgo := funcs["timeAgo"].(func(time.Time) string)
	assert.Equal(t, "3 hours ago", timeAgo(time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)))

	plural := funcs["plural"].(func(int, string, string) string)
	assert.Equal(t, "order", plural(1, "order", "orders"))
	assert.Equal(t, "orders", plural(0, "order", "orders"))
}

func TestStaticAssets(t *testing.T) {
	data, err := fs.ReadFile(Static(), "console.css")
	require.NoError(t, err)
	assert.Contains(t, string(data), ".modal")
	_, err = fs.ReadFile(Static(), "console.js")
	assert.NoError(t, err)
}
