package session

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Additional-Code/ordertrack/internal/config"
)

func newTestEcho(store *Store) *echo.Echo {
	e := echo.New()
	e.Use(store.Middleware())
	e.GET("/id", func(c echo.Context) error {
		return c.String(http.StatusOK, ID(c))
	})
	e.GET("/flash", func(c echo.Context) error {
		store.AddFlash(c, "Order SN-001 added.")
		return c.NoContent(http.StatusSeeOther)
	})
	e.GET("/pop", func(c echo.Context) error {
		msgs := store.PopFlash(c)
		if len(msgs) == 0 {
			return c.String(http.StatusOK, "")
		}
		return c.String(http.StatusOK, msgs[0])
	})
	return e
}

func cookiesFrom(rec *httptest.ResponseRecorder) []*http.Cookie {
	res := http.Response{Header: rec.Header()}
	return res.Cookies()
}

func lastCookie(cookies []*http.Cookie) *http.Cookie {
	return cookies[len(cookies)-1]
}

func TestMiddlewareAssignsStableID(t *testing.T) {
	e := newTestEcho(NewStore(config.Config{Web: config.Web{SessionSecret: "test-secret"}}, nil))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/id", nil))
	first := rec.Body.String()
	require.NotEmpty(t, first)
	cookies := cookiesFrom(rec)
	require.NotEmpty(t, cookies)

	req := httptest.NewRequest(http.MethodGet, "/id", nil)
	req.AddCookie(lastCookie(cookies))
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, first, rec.Body.String())
	assert.Empty(t, cookiesFrom(rec))

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/id", nil))
	assert.NotEqual(t, first, rec.Body.String())
}

func TestFlashIsShownOnce(t *testing.T) {
	e := newTestEcho(NewStore(config.Config{Web: config.Web{SessionSecret: "test-secret"}}, nil))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/flash", nil))
	cookie := lastCookie(cookiesFrom(rec))

	req := httptest.NewRequest(http.MethodGet, "/pop", nil)
	req.AddCookie(cookie)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, "Order SN-001 added.", rec.Body.String())
	cookie = lastCookie(cookiesFrom(rec))

	req = httptest.NewRequest(http.MethodGet, "/pop", nil)
	req.AddCookie(cookie)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Empty(t, rec.Body.String())
}

func TestIDOutsideMiddleware(t *testing.T) {
	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	assert.Equal(t, "", ID(c))
}
