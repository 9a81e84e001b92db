// Package backendtest provides an in-memory order backend for tests.
package backendtest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/Additional-Code/ordertrack/internal/dto"
)

// Request is one call received by the fake backend.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   map[string]any
}

type failure struct {
	status  int
	message string
}

// Backend mimics the /api/orders REST resource.
type Backend struct {
	Server *httptest.Server

	mu       sync.Mutex
	orders   []dto.Order
	requests []Request
	failures map[string]failure
	nextID   int
	now      func() time.Time
	hold     chan struct{}
}

// OrdersPath is the collection path served by the fake.
const OrdersPath = "/api/orders"

// New starts a fake backend. Call Close when done.
func New() *Backend {
	b := &Backend{
		failures: make(map[string]failure),
		now:      func() time.Time { return time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC) },
	}
	b.Server = httptest.NewServer(http.HandlerFunc(b.serve))
	return b
}

// Close shuts the server down.
func (b *Backend) Close() { b.Server.Close() }

// OrdersURL returns the collection URL.
func (b *Backend) OrdersURL() string { return b.Server.URL + OrdersPath }

// Seed adds orders directly, bypassing the request log.
func (b *Backend) Seed(orders ...dto.Order) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, o := range orders {
		if o.ID == "" {
			b.nextID++
			o.ID = fmt.Sprintf("ord-%d", b.nextID)
		}
		if o.CreatedAt == "" {
			o.CreatedAt = b.now().Format(time.RFC3339)
		}
		b.orders = append(b.orders, o)
	}
}

// Fail makes the next request with the given method answer status with a
// {message} body. An empty message produces an empty body.
func (b *Backend) Fail(method string, status int, message string) {
	b.mu.Lock()
	b.failures[method] = failure{status: status, message: message}
	b.mu.Unlock()
}

// Hold blocks GET requests until the returned release func is called.
func (b *Backend) Hold() (release func()) {
	ch := make(chan struct{})
	b.mu.Lock()
	b.hold = ch
	b.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			b.hold = nil
			b.mu.Unlock()
			close(ch)
		})
	}
}

// Requests returns a copy of the request log.
func (b *Backend) Requests() []Request {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Request(nil), b.requests...)
}

// Count returns how many requests used method.
func (b *Backend) Count(method string) int {
	n := 0
	for _, r := range b.Requests() {
		if r.Method == method {
			n++
		}
	}
	return n
}

// Last returns the most recent request with method.
func (b *Backend) Last(method string) (Request, bool) {
	reqs := b.Requests()
	for i := len(reqs) - 1; i >= 0; i-- {
		if reqs[i].Method == method {
			return reqs[i], true
		}
	}
	return Request{}, false
}

// Orders returns a copy of the stored orders.
func (b *Backend) Orders() []dto.Order {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]dto.Order(nil), b.orders...)
}

func (b *Backend) serve(w http.ResponseWriter, r *http.Request) {
	raw, _ := io.ReadAll(r.Body)
	var body map[string]any
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &body)
	}

	b.mu.Lock()
	b.requests = append(b.requests, Request{Method: r.Method, Path: r.URL.Path, Query: r.URL.Query(), Body: body})
	f, failing := b.failures[r.Method]
	delete(b.failures, r.Method)
	hold := b.hold
	b.mu.Unlock()

	if r.Method == http.MethodGet && hold != nil {
		select {
		case <-hold:
		case <-r.Context().Done():
			return
		}
	}

	if failing {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(f.status)
		if f.message != "" {
			_ = json.NewEncoder(w).Encode(dto.ErrorBody{Message: f.message})
		}
		return
	}

	id := strings.TrimPrefix(strings.TrimPrefix(r.URL.Path, OrdersPath), "/")
	switch {
	case r.URL.Path == OrdersPath && r.Method == http.MethodGet:
		b.list(w, r.URL.Query())
	case r.URL.Path == OrdersPath && r.Method == http.MethodPost:
		b.create(w, body)
	case id != "" && r.Method == http.MethodPut:
		b.update(w, id, body, true)
	case id != "" && r.Method == http.MethodPatch:
		b.update(w, id, body, false)
	case id != "" && r.Method == http.MethodDelete:
		b.remove(w, id)
	default:
		writeJSON(w, http.StatusNotFound, dto.ErrorBody{Message: "route not found"})
	}
}

func (b *Backend) list(w http.ResponseWriter, q url.Values) {
	b.mu.Lock()
	defer b.mu.Unlock()

	owner := q.Get("owner")
	if owner == "" {
		owner = q.Get("vendor")
	}
	out := make([]dto.Order, 0, len(b.orders))
	for _, o := range b.orders {
		if owner != "" && o.Owner != owner {
			continue
		}
		if s := q.Get("status"); s != "" && o.DeliveryStatus != s {
			continue
		}
		if s := q.Get("search"); s != "" && !strings.Contains(strings.ToLower(o.SerialNumber), strings.ToLower(s)) {
			continue
		}
		out = append(out, o)
	}
	writeJSON(w, http.StatusOK, out)
}

func (b *Backend) create(w http.ResponseWriter, body map[string]any) {
	b.mu.Lock()
	defer b.mu.Unlock()

	serial, _ := body["serialNumber"].(string)
	owner, _ := body["owner"].(string)
	date, _ := body["orderDate"].(string)
	if serial == "" || owner == "" || date == "" {
		writeJSON(w, http.StatusBadRequest, dto.ErrorBody{Message: "serialNumber, owner and orderDate are required"})
		return
	}
	for _, o := range b.orders {
		if o.SerialNumber == serial {
			writeJSON(w, http.StatusConflict, dto.ErrorBody{Message: "Serial number already exists"})
			return
		}
	}
	b.nextID++
	o := dto.Order{
		ID:             fmt.Sprintf("ord-%d", b.nextID),
		SerialNumber:   serial,
		Owner:          owner,
		OrderDate:      date + "T00:00:00.000Z",
		DeliveryStatus: "Pending",
		CreatedAt:      b.now().Format(time.RFC3339),
	}
	b.orders = append(b.orders, o)
	writeJSON(w, http.StatusCreated, o)
}

func (b *Backend) update(w http.ResponseWriter, id string, body map[string]any, full bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, o := range b.orders {
		if o.ID != id {
			continue
		}
		if full {
			if v, ok := body["serialNumber"].(string); ok {
				o.SerialNumber = v
			}
			if v, ok := body["owner"].(string); ok {
				o.Owner = v
			}
			if v, ok := body["orderDate"].(string); ok {
				o.OrderDate = v
			}
		}
		if v, ok := body["deliveryStatus"].(string); ok {
			o.DeliveryStatus = v
		}
		b.orders[i] = o
		writeJSON(w, http.StatusOK, o)
		return
	}
	writeJSON(w, http.StatusNotFound, dto.ErrorBody{Message: "Order not found"})
}

func (b *Backend) remove(w http.ResponseWriter, id string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, o := range b.orders {
		if o.ID == id {
			b.orders = append(b.orders[:i], b.orders[i+1:]...)
			writeJSON(w, http.StatusOK, dto.ErrorBody{Message: "Order deleted"})
			return
		}
	}
	writeJSON(w, http.StatusNotFound, dto.ErrorBody{Message: "Order not found"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
