package order

import (
	"net/url"

	"github.com/Additional-Code/ordertrack/internal/entity"
)

// View names rendered by this package.
const viewDashboard = "dashboard"

// Modal modes.
const (
	ModeView   = "view"
	ModeEdit   = "edit"
	ModeDelete = "delete"
)

// Page is the model of the dashboard view.
type Page struct {
	Title         string
	Nav           NavState
	Flash         string
	Form          FormState
	Filter        entity.Filter
	OwnerOptions  []string
	StatusOptions []entity.Status
	Rows          []Row
	Count         int
	ListError     string
	Modal         *ModalState
	Footer        FooterState
}

// NavState drives the navigation shell.
type NavState struct {
	Active       string
	MenuOpen     bool
	ToggleURL    string
	DashboardURL string
	AddURL       string
}

// FormState is the creation form with its inline error.
type FormState struct {
	Action string
	Draft  entity.Draft
	Owners []string
	Error  string
}

// Row is one table line with its status control.
type Row struct {
	Order         entity.Order
	StatusOptions []entity.Status
	StatusAction  string
	ViewURL       string
	Error         string
}

// ModalState is the order detail modal.
type ModalState struct {
	Mode          string
	Found         bool
	Order         entity.Order
	Edit          entity.Edit
	StatusOptions []entity.Status
	Error         string
	CloseURL      string
	ViewURL       string
	EditURL       string
	DeleteURL     string
	UpdateAction  string
	DeleteAction  string
}

// FooterState is the page footer.
type FooterState struct {
	Year        int
	ServiceName string
	BackendURL  string
}

// links builds console URLs that keep the active filters.
type links struct {
	filter url.Values
}

func newLinks(f entity.Filter) links {
	return links{filter: f.Query("owner")}
}

func (l links) with(path string, extra url.Values) string {
	q := url.Values{}
	for k, v := range l.filter {
		q[k] = v
	}
	for k, v := range extra {
		q[k] = v
	}
	if len(q) == 0 {
		return path
	}
	return path + "?" + q.Encode()
}

func (l links) dashboard() string { return l.with("/", nil) }

func (l links) order(id string) string { return l.with("/orders/"+url.PathEscape(id), nil) }

func (l links) orderMode(id, mode string) string {
	return l.with("/orders/"+url.PathEscape(id), url.Values{"mode": {mode}})
}

func (l links) status(id string) string { return l.with("/orders/"+url.PathEscape(id)+"/status", nil) }

func (l links) remove(id string) string { return l.with("/orders/"+url.PathEscape(id)+"/delete", nil) }

func (l links) create() string { return l.with("/orders", nil) }

func navState(l links, query url.Values) NavState {
	menuOpen := query.Get("menu") == "open"
	toggle := url.Values{}
	if !menuOpen {
		toggle.Set("menu", "open")
	}
	if v := query.Get("view"); v != "" {
		toggle.Set("view", v)
	}
	active := "dashboard"
	if query.Get("view") == "add" {
		active = "add"
	}
	return NavState{
		Active:       active,
		MenuOpen:     menuOpen,
		ToggleURL:    l.with("/", toggle),
		DashboardURL: l.with("/", url.Values{"view": {"dashboard"}}),
		AddURL:       l.with("/", url.Values{"view": {"add"}}) + "#add-order",
	}
}
