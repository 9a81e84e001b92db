package entity

import (
	"net/url"
	"strings"
)

// FilterAll is the select value meaning "no filter".
const FilterAll = "All"

// Filter captures the list view search text and dropdown selections.
type Filter struct {
	Search string
	Owner  string
	Status string
}

// Normalized trims the fields and folds "All" into the empty value.
func (f Filter) Normalized() Filter {
	norm := func(v string) string {
		v = strings.TrimSpace(v)
		if strings.EqualFold(v, FilterAll) {
			return ""
		}
		return v
	}
	return Filter{
		Search: strings.TrimSpace(f.Search),
		Owner:  norm(f.Owner),
		Status: norm(f.Status),
	}
}

// IsZero reports whether no filter is active.
func (f Filter) IsZero() bool {
	return f.Normalized() == Filter{}
}

// Query encodes only the active filters. ownerParam names the owner
// parameter ("owner" or the legacy "vendor").
func (f Filter) Query(ownerParam string) url.Values {
	if ownerParam == "" {
		ownerParam = "owner"
	}
	f = f.Normalized()
	values := url.Values{}
	if f.Owner != "" {
		values.Set(ownerParam, f.Owner)
	}
	if f.Search != "" {
		values.Set("search", f.Search)
	}
	if f.Status != "" {
		values.Set("status", f.Status)
	}
	return values
}

// FilterFromQuery reads a filter from console query parameters.
func FilterFromQuery(q url.Values) Filter {
	owner := q.Get("owner")
	if owner == "" {
		owner = q.Get("vendor")
	}
	return Filter{
		Search: q.Get("search"),
		Owner:  owner,
		Status: q.Get("status"),
	}.Normalized()
}
