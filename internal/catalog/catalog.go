package catalog

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/Additional-Code/ordertrack/internal/config"
	"github.com/Additional-Code/ordertrack/internal/entity"
)

// Catalog is the shared list of delivery statuses and known owners every
// view offers.
type Catalog struct {
	statuses      []entity.Status
	defaultStatus entity.Status
	owners        []string
}

type fileFormat struct {
	Statuses      []string `yaml:"statuses"`
	DefaultStatus string   `yaml:"default_status"`
	Owners        []string `yaml:"owners"`
}

// Module provides the catalog to Fx.
var Module = fx.Provide(New)

// Default returns the built-in catalog.
func Default() *Catalog {
	return &Catalog{
		statuses:      entity.Statuses(),
		defaultStatus: entity.StatusPending,
		owners:        []string{"Ahsan", "Emirate Essentials", "Habibi Tools"},
	}
}

// New loads the catalog file named in the configuration, falling back to the
// built-in values when no file is configured.
func New(cfg config.Config, logger *zap.Logger) (*Catalog, error) {
	if cfg.Catalog.File == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(cfg.Catalog.File)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, err
	}
	if logger != nil {
		logger.Info("catalog loaded",
			zap.String("file", cfg.Catalog.File),
			zap.Int("statuses", len(c.statuses)),
			zap.Int("owners", len(c.owners)),
		)
	}
	return c, nil
}

// Parse builds a catalog from YAML. Omitted sections keep their defaults.
func Parse(data []byte) (*Catalog, error) {
	var f fileFormat
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	c := Default()
	if len(f.Statuses) > 0 {
		c.statuses = c.statuses[:0:0]
		seen := make(map[string]bool, len(f.Statuses))
		for _, s := range f.Statuses {
			s = strings.TrimSpace(s)
			key := strings.ToLower(s)
			if s == "" || seen[key] {
				continue
			}
			seen[key] = true
			c.statuses = append(c.statuses, entity.Status(s))
		}
		if len(c.statuses) == 0 {
			return nil, fmt.Errorf("parse catalog: statuses list is empty")
		}
		c.defaultStatus = c.statuses[0]
	}
	if f.DefaultStatus != "" {
		s, ok := entity.ParseStatus(f.DefaultStatus, c.statuses)
		if !ok {
			return nil, fmt.Errorf("parse catalog: default status %q is not in the status list", f.DefaultStatus)
		}
		c.defaultStatus = s
	}
	if f.Owners != nil {
		c.owners = normalizeOwners(f.Owners)
	}
	return c, nil
}

// Statuses returns the canonical status list.
func (c *Catalog) Statuses() []entity.Status {
	return append([]entity.Status(nil), c.statuses...)
}

// DefaultStatus is the status the backend assigns to new orders.
func (c *Catalog) DefaultStatus() entity.Status {
	return c.defaultStatus
}

// Owners returns the known owners in display order.
func (c *Catalog) Owners() []string {
	return append([]string(nil), c.owners...)
}

// StatusOptions returns the statuses offered for an order. A status the
// backend returned that is not in the catalog is appended so the current
// value stays selectable.
func (c *Catalog) StatusOptions(current entity.Status) []entity.Status {
	opts := c.Statuses()
	if current == "" {
		return opts
	}
	if _, ok := entity.ParseStatus(string(current), opts); ok {
		return opts
	}
	return append(opts, current)
}

// ParseStatus resolves user input against the catalog.
func (c *Catalog) ParseStatus(raw string) (entity.Status, bool) {
	return entity.ParseStatus(raw, c.statuses)
}

// OwnerOptions merges the known owners with the owners present in orders and
// the active selection, sorted and without duplicates.
func (c *Catalog) OwnerOptions(orders []entity.Order, selected string) []string {
	all := append(c.Owners(), selected)
	for _, o := range orders {
		all = append(all, o.Owner)
	}
	return normalizeOwners(all)
}

func normalizeOwners(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, o := range in {
		o = strings.TrimSpace(o)
		if o == "" || strings.EqualFold(o, entity.FilterAll) || seen[o] {
			continue
		}
		seen[o] = true
		out = append(out, o)
	}
	sort.Strings(out)
	return out
}
