package category

import (
	"context"
	"fmt"
	"sort"
	"sync/atomic"

	"github.com/kilianp07/logvault/core/logger"
)

// Lookup resolves the active configuration of a category.
type Lookup interface {
	GetConfig(c Category) (Config, bool)
}

// Registry keeps the active configuration of every category in memory. It is
// read-only between Initialize calls and safe for concurrent readers.
type Registry struct {
	provider Provider
	log      logger.Logger
	configs  atomic.Pointer[map[Category]Config]
}

// NewRegistry creates an empty registry backed by provider.
func NewRegistry(provider Provider, log logger.Logger) *Registry {
	r := &Registry{provider: provider, log: logger.OrNop(log)}
	empty := map[Category]Config{}
	r.configs.Store(&empty)
	return r
}

// Initialize loads every record from the provider and swaps the active
// mapping. Malformed records and duplicates are skipped and logged. When the
// provider itself fails the previous mapping stays active.
func (r *Registry) Initialize(ctx context.Context) error {
	if r.provider == nil {
		return fmt.Errorf("category registry: no provider")
	}
	recs, err := r.provider.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("load categories: %w", err)
	}
	next := make(map[Category]Config, len(recs))
	for _, rec := range recs {
		cfg, err := rec.Parse()
		if err != nil {
			r.log.Warnf("skipping category record %q: %v", rec.Category, err)
			continue
		}
		if _, dup := next[cfg.Category]; dup {
			r.log.Warnf("skipping duplicate configuration for %s", cfg.Category)
			continue
		}
		next[cfg.Category] = cfg
	}
	r.configs.Store(&next)
	r.log.Infof("loaded %d category configurations", len(next))
	return nil
}

// GetConfig returns the configuration of c.
func (r *Registry) GetConfig(c Category) (Config, bool) {
	cfg, ok := (*r.configs.Load())[c]
	return cfg, ok
}

// Categories lists the configured categories sorted by name.
func (r *Registry) Categories() []Category {
	m := *r.configs.Load()
	out := make([]Category, 0, len(m))
	for c := range m {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
