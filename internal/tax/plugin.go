package tax

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/taxcore/internal/jurisdiction"
	"github.com/noah-isme/taxcore/internal/obs"
	"github.com/noah-isme/taxcore/internal/order"
)

// Plugin is the polymorphic surface a tax regime implements. Implementations
// are stateless across orders; Apply is a single linear pass per order.
type Plugin interface {
	// Applies reports whether the regime produces adjustments for this order.
	Applies(ctx context.Context, o *order.Order) bool
	// Apply returns a new order value with tax adjustments appended. On any
	// error the input order is unchanged; a plugin never partially adjusts.
	Apply(ctx context.Context, o *order.Order) (*order.Order, error)
}

// Registry dispatches registered tax type plugins against orders in
// registration order. Which plugins are active is deployment configuration,
// resolved once at startup.
type Registry struct {
	entries []registryEntry
	logger  zerolog.Logger
}

type registryEntry struct {
	id     string
	plugin Plugin
}

// NewRegistry constructs an empty registry.
func NewRegistry(logger zerolog.Logger) *Registry {
	return &Registry{logger: logger}
}

// Register adds a plugin under a unique tax type id.
func (r *Registry) Register(id string, p Plugin) error {
	if id == "" {
		return errors.New("tax: plugin id is required")
	}
	if p == nil {
		return fmt.Errorf("tax: plugin %q is nil", id)
	}
	for _, e := range r.entries {
		if e.id == id {
			return fmt.Errorf("tax: plugin %q already registered", id)
		}
	}
	r.entries = append(r.entries, registryEntry{id: id, plugin: p})
	return nil
}

// IDs returns the registered tax type ids in registration order.
func (r *Registry) IDs() []string {
	out := make([]string, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.id
	}
	return out
}

// Run executes the applies-then-apply sequence for every registered plugin.
// Ambiguous jurisdiction resolution skips the plugin for this order (logged,
// counted, not fatal). Any other failure aborts the computation and returns
// the order as it stood before the failing plugin, alongside the error.
func (r *Registry) Run(ctx context.Context, o *order.Order) (*order.Order, error) {
	current := o
	for _, e := range r.entries {
		start := time.Now()
		if !e.plugin.Applies(ctx, current) {
			countPass(e.id, "not_applicable")
			continue
		}
		next, err := e.plugin.Apply(ctx, current)
		if obs.TaxPassDuration != nil {
			obs.TaxPassDuration.WithLabelValues(e.id).Observe(obs.DurationMillis(time.Since(start)))
		}
		if err != nil {
			if errors.Is(err, jurisdiction.ErrAmbiguousJurisdiction) {
				countPass(e.id, "ambiguous")
				r.logger.Warn().
					Str("tax_type", e.id).
					Str("order_id", current.ID.String()).
					Err(err).
					Msg("ambiguous jurisdiction, tax type skipped")
				continue
			}
			countPass(e.id, "failed")
			return current, fmt.Errorf("tax type %q: %w", e.id, err)
		}
		countPass(e.id, "applied")
		current = next
	}
	return current, nil
}

func countPass(taxType, result string) {
	if obs.TaxPassTotal != nil {
		obs.TaxPassTotal.WithLabelValues(taxType, result).Inc()
	}
}
