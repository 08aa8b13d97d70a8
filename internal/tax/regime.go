package tax

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/taxcore/internal/adjustment"
	"github.com/noah-isme/taxcore/internal/jurisdiction"
	"github.com/noah-isme/taxcore/internal/money"
	"github.com/noah-isme/taxcore/internal/obs"
	"github.com/noah-isme/taxcore/internal/order"
	"github.com/noah-isme/taxcore/internal/rules"
)

// RegimeConfig carries the explicit configuration a regime needs. Nothing is
// pulled from globals; deployment wiring passes everything in.
type RegimeConfig struct {
	Snapshot *rules.Snapshot
	// ZoneIDs restricts the regime to a subset of the snapshot's zones.
	// Empty means all zones.
	ZoneIDs []string
	// Currencies restricts which order currencies the regime supports.
	// Empty means all.
	Currencies []string
	Rounding   money.Mode
	// DisplayInclusive only affects how adjustments are labelled downstream;
	// it never switches the computation path. The store's PricesIncludeTax
	// flag is the sole switch between additive and inclusive-split modes.
	DisplayInclusive bool
	Logger           zerolog.Logger
	// Now supplies the rate evaluation date. Defaults to time.Now.
	Now func() time.Time
}

// Regime is a local tax type: it resolves a zone from the snapshot and taxes
// each qualifying line item's adjusted base with the zone's active rate.
type Regime struct {
	id            string
	label         string
	policy        jurisdiction.Policy
	taxable       map[order.TaxableType]bool
	requireSeller bool
	zones         []jurisdiction.Zone
	currencies    map[string]bool
	snapshot      *rules.Snapshot
	rounding      money.Mode
	logger        zerolog.Logger
	now           func() time.Time
}

func newRegime(id, label string, policy jurisdiction.Policy, taxable []order.TaxableType, requireSeller bool, cfg RegimeConfig) *Regime {
	r := &Regime{
		id:            id,
		label:         label,
		policy:        policy,
		taxable:       map[order.TaxableType]bool{},
		requireSeller: requireSeller,
		snapshot:      cfg.Snapshot,
		rounding:      cfg.Rounding,
		logger:        cfg.Logger,
		now:           cfg.Now,
	}
	for _, t := range taxable {
		r.taxable[t] = true
	}
	if r.rounding == "" {
		r.rounding = money.RoundHalfUp
	}
	if r.now == nil {
		r.now = time.Now
	}
	if cfg.Snapshot != nil {
		if len(cfg.ZoneIDs) == 0 {
			r.zones = cfg.Snapshot.Zones()
		} else {
			wanted := map[string]bool{}
			for _, id := range cfg.ZoneIDs {
				wanted[id] = true
			}
			for _, z := range cfg.Snapshot.Zones() {
				if wanted[z.ID] {
					r.zones = append(r.zones, z)
				}
			}
		}
	}
	if len(cfg.Currencies) > 0 {
		r.currencies = map[string]bool{}
		for _, c := range cfg.Currencies {
			r.currencies[strings.ToUpper(strings.TrimSpace(c))] = true
		}
	}
	return r
}

// ID returns the tax type identifier.
func (r *Regime) ID() string { return r.id }

func (r *Regime) supportsCurrency(currency string) bool {
	if r.currencies == nil {
		return true
	}
	return r.currencies[strings.ToUpper(currency)]
}

func (r *Regime) taxesAnyItem(o *order.Order) bool {
	for _, li := range o.Items {
		if r.taxable[li.TaxableType] {
			return true
		}
	}
	return false
}

// resolveZone picks the zone governing this order, or none. Ambiguity is
// returned as jurisdiction.ErrAmbiguousJurisdiction for callers to recover.
func (r *Regime) resolveZone(o *order.Order) (jurisdiction.Zone, bool, error) {
	resolver := jurisdiction.Resolver{Policy: r.policy}
	candidates := resolver.Candidates(o.Store.Jurisdiction, o.Store.Registrations, o.Customer.Jurisdiction)
	matched, err := jurisdiction.Resolve(r.zones, candidates)
	if err != nil {
		if obs.TaxResolverAmbiguousTotal != nil {
			obs.TaxResolverAmbiguousTotal.WithLabelValues(r.id).Inc()
		}
		return jurisdiction.Zone{}, false, err
	}
	if len(matched) == 0 {
		return jurisdiction.Zone{}, false, nil
	}
	zone := matched[0]
	if r.requireSeller && !r.sellerCoversZone(o.Store, zone) {
		return jurisdiction.Zone{}, false, nil
	}
	return zone, true, nil
}

// sellerCoversZone checks the store is obligated to collect in the resolved
// zone, via its home jurisdiction or one of its registrations.
func (r *Regime) sellerCoversZone(store order.Store, zone jurisdiction.Zone) bool {
	within := func(j jurisdiction.Jurisdiction) bool {
		for _, m := range zone.Matchers {
			if m.Matches(j) {
				return true
			}
		}
		return false
	}
	if within(store.Jurisdiction) {
		return true
	}
	for _, reg := range store.Registrations {
		if within(reg) {
			return true
		}
	}
	return false
}

// Applies reports whether this regime would adjust the order: the resolver
// yields an unambiguous zone, the currency is supported, and at least one
// line item is of a taxable type.
func (r *Regime) Applies(_ context.Context, o *order.Order) bool {
	if o == nil || r.snapshot == nil {
		return false
	}
	if !r.supportsCurrency(o.Currency) {
		return false
	}
	if !r.taxesAnyItem(o) {
		return false
	}
	_, found, err := r.resolveZone(o)
	if err != nil {
		r.logger.Warn().Str("tax_type", r.id).Err(err).Msg("zone resolution ambiguous")
		return false
	}
	return found
}

// Apply computes tax adjustments for every qualifying line item and returns a
// new order carrying them. The input order is never mutated; on error it is
// returned as-is with nothing applied.
func (r *Regime) Apply(_ context.Context, o *order.Order) (*order.Order, error) {
	zone, found, err := r.resolveZone(o)
	if err != nil {
		return o, err
	}
	if !found {
		return o, nil
	}
	rate, err := r.snapshot.RateFor(zone.ID, r.now())
	if err != nil {
		return o, err
	}

	inclusive := o.Store.PricesIncludeTax
	out := o.Clone()
	for i, li := range out.Items {
		if !r.taxable[li.TaxableType] {
			continue
		}
		base, err := li.AdjustedBase()
		if err != nil {
			return o, fmt.Errorf("line item %d: %w", i, err)
		}
		// A fully discounted or negative base yields no tax adjustment.
		if !base.IsPositive() {
			continue
		}
		line, err := ComputeLine(base, rate.Percentage, inclusive, r.rounding)
		if err != nil {
			return o, fmt.Errorf("line item %d: %w", i, err)
		}
		pct := rate.Percentage
		adj := adjustment.Adjustment{
			Type:       adjustment.TypeTax,
			Label:      r.label,
			Amount:     line.Amount,
			Percentage: &pct,
			Included:   line.Included,
			SourceID:   r.id + "|" + zone.ID + "|" + rate.ID,
		}
		if err := li.Adjustments.Add(adj); err != nil {
			return o, err
		}
		if obs.TaxAmountComputed != nil {
			amt, _ := line.Amount.Amount().Float64()
			obs.TaxAmountComputed.WithLabelValues(r.id).Observe(amt)
		}
	}
	return out, nil
}
