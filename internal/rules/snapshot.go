package rules

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/taxcore/internal/jurisdiction"
)

// ErrRuleLookup signals that the rule snapshot is missing required zone or
// rate data. A plugin pass that hits it fails as a whole; no partial
// adjustments are applied.
var ErrRuleLookup = errors.New("rules: lookup failed")

// Rate is a percentage valid for a zone within a date range. Ranges are
// half-open: From inclusive, To exclusive. A nil bound is open-ended.
type Rate struct {
	ID         string
	Percentage decimal.Decimal
	From       *time.Time
	To         *time.Time
}

// ActiveAt reports whether the rate applies on the given date.
func (r Rate) ActiveAt(at time.Time) bool {
	if r.From != nil && at.Before(*r.From) {
		return false
	}
	if r.To != nil && !at.Before(*r.To) {
		return false
	}
	return true
}

// Snapshot is an immutable view of tax zones and their rate schedules, loaded
// once by the caller and shared read-only across computation passes.
type Snapshot struct {
	Version   string
	zones     []jurisdiction.Zone
	schedules map[string][]Rate
}

// NewSnapshot validates zones and schedules and builds a snapshot. Schedules
// must reference known zones, carry non-negative percentages, and hold at most
// one active rate per zone at any instant.
func NewSnapshot(version string, zones []jurisdiction.Zone, schedules map[string][]Rate) (*Snapshot, error) {
	known := map[string]bool{}
	for _, z := range zones {
		if z.ID == "" {
			return nil, errors.New("rules: zone without id")
		}
		if known[z.ID] {
			return nil, fmt.Errorf("rules: duplicate zone %q", z.ID)
		}
		known[z.ID] = true
	}
	copied := map[string][]Rate{}
	for zoneID, rates := range schedules {
		if !known[zoneID] {
			return nil, fmt.Errorf("rules: schedule references unknown zone %q", zoneID)
		}
		for i, r := range rates {
			if r.Percentage.IsNegative() {
				return nil, fmt.Errorf("rules: zone %q rate %q: negative percentage", zoneID, r.ID)
			}
			for _, other := range rates[i+1:] {
				if overlaps(r, other) {
					return nil, fmt.Errorf("rules: zone %q: rates %q and %q overlap", zoneID, r.ID, other.ID)
				}
			}
		}
		copied[zoneID] = append([]Rate(nil), rates...)
	}
	return &Snapshot{
		Version:   version,
		zones:     append([]jurisdiction.Zone(nil), zones...),
		schedules: copied,
	}, nil
}

func overlaps(a, b Rate) bool {
	// Open-ended bounds overlap unless one range ends before the other starts.
	if a.To != nil && b.From != nil && !b.From.Before(*a.To) {
		return false
	}
	if b.To != nil && a.From != nil && !a.From.Before(*b.To) {
		return false
	}
	return true
}

// Zones returns the zone set, in declaration order.
func (s *Snapshot) Zones() []jurisdiction.Zone {
	return append([]jurisdiction.Zone(nil), s.zones...)
}

// RateFor returns the rate active for a zone on the given date. Missing zone
// or rate data fails with ErrRuleLookup.
func (s *Snapshot) RateFor(zoneID string, at time.Time) (Rate, error) {
	rates, ok := s.schedules[zoneID]
	if !ok {
		return Rate{}, fmt.Errorf("%w: no schedule for zone %q", ErrRuleLookup, zoneID)
	}
	for _, r := range rates {
		if r.ActiveAt(at) {
			return r, nil
		}
	}
	return Rate{}, fmt.Errorf("%w: no active rate for zone %q at %s", ErrRuleLookup, zoneID, at.Format("2006-01-02"))
}
